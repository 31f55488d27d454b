package msg

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starburst997/workspaces-list/internal/config"
	"github.com/starburst997/workspaces-list/internal/history"
	"github.com/starburst997/workspaces-list/internal/monitor"
)

// ToastMsg displays a temporary message.
type ToastMsg struct {
	Message  string
	Duration time.Duration
	IsError  bool // true for error toasts (red), false for success (green)
}

// ShowToast returns a command to show a toast message.
func ShowToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  message,
			Duration: duration,
		}
	}
}

// ShowErrorToast returns a command to show an error toast message.
func ShowErrorToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  message,
			Duration: duration,
			IsError:  true,
		}
	}
}

// StatusChangedMsg reports a workspace status transition from the monitor.
// Sent into the program from the monitor's subscription callback.
type StatusChangedMsg struct {
	Workspace string
	Info      monitor.StatusInfo
}

// WorkspacesReloadedMsg carries a freshly loaded workspace list.
type WorkspacesReloadedMsg struct {
	Workspaces []config.WorkspaceConfig
	Err        error
}

// PreviewLoadedMsg carries the rendered last-message preview for a workspace.
type PreviewLoadedMsg struct {
	Workspace string
	Rendered  string
	Err       error
}

// HistoryLoadedMsg carries recent status transitions for a workspace.
type HistoryLoadedMsg struct {
	Workspace   string
	Transitions []history.Transition
	Err         error
}
