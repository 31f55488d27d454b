package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starburst997/workspaces-list/internal/config"
	"github.com/starburst997/workspaces-list/internal/history"
	"github.com/starburst997/workspaces-list/internal/monitor"
	"github.com/starburst997/workspaces-list/internal/msg"
	"github.com/starburst997/workspaces-list/internal/procscan"
	"github.com/starburst997/workspaces-list/internal/session"
	"github.com/starburst997/workspaces-list/internal/ui"
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// statusesLoadedMsg carries the startup status snapshot. Later
	// changes arrive one at a time via msg.StatusChangedMsg.
	statusesLoadedMsg map[string]monitor.StatusInfo

	// processesLoadedMsg carries a fresh process-table snapshot for the
	// processes overlay.
	processesLoadedMsg []procscan.Record
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// loadStatuses fetches the current status of every monitored workspace.
func loadStatuses(mon *monitor.Monitor, keys []string) tea.Cmd {
	return func() tea.Msg {
		statuses := make(map[string]monitor.StatusInfo, len(keys))
		for _, key := range keys {
			info, err := mon.GetStatus(key)
			if err != nil {
				continue
			}
			statuses[key] = info
		}
		return statusesLoadedMsg(statuses)
	}
}

// loadProcesses rescans the process table for the overlay.
func loadProcesses(reg *procscan.Registry) tea.Cmd {
	return func() tea.Msg {
		reg.Refresh()
		return processesLoadedMsg(reg.Snapshot())
	}
}

// acknowledgeWorkspace marks a workspace's attention state as seen.
func acknowledgeWorkspace(mon *monitor.Monitor, key string) tea.Cmd {
	return func() tea.Msg {
		info, err := mon.Acknowledge(key)
		if err != nil {
			return msg.ToastMsg{Message: "Acknowledge failed: " + err.Error(), Duration: 3 * time.Second, IsError: true}
		}
		return msg.StatusChangedMsg{Workspace: key, Info: info}
	}
}

// reloadWorkspaces re-reads the config file and rescans the workspace root.
func reloadWorkspaces(cfgPath string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.LoadFrom(cfgPath)
		if err != nil {
			return msg.WorkspacesReloadedMsg{Err: err}
		}
		return msg.WorkspacesReloadedMsg{Workspaces: cfg.AllWorkspaces()}
	}
}

// loadHistory fetches the newest recorded transitions for a workspace.
func loadHistory(store *history.Store, workspace string) tea.Cmd {
	return func() tea.Msg {
		transitions, err := store.Recent(workspace, historyLimit)
		return msg.HistoryLoadedMsg{Workspace: workspace, Transitions: transitions, Err: err}
	}
}

// copyPath puts the workspace path on the system clipboard.
func copyPath(path string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(path); err != nil {
			return msg.ToastMsg{Message: "Copy failed: " + err.Error(), Duration: 3 * time.Second, IsError: true}
		}
		return msg.ToastMsg{Message: "Path copied", Duration: 2 * time.Second}
	}
}

// loadPreview reads the newest session log for a workspace and renders its
// last message as markdown sized for the detail pane.
func loadPreview(claudeDir, workspace string, width int) tea.Cmd {
	return func() tea.Msg {
		sum, err := newestSummary(claudeDir, workspace)
		if err != nil {
			return msg.PreviewLoadedMsg{Workspace: workspace, Err: err}
		}
		if sum == nil || sum.LastMessage == nil {
			return msg.PreviewLoadedMsg{Workspace: workspace}
		}
		text := session.ContentText(sum.LastMessage.Content)
		if strings.TrimSpace(text) == "" {
			return msg.PreviewLoadedMsg{Workspace: workspace}
		}

		header := "**" + sum.LastMessage.Role + "**"
		if !sum.LastMessage.Timestamp.IsZero() {
			header += " · " + sum.LastMessage.Timestamp.Local().Format("15:04")
		}
		rendered := ui.RenderMarkdown(header+"\n\n"+text, width)
		return msg.PreviewLoadedMsg{Workspace: workspace, Rendered: rendered}
	}
}

// newestSummary finds the most recently modified session log whose working
// directory matches the workspace. Returns nil when no session exists.
func newestSummary(claudeDir, workspace string) (*session.Summary, error) {
	dir := session.LogDir(claudeDir, workspace)
	names, err := session.ListLogs(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var best *session.Summary
	for _, name := range names {
		path := filepath.Join(dir, name)
		cwd, err := session.ReadWorkingDir(path)
		if err != nil {
			continue
		}
		if cwd != "" && !session.CwdMatches(cwd, workspace) {
			continue
		}
		sum, err := session.ReadSummary(path)
		if err != nil {
			continue
		}
		if best == nil || sum.ModTime.After(best.ModTime) {
			s := sum
			best = &s
		}
	}
	return best, nil
}
