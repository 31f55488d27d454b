package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starburst997/workspaces-list/internal/monitor"
)

// Color palette - default dark theme
var (
	// Primary colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#3B82F6") // Blue
	Accent    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Info    = lipgloss.Color("#3B82F6") // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("#F9FAFB")
	TextSecondary = lipgloss.Color("#9CA3AF")
	TextMuted     = lipgloss.Color("#6B7280")
	TextSubtle    = lipgloss.Color("#4B5563")

	// Background colors
	BgPrimary   = lipgloss.Color("#111827")
	BgSecondary = lipgloss.Color("#1F2937")
	BgTertiary  = lipgloss.Color("#374151")

	// Border colors
	BorderNormal = lipgloss.Color("#374151")
	BorderActive = lipgloss.Color("#7C3AED")
)

// Panel styles
var (
	// Active panel with highlighted border
	PanelActive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderActive).
			Padding(0, 1)

	// Inactive panel with subtle border
	PanelInactive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderNormal).
			Padding(0, 1)

	// Panel header
	PanelHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimary).
			MarginBottom(1)
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	Body = lipgloss.NewStyle().
		Foreground(TextPrimary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Subtle = lipgloss.NewStyle().
		Foreground(TextSubtle)

	KeyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgTertiary).
		Padding(0, 1)

	Logo = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
)

// Workspace status styles
var (
	StatusExecuting = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	StatusWaiting = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	StatusFinished = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	StatusRunning = lipgloss.NewStyle().
			Foreground(Info)

	StatusIdle = lipgloss.NewStyle().
			Foreground(TextMuted)

	StatusEmpty = lipgloss.NewStyle().
			Foreground(TextSubtle)
)

// ForStatus returns the style used to render a workspace status.
func ForStatus(st monitor.Status) lipgloss.Style {
	switch st {
	case monitor.StatusExecuting:
		return StatusExecuting
	case monitor.StatusWaitingForInput:
		return StatusWaiting
	case monitor.StatusRecentlyFinished:
		return StatusFinished
	case monitor.StatusRunning:
		return StatusRunning
	case monitor.StatusNotRunning:
		return StatusIdle
	default:
		return StatusEmpty
	}
}

// Glyph returns the single-cell marker shown next to a workspace.
func Glyph(st monitor.Status) string {
	switch st {
	case monitor.StatusExecuting:
		return "▶"
	case monitor.StatusWaitingForInput:
		return "?"
	case monitor.StatusRecentlyFinished:
		return "✓"
	case monitor.StatusRunning:
		return "●"
	case monitor.StatusNotRunning:
		return "○"
	default:
		return "·"
	}
}

// List item styles
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(TextPrimary)

	ListItemSelected = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(BgTertiary)

	ListCursor = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Toast styles for status messages
var (
	ToastSuccess = lipgloss.NewStyle().
			Background(Success).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	ToastError = lipgloss.NewStyle().
			Background(Error).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

// Footer and header
var (
	Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgSecondary)

	Header = lipgloss.NewStyle().
		Background(BgSecondary)
)

// Modal styles
var (
	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Background(BgSecondary).
			Padding(1, 2)

	ModalTitle = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Bold(true).
			MarginBottom(1)
)
