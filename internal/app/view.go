package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starburst997/workspaces-list/internal/config"
	"github.com/starburst997/workspaces-list/internal/history"
	"github.com/starburst997/workspaces-list/internal/monitor"
	"github.com/starburst997/workspaces-list/internal/session"
	"github.com/starburst997/workspaces-list/internal/styles"
	"github.com/starburst997/workspaces-list/internal/ui"
)

// View renders the full screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show warning if terminal is too small
	if m.width < minWidth || m.height < minHeight {
		warning := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.StatusWaiting.Render(warning))
	}

	m.registerHitRegions()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	bg := b.String()
	if m.showHelp {
		return m.renderHelpOverlay(bg)
	}
	if m.showProcesses {
		return m.renderProcessesOverlay(bg)
	}
	return bg
}

// registerHitRegions rebuilds the mouse hit map to match this frame's
// layout. Later regions sit on top, so rows beat the list pane and the
// divider beats both panes.
func (m Model) registerHitRegions() {
	hm := m.mouseHandler.HitMap
	hm.Clear()

	listW := m.listPaneWidth()
	contentH := m.contentHeight()
	hm.AddRect(regionList, 0, headerHeight, listW, contentH, nil)
	if m.showPreview {
		hm.AddRect(regionDetail, listW, headerHeight, m.width-listW, contentH, nil)
	}

	top := headerHeight + 1 // below the pane border
	if m.filterVisible() {
		top += 2
	}
	end := m.scroll + m.listRows()
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.scroll; i < end; i++ {
		hm.AddRect(regionRow, 1, top+(i-m.scroll), listW-2, 1, i)
	}

	if m.showPreview {
		hm.AddRect(regionDivider, listW-1, headerHeight, dividerHitWidth, contentH, nil)
	}
}

// renderHeader renders the title bar: logo, attention summary, update chip,
// clock.
func (m Model) renderHeader() string {
	title := styles.Logo.Render(" Workspaces")

	var summary string
	if n := m.attentionCount(); n > 0 {
		summary = styles.StatusWaiting.Render(fmt.Sprintf("%d waiting", n))
	} else {
		summary = styles.Muted.Render(fmt.Sprintf("%d workspaces", len(m.workspaces)))
	}

	var update string
	if m.updateAvailable != nil {
		update = styles.StatusFinished.Render("↑ "+m.updateAvailable.LatestVersion) + "  "
	}

	clock := styles.Muted.Render(m.clock.Format("15:04")) + " "

	spacing := m.width - lipgloss.Width(title) - 2 - lipgloss.Width(summary) -
		lipgloss.Width(update) - lipgloss.Width(clock)
	if spacing < 0 {
		spacing = 0
	}

	header := title + "  " + summary + strings.Repeat(" ", spacing) + update + clock
	return styles.Header.Width(m.width).MaxWidth(m.width).Render(header)
}

// renderContent renders the workspace list and optional detail pane.
func (m Model) renderContent() string {
	h := m.contentHeight()
	if h <= 0 {
		return ""
	}
	listW := m.listPaneWidth()

	listStyle := styles.PanelActive
	if m.detailFocused {
		listStyle = styles.PanelInactive
	}
	left := listStyle.Width(listW - 2).Height(h - 2).Render(m.renderList(listW - 4))

	if !m.showPreview {
		return left
	}

	detailStyle := styles.PanelInactive
	if m.detailFocused {
		detailStyle = styles.PanelActive
	}
	detailW := m.width - listW
	right := detailStyle.Width(detailW - 2).Height(h - 2).Render(m.renderDetail(detailW - 4))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderList renders the workspace rows inside the list pane.
func (m Model) renderList(width int) string {
	var b strings.Builder

	if m.filterVisible() {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
		b.WriteString(styles.Subtle.Render(fmt.Sprintf("%d of %d", len(m.filtered), len(m.workspaces))))
		b.WriteString("\n")
	}

	if len(m.filtered) == 0 {
		if len(m.workspaces) == 0 {
			b.WriteString(styles.Muted.Render("No workspaces configured."))
			b.WriteString("\n\n")
			b.WriteString(styles.Muted.Render("Add one with:"))
			b.WriteString("\n")
			b.WriteString(styles.Subtle.Render("  workspaces-list -add ~/code/myapp"))
		} else {
			b.WriteString(styles.Muted.Render("No matches"))
		}
		return b.String()
	}

	rows := m.listRows()
	end := m.scroll + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.scroll; i < end; i++ {
		b.WriteString(m.renderRow(m.filtered[i], i == m.cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRow renders one workspace line: cursor, status glyph, name, and the
// last activity age right-aligned.
func (m Model) renderRow(ws config.WorkspaceConfig, selected bool, width int) string {
	info := m.statuses[ws.Path]

	cursor := "  "
	if selected {
		cursor = styles.ListCursor.Render("→ ")
	}

	glyph := styles.ForStatus(info.Status).Render(styles.Glyph(info.Status))
	age := formatRelativeTime(info.LastMessageTime)

	nameWidth := width - 4 - lipgloss.Width(age) - 1
	if nameWidth < 8 {
		nameWidth = 8
	}
	nameStyle := styles.ListItemNormal
	if selected {
		nameStyle = styles.ListItemSelected
	}
	if info.Status.NeedsAttention() {
		nameStyle = nameStyle.Bold(true)
	}
	name := nameStyle.Render(ui.PadRight(ws.Name, nameWidth))

	return cursor + glyph + " " + name + " " + styles.Subtle.Render(age)
}

// renderDetail renders the right-hand pane for the selected workspace.
func (m Model) renderDetail(width int) string {
	ws, ok := m.selected()
	if !ok {
		return styles.Muted.Render("Nothing selected.")
	}
	info := m.statuses[ws.Path]

	var b strings.Builder
	b.WriteString(styles.Title.Render(ws.Name))
	b.WriteString("\n")
	b.WriteString(styles.Subtle.Render(ui.Truncate(ws.Path, width)))
	b.WriteString("\n\n")

	b.WriteString(styles.ForStatus(info.Status).Render(styles.Glyph(info.Status) + " " + info.Status.Label()))
	if age := formatRelativeTime(info.JustifiedAt); age != "" {
		b.WriteString(styles.Muted.Render("  " + age))
	}
	b.WriteString("\n")

	counts := fmt.Sprintf("%d conversations", info.ConversationCount)
	if age := formatRelativeTime(info.LastMessageTime); age != "" {
		counts += " · last activity " + age
	}
	b.WriteString(styles.Muted.Render(counts))
	b.WriteString("\n\n")

	b.WriteString(styles.Title.Render("Last message"))
	b.WriteString("\n")
	b.WriteString(m.detail.View())

	if m.hist != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.Title.Render("Recent transitions"))
		b.WriteString("\n")
		if len(m.transitions) == 0 {
			b.WriteString(styles.Subtle.Render("None recorded."))
		} else {
			for i, tr := range m.transitions {
				b.WriteString(renderTransition(tr))
				if i < len(m.transitions)-1 {
					b.WriteString("\n")
				}
			}
		}
	}

	return b.String()
}

// renderTransition renders one history row, newest first.
func renderTransition(tr history.Transition) string {
	when := styles.Subtle.Render(tr.RecordedAt.Local().Format("15:04"))
	from := styles.Muted.Render(tr.FromStatus.Label())
	to := styles.ForStatus(tr.ToStatus).Render(tr.ToStatus.Label())
	return fmt.Sprintf("%s %s → %s", when, from, to)
}

// renderFooter renders key hints, the toast area, and the sort mode.
func (m Model) renderFooter() string {
	var status string
	if m.statusMsg != "" {
		toastStyle := styles.ToastSuccess
		if m.statusIsError {
			toastStyle = styles.ToastError
		}
		status = toastStyle.Render(m.statusMsg)
	}

	sortLabel := styles.Muted.Render("sort: " + m.sortMode + " ")

	statusWidth := lipgloss.Width(status)
	sortWidth := lipgloss.Width(sortLabel)
	availableForHints := m.width - statusWidth - sortWidth - 4
	hintsStr := renderHintLineTruncated(m.footerHints(), availableForHints)

	spacing := m.width - lipgloss.Width(hintsStr) - statusWidth - sortWidth
	if spacing < 0 {
		spacing = 0
	}

	footer := hintsStr + strings.Repeat(" ", spacing/2) + status +
		strings.Repeat(" ", spacing-(spacing/2)) + sortLabel
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(footer)
}

type footerHint struct {
	keys  string
	label string
}

// footerHints lists the most useful bindings for the current focus.
func (m Model) footerHints() []footerHint {
	if m.detailFocused {
		return []footerHint{
			{keys: "j/k", label: "scroll"},
			{keys: "tab", label: "back"},
			{keys: "q", label: "quit"},
		}
	}
	return []footerHint{
		{keys: "j/k", label: "move"},
		{keys: "a", label: "ack"},
		{keys: "/", label: "filter"},
		{keys: "s", label: "sort"},
		{keys: "r", label: "reload"},
		{keys: "?", label: "help"},
		{keys: "q", label: "quit"},
	}
}

// renderHintLineTruncated renders hints but stops adding when maxWidth is
// exceeded.
func renderHintLineTruncated(hints []footerHint, maxWidth int) string {
	if len(hints) == 0 || maxWidth <= 0 {
		return ""
	}
	var result string
	separator := "  "
	for i, hint := range hints {
		if hint.keys == "" || hint.label == "" {
			continue
		}
		part := fmt.Sprintf("%s %s", styles.KeyHint.Render(hint.keys), hint.label)
		var candidate string
		if i == 0 {
			candidate = part
		} else {
			candidate = result + separator + part
		}
		if lipgloss.Width(candidate) > maxWidth {
			break
		}
		result = candidate
	}
	return result
}

// renderHelpOverlay renders the help modal over content.
func (m Model) renderHelpOverlay(content string) string {
	modal := styles.ModalBox.Render(m.buildHelpContent())
	return ui.OverlayModal(content, modal, m.width, m.height)
}

// renderProcessesOverlay lists the agent processes from the last scan,
// tagged with the workspace each one runs in.
func (m Model) renderProcessesOverlay(content string) string {
	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render("Agent Processes"))
	b.WriteString("\n\n")

	if len(m.processList) == 0 {
		b.WriteString(styles.Muted.Render("No agent processes found."))
		b.WriteString("\n")
	} else {
		for _, rec := range m.processList {
			b.WriteString(styles.Subtle.Render(fmt.Sprintf("%7d ", rec.PID)))
			b.WriteString(styles.Body.Render(rec.WorkingDir))
			if name := m.workspaceFor(rec.WorkingDir); name != "" {
				b.WriteString(styles.StatusRunning.Render("  " + name))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.KeyHint.Render("r"))
	b.WriteString(styles.Muted.Render(" rescan  "))
	b.WriteString(styles.KeyHint.Render("esc"))
	b.WriteString(styles.Muted.Render(" close"))

	modal := styles.ModalBox.Render(b.String())
	return ui.OverlayModal(content, modal, m.width, m.height)
}

// workspaceFor returns the name of the workspace containing cwd, or "".
func (m Model) workspaceFor(cwd string) string {
	for _, ws := range m.workspaces {
		if session.CwdMatches(cwd, ws.Path) {
			return ws.Name
		}
	}
	return ""
}

// buildHelpContent builds the keyboard reference shown by '?'.
func (m Model) buildHelpContent() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render("Keyboard Reference"))
	b.WriteString("\n\n")

	writeKey := func(keys, label string) {
		b.WriteString(styles.KeyHint.Render(keys))
		b.WriteString(" " + label + "\n")
	}

	b.WriteString(styles.Title.Render("Navigate"))
	b.WriteString("\n")
	writeKey("j/k", "move selection")
	writeKey("g/G", "jump to first / last")
	writeKey("enter", "open: acknowledge and focus the preview")
	writeKey("tab", "focus the preview pane")
	writeKey("esc", "back, clear filter")
	b.WriteString("\n")

	b.WriteString(styles.Title.Render("Act"))
	b.WriteString("\n")
	writeKey("a", "acknowledge a waiting workspace")
	writeKey("y", "copy workspace path")
	writeKey("r", "reload the workspace list")
	b.WriteString("\n")

	b.WriteString(styles.Title.Render("Display"))
	b.WriteString("\n")
	writeKey("/", "filter workspaces")
	writeKey("s", "cycle sort mode")
	writeKey("p", "show agent processes")
	writeKey("v", "toggle preview pane")
	writeKey("ctrl+h", "toggle footer")
	b.WriteString("\n")

	b.WriteString(styles.Title.Render("Status glyphs"))
	b.WriteString("\n")
	legend := []monitor.Status{
		monitor.StatusExecuting,
		monitor.StatusWaitingForInput,
		monitor.StatusRecentlyFinished,
		monitor.StatusRunning,
		monitor.StatusNotRunning,
		monitor.StatusNoSession,
	}
	for _, st := range legend {
		b.WriteString(styles.ForStatus(st).Render(styles.Glyph(st)))
		b.WriteString(" " + st.Label() + "\n")
	}
	b.WriteString("\n")

	b.WriteString(styles.KeyHint.Render("esc"))
	b.WriteString(styles.Muted.Render(" close"))
	return b.String()
}

// formatRelativeTime formats a time as relative (e.g., "3m", "2h").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
