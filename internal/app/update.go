package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starburst997/workspaces-list/internal/keymap"
	"github.com/starburst997/workspaces-list/internal/mouse"
	"github.com/starburst997/workspaces-list/internal/msg"
	"github.com/starburst997/workspaces-list/internal/version"
)

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.MouseMsg:
		return m.handleMouseMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.resizeDetail()
		m.clampScroll()
		// Markdown is wrapped at load time, so rerender at the new width.
		return m, m.refreshSelected()

	case tea.FocusMsg:
		m.mon.SetFocused(true)
		return m, nil

	case tea.BlurMsg:
		m.mon.SetFocused(false)
		return m, nil

	case TickMsg:
		m.clock = time.Time(message)
		m.ClearToast()
		return m, tickCmd()

	case msg.ToastMsg:
		m.ShowToast(message.Message, message.Duration, message.IsError)
		return m, nil

	case statusesLoadedMsg:
		for key, info := range message {
			m.statuses[key] = info
		}
		m.rebuildList()
		return m, m.selectionCmds()

	case msg.StatusChangedMsg:
		m.statuses[message.Workspace] = message.Info
		m.rebuildList()
		if ws, ok := m.selected(); ok && ws.Path == message.Workspace {
			return m, m.refreshSelected()
		}
		return m, nil

	case msg.WorkspacesReloadedMsg:
		if message.Err != nil {
			m.ShowToast("Reload failed: "+message.Err.Error(), 4*time.Second, true)
			return m, nil
		}
		m.workspaces = message.Workspaces
		m.mon.SetWorkspaces(m.workspaceKeys())
		m.rebuildList()
		m.ShowToast(fmt.Sprintf("%d workspaces", len(m.workspaces)), 2*time.Second, false)
		return m, loadStatuses(m.mon, m.workspaceKeys())

	case msg.PreviewLoadedMsg:
		if message.Workspace != m.previewFor {
			return m, nil // selection moved on
		}
		m.previewErr = message.Err
		m.setPreviewContent(message.Rendered)
		return m, nil

	case msg.HistoryLoadedMsg:
		if message.Workspace != m.historyFor {
			return m, nil
		}
		if message.Err == nil {
			m.transitions = message.Transitions
		}
		return m, nil

	case processesLoadedMsg:
		m.processList = message
		return m, nil

	case version.UpdateAvailableMsg:
		m.updateAvailable = &message
		return m, nil
	}

	return m, nil
}

// handleKeyMsg resolves the key through the bindings of the active input
// context and runs the command it maps to.
func (m Model) handleKeyMsg(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(message)
	}

	if m.showHelp {
		if command, _ := m.keys.Resolve(keymap.ContextHelp, message.String()); command == "close" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showProcesses {
		switch command, _ := m.keys.Resolve(keymap.ContextProcesses, message.String()); command {
		case "close":
			m.showProcesses = false
		case "rescan":
			return m, loadProcesses(m.procs)
		}
		return m, nil
	}

	// The focused preview pane owns its keys; anything unbound scrolls
	// the viewport.
	if m.detailFocused {
		command, bound := m.keys.Resolve(keymap.ContextPreview, message.String())
		if !bound {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(message)
			return m, cmd
		}
		switch command {
		case "back":
			m.detailFocused = false
		case "quit":
			m.persistSelection()
			return m, tea.Quit
		}
		return m, nil
	}

	command, bound := m.keys.Resolve(keymap.ContextList, message.String())
	if !bound {
		return m, nil
	}
	return m.runListCommand(command)
}

// runListCommand executes one workspace-list command.
func (m Model) runListCommand(command string) (tea.Model, tea.Cmd) {
	switch command {
	case "quit":
		m.persistSelection()
		return m, tea.Quit

	case "cursor-up":
		m.moveCursor(-1)
		return m, m.selectionCmds()

	case "cursor-down":
		m.moveCursor(1)
		return m, m.selectionCmds()

	case "cursor-top":
		m.setCursor(0)
		return m, m.selectionCmds()

	case "cursor-bottom":
		m.setCursor(len(m.filtered) - 1)
		return m, m.selectionCmds()

	case "focus-preview":
		if m.showPreview && len(m.filtered) > 0 {
			m.detailFocused = true
		}
		return m, nil

	case "open":
		return m, m.openSelected()

	case "acknowledge":
		if ws, ok := m.selected(); ok {
			return m, acknowledgeWorkspace(m.mon, ws.Path)
		}
		return m, nil

	case "copy-path":
		if ws, ok := m.selected(); ok {
			return m, copyPath(ws.Path)
		}
		return m, nil

	case "filter":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "clear-filter":
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.rebuildList()
		}
		return m, nil

	case "cycle-sort":
		m.cycleSortMode()
		m.ShowToast("Sorted by "+m.sortMode, 2*time.Second, false)
		return m, nil

	case "processes":
		m.showProcesses = true
		return m, loadProcesses(m.procs)

	case "toggle-preview":
		m.showPreview = !m.showPreview
		_ = m.prefs.SetPreviewHidden(!m.showPreview)
		m.resizeDetail()
		if m.showPreview {
			return m, m.refreshSelected()
		}
		m.detailFocused = false
		return m, nil

	case "toggle-footer":
		m.showFooter = !m.showFooter
		_ = m.prefs.SetFooterHidden(!m.showFooter)
		m.resizeDetail()
		m.clampScroll()
		return m, nil

	case "reload":
		return m, reloadWorkspaces(m.cfgPath)

	case "help":
		m.showHelp = true
		return m, nil
	}
	return m, nil
}

// handleFilterKey routes keys while the filter input is focused. Unbound
// keys type into the input.
func (m Model) handleFilterKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch command, _ := m.keys.Resolve(keymap.ContextFilter, message.String()); command {
	case "cancel":
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.rebuildList()
		return m, nil
	case "confirm":
		m.filtering = false
		m.filterInput.Blur()
		m.clampScroll()
		return m, m.selectionCmds()
	case "quit":
		m.persistSelection()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(message)
	m.rebuildList()
	return m, tea.Batch(cmd, m.selectionCmds())
}

// handleMouseMsg routes mouse actions by the region under the pointer.
func (m Model) handleMouseMsg(message tea.MouseMsg) (tea.Model, tea.Cmd) {
	// Overlays have no mouse targets. Swallow events so a click cannot
	// change the selection underneath them.
	if m.showHelp || m.showProcesses {
		return m, nil
	}

	action := m.mouseHandler.HandleMouse(message)
	switch action.Type {
	case mouse.ActionClick:
		return m.handleMouseClick(action)

	case mouse.ActionDoubleClick:
		if action.Region.ID == regionRow {
			if idx, ok := action.Region.Data.(int); ok {
				m.setCursor(idx)
				return m, tea.Batch(m.openSelected(), m.selectionCmds())
			}
		}
		return m, nil

	case mouse.ActionScrollUp, mouse.ActionScrollDown:
		return m.handleMouseScroll(message, action)

	case mouse.ActionDrag:
		if m.mouseHandler.DragRegion() == regionDivider {
			m.listWidth = m.clampListWidth(m.mouseHandler.DragStartValue() + action.DragDX)
			m.resizeDetail()
		}
		return m, nil

	case mouse.ActionDragEnd:
		if m.listWidth > 0 {
			_ = m.prefs.SetListWidth(m.listWidth)
		}
		// The preview was rendered for the old pane width.
		return m, m.refreshSelected()
	}
	return m, nil
}

// handleMouseClick handles single click events.
func (m Model) handleMouseClick(action mouse.MouseAction) (tea.Model, tea.Cmd) {
	if action.Region == nil {
		return m, nil
	}
	switch action.Region.ID {
	case regionRow:
		if idx, ok := action.Region.Data.(int); ok {
			m.setCursor(idx)
			m.detailFocused = false
			return m, m.selectionCmds()
		}

	case regionList:
		m.detailFocused = false

	case regionDetail:
		if len(m.filtered) > 0 {
			m.detailFocused = true
		}

	case regionDivider:
		m.mouseHandler.StartDrag(action.X, action.Y, regionDivider, m.listPaneWidth())
	}
	return m, nil
}

// handleMouseScroll scrolls whichever pane is under the pointer: the
// viewport consumes its own wheel events, the list moves one row per
// tick.
func (m Model) handleMouseScroll(message tea.MouseMsg, action mouse.MouseAction) (tea.Model, tea.Cmd) {
	if action.Region != nil && action.Region.ID == regionDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(message)
		return m, cmd
	}

	delta := 1
	if action.Type == mouse.ActionScrollUp {
		delta = -1
	}
	m.moveCursor(delta)
	return m, m.selectionCmds()
}
