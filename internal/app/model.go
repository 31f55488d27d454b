// Package app implements the terminal dashboard: a workspace list on the
// left, the selected workspace's agent status and last message on the right.
package app

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starburst997/workspaces-list/internal/config"
	"github.com/starburst997/workspaces-list/internal/history"
	"github.com/starburst997/workspaces-list/internal/keymap"
	"github.com/starburst997/workspaces-list/internal/monitor"
	"github.com/starburst997/workspaces-list/internal/mouse"
	"github.com/starburst997/workspaces-list/internal/procscan"
	"github.com/starburst997/workspaces-list/internal/session"
	"github.com/starburst997/workspaces-list/internal/state"
	"github.com/starburst997/workspaces-list/internal/styles"
	"github.com/starburst997/workspaces-list/internal/version"
)

const (
	minWidth  = 60
	minHeight = 16

	headerHeight = 1
	footerHeight = 1

	// Pane width bounds. The list never shrinks below minListPaneWidth
	// and always leaves minDetailPaneWidth for the detail pane.
	minListPaneWidth   = 28
	minDetailPaneWidth = 36

	// Fixed lines in the detail pane above the message viewport: name,
	// path, spacer, status, counts, spacer, heading.
	detailChromeLines = 7

	// How many recent transitions the detail pane shows.
	historyLimit = 5
)

// Mouse hit region IDs.
const (
	regionList    = "list"
	regionRow     = "row"
	regionDetail  = "detail"
	regionDivider = "divider"

	dividerHitWidth = 2
)

// Model is the root Bubble Tea model for the workspaces-list application.
type Model struct {
	// Configuration
	cfg     *config.Config
	cfgPath string // path given on the command line; empty means the default

	// Collaborators
	mon   *monitor.Monitor
	hist  *history.Store // nil when transition history is disabled
	prefs *state.Store
	keys  *keymap.Registry

	// Workspace list
	workspaces []config.WorkspaceConfig
	statuses   map[string]monitor.StatusInfo
	filtered   []config.WorkspaceConfig
	cursor     int
	scroll     int
	sortMode   string

	// Filter input
	filterInput textinput.Model
	filtering   bool

	// Detail pane
	detail        viewport.Model
	detailFocused bool
	previewFor    string
	previewErr    error
	historyFor    string
	transitions   []history.Transition

	// Processes overlay
	procs         *procscan.Registry
	showProcesses bool
	processList   []procscan.Record

	// Mouse
	mouseHandler *mouse.Handler

	// UI state
	width, height int
	ready         bool
	showHelp      bool
	showFooter    bool
	showPreview   bool
	listWidth     int
	clock         time.Time

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	// Version info
	currentVersion  string
	updateAvailable *version.UpdateAvailableMsg
}

// New creates the application model. cfgPath is the config file the app was
// started with (empty for the default location); hist may be nil when
// history is disabled.
func New(cfg *config.Config, cfgPath string, mon *monitor.Monitor, hist *history.Store, prefs *state.Store, currentVersion string) Model {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.Prompt = "/"
	ti.CharLimit = 50
	ti.Width = 24

	agent := cfg.Monitor.AgentName
	if agent == "" {
		agent = "claude"
	}

	m := Model{
		cfg:            cfg,
		cfgPath:        cfgPath,
		mon:            mon,
		hist:           hist,
		prefs:          prefs,
		keys:           keymap.NewDefault(),
		workspaces:     cfg.AllWorkspaces(),
		statuses:       make(map[string]monitor.StatusInfo),
		sortMode:       prefs.SortMode(),
		filterInput:    ti,
		detail:         viewport.New(0, 0),
		procs:          procscan.New(agent),
		mouseHandler:   mouse.NewHandler(),
		showFooter:     cfg.UI.ShowFooter && !prefs.FooterHidden(),
		showPreview:    cfg.UI.ShowPreview && !prefs.PreviewHidden(),
		listWidth:      prefs.ListWidth(),
		clock:          time.Now(),
		currentVersion: currentVersion,
	}
	m.rebuildList()

	// Restore the previous run's selection when it still exists.
	if path := prefs.SelectedWorkspace(); path != "" {
		for i, ws := range m.filtered {
			if ws.Path == path {
				m.cursor = i
				break
			}
		}
	}
	return m
}

// Init initializes the model and returns initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		version.CheckAsync(m.currentVersion),
		loadStatuses(m.mon, m.workspaceKeys()),
	)
}

// workspaceKeys returns the monitored path of every configured workspace.
func (m Model) workspaceKeys() []string {
	keys := make([]string, len(m.workspaces))
	for i, ws := range m.workspaces {
		keys[i] = ws.Path
	}
	return keys
}

// selected returns the workspace under the cursor.
func (m Model) selected() (config.WorkspaceConfig, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return config.WorkspaceConfig{}, false
	}
	return m.filtered[m.cursor], true
}

// rebuildList recomputes the visible rows from the filter text and sort
// mode, keeping the current selection when it survives the rebuild.
func (m *Model) rebuildList() {
	var selectedPath string
	if ws, ok := m.selected(); ok {
		selectedPath = ws.Path
	}

	filter := strings.ToLower(m.filterInput.Value())
	filtered := make([]config.WorkspaceConfig, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		if filter != "" &&
			!strings.Contains(strings.ToLower(ws.Name), filter) &&
			!strings.Contains(strings.ToLower(ws.Path), filter) {
			continue
		}
		filtered = append(filtered, ws)
	}
	m.sortFiltered(filtered)
	m.filtered = filtered

	m.cursor = 0
	for i, ws := range filtered {
		if ws.Path == selectedPath {
			m.cursor = i
			break
		}
	}
	m.clampScroll()
}

// sortFiltered orders the list in place. Name is always the tie-breaker so
// the order stays stable across status recomputes.
func (m *Model) sortFiltered(list []config.WorkspaceConfig) {
	switch m.sortMode {
	case state.SortStatus:
		sort.SliceStable(list, func(i, j int) bool {
			ri := statusRank(m.statuses[list[i].Path].Status)
			rj := statusRank(m.statuses[list[j].Path].Status)
			if ri != rj {
				return ri < rj
			}
			return list[i].Name < list[j].Name
		})
	case state.SortActivity:
		sort.SliceStable(list, func(i, j int) bool {
			ti := m.statuses[list[i].Path].LastMessageTime
			tj := m.statuses[list[j].Path].LastMessageTime
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return list[i].Name < list[j].Name
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Name < list[j].Name
		})
	}
}

// statusRank orders statuses by how urgently they want the user. Lower
// sorts first.
func statusRank(st monitor.Status) int {
	switch st {
	case monitor.StatusWaitingForInput:
		return 0
	case monitor.StatusRecentlyFinished:
		return 1
	case monitor.StatusExecuting:
		return 2
	case monitor.StatusRunning:
		return 3
	case monitor.StatusNotRunning:
		return 4
	default:
		return 5
	}
}

// cycleSortMode advances name -> status -> activity -> name.
func (m *Model) cycleSortMode() {
	switch m.sortMode {
	case state.SortName:
		m.sortMode = state.SortStatus
	case state.SortStatus:
		m.sortMode = state.SortActivity
	default:
		m.sortMode = state.SortName
	}
	_ = m.prefs.SetSortMode(m.sortMode)
	m.rebuildList()
}

// moveCursor shifts the selection and keeps it inside the list.
func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

// setCursor places the selection, clamped to the list.
func (m *Model) setCursor(i int) {
	m.cursor = i
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampScroll()
}

// openSelected acknowledges the selected workspace when it wants
// attention and moves focus into the preview pane.
func (m *Model) openSelected() tea.Cmd {
	ws, ok := m.selected()
	if !ok {
		return nil
	}
	var cmd tea.Cmd
	if m.statuses[ws.Path].Status.NeedsAttention() {
		cmd = acknowledgeWorkspace(m.mon, ws.Path)
	}
	if m.showPreview {
		m.detailFocused = true
	}
	return cmd
}

// clampScroll keeps the cursor inside the scrolled window.
func (m *Model) clampScroll() {
	rows := m.listRows()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+rows {
		m.scroll = m.cursor - rows + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// filterVisible reports whether the filter line occupies list rows.
func (m Model) filterVisible() bool {
	return m.filtering || m.filterInput.Value() != ""
}

// listRows returns how many workspace rows fit in the list pane.
func (m Model) listRows() int {
	rows := m.contentHeight() - 2 // pane borders
	if m.filterVisible() {
		rows -= 2 // filter input and match count
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// contentHeight returns the rows available to the panes.
func (m Model) contentHeight() int {
	h := m.height - headerHeight
	if m.showFooter {
		h -= footerHeight
	}
	if h < 0 {
		h = 0
	}
	return h
}

// listPaneWidth returns the outer width of the workspace list pane.
func (m Model) listPaneWidth() int {
	if !m.showPreview {
		return m.width
	}
	w := m.listWidth
	if w <= 0 {
		w = m.width * 2 / 5
	}
	return m.clampListWidth(w)
}

// clampListWidth bounds a list pane width so both panes stay usable.
func (m Model) clampListWidth(w int) int {
	if w < minListPaneWidth {
		w = minListPaneWidth
	}
	if max := m.width - minDetailPaneWidth; w > max {
		w = max
	}
	if w > m.width {
		w = m.width
	}
	return w
}

// previewWidth returns the text width inside the detail pane.
func (m Model) previewWidth() int {
	w := m.width - m.listPaneWidth() - 4 // borders and padding
	if w < 20 {
		w = 20
	}
	return w
}

// resizeDetail sizes the message viewport to the space the detail pane
// leaves after its fixed lines.
func (m *Model) resizeDetail() {
	h := m.contentHeight() - 2 - detailChromeLines
	if m.hist != nil {
		h -= historyLimit + 2 // spacer, heading, rows
	}
	if h < 3 {
		h = 3
	}
	m.detail.Width = m.previewWidth()
	m.detail.Height = h
}

// claudeDir returns the agent data directory previews are read from.
func (m Model) claudeDir() string {
	if m.cfg.Monitor.ClaudeDataDir != "" {
		return config.ExpandPath(m.cfg.Monitor.ClaudeDataDir)
	}
	return session.DefaultClaudeDir()
}

// attentionCount returns how many workspaces currently want the user.
func (m Model) attentionCount() int {
	n := 0
	for _, ws := range m.workspaces {
		if m.statuses[ws.Path].Status.NeedsAttention() {
			n++
		}
	}
	return n
}

// selectionCmds loads the preview and history for the current selection.
// Loads already in flight for the same workspace are not repeated.
func (m *Model) selectionCmds() tea.Cmd {
	ws, ok := m.selected()
	if !ok {
		return nil
	}
	var cmds []tea.Cmd
	if m.showPreview && ws.Path != m.previewFor {
		m.previewFor = ws.Path
		m.previewErr = nil
		m.detail.SetContent(styles.Subtle.Render("Loading..."))
		cmds = append(cmds, loadPreview(m.claudeDir(), ws.Path, m.previewWidth()))
	}
	if m.hist != nil && ws.Path != m.historyFor {
		m.historyFor = ws.Path
		m.transitions = nil
		cmds = append(cmds, loadHistory(m.hist, ws.Path))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// refreshSelected re-requests the preview and history for the selection
// even when they were loaded before.
func (m *Model) refreshSelected() tea.Cmd {
	m.previewFor = ""
	m.historyFor = ""
	return m.selectionCmds()
}

// setPreviewContent fills the detail viewport, substituting placeholders
// for errors and message-less sessions.
func (m *Model) setPreviewContent(rendered string) {
	switch {
	case m.previewErr != nil:
		m.detail.SetContent(styles.Muted.Render("Preview unavailable: " + m.previewErr.Error()))
	case rendered == "":
		m.detail.SetContent(styles.Subtle.Render("No messages yet."))
	default:
		m.detail.SetContent(rendered)
	}
	m.detail.GotoTop()
}

// persistSelection saves the selected workspace so the next run restores it.
func (m *Model) persistSelection() {
	if ws, ok := m.selected(); ok {
		_ = m.prefs.SetSelectedWorkspace(ws.Path)
	}
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(message string, duration time.Duration, isError bool) {
	m.statusMsg = message
	m.statusExpiry = time.Now().Add(duration)
	m.statusIsError = isError
}

// ClearToast clears any expired toast message.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}
