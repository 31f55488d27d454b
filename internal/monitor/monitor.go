package monitor

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/starburst997/workspaces-list/internal/procscan"
	"github.com/starburst997/workspaces-list/internal/session"
)

// ProcessChecker is the process-table side of inference. Refresh rescans
// the table; IsRunning answers from the last scan. *procscan.Registry
// implements it.
type ProcessChecker interface {
	Refresh()
	IsRunning(workspace string) bool
}

// TransitionRecorder observes published status transitions. from is the
// zero StatusInfo for a workspace's first computation.
type TransitionRecorder interface {
	RecordTransition(workspace string, from, to StatusInfo, at time.Time) error
}

// Config tunes a Monitor. The zero value works; fields left unset take the
// documented defaults.
type Config struct {
	// ClaudeDir is the agent's data directory. Default ~/.claude.
	ClaudeDir string
	// AgentName is the process name scanned for. Default "claude".
	AgentName string

	// RecomputeInterval is the periodic recompute cadence while focused.
	// Default 5s.
	RecomputeInterval time.Duration
	// RescanInterval is the process-table rescan cadence while focused.
	// Default 30s.
	RescanInterval time.Duration

	// ExecutingWindow is how recently a log write still counts as activity.
	// Default 30s.
	ExecutingWindow time.Duration
	// MinWaitingAge is how old a tool-use message must be before it reads
	// as blocked on the user rather than mid-burst. Default 10s.
	MinWaitingAge time.Duration
	// WaitingWindow bounds how stale a session can be and still report
	// waiting. Default 5m.
	WaitingWindow time.Duration
	// FinishedWindow bounds how long a final answer reads as recently
	// finished. Default 30m.
	FinishedWindow time.Duration

	// Classifier recognizes tool-use and question markers in message
	// content. Default session.MarkerClassifier.
	Classifier session.Classifier
	// Processes overrides the process checker. Default a procscan.Registry
	// for AgentName.
	Processes ProcessChecker
	// Recorder, when set, receives every published transition.
	Recorder TransitionRecorder
}

func (c Config) withDefaults() Config {
	if c.ClaudeDir == "" {
		c.ClaudeDir = session.DefaultClaudeDir()
	}
	if c.AgentName == "" {
		c.AgentName = "claude"
	}
	if c.RecomputeInterval <= 0 {
		c.RecomputeInterval = 5 * time.Second
	}
	if c.RescanInterval <= 0 {
		c.RescanInterval = 30 * time.Second
	}
	if c.ExecutingWindow <= 0 {
		c.ExecutingWindow = 30 * time.Second
	}
	if c.MinWaitingAge <= 0 {
		c.MinWaitingAge = 10 * time.Second
	}
	if c.WaitingWindow <= 0 {
		c.WaitingWindow = 5 * time.Minute
	}
	if c.FinishedWindow <= 0 {
		c.FinishedWindow = 30 * time.Minute
	}
	if c.Classifier == nil {
		c.Classifier = session.MarkerClassifier{}
	}
	if c.Processes == nil {
		c.Processes = procscan.New(c.AgentName)
	}
	return c
}

// transition is one published status change on its way to subscribers and
// the recorder.
type transition struct {
	key     string
	prev    StatusInfo
	hadPrev bool
	info    StatusInfo
	at      time.Time
}

// Monitor watches a set of workspaces and keeps an inferred status for each.
// Create with New, wire workspaces with SetWorkspaces, then Start. All
// methods are safe for concurrent use.
type Monitor struct {
	cfg          Config
	procs        ProcessChecker
	recorder     TransitionRecorder
	projectsRoot string

	mu          sync.Mutex
	running     bool
	stopped     bool
	focused     bool
	order       []string
	workers     map[string]*worker
	byLogDir    map[string][]*worker
	subs        map[string]func(key string, info StatusInfo)
	watcher     *fsnotify.Watcher
	rootWatched bool

	focusNudge chan struct{}
	changes    chan transition
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func New(cfg Config) *Monitor {
	cfg = cfg.withDefaults()
	return &Monitor{
		cfg:          cfg,
		procs:        cfg.Processes,
		recorder:     cfg.Recorder,
		projectsRoot: session.ProjectsRoot(cfg.ClaudeDir),
		focused:      true,
		workers:      make(map[string]*worker),
		byLogDir:     make(map[string][]*worker),
		subs:         make(map[string]func(string, StatusInfo)),
		focusNudge:   make(chan struct{}, 1),
		changes:      make(chan transition, 64),
		stopCh:       make(chan struct{}),
	}
}

// Start begins watching and scheduling. Calling Start on a running monitor
// is a no-op; a stopped monitor cannot be restarted.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watcher = watcher
	m.running = true
	pending := append([]string(nil), m.order...)
	m.mu.Unlock()

	m.procs.Refresh()
	m.ensureRootWatch()
	m.wg.Add(3)
	go m.watchLoop()
	go m.dispatchLoop()
	go m.schedLoop()
	if len(pending) > 0 {
		m.SetWorkspaces(pending)
	}
	return nil
}

// Stop halts all workers and background loops. Safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.stopped = true
		m.mu.Unlock()
		return
	}
	m.running = false
	m.stopped = true
	workers := make([]*worker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.workers = make(map[string]*worker)
	m.byLogDir = make(map[string][]*worker)
	watcher := m.watcher
	m.mu.Unlock()

	close(m.stopCh)
	for _, w := range workers {
		w.halt()
	}
	if watcher != nil {
		_ = watcher.Close()
	}
	m.wg.Wait()
}

// SetWorkspaces replaces the monitored set. New keys get a worker, removed
// keys lose theirs. Order is preserved for Workspaces.
func (m *Monitor) SetWorkspaces(keys []string) {
	cleaned := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		k = filepath.Clean(k)
		if seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, k)
	}

	m.mu.Lock()
	m.order = cleaned
	if !m.running {
		m.mu.Unlock()
		return
	}
	var removed, added []*worker
	for key, w := range m.workers {
		if !seen[key] {
			removed = append(removed, w)
			delete(m.workers, key)
		}
	}
	for _, key := range cleaned {
		if _, ok := m.workers[key]; ok {
			continue
		}
		w := newWorker(key, m.cfg, m.procs, m.enqueueChange)
		w.watchDir = m.addDirWatch
		m.workers[key] = w
		added = append(added, w)
	}
	// Distinct workspaces can collapse to the same log dir, so the routing
	// table maps one dir to many workers.
	m.byLogDir = make(map[string][]*worker, len(m.workers))
	for _, w := range m.workers {
		m.byLogDir[w.logDir] = append(m.byLogDir[w.logDir], w)
	}
	watcher := m.watcher
	byLogDir := m.byLogDir
	m.mu.Unlock()

	for _, w := range removed {
		if watcher != nil && len(byLogDir[w.logDir]) == 0 {
			_ = watcher.Remove(w.logDir)
		}
		w.halt()
	}
	for _, w := range added {
		go w.run()
		if watcher != nil {
			if err := watcher.Add(w.logDir); err != nil {
				// Dir may not exist yet; the projects-root watch picks up
				// its creation.
				slog.Debug("watch add failed", "dir", w.logDir, "error", err)
			}
		}
		w.nudge()
	}
}

// Workspaces returns the monitored keys in the order they were set.
func (m *Monitor) Workspaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// SetFocused tells the monitor whether its host window has focus. While
// unfocused, periodic recomputes are skipped and the process rescan ticker
// is stopped outright; filesystem events still invalidate caches.
func (m *Monitor) SetFocused(focused bool) {
	m.mu.Lock()
	changed := m.focused != focused
	m.focused = focused
	m.mu.Unlock()
	if !changed {
		return
	}
	select {
	case m.focusNudge <- struct{}{}:
	default:
	}
}

func (m *Monitor) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// GetStatus computes the current status for a monitored workspace. The
// worker answers from its caches; an error means inference itself failed
// and the caller should keep whatever it last displayed.
func (m *Monitor) GetStatus(key string) (StatusInfo, error) {
	key = filepath.Clean(key)
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return StatusInfo{}, ErrStopped
	}
	w := m.workers[key]
	m.mu.Unlock()
	if w == nil {
		return StatusInfo{}, ErrNotMonitored
	}
	q := statusQuery{reply: make(chan statusReply, 1)}
	select {
	case w.queries <- q:
	case <-w.done:
		return StatusInfo{}, ErrStopped
	}
	select {
	case rep := <-q.reply:
		return rep.info, rep.err
	case <-w.done:
		return StatusInfo{}, ErrStopped
	}
}

// Acknowledge records that the user has seen a workspace's current status
// and returns the recomputed result.
func (m *Monitor) Acknowledge(key string) (StatusInfo, error) {
	key = filepath.Clean(key)
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return StatusInfo{}, ErrStopped
	}
	w := m.workers[key]
	m.mu.Unlock()
	if w == nil {
		return StatusInfo{}, ErrNotMonitored
	}
	reply := make(chan StatusInfo, 1)
	select {
	case w.ackReqs <- reply:
	case <-w.done:
		return StatusInfo{}, ErrStopped
	}
	select {
	case info := <-reply:
		return info, nil
	case <-w.done:
		return StatusInfo{}, ErrStopped
	}
}

// Subscribe registers a callback for published status changes and returns a
// token for Unsubscribe. Callbacks run on the dispatch goroutine and must
// not block.
func (m *Monitor) Subscribe(fn func(key string, info StatusInfo)) string {
	token := uuid.NewString()
	m.mu.Lock()
	m.subs[token] = fn
	m.mu.Unlock()
	return token
}

func (m *Monitor) Unsubscribe(token string) {
	m.mu.Lock()
	delete(m.subs, token)
	m.mu.Unlock()
}

// enqueueChange is the workers' publish hook. Dropping on overflow is fine:
// the periodic recompute republishes current state soon enough.
func (m *Monitor) enqueueChange(key string, prev StatusInfo, hadPrev bool, info StatusInfo) {
	tr := transition{key: key, prev: prev, hadPrev: hadPrev, info: info, at: time.Now()}
	select {
	case m.changes <- tr:
	default:
		slog.Debug("change queue full", "workspace", key)
	}
}

func (m *Monitor) dispatchLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case tr := <-m.changes:
			m.mu.Lock()
			fns := make([]func(string, StatusInfo), 0, len(m.subs))
			for _, fn := range m.subs {
				fns = append(fns, fn)
			}
			m.mu.Unlock()
			for _, fn := range fns {
				fn(tr.key, tr.info)
			}
			if m.recorder != nil {
				if err := m.recorder.RecordTransition(tr.key, tr.prev, tr.info, tr.at); err != nil {
					slog.Debug("transition record failed", "workspace", tr.key, "error", err)
				}
			}
		}
	}
}

// nudgeAll schedules a recompute on every worker.
func (m *Monitor) nudgeAll() {
	m.mu.Lock()
	workers := make([]*worker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.mu.Unlock()
	for _, w := range workers {
		w.nudge()
	}
}

// schedLoop drives the periodic recompute and the focus-gated process
// rescan. The rescan ticker is created and destroyed on focus transitions,
// not merely skipped, so an unfocused monitor costs nothing.
func (m *Monitor) schedLoop() {
	defer m.wg.Done()
	recompute := time.NewTicker(m.cfg.RecomputeInterval)
	defer recompute.Stop()

	var rescan *time.Ticker
	var rescanC <-chan time.Time
	startRescan := func() {
		rescan = time.NewTicker(m.cfg.RescanInterval)
		rescanC = rescan.C
	}
	stopRescan := func() {
		if rescan != nil {
			rescan.Stop()
			rescan, rescanC = nil, nil
		}
	}
	defer stopRescan()
	if m.Focused() {
		startRescan()
	}

	for {
		select {
		case <-m.stopCh:
			return
		case <-m.focusNudge:
			if m.Focused() {
				if rescan == nil {
					startRescan()
					// Catch up: the table and statuses may be long stale.
					m.procs.Refresh()
					m.nudgeAll()
				}
			} else {
				stopRescan()
			}
		case <-recompute.C:
			if !m.Focused() {
				continue
			}
			m.ensureRootWatch()
			m.nudgeAll()
		case <-rescanC:
			m.procs.Refresh()
		}
	}
}
