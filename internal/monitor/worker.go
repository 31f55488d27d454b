package monitor

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starburst997/workspaces-list/internal/session"
)

// debounceDelay batches filesystem event bursts into one recompute. Agents
// write session files in rapid flurries.
const debounceDelay = 100 * time.Millisecond

type fsEventKind int

const (
	fsFileCreated fsEventKind = iota
	fsFileChanged
	fsFileRemoved
	fsDirCreated
	fsDirRemoved
)

// fsEvent is a filesystem observation routed to a worker. For
// fsFileChanged, size carries the file's current size, or -1 when the stat
// failed.
type fsEvent struct {
	kind fsEventKind
	path string
	size int64
}

type statusQuery struct {
	reply chan statusReply
}

type statusReply struct {
	info StatusInfo
	err  error
}

// worker owns all mutable state for one workspace: its caches, its
// acknowledgement record, and its last published status. Everything
// arrives through channels and is handled on the worker's own goroutine, so
// none of it needs a lock. A panic in one worker is recovered and never
// touches its siblings.
type worker struct {
	key    string // workspace path, cleaned
	logDir string
	cfg    Config
	procs  ProcessChecker
	notify func(key string, prev StatusInfo, hadPrev bool, info StatusInfo)
	// watchDir registers a late-appearing log dir with the watcher. Dirs
	// that exist up front are registered when the worker is wired in.
	watchDir func(dir string)

	cache     *tierCache
	ack       ackRecord
	startedAt time.Time
	last      StatusInfo
	hasLast   bool
	dirLive   bool

	events   chan fsEvent
	kick     chan struct{}
	queries  chan statusQuery
	ackReqs  chan chan StatusInfo
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWorker(key string, cfg Config, procs ProcessChecker, notify func(string, StatusInfo, bool, StatusInfo)) *worker {
	return &worker{
		key:       key,
		logDir:    session.LogDir(cfg.ClaudeDir, key),
		cfg:       cfg,
		procs:     procs,
		notify:    notify,
		cache:     newTierCache(),
		startedAt: time.Now(),
		events:    make(chan fsEvent, 64),
		kick:      make(chan struct{}, 1),
		queries:   make(chan statusQuery),
		ackReqs:   make(chan chan StatusInfo),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (w *worker) run() {
	defer close(w.done)
	var debounce *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		case ev := <-w.events:
			refreshLater := false
			w.guarded(func() { refreshLater = w.absorb(ev) })
			if !refreshLater {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				pending = debounce.C
			} else {
				if !debounce.Stop() {
					<-pending
				}
				debounce.Reset(debounceDelay)
			}
		case <-pending:
			debounce = nil
			pending = nil
			w.guarded(func() { w.refresh() })
		case <-w.kick:
			w.guarded(func() { w.refresh() })
		case q := <-w.queries:
			q.reply <- w.query()
		case reply := <-w.ackReqs:
			w.guarded(func() { w.acknowledge() })
			reply <- w.last
		}
	}
}

func (w *worker) halt() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// nudge schedules a recompute if one isn't already queued.
func (w *worker) nudge() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// sendEvent delivers a filesystem event, giving up if the worker has
// stopped.
func (w *worker) sendEvent(ev fsEvent) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

func (w *worker) guarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("workspace worker recovered", "workspace", w.key, "panic", r)
		}
	}()
	fn()
}

func (w *worker) query() statusReply {
	var rep statusReply
	func() {
		defer func() {
			if r := recover(); r != nil {
				rep = statusReply{err: fmt.Errorf("%w: %v", ErrInference, r)}
			}
		}()
		rep.info = w.refresh()
	}()
	return rep
}

// absorb applies an event's invalidations. It reports whether a recompute
// should follow; a liveness ping recomputes inline instead.
func (w *worker) absorb(ev fsEvent) bool {
	switch ev.kind {
	case fsFileCreated:
		w.cache.evictListing(w.logDir)
		w.cache.evictSummary(ev.path)
	case fsFileRemoved:
		w.cache.evictListing(w.logDir)
		w.cache.removeSummary(ev.path)
	case fsFileChanged:
		if known := w.cache.knownSize(ev.path); known >= 0 && ev.size == known {
			// Timestamp touch with no new bytes: a sibling monitor telling
			// us its user has seen this workspace. Suppress without
			// re-reading anything.
			w.remoteAck()
			return false
		}
		w.cache.evictSummary(ev.path)
	case fsDirCreated:
		w.cache.evictDir(w.logDir)
		w.cache.evictListing(w.logDir)
	case fsDirRemoved:
		w.cache.evictDir(w.logDir)
		w.cache.evictListing(w.logDir)
		w.cache.clearSummaries()
		w.dirLive = false // re-register the watch if the dir comes back
	}
	return true
}

// compute builds a snapshot from the caches and infers a status. Unreadable
// files degrade to absence; only the inference engine itself can fail, and
// that surfaces through query.
func (w *worker) compute() StatusInfo {
	snap := snapshot{
		processRunning:  w.procs.IsRunning(w.key),
		monitoringStart: w.startedAt,
		now:             time.Now(),
	}
	if w.cache.exists(w.logDir) {
		if !w.dirLive {
			w.dirLive = true
			if w.watchDir != nil {
				w.watchDir(w.logDir)
			}
		}
		names, err := w.cache.listing(w.logDir)
		if err != nil {
			slog.Debug("session dir unreadable", "workspace", w.key, "error", err)
		}
		for _, name := range names {
			path := filepath.Join(w.logDir, name)
			sum, err := w.cache.summary(path)
			if err != nil {
				slog.Debug("session file unreadable", "path", path, "error", err)
				continue
			}
			if cwd, err := w.cache.workingDir(path); err == nil && cwd != "" &&
				!session.CwdMatches(cwd, w.key) {
				// Project dir names collapse path separators, so two
				// workspaces can share a dir. The cwd disambiguates.
				continue
			}
			snap.summaries = append(snap.summaries, sum)
		}
	}
	sort.Slice(snap.summaries, func(i, j int) bool {
		return snap.summaries[i].ModTime.After(snap.summaries[j].ModTime)
	})
	return inferStatus(snap, w.cfg)
}

// refresh recomputes, retires a stale acknowledgement, and publishes the
// result if it differs from the last published one.
func (w *worker) refresh() StatusInfo {
	cand := w.compute()
	w.ack.observe(cand.JustifiedAt)
	return w.finish(cand)
}

// remoteAck handles a sibling monitor's touch: acknowledge whatever the
// current evidence justifies.
func (w *worker) remoteAck() {
	cand := w.compute()
	w.ack.set(cand.JustifiedAt)
	w.finish(cand)
}

// acknowledge records that the user has seen the currently reported status.
func (w *worker) acknowledge() {
	if !w.hasLast {
		w.refresh()
	}
	w.ack.set(w.last.JustifiedAt)
	w.refresh()
}

func (w *worker) finish(cand StatusInfo) StatusInfo {
	info := applyAcknowledgement(cand, w.ack)
	changed := !w.hasLast || info.Changed(w.last)
	prev, had := w.last, w.hasLast
	w.last, w.hasLast = info, true
	if changed && w.notify != nil {
		w.notify(w.key, prev, had, info)
	}
	return info
}
