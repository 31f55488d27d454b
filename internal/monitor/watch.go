package monitor

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// addDirWatch registers a log dir that appeared after its worker started.
func (m *Monitor) addDirWatch(dir string) {
	m.mu.Lock()
	watcher := m.watcher
	m.mu.Unlock()
	if watcher == nil {
		return
	}
	if err := watcher.Add(dir); err != nil {
		slog.Debug("watch add failed", "dir", dir, "error", err)
	}
}

// ensureRootWatch keeps a watch on the projects root so newly created
// per-workspace log dirs are noticed. The root may not exist until the
// agent's first run, so this retries from the recompute tick.
func (m *Monitor) ensureRootWatch() {
	m.mu.Lock()
	watcher := m.watcher
	watched := m.rootWatched
	m.mu.Unlock()
	if watcher == nil || watched {
		return
	}
	if err := watcher.Add(m.projectsRoot); err != nil {
		return
	}
	m.mu.Lock()
	m.rootWatched = true
	m.mu.Unlock()
}

func (m *Monitor) watchLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.routeEvent(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("watch error", "error", err)
		}
	}
}

// routeEvent classifies a raw notification and hands it to the workers
// monitoring the affected log dir. Chmod matters: a timestamp touch
// surfaces as Chmod on Linux, and touches are how sibling monitors signal
// acknowledgement.
func (m *Monitor) routeEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	dir := filepath.Dir(path)

	if dir == m.projectsRoot {
		m.mu.Lock()
		targets := append([]*worker(nil), m.byLogDir[path]...)
		watcher := m.watcher
		m.mu.Unlock()
		if len(targets) == 0 {
			return
		}
		switch {
		case ev.Op.Has(fsnotify.Create):
			if watcher != nil {
				_ = watcher.Add(path)
			}
			for _, w := range targets {
				w.sendEvent(fsEvent{kind: fsDirCreated, path: path})
			}
		case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
			for _, w := range targets {
				w.sendEvent(fsEvent{kind: fsDirRemoved, path: path})
			}
		}
		return
	}

	if !strings.HasSuffix(path, ".jsonl") {
		return
	}
	m.mu.Lock()
	targets := append([]*worker(nil), m.byLogDir[dir]...)
	m.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		for _, w := range targets {
			w.sendEvent(fsEvent{kind: fsFileCreated, path: path})
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		for _, w := range targets {
			w.sendEvent(fsEvent{kind: fsFileRemoved, path: path})
		}
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Chmod):
		size := int64(-1)
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		for _, w := range targets {
			w.sendEvent(fsEvent{kind: fsFileChanged, path: path, size: size})
		}
	}
}
