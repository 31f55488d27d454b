// Package procscan maintains a table of live agent processes and the working
// directory each one runs in. Working-directory resolution is the expensive
// introspection call, so it happens once per process lifetime; everything
// else is served from the table.
package procscan

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Record is one observed agent process.
type Record struct {
	PID        int
	WorkingDir string
}

// Registry holds the {pid → working directory} table. Refresh is driven
// externally; the scheduler stops calling it while the host is unfocused,
// which freezes the table, and reads always serve the last snapshot.
type Registry struct {
	agentName string
	listPIDs  func(name string) ([]int, error)
	cwdOf     func(pid int) (string, error)

	mu    sync.RWMutex
	byPID map[int]string
}

// New returns a Registry matching processes whose command names the given
// agent binary (e.g. "claude").
func New(agentName string) *Registry {
	return &Registry{
		agentName: agentName,
		listPIDs:  listAgentPIDs,
		cwdOf:     processCwd,
		byPID:     make(map[int]string),
	}
}

// Refresh snapshots matching processes, resolves the working directory for
// PIDs not already in the table, and evicts PIDs absent from the scan.
// All failures are best-effort: a failed scan keeps the previous table, a
// failed resolution (process gone, insufficient privilege) omits that entry.
func (r *Registry) Refresh() {
	pids, err := r.listPIDs(r.agentName)
	if err != nil {
		slog.Debug("process scan failed", "agent", r.agentName, "err", err)
		return
	}

	seen := make(map[int]bool, len(pids))
	for _, pid := range pids {
		seen[pid] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for pid := range r.byPID {
		if !seen[pid] {
			delete(r.byPID, pid)
		}
	}
	for _, pid := range pids {
		if _, ok := r.byPID[pid]; ok {
			continue
		}
		cwd, err := r.cwdOf(pid)
		if err != nil {
			slog.Debug("cwd resolution failed", "pid", pid, "err", err)
			continue
		}
		r.byPID[pid] = cwd
	}
}

// IsRunning reports whether any known agent process has its working
// directory at or under the workspace path.
func (r *Registry) IsRunning(workspace string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cwd := range r.byPID {
		if pathWithin(cwd, workspace) {
			return true
		}
	}
	return false
}

// Len returns the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPID)
}

// Snapshot returns the current table sorted by PID.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.byPID))
	for pid, cwd := range r.byPID {
		out = append(out, Record{PID: pid, WorkingDir: cwd})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// pathWithin reports whether path equals root or lies underneath it.
func pathWithin(path, root string) bool {
	if path == "" {
		return false
	}
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// matchesAgent decides whether a process is the agent, given its comm name
// and argv. The agent usually runs as the binary itself, but interpreter
// launches (node/bun wrapper scripts) put the script in argv[1].
func matchesAgent(comm string, argv []string, name string) bool {
	if comm == name {
		return true
	}
	if len(argv) == 0 {
		return false
	}
	if filepath.Base(argv[0]) == name {
		return true
	}
	switch filepath.Base(argv[0]) {
	case "node", "bun", "deno":
		return len(argv) > 1 && filepath.Base(argv[1]) == name
	}
	return false
}
