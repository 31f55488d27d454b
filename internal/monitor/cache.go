package monitor

import (
	"os"

	"github.com/starburst997/workspaces-list/internal/session"
)

// summaryEntry is one cached session-file parse. A stale entry keeps its
// last parse around so a refill can recognize an unchanged tail by
// fingerprint and skip the re-parse.
type summaryEntry struct {
	sum   session.Summary
	fresh bool
}

// tierCache holds the per-workspace read caches. Each tier is invalidated
// by the filesystem event that makes it stale; nothing expires on a timer.
// The cache is owned by a single worker goroutine, so there is no locking.
type tierCache struct {
	summaries   map[string]*summaryEntry // session file path → parsed tail
	dirs        map[string]bool          // dir path → true, positive results only
	listings    map[string][]string      // dir path → sorted session file names
	workingDirs map[string]string        // session file path → cwd, never evicted
}

func newTierCache() *tierCache {
	return &tierCache{
		summaries:   make(map[string]*summaryEntry),
		dirs:        make(map[string]bool),
		listings:    make(map[string][]string),
		workingDirs: make(map[string]string),
	}
}

// summary returns the parsed tail of a session file, reading through on a
// miss. A stale entry whose size and tail fingerprint still match is
// revived without re-parsing; only its mtime is refreshed.
func (c *tierCache) summary(path string) (session.Summary, error) {
	e, ok := c.summaries[path]
	if ok && e.fresh {
		return e.sum, nil
	}
	data, size, modTime, err := session.ReadTail(path)
	if err != nil {
		if ok {
			delete(c.summaries, path)
		}
		return session.Summary{}, err
	}
	if ok && e.sum.Size == size && e.sum.TailHash == session.TailHash(data) {
		e.sum.ModTime = modTime
		e.fresh = true
		return e.sum, nil
	}
	sum := session.ParseTail(path, data, size, modTime)
	c.summaries[path] = &summaryEntry{sum: sum, fresh: true}
	return sum, nil
}

// knownSize returns the cached size of a session file, or -1 when the file
// has no fresh entry. Used to tell a content change from a timestamp touch.
func (c *tierCache) knownSize(path string) int64 {
	if e, ok := c.summaries[path]; ok && e.fresh {
		return e.sum.Size
	}
	return -1
}

func (c *tierCache) evictSummary(path string) {
	if e, ok := c.summaries[path]; ok {
		e.fresh = false
	}
}

func (c *tierCache) removeSummary(path string) {
	delete(c.summaries, path)
}

func (c *tierCache) clearSummaries() {
	c.summaries = make(map[string]*summaryEntry)
}

// exists reports whether dir exists. Positive results stick until the dir
// is reported removed; negative results are never cached, so a directory
// created while events were lost still shows up on the next check.
func (c *tierCache) exists(dir string) bool {
	if c.dirs[dir] {
		return true
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	c.dirs[dir] = true
	// A dir seen for the first time cannot have a valid cached listing.
	delete(c.listings, dir)
	return true
}

func (c *tierCache) evictDir(dir string) {
	delete(c.dirs, dir)
}

// listing returns the session file names in dir, sorted, reading through on
// a miss.
func (c *tierCache) listing(dir string) ([]string, error) {
	if names, ok := c.listings[dir]; ok {
		return names, nil
	}
	names, err := session.ListLogs(dir)
	if err != nil {
		return nil, err
	}
	c.listings[dir] = names
	return names, nil
}

func (c *tierCache) evictListing(dir string) {
	delete(c.listings, dir)
}

// workingDir resolves a session's working directory, cached permanently
// once found. A file that hasn't written its cwd yet is retried on the next
// call; the head window is a single kilobyte.
func (c *tierCache) workingDir(path string) (string, error) {
	if cwd, ok := c.workingDirs[path]; ok {
		return cwd, nil
	}
	cwd, err := session.ReadWorkingDir(path)
	if err != nil {
		return "", err
	}
	if cwd != "" {
		c.workingDirs[path] = cwd
	}
	return cwd, nil
}
