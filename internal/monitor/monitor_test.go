package monitor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starburst997/workspaces-list/internal/session"
)

type fakeProcs struct {
	mu        sync.Mutex
	running   map[string]bool
	refreshes int
}

func (f *fakeProcs) Refresh() {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
}

func (f *fakeProcs) IsRunning(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[key]
}

func (f *fakeProcs) set(key string, alive bool) {
	f.mu.Lock()
	f.running[key] = alive
	f.mu.Unlock()
}

func (f *fakeProcs) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func userLine(ts time.Time, text, cwd string) string {
	cwdField := ""
	if cwd != "" {
		cwdField = fmt.Sprintf(`,"cwd":%q`, cwd)
	}
	return fmt.Sprintf(`{"type":"user","message":{"role":"user","content":[{"type":"text","text":%q}]},"timestamp":%q%s}`,
		text, ts.UTC().Format(time.RFC3339), cwdField)
}

func assistantLine(ts time.Time, text string) string {
	return fmt.Sprintf(`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":%q}]},"timestamp":%q}`,
		text, ts.UTC().Format(time.RFC3339))
}

func assistantToolLine(ts time.Time) string {
	return fmt.Sprintf(`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Checking."},{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls"}}]},"timestamp":%q}`,
		ts.UTC().Format(time.RFC3339))
}

type fixture struct {
	t      *testing.T
	m      *Monitor
	key    string
	logDir string
	procs  *fakeProcs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	claude := t.TempDir()
	key := filepath.Join(t.TempDir(), "proj")
	if err := os.MkdirAll(key, 0o755); err != nil {
		t.Fatal(err)
	}
	procs := &fakeProcs{running: make(map[string]bool)}
	m := New(Config{
		ClaudeDir:         claude,
		Processes:         procs,
		RecomputeInterval: 20 * time.Millisecond,
		RescanInterval:    25 * time.Millisecond,
	})
	m.SetWorkspaces([]string{key})
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)
	return &fixture{t: t, m: m, key: key, logDir: session.LogDir(claude, key), procs: procs}
}

func (f *fixture) writeSession(name string, age time.Duration, lines ...string) string {
	f.t.Helper()
	path := filepath.Join(f.logDir, name)
	writeFileAged(f.t, path, strings.Join(lines, "\n")+"\n", age)
	return path
}

func TestGetStatusNoSession(t *testing.T) {
	f := newFixture(t)

	info, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != StatusNoSession || info.ConversationCount != 0 {
		t.Fatalf("got %+v, want no_session with zero conversations", info)
	}

	again, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if info != again {
		t.Errorf("repeated query differs: %+v vs %+v", info, again)
	}
}

func TestGetStatusUnknownKey(t *testing.T) {
	f := newFixture(t)
	if _, err := f.m.GetStatus("/nowhere/at/all"); !errors.Is(err, ErrNotMonitored) {
		t.Fatalf("err = %v, want ErrNotMonitored", err)
	}
}

func TestExecutingOnFreshLog(t *testing.T) {
	f := newFixture(t)
	ts := time.Now().Add(-5 * time.Second).UTC().Truncate(time.Second)
	f.writeSession("s1.jsonl", 5*time.Second, userLine(ts, "run the tests", f.key))

	waitFor(t, 2*time.Second, "executing status", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusExecuting
	})
	info, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if info.ConversationCount != 1 {
		t.Errorf("conversationCount = %d, want 1", info.ConversationCount)
	}
}

func TestRunningFollowsProcessTable(t *testing.T) {
	f := newFixture(t)
	ts := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	f.writeSession("s1.jsonl", 2*time.Hour, userLine(ts, "old chat", f.key), assistantLine(ts.Add(time.Minute), "Done long ago."))

	waitFor(t, 2*time.Second, "not_running status", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusNotRunning
	})

	f.procs.set(f.key, true)
	info, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != StatusRunning {
		t.Fatalf("status = %q, want %q", info.Status, StatusRunning)
	}
	if want := ts.Add(time.Minute); !info.LastMessageTime.Equal(want) {
		t.Errorf("lastMessageTime = %v, want %v", info.LastMessageTime, want)
	}
}

func TestWaitingForInputOverExecuting(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC().Truncate(time.Second)
	toolTs := now.Add(-60 * time.Second)
	f.writeSession("s1.jsonl", 15*time.Second,
		userLine(now.Add(-90*time.Second), "please fix it", f.key),
		assistantToolLine(toolTs),
	)

	waitFor(t, 2*time.Second, "waiting status", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusWaitingForInput
	})
	info, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if !info.JustifiedAt.Equal(toolTs) {
		t.Errorf("justifiedAt = %v, want tool message time %v", info.JustifiedAt, toolTs)
	}
}

func TestAcknowledgeSuppressesUntilNewerEvidence(t *testing.T) {
	f := newFixture(t)
	// Round up so the message is unambiguously after the monitor started.
	msgTs := time.Now().UTC().Truncate(time.Second).Add(time.Second)
	f.writeSession("s1.jsonl", 45*time.Second,
		userLine(msgTs.Add(-time.Minute), "summarize", f.key),
		assistantLine(msgTs, "Here is the summary."),
	)

	waitFor(t, 2*time.Second, "recently_finished status", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusRecentlyFinished
	})

	info, err := f.m.Acknowledge(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != StatusRunning {
		t.Fatalf("acknowledged status = %q, want %q", info.Status, StatusRunning)
	}
	if !info.JustifiedAt.Equal(msgTs) {
		t.Errorf("justifiedAt = %v, want %v", info.JustifiedAt, msgTs)
	}
	if got, err := f.m.GetStatus(f.key); err != nil || got.Status != StatusRunning {
		t.Fatalf("status after acknowledge = %+v, %v", got, err)
	}

	// A newer final answer invalidates the acknowledgement.
	newer := time.Now().UTC().Truncate(time.Second).Add(2 * time.Second)
	f.writeSession("s1.jsonl", 45*time.Second,
		userLine(msgTs.Add(-time.Minute), "summarize", f.key),
		assistantLine(msgTs, "Here is the summary."),
		userLine(newer.Add(-50*time.Second), "now shorten it", ""),
		assistantLine(newer, "Shortened."),
	)
	waitFor(t, 2*time.Second, "finished status to resurface", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusRecentlyFinished && info.JustifiedAt.Equal(newer)
	})
}

func TestTimestampTouchReadsAsRemoteAcknowledge(t *testing.T) {
	f := newFixture(t)
	msgTs := time.Now().UTC().Truncate(time.Second).Add(time.Second)
	path := f.writeSession("s1.jsonl", 45*time.Second,
		userLine(msgTs.Add(-time.Minute), "deploy it", f.key),
		assistantLine(msgTs, "Deployed."),
	)

	waitFor(t, 2*time.Second, "recently_finished status", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusRecentlyFinished
	})

	// Same bytes, new timestamp: a sibling monitor saying "seen".
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, "suppression after touch", func() bool {
		info, err := f.m.GetStatus(f.key)
		return err == nil && info.Status == StatusRunning
	})
	info, err := f.m.GetStatus(f.key)
	if err != nil {
		t.Fatal(err)
	}
	if !info.JustifiedAt.Equal(msgTs) {
		t.Errorf("justifiedAt = %v, want untouched %v", info.JustifiedAt, msgTs)
	}
}

func TestSubscribeDeliversChangesOnce(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var got []StatusInfo
	token := f.m.Subscribe(func(key string, info StatusInfo) {
		if key != f.key {
			return
		}
		mu.Lock()
		got = append(got, info)
		mu.Unlock()
	})
	defer f.m.Unsubscribe(token)

	var silent []StatusInfo
	gone := f.m.Subscribe(func(key string, info StatusInfo) {
		silent = append(silent, info)
	})
	f.m.Unsubscribe(gone)

	ts := time.Now().Add(-5 * time.Second).UTC().Truncate(time.Second)
	f.writeSession("s1.jsonl", 5*time.Second, userLine(ts, "go", f.key))

	waitFor(t, 2*time.Second, "executing notification", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].Status == StatusExecuting
	})

	// Steady state produces no further notifications, no matter how often
	// the status is recomputed.
	mu.Lock()
	n := len(got)
	mu.Unlock()
	for range 5 {
		if _, err := f.m.GetStatus(f.key); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(80 * time.Millisecond) // several recompute ticks
	mu.Lock()
	after := len(got)
	mu.Unlock()
	if after != n {
		t.Errorf("steady state produced %d extra notifications", after-n)
	}
	if len(silent) != 0 {
		t.Errorf("unsubscribed callback received %d notifications", len(silent))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.m.Stop()
	f.m.Stop()
	if _, err := f.m.GetStatus(f.key); !errors.Is(err, ErrStopped) {
		t.Fatalf("err after stop = %v, want ErrStopped", err)
	}
	if err := f.m.Start(); !errors.Is(err, ErrStopped) {
		t.Fatalf("restart err = %v, want ErrStopped", err)
	}
}

func TestSetWorkspacesRemovesWorkers(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(t.TempDir(), "other")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatal(err)
	}

	f.m.SetWorkspaces([]string{f.key, other})
	if _, err := f.m.GetStatus(other); err != nil {
		t.Fatalf("added workspace unavailable: %v", err)
	}

	f.m.SetWorkspaces([]string{f.key})
	if _, err := f.m.GetStatus(other); !errors.Is(err, ErrNotMonitored) {
		t.Fatalf("removed workspace err = %v, want ErrNotMonitored", err)
	}
	if _, err := f.m.GetStatus(f.key); err != nil {
		t.Fatalf("kept workspace unavailable: %v", err)
	}
	if want := []string{f.key}; !slicesEqual(f.m.Workspaces(), want) {
		t.Errorf("Workspaces() = %v, want %v", f.m.Workspaces(), want)
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBlurStopsProcessRescan(t *testing.T) {
	f := newFixture(t)
	waitFor(t, 2*time.Second, "rescan ticker to run", func() bool {
		return f.procs.refreshCount() > 1
	})

	f.m.SetFocused(false)
	// The ticker is torn down, so the count settles.
	waitFor(t, 2*time.Second, "rescan to stop", func() bool {
		before := f.procs.refreshCount()
		time.Sleep(80 * time.Millisecond)
		return f.procs.refreshCount() == before
	})

	settled := f.procs.refreshCount()
	f.m.SetFocused(true)
	waitFor(t, 2*time.Second, "rescan to resume", func() bool {
		return f.procs.refreshCount() > settled
	})
}

func TestWorkerMonitoringStartGate(t *testing.T) {
	claude := t.TempDir()
	key := filepath.Join(t.TempDir(), "proj")
	cfg := Config{ClaudeDir: claude, Processes: &fakeProcs{running: make(map[string]bool)}}.withDefaults()
	procs := &fakeProcs{running: make(map[string]bool)}

	ts := time.Now().Add(-20 * time.Minute).UTC().Truncate(time.Second)
	logDir := session.LogDir(claude, key)
	writeFileAged(t, filepath.Join(logDir, "s.jsonl"),
		userLine(ts.Add(-time.Minute), "refactor", key)+"\n"+assistantLine(ts, "Refactored.")+"\n",
		20*time.Minute)

	// Monitoring just began: the old answer is history, not news.
	w := newWorker(key, cfg, procs, nil)
	if got := w.refresh(); got.Status != StatusNotRunning {
		t.Fatalf("fresh monitor status = %q, want %q", got.Status, StatusNotRunning)
	}

	// A monitor running since before the answer reports it.
	w2 := newWorker(key, cfg, procs, nil)
	w2.startedAt = time.Now().Add(-time.Hour)
	got := w2.refresh()
	if got.Status != StatusRecentlyFinished {
		t.Fatalf("long-running monitor status = %q, want %q", got.Status, StatusRecentlyFinished)
	}
	if !got.JustifiedAt.Equal(ts) {
		t.Errorf("justifiedAt = %v, want %v", got.JustifiedAt, ts)
	}
}

func TestWorkerFiltersForeignSessions(t *testing.T) {
	claude := t.TempDir()
	key := filepath.Join(t.TempDir(), "proj")
	cfg := Config{ClaudeDir: claude, Processes: &fakeProcs{running: make(map[string]bool)}}.withDefaults()
	procs := &fakeProcs{running: make(map[string]bool)}
	logDir := session.LogDir(claude, key)

	ts := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	writeFileAged(t, filepath.Join(logDir, "ours.jsonl"),
		userLine(ts, "hello", key)+"\n", time.Hour)
	writeFileAged(t, filepath.Join(logDir, "theirs.jsonl"),
		userLine(ts, "hello", "/somewhere/else")+"\n", time.Hour)

	w := newWorker(key, cfg, procs, nil)
	info := w.refresh()
	if info.ConversationCount != 1 {
		t.Fatalf("conversationCount = %d, want 1 (foreign session must be excluded)", info.ConversationCount)
	}
}
