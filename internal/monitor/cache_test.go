package monitor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFileAged(t *testing.T, path, content string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	mt := time.Now().Add(-age)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}
}

const cacheTestLine = `{"type":"user","message":{"role":"user","content":"hello"},"timestamp":"2025-06-10T12:00:00Z"}` + "\n"

func TestSummaryCacheThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, cacheTestLine, time.Minute)

	c := newTierCache()
	first, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}
	if first.MessageCount != 1 {
		t.Fatalf("messageCount = %d, want 1", first.MessageCount)
	}

	// A write without an eviction must not be seen: the cache answers.
	writeFileAged(t, path, cacheTestLine+cacheTestLine, time.Second)
	cached, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}
	if cached.MessageCount != 1 {
		t.Errorf("cache read through to disk: messageCount = %d", cached.MessageCount)
	}

	c.evictSummary(path)
	fresh, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.MessageCount != 2 {
		t.Errorf("after eviction messageCount = %d, want 2", fresh.MessageCount)
	}
}

func TestSummaryFingerprintRevive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, cacheTestLine, time.Hour)

	c := newTierCache()
	first, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}

	// Touch without content change, then evict. The refill should keep the
	// parse and pick up only the new mtime.
	touched := time.Now().Add(-time.Second)
	if err := os.Chtimes(path, touched, touched); err != nil {
		t.Fatal(err)
	}
	c.evictSummary(path)

	revived, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}
	if revived.TailHash != first.TailHash {
		t.Errorf("tailHash changed across a touch: %x vs %x", revived.TailHash, first.TailHash)
	}
	if !reflect.DeepEqual(revived.LastMessage, first.LastMessage) {
		t.Errorf("lastMessage changed across a touch: %+v vs %+v", revived.LastMessage, first.LastMessage)
	}
	if !revived.ModTime.After(first.ModTime) {
		t.Errorf("modTime not refreshed: %v vs %v", revived.ModTime, first.ModTime)
	}
}

func TestKnownSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, cacheTestLine, time.Minute)

	c := newTierCache()
	if got := c.knownSize(path); got != -1 {
		t.Fatalf("knownSize before read = %d, want -1", got)
	}
	sum, err := c.summary(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.knownSize(path); got != sum.Size {
		t.Errorf("knownSize = %d, want %d", got, sum.Size)
	}
	c.evictSummary(path)
	if got := c.knownSize(path); got != -1 {
		t.Errorf("knownSize after eviction = %d, want -1", got)
	}
}

func TestSummaryRemovedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, cacheTestLine, time.Minute)

	c := newTierCache()
	if _, err := c.summary(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	c.removeSummary(path)
	if _, err := c.summary(path); err == nil {
		t.Fatal("summary of removed file did not error")
	}
}

func TestDirExistence(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "projects", "-root-proj")

	c := newTierCache()
	if c.exists(dir) {
		t.Fatal("missing dir reported as existing")
	}

	// Negative results must not stick.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if !c.exists(dir) {
		t.Fatal("created dir still reported missing")
	}

	// Positive results do stick until evicted.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if !c.exists(dir) {
		t.Fatal("positive existence did not stick")
	}
	c.evictDir(dir)
	if c.exists(dir) {
		t.Fatal("eviction did not force a re-check")
	}
}

func TestListing(t *testing.T) {
	dir := t.TempDir()
	writeFileAged(t, filepath.Join(dir, "b.jsonl"), cacheTestLine, time.Minute)
	writeFileAged(t, filepath.Join(dir, "a.jsonl"), cacheTestLine, time.Minute)
	writeFileAged(t, filepath.Join(dir, "agent-x.jsonl"), cacheTestLine, time.Minute)
	writeFileAged(t, filepath.Join(dir, "notes.txt"), "n", time.Minute)
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	c := newTierCache()
	names, err := c.listing(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.jsonl", "b.jsonl"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("listing = %v, want %v", names, want)
	}

	// New files stay invisible until the listing is evicted.
	writeFileAged(t, filepath.Join(dir, "c.jsonl"), cacheTestLine, time.Second)
	names, err = c.listing(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("cached listing = %v, want %v", names, want)
	}
	c.evictListing(dir)
	names, err = c.listing(dir)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.jsonl", "b.jsonl", "c.jsonl"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("refreshed listing = %v, want %v", names, want)
	}
}

func TestWorkingDirPermanence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, `{"type":"user","cwd":"/home/dev/proj","message":{"role":"user","content":"hi"},"timestamp":"2025-06-10T12:00:00Z"}`+"\n", time.Minute)

	c := newTierCache()
	cwd, err := c.workingDir(path)
	if err != nil {
		t.Fatal(err)
	}
	if cwd != "/home/dev/proj" {
		t.Fatalf("workingDir = %q", cwd)
	}

	// Rewriting the head must not change the cached answer.
	writeFileAged(t, path, `{"type":"user","cwd":"/elsewhere","message":{"role":"user","content":"hi"},"timestamp":"2025-06-10T12:00:00Z"}`+"\n", time.Second)
	cwd, err = c.workingDir(path)
	if err != nil {
		t.Fatal(err)
	}
	if cwd != "/home/dev/proj" {
		t.Errorf("workingDir re-read after caching: %q", cwd)
	}
}

func TestWorkingDirRetriesUntilFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.jsonl")
	writeFileAged(t, path, `{"type":"system","timestamp":"2025-06-10T12:00:00Z"}`+"\n", time.Minute)

	c := newTierCache()
	cwd, err := c.workingDir(path)
	if err != nil {
		t.Fatal(err)
	}
	if cwd != "" {
		t.Fatalf("workingDir = %q, want empty", cwd)
	}

	// The cwd arrives with a later write; an empty result must not stick.
	writeFileAged(t, path, `{"type":"user","cwd":"/home/dev/proj","message":{"role":"user","content":"hi"},"timestamp":"2025-06-10T12:00:01Z"}`+"\n", time.Second)
	cwd, err = c.workingDir(path)
	if err != nil {
		t.Fatal(err)
	}
	if cwd != "/home/dev/proj" {
		t.Errorf("workingDir after retry = %q", cwd)
	}
}
