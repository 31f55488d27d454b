package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeLog creates a session file and optionally ages its mtime.
func writeLog(t *testing.T, dir, name, content string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	if age > 0 {
		old := time.Now().Add(-age)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("failed to set mtime on %s: %v", name, err)
		}
	}
	return path
}

func TestReadWorkingDir(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"file-history-snapshot","data":{}}
{"type":"user","cwd":"/home/dev/proj","message":{"role":"user","content":"hi"},"timestamp":"2026-08-01T10:00:00Z"}
{"type":"assistant","message":{"role":"assistant","content":"hello"},"timestamp":"2026-08-01T10:00:05Z"}`,
		0)

	cwd, err := ReadWorkingDir(path)
	if err != nil {
		t.Fatalf("ReadWorkingDir error: %v", err)
	}
	if cwd != "/home/dev/proj" {
		t.Errorf("cwd = %q, want /home/dev/proj", cwd)
	}
}

func TestReadWorkingDir_NoCwdInWindow(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"assistant","message":{"role":"assistant","content":"hello"},"timestamp":"2026-08-01T10:00:05Z"}`,
		0)

	cwd, err := ReadWorkingDir(path)
	if err != nil {
		t.Fatalf("ReadWorkingDir error: %v", err)
	}
	if cwd != "" {
		t.Errorf("cwd = %q, want empty", cwd)
	}
}

func TestReadWorkingDir_Missing(t *testing.T) {
	if _, err := ReadWorkingDir(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadSummary_LastAssistantMessage(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"user","message":{"role":"user","content":"do it"},"timestamp":"2026-08-01T10:00:00Z"}
{"type":"assistant","message":{"role":"assistant","content":"done"},"timestamp":"2026-08-01T10:01:00Z"}`,
		time.Minute)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage == nil {
		t.Fatal("expected a last message")
	}
	if sum.LastMessage.Role != RoleAssistant {
		t.Errorf("role = %q, want assistant", sum.LastMessage.Role)
	}
	want := time.Date(2026, 8, 1, 10, 1, 0, 0, time.UTC)
	if !sum.LastMessage.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", sum.LastMessage.Timestamp, want)
	}
	if sum.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", sum.MessageCount)
	}
	if !sum.LastActivity().Equal(want) {
		t.Errorf("LastActivity = %v, want message timestamp %v", sum.LastActivity(), want)
	}
}

func TestReadSummary_SkipsSnapshotAndSummaryTypes(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"user","message":{"role":"user","content":"hello"},"timestamp":"2026-08-01T10:00:00Z"}
{"type":"summary","summary":"conversation about tests"}
{"type":"file-history-snapshot","data":{}}`,
		0)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage == nil || sum.LastMessage.Role != RoleUser {
		t.Fatalf("last message = %+v, want user message", sum.LastMessage)
	}
}

func TestReadSummary_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"assistant","message":{"role":"assistant","content":"ok"},"timestamp":"2026-08-01T10:00:00Z"}
{not json at all
garbage`,
		0)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage == nil || sum.LastMessage.Role != RoleAssistant {
		t.Fatalf("last message = %+v, want assistant despite trailing garbage", sum.LastMessage)
	}
}

func TestReadSummary_OutOfOrderNewerWins(t *testing.T) {
	dir := t.TempDir()
	// Newest timestamp sits one line before the end; it should win over the
	// positionally later but older record.
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"user","message":{"role":"user","content":"first"},"timestamp":"2026-08-01T10:00:00Z"}
{"type":"assistant","message":{"role":"assistant","content":"late write"},"timestamp":"2026-08-01T10:05:00Z"}
{"type":"user","message":{"role":"user","content":"stale"},"timestamp":"2026-08-01T10:02:00Z"}`,
		0)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage == nil || sum.LastMessage.Role != RoleAssistant {
		t.Fatalf("last message = %+v, want assistant with the newest timestamp", sum.LastMessage)
	}
	want := time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC)
	if !sum.LastMessage.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", sum.LastMessage.Timestamp, want)
	}
}

func TestReadSummary_MtimeFallback(t *testing.T) {
	dir := t.TempDir()
	// Only snapshot records: no timestamped message in the window.
	path := writeLog(t, dir, "s.jsonl",
		`{"type":"file-history-snapshot","data":{}}
{"type":"file-history-snapshot","data":{}}`,
		2*time.Minute)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage != nil {
		t.Errorf("LastMessage = %+v, want nil", sum.LastMessage)
	}
	if !sum.LastActivity().Equal(sum.ModTime) {
		t.Errorf("LastActivity = %v, want mtime %v", sum.LastActivity(), sum.ModTime)
	}
	if sum.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", sum.MessageCount)
	}
}

func TestReadSummary_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "s.jsonl", "", 0)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage != nil || sum.MessageCount != 0 {
		t.Errorf("got %+v, want empty summary", sum)
	}
	if sum.Size != 0 {
		t.Errorf("Size = %d, want 0", sum.Size)
	}
}

func TestReadSummary_TailWindowDropsPartialLine(t *testing.T) {
	dir := t.TempDir()
	// Pad the file well past the tail window so the read starts mid-record.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `{"type":"user","message":{"role":"user","content":"padding message number %d with some filler text to cross the window"},"timestamp":"2026-08-01T09:%02d:00Z"}`+"\n", i, i)
	}
	b.WriteString(`{"type":"assistant","message":{"role":"assistant","content":"the end"},"timestamp":"2026-08-01T11:00:00Z"}` + "\n")
	path := writeLog(t, dir, "s.jsonl", b.String(), 0)

	sum, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if sum.LastMessage == nil || sum.LastMessage.Role != RoleAssistant {
		t.Fatalf("last message = %+v, want the final assistant record", sum.LastMessage)
	}
	if sum.MessageCount <= 1 {
		t.Errorf("MessageCount = %d, want an estimate above the window count", sum.MessageCount)
	}
}

func TestReadSummary_TailHashStableAcrossTouch(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"assistant","message":{"role":"assistant","content":"done"},"timestamp":"2026-08-01T10:00:00Z"}`
	path := writeLog(t, dir, "s.jsonl", content, time.Minute)

	first, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	// Touch without changing content.
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}
	second, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary error: %v", err)
	}
	if first.TailHash != second.TailHash {
		t.Errorf("TailHash changed across a pure touch: %x vs %x", first.TailHash, second.TailHash)
	}
	if second.ModTime.Equal(first.ModTime) {
		t.Error("expected mtime to advance after touch")
	}
}
