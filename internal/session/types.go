package session

import (
	"encoding/json"
	"time"
)

// Record represents one raw JSONL line from an agent session log.
type Record struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	Message   *MessageContent `json:"message,omitempty"`
	CWD       string          `json:"cwd,omitempty"`
	Version   string          `json:"version,omitempty"`
	GitBranch string          `json:"gitBranch,omitempty"`
}

// MessageContent holds the actual message data.
type MessageContent struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   string          `json:"model,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// ContentBlock represents a single block in an array-form content field.
type ContentBlock struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// Message roles recognized by the reader. Anything else maps to RoleOther.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleOther     = "other"
)

// Record types that never carry a conversational message and are skipped
// when looking for the last message.
const (
	TypeFileHistorySnapshot = "file-history-snapshot"
	TypeSummary             = "summary"
)

// LastMessage is the most recent genuine user/assistant message found in a
// session file's tail window.
type LastMessage struct {
	Role      string
	Content   json.RawMessage
	Timestamp time.Time // zero when the record carried no timestamp
}

// Summary is the bounded digest of one session log file. WorkingDir is
// resolved separately (ReadWorkingDir) and stitched in by the caller, since
// it is immutable per file and cached with a different lifetime.
type Summary struct {
	Path         string
	WorkingDir   string
	ModTime      time.Time
	Size         int64
	TailHash     uint64 // xxhash of the tail window the summary was parsed from
	MessageCount int    // approximate; estimated when the window misses the head
	LastMessage  *LastMessage
}

// LastActivity returns the timestamp justifying "something happened here
// last": the last message's timestamp when present, else the file mtime.
func (s Summary) LastActivity() time.Time {
	if s.LastMessage != nil && !s.LastMessage.Timestamp.IsZero() {
		return s.LastMessage.Timestamp
	}
	return s.ModTime
}
