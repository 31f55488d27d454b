// Package monitor infers what the coding agent in each workspace is doing
// by watching its session logs and process table. One worker goroutine owns
// all mutable state for a workspace; the Monitor fans events in and status
// changes out.
package monitor

import "time"

// Status is the inferred activity state of one workspace's agent.
type Status string

const (
	// StatusNoSession means no session logs exist for the workspace.
	StatusNoSession Status = "no_session"
	// StatusNotRunning means sessions exist but no agent process is alive.
	StatusNotRunning Status = "not_running"
	// StatusRunning means an agent process is alive with nothing notable
	// in its recent logs.
	StatusRunning Status = "running"
	// StatusExecuting means a session log was written moments ago.
	StatusExecuting Status = "executing"
	// StatusWaitingForInput means the assistant stopped on a tool call and
	// is waiting for the user to respond.
	StatusWaitingForInput Status = "waiting_for_input"
	// StatusRecentlyFinished means the assistant produced a final answer
	// that nobody has looked at yet.
	StatusRecentlyFinished Status = "recently_finished"
)

// NeedsAttention reports whether the workspace wants the user's eyes.
func (s Status) NeedsAttention() bool {
	return s == StatusWaitingForInput || s == StatusRecentlyFinished
}

// Active reports whether the agent is doing work right now.
func (s Status) Active() bool {
	return s == StatusExecuting
}

// Label returns the display name for the status.
func (s Status) Label() string {
	switch s {
	case StatusNoSession:
		return "no session"
	case StatusNotRunning:
		return "not running"
	case StatusRunning:
		return "running"
	case StatusExecuting:
		return "executing"
	case StatusWaitingForInput:
		return "waiting"
	case StatusRecentlyFinished:
		return "finished"
	}
	return string(s)
}

// StatusInfo is one workspace's inferred state at a point in time.
type StatusInfo struct {
	Status Status `json:"status"`
	// LastMessageTime is the timestamp of the newest genuine message across
	// the workspace's sessions. Zero when no session carries one.
	LastMessageTime time.Time `json:"lastMessageTime,omitzero"`
	// ConversationCount is the number of session files observed for the
	// workspace.
	ConversationCount int `json:"conversationCount"`
	// JustifiedAt is the timestamp of the evidence behind Status: the file
	// mtime for executing, the message timestamp for waiting and finished.
	// Zero for statuses justified by process state alone.
	JustifiedAt time.Time `json:"justifiedAt,omitzero"`
}

// Changed reports whether the transition from prev to s is worth telling
// subscribers about. Recomputations that land on the same status with the
// same evidence are noise.
func (s StatusInfo) Changed(prev StatusInfo) bool {
	return s.Status != prev.Status || !s.JustifiedAt.Equal(prev.JustifiedAt)
}
