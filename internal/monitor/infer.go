package monitor

import (
	"time"

	"github.com/starburst997/workspaces-list/internal/session"
)

// snapshot is everything inference needs about one workspace at one
// instant. Building it is the worker's job; judging it is inferStatus's.
type snapshot struct {
	// summaries holds one entry per session file, sorted by ModTime
	// descending.
	summaries       []session.Summary
	processRunning  bool
	monitoringStart time.Time
	now             time.Time
}

// messageTime is the justifying timestamp of a summary's last message: the
// message's own timestamp when present, the file mtime otherwise.
func messageTime(s session.Summary) time.Time {
	if s.LastMessage != nil && !s.LastMessage.Timestamp.IsZero() {
		return s.LastMessage.Timestamp
	}
	return s.ModTime
}

// inferStatus resolves a snapshot into a status. Rules are checked in
// precedence order and the first match wins:
//
//  1. no sessions at all
//  2. assistant stopped on a tool call and the user hasn't answered
//  3. a log written moments ago
//  4. assistant finished while nobody was looking
//  5. process liveness
//
// Acknowledgement is applied afterwards by the worker; this function only
// reads filesystem and process evidence.
func inferStatus(snap snapshot, cfg Config) StatusInfo {
	info := StatusInfo{ConversationCount: len(snap.summaries)}
	if len(snap.summaries) == 0 {
		info.Status = StatusNoSession
		return info
	}

	newest := snap.summaries[0]
	if newest.LastMessage != nil && !newest.LastMessage.Timestamp.IsZero() {
		info.LastMessageTime = newest.LastMessage.Timestamp
	}

	// Waiting beats executing: an agent blocked on a permission prompt
	// still touches files, and the prompt is what the user needs to see.
	for _, s := range snap.summaries {
		if snap.now.Sub(s.ModTime) >= cfg.WaitingWindow {
			break // sorted by mtime, nothing fresher follows
		}
		lm := s.LastMessage
		if lm == nil || lm.Role != session.RoleAssistant {
			continue
		}
		if !cfg.Classifier.Classify(lm.Content).IsToolUse {
			continue
		}
		just := messageTime(s)
		if snap.now.Sub(just) < cfg.MinWaitingAge {
			// Mid-burst: the next tool result is probably already being
			// written.
			continue
		}
		info.Status = StatusWaitingForInput
		info.JustifiedAt = just
		return info
	}

	// Any write within the window counts as activity regardless of who
	// spoke last.
	if snap.now.Sub(newest.ModTime) < cfg.ExecutingWindow {
		info.Status = StatusExecuting
		info.JustifiedAt = newest.ModTime
		return info
	}

	// Finished: the newest session ends on a plain assistant answer. Only
	// messages from after monitoring began qualify; pre-existing history is
	// not news.
	if snap.now.Sub(newest.ModTime) < cfg.FinishedWindow {
		lm := newest.LastMessage
		just := messageTime(newest)
		if lm != nil && lm.Role == session.RoleAssistant &&
			!cfg.Classifier.Classify(lm.Content).IsToolUse &&
			!just.Before(snap.monitoringStart) {
			info.Status = StatusRecentlyFinished
			info.JustifiedAt = just
			return info
		}
	}

	if snap.processRunning {
		info.Status = StatusRunning
	} else {
		info.Status = StatusNotRunning
	}
	return info
}

// applyAcknowledgement downgrades a result the user has already seen.
// Acknowledged evidence reads as plain running; the justifying timestamp is
// kept so change detection stays quiet.
func applyAcknowledgement(info StatusInfo, ack ackRecord) StatusInfo {
	if info.Status != StatusExecuting && info.Status != StatusRecentlyFinished {
		return info
	}
	if ack.suppresses(info.JustifiedAt) {
		info.Status = StatusRunning
	}
	return info
}
