package session

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// headWindowBytes bounds the one-time read that extracts the session's
	// working directory from the first records of a file.
	headWindowBytes = 1024
	// tailWindowBytes bounds the per-refresh read that digests the newest
	// records. Session files grow without bound; everything before the tail
	// window is irrelevant for status.
	tailWindowBytes = 2048
)

// ReadWorkingDir extracts the working directory from the head window of a
// session file. The cwd field appears on the first few records and never
// changes, so callers cache the result permanently per path. Returns "" when
// no record in the window carries a cwd.
func ReadWorkingDir(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, headWindowBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	for _, line := range strings.Split(string(buf[:n]), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Malformed or truncated at the window edge; skip.
			continue
		}
		if rec.CWD != "" {
			return rec.CWD, nil
		}
	}
	return "", nil
}

// ReadTail reads the tail window of a session file along with its current
// size and mtime. The window is at most tailWindowBytes.
func ReadTail(path string) (data []byte, size int64, modTime time.Time, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	size = info.Size()

	start := int64(0)
	if size > tailWindowBytes {
		start = size - tailWindowBytes
	}
	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return nil, 0, time.Time{}, err
		}
	}
	data, err = io.ReadAll(f)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	return data, size, info.ModTime(), nil
}

// TailHash fingerprints a tail window. Matching hashes (with matching size)
// mean the window's parse result is still valid.
func TailHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// ParseTail digests a tail window into a Summary. The window is parsed
// back-to-front and the most recent genuine user/assistant message wins;
// snapshot and summary record types are skipped, malformed lines are
// skipped. Timestamps are expected to increase through the file, so
// selection stops once an older region is reached. A newer timestamp deeper
// in the file is taken as authoritative anyway; out-of-order writes happen.
func ParseTail(path string, data []byte, size int64, modTime time.Time) Summary {
	sum := Summary{
		Path:     path,
		ModTime:  modTime,
		Size:     size,
		TailHash: TailHash(data),
	}

	truncated := int64(len(data)) < size
	lines := strings.Split(string(data), "\n")
	if truncated && len(lines) > 0 {
		// The window almost certainly starts mid-record.
		lines = lines[1:]
	}

	var best *LastMessage
	counted := 0
	stopped := false
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Type == TypeFileHistorySnapshot || rec.Type == TypeSummary {
			continue
		}
		genuine := rec.Message != nil &&
			(rec.Message.Role == RoleUser || rec.Message.Role == RoleAssistant)
		if genuine {
			counted++
		}
		if stopped {
			continue // still counting, no longer selecting
		}
		if genuine {
			switch {
			case best == nil:
				best = &LastMessage{
					Role:      rec.Message.Role,
					Content:   rec.Message.Content,
					Timestamp: rec.Timestamp,
				}
			case rec.Timestamp.IsZero() || best.Timestamp.IsZero():
				// No ordering info; the positionally later record stands.
			case rec.Timestamp.After(best.Timestamp):
				// Out-of-order write deeper in the file; authoritative.
				best = &LastMessage{
					Role:      rec.Message.Role,
					Content:   rec.Message.Content,
					Timestamp: rec.Timestamp,
				}
			case rec.Timestamp.Before(best.Timestamp):
				stopped = true
			}
			continue
		}
		if best != nil && !rec.Timestamp.IsZero() && rec.Timestamp.Before(best.Timestamp) {
			stopped = true
		}
	}

	sum.LastMessage = best
	sum.MessageCount = counted
	if truncated && len(data) > 0 && counted > 0 {
		// Window missed the head; scale the window density to the file size.
		sum.MessageCount = int(int64(counted) * size / int64(len(data)))
		if sum.MessageCount < counted {
			sum.MessageCount = counted
		}
	}
	return sum
}

// ReadSummary digests the tail window of a session file into a Summary.
// Only the last tailWindowBytes are read.
func ReadSummary(path string) (Summary, error) {
	data, size, modTime, err := ReadTail(path)
	if err != nil {
		return Summary{}, err
	}
	return ParseTail(path, data, size, modTime), nil
}
