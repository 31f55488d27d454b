package monitor

import "errors"

var (
	// ErrInference marks a failure inside status inference itself. Callers
	// should keep showing the last known status rather than guessing.
	ErrInference = errors.New("status inference failed")

	// ErrNotMonitored is returned for workspace keys outside the monitored
	// set.
	ErrNotMonitored = errors.New("workspace is not monitored")

	// ErrStopped is returned once the monitor has shut down.
	ErrStopped = errors.New("monitor is stopped")
)
