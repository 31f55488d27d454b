package monitor

import "time"

// ackRecord remembers the justifying timestamp the user last acknowledged
// for one workspace. It is owned by that workspace's worker; no locking.
//
// An acknowledgement suppresses attention-seeking statuses whose evidence
// the user has already seen. It dies the moment strictly newer evidence
// appears, so a fresh assistant answer always surfaces.
type ackRecord struct {
	at time.Time
}

// set records an acknowledgement of the given justifying timestamp. A zero
// timestamp clears the record: there was nothing to acknowledge.
func (a *ackRecord) set(just time.Time) {
	a.at = just
}

func (a *ackRecord) clear() {
	a.at = time.Time{}
}

// observe invalidates the record when strictly newer evidence appears.
func (a *ackRecord) observe(just time.Time) {
	if !a.at.IsZero() && just.After(a.at) {
		a.clear()
	}
}

// suppresses reports whether evidence with the given justifying timestamp
// is already acknowledged. Equal timestamps count: acknowledging a result
// covers exactly that result.
func (a *ackRecord) suppresses(just time.Time) bool {
	return !a.at.IsZero() && !just.IsZero() && !a.at.Before(just)
}
