package engine

import (
	"time"

	"VesselPulse/internal/domain/models"
)

// windowEntry is a validated record plus its insertion instant.
type windowEntry struct {
	rec        models.TelemetryRecord
	insertedAt time.Time
}

// Window is a bounded-time ordered buffer of recent records for one vessel.
// Entries are kept ascending by record timestamp; records older than the
// last accepted one are dropped, never re-sorted. Window is not safe for
// concurrent use: the engine serializes access per vessel.
type Window struct {
	duration time.Duration
	entries  []windowEntry
}

// NewWindow creates an empty window with the given trailing duration.
func NewWindow(duration time.Duration) *Window {
	return &Window{duration: duration}
}

// Insert appends the record and evicts entries that fell out of the trailing
// window relative to the latest accepted timestamp. Returns
// RejectOutOfOrderDropped without touching the buffer when the record's
// timestamp precedes the last accepted one.
func (w *Window) Insert(rec models.TelemetryRecord, now time.Time) models.RejectReason {
	if n := len(w.entries); n > 0 && rec.Timestamp.Before(w.entries[n-1].rec.Timestamp) {
		return models.RejectOutOfOrderDropped
	}
	w.entries = append(w.entries, windowEntry{rec: rec, insertedAt: now})
	w.evictBefore(rec.Timestamp.Add(-w.duration))
	return models.RejectNone
}

// EvictExpired removes entries older than now minus the window duration and
// reports how many were evicted. Used by the periodic sweeper so a vessel
// that stops transmitting drains instead of showing stale state forever.
func (w *Window) EvictExpired(now time.Time) int {
	before := len(w.entries)
	w.evictBefore(now.Add(-w.duration))
	return before - len(w.entries)
}

func (w *Window) evictBefore(threshold time.Time) {
	i := 0
	for i < len(w.entries) && w.entries[i].rec.Timestamp.Before(threshold) {
		i++
	}
	if i > 0 {
		w.entries = append(w.entries[:0], w.entries[i:]...)
	}
}

// Entries returns the records in timestamp order. The returned slice is a
// copy; callers may hold it across further inserts.
func (w *Window) Entries() []models.TelemetryRecord {
	out := make([]models.TelemetryRecord, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.rec
	}
	return out
}

// Len reports the number of buffered entries.
func (w *Window) Len() int { return len(w.entries) }

// Latest returns the newest accepted timestamp, if any.
func (w *Window) Latest() (time.Time, bool) {
	if len(w.entries) == 0 {
		return time.Time{}, false
	}
	return w.entries[len(w.entries)-1].rec.Timestamp, true
}
