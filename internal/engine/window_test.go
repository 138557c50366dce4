package engine

import (
	"testing"
	"time"

	"VesselPulse/internal/domain/models"
)

func recAt(sec int64, sog float64) models.TelemetryRecord {
	return models.TelemetryRecord{
		VesselID:  "V1",
		Latitude:  40,
		Longitude: -74,
		Speed:     sog,
		Timestamp: time.Unix(sec, 0),
	}
}

func TestWindowInsertKeepsTrailingDuration(t *testing.T) {
	w := NewWindow(60 * time.Second)
	now := time.Now()
	for _, sec := range []int64{0, 20, 40} {
		if reason := w.Insert(recAt(sec, 1), now); reason != models.RejectNone {
			t.Fatalf("insert t=%d rejected: %s", sec, reason)
		}
	}
	if w.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", w.Len())
	}

	// t=70 pushes t=0 out of the trailing 60s window.
	if reason := w.Insert(recAt(70, 1), now); reason != models.RejectNone {
		t.Fatalf("insert t=70 rejected: %s", reason)
	}
	if w.Len() != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", w.Len())
	}
	entries := w.Entries()
	if entries[0].Timestamp.Unix() != 20 {
		t.Fatalf("expected oldest entry t=20, got t=%d", entries[0].Timestamp.Unix())
	}
}

func TestWindowDropsOutOfOrder(t *testing.T) {
	w := NewWindow(60 * time.Second)
	now := time.Now()
	_ = w.Insert(recAt(40, 1), now)
	if reason := w.Insert(recAt(30, 1), now); reason != models.RejectOutOfOrderDropped {
		t.Fatalf("expected out_of_order_dropped, got %q", reason)
	}
	if w.Len() != 1 {
		t.Fatalf("window changed on dropped record: len=%d", w.Len())
	}

	// Equal timestamps are not out of order.
	if reason := w.Insert(recAt(40, 2), now); reason != models.RejectNone {
		t.Fatalf("equal timestamp rejected: %s", reason)
	}

	entries := w.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Fatalf("timestamps not non-decreasing at %d", i)
		}
	}
}

func TestWindowEvictExpired(t *testing.T) {
	w := NewWindow(60 * time.Second)
	now := time.Now()
	for _, sec := range []int64{0, 20, 40} {
		_ = w.Insert(recAt(sec, 1), now)
	}

	// Sweep at t=90: only t=40 survives (threshold 30).
	n := w.EvictExpired(time.Unix(90, 0))
	if n != 2 {
		t.Fatalf("expected 2 evicted, got %d", n)
	}
	if w.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", w.Len())
	}

	// Sweep far in the future drains the window.
	if n := w.EvictExpired(time.Unix(1000, 0)); n != 1 {
		t.Fatalf("expected 1 evicted, got %d", n)
	}
	if w.Len() != 0 {
		t.Fatalf("expected empty window, got %d", w.Len())
	}
	if _, ok := w.Latest(); ok {
		t.Fatalf("expected no latest timestamp on empty window")
	}
}

func TestWindowEntryAtThresholdKept(t *testing.T) {
	w := NewWindow(60 * time.Second)
	now := time.Now()
	_ = w.Insert(recAt(10, 1), now)
	_ = w.Insert(recAt(70, 1), now)
	// 70-60=10: the t=10 entry sits exactly on the boundary and stays.
	if w.Len() != 2 {
		t.Fatalf("boundary entry evicted, len=%d", w.Len())
	}
}
