package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"VesselPulse/internal/domain/models"
)

var base = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

func tsAt(sec int) string {
	return base.Add(time.Duration(sec) * time.Second).Format(time.RFC3339)
}

func rawAt(id string, sec int, sog float64) *models.RawRecord {
	return &models.RawRecord{
		VesselID:  id,
		Latitude:  f64(40),
		Longitude: f64(-74),
		Speed:     f64(sog),
		Course:    f64(90),
		Timestamp: tsAt(sec),
		Source:    "test",
	}
}

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg, WithClock(func() time.Time { return base }))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := Defaults()
	cfg.WindowDuration = 0
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for non-positive window duration")
	}

	cfg = Defaults()
	cfg.SpeedThresholds = SpeedThresholds{Stationary: 5, Slow: 1, Moderate: 15}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unordered thresholds")
	}
}

func TestEngineScenarioThreeRecords(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, tc := range []struct {
		sec int
		sog float64
	}{{0, 2}, {20, 8}, {40, 3}} {
		res, err := e.Ingest(rawAt("V1", tc.sec, tc.sog))
		if err != nil || !res.Accepted {
			t.Fatalf("ingest t=%d: res=%+v err=%v", tc.sec, res, err)
		}
	}

	snap, err := e.Snapshot("V1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Count != 3 {
		t.Fatalf("expected count 3, got %d", snap.Count)
	}
	if snap.Speed.Min != 2 || snap.Speed.Max != 8 {
		t.Fatalf("expected min=2 max=8, got %+v", snap.Speed)
	}
	if math.Abs(snap.Speed.Mean-13.0/3.0) > 1e-9 {
		t.Fatalf("expected mean 4.33, got %v", snap.Speed.Mean)
	}
	if snap.Status != models.StatusSlow {
		t.Fatalf("expected slow status for mean 4.33, got %s", snap.Status)
	}
}

func TestEngineEvictionOnFourthRecord(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, tc := range []struct {
		sec int
		sog float64
	}{{0, 2}, {20, 8}, {40, 3}, {70, 6}} {
		if res, _ := e.Ingest(rawAt("V1", tc.sec, tc.sog)); !res.Accepted {
			t.Fatalf("ingest t=%d rejected: %+v", tc.sec, res)
		}
	}

	snap, err := e.Snapshot("V1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// t=0 evicted (70-0 > 60); min recomputed from {8, 3, 6}.
	if snap.Count != 3 {
		t.Fatalf("expected count 3 after eviction, got %d", snap.Count)
	}
	if snap.Speed.Min != 3 || snap.Speed.Max != 8 {
		t.Fatalf("expected min=3 max=8, got %+v", snap.Speed)
	}
}

func TestEngineRejectsBadCoordinates(t *testing.T) {
	e := newTestEngine(t, nil)
	if res, _ := e.Ingest(rawAt("V1", 0, 2)); !res.Accepted {
		t.Fatalf("seed ingest rejected: %+v", res)
	}
	before, _ := e.Snapshot("V1")

	raw := rawAt("V1", 10, 2)
	raw.Latitude = f64(95)
	res, err := e.Ingest(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Accepted || res.Reason != models.RejectOutOfRangeCoord {
		t.Fatalf("expected out_of_range_coordinate, got %+v", res)
	}

	after, _ := e.Snapshot("V1")
	if after.Count != before.Count {
		t.Fatalf("window changed by rejected record: %d -> %d", before.Count, after.Count)
	}
}

func TestEngineSnapshotIdempotentRead(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 0, 2))

	a, err := e.Snapshot("V1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := e.Snapshot("V1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if a.ComputedAt != b.ComputedAt || a.Count != b.Count || a.Speed.Mean != b.Speed.Mean {
		t.Fatalf("consecutive reads differ: %+v vs %+v", a, b)
	}
}

func TestEngineSnapshotNotFound(t *testing.T) {
	e := newTestEngine(t, nil)
	if _, err := e.Snapshot("NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEngineOutOfOrderPolicies(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 40, 2))
	res, err := e.Ingest(rawAt("V1", 30, 2))
	if err != nil {
		t.Fatalf("drop policy should not error: %v", err)
	}
	if res.Accepted || res.Reason != models.RejectOutOfOrderDropped {
		t.Fatalf("expected out_of_order_dropped, got %+v", res)
	}

	e = newTestEngine(t, func(c *Config) { c.OutOfOrder = OutOfOrderReject })
	_, _ = e.Ingest(rawAt("V1", 40, 2))
	if _, err := e.Ingest(rawAt("V1", 30, 2)); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestEngineTrendAcrossIngests(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 0, 2))
	snap, _ := e.Snapshot("V1")
	if snap.Trend.Confidence != models.TrendConfidenceInsufficient {
		t.Fatalf("first snapshot should be insufficient-data, got %+v", snap.Trend)
	}

	_, _ = e.Ingest(rawAt("V1", 10, 10))
	snap, _ = e.Snapshot("V1")
	if snap.Trend.Direction != models.TrendRising {
		t.Fatalf("expected rising trend, got %+v", snap.Trend)
	}
}

func TestEnginePeriodicEvictionDrainsVessel(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 0, 2))

	evicted := e.EvictExpired(base.Add(5 * time.Minute))
	if evicted != 1 {
		t.Fatalf("expected 1 evicted, got %d", evicted)
	}
	// Vessel state dropped entirely by default.
	if _, err := e.Snapshot("V1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after drain, got %v", err)
	}
	if n := len(e.ActiveVessels()); n != 0 {
		t.Fatalf("expected 0 active vessels, got %d", n)
	}
}

func TestEngineRetainEmptyKeepsZeroSnapshot(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.RetainEmpty = true })
	_, _ = e.Ingest(rawAt("V1", 0, 2))

	e.EvictExpired(base.Add(5 * time.Minute))
	snap, err := e.Snapshot("V1")
	if err != nil {
		t.Fatalf("expected retained snapshot, got %v", err)
	}
	if snap.Count != 0 || snap.Speed != nil {
		t.Fatalf("expected zero-count snapshot, got %+v", snap)
	}
	if n := len(e.ActiveVessels()); n != 0 {
		t.Fatalf("drained vessel should not be active, got %d", n)
	}
}

func TestEngineFleetSnapshot(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 0, 2))  // slow
	_, _ = e.Ingest(rawAt("V2", 0, 20)) // fast
	_, _ = e.Ingest(rawAt("V3", 0, 0))  // stationary

	fleet := e.FleetSnapshot()
	if fleet.Vessels != 3 || fleet.Records != 3 {
		t.Fatalf("unexpected fleet counts %+v", fleet)
	}
	if fleet.Speed.Min != 0 || fleet.Speed.Max != 20 {
		t.Fatalf("unexpected fleet speed %+v", fleet.Speed)
	}
	if fleet.StatusDistribution[models.StatusSlow] != 1 ||
		fleet.StatusDistribution[models.StatusFast] != 1 ||
		fleet.StatusDistribution[models.StatusStationary] != 1 {
		t.Fatalf("unexpected distribution %+v", fleet.StatusDistribution)
	}
}

func TestEngineVesselsIndependent(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 100, 2))
	// V2's clock is far behind V1's; per-vessel ordering is independent.
	res, err := e.Ingest(rawAt("V2", 0, 2))
	if err != nil || !res.Accepted {
		t.Fatalf("cross-vessel ordering leaked: %+v %v", res, err)
	}
}

func TestEngineMovingVessels(t *testing.T) {
	e := newTestEngine(t, nil)
	_, _ = e.Ingest(rawAt("V1", 0, 4))
	_, _ = e.Ingest(rawAt("V2", 0, 0.1))
	moving := e.MovingVessels()
	if len(moving) != 1 || moving[0] != "V1" {
		t.Fatalf("expected only V1 moving, got %v", moving)
	}
}

func TestEvictDrainMarksStateDead(t *testing.T) {
	e := newTestEngine(t, nil)
	if res, err := e.Ingest(rawAt("V1", 0, 2)); err != nil || !res.Accepted {
		t.Fatalf("seed ingest: %+v %v", res, err)
	}
	old := e.state("V1")

	if n := e.EvictExpired(base.Add(10 * time.Minute)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if !old.dead {
		t.Fatalf("drained state must be marked dead before the registry drops it")
	}
	if _, err := e.Snapshot("V1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound after drain, got %v", err)
	}

	// the vessel comes back with fresh state, never the dead one
	if res, err := e.Ingest(rawAt("V1", 700, 3)); err != nil || !res.Accepted {
		t.Fatalf("reingest: %+v %v", res, err)
	}
	if e.state("V1") == old {
		t.Fatalf("dead state was resurrected")
	}
	snap, err := e.Snapshot("V1")
	if err != nil || snap.Count != 1 {
		t.Fatalf("expected fresh snapshot with count 1, got %+v %v", snap, err)
	}
}

func TestEvictDrainConcurrentIngestNotOrphaned(t *testing.T) {
	e := newTestEngine(t, nil)
	// Each round races the sweep draining the seed record against an ingest
	// of an in-window record. Whatever the interleaving, a record reported
	// accepted must be visible to Snapshot afterwards.
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("V%d", i)
		if res, err := e.Ingest(rawAt(id, 0, 2)); err != nil || !res.Accepted {
			t.Fatalf("seed %s: %+v %v", id, res, err)
		}

		var wg sync.WaitGroup
		var res models.IngestResult
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, _ = e.Ingest(rawAt(id, 90, 3))
		}()
		go func() {
			defer wg.Done()
			e.EvictExpired(base.Add(2 * time.Minute))
		}()
		wg.Wait()

		if !res.Accepted {
			t.Fatalf("round %d: in-window record not accepted: %+v", i, res)
		}
		if _, err := e.Snapshot(id); err != nil {
			t.Fatalf("round %d: accepted record but snapshot gone: %v", i, err)
		}
	}
}
