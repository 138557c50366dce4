package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"VesselPulse/internal/engine"
)

type nopMetrics struct{}

func (nopMetrics) RecordIngested(source, vesselID string)       {}
func (nopMetrics) RecordRejected(reason string)                 {}
func (nopMetrics) RecordLastSpeed(vesselID string, sog float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}
func (nopMetrics) RecordError(op string)                        {}

func newHandlerEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.Defaults()
	e, err := engine.New(cfg, engine.WithClock(func() time.Time {
		return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func positionJSON(mmsi string, sec int, sog float64) []byte {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC).
		Add(time.Duration(sec) * time.Second).
		Format(time.RFC3339)
	return []byte(fmt.Sprintf(
		`{"mmsi":%q,"lat":40.7,"lon":-74.0,"sog":%g,"cog":90,"tstamp":%q}`,
		mmsi, sog, ts,
	))
}

func TestKafkaHandlerFeedsEngine(t *testing.T) {
	eng := newHandlerEngine(t)
	v := engine.NewValidator(engine.Defaults().SpeedPolicy)
	h := NewKafkaPositionsHandler("positions", eng, nil, nopMetrics{}, v)

	for i, sec := range []int{0, 10, 20} {
		if err := h.Handle(context.Background(), positionJSON("367001234", sec, float64(i+2))); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}

	snap, err := eng.Snapshot("367001234")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Count != 3 {
		t.Fatalf("expected 3 records in window, got %d", snap.Count)
	}
}

func TestKafkaHandlerRejectsMalformedJSON(t *testing.T) {
	eng := newHandlerEngine(t)
	v := engine.NewValidator(engine.Defaults().SpeedPolicy)
	h := NewKafkaPositionsHandler("positions", eng, nil, nopMetrics{}, v)

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestKafkaHandlerSwallowsRejectedRecords(t *testing.T) {
	eng := newHandlerEngine(t)
	v := engine.NewValidator(engine.Defaults().SpeedPolicy)
	h := NewKafkaPositionsHandler("positions", eng, nil, nopMetrics{}, v)

	// missing sog: rejected by validation, but not a retryable error
	payload := []byte(`{"mmsi":"367001234","lat":40.7,"lon":-74.0,"cog":90,"tstamp":"2026-08-25T10:00:00Z"}`)
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("rejected record should not surface an error, got %v", err)
	}
	if _, err := eng.Snapshot("367001234"); err == nil {
		t.Fatalf("expected no snapshot for rejected record")
	}
}
