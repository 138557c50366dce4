package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"VesselPulse/internal/domain/models"
)

type recordingProc struct {
	mu   sync.Mutex
	got  []*models.RawRecord
	fail bool
}

func (p *recordingProc) Process(ctx context.Context, r *models.RawRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream unavailable")
	}
	p.got = append(p.got, r)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordIngested(source, vesselID string)       {}
func (m *countingMetrics) RecordRejected(reason string)                 {}
func (m *countingMetrics) RecordLastSpeed(vesselID string, sog float64) {}
func (m *countingMetrics) RecordLatency(op string, seconds float64)     {}
func (m *countingMetrics) RecordError(op string) {
	m.mu.Lock()
	m.errors[op]++
	m.mu.Unlock()
}

func rawRecord(id string) *models.RawRecord {
	lat, lon, sog := 40.7, -74.0, 5.0
	return &models.RawRecord{
		VesselID:  id,
		Latitude:  &lat,
		Longitude: &lon,
		Speed:     &sog,
		Timestamp: "2026-08-25T10:00:00Z",
		Source:    "aisstream",
	}
}

func TestPipelineForwardsValidRecords(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics())

	if err := p.Process(context.Background(), rawRecord("V1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected 1 forwarded record, got %d", proc.count())
	}
}

func TestPipelineScreensUnidentifiableRecords(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics())

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
	r := rawRecord("")
	if err := p.Process(context.Background(), r); err == nil {
		t.Fatalf("expected error for empty vessel id")
	}
	if proc.count() != 0 {
		t.Fatalf("screened records must not reach downstream")
	}
}

func TestPipelineThrottlesPerVessel(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics(), WithMaxRPS(2))

	for i := 0; i < 5; i++ {
		if err := p.Process(context.Background(), rawRecord("V1")); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}
	if proc.count() > 2 {
		t.Fatalf("expected at most 2 records through, got %d", proc.count())
	}

	// another vessel has its own bucket
	if err := p.Process(context.Background(), rawRecord("V2")); err != nil {
		t.Fatalf("process v2: %v", err)
	}
	if proc.count() < 2 {
		t.Fatalf("expected second vessel unaffected, got %d", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{fail: true}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), rawRecord("V1")); err == nil {
		t.Fatalf("expected downstream error to surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected record buffered, got %d", len(p.bufCh))
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics(),
		WithTransform(func(r *models.RawRecord) *models.RawRecord {
			r.Source = "normalized"
			return r
		}),
	)

	if err := p.Process(context.Background(), rawRecord("V1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.got[0].Source != "normalized" {
		t.Fatalf("expected transform applied, got %q", proc.got[0].Source)
	}
}
