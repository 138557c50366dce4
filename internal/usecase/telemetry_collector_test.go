package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"VesselPulse/internal/domain/models"
	mid "VesselPulse/internal/middleware"
)

// flakyStream delivers one round of records, dies with an error, and serves
// a second round after Reconnect.
type flakyStream struct {
	mu         sync.Mutex
	round      int
	reconnects int
	rounds     [][]*models.RawRecord
}

func (s *flakyStream) Connect(ctx context.Context) error   { return nil }
func (s *flakyStream) Subscribe(ctx context.Context) error { return nil }
func (s *flakyStream) Close() error                        { return nil }
func (s *flakyStream) IsConnected() bool                   { return true }

func (s *flakyStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.round++
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *flakyStream) Read(ctx context.Context) (<-chan *models.RawRecord, <-chan error) {
	recCh := make(chan *models.RawRecord, 8)
	errCh := make(chan error, 1)
	s.mu.Lock()
	round := s.round
	s.mu.Unlock()

	go func() {
		if round < len(s.rounds) {
			for _, r := range s.rounds[round] {
				recCh <- r
			}
		}
		if round == 0 {
			errCh <- errors.New("connection reset")
			close(errCh)
			close(recCh)
			return
		}
		<-ctx.Done()
		close(errCh)
		close(recCh)
	}()
	return recCh, errCh
}

type captureProc struct{ ch chan *models.RawRecord }

func (p *captureProc) Process(ctx context.Context, r *models.RawRecord) error {
	p.ch <- r
	return nil
}

func streamRecord(id string) *models.RawRecord {
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

func TestCollectorResumesAfterStreamError(t *testing.T) {
	stream := &flakyStream{rounds: [][]*models.RawRecord{
		{streamRecord("111")},
		{streamRecord("222")},
	}}
	capture := &captureProc{ch: make(chan *models.RawRecord, 8)}
	pipe := mid.NewRealtimePipeline(capture, nopMetrics{})
	coll := NewTelemetryCollector(stream, nil, nopMetrics{}, pipe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := coll.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	seen := make(map[string]bool)
	for len(seen) < 2 {
		select {
		case r := <-capture.ch:
			seen[r.VesselID] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out; saw %v, reconnects=%d", seen, stream.reconnects)
		}
	}
	if !seen["111"] || !seen["222"] {
		t.Fatalf("expected records from both rounds, saw %v", seen)
	}

	stream.mu.Lock()
	n := stream.reconnects
	stream.mu.Unlock()
	if n == 0 {
		t.Fatalf("expected a reconnect after the stream error")
	}
}
