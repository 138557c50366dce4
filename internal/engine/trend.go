package engine

import (
	"sync"

	"VesselPulse/internal/domain/models"
)

// TrendTracker compares each new snapshot's mean speed against the previous
// one per vessel. Single-slot memory: only the immediately preceding
// snapshot is kept, replaced on every call.
type TrendTracker struct {
	epsilon float64

	mu   sync.Mutex
	prev map[string]models.AggregateSnapshot
}

// NewTrendTracker creates a tracker with the given stability epsilon.
func NewTrendTracker(epsilon float64) *TrendTracker {
	return &TrendTracker{epsilon: epsilon, prev: make(map[string]models.AggregateSnapshot)}
}

// Update computes the trend for the new snapshot and replaces the stored
// previous one. The first observation for a vessel, and any comparison where
// either side has no speed data, is stable with insufficient-data confidence.
func (t *TrendTracker) Update(vesselID string, snap models.AggregateSnapshot) models.TrendResult {
	t.mu.Lock()
	prev, ok := t.prev[vesselID]
	t.prev[vesselID] = snap
	t.mu.Unlock()

	if !ok || prev.Speed == nil || snap.Speed == nil {
		return models.TrendResult{
			Direction:  models.TrendStable,
			Confidence: models.TrendConfidenceInsufficient,
		}
	}

	delta := snap.Speed.Mean - prev.Speed.Mean
	res := models.TrendResult{Delta: delta, Confidence: models.TrendConfidenceOK}
	switch {
	case delta > t.epsilon:
		res.Direction = models.TrendRising
	case delta < -t.epsilon:
		res.Direction = models.TrendFalling
	default:
		res.Direction = models.TrendStable
	}
	return res
}

// Forget drops the stored snapshot for a vessel whose state was removed.
func (t *TrendTracker) Forget(vesselID string) {
	t.mu.Lock()
	delete(t.prev, vesselID)
	t.mu.Unlock()
}
