package engine

import (
	"testing"
	"time"

	"VesselPulse/internal/domain/models"
)

func snapWithMean(mean float64) models.AggregateSnapshot {
	return models.AggregateSnapshot{
		VesselID:   "V1",
		Count:      1,
		Speed:      &models.SpeedStats{Min: mean, Max: mean, Mean: mean},
		ComputedAt: time.Now(),
	}
}

func TestTrendFirstObservation(t *testing.T) {
	tr := NewTrendTracker(0.1)
	res := tr.Update("V1", snapWithMean(5))
	if res.Direction != models.TrendStable {
		t.Fatalf("expected stable, got %s", res.Direction)
	}
	if res.Confidence != models.TrendConfidenceInsufficient {
		t.Fatalf("expected insufficient-data, got %s", res.Confidence)
	}
}

func TestTrendDirections(t *testing.T) {
	tr := NewTrendTracker(0.5)
	tr.Update("V1", snapWithMean(5))

	res := tr.Update("V1", snapWithMean(6))
	if res.Direction != models.TrendRising || res.Confidence != models.TrendConfidenceOK {
		t.Fatalf("expected rising/ok, got %+v", res)
	}

	res = tr.Update("V1", snapWithMean(4))
	if res.Direction != models.TrendFalling {
		t.Fatalf("expected falling, got %+v", res)
	}

	// Within epsilon of the previous mean: stable.
	res = tr.Update("V1", snapWithMean(4.3))
	if res.Direction != models.TrendStable {
		t.Fatalf("expected stable within epsilon, got %+v", res)
	}
}

func TestTrendSingleSlotMemory(t *testing.T) {
	tr := NewTrendTracker(0.1)
	tr.Update("V1", snapWithMean(1))
	tr.Update("V1", snapWithMean(10))
	// Comparison is against the immediately preceding snapshot (10), not 1.
	res := tr.Update("V1", snapWithMean(9))
	if res.Direction != models.TrendFalling {
		t.Fatalf("expected falling vs previous snapshot, got %+v", res)
	}
}

func TestTrendPerVesselIsolation(t *testing.T) {
	tr := NewTrendTracker(0.1)
	tr.Update("V1", snapWithMean(5))
	res := tr.Update("V2", snapWithMean(5))
	if res.Confidence != models.TrendConfidenceInsufficient {
		t.Fatalf("vessel V2 should have no prior snapshot, got %+v", res)
	}
}

func TestTrendForget(t *testing.T) {
	tr := NewTrendTracker(0.1)
	tr.Update("V1", snapWithMean(5))
	tr.Forget("V1")
	res := tr.Update("V1", snapWithMean(9))
	if res.Confidence != models.TrendConfidenceInsufficient {
		t.Fatalf("expected insufficient-data after forget, got %+v", res)
	}
}
