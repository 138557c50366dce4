package engine

import (
	"testing"

	"VesselPulse/internal/domain/models"
)

func TestClassifyBuckets(t *testing.T) {
	c := NewClassifier(SpeedThresholds{Stationary: 0.5, Slow: 5, Moderate: 15})
	for _, tc := range []struct {
		sog  float64
		want models.Status
	}{
		{0, models.StatusStationary},
		{0.4, models.StatusStationary},
		{0.5, models.StatusSlow}, // boundary belongs to the higher bucket
		{4.99, models.StatusSlow},
		{5, models.StatusModerate},
		{14.9, models.StatusModerate},
		{15, models.StatusFast},
		{30, models.StatusFast},
	} {
		if got := c.Classify(tc.sog); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.sog, got, tc.want)
		}
	}
}
