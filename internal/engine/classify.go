package engine

import "VesselPulse/internal/domain/models"

// Classifier maps a speed value to a status bucket. Pure, total over the
// non-negative speed domain; a speed exactly at a boundary belongs to the
// higher bucket (0.5 knots is slow, not stationary).
type Classifier struct {
	thresholds SpeedThresholds
}

// NewClassifier creates a classifier with the given bucket bounds.
func NewClassifier(t SpeedThresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify buckets a speed-over-ground value in knots.
func (c *Classifier) Classify(sog float64) models.Status {
	switch {
	case sog < c.thresholds.Stationary:
		return models.StatusStationary
	case sog < c.thresholds.Slow:
		return models.StatusSlow
	case sog < c.thresholds.Moderate:
		return models.StatusModerate
	default:
		return models.StatusFast
	}
}
