package models

import "time"

// Status buckets a speed-over-ground value.
type Status string

const (
	StatusStationary Status = "stationary"
	StatusSlow       Status = "slow"
	StatusModerate   Status = "moderate"
	StatusFast       Status = "fast"
	StatusUnknown    Status = "unknown" // empty window, nothing to classify
)

// TrendDirection compares the current snapshot to the previous one.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

const (
	// TrendConfidenceOK means the trend was computed against a prior snapshot.
	TrendConfidenceOK = "ok"
	// TrendConfidenceInsufficient means there was no prior snapshot to compare.
	TrendConfidenceInsufficient = "insufficient-data"
)

// SpeedStats summarizes speed-over-ground within a window.
type SpeedStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

// CourseStats summarizes course-over-ground within a window. Min/max are
// linear; course is circular (0 wraps to 360) and the range is not corrected
// for wraparound. Mean is circular only when the engine is configured so.
type CourseStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// PositionBounds is an axis-aligned bounding box over window positions.
type PositionBounds struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// TrendResult is the directional comparison against the previous snapshot.
type TrendResult struct {
	Direction  TrendDirection `json:"direction"`
	Delta      float64        `json:"delta"` // new mean speed - previous mean speed
	Confidence string         `json:"confidence"`
}

// AggregateSnapshot is the cached per-vessel aggregate over the current
// window. Stats blocks are nil when the window is empty.
type AggregateSnapshot struct {
	VesselID   string          `json:"mmsi"`
	Count      int             `json:"count"`
	Speed      *SpeedStats     `json:"speed,omitempty"`
	Course     *CourseStats    `json:"course,omitempty"`
	Bounds     *PositionBounds `json:"bounds,omitempty"`
	Status     Status          `json:"status"`
	Trend      TrendResult     `json:"trend"`
	ComputedAt time.Time       `json:"computed_at"`
}

// FleetAggregate folds all current per-vessel snapshots into one view.
// Recomputed on demand, never persisted.
type FleetAggregate struct {
	Vessels            int             `json:"vessels"`
	Records            int             `json:"records"`
	Speed              *SpeedStats     `json:"speed,omitempty"`
	Bounds             *PositionBounds `json:"bounds,omitempty"`
	StatusDistribution map[Status]int  `json:"status_distribution"`
	ComputedAt         time.Time       `json:"computed_at"`
}
