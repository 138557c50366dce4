package engine

import (
	"math"
	"sort"
	"time"

	"VesselPulse/internal/domain/models"
)

// Aggregator computes window statistics. It fills everything except status
// and trend, which the facade layers on via the Classifier and TrendTracker.
// Computation is a full O(n) pass per call; windows are small (seconds of
// data at AIS cadence) so there are no incremental running sums to keep
// consistent under eviction.
type Aggregator struct {
	courseHandling CourseHandling
}

// NewAggregator creates an aggregator with the given course-mean handling.
func NewAggregator(handling CourseHandling) *Aggregator {
	return &Aggregator{courseHandling: handling}
}

// Compute derives an AggregateSnapshot from the window's records. An empty
// window yields a zero-count snapshot with nil stats blocks: "no data",
// not zeros.
func (a *Aggregator) Compute(vesselID string, recs []models.TelemetryRecord, now time.Time) models.AggregateSnapshot {
	snap := models.AggregateSnapshot{
		VesselID:   vesselID,
		Count:      len(recs),
		Status:     models.StatusUnknown,
		ComputedAt: now,
	}
	if len(recs) == 0 {
		return snap
	}

	speeds := make([]float64, len(recs))
	bounds := models.PositionBounds{
		LatMin: recs[0].Latitude, LatMax: recs[0].Latitude,
		LonMin: recs[0].Longitude, LonMax: recs[0].Longitude,
	}
	course := models.CourseStats{Min: recs[0].Course, Max: recs[0].Course}
	var speedSum, courseSum, sinSum, cosSum float64

	for i, r := range recs {
		speeds[i] = r.Speed
		speedSum += r.Speed

		bounds.LatMin = math.Min(bounds.LatMin, r.Latitude)
		bounds.LatMax = math.Max(bounds.LatMax, r.Latitude)
		bounds.LonMin = math.Min(bounds.LonMin, r.Longitude)
		bounds.LonMax = math.Max(bounds.LonMax, r.Longitude)

		course.Min = math.Min(course.Min, r.Course)
		course.Max = math.Max(course.Max, r.Course)
		courseSum += r.Course
		rad := r.Course * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}

	n := float64(len(recs))
	mean := speedSum / n
	snap.Speed = &models.SpeedStats{
		Min:    minOf(speeds),
		Max:    maxOf(speeds),
		Mean:   mean,
		Median: median(speeds),
		StdDev: stddev(speeds, mean),
	}

	if a.courseHandling == CourseCircular {
		deg := math.Atan2(sinSum, cosSum) * 180 / math.Pi
		if deg < 0 {
			deg += 360
		}
		course.Mean = deg
	} else {
		course.Mean = courseSum / n
	}
	snap.Course = &course
	snap.Bounds = &bounds
	return snap
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// stddev is the sample standard deviation; zero for a single entry.
func stddev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
