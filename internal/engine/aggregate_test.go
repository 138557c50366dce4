package engine

import (
	"math"
	"testing"
	"time"

	"VesselPulse/internal/domain/models"
)

func TestComputeEmptyWindow(t *testing.T) {
	a := NewAggregator(CourseLinear)
	snap := a.Compute("V1", nil, time.Now())
	if snap.Count != 0 {
		t.Fatalf("expected count 0, got %d", snap.Count)
	}
	if snap.Speed != nil || snap.Course != nil || snap.Bounds != nil {
		t.Fatalf("expected nil stats for empty window: %+v", snap)
	}
	if snap.Status != models.StatusUnknown {
		t.Fatalf("expected unknown status, got %s", snap.Status)
	}
}

func TestComputeSpeedStats(t *testing.T) {
	a := NewAggregator(CourseLinear)
	recs := []models.TelemetryRecord{recAt(0, 2), recAt(20, 8), recAt(40, 3)}
	snap := a.Compute("V1", recs, time.Now())

	if snap.Count != 3 {
		t.Fatalf("expected count 3, got %d", snap.Count)
	}
	if snap.Speed.Min != 2 || snap.Speed.Max != 8 {
		t.Fatalf("expected min=2 max=8, got %+v", snap.Speed)
	}
	if math.Abs(snap.Speed.Mean-13.0/3.0) > 1e-9 {
		t.Fatalf("expected mean 4.33, got %v", snap.Speed.Mean)
	}
	if snap.Speed.Median != 3 {
		t.Fatalf("expected median 3, got %v", snap.Speed.Median)
	}
}

func TestComputeBoundsAndCourse(t *testing.T) {
	a := NewAggregator(CourseLinear)
	recs := []models.TelemetryRecord{
		{VesselID: "V1", Latitude: 40, Longitude: -74, Speed: 1, Course: 10, Timestamp: time.Unix(0, 0)},
		{VesselID: "V1", Latitude: 42, Longitude: -70, Speed: 1, Course: 350, Timestamp: time.Unix(10, 0)},
	}
	snap := a.Compute("V1", recs, time.Now())

	b := snap.Bounds
	if b.LatMin != 40 || b.LatMax != 42 || b.LonMin != -74 || b.LonMax != -70 {
		t.Fatalf("unexpected bounds %+v", b)
	}
	// Linear course handling: naive min/max and arithmetic mean, the 0/360
	// wraparound is intentionally not corrected.
	if snap.Course.Min != 10 || snap.Course.Max != 350 || snap.Course.Mean != 180 {
		t.Fatalf("unexpected linear course stats %+v", snap.Course)
	}
}

func TestComputeCircularCourseMean(t *testing.T) {
	a := NewAggregator(CourseCircular)
	recs := []models.TelemetryRecord{
		{VesselID: "V1", Latitude: 0, Longitude: 0, Speed: 1, Course: 350, Timestamp: time.Unix(0, 0)},
		{VesselID: "V1", Latitude: 0, Longitude: 0, Speed: 1, Course: 10, Timestamp: time.Unix(10, 0)},
	}
	snap := a.Compute("V1", recs, time.Now())
	// 350 and 10 straddle north: the circular mean is 0, not 180.
	mean := snap.Course.Mean
	if mean > 1e-6 && mean < 360-1e-6 {
		t.Fatalf("expected circular mean ~0, got %v", mean)
	}
}

func TestComputeStdDevSingleEntry(t *testing.T) {
	a := NewAggregator(CourseLinear)
	snap := a.Compute("V1", []models.TelemetryRecord{recAt(0, 5)}, time.Now())
	if snap.Speed.StdDev != 0 {
		t.Fatalf("expected stddev 0 for single entry, got %v", snap.Speed.StdDev)
	}
	if snap.Speed.Median != 5 {
		t.Fatalf("expected median 5, got %v", snap.Speed.Median)
	}
}
