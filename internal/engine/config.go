package engine

import (
	"fmt"
	"time"
)

// OutOfOrderPolicy decides what happens to records older than the last
// accepted one for a vessel.
type OutOfOrderPolicy string

const (
	// OutOfOrderDrop drops the record and reports the reason to the caller.
	OutOfOrderDrop OutOfOrderPolicy = "drop"
	// OutOfOrderReject additionally surfaces an error from Ingest.
	OutOfOrderReject OutOfOrderPolicy = "reject"
)

// SpeedPolicy decides what happens to negative speed values.
type SpeedPolicy string

const (
	SpeedReject SpeedPolicy = "reject"
	SpeedClamp  SpeedPolicy = "clamp" // clamp to zero and accept
)

// CourseHandling selects how the course mean is computed.
type CourseHandling string

const (
	CourseLinear   CourseHandling = "linear"
	CourseCircular CourseHandling = "circular"
)

// SpeedThresholds are the upper bounds (exclusive) of the lower buckets,
// in knots. A speed exactly at a boundary belongs to the higher bucket.
type SpeedThresholds struct {
	Stationary float64 `yaml:"stationary"`
	Slow       float64 `yaml:"slow"`
	Moderate   float64 `yaml:"moderate"`
}

// Config controls the aggregation engine. Zero values are filled in by
// Defaults; Validate must pass before the engine accepts any records.
type Config struct {
	WindowDuration   time.Duration    `yaml:"window_duration"`
	EvictionInterval time.Duration    `yaml:"eviction_interval"`
	SpeedThresholds  SpeedThresholds  `yaml:"speed_thresholds"`
	TrendEpsilon     float64          `yaml:"trend_epsilon"`
	OutOfOrder       OutOfOrderPolicy `yaml:"out_of_order_policy"`
	SpeedPolicy      SpeedPolicy      `yaml:"speed_policy"`
	CourseHandling   CourseHandling   `yaml:"course_handling"`
	// RetainEmpty keeps a zero-count snapshot for a vessel whose window
	// drained instead of dropping the vessel state entirely.
	RetainEmpty bool `yaml:"retain_empty"`
}

// Defaults returns the engine configuration used when the deployment does
// not override anything: 60s window, 10s sweep, 0.5/5/15 knot buckets.
func Defaults() Config {
	return Config{
		WindowDuration:   60 * time.Second,
		EvictionInterval: 10 * time.Second,
		SpeedThresholds:  SpeedThresholds{Stationary: 0.5, Slow: 5, Moderate: 15},
		TrendEpsilon:     0.1,
		OutOfOrder:       OutOfOrderDrop,
		SpeedPolicy:      SpeedReject,
		CourseHandling:   CourseLinear,
	}
}

// Validate checks the configuration. The engine must fail fast at startup
// on an invalid config rather than reject records later.
func (c Config) Validate() error {
	if c.WindowDuration <= 0 {
		return fmt.Errorf("window_duration must be positive, got %v", c.WindowDuration)
	}
	if c.EvictionInterval <= 0 {
		return fmt.Errorf("eviction_interval must be positive, got %v", c.EvictionInterval)
	}
	t := c.SpeedThresholds
	if t.Stationary < 0 || t.Slow <= t.Stationary || t.Moderate <= t.Slow {
		return fmt.Errorf("speed_thresholds must be ordered 0 <= stationary < slow < moderate, got %+v", t)
	}
	if c.TrendEpsilon < 0 {
		return fmt.Errorf("trend_epsilon must be non-negative, got %v", c.TrendEpsilon)
	}
	switch c.OutOfOrder {
	case OutOfOrderDrop, OutOfOrderReject:
	default:
		return fmt.Errorf("out_of_order_policy must be 'drop' or 'reject', got '%s'", c.OutOfOrder)
	}
	switch c.SpeedPolicy {
	case SpeedReject, SpeedClamp:
	default:
		return fmt.Errorf("speed_policy must be 'reject' or 'clamp', got '%s'", c.SpeedPolicy)
	}
	switch c.CourseHandling {
	case CourseLinear, CourseCircular:
	default:
		return fmt.Errorf("course_handling must be 'linear' or 'circular', got '%s'", c.CourseHandling)
	}
	return nil
}
