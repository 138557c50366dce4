package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ActiveVessels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vesselpulse",
			Subsystem: "engine",
			Name:      "active_vessels",
			Help:      "Vessels with at least one record in the window",
		},
	)

	EvictedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vesselpulse",
			Subsystem: "engine",
			Name:      "evicted_records_total",
			Help:      "Records expired out of sliding windows",
		},
	)

	WindowSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vesselpulse",
			Subsystem: "engine",
			Name:      "window_size",
			Help:      "Per-vessel window size observed at recompute",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ActiveVessels, EvictedRecords, WindowSize)
	})
}

// EngineObserver feeds engine gauges from eviction and recompute paths.
type EngineObserver struct{}

func NewEngineObserver() *EngineObserver {
	Register()
	return &EngineObserver{}
}

func (o *EngineObserver) SetActiveVessels(n int) {
	ActiveVessels.Set(float64(n))
}

func (o *EngineObserver) AddEvicted(n int) {
	if n > 0 {
		EvictedRecords.Add(float64(n))
	}
}

func (o *EngineObserver) ObserveWindowSize(n int) {
	WindowSize.Observe(float64(n))
}
