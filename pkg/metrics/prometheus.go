package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	recordsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vesselpulse",
			Name:      "records_ingested_total",
			Help:      "Accepted telemetry records by source and vessel",
		},
		[]string{"source", "mmsi"},
	)

	recordsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vesselpulse",
			Name:      "records_rejected_total",
			Help:      "Rejected telemetry records by reason",
		},
		[]string{"reason"},
	)

	lastSpeed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vesselpulse",
			Name:      "last_speed_knots",
			Help:      "Most recent speed over ground per vessel",
		},
		[]string{"mmsi"},
	)

	operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vesselpulse",
			Name:      "errors_total",
			Help:      "Operational errors by source operation",
		},
		[]string{"operation"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vesselpulse",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ingest and snapshot operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func register() {
	once.Do(func() {
		prometheus.MustRegister(recordsIngested, recordsRejected, lastSpeed, operationErrors, operationDuration)
	})
}

// Recorder implements the domain metrics sink on top of Prometheus.
type Recorder struct{}

func NewRecorder() *Recorder {
	register()
	return &Recorder{}
}

func (r *Recorder) RecordIngested(source, vesselID string) {
	recordsIngested.WithLabelValues(source, vesselID).Inc()
}

func (r *Recorder) RecordRejected(reason string) {
	recordsRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordLastSpeed(vesselID string, sog float64) {
	lastSpeed.WithLabelValues(vesselID).Set(sog)
}

func (r *Recorder) RecordLatency(operation string, seconds float64) {
	operationDuration.WithLabelValues(operation).Observe(seconds)
}

func (r *Recorder) RecordError(operation string) {
	operationErrors.WithLabelValues(operation).Inc()
}
