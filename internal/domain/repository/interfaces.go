package repository

import (
	"context"
	"time"

	"VesselPulse/internal/domain/models"
)

// TelemetryStream is a live feed of raw vessel records (AIS over WebSocket).
type TelemetryStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.RawRecord, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher delivers validated records to a message broker.
type Publisher interface {
	Publish(ctx context.Context, r *models.TelemetryRecord) error
	PublishBatch(ctx context.Context, recs []*models.TelemetryRecord) error
	Close() error
}

// Archive is the transport-side sink for raw position history. The core
// engine never reads from it; it exists so downstream consumers can replay
// or inspect traffic.
type Archive interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.TelemetryRecord) error
	StoreBatch(ctx context.Context, recs []*models.TelemetryRecord) error
	Query(ctx context.Context, vesselID string, from, to time.Time, limit int) ([]*models.TelemetryRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational counters for the ingestion path.
type Metrics interface {
	RecordIngested(source, vesselID string)
	RecordRejected(reason string)
	RecordLastSpeed(vesselID string, sog float64)
	RecordLatency(op string, seconds float64)
	RecordError(op string)
}
