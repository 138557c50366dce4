package usecase

import (
	"context"
	"fmt"
	"time"

	"VesselPulse/internal/domain/models"
	drepo "VesselPulse/internal/domain/repository"
	"VesselPulse/internal/engine"
)

// TelemetryProcessor routes raw records to the configured backend: straight
// into the aggregation engine, or out to Kafka for a downstream consumer.
type TelemetryProcessor struct {
	eng       *engine.Engine
	pub       drepo.Publisher
	archive   drepo.Archive
	metrics   drepo.Metrics
	validator *engine.Validator
	backend   string
	batchSz   int
	batchTO   time.Duration
}

// NewTelemetryProcessor creates a new TelemetryProcessor instance.
func NewTelemetryProcessor(
	eng *engine.Engine,
	pub drepo.Publisher,
	archive drepo.Archive,
	metrics drepo.Metrics,
	validator *engine.Validator,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *TelemetryProcessor {
	return &TelemetryProcessor{
		eng:       eng,
		pub:       pub,
		archive:   archive,
		metrics:   metrics,
		validator: validator,
		backend:   backend,
		batchSz:   batchSz,
		batchTO:   batchTO,
	}
}

// Process routes a single record to the configured backend.
func (p *TelemetryProcessor) Process(ctx context.Context, raw *models.RawRecord) error {
	if raw == nil {
		return fmt.Errorf("record is nil")
	}

	start := time.Now()

	switch p.backend {
	case "kafka":
		rec, reason := p.validator.Validate(raw)
		if reason != models.RejectNone {
			p.metrics.RecordRejected(string(reason))
			return nil
		}
		if err := p.pub.Publish(ctx, &rec); err != nil {
			p.metrics.RecordError("process")
			return fmt.Errorf("publish record: %w", err)
		}
		p.metrics.RecordIngested(raw.Source, rec.VesselID)
	case "engine":
		res, err := p.eng.Ingest(raw)
		if err != nil {
			p.metrics.RecordError("process")
			return fmt.Errorf("ingest record: %w", err)
		}
		if !res.Accepted {
			// rejection already counted by the engine
			return nil
		}
		p.archiveRecord(ctx, raw)
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple records in a batch.
func (p *TelemetryProcessor) ProcessBatch(ctx context.Context, raws []*models.RawRecord) error {
	if len(raws) == 0 {
		return nil
	}

	start := time.Now()

	switch p.backend {
	case "kafka":
		recs := make([]*models.TelemetryRecord, 0, len(raws))
		for _, raw := range raws {
			rec, reason := p.validator.Validate(raw)
			if reason != models.RejectNone {
				p.metrics.RecordRejected(string(reason))
				continue
			}
			recs = append(recs, &rec)
		}
		if err := p.pub.PublishBatch(ctx, recs); err != nil {
			p.metrics.RecordError("process_batch")
			return fmt.Errorf("publish batch: %w", err)
		}
		for _, rec := range recs {
			p.metrics.RecordIngested("batch", rec.VesselID)
		}
	case "engine":
		for _, raw := range raws {
			res, err := p.eng.Ingest(raw)
			if err != nil {
				p.metrics.RecordError("process_batch")
				return fmt.Errorf("ingest record: %w", err)
			}
			if res.Accepted {
				p.archiveRecord(ctx, raw)
			}
		}
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}

	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// archiveRecord writes an accepted record to the archive, best effort.
func (p *TelemetryProcessor) archiveRecord(ctx context.Context, raw *models.RawRecord) {
	if p.archive == nil {
		return
	}
	rec, reason := p.validator.Validate(raw)
	if reason != models.RejectNone {
		return
	}
	if err := p.archive.Store(ctx, &rec); err != nil {
		p.metrics.RecordError("archive_store")
	}
}

// Close closes underlying resources if available.
func (p *TelemetryProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
