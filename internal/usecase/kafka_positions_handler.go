package usecase

import (
	"context"
	"encoding/json"
	"time"

	"VesselPulse/internal/domain/models"
	domrepo "VesselPulse/internal/domain/repository"
	"VesselPulse/internal/engine"
	pkgkafka "VesselPulse/pkg/kafka"
	"VesselPulse/pkg/util"
)

// KafkaPositionsHandler consumes position messages and feeds the engine.
// Archive writes are best effort and never block ingestion.
type KafkaPositionsHandler struct {
	topic     string
	eng       *engine.Engine
	archive   domrepo.Archive
	metrics   domrepo.Metrics
	validator *engine.Validator
}

func NewKafkaPositionsHandler(topic string, eng *engine.Engine, archive domrepo.Archive, metrics domrepo.Metrics, validator *engine.Validator) *KafkaPositionsHandler {
	return &KafkaPositionsHandler{topic: topic, eng: eng, archive: archive, metrics: metrics, validator: validator}
}

func (h *KafkaPositionsHandler) Topic() string { return h.topic }

// incoming message schema: {mmsi, lat, lon, sog, cog, tstamp}
func (h *KafkaPositionsHandler) Handle(ctx context.Context, b []byte) error {
	var raw models.RawRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	raw.Source = "kafka"

	// E2E latency from event time to now (approx)
	if ts, ok := util.ParseTime(raw.Timestamp); ok {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())
	}

	start := time.Now()
	res, err := h.eng.Ingest(&raw)
	h.metrics.RecordLatency("engine_ingest_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_ingest")
		return err
	}
	if !res.Accepted {
		// rejection already counted by the engine; do not retry
		return nil
	}

	if h.archive != nil {
		if rec, reason := h.validator.Validate(&raw); reason == models.RejectNone {
			insert := time.Now()
			if aerr := h.archive.Store(ctx, &rec); aerr != nil {
				h.metrics.RecordError("consumer_archive")
			}
			h.metrics.RecordLatency("archive_insert_seconds", time.Since(insert).Seconds())
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPositionsHandler)(nil)
