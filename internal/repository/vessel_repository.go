package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"VesselPulse/internal/domain/models"
	"VesselPulse/internal/domain/repository"
	pkgkafka "VesselPulse/pkg/kafka"
)

// ClickHouseArchive implements Archive for ClickHouse. It is a transport
// sink only; snapshot reads never touch it.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates a ClickHouse archive.
func NewClickHouseArchive(db *sql.DB, table string) repository.Archive {
	return &ClickHouseArchive{db: db, table: table}
}

// ArchiveSchema returns idempotent DDL for the positions table.
func ArchiveSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			mmsi String,
			lat Float64,
			lon Float64,
			sog Float64,
			cog Float64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(ts)
		ORDER BY (mmsi, ts)
		TTL toDateTime(ts) + INTERVAL 30 DAY`, table),
	}
}

func (s *ClickHouseArchive) Init(ctx context.Context) error {
	for _, stmt := range ArchiveSchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("archive init: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseArchive) Store(ctx context.Context, r *models.TelemetryRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, mmsi, lat, lon, sog, cog) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		r.Timestamp,
		r.VesselID,
		r.Latitude,
		r.Longitude,
		r.Speed,
		r.Course,
	)
	return err
}

func (s *ClickHouseArchive) StoreBatch(ctx context.Context, recs []*models.TelemetryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, r := range recs[start:end] {
			if r == nil || r.VesselID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, r.Timestamp, r.VesselID, r.Latitude, r.Longitude, r.Speed, r.Course)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, mmsi, lat, lon, sog, cog) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseArchive) Query(ctx context.Context, vesselID string, from, to time.Time, limit int) ([]*models.TelemetryRecord, error) {
	q := fmt.Sprintf("SELECT mmsi, ts, lat, lon, sog, cog FROM %s WHERE mmsi = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, vesselID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.TelemetryRecord
	for rows.Next() {
		var r models.TelemetryRecord
		if err := rows.Scan(&r.VesselID, &r.Timestamp, &r.Latitude, &r.Longitude, &r.Speed, &r.Course); err != nil {
			return nil, err
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

func (s *ClickHouseArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseArchive) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka. Records are keyed by MMSI
// so per-vessel ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func recordPayload(r *models.TelemetryRecord) map[string]interface{} {
	return map[string]interface{}{
		"mmsi":   r.VesselID,
		"lat":    r.Latitude,
		"lon":    r.Longitude,
		"sog":    r.Speed,
		"cog":    r.Course,
		"tstamp": r.Timestamp.UTC().Format(time.RFC3339),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.TelemetryRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.VesselID), recordPayload(r))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, recs []*models.TelemetryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i, r := range recs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.VesselID),
			Value: recordPayload(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
