package models

import "time"

// RawRecord is a telemetry record as delivered by a transport producer
// (AIS stream, Kafka, HTTP ingest). Fields that may be absent are pointers
// so the validator can tell "missing" from "zero".
type RawRecord struct {
	VesselID  string   `json:"mmsi"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Speed     *float64 `json:"sog"` // knots
	Course    *float64 `json:"cog"` // degrees
	Timestamp string   `json:"tstamp"`
	Source    string   `json:"source,omitempty"`
}

// TelemetryRecord is a validated, immutable vessel observation.
type TelemetryRecord struct {
	VesselID  string
	Latitude  float64 // [-90, 90]
	Longitude float64 // [-180, 180]
	Speed     float64 // knots, >= 0
	Course    float64 // degrees, [0, 360)
	Timestamp time.Time
}

// RejectReason classifies why a record was not accepted.
type RejectReason string

const (
	RejectNone              RejectReason = ""
	RejectMissingField      RejectReason = "missing_field"
	RejectOutOfRangeCoord   RejectReason = "out_of_range_coordinate"
	RejectInvalidSpeed      RejectReason = "invalid_speed"
	RejectInvalidTimestamp  RejectReason = "invalid_timestamp"
	RejectOutOfOrderDropped RejectReason = "out_of_order_dropped"
)

// IngestResult reports the outcome of a single ingest call.
type IngestResult struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	VesselID string       `json:"mmsi,omitempty"`
}
