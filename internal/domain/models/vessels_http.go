package models

// Requests for vessel HTTP endpoints. Defined in domain for consistency and reuse.

type IngestRequest struct {
	VesselID  string   `json:"mmsi" validate:"required"`
	Latitude  *float64 `json:"lat" validate:"required"`
	Longitude *float64 `json:"lon" validate:"required"`
	Speed     *float64 `json:"sog" validate:"required"`
	Course    *float64 `json:"cog"`
	Timestamp string   `json:"tstamp" validate:"required"`
	Source    string   `json:"source" default:"http"`
}

type VesselSnapshotRequest struct {
	VesselID string `param:"id" json:"mmsi" validate:"required"`
}

type ActiveVesselsRequest struct {
	// MovingOnly restricts the listing to vessels whose latest mean speed
	// exceeds the stationary threshold.
	MovingOnly bool `query:"moving" json:"moving" default:"false"`
}
