package engine

import (
	"math"

	"VesselPulse/internal/domain/models"
	"VesselPulse/pkg/util"
)

// Validator cleans raw transport records into immutable TelemetryRecords.
// Pure: no state, no side effects. All duck-typed input handling lives here
// so everything downstream works with a strict type.
type Validator struct {
	speedPolicy SpeedPolicy
}

// NewValidator creates a validator with the given negative-speed policy.
func NewValidator(policy SpeedPolicy) *Validator {
	return &Validator{speedPolicy: policy}
}

// Validate returns the cleaned record, or a non-empty reject reason.
func (v *Validator) Validate(raw *models.RawRecord) (models.TelemetryRecord, models.RejectReason) {
	if raw == nil || raw.VesselID == "" || raw.Latitude == nil || raw.Longitude == nil ||
		raw.Speed == nil || raw.Timestamp == "" {
		return models.TelemetryRecord{}, models.RejectMissingField
	}

	lat, lon := *raw.Latitude, *raw.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.TelemetryRecord{}, models.RejectOutOfRangeCoord
	}

	sog := *raw.Speed
	if math.IsNaN(sog) {
		return models.TelemetryRecord{}, models.RejectInvalidSpeed
	}
	if sog < 0 {
		if v.speedPolicy == SpeedClamp {
			sog = 0
		} else {
			return models.TelemetryRecord{}, models.RejectInvalidSpeed
		}
	}

	ts, ok := util.ParseTime(raw.Timestamp)
	if !ok {
		return models.TelemetryRecord{}, models.RejectInvalidTimestamp
	}

	// Course is optional in AIS feeds; absent means 0. Values outside
	// [0,360) are folded back in by modulo, in-range values pass through.
	var cog float64
	if raw.Course != nil && !math.IsNaN(*raw.Course) {
		cog = math.Mod(*raw.Course, 360)
		if cog < 0 {
			cog += 360
		}
	}

	return models.TelemetryRecord{
		VesselID:  raw.VesselID,
		Latitude:  lat,
		Longitude: lon,
		Speed:     sog,
		Course:    cog,
		Timestamp: ts,
	}, models.RejectNone
}
