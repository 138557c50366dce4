package engine

import (
	"testing"

	"VesselPulse/internal/domain/models"
)

func f64(v float64) *float64 { return &v }

func validRaw() *models.RawRecord {
	return &models.RawRecord{
		VesselID:  "123456789",
		Latitude:  f64(40.7),
		Longitude: f64(-74.0),
		Speed:     f64(12.5),
		Course:    f64(180),
		Timestamp: "2026-08-25T10:00:00Z",
	}
}

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(SpeedReject)
	rec, reason := v.Validate(validRaw())
	if reason != models.RejectNone {
		t.Fatalf("unexpected reject: %s", reason)
	}
	if rec.VesselID != "123456789" || rec.Speed != 12.5 || rec.Course != 180 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestValidateOutOfRangeCoordinates(t *testing.T) {
	v := NewValidator(SpeedReject)
	for _, tc := range []struct{ lat, lon float64 }{
		{91, 0}, {-91, 0}, {0, 181}, {0, -181},
	} {
		raw := validRaw()
		raw.Latitude = f64(tc.lat)
		raw.Longitude = f64(tc.lon)
		if _, reason := v.Validate(raw); reason != models.RejectOutOfRangeCoord {
			t.Fatalf("lat=%v lon=%v: expected out-of-range, got %q", tc.lat, tc.lon, reason)
		}
	}
}

func TestValidateMissingFields(t *testing.T) {
	v := NewValidator(SpeedReject)

	raw := validRaw()
	raw.VesselID = ""
	if _, reason := v.Validate(raw); reason != models.RejectMissingField {
		t.Fatalf("expected missing_field for empty id, got %q", reason)
	}

	raw = validRaw()
	raw.Speed = nil
	if _, reason := v.Validate(raw); reason != models.RejectMissingField {
		t.Fatalf("expected missing_field for nil speed, got %q", reason)
	}

	raw = validRaw()
	raw.Timestamp = ""
	if _, reason := v.Validate(raw); reason != models.RejectMissingField {
		t.Fatalf("expected missing_field for empty timestamp, got %q", reason)
	}
}

func TestValidateNegativeSpeedPolicies(t *testing.T) {
	raw := validRaw()
	raw.Speed = f64(-3)

	if _, reason := NewValidator(SpeedReject).Validate(raw); reason != models.RejectInvalidSpeed {
		t.Fatalf("reject policy: expected invalid_speed, got %q", reason)
	}

	rec, reason := NewValidator(SpeedClamp).Validate(raw)
	if reason != models.RejectNone {
		t.Fatalf("clamp policy: unexpected reject %q", reason)
	}
	if rec.Speed != 0 {
		t.Fatalf("clamp policy: expected speed 0, got %v", rec.Speed)
	}
}

func TestValidateCourseNormalization(t *testing.T) {
	v := NewValidator(SpeedReject)
	for _, tc := range []struct{ in, want float64 }{
		{370, 10}, {-90, 270}, {360, 0}, {180, 180}, {0, 0},
	} {
		raw := validRaw()
		raw.Course = f64(tc.in)
		rec, reason := v.Validate(raw)
		if reason != models.RejectNone {
			t.Fatalf("course %v: unexpected reject %q", tc.in, reason)
		}
		if rec.Course != tc.want {
			t.Fatalf("course %v: expected %v, got %v", tc.in, tc.want, rec.Course)
		}
	}
}

func TestValidateInvalidTimestamp(t *testing.T) {
	v := NewValidator(SpeedReject)
	raw := validRaw()
	raw.Timestamp = "not-a-time"
	if _, reason := v.Validate(raw); reason != models.RejectInvalidTimestamp {
		t.Fatalf("expected invalid_timestamp, got %q", reason)
	}
}

func TestValidateAISTimestampFormat(t *testing.T) {
	v := NewValidator(SpeedReject)
	raw := validRaw()
	raw.Timestamp = "2026-08-25 10:00:00 GMT"
	rec, reason := v.Validate(raw)
	if reason != models.RejectNone {
		t.Fatalf("unexpected reject %q", reason)
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("expected parsed timestamp")
	}
}
