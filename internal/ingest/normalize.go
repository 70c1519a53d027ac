package ingest

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

// RawSample is the alias-tolerant wire payload. Different GPS device firmware
// uses different key names for the same logical fields; everything funnels
// through Normalize before any business logic sees it.
type RawSample struct {
	DeviceIMEI string `json:"deviceImei" query:"deviceImei"`
	IMEI       string `json:"imei" query:"imei"`
	DeviceID   string `json:"id" query:"id"`

	Latitude  *float64 `json:"latitude" query:"latitude"`
	Lat       *float64 `json:"lat" query:"lat"`
	Longitude *float64 `json:"longitude" query:"longitude"`
	Lng       *float64 `json:"lng" query:"lng"`
	Lon       *float64 `json:"lon" query:"lon"`

	Speed *float64 `json:"speed" query:"speed"`
	Spd   *float64 `json:"spd" query:"spd"`

	BatteryLevel *int `json:"batteryLevel" query:"batteryLevel"`
	Battery      *int `json:"battery" query:"battery"`
	Bat          *int `json:"bat" query:"bat"`

	Timestamp string `json:"timestamp" query:"timestamp"`
	Time      string `json:"time" query:"time"`
	Date      string `json:"date" query:"date"`
}

// Input is the fully populated, strongly typed sample all core logic runs on.
type Input struct {
	DeviceIMEI   string
	Latitude     float64
	Longitude    float64
	Speed        float64
	BatteryLevel int
	Timestamp    time.Time
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// Normalize resolves aliases, substitutes defaults and validates the result.
// now is used when the device sent no timestamp.
func (r RawSample) Normalize(now time.Time) (Input, error) {
	var in Input

	in.DeviceIMEI = firstString(r.DeviceIMEI, r.IMEI, r.DeviceID)
	if in.DeviceIMEI == "" {
		return Input{}, fmt.Errorf("%w: deviceImei", ErrMissingField)
	}

	lat := firstFloat(r.Latitude, r.Lat)
	if lat == nil {
		return Input{}, fmt.Errorf("%w: latitude", ErrMissingField)
	}
	lng := firstFloat(r.Longitude, r.Lng, r.Lon)
	if lng == nil {
		return Input{}, fmt.Errorf("%w: longitude", ErrMissingField)
	}
	if math.IsNaN(*lat) || math.IsInf(*lat, 0) || *lat < -90 || *lat > 90 {
		return Input{}, fmt.Errorf("%w: latitude", ErrInvalidField)
	}
	if math.IsNaN(*lng) || math.IsInf(*lng, 0) || *lng < -180 || *lng > 180 {
		return Input{}, fmt.Errorf("%w: longitude", ErrInvalidField)
	}
	in.Latitude = *lat
	in.Longitude = *lng

	if speed := firstFloat(r.Speed, r.Spd); speed != nil {
		if math.IsNaN(*speed) || math.IsInf(*speed, 0) {
			return Input{}, fmt.Errorf("%w: speed", ErrInvalidField)
		}
		if *speed > 0 {
			in.Speed = *speed
		}
	}

	in.BatteryLevel = 100
	if battery := firstInt(r.BatteryLevel, r.Battery, r.Bat); battery != nil {
		switch {
		case *battery < 0:
			in.BatteryLevel = 0
		case *battery > 100:
			in.BatteryLevel = 100
		default:
			in.BatteryLevel = *battery
		}
	}

	in.Timestamp = now
	if raw := firstString(r.Timestamp, r.Time, r.Date); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Input{}, fmt.Errorf("%w: timestamp", ErrInvalidField)
		}
		in.Timestamp = ts
	}

	return in, nil
}
