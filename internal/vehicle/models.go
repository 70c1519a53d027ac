package vehicle

import "time"

type Status string

const (
	StatusMoving  Status = "moving"
	StatusStopped Status = "stopped"
	// StatusPoweredOff is stored as "turnoff", the value GPS device vendors
	// use for ignition-off.
	StatusPoweredOff Status = "turnoff"
)

// State is the continuously overwritten live record for one vehicle. It is
// mutated once per ingested sample, and only under the per-vehicle lock.
type State struct {
	Status        Status    `json:"status"`
	LastLatitude  float64   `json:"last_latitude"`
	LastLongitude float64   `json:"last_longitude"`
	LastSpeed     float64   `json:"last_speed"`
	LastUpdate    time.Time `json:"last_update"`
	// StoppedAt is non-nil exactly while a stop interval is open.
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
	// TotalStoppedTime is cumulative seconds across closed stop intervals;
	// the currently open interval is not included until it closes.
	TotalStoppedTime int64 `json:"total_stopped_time"`
}

type Vehicle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlateNumber string `json:"plate_number"`
	DeviceIMEI  string `json:"device_imei"`
	DriverName  string `json:"driver_name,omitempty"`
	DriverPhone string `json:"driver_phone,omitempty"`
	State
	CreatedAt  time.Time `json:"created_at"`
	LastSample *Sample   `json:"last_sample,omitempty"`
}

// Sample is one immutable GPS reading. Samples are append-only and removed
// only when their vehicle is deleted.
type Sample struct {
	ID           int64     `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Speed        float64   `json:"speed"`
	BatteryLevel int       `json:"battery_level"`
	Timestamp    time.Time `json:"timestamp"`
}

// DayActivity summarizes one calendar day of samples for a vehicle.
type DayActivity struct {
	Date        string    `json:"date"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Count       int       `json:"count"`
	MovingCount int       `json:"moving_count"`
}
