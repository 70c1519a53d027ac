package trip

import "time"

type ArrivalStatus string

const (
	ArrivalNotSet     ArrivalStatus = "not_set"
	ArrivalInProgress ArrivalStatus = "in_progress"
	ArrivalArrived    ArrivalStatus = "arrived"
)

type Trip struct {
	ID              string        `json:"id"`
	VehicleID       string        `json:"vehicle_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	Distance        float64       `json:"distance"`
	AvgSpeed        float64       `json:"avg_speed"`
	MaxSpeed        float64       `json:"max_speed"`
	Stops           int           `json:"stops"`
	Notes           string        `json:"notes,omitempty"`
	DestinationLat  *float64      `json:"destination_lat,omitempty"`
	DestinationLng  *float64      `json:"destination_lng,omitempty"`
	DestinationName string        `json:"destination_name,omitempty"`
	ArrivalStatus   ArrivalStatus `json:"arrival_status"`
	ArrivalTime     *time.Time    `json:"arrival_time,omitempty"`
}
