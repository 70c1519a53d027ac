package report

import "time"

// DailyReport is a derived aggregate over one vehicle's samples for one
// calendar day. It is a deterministic function of the sample set: recomputing
// from identical samples reproduces identical fields.
type DailyReport struct {
	ID               string    `json:"id"`
	VehicleID        string    `json:"vehicle_id"`
	Date             time.Time `json:"date"`
	TotalDistance    float64   `json:"total_distance"`     // km, 2 decimals
	TotalDuration    int       `json:"total_duration"`     // minutes, first to last sample
	TotalStoppedTime int       `json:"total_stopped_time"` // minutes
	TotalMovingTime  int       `json:"total_moving_time"`  // minutes
	MaxSpeed         float64   `json:"max_speed"`
	AvgSpeed         float64   `json:"avg_speed"` // over moving samples only
	NumberOfStops    int       `json:"number_of_stops"`
	LongestStop      int       `json:"longest_stop"` // minutes
	FirstMovement    time.Time `json:"first_movement"`
	LastMovement     time.Time `json:"last_movement"`
	StartLat         float64   `json:"start_lat"`
	StartLng         float64   `json:"start_lng"`
	EndLat           float64   `json:"end_lat"`
	EndLng           float64   `json:"end_lng"`
}

// Stats is the roll-up block returned alongside report listings.
type Stats struct {
	TotalDistance float64 `json:"total_distance"`
	TotalTrips    int     `json:"total_trips"`
	AvgSpeed      float64 `json:"avg_speed"`
	TotalStops    int     `json:"total_stops"`
}
