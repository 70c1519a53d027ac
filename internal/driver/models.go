package driver

import "time"

type Driver struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Phone      string       `json:"phone"`
	Address    string       `json:"address"`
	NationalID string       `json:"national_id,omitempty"`
	Province   string       `json:"province,omitempty"`
	BirthDate  *time.Time   `json:"birth_date,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	Vehicles   []VehicleRef `json:"vehicles"`
}

// VehicleRef is the summary of a vehicle assigned to a driver.
type VehicleRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlateNumber string `json:"plate_number"`
}
