package trip

import (
	"context"
	"errors"
	"time"

	"github.com/Tah5721312/gps-tracking/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("trip not found")

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const tripColumns = `id, vehicle_id, start_time, end_time, COALESCE(distance,0), COALESCE(avg_speed,0),
		COALESCE(max_speed,0), COALESCE(stops,0), COALESCE(notes,''),
		destination_lat, destination_lng, COALESCE(destination_name,''),
		COALESCE(arrival_status,'not_set'), arrival_time`

func scanTrip(row pgx.Row) (Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.VehicleID, &t.StartTime, &t.EndTime, &t.Distance, &t.AvgSpeed,
		&t.MaxSpeed, &t.Stops, &t.Notes,
		&t.DestinationLat, &t.DestinationLng, &t.DestinationName,
		&t.ArrivalStatus, &t.ArrivalTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, ErrNotFound
		}
		return Trip{}, err
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, input Trip) (Trip, error) {
	input.ID = uuid.NewString()
	if input.DestinationLat != nil && input.DestinationLng != nil {
		input.ArrivalStatus = ArrivalInProgress
	} else {
		input.ArrivalStatus = ArrivalNotSet
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (id, vehicle_id, start_time, end_time, distance, avg_speed, max_speed, stops, notes,
		                   destination_lat, destination_lng, destination_name, arrival_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, input.ID, input.VehicleID, input.StartTime, input.EndTime, input.Distance, input.AvgSpeed,
		input.MaxSpeed, input.Stops, input.Notes,
		input.DestinationLat, input.DestinationLng, input.DestinationName, input.ArrivalStatus)
	if err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips WHERE id=$1
	`, id)
	return scanTrip(row)
}

// List returns trips newest first, optionally filtered by vehicle and
// start-time range.
func (s *Service) List(ctx context.Context, vehicleID string, from, to time.Time) ([]Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips`
	var args []any
	where := ""
	if vehicleID != "" {
		args = append(args, vehicleID)
		where = ` WHERE vehicle_id=$1`
	}
	if !from.IsZero() && !to.IsZero() {
		if where == "" {
			where = ` WHERE start_time >= $1 AND start_time <= $2`
		} else {
			where += ` AND start_time >= $2 AND start_time <= $3`
		}
		args = append(args, from, to)
	}
	rows, err := s.db.Query(ctx, query+where+` ORDER BY start_time DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// FindOpen returns in-progress trips (no end time) for a vehicle.
func (s *Service) FindOpen(ctx context.Context, vehicleID string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips WHERE vehicle_id=$1 AND end_time IS NULL
	`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// MarkArrivals checks the vehicle's open trips against its position and
// persists any arrivals. The guard on arrival_status keeps the transition
// one-shot even under concurrent checks.
func (s *Service) MarkArrivals(ctx context.Context, vehicleID string, lat, lng float64, at time.Time) ([]Trip, error) {
	open, err := s.FindOpen(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	arrived := CheckArrival(lat, lng, at, open)
	for _, t := range arrived {
		_, err := s.db.Exec(ctx, `
			UPDATE trips SET arrival_status=$2, arrival_time=$3
			WHERE id=$1 AND arrival_status <> $2
		`, t.ID, ArrivalArrived, t.ArrivalTime)
		if err != nil {
			return nil, err
		}
	}
	return arrived, nil
}

// Update closes or annotates a trip. Zero-valued fields are left untouched.
func (s *Service) Update(ctx context.Context, id string, patch Trip) (Trip, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if patch.EndTime != nil {
		t.EndTime = patch.EndTime
	}
	if patch.Distance != 0 {
		t.Distance = patch.Distance
	}
	if patch.AvgSpeed != 0 {
		t.AvgSpeed = patch.AvgSpeed
	}
	if patch.MaxSpeed != 0 {
		t.MaxSpeed = patch.MaxSpeed
	}
	if patch.Stops != 0 {
		t.Stops = patch.Stops
	}
	if patch.Notes != "" {
		t.Notes = patch.Notes
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET end_time=$2, distance=$3, avg_speed=$4, max_speed=$5, stops=$6, notes=$7
		WHERE id=$1
	`, t.ID, t.EndTime, t.Distance, t.AvgSpeed, t.MaxSpeed, t.Stops, t.Notes)
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return err
}
