package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/Tah5721312/gps-tracking/internal/db"
	"github.com/Tah5721312/gps-tracking/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("vehicle not found")

type Service struct {
	db    db.Querier
	cache *Cache
	hub   *stream.Hub
	locks keyedLocks
}

func NewService(querier db.Querier, cache *Cache, hub *stream.Hub) *Service {
	return &Service{db: querier, cache: cache, hub: hub}
}

const vehicleColumns = `id, name, plate_number, device_imei, COALESCE(driver_name,''), COALESCE(driver_phone,''),
		status, COALESCE(last_latitude,0), COALESCE(last_longitude,0), COALESCE(last_speed,0),
		last_update, stopped_at, COALESCE(total_stopped_time,0), created_at`

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	var lastUpdate, stoppedAt *time.Time
	err := row.Scan(&v.ID, &v.Name, &v.PlateNumber, &v.DeviceIMEI, &v.DriverName, &v.DriverPhone,
		&v.Status, &v.LastLatitude, &v.LastLongitude, &v.LastSpeed,
		&lastUpdate, &stoppedAt, &v.TotalStoppedTime, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, ErrNotFound
		}
		return Vehicle{}, err
	}
	if lastUpdate != nil {
		v.LastUpdate = *lastUpdate
	}
	v.StoppedAt = stoppedAt
	return v, nil
}

func (s *Service) FindByIMEI(ctx context.Context, imei string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles WHERE device_imei=$1
	`, imei)
	return scanVehicle(row)
}

func (s *Service) Get(ctx context.Context, id string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles WHERE id=$1
	`, id)
	return scanVehicle(row)
}

// Ingest appends the sample and advances the vehicle's live state. The
// read-then-write sequence runs under a per-vehicle lock so concurrent
// samples for one vehicle cannot lose stopped-time updates.
func (s *Service) Ingest(ctx context.Context, vehicleID string, sample *Sample) (State, bool, error) {
	unlock := s.locks.lock(vehicleID)
	defer unlock()

	row := s.db.QueryRow(ctx, `
		SELECT status, COALESCE(last_latitude,0), COALESCE(last_longitude,0), COALESCE(last_speed,0),
		       last_update, stopped_at, COALESCE(total_stopped_time,0)
		FROM vehicles WHERE id=$1
	`, vehicleID)

	var prev State
	var lastUpdate, stoppedAt *time.Time
	err := row.Scan(&prev.Status, &prev.LastLatitude, &prev.LastLongitude, &prev.LastSpeed,
		&lastUpdate, &stoppedAt, &prev.TotalStoppedTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, false, ErrNotFound
		}
		return State{}, false, err
	}
	if lastUpdate != nil {
		prev.LastUpdate = *lastUpdate
	}
	prev.StoppedAt = stoppedAt

	next, stopClosed := NextState(prev, *sample)

	sample.VehicleID = vehicleID
	err = s.db.QueryRow(ctx, `
		INSERT INTO tracking_points (vehicle_id, latitude, longitude, speed, battery_level, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, vehicleID, sample.Latitude, sample.Longitude, sample.Speed, sample.BatteryLevel, sample.Timestamp).Scan(&sample.ID)
	if err != nil {
		return State{}, false, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE vehicles
		SET last_latitude=$2, last_longitude=$3, last_speed=$4, status=$5,
		    last_update=$6, stopped_at=$7, total_stopped_time=$8
		WHERE id=$1
	`, vehicleID, next.LastLatitude, next.LastLongitude, next.LastSpeed, next.Status,
		next.LastUpdate, next.StoppedAt, next.TotalStoppedTime)
	if err != nil {
		return State{}, false, err
	}

	s.cache.Set(ctx, vehicleID, next)
	if s.hub != nil {
		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("broadcast marshal error for vehicle %s: %v", vehicleID, err)
		} else {
			s.hub.Broadcast(vehicleID, payload)
		}
	}
	return next, stopClosed, nil
}

// DisplayState returns the live state with the powered-off overlay applied.
// When staleness changes the effective status, the stored row is updated so
// later readers agree (lazy transition, no background sweep). The
// read-derive-persist sequence holds the same per-vehicle lock as Ingest:
// without it, an overlay derived from a pre-sample read could land after a
// fresh sample and clobber its status. The row is read again under the lock
// so the decision is made on current data.
func (s *Service) DisplayState(ctx context.Context, vehicleID string, now time.Time) (State, error) {
	if st, ok := s.cache.Get(ctx, vehicleID); ok {
		if DeriveDisplayStatus(st, now) == st.Status {
			return st, nil
		}
	}

	unlock := s.locks.lock(vehicleID)
	defer unlock()

	v, err := s.Get(ctx, vehicleID)
	if err != nil {
		return State{}, err
	}
	st := v.State
	if derived := DeriveDisplayStatus(st, now); derived != st.Status {
		// powered-off discards the open stop interval, keeping stopped_at
		// null whenever status is not stopped
		if _, err := s.db.Exec(ctx, `UPDATE vehicles SET status=$2, stopped_at=NULL WHERE id=$1`, vehicleID, derived); err != nil {
			return State{}, err
		}
		st.Status = derived
		st.StoppedAt = nil
	}
	s.cache.Set(ctx, vehicleID, st)
	return st, nil
}

func (s *Service) List(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range vehicles {
		last, err := s.lastSample(ctx, vehicles[i].ID)
		if err != nil {
			return nil, err
		}
		vehicles[i].LastSample = last
	}
	return vehicles, nil
}

func (s *Service) lastSample(ctx context.Context, vehicleID string) (*Sample, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, vehicle_id, latitude, longitude, speed, battery_level, timestamp
		FROM tracking_points WHERE vehicle_id=$1
		ORDER BY timestamp DESC LIMIT 1
	`, vehicleID)
	var p Sample
	err := row.Scan(&p.ID, &p.VehicleID, &p.Latitude, &p.Longitude, &p.Speed, &p.BatteryLevel, &p.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, input Vehicle) (Vehicle, error) {
	input.ID = uuid.NewString()
	if input.Status == "" {
		input.Status = StatusPoweredOff
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO vehicles (id, name, plate_number, device_imei, driver_name, driver_phone, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.Name, input.PlateNumber, input.DeviceIMEI, input.DriverName, input.DriverPhone, input.Status)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Vehicle{}, err
	}
	return input, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Vehicle) (Vehicle, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if patch.Name != "" {
		v.Name = patch.Name
	}
	if patch.PlateNumber != "" {
		v.PlateNumber = patch.PlateNumber
	}
	if patch.DeviceIMEI != "" {
		v.DeviceIMEI = patch.DeviceIMEI
	}
	if patch.DriverName != "" {
		v.DriverName = patch.DriverName
	}
	if patch.DriverPhone != "" {
		v.DriverPhone = patch.DriverPhone
	}

	_, err = s.db.Exec(ctx, `
		UPDATE vehicles
		SET name=$2, plate_number=$3, device_imei=$4, driver_name=$5, driver_phone=$6
		WHERE id=$1
	`, v.ID, v.Name, v.PlateNumber, v.DeviceIMEI, v.DriverName, v.DriverPhone)
	if err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// Delete removes the vehicle and everything hanging off it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM tracking_points WHERE vehicle_id=$1`, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM trips WHERE vehicle_id=$1`, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM daily_reports WHERE vehicle_id=$1`, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// Samples returns recent tracking points, newest first.
func (s *Service) Samples(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows pgx.Rows
	var err error
	if !from.IsZero() && !to.IsZero() {
		rows, err = s.db.Query(ctx, `
			SELECT id, vehicle_id, latitude, longitude, speed, battery_level, timestamp
			FROM tracking_points
			WHERE vehicle_id=$1 AND timestamp >= $2 AND timestamp <= $3
			ORDER BY timestamp DESC LIMIT $4
		`, vehicleID, from, to, limit)
	} else {
		rows, err = s.db.Query(ctx, `
			SELECT id, vehicle_id, latitude, longitude, speed, battery_level, timestamp
			FROM tracking_points
			WHERE vehicle_id=$1
			ORDER BY timestamp DESC LIMIT $2
		`, vehicleID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Sample
	for rows.Next() {
		var p Sample
		if err := rows.Scan(&p.ID, &p.VehicleID, &p.Latitude, &p.Longitude, &p.Speed, &p.BatteryLevel, &p.Timestamp); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ActivitySummary buckets the last `days` days of samples by calendar day,
// reporting first/last timestamps and how many points showed any speed.
func (s *Service) ActivitySummary(ctx context.Context, vehicleID string, days, limit int) ([]DayActivity, error) {
	if days <= 0 {
		days = 14
	}
	if limit <= 0 {
		limit = 5000
	}
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))

	rows, err := s.db.Query(ctx, `
		SELECT timestamp, speed
		FROM tracking_points
		WHERE vehicle_id=$1 AND timestamp >= $2
		ORDER BY timestamp LIMIT $3
	`, vehicleID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDate := map[string]*DayActivity{}
	for rows.Next() {
		var ts time.Time
		var speed float64
		if err := rows.Scan(&ts, &speed); err != nil {
			return nil, err
		}
		key := ts.UTC().Format("2006-01-02")
		day, ok := byDate[key]
		if !ok {
			day = &DayActivity{Date: key, Start: ts, End: ts}
			byDate[key] = day
		}
		day.Count++
		if speed > 0 {
			day.MovingCount++
		}
		if ts.Before(day.Start) {
			day.Start = ts
		}
		if ts.After(day.End) {
			day.End = ts
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary := make([]DayActivity, 0, len(byDate))
	for _, day := range byDate {
		summary = append(summary, *day)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Date > summary[j].Date })
	return summary, nil
}
