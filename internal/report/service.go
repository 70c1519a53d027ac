package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Tah5721312/gps-tracking/internal/db"
	"github.com/Tah5721312/gps-tracking/internal/vehicle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const reportColumns = `id, vehicle_id, date, total_distance, total_duration, total_stopped_time,
		total_moving_time, max_speed, avg_speed, number_of_stops, longest_stop,
		first_movement, last_movement, start_lat, start_lng, end_lat, end_lng`

func scanReport(row pgx.Row) (DailyReport, error) {
	var r DailyReport
	err := row.Scan(&r.ID, &r.VehicleID, &r.Date, &r.TotalDistance, &r.TotalDuration, &r.TotalStoppedTime,
		&r.TotalMovingTime, &r.MaxSpeed, &r.AvgSpeed, &r.NumberOfStops, &r.LongestStop,
		&r.FirstMovement, &r.LastMovement, &r.StartLat, &r.StartLng, &r.EndLat, &r.EndLng)
	return r, err
}

func (s *Service) samplesForDay(ctx context.Context, vehicleID string, date time.Time) ([]vehicle.Sample, error) {
	start := dateOnly(date)
	end := start.Add(24*time.Hour - time.Millisecond)

	rows, err := s.db.Query(ctx, `
		SELECT id, vehicle_id, latitude, longitude, speed, battery_level, timestamp
		FROM tracking_points
		WHERE vehicle_id=$1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp
	`, vehicleID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []vehicle.Sample
	for rows.Next() {
		var p vehicle.Sample
		if err := rows.Scan(&p.ID, &p.VehicleID, &p.Latitude, &p.Longitude, &p.Speed, &p.BatteryLevel, &p.Timestamp); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	return samples, rows.Err()
}

// EnsureReport recomputes the report for one vehicle-day from its samples and
// upserts it. A day with no samples yields (nil, nil): no row is written and
// no error is raised. The upsert fully replaces every computed field, keyed
// on the (vehicle_id, date) unique constraint, so concurrent regenerations
// cannot interleave partial writes.
func (s *Service) EnsureReport(ctx context.Context, vehicleID string, date time.Time) (*DailyReport, error) {
	samples, err := s.samplesForDay(ctx, vehicleID, date)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	r := Aggregate(vehicleID, date, samples)

	err = s.db.QueryRow(ctx, `
		INSERT INTO daily_reports (id, vehicle_id, date, total_distance, total_duration, total_stopped_time,
		                           total_moving_time, max_speed, avg_speed, number_of_stops, longest_stop,
		                           first_movement, last_movement, start_lat, start_lng, end_lat, end_lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (vehicle_id, date) DO UPDATE SET
			total_distance=EXCLUDED.total_distance, total_duration=EXCLUDED.total_duration,
			total_stopped_time=EXCLUDED.total_stopped_time, total_moving_time=EXCLUDED.total_moving_time,
			max_speed=EXCLUDED.max_speed, avg_speed=EXCLUDED.avg_speed,
			number_of_stops=EXCLUDED.number_of_stops, longest_stop=EXCLUDED.longest_stop,
			first_movement=EXCLUDED.first_movement, last_movement=EXCLUDED.last_movement,
			start_lat=EXCLUDED.start_lat, start_lng=EXCLUDED.start_lng,
			end_lat=EXCLUDED.end_lat, end_lng=EXCLUDED.end_lng
		RETURNING id
	`, uuid.NewString(), r.VehicleID, r.Date, r.TotalDistance, r.TotalDuration, r.TotalStoppedTime,
		r.TotalMovingTime, r.MaxSpeed, r.AvgSpeed, r.NumberOfStops, r.LongestStop,
		r.FirstMovement, r.LastMovement, r.StartLat, r.StartLng, r.EndLat, r.EndLng).Scan(&r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Regenerate forces a recompute for one vehicle-day, overwriting any existing
// report. It returns nil when the day has no samples.
func (s *Service) Regenerate(ctx context.Context, vehicleID string, date time.Time) (*DailyReport, error) {
	return s.EnsureReport(ctx, vehicleID, date)
}

func (s *Service) FindExisting(ctx context.Context, vehicleID string, date time.Time) (*DailyReport, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM daily_reports WHERE vehicle_id=$1 AND date=$2
	`, vehicleID, dateOnly(date))
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns stored reports newest first, optionally filtered by vehicle
// and date range. It never triggers aggregation.
func (s *Service) List(ctx context.Context, vehicleID string, from, to time.Time) ([]DailyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM daily_reports`
	var args []any
	where := ""
	if vehicleID != "" {
		args = append(args, vehicleID)
		where = ` WHERE vehicle_id=$1`
	}
	if !from.IsZero() && !to.IsZero() {
		if where == "" {
			where = ` WHERE date >= $1 AND date <= $2`
		} else {
			where += ` AND date >= $2 AND date <= $3`
		}
		args = append(args, dateOnly(from), dateOnly(to))
	}

	rows, err := s.db.Query(ctx, query+where+` ORDER BY date DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []DailyReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Service) vehicleIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM vehicles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EnsureRange lists reports for the range, backfilling any vehicle-day that
// has samples but no stored report. Days that already have a report are
// left untouched even if new samples have since arrived for them; only an
// explicit Regenerate refreshes a stale report. vehicleID "" means every
// vehicle.
func (s *Service) EnsureRange(ctx context.Context, vehicleID string, from, to time.Time) ([]DailyReport, error) {
	reports, err := s.List(ctx, vehicleID, from, to)
	if err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return reports, nil
	}

	ids := []string{vehicleID}
	if vehicleID == "" {
		ids, err = s.vehicleIDs(ctx)
		if err != nil {
			return nil, err
		}
	}

	existing := map[string]struct{}{}
	for _, r := range reports {
		existing[r.VehicleID+"|"+r.Date.Format("2006-01-02")] = struct{}{}
	}

	for _, id := range ids {
		for day := dateOnly(from); !day.After(dateOnly(to)); day = day.AddDate(0, 0, 1) {
			if _, ok := existing[id+"|"+day.Format("2006-01-02")]; ok {
				continue
			}
			r, err := s.EnsureReport(ctx, id, day)
			if err != nil {
				return nil, err
			}
			if r != nil {
				reports = append(reports, *r)
			}
		}
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Date.After(reports[j].Date) })
	return reports, nil
}

// Summarize rolls a report listing up into the stats block.
func Summarize(reports []DailyReport) Stats {
	var st Stats
	st.TotalTrips = len(reports)
	for _, r := range reports {
		st.TotalDistance += r.TotalDistance
		st.TotalStops += r.NumberOfStops
		st.AvgSpeed += r.AvgSpeed
	}
	if len(reports) > 0 {
		st.AvgSpeed = round2(st.AvgSpeed / float64(len(reports)))
	}
	st.TotalDistance = round2(st.TotalDistance)
	return st
}
