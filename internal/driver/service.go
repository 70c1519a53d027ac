package driver

import (
	"context"
	"errors"

	"github.com/Tah5721312/gps-tracking/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound        = errors.New("driver not found")
	ErrPhoneTaken      = errors.New("phone already registered")
	ErrNationalIDTaken = errors.New("national id already registered")
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const driverColumns = `id, name, phone, COALESCE(address,''), COALESCE(national_id,''),
		COALESCE(province,''), birth_date, COALESCE(notes,''), created_at`

func scanDriver(row pgx.Row) (Driver, error) {
	var d Driver
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Address, &d.NationalID,
		&d.Province, &d.BirthDate, &d.Notes, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Driver{}, ErrNotFound
		}
		return Driver{}, err
	}
	return d, nil
}

// phoneInUse reports whether another driver (excluding excludeID) already
// holds the phone number.
func (s *Service) phoneInUse(ctx context.Context, phone, excludeID string) (bool, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM drivers WHERE phone=$1 AND id <> $2`, phone, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) nationalIDInUse(ctx context.Context, nationalID, excludeID string) (bool, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM drivers WHERE national_id=$1 AND id <> $2`, nationalID, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Create(ctx context.Context, input Driver) (Driver, error) {
	if taken, err := s.phoneInUse(ctx, input.Phone, ""); err != nil {
		return Driver{}, err
	} else if taken {
		return Driver{}, ErrPhoneTaken
	}
	if input.NationalID != "" {
		if taken, err := s.nationalIDInUse(ctx, input.NationalID, ""); err != nil {
			return Driver{}, err
		} else if taken {
			return Driver{}, ErrNationalIDTaken
		}
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO drivers (id, name, phone, address, national_id, province, birth_date, notes)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.Name, input.Phone, input.Address, input.NationalID,
		input.Province, input.BirthDate, input.Notes)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Driver{}, err
	}
	input.Vehicles = []VehicleRef{}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+driverColumns+`
		FROM drivers WHERE id=$1
	`, id)
	d, err := scanDriver(row)
	if err != nil {
		return Driver{}, err
	}
	d.Vehicles, err = s.loadVehicles(ctx, d.ID)
	if err != nil {
		return Driver{}, err
	}
	return d, nil
}

// List returns drivers newest first. A non-empty search matches name, phone
// or national id, case-insensitively.
func (s *Service) List(ctx context.Context, search string) ([]Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers`
	var args []any
	if search != "" {
		query += ` WHERE name ILIKE $1 OR phone ILIKE $1 OR national_id ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	rows, err := s.db.Query(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range drivers {
		drivers[i].Vehicles, err = s.loadVehicles(ctx, drivers[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return drivers, nil
}

func (s *Service) loadVehicles(ctx context.Context, driverID string) ([]VehicleRef, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, plate_number FROM vehicles WHERE driver_id=$1
	`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []VehicleRef{}
	for rows.Next() {
		var v VehicleRef
		if err := rows.Scan(&v.ID, &v.Name, &v.PlateNumber); err != nil {
			return nil, err
		}
		refs = append(refs, v)
	}
	return refs, rows.Err()
}

// Update patches a driver. Zero-valued fields are left untouched, and
// uniqueness is re-checked only for values that actually change.
func (s *Service) Update(ctx context.Context, id string, patch Driver) (Driver, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return Driver{}, err
	}

	if patch.Phone != "" && patch.Phone != d.Phone {
		if taken, err := s.phoneInUse(ctx, patch.Phone, id); err != nil {
			return Driver{}, err
		} else if taken {
			return Driver{}, ErrPhoneTaken
		}
		d.Phone = patch.Phone
	}
	if patch.NationalID != "" && patch.NationalID != d.NationalID {
		if taken, err := s.nationalIDInUse(ctx, patch.NationalID, id); err != nil {
			return Driver{}, err
		} else if taken {
			return Driver{}, ErrNationalIDTaken
		}
		d.NationalID = patch.NationalID
	}
	if patch.Name != "" {
		d.Name = patch.Name
	}
	if patch.Address != "" {
		d.Address = patch.Address
	}
	if patch.Province != "" {
		d.Province = patch.Province
	}
	if patch.BirthDate != nil {
		d.BirthDate = patch.BirthDate
	}
	if patch.Notes != "" {
		d.Notes = patch.Notes
	}

	_, err = s.db.Exec(ctx, `
		UPDATE drivers
		SET name=$2, phone=$3, address=$4, national_id=NULLIF($5,''), province=$6, birth_date=$7, notes=$8
		WHERE id=$1
	`, d.ID, d.Name, d.Phone, d.Address, d.NationalID, d.Province, d.BirthDate, d.Notes)
	if err != nil {
		return Driver{}, err
	}
	return d, nil
}

// Delete removes a driver after unassigning their vehicles, so vehicle rows
// never point at a missing driver.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `UPDATE vehicles SET driver_id=NULL WHERE driver_id=$1`, id); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM drivers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
