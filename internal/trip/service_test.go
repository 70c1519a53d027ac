package trip

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func tripRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "vehicle_id", "start_time", "end_time", "distance", "avg_speed",
		"max_speed", "stops", "notes", "destination_lat", "destination_lng",
		"destination_name", "arrival_status", "arrival_time",
	})
}

func TestCreateSetsArrivalStatus(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	start := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO trips`).
		WithArgs(pgxmock.AnyArg(), "veh-1", start, pgxmock.AnyArg(), 0.0, 0.0, 0.0, 0, "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "Warehouse", ArrivalInProgress).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := svc.Create(context.Background(), Trip{
		VehicleID:       "veh-1",
		StartTime:       start,
		DestinationLat:  ptr(24.7),
		DestinationLng:  ptr(46.6),
		DestinationName: "Warehouse",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ArrivalStatus != ArrivalInProgress {
		t.Fatalf("destination present should mean in_progress")
	}

	mock.ExpectExec(`INSERT INTO trips`).
		WithArgs(pgxmock.AnyArg(), "veh-1", start, pgxmock.AnyArg(), 0.0, 0.0, 0.0, 0, "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "", ArrivalNotSet).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err = svc.Create(context.Background(), Trip{VehicleID: "veh-1", StartTime: start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ArrivalStatus != ArrivalNotSet {
		t.Fatalf("no destination should mean not_set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkArrivalsPersistsTransition(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	destLat, destLng := 24.7136, 46.6753

	mock.ExpectQuery(`SELECT .+ FROM trips WHERE vehicle_id=\$1 AND end_time IS NULL`).
		WithArgs("veh-1").
		WillReturnRows(tripRows().
			AddRow("trip-1", "veh-1", at.Add(-time.Hour), nil, 12.5, 38.0, 70.0, 1, "",
				&destLat, &destLng, "Depot", ArrivalInProgress, nil).
			AddRow("trip-2", "veh-1", at.Add(-2*time.Hour), nil, 0.0, 0.0, 0.0, 0, "",
				nil, nil, "", ArrivalNotSet, nil))

	mock.ExpectExec(`UPDATE trips SET arrival_status`).
		WithArgs("trip-1", ArrivalArrived, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	arrived, err := svc.MarkArrivals(context.Background(), "veh-1", 24.7140, 46.6753, at)
	if err != nil {
		t.Fatalf("mark arrivals: %v", err)
	}
	if len(arrived) != 1 || arrived[0].ID != "trip-1" {
		t.Fatalf("expected trip-1 to arrive, got %+v", arrived)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkArrivalsNoOpenTrips(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT .+ FROM trips WHERE vehicle_id=\$1 AND end_time IS NULL`).
		WithArgs("veh-1").
		WillReturnRows(tripRows())

	arrived, err := svc.MarkArrivals(context.Background(), "veh-1", 24.7, 46.6, time.Now())
	if err != nil {
		t.Fatalf("mark arrivals: %v", err)
	}
	if len(arrived) != 0 {
		t.Fatalf("expected no arrivals")
	}
}

func TestListFilters(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM trips WHERE vehicle_id=\$1 AND start_time >= \$2 AND start_time <= \$3`).
		WithArgs("veh-1", from, to).
		WillReturnRows(tripRows().
			AddRow("trip-1", "veh-1", from.Add(24*time.Hour), nil, 5.0, 30.0, 60.0, 0, "",
				nil, nil, "", ArrivalNotSet, nil))

	trips, err := svc.List(context.Background(), "veh-1", from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected one trip")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
