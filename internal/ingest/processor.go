package ingest

import (
	"context"

	"github.com/Tah5721312/gps-tracking/internal/trip"
	"github.com/Tah5721312/gps-tracking/internal/vehicle"
)

// Processor runs one normalized sample through the whole ingestion path:
// resolve the vehicle, advance its live state, then check open trips for
// arrival. HTTP and AMQP ingestion both end up here.
type Processor struct {
	vehicles *vehicle.Service
	trips    *trip.Service
}

func NewProcessor(vehicles *vehicle.Service, trips *trip.Service) *Processor {
	return &Processor{vehicles: vehicles, trips: trips}
}

type Result struct {
	Sample     vehicle.Sample `json:"trackingPoint"`
	State      vehicle.State  `json:"state"`
	StopClosed bool           `json:"stop_closed"`
	Arrivals   []trip.Trip    `json:"arrivals,omitempty"`
}

func (p *Processor) Process(ctx context.Context, in Input) (Result, error) {
	v, err := p.vehicles.FindByIMEI(ctx, in.DeviceIMEI)
	if err != nil {
		return Result{}, err
	}

	sample := vehicle.Sample{
		VehicleID:    v.ID,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Speed:        in.Speed,
		BatteryLevel: in.BatteryLevel,
		Timestamp:    in.Timestamp,
	}

	st, stopClosed, err := p.vehicles.Ingest(ctx, v.ID, &sample)
	if err != nil {
		return Result{}, err
	}

	arrivals, err := p.trips.MarkArrivals(ctx, v.ID, in.Latitude, in.Longitude, in.Timestamp)
	if err != nil {
		return Result{}, err
	}

	return Result{Sample: sample, State: st, StopClosed: stopClosed, Arrivals: arrivals}, nil
}
