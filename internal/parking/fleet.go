package parking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"
)

type Strategy string

const (
	StrategyDirect     Strategy = "direct"
	StrategyPosition   Strategy = "position"
	StrategyRoundRobin Strategy = "round_robin"
	StrategyHandicap   Strategy = "handicap"
	StrategyLarge      Strategy = "large"
)

var (
	ErrLotFull         = errors.New("parking lot is full")
	ErrLotNotFound     = errors.New("parking lot not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrAlreadyParked   = errors.New("vehicle is already parked")
	ErrInvalidVehicle  = errors.New("registration is required")
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")
	ErrInvalidPosition = errors.New("invalid slot position")
	ErrUnknownStrategy = errors.New("unknown parking strategy")
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyDirect, StrategyPosition, StrategyRoundRobin, StrategyHandicap, StrategyLarge:
		return st, nil
	case "":
		return StrategyRoundRobin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

type ParkRequest struct {
	Strategy Strategy
	// Lot is the 1-based lot number used by StrategyDirect.
	Lot int
	// Position is the 1-based slot used by StrategyPosition.
	Position int
	Vehicle  *Vehicle
}

type ParkResult struct {
	Lot           int
	Slot          int
	Count         int
	LargeVehicles int
}

type LeaveResult struct {
	Lot      int
	Slot     int
	Vehicle  *Vehicle
	Duration time.Duration
}

type Location struct {
	Lot     int
	Slot    int
	Vehicle *Vehicle
}

type LotStatus struct {
	Number        int
	ID            string
	Capacity      int
	Occupied      int
	Free          int
	LargeVehicles int
	Slots         []Slot
}

// Criteria selects vehicles by attribute. Empty fields match anything.
type Criteria struct {
	Make  string
	Model string
	Color string
}

func (c Criteria) match(v *Vehicle) bool {
	return (c.Make == "" || v.HasMake(c.Make)) &&
		(c.Model == "" || v.HasModel(c.Model)) &&
		(c.Color == "" || v.HasColor(c.Color))
}

// Fleet is the instrumented entry point shared by the shell and the HTTP
// server. It numbers lots from 1 in creation order, lets one attendant manage
// all of them and keeps an index of parked registrations.
type Fleet struct {
	mu        sync.Mutex
	telemetry *TelemetryProvider
	lots      []*Lot
	attendant *Attendant
	parked    map[string]*Vehicle
	owner     LotObserver
	security  FullObserver
	clock     clock.PassiveClock

	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
	notifications     metric.Int64Counter
}

type FleetOption func(*Fleet)

func WithFleetObservers(owner LotObserver, security FullObserver) FleetOption {
	return func(f *Fleet) {
		f.owner = owner
		f.security = security
	}
}

func WithFleetClock(c clock.PassiveClock) FleetOption {
	return func(f *Fleet) { f.clock = c }
}

func WithAttendantName(name string) FleetOption {
	return func(f *Fleet) { f.attendant = NewAttendant(name) }
}

func NewFleet(telemetry *TelemetryProvider, opts ...FleetOption) (*Fleet, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of leaving operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_fleet_occupancy",
		metric.WithDescription("Current number of occupied parking slots across the fleet"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking fleet operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_fleet_total_slots",
		metric.WithDescription("Total number of parking slots across the fleet"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter("parking_lot_notifications_total",
		metric.WithDescription("Notifications sent to lot owners and security"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	f := &Fleet{
		telemetry:         telemetry,
		attendant:         NewAttendant("attendant"),
		parked:            make(map[string]*Vehicle),
		owner:             NopObserver{},
		security:          NopObserver{},
		clock:             clock.RealClock{},
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
		notifications:     notifications,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Fleet) Attendant() *Attendant {
	return f.attendant
}

// AddLot creates a lot with the given capacity, numbered after the existing
// ones. The attendant's round-robin cursor restarts at the first lot.
func (f *Fleet) AddLot(ctx context.Context, capacity int) (LotStatus, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.add_lot",
		trace.WithAttributes(attribute.Int("parking_lot.capacity", capacity)))
	defer span.End()

	if capacity <= 0 {
		err := fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return LotStatus{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	lot := NewLot(capacity,
		WithOwner(meteredObserver{role: "owner", full: f.owner, space: f.owner, counter: f.notifications}),
		WithSecurity(meteredObserver{role: "security", full: f.security, counter: f.notifications}),
		WithClock(f.clock),
		WithAttendant(f.attendant),
	)
	f.lots = append(f.lots, lot)
	f.attendant.SetLots(f.lots)
	f.totalSlotsGauge.Add(ctx, int64(capacity))

	span.SetAttributes(
		attribute.Int("parking_lot.number", len(f.lots)),
		attribute.String("parking_lot.id", lot.ID()),
	)
	span.AddEvent("parking_lot_created")

	return lotStatus(len(f.lots), lot), nil
}

// Lot returns the lot with the given 1-based number.
func (f *Fleet) Lot(number int) (*Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lot(number)
}

func (f *Fleet) lot(number int) (*Lot, error) {
	if number < 1 || number > len(f.lots) {
		return nil, fmt.Errorf("%w: %d", ErrLotNotFound, number)
	}
	return f.lots[number-1], nil
}

func (f *Fleet) Park(ctx context.Context, req ParkRequest) (ParkResult, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.park",
		trace.WithAttributes(
			attribute.String("parking.strategy", string(req.Strategy)),
		))
	defer span.End()

	start := time.Now()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("strategy", string(req.Strategy)),
	}
	if req.Vehicle != nil {
		span.SetAttributes(
			attribute.String("vehicle.registration_number", req.Vehicle.Registration),
			attribute.String("vehicle.color", req.Vehicle.Color),
		)
	}

	span.AddEvent("finding_available_slot")

	result, err := f.park(req)

	duration := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int("parking_lot.number", result.Lot),
			attribute.Int("allocated_slot_number", result.Slot),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_number", result.Slot),
		))
		f.occupancyGauge.Add(ctx, 1)
	}

	f.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (f *Fleet) park(req ParkRequest) (ParkResult, error) {
	v := req.Vehicle
	if v == nil || v.Registration == "" {
		return ParkResult{}, ErrInvalidVehicle
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.parked[v.Registration]; ok {
		return ParkResult{}, fmt.Errorf("%w: %s", ErrAlreadyParked, v.Registration)
	}
	if len(f.lots) == 0 {
		return ParkResult{}, ErrNoLots
	}

	var err error
	switch req.Strategy {
	case StrategyDirect:
		var lot *Lot
		if lot, err = f.lot(req.Lot); err != nil {
			return ParkResult{}, err
		}
		lot.Park(v)
	case StrategyPosition:
		first := f.lots[0]
		if position := req.Position; position < 1 || position > first.Count()+1 {
			return ParkResult{}, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
		}
		_, err = first.ParkWithAttendant(v, req.Position)
	case StrategyRoundRobin:
		_, err = f.attendant.ParkRoundRobin(v)
	case StrategyHandicap:
		_, err = f.attendant.ParkNearest(v)
	case StrategyLarge:
		_, err = f.attendant.ParkLarge(v)
	default:
		return ParkResult{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}
	if err != nil {
		return ParkResult{}, err
	}

	loc, ok := f.locate(v)
	if !ok {
		return ParkResult{}, fmt.Errorf("%w: cannot park %s", ErrLotFull, v.Registration)
	}
	if req.Strategy != StrategyDirect && v.Attendant == "" {
		v.Attendant = f.attendant.Name()
	}
	f.parked[v.Registration] = v

	lot := f.lots[loc.Lot-1]
	return ParkResult{
		Lot:           loc.Lot,
		Slot:          loc.Slot,
		Count:         lot.Count(),
		LargeVehicles: lot.LargeVehicles(),
	}, nil
}

// locate must be called with f.mu held.
func (f *Fleet) locate(v *Vehicle) (Location, bool) {
	for i, lot := range f.lots {
		if slot := lot.SlotOf(v); slot != NotFound {
			return Location{Lot: i + 1, Slot: slot, Vehicle: v}, true
		}
	}
	return Location{}, false
}

func (f *Fleet) Leave(ctx context.Context, registration string) (LeaveResult, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.leave",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", registration),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_slot")

	result, err := f.leave(registration)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "leave"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int("parking_lot.number", result.Lot),
			attribute.Int("slot_number", result.Slot),
			attribute.Float64("parking.duration_seconds", result.Duration.Seconds()),
		)
		span.AddEvent("slot_released")
		f.occupancyGauge.Add(ctx, -1)
	}

	f.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (f *Fleet) leave(registration string) (LeaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.parked[registration]
	if !ok {
		return LeaveResult{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, registration)
	}
	loc, ok := f.locate(v)
	if !ok {
		delete(f.parked, registration)
		return LeaveResult{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, registration)
	}

	lot := f.lots[loc.Lot-1]
	lot.Unpark(v)
	delete(f.parked, registration)

	d, _ := lot.Duration(v)
	return LeaveResult{
		Lot:      loc.Lot,
		Slot:     loc.Slot,
		Vehicle:  v,
		Duration: d,
	}, nil
}

// Find returns where the first vehicle with the given registration is
// parked, searching lots in order.
func (f *Fleet) Find(ctx context.Context, registration string) (Location, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.find",
		trace.WithAttributes(
			attribute.String("registration_number", registration),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("searching_by_registration")

	f.mu.Lock()
	loc, err := f.find(registration)
	f.mu.Unlock()

	labels := []attribute.KeyValue{
		attribute.String("operation", "find"),
	}

	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("parking_lot.number", loc.Lot),
			attribute.Int("slot_number", loc.Slot),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return loc, err
}

func (f *Fleet) find(registration string) (Location, error) {
	for i, lot := range f.lots {
		if slot := lot.PositionOf(registration); slot != NotFound {
			return Location{Lot: i + 1, Slot: slot, Vehicle: lot.Vehicles()[slot-1]}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, registration)
}

// Search returns matching vehicles ordered by lot, then by slot.
func (f *Fleet) Search(ctx context.Context, criteria Criteria) []Location {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.search",
		trace.WithAttributes(
			attribute.String("vehicle.make", criteria.Make),
			attribute.String("vehicle.model", criteria.Model),
			attribute.String("vehicle.color", criteria.Color),
		))
	defer span.End()

	start := time.Now()

	f.mu.Lock()
	var locations []Location
	for i, lot := range f.lots {
		for _, s := range lot.Find(criteria.match) {
			locations = append(locations, Location{Lot: i + 1, Slot: s.Number, Vehicle: s.Vehicle})
		}
	}
	f.mu.Unlock()

	span.SetAttributes(attribute.Int("results_count", len(locations)))

	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "search"),
		attribute.String("status", "success"),
	))

	return locations
}

func (f *Fleet) Status(ctx context.Context) []LotStatus {
	ctx, span := f.telemetry.Tracer().Start(ctx, "fleet.get_status")
	defer span.End()

	start := time.Now()

	span.AddEvent("retrieving_status")

	f.mu.Lock()
	statuses := make([]LotStatus, len(f.lots))
	occupied, capacity := 0, 0
	for i, lot := range f.lots {
		statuses[i] = lotStatus(i+1, lot)
		occupied += statuses[i].Occupied
		capacity += statuses[i].Capacity
	}
	f.mu.Unlock()

	span.SetAttributes(
		attribute.Int("lots_count", len(statuses)),
		attribute.Int("occupied_slots_count", occupied),
		attribute.Int("total_capacity", capacity),
	)

	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "get_status"),
		attribute.String("status", "success"),
	))

	return statuses
}

// AttendantParked lists the vehicles the attendant placed by round-robin or
// handicap parking.
func (f *Fleet) AttendantParked(ctx context.Context) []*Vehicle {
	_, span := f.telemetry.Tracer().Start(ctx, "fleet.attendant_parked")
	defer span.End()

	parked := f.attendant.Parked()
	span.SetAttributes(attribute.Int("parked_count", len(parked)))
	return parked
}

func lotStatus(number int, lot *Lot) LotStatus {
	slots := lot.Slots()
	return LotStatus{
		Number:        number,
		ID:            lot.ID(),
		Capacity:      lot.Capacity(),
		Occupied:      len(slots),
		Free:          lot.Capacity() - len(slots),
		LargeVehicles: lot.LargeVehicles(),
		Slots:         slots,
	}
}

// meteredObserver counts notifications before passing them on. space is nil
// for observers that only care about full lots.
type meteredObserver struct {
	role    string
	full    FullObserver
	space   LotObserver
	counter metric.Int64Counter
}

func (o meteredObserver) LotFull(lot *Lot) {
	o.counter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("role", o.role),
		attribute.String("kind", "full"),
	))
	o.full.LotFull(lot)
}

func (o meteredObserver) LotHasSpace(lot *Lot) {
	if o.space == nil {
		return
	}
	o.counter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("role", o.role),
		attribute.String("kind", "space_available"),
	))
	o.space.LotHasSpace(lot)
}
