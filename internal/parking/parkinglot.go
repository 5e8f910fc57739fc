package parking

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// NotFound is returned by position lookups that match nothing.
const NotFound = -1

var ErrNoAttendant = errors.New("parking lot has no attendant")

// Lot is a single parking lot with a fixed capacity. Occupied slots are kept
// in arrival order; a vehicle's slot number is its 1-based index in that order.
//
// A Lot is safe for concurrent use. Observers are called after the lot's lock
// is released, so they may query the lot.
type Lot struct {
	mu            sync.Mutex
	id            string
	capacity      int
	vehicles      []*Vehicle
	largeVehicles int

	owner     LotObserver
	security  FullObserver
	attendant PositionParker
	clock     clock.PassiveClock
}

type LotOption func(*Lot)

func WithOwner(owner LotObserver) LotOption {
	return func(l *Lot) { l.owner = owner }
}

func WithSecurity(security FullObserver) LotOption {
	return func(l *Lot) { l.security = security }
}

func WithAttendant(attendant PositionParker) LotOption {
	return func(l *Lot) { l.attendant = attendant }
}

func WithClock(c clock.PassiveClock) LotOption {
	return func(l *Lot) { l.clock = c }
}

func NewLot(capacity int, opts ...LotOption) *Lot {
	l := &Lot{
		id:       uuid.NewString(),
		capacity: capacity,
		vehicles: make([]*Vehicle, 0, max(capacity, 0)),
		owner:    NopObserver{},
		security: NopObserver{},
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lot) ID() string {
	return l.id
}

func (l *Lot) Capacity() int {
	return l.capacity
}

// SetAttendant replaces the attendant used by ParkWithAttendant.
func (l *Lot) SetAttendant(attendant PositionParker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attendant = attendant
}

// Park appends v to the end of the lot. When the lot is full both the owner
// and security are notified and false is returned.
func (l *Lot) Park(v *Vehicle) bool {
	l.mu.Lock()
	if len(l.vehicles) >= l.capacity {
		l.mu.Unlock()
		l.owner.LotFull(l)
		l.security.LotFull(l)
		return false
	}
	v.markParked(l.clock.Now())
	l.vehicles = append(l.vehicles, v)
	l.mu.Unlock()
	return true
}

// ParkAt inserts v at the 1-based position, shifting later vehicles back one
// slot. Valid positions are 1 through Count()+1, and the lot must not be full.
// No observer is notified.
func (l *Lot) ParkAt(v *Vehicle, position int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.vehicles) >= l.capacity {
		return false
	}
	if position < 1 || position > len(l.vehicles)+1 {
		return false
	}
	v.markParked(l.clock.Now())
	l.vehicles = slices.Insert(l.vehicles, position-1, v)
	return true
}

// ParkWithAttendant asks the lot's attendant to place v at position. The owner
// is told the lot is full when the attendant cannot place it.
func (l *Lot) ParkWithAttendant(v *Vehicle, position int) (bool, error) {
	l.mu.Lock()
	attendant := l.attendant
	l.mu.Unlock()

	if attendant == nil {
		return false, ErrNoAttendant
	}
	if !attendant.ParkAtPosition(v, position) {
		l.owner.LotFull(l)
		return false, nil
	}
	return true, nil
}

// Unpark removes v from the lot. Vehicles are matched by identity, not by
// registration.
func (l *Lot) Unpark(v *Vehicle) bool {
	l.mu.Lock()
	i := slices.Index(l.vehicles, v)
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	l.vehicles = slices.Delete(l.vehicles, i, i+1)
	v.markUnparked(l.clock.Now())
	l.mu.Unlock()

	l.owner.LotHasSpace(l)
	return true
}

func (l *Lot) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.vehicles)
}

func (l *Lot) FreeSpace() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity - len(l.vehicles)
}

// Contains reports whether this exact vehicle is parked here.
func (l *Lot) Contains(v *Vehicle) bool {
	return l.SlotOf(v) != NotFound
}

// SlotOf returns the 1-based slot number of v, or NotFound.
func (l *Lot) SlotOf(v *Vehicle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := slices.Index(l.vehicles, v); i >= 0 {
		return i + 1
	}
	return NotFound
}

// PositionOf returns the 1-based slot of the first vehicle with the given
// registration, or NotFound.
func (l *Lot) PositionOf(registration string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, v := range l.vehicles {
		if v.Registration == registration {
			return i + 1
		}
	}
	return NotFound
}

func (l *Lot) LargeVehicles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.largeVehicles
}

func (l *Lot) SetLargeVehicles(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.largeVehicles = n
}

// Duration returns how long v stayed in its last completed parking cycle.
// ok is false while the vehicle is still parked or has never been parked.
func (l *Lot) Duration(v *Vehicle) (d time.Duration, ok bool) {
	parkedAt, parked := v.ParkedAt()
	unparkedAt, unparked := v.UnparkedAt()
	if !parked || !unparked {
		return 0, false
	}
	return unparkedAt.Sub(parkedAt), true
}

// Vehicles returns the parked vehicles in slot order.
func (l *Lot) Vehicles() []*Vehicle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.vehicles)
}
