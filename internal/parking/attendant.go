package parking

import (
	"context"
	"errors"
	"slices"
	"sync"

	"parking-fleet/internal/logging"
)

var ErrNoLots = errors.New("no parking lots available")

// PositionParker places a vehicle at an explicit slot position.
type PositionParker interface {
	ParkAtPosition(v *Vehicle, position int) bool
}

var _ PositionParker = &Attendant{}

// Attendant distributes vehicles over the lots it manages. The round-robin
// cursor advances on every round-robin or handicap attempt, successful or
// not, so a full lot is only retried after a full cycle through its peers.
type Attendant struct {
	mu     sync.Mutex
	name   string
	lots   []*Lot
	next   int
	parked []*Vehicle
}

func NewAttendant(name string, lots ...*Lot) *Attendant {
	return &Attendant{
		name: name,
		lots: lots,
	}
}

func (a *Attendant) Name() string {
	return a.name
}

// SetLots replaces the managed lots and resets the cursor to the first one.
func (a *Attendant) SetLots(lots []*Lot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lots = slices.Clone(lots)
	a.next = 0
}

func (a *Attendant) Lots() []*Lot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.lots)
}

// Cursor is the index of the lot the next round-robin attempt will use.
func (a *Attendant) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// ParkAtPosition inserts v at position in the first managed lot.
func (a *Attendant) ParkAtPosition(v *Vehicle, position int) bool {
	a.mu.Lock()
	if len(a.lots) == 0 {
		a.mu.Unlock()
		return false
	}
	lot := a.lots[0]
	a.mu.Unlock()

	return lot.ParkAt(v, position)
}

// ParkRoundRobin parks v in the lot under the cursor and returns that lot's
// vehicle count after the attempt.
func (a *Attendant) ParkRoundRobin(v *Vehicle) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.lots) == 0 {
		return 0, ErrNoLots
	}
	return a.parkAndAdvance(a.lots[a.next], v), nil
}

// ParkNearest parks v in the lot with the least free space, favouring lots
// that are closest to full. The first such lot in order wins ties.
func (a *Attendant) ParkNearest(v *Vehicle) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.lots) == 0 {
		return 0, ErrNoLots
	}
	lot := a.lots[0]
	least := lot.FreeSpace()
	for _, l := range a.lots[1:] {
		if free := l.FreeSpace(); free < least {
			least = free
			lot = l
		}
	}
	return a.parkAndAdvance(lot, v), nil
}

// ParkLarge parks an oversized vehicle in the lot with the most free space
// and returns that lot's oversized vehicle count. The first such lot in order
// wins ties. The cursor and the parked list are left untouched.
func (a *Attendant) ParkLarge(v *Vehicle) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.lots) == 0 {
		return 0, ErrNoLots
	}
	lot := a.lots[0]
	most := lot.FreeSpace()
	for _, l := range a.lots[1:] {
		if free := l.FreeSpace(); free > most {
			most = free
			lot = l
		}
	}

	if !lot.Park(v) {
		a.reportFull(lot, v)
		return lot.LargeVehicles(), nil
	}
	lot.SetLargeVehicles(lot.LargeVehicles() + 1)
	return lot.LargeVehicles(), nil
}

// Parked returns the vehicles this attendant placed by round-robin or
// handicap parking, in placement order.
func (a *Attendant) Parked() []*Vehicle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.parked)
}

// parkAndAdvance must be called with a.mu held.
func (a *Attendant) parkAndAdvance(lot *Lot, v *Vehicle) int {
	if lot.Park(v) {
		a.parked = append(a.parked, v)
	} else {
		a.reportFull(lot, v)
	}
	a.next = (a.next + 1) % len(a.lots)
	return lot.Count()
}

func (a *Attendant) reportFull(lot *Lot, v *Vehicle) {
	logging.Warn(context.Background(), "attendant could not park vehicle",
		"attendant", a.name,
		"lot_id", lot.ID(),
		"registration", v.Registration,
	)
}
