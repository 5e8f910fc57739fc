package parking

import (
	"context"

	"parking-fleet/internal/logging"
)

// FullObserver is told when a vehicle is turned away from a full lot.
type FullObserver interface {
	LotFull(lot *Lot)
}

// LotObserver additionally hears when a lot frees a slot.
type LotObserver interface {
	FullObserver
	LotHasSpace(lot *Lot)
}

type NopObserver struct{}

func (NopObserver) LotFull(*Lot)     {}
func (NopObserver) LotHasSpace(*Lot) {}

// LogObserver reports notifications through the structured logger. Role is
// the observer's job at the lot, e.g. "owner" or "security".
type LogObserver struct {
	Role string
	Name string
}

func (o LogObserver) LotFull(lot *Lot) {
	logging.Info(context.Background(), "parking lot is full",
		"role", o.Role,
		"name", o.Name,
		"lot_id", lot.ID(),
		"capacity", lot.Capacity(),
	)
}

func (o LogObserver) LotHasSpace(lot *Lot) {
	logging.Info(context.Background(), "parking lot has space again",
		"role", o.Role,
		"name", o.Name,
		"lot_id", lot.ID(),
		"free_space", lot.FreeSpace(),
	)
}
