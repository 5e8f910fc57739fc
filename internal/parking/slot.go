package parking

import "fmt"

// Slot pairs an occupied slot number with the vehicle parked in it.
type Slot struct {
	Number  int
	Vehicle *Vehicle
}

func NewSlot(number int, vehicle *Vehicle) Slot {
	return Slot{
		Number:  number,
		Vehicle: vehicle,
	}
}

// String renders the slot as "<number> <registration> <attendant>", the
// detail line handed to the police when searching for vehicles.
func (s Slot) String() string {
	attendant := s.Vehicle.Attendant
	if attendant == "" {
		attendant = "-"
	}
	return fmt.Sprintf("%d %s %s", s.Number, s.Vehicle.Registration, attendant)
}
