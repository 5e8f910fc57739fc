package parking

import (
	"fmt"
	"sync"
)

// recordingObserver counts notifications per lot.
type recordingObserver struct {
	mu    sync.Mutex
	full  int
	space int
}

func (o *recordingObserver) LotFull(*Lot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.full++
}

func (o *recordingObserver) LotHasSpace(*Lot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.space++
}

func (o *recordingObserver) counts() (full, space int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.full, o.space
}

// stubParker records ParkAtPosition calls and returns a fixed result.
type stubParker struct {
	result   bool
	vehicle  *Vehicle
	position int
	calls    int
}

func (p *stubParker) ParkAtPosition(v *Vehicle, position int) bool {
	p.calls++
	p.vehicle = v
	p.position = position
	return p.result
}

func testVehicle(i int) *Vehicle {
	return NewVehicle(fmt.Sprintf("KA01HH%04d", i), "Toyota", "Corolla", "White")
}

// fillLot parks n fresh vehicles and returns them.
func fillLot(l *Lot, n int) []*Vehicle {
	vehicles := make([]*Vehicle, n)
	for i := range vehicles {
		vehicles[i] = testVehicle(i)
		l.Park(vehicles[i])
	}
	return vehicles
}
