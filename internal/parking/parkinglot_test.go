package parking

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func TestNewLot(t *testing.T) {
	lot := NewLot(6)

	if lot.Capacity() != 6 {
		t.Errorf("Expected capacity 6, got %d", lot.Capacity())
	}
	if lot.Count() != 0 {
		t.Errorf("Expected empty lot, got %d vehicles", lot.Count())
	}
	if lot.FreeSpace() != 6 {
		t.Errorf("Expected free space 6, got %d", lot.FreeSpace())
	}
	if lot.ID() == "" {
		t.Error("Expected lot to have an ID")
	}
}

func TestLotPark(t *testing.T) {
	lot := NewLot(100)

	if !lot.Park(testVehicle(1)) {
		t.Error("Expected vehicle to be parked")
	}
	if lot.Count() != 1 {
		t.Errorf("Expected 1 parked vehicle, got %d", lot.Count())
	}
}

func TestLotParkStampsParkedTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lot := NewLot(1, WithClock(testingclock.NewFakePassiveClock(now)))
	vehicle := testVehicle(1)

	lot.Park(vehicle)

	parkedAt, ok := vehicle.ParkedAt()
	if !ok || !parkedAt.Equal(now) {
		t.Errorf("Expected parked time %v, got %v (ok=%v)", now, parkedAt, ok)
	}
}

func TestLotFullNotifiesOwnerAndSecurity(t *testing.T) {
	owner := &recordingObserver{}
	security := &recordingObserver{}
	lot := NewLot(1, WithOwner(owner), WithSecurity(security))

	lot.Park(testVehicle(1))
	if lot.Park(testVehicle(2)) {
		t.Error("Expected second vehicle to be turned away")
	}
	if lot.Count() != 1 {
		t.Errorf("Expected count to stay at 1, got %d", lot.Count())
	}

	if full, _ := owner.counts(); full != 1 {
		t.Errorf("Expected owner to be notified once, got %d", full)
	}
	if full, _ := security.counts(); full != 1 {
		t.Errorf("Expected security to be notified once, got %d", full)
	}

	lot.Park(testVehicle(3))
	if full, _ := owner.counts(); full != 2 {
		t.Errorf("Expected one notification per failed attempt, got %d", full)
	}
}

func TestLotUnpark(t *testing.T) {
	owner := &recordingObserver{}
	lot := NewLot(1, WithOwner(owner))
	vehicle := testVehicle(1)
	lot.Park(vehicle)

	if !lot.Unpark(vehicle) {
		t.Error("Expected vehicle to be unparked")
	}
	if lot.Count() != 0 {
		t.Errorf("Expected no parked vehicles, got %d", lot.Count())
	}
	if lot.PositionOf(vehicle.Registration) != NotFound {
		t.Error("Expected unparked vehicle to disappear from lookups")
	}
	if len(lot.ByColor("White")) != 0 {
		t.Error("Expected unparked vehicle to disappear from searches")
	}
	if _, space := owner.counts(); space != 1 {
		t.Errorf("Expected one space notification, got %d", space)
	}
}

func TestLotUnparkUnknownVehicle(t *testing.T) {
	owner := &recordingObserver{}
	lot := NewLot(2, WithOwner(owner))
	lot.Park(testVehicle(1))

	// Same registration, different record.
	if lot.Unpark(testVehicle(1)) {
		t.Error("Expected unpark of an unknown vehicle to fail")
	}
	if _, space := owner.counts(); space != 0 {
		t.Errorf("Expected no space notification, got %d", space)
	}
}

func TestLotUnparkCompactsSlots(t *testing.T) {
	lot := NewLot(3)
	vehicles := fillLot(lot, 3)

	lot.Unpark(vehicles[0])

	if got := lot.PositionOf(vehicles[1].Registration); got != 1 {
		t.Errorf("Expected second vehicle to move to slot 1, got %d", got)
	}
	if got := lot.PositionOf(vehicles[2].Registration); got != 2 {
		t.Errorf("Expected third vehicle to move to slot 2, got %d", got)
	}
}

func TestLotParkAt(t *testing.T) {
	lot := NewLot(5)
	vehicles := fillLot(lot, 2)
	inserted := NewVehicle("KA01BB0001", "Honda", "City", "Red")

	if !lot.ParkAt(inserted, 1) {
		t.Fatal("Expected vehicle to be parked at slot 1")
	}

	got := lot.Vehicles()
	want := []*Vehicle{inserted, vehicles[0], vehicles[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s in slot %d, got %s", want[i].Registration, i+1, got[i].Registration)
		}
	}
	if _, ok := inserted.ParkedAt(); !ok {
		t.Error("Expected parked time to be stamped")
	}
}

func TestLotParkAtBounds(t *testing.T) {
	lot := NewLot(5)
	fillLot(lot, 2)

	for _, position := range []int{0, -1, 4} {
		if lot.ParkAt(testVehicle(10), position) {
			t.Errorf("Expected position %d to be rejected", position)
		}
	}
	if !lot.ParkAt(testVehicle(11), 3) {
		t.Error("Expected position Count()+1 to be accepted")
	}
}

func TestLotParkAtRespectsCapacity(t *testing.T) {
	owner := &recordingObserver{}
	lot := NewLot(2, WithOwner(owner))
	fillLot(lot, 2)

	if lot.ParkAt(testVehicle(10), 1) {
		t.Error("Expected full lot to reject positional parking")
	}
	if lot.Count() != 2 {
		t.Errorf("Expected count 2, got %d", lot.Count())
	}
	if full, _ := owner.counts(); full != 0 {
		t.Errorf("Expected positional parking not to notify, got %d", full)
	}
}

func TestLotParkWithAttendant(t *testing.T) {
	owner := &recordingObserver{}
	parker := &stubParker{result: true}
	lot := NewLot(10, WithOwner(owner), WithAttendant(parker))
	vehicle := testVehicle(1)

	ok, err := lot.ParkWithAttendant(vehicle, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Error("Expected vehicle to be parked")
	}
	if parker.calls != 1 || parker.vehicle != vehicle || parker.position != 3 {
		t.Errorf("Expected attendant to be called once with slot 3, got %+v", parker)
	}

	parker.result = false
	if ok, _ := lot.ParkWithAttendant(vehicle, 3); ok {
		t.Error("Expected failure to be reported")
	}
	if full, _ := owner.counts(); full != 1 {
		t.Errorf("Expected owner to hear the lot is full, got %d", full)
	}
}

func TestLotParkWithoutAttendant(t *testing.T) {
	lot := NewLot(10)

	if _, err := lot.ParkWithAttendant(testVehicle(1), 1); err != ErrNoAttendant {
		t.Errorf("Expected ErrNoAttendant, got %v", err)
	}
}

func TestLotPositionOf(t *testing.T) {
	lot := NewLot(3)
	vehicles := fillLot(lot, 2)

	if got := lot.PositionOf(vehicles[0].Registration); got != 1 {
		t.Errorf("Expected first vehicle in slot 1, got %d", got)
	}
	if got := lot.PositionOf(vehicles[1].Registration); got != 2 {
		t.Errorf("Expected second vehicle in slot 2, got %d", got)
	}
	if got := lot.PositionOf("NOTFOUND"); got != NotFound {
		t.Errorf("Expected %d for an unknown registration, got %d", NotFound, got)
	}
}

func TestLotDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fakeClock := testingclock.NewFakeClock(start)
	lot := NewLot(2, WithClock(fakeClock))
	vehicle := testVehicle(1)

	if _, ok := lot.Duration(vehicle); ok {
		t.Error("Expected no duration before parking")
	}

	lot.Park(vehicle)
	fakeClock.Step(90 * time.Minute)
	if _, ok := lot.Duration(vehicle); ok {
		t.Error("Expected no duration while still parked")
	}

	lot.Unpark(vehicle)
	d, ok := lot.Duration(vehicle)
	if !ok {
		t.Fatal("Expected a duration after leaving")
	}
	if d != 90*time.Minute {
		t.Errorf("Expected duration 1h30m, got %v", d)
	}

	lot.Park(vehicle)
	if _, ok := lot.Duration(vehicle); ok {
		t.Error("Expected re-parking to discard the previous duration")
	}
}

func TestLotDurationRealClock(t *testing.T) {
	lot := NewLot(1)
	vehicle := testVehicle(1)

	lot.Park(vehicle)
	time.Sleep(20 * time.Millisecond)
	lot.Unpark(vehicle)

	d, ok := lot.Duration(vehicle)
	if !ok {
		t.Fatal("Expected a duration after leaving")
	}
	if d < 20*time.Millisecond || d > time.Second {
		t.Errorf("Expected roughly 20ms, got %v", d)
	}
}

func TestLotLargeVehicleCounter(t *testing.T) {
	lot := NewLot(3)
	lot.Park(testVehicle(1))

	if lot.LargeVehicles() != 0 {
		t.Errorf("Expected parking not to touch the oversized counter, got %d", lot.LargeVehicles())
	}

	lot.SetLargeVehicles(2)
	if lot.LargeVehicles() != 2 {
		t.Errorf("Expected oversized counter 2, got %d", lot.LargeVehicles())
	}
}

func TestLotCountNeverExceedsCapacity(t *testing.T) {
	lot := NewLot(4)

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			lot.Park(testVehicle(i))
		} else {
			lot.ParkAt(testVehicle(i), 1)
		}
		if lot.Count() > lot.Capacity() || lot.FreeSpace() < 0 {
			t.Fatalf("Count %d exceeds capacity %d", lot.Count(), lot.Capacity())
		}
	}
}

func TestLotConcurrentPark(t *testing.T) {
	owner := &recordingObserver{}
	lot := NewLot(50, WithOwner(owner))

	var wg sync.WaitGroup
	var parked atomic.Int64
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if lot.Park(testVehicle(i)) {
				parked.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if parked.Load() != 50 {
		t.Errorf("Expected 50 successful parks, got %d", parked.Load())
	}
	if lot.Count() != 50 {
		t.Errorf("Expected 50 vehicles, got %d", lot.Count())
	}
	if full, _ := owner.counts(); full != 30 {
		t.Errorf("Expected 30 full notifications, got %d", full)
	}
}
