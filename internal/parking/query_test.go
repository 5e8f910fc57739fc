package parking

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newQueryLot() (*Lot, []*Vehicle) {
	lot := NewLot(6)
	vehicles := []*Vehicle{
		NewVehicle("KA01HH1234", "Toyota", "Corolla", "White"),
		NewVehicle("KA01HH9999", "BMW", "X5", "Blue"),
		NewVehicle("KA01BB0001", "toyota", "Camry", "white"),
		NewVehicle("KA01HH7777", "Toyota", "Corolla", "Blue"),
	}
	for _, v := range vehicles {
		lot.Park(v)
	}
	return lot, vehicles
}

func TestLotByColor(t *testing.T) {
	lot, vehicles := newQueryLot()

	slots := lot.ByColor("WHITE")
	if len(slots) != 2 {
		t.Fatalf("Expected 2 white vehicles, got %d", len(slots))
	}
	if slots[0].Number != 1 || slots[0].Vehicle != vehicles[0] {
		t.Errorf("Expected slot 1 first, got %d %s", slots[0].Number, slots[0].Vehicle.Registration)
	}
	if slots[1].Number != 3 || slots[1].Vehicle != vehicles[2] {
		t.Errorf("Expected slot 3 second, got %d %s", slots[1].Number, slots[1].Vehicle.Registration)
	}
}

func TestLotByMakeAndColor(t *testing.T) {
	lot, _ := newQueryLot()

	slots := lot.ByMakeAndColor("toyota", "blue")
	if len(slots) != 1 || slots[0].Number != 4 {
		t.Fatalf("Expected the blue Toyota in slot 4, got %v", Details(slots))
	}
}

func TestLotByMake(t *testing.T) {
	lot, _ := newQueryLot()

	got := registrations(lot.ByMake("Toyota"))
	want := []string{"KA01HH1234", "KA01BB0001", "KA01HH7777"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected registrations (-want +got):\n%s", diff)
	}
}

func TestLotByModel(t *testing.T) {
	lot, _ := newQueryLot()

	if got := len(lot.ByModel("corolla")); got != 2 {
		t.Errorf("Expected 2 Corollas, got %d", got)
	}
}

func TestLotRegistrationsByColor(t *testing.T) {
	lot, _ := newQueryLot()

	got := lot.RegistrationsByColor("Blue")
	want := []string{"KA01HH9999", "KA01HH7777"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected registrations (-want +got):\n%s", diff)
	}
	if got := lot.RegistrationsByColor("Green"); len(got) != 0 {
		t.Errorf("Expected no green vehicles, got %v", got)
	}
}

func TestLotQueriesFollowSlotOrderAfterUnpark(t *testing.T) {
	lot, vehicles := newQueryLot()
	lot.Unpark(vehicles[0])

	slots := lot.ByColor("white")
	if len(slots) != 1 || slots[0].Number != 2 {
		t.Errorf("Expected the remaining white vehicle in slot 2, got %v", Details(slots))
	}
}

func TestDetails(t *testing.T) {
	lot, vehicles := newQueryLot()
	vehicles[1].Attendant = "Ravi"

	got := Details(lot.ByColor("blue"))
	want := []string{"2 KA01HH9999 Ravi", "4 KA01HH7777 -"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected registrations (-want +got):\n%s", diff)
	}
}
