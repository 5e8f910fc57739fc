package parking

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func runShell(t *testing.T, h *fleetHarness, commands ...string) []string {
	t.Helper()

	var out bytes.Buffer
	shell := NewShell(h.fleet, h.fleet.telemetry, strings.NewReader(strings.Join(commands, "\n")), &out)
	if err := shell.Run(context.Background()); err != nil {
		t.Fatalf("Shell returned error: %v", err)
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func expectLines(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i+1, want[i], got[i])
		}
	}
}

func TestShellParkAndQuery(t *testing.T) {
	h := newFleetHarness(t)

	got := runShell(t, h,
		"park KA01HH1234 Toyota Corolla White",
		"create_parking_lot 2",
		"create_parking_lot 3",
		"park KA01HH1234 Toyota Corolla White",
		"park KA01HH9999 BMW X5 Blue",
		"park_in 1 KA01BB0001 Toyota Camry White",
		"park KA01HH1234 Toyota Corolla White",
		"slot_number_for_registration_number KA01BB0001",
		"slot_number_for_registration_number MISSING",
		"registration_numbers_for_cars_with_colour white",
		"registration_numbers_for_cars_with_make BMW",
		"slot_numbers_for_cars_with_make_and_colour Toyota White",
		"registration_numbers_for_cars_with_colour Green",
		"attendant_parked",
	)

	expectLines(t, got, []string{
		"Parking lot not created",
		"Created parking lot 1 with 2 slots",
		"Created parking lot 2 with 3 slots",
		"Allocated slot number: 1 in lot 1",
		"Allocated slot number: 1 in lot 2",
		"Allocated slot number: 2 in lot 1",
		"Vehicle KA01HH1234 is already parked",
		"1:2",
		"Not found",
		"KA01HH1234, KA01BB0001",
		"KA01HH9999",
		"1:1, 1:2",
		"Not found",
		"KA01HH1234, KA01HH9999",
	})
}

func TestShellFullLot(t *testing.T) {
	h := newFleetHarness(t)

	got := runShell(t, h,
		"create_parking_lot 1",
		"park KA01HH0001 Toyota Corolla White",
		"park KA01HH0002 Toyota Corolla White",
	)

	expectLines(t, got, []string{
		"Created parking lot 1 with 1 slots",
		"Allocated slot number: 1 in lot 1",
		"Sorry, parking lot is full",
	})
	if full, _ := h.owner.counts(); full != 1 {
		t.Errorf("Expected owner to be notified once, got %d", full)
	}
}

func TestShellParkAtHandicapAndLarge(t *testing.T) {
	h := newFleetHarness(t)

	got := runShell(t, h,
		"create_parking_lot 3",
		"create_parking_lot 5",
		"park_in 1 KA01HH0001 Toyota Corolla White",
		"park_at 1 KA01HH0002 Honda City Red",
		"park_at 7 KA01HH0003 Honda City Red",
		"park_handicap KA01HH0004 Honda Jazz Blue",
		"park_large KA01HH0005 Volvo FH16 Silver",
	)

	expectLines(t, got, []string{
		"Created parking lot 1 with 3 slots",
		"Created parking lot 2 with 5 slots",
		"Allocated slot number: 1 in lot 1",
		"Allocated slot number: 1 in lot 1",
		"Error: invalid slot position: 7",
		"Allocated slot number: 3 in lot 1",
		"Allocated slot number: 1 in lot 2 (large vehicles: 1)",
	})
}

func TestShellLeaveAndStatus(t *testing.T) {
	h := newFleetHarness(t, 2)
	ctx := context.Background()

	vehicle := NewVehicle("KA01HH1234", "Toyota", "Corolla", "White")
	h.fleet.Park(ctx, ParkRequest{Strategy: StrategyRoundRobin, Vehicle: vehicle})
	h.fleet.Park(ctx, ParkRequest{Strategy: StrategyDirect, Lot: 1, Vehicle: NewVehicle("KA01HH9999", "BMW", "X5", "Blue")})
	h.clock.Step(2 * time.Hour)

	got := runShell(t, h,
		"status",
		"leave KA01HH1234",
		"leave KA01HH1234",
		"status",
	)

	expectLines(t, got, []string{
		"Lot\tSlot No.\tRegistration No\tMake\tModel\tColour\tAttendant",
		"1\t1\t\tKA01HH1234\tToyota\tCorolla\tWhite\tRavi",
		"1\t2\t\tKA01HH9999\tBMW\tX5\tBlue\t-",
		"Slot number 1 in lot 1 is free (parked for 2h0m0s)",
		"Not found",
		"Lot\tSlot No.\tRegistration No\tMake\tModel\tColour\tAttendant",
		"1\t1\t\tKA01HH9999\tBMW\tX5\tBlue\t-",
	})
}

func TestShellUsageAndUnknownCommands(t *testing.T) {
	h := newFleetHarness(t)

	got := runShell(t, h,
		"create_parking_lot",
		"create_parking_lot -1",
		"park KA01HH1234",
		"park_in x KA01HH1234 Toyota Corolla White",
		"leave",
		"fly_away",
		"status",
	)

	expectLines(t, got, []string{
		"Usage: create_parking_lot <capacity>",
		"Invalid capacity",
		"Usage: park <registration_number> <make> <model> <color>",
		"Usage: park_in <lot> <registration_number> <make> <model> <color>",
		"Usage: leave <registration_number>",
		"Unknown command: fly_away",
		"Parking lot not created",
	})
}

func TestShellRecordsCommandSpans(t *testing.T) {
	h := newFleetHarness(t)

	runShell(t, h, "create_parking_lot 1", "status")

	commands := 0
	for _, name := range h.spanNames() {
		if name == "shell.process_command" {
			commands++
		}
	}
	if commands != 2 {
		t.Errorf("Expected 2 command spans, got %d", commands)
	}
}
