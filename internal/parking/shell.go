package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell reads one command per line and writes human readable answers. Every
// command runs in its own span.
type Shell struct {
	fleet     *Fleet
	telemetry *TelemetryProvider
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(fleet *Fleet, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		fleet:     fleet,
		telemetry: telemetry,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

// Run processes commands until the input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
	return s.scanner.Err()
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(ctx, parts)
	case "park":
		s.handlePark(ctx, StrategyRoundRobin, parts)
	case "park_handicap":
		s.handlePark(ctx, StrategyHandicap, parts)
	case "park_large":
		s.handlePark(ctx, StrategyLarge, parts)
	case "park_in":
		s.handleParkNumbered(ctx, StrategyDirect, parts)
	case "park_at":
		s.handleParkNumbered(ctx, StrategyPosition, parts)
	case "leave":
		s.handleLeave(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "slot_number_for_registration_number":
		s.handleSlotNumberForRegistrationNumber(ctx, parts)
	case "registration_numbers_for_cars_with_colour":
		s.handleRegistrationsByColour(ctx, parts)
	case "slot_numbers_for_cars_with_make_and_colour":
		s.handleSlotsByMakeAndColour(ctx, parts)
	case "registration_numbers_for_cars_with_make":
		s.handleRegistrationsByMake(ctx, parts)
	case "attendant_parked":
		s.handleAttendantParked(ctx)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

func (s *Shell) handleCreateParkingLot(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: create_parking_lot <capacity>")
		return
	}

	capacity, err := strconv.Atoi(parts[1])
	if err != nil || capacity <= 0 {
		s.println("Invalid capacity")
		return
	}

	status, err := s.fleet.AddLot(ctx, capacity)
	if err != nil {
		s.printf("Error creating parking lot: %s\n", err.Error())
		return
	}

	s.printf("Created parking lot %d with %d slots\n", status.Number, capacity)
}

// vehicleFromArgs builds a vehicle from <registration> <make> <model> <color>.
func vehicleFromArgs(args []string) (*Vehicle, bool) {
	if len(args) != 4 {
		return nil, false
	}
	return NewVehicle(args[0], args[1], args[2], args[3]), true
}

func (s *Shell) handlePark(ctx context.Context, strategy Strategy, parts []string) {
	vehicle, ok := vehicleFromArgs(parts[1:])
	if !ok {
		s.printf("Usage: %s <registration_number> <make> <model> <color>\n", parts[0])
		return
	}
	s.park(ctx, ParkRequest{Strategy: strategy, Vehicle: vehicle})
}

func (s *Shell) handleParkNumbered(ctx context.Context, strategy Strategy, parts []string) {
	usage := func() {
		name := "lot"
		if strategy == StrategyPosition {
			name = "position"
		}
		s.printf("Usage: %s <%s> <registration_number> <make> <model> <color>\n", parts[0], name)
	}
	if len(parts) < 2 {
		usage()
		return
	}

	number, err := strconv.Atoi(parts[1])
	vehicle, ok := vehicleFromArgs(parts[2:])
	if err != nil || !ok {
		usage()
		return
	}

	req := ParkRequest{Strategy: strategy, Vehicle: vehicle}
	if strategy == StrategyPosition {
		req.Position = number
	} else {
		req.Lot = number
	}
	s.park(ctx, req)
}

func (s *Shell) park(ctx context.Context, req ParkRequest) {
	result, err := s.fleet.Park(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoLots):
		s.println("Parking lot not created")
		return
	case errors.Is(err, ErrLotFull):
		s.println("Sorry, parking lot is full")
		return
	case errors.Is(err, ErrAlreadyParked):
		s.printf("Vehicle %s is already parked\n", req.Vehicle.Registration)
		return
	default:
		s.printf("Error: %s\n", err.Error())
		return
	}

	if req.Strategy == StrategyLarge {
		s.printf("Allocated slot number: %d in lot %d (large vehicles: %d)\n",
			result.Slot, result.Lot, result.LargeVehicles)
		return
	}
	s.printf("Allocated slot number: %d in lot %d\n", result.Slot, result.Lot)
}

func (s *Shell) handleLeave(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: leave <registration_number>")
		return
	}

	result, err := s.fleet.Leave(ctx, parts[1])
	if err != nil {
		s.println("Not found")
		return
	}

	s.printf("Slot number %d in lot %d is free (parked for %s)\n",
		result.Slot, result.Lot, result.Duration.Round(time.Second))
}

func (s *Shell) handleStatus(ctx context.Context) {
	statuses := s.fleet.Status(ctx)
	if len(statuses) == 0 {
		s.println("Parking lot not created")
		return
	}

	s.println("Lot\tSlot No.\tRegistration No\tMake\tModel\tColour\tAttendant")
	for _, status := range statuses {
		for _, slot := range status.Slots {
			v := slot.Vehicle
			attendant := v.Attendant
			if attendant == "" {
				attendant = "-"
			}
			s.printf("%d\t%d\t\t%s\t%s\t%s\t%s\t%s\n",
				status.Number, slot.Number, v.Registration, v.Make, v.Model, v.Color, attendant)
		}
	}
}

func (s *Shell) handleSlotNumberForRegistrationNumber(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: slot_number_for_registration_number <registration_number>")
		return
	}

	loc, err := s.fleet.Find(ctx, parts[1])
	if err != nil {
		s.println("Not found")
		return
	}

	s.printf("%d:%d\n", loc.Lot, loc.Slot)
}

func (s *Shell) handleRegistrationsByColour(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: registration_numbers_for_cars_with_colour <color>")
		return
	}
	s.printRegistrations(s.fleet.Search(ctx, Criteria{Color: parts[1]}))
}

func (s *Shell) handleRegistrationsByMake(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: registration_numbers_for_cars_with_make <make>")
		return
	}
	s.printRegistrations(s.fleet.Search(ctx, Criteria{Make: parts[1]}))
}

func (s *Shell) handleSlotsByMakeAndColour(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.println("Usage: slot_numbers_for_cars_with_make_and_colour <make> <color>")
		return
	}

	locations := s.fleet.Search(ctx, Criteria{Make: parts[1], Color: parts[2]})
	if len(locations) == 0 {
		s.println("Not found")
		return
	}

	slots := make([]string, len(locations))
	for i, loc := range locations {
		slots[i] = fmt.Sprintf("%d:%d", loc.Lot, loc.Slot)
	}
	s.println(strings.Join(slots, ", "))
}

func (s *Shell) handleAttendantParked(ctx context.Context) {
	parked := s.fleet.AttendantParked(ctx)
	if len(parked) == 0 {
		s.println("Not found")
		return
	}

	registrations := make([]string, len(parked))
	for i, v := range parked {
		registrations[i] = v.Registration
	}
	s.println(strings.Join(registrations, ", "))
}

func (s *Shell) printRegistrations(locations []Location) {
	if len(locations) == 0 {
		s.println("Not found")
		return
	}

	registrations := make([]string, len(locations))
	for i, loc := range locations {
		registrations[i] = loc.Vehicle.Registration
	}
	s.println(strings.Join(registrations, ", "))
}
