package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parking-fleet/internal/parking"
)

type Handler struct {
	fleet       *parking.Fleet
	serviceName string
}

func NewHandler(fleet *parking.Fleet, serviceName string) *Handler {
	return &Handler{fleet: fleet, serviceName: serviceName}
}

// statusFor maps fleet errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrLotNotFound), errors.Is(err, parking.ErrVehicleNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrLotFull), errors.Is(err, parking.ErrAlreadyParked):
		return http.StatusConflict
	case errors.Is(err, parking.ErrNoLots),
		errors.Is(err, parking.ErrInvalidVehicle),
		errors.Is(err, parking.ErrInvalidCapacity),
		errors.Is(err, parking.ErrInvalidPosition),
		errors.Is(err, parking.ErrUnknownStrategy):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Service is healthy", HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Lots:    len(h.fleet.Status(ctx)),
	})
}

func (h *Handler) CreateLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := h.fleet.AddLot(ctx, req.Capacity)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Parking lot created successfully", newLotResponse(status))
}

func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses := h.fleet.Status(ctx)

	lots := make([]LotResponse, len(statuses))
	for i, status := range statuses {
		lots[i] = newLotResponse(status)
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", lots)
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration is required")
		return
	}

	strategy, err := parking.ParseStrategy(req.Strategy)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	vehicle := parking.NewVehicle(req.Registration, req.Make, req.Model, req.Color)
	result, err := h.fleet.Park(ctx, parking.ParkRequest{
		Strategy: strategy,
		Lot:      req.Lot,
		Position: req.Position,
		Vehicle:  vehicle,
	})
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", ParkResponse{
		Lot:           result.Lot,
		SlotNumber:    result.Slot,
		LotCount:      result.Count,
		LargeVehicles: result.LargeVehicles,
		Vehicle:       newVehicleResponse(vehicle),
	})
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration is required")
		return
	}

	result, err := h.fleet.Leave(ctx, req.Registration)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Slot vacated successfully", LeaveResponse{
		Lot:             result.Lot,
		SlotNumber:      result.Slot,
		DurationSeconds: result.Duration.Seconds(),
		Vehicle:         newVehicleResponse(result.Vehicle),
	})
}

func (h *Handler) FindByRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registration := chi.URLParam(r, "registration")
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	loc, err := h.fleet.Find(ctx, registration)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", newLocationResponse(loc))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	locations := h.fleet.Search(ctx, parking.Criteria{
		Make:  query.Get("make"),
		Model: query.Get("model"),
		Color: query.Get("color"),
	})

	results := make([]LocationResponse, len(locations))
	for i, loc := range locations {
		results[i] = newLocationResponse(loc)
	}

	WriteSuccess(ctx, w, "Search completed", results)
}

func (h *Handler) AttendantParked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parked := h.fleet.AttendantParked(ctx)

	vehicles := make([]VehicleResponse, len(parked))
	for i, v := range parked {
		vehicles[i] = newVehicleResponse(v)
	}

	WriteSuccess(ctx, w, "Attendant parked vehicles", map[string]any{
		"attendant": h.fleet.Attendant().Name(),
		"vehicles":  vehicles,
	})
}
