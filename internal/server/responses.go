package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-fleet/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Lots    int    `json:"lots"`
}

type CreateLotRequest struct {
	Capacity int `json:"capacity"`
}

// ParkVehicleRequest parks one vehicle. Strategy defaults to round_robin; Lot
// is only read by the direct strategy and Position by the position strategy.
type ParkVehicleRequest struct {
	Strategy     string `json:"strategy"`
	Lot          int    `json:"lot,omitempty"`
	Position     int    `json:"position,omitempty"`
	Registration string `json:"registration"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

type LeaveRequest struct {
	Registration string `json:"registration"`
}

type VehicleResponse struct {
	Registration string     `json:"registration"`
	Make         string     `json:"make,omitempty"`
	Model        string     `json:"model,omitempty"`
	Color        string     `json:"color,omitempty"`
	Attendant    string     `json:"attendant,omitempty"`
	ParkedAt     *time.Time `json:"parked_at,omitempty"`
}

type ParkResponse struct {
	Lot           int             `json:"lot"`
	SlotNumber    int             `json:"slot_number"`
	LotCount      int             `json:"lot_count"`
	LargeVehicles int             `json:"large_vehicles"`
	Vehicle       VehicleResponse `json:"vehicle"`
}

type LeaveResponse struct {
	Lot             int             `json:"lot"`
	SlotNumber      int             `json:"slot_number"`
	DurationSeconds float64         `json:"duration_seconds"`
	Vehicle         VehicleResponse `json:"vehicle"`
}

type LocationResponse struct {
	Lot        int             `json:"lot"`
	SlotNumber int             `json:"slot_number"`
	Vehicle    VehicleResponse `json:"vehicle"`
}

type SlotStatus struct {
	SlotNumber int             `json:"slot_number"`
	Vehicle    VehicleResponse `json:"vehicle"`
}

type LotResponse struct {
	Lot           int          `json:"lot"`
	ID            string       `json:"id"`
	Capacity      int          `json:"capacity"`
	Occupied      int          `json:"occupied"`
	Available     int          `json:"available"`
	LargeVehicles int          `json:"large_vehicles"`
	Slots         []SlotStatus `json:"slots"`
}

func newVehicleResponse(v *parking.Vehicle) VehicleResponse {
	resp := VehicleResponse{
		Registration: v.Registration,
		Make:         v.Make,
		Model:        v.Model,
		Color:        v.Color,
		Attendant:    v.Attendant,
	}
	if at, ok := v.ParkedAt(); ok {
		resp.ParkedAt = &at
	}
	return resp
}

func newLocationResponse(loc parking.Location) LocationResponse {
	return LocationResponse{
		Lot:        loc.Lot,
		SlotNumber: loc.Slot,
		Vehicle:    newVehicleResponse(loc.Vehicle),
	}
}

func newLotResponse(status parking.LotStatus) LotResponse {
	slots := make([]SlotStatus, len(status.Slots))
	for i, s := range status.Slots {
		slots[i] = SlotStatus{SlotNumber: s.Number, Vehicle: newVehicleResponse(s.Vehicle)}
	}
	return LotResponse{
		Lot:           status.Number,
		ID:            status.ID,
		Capacity:      status.Capacity,
		Occupied:      status.Occupied,
		Available:     status.Free,
		LargeVehicles: status.LargeVehicles,
		Slots:         slots,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
