package parking

import (
	"strings"
	"time"
)

// Vehicle is shared by pointer between the caller and the lot that holds it,
// so the parked and unparked stamps written by the lot are visible to both.
type Vehicle struct {
	Registration string
	Make         string
	Model        string
	Color        string
	Attendant    string

	parkedAt   time.Time
	unparkedAt time.Time
}

func NewVehicle(registration, vehicleMake, model, color string) *Vehicle {
	return &Vehicle{
		Registration: registration,
		Make:         vehicleMake,
		Model:        model,
		Color:        color,
	}
}

func (v *Vehicle) ParkedAt() (time.Time, bool) {
	return v.parkedAt, !v.parkedAt.IsZero()
}

// UnparkedAt reports the release stamp of the current parking cycle. A stamp
// left over from an earlier cycle is not reported once the vehicle is parked
// again.
func (v *Vehicle) UnparkedAt() (time.Time, bool) {
	if v.unparkedAt.IsZero() || v.parkedAt.IsZero() || v.unparkedAt.Before(v.parkedAt) {
		return time.Time{}, false
	}
	return v.unparkedAt, true
}

func (v *Vehicle) markParked(at time.Time) {
	v.parkedAt = at
	v.unparkedAt = time.Time{}
}

func (v *Vehicle) markUnparked(at time.Time) {
	v.unparkedAt = at
}

func (v *Vehicle) HasColor(color string) bool {
	return strings.EqualFold(v.Color, color)
}

func (v *Vehicle) HasMake(vehicleMake string) bool {
	return strings.EqualFold(v.Make, vehicleMake)
}

func (v *Vehicle) HasModel(model string) bool {
	return strings.EqualFold(v.Model, model)
}
