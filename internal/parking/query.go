package parking

// Find returns the occupied slots whose vehicle satisfies match, in slot
// order. It never modifies the lot.
func (l *Lot) Find(match func(*Vehicle) bool) []Slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	var slots []Slot
	for i, v := range l.vehicles {
		if match(v) {
			slots = append(slots, NewSlot(i+1, v))
		}
	}
	return slots
}

// Slots returns every occupied slot in order.
func (l *Lot) Slots() []Slot {
	return l.Find(func(*Vehicle) bool { return true })
}

func (l *Lot) ByColor(color string) []Slot {
	return l.Find(func(v *Vehicle) bool { return v.HasColor(color) })
}

func (l *Lot) ByMake(vehicleMake string) []Slot {
	return l.Find(func(v *Vehicle) bool { return v.HasMake(vehicleMake) })
}

func (l *Lot) ByModel(model string) []Slot {
	return l.Find(func(v *Vehicle) bool { return v.HasModel(model) })
}

func (l *Lot) ByMakeAndColor(vehicleMake, color string) []Slot {
	return l.Find(func(v *Vehicle) bool { return v.HasMake(vehicleMake) && v.HasColor(color) })
}

func (l *Lot) RegistrationsByColor(color string) []string {
	return registrations(l.ByColor(color))
}

// Details renders each slot with Slot.String.
func Details(slots []Slot) []string {
	details := make([]string, len(slots))
	for i, s := range slots {
		details[i] = s.String()
	}
	return details
}

func registrations(slots []Slot) []string {
	regs := make([]string, len(slots))
	for i, s := range slots {
		regs[i] = s.Vehicle.Registration
	}
	return regs
}
