package imc

import "imcmotor/protocol"

// AxisState is the cached state of one channel
type AxisState struct {
	Position int32 // raw controller units
	Moving   bool
}

// Table holds the state of all four channels. It does no locking of its
// own; the owning Controller serialises access.
type Table struct {
	slots [protocol.MaxAxes]AxisState
}

// Get returns the state of axis
func (t *Table) Get(axis protocol.AxisID) AxisState {
	return t.slots[axis]
}

// SetMoving sets the moving flag of axis
func (t *Table) SetMoving(axis protocol.AxisID, moving bool) {
	t.slots[axis].Moving = moving
}

// Apply stores a poll record and marks every axis done
func (t *Table) Apply(rec protocol.PositionRecord) {
	for i, pos := range rec {
		t.slots[i] = AxisState{Position: pos, Moving: false}
	}
}

// Snapshot copies all slots
func (t *Table) Snapshot() [protocol.MaxAxes]AxisState {
	return t.slots
}

// AnyMoving reports whether any of the first n axes is moving
func (t *Table) AnyMoving(n int) bool {
	for i := 0; i < n && i < len(t.slots); i++ {
		if t.slots[i].Moving {
			return true
		}
	}
	return false
}
