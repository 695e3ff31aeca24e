package core

import "fmt"

// CanTransition reports whether an inventory unit may move between the two
// states. OnHand and Backordered are the live states; Shipped, Canceled and
// Damaged are terminal.
func CanTransition(from, to InventoryUnitState) bool {
	switch from {
	case UnitOnHand:
		return to == UnitShipped || to == UnitCanceled || to == UnitDamaged
	case UnitBackordered:
		return to == UnitOnHand || to == UnitCanceled
	case UnitShipped, UnitCanceled, UnitDamaged:
		return false
	}
	return false
}

// Transition moves the unit to a new state, enforcing the lifecycle.
func (u *InventoryUnit) Transition(to InventoryUnitState) error {
	if !CanTransition(u.State, to) {
		return fmt.Errorf("%w: inventory unit %s cannot move from %s to %s", ErrInvalidStateTransition, u.ID, u.State, to)
	}
	u.State = to
	return nil
}

// SetSerialNumber assigns a tracking identifier to the physical unit.
func (u *InventoryUnit) SetSerialNumber(serial string) {
	if serial == "" {
		u.SerialNumber = nil
		return
	}
	u.SerialNumber = &serial
}
