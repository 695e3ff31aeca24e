package core_test

import (
	"errors"
	"testing"

	"stock-ledger/internal/core"

	"github.com/google/uuid"
)

func TestInventoryUnit_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    core.InventoryUnitState
		to      core.InventoryUnitState
		allowed bool
	}{
		{"on_hand ships", core.UnitOnHand, core.UnitShipped, true},
		{"on_hand cancels", core.UnitOnHand, core.UnitCanceled, true},
		{"on_hand damaged", core.UnitOnHand, core.UnitDamaged, true},
		{"on_hand cannot backorder", core.UnitOnHand, core.UnitBackordered, false},
		{"backordered backfills", core.UnitBackordered, core.UnitOnHand, true},
		{"backordered cancels", core.UnitBackordered, core.UnitCanceled, true},
		{"backordered cannot ship", core.UnitBackordered, core.UnitShipped, false},
		{"backordered cannot damage", core.UnitBackordered, core.UnitDamaged, false},
		{"shipped is terminal", core.UnitShipped, core.UnitCanceled, false},
		{"canceled is terminal", core.UnitCanceled, core.UnitOnHand, false},
		{"damaged is terminal", core.UnitDamaged, core.UnitOnHand, false},
		{"no self transition", core.UnitOnHand, core.UnitOnHand, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}

			unit := core.InventoryUnit{ID: uuid.New(), State: tc.from}
			err := unit.Transition(tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("Transition(%s) failed: %v", tc.to, err)
				}
				if unit.State != tc.to {
					t.Errorf("Expected state %s after transition, got %s", tc.to, unit.State)
				}
			} else {
				if !errors.Is(err, core.ErrInvalidStateTransition) {
					t.Fatalf("Expected ErrInvalidStateTransition, got %v", err)
				}
				if unit.State != tc.from {
					t.Errorf("Rejected transition mutated state to %s", unit.State)
				}
			}
		})
	}
}

func TestInventoryUnit_SetSerialNumber(t *testing.T) {
	unit := core.InventoryUnit{ID: uuid.New(), State: core.UnitOnHand}

	unit.SetSerialNumber("SN-0042")
	if unit.SerialNumber == nil || *unit.SerialNumber != "SN-0042" {
		t.Errorf("Expected serial SN-0042, got %v", unit.SerialNumber)
	}

	unit.SetSerialNumber("")
	if unit.SerialNumber != nil {
		t.Errorf("Expected serial cleared, got %v", *unit.SerialNumber)
	}
}
