package core_test

import (
	"testing"

	"stock-ledger/internal/core"

	"github.com/google/uuid"
)

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		name          string
		onHand        int
		reserved      int
		backorderable bool
		wantAvailable int
		wantBuyable   bool
	}{
		{"in stock", 10, 3, false, 7, true},
		{"fully reserved", 5, 5, false, 0, false},
		{"fully reserved but backorderable", 5, 5, true, 0, true},
		{"oversold", 2, 6, false, -4, false},
		{"oversold but backorderable", 2, 6, true, -4, true},
		{"empty shelf", 0, 0, false, 0, false},
		{"empty shelf backorderable", 0, 0, true, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			variantID := uuid.New()
			sum := core.ComputeSummary(variantID, tc.onHand, tc.reserved, tc.backorderable)

			if sum.VariantID != variantID {
				t.Errorf("Expected variant %s, got %s", variantID, sum.VariantID)
			}
			if sum.TotalOnHand != tc.onHand || sum.TotalReserved != tc.reserved {
				t.Errorf("Totals not carried through: %+v", sum)
			}
			if sum.TotalAvailable != tc.wantAvailable {
				t.Errorf("Expected available=%d, got %d", tc.wantAvailable, sum.TotalAvailable)
			}
			if sum.IsBuyable != tc.wantBuyable {
				t.Errorf("Expected buyable=%v, got %v", tc.wantBuyable, sum.IsBuyable)
			}
		})
	}
}
