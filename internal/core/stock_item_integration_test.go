package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"stock-ledger/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_summaries, stock_transfer_items, stock_transfers,
			inventory_units, stock_movements, stock_items,
			store_stock_locations, variants, stock_locations CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

// seedWarehouse creates a warehouse location through the service so tests
// exercise the same write path production uses.
func seedWarehouse(t *testing.T, ctx context.Context, locations core.StockLocationService, code string, isDefault bool, priority int) *core.StockLocation {
	t.Helper()
	loc, err := locations.Create(ctx, code+" Warehouse", code, "", core.LocationTypeWarehouse, isDefault, priority)
	if err != nil {
		t.Fatalf("Failed to create location %s: %v", code, err)
	}
	return loc
}

func mustGetItem(t *testing.T, ctx context.Context, items core.StockItemService, id uuid.UUID) *core.StockItem {
	t.Helper()
	item, err := items.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get stock item failed: %v", err)
	}
	return item
}

func countUnitsByState(units []core.InventoryUnit) map[core.InventoryUnitState]int {
	counts := make(map[core.InventoryUnitState]int)
	for _, u := range units {
		counts[u.State]++
	}
	return counts
}

func TestStockItem_CreateWithInitialReceipt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.QuantityOnHand != 10 || item.QuantityReserved != 0 {
		t.Errorf("Expected on_hand=10 reserved=0, got %d/%d", item.QuantityOnHand, item.QuantityReserved)
	}
	if !item.UnitCost.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Expected unit_cost=25, got %s", item.UnitCost)
	}

	movements, err := items.Movements(ctx, item.ID)
	if err != nil {
		t.Fatalf("Movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("Expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Type != core.MovementReceipt || m.Quantity != 10 || m.BalanceBefore != 0 || m.BalanceAfter != 10 {
		t.Errorf("Unexpected initial receipt: %+v", m)
	}
}

func TestStockItem_Create_RejectsNegativeQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	_, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", -1, decimal.Zero)
	if !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestStockItem_WeightedAverageCost(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 100, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 100 @ 200 on hand, receive 100 @ 300: average lands at 250.
	err = items.AdjustStock(ctx, item.ID, 100, core.MovementReceipt, decimal.NewFromInt(300), "Goods receipt", "PO-7")
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityOnHand != 200 {
		t.Errorf("Expected on_hand=200, got %d", item.QuantityOnHand)
	}
	if !item.UnitCost.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected weighted average cost 250, got %s", item.UnitCost)
	}
}

func TestStockItem_Reserve_SplitsOnHandAndBackordered(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 2, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 5); err != nil {
		t.Fatalf("SetBackorderPolicy failed: %v", err)
	}

	orderID := uuid.New()
	if err := items.Reserve(ctx, item.ID, 5, orderID, uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityOnHand != 2 {
		t.Errorf("Reservation must not touch on_hand, got %d", item.QuantityOnHand)
	}
	if item.QuantityReserved != 5 {
		t.Errorf("Expected reserved=5, got %d", item.QuantityReserved)
	}

	units, err := items.Units(ctx, item.ID)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	counts := countUnitsByState(units)
	if counts[core.UnitOnHand] != 2 || counts[core.UnitBackordered] != 3 {
		t.Errorf("Expected 2 on_hand + 3 backordered units, got %v", counts)
	}
	for _, u := range units {
		if u.OrderID == nil || *u.OrderID != orderID {
			t.Errorf("Expected every unit attached to order %s, got %+v", orderID, u)
		}
	}

	// Reservations are promises, not physical changes: the journal stays quiet.
	movements, err := items.Movements(ctx, item.ID)
	if err != nil {
		t.Fatalf("Movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Errorf("Expected only the initial receipt in the journal, got %d entries", len(movements))
	}
}

func TestStockItem_Reserve_InsufficientWithoutBackorder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 2, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = items.Reserve(ctx, item.ID, 5, uuid.New(), uuid.New())
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	// A rejected reservation leaves nothing behind.
	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityReserved != 0 {
		t.Errorf("Expected reserved=0 after rejected reserve, got %d", item.QuantityReserved)
	}
	units, err := items.Units(ctx, item.ID)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("Expected no inventory units after rejected reserve, got %d", len(units))
	}
}

func TestStockItem_Reserve_BackorderLimit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 2, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 2); err != nil {
		t.Fatalf("SetBackorderPolicy failed: %v", err)
	}

	// Deficit would be 3 against a limit of 2.
	err = items.Reserve(ctx, item.ID, 5, uuid.New(), uuid.New())
	if !errors.Is(err, core.ErrBackorderLimitExceeded) {
		t.Errorf("Expected ErrBackorderLimitExceeded, got %v", err)
	}

	// At the limit exactly is allowed.
	if err := items.Reserve(ctx, item.ID, 4, uuid.New(), uuid.New()); err != nil {
		t.Errorf("Reserve at the limit failed: %v", err)
	}
}

func TestStockItem_Adjust_BackfillsBackorderedUnits(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 2, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 10); err != nil {
		t.Fatalf("SetBackorderPolicy failed: %v", err)
	}
	if err := items.Reserve(ctx, item.ID, 5, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// 3 units are backordered; receiving 2 promotes the 2 oldest.
	if err := items.AdjustStock(ctx, item.ID, 2, core.MovementReceipt, decimal.Zero, "Restock", ""); err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	units, err := items.Units(ctx, item.ID)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	counts := countUnitsByState(units)
	if counts[core.UnitOnHand] != 4 || counts[core.UnitBackordered] != 1 {
		t.Errorf("Expected 4 on_hand + 1 backordered after backfill, got %v", counts)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityOnHand != 4 || item.QuantityReserved != 5 {
		t.Errorf("Expected on_hand=4 reserved=5, got %d/%d", item.QuantityOnHand, item.QuantityReserved)
	}
}

func TestStockItem_Adjust_RejectsDeficitBeyondPolicy(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 5, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.Reserve(ctx, item.ID, 5, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Removing 2 would strand 2 promises with backordering disabled.
	err = items.AdjustStock(ctx, item.ID, -2, core.MovementAdjustment, decimal.Zero, "Shrinkage", "")
	if !errors.Is(err, core.ErrBackorderLimitExceeded) {
		t.Fatalf("Expected ErrBackorderLimitExceeded, got %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityOnHand != 5 {
		t.Errorf("Rejected adjustment changed on_hand to %d", item.QuantityOnHand)
	}
}

func TestStockItem_Release(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	orderID := uuid.New()
	if err := items.Reserve(ctx, item.ID, 5, orderID, uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if err := items.Release(ctx, item.ID, 2, orderID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityReserved != 3 {
		t.Errorf("Expected reserved=3 after partial release, got %d", item.QuantityReserved)
	}
	units, err := items.Units(ctx, item.ID)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	counts := countUnitsByState(units)
	if counts[core.UnitCanceled] != 2 || counts[core.UnitOnHand] != 3 {
		t.Errorf("Expected 2 canceled + 3 on_hand units, got %v", counts)
	}

	// Releasing more than is outstanding fails whole, not partially.
	err = items.Release(ctx, item.ID, 4, orderID)
	if !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("Expected ErrInvalidQuantity, got %v", err)
	}
	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityReserved != 3 {
		t.Errorf("Failed release still changed reserved to %d", item.QuantityReserved)
	}
}

func TestStockItem_ReleaseOrder_CompensatesAcrossItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	shirt, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.Zero)
	if err != nil {
		t.Fatalf("Create shirt failed: %v", err)
	}
	mug, err := items.Create(ctx, uuid.New(), loc.ID, "MUG-BLUE", 10, decimal.Zero)
	if err != nil {
		t.Fatalf("Create mug failed: %v", err)
	}

	orderID := uuid.New()
	if err := items.Reserve(ctx, shirt.ID, 3, orderID, uuid.New()); err != nil {
		t.Fatalf("Reserve shirt failed: %v", err)
	}
	if err := items.Reserve(ctx, mug.ID, 2, orderID, uuid.New()); err != nil {
		t.Fatalf("Reserve mug failed: %v", err)
	}
	// An unrelated order must be untouched by the compensation.
	otherOrder := uuid.New()
	if err := items.Reserve(ctx, shirt.ID, 1, otherOrder, uuid.New()); err != nil {
		t.Fatalf("Reserve other order failed: %v", err)
	}

	if err := items.ReleaseOrder(ctx, orderID); err != nil {
		t.Fatalf("ReleaseOrder failed: %v", err)
	}

	if got := mustGetItem(t, ctx, items, shirt.ID).QuantityReserved; got != 1 {
		t.Errorf("Expected shirt reserved=1 (other order only), got %d", got)
	}
	if got := mustGetItem(t, ctx, items, mug.ID).QuantityReserved; got != 0 {
		t.Errorf("Expected mug reserved=0, got %d", got)
	}

	// ReleaseOrder with nothing outstanding is a no-op.
	if err := items.ReleaseOrder(ctx, orderID); err != nil {
		t.Errorf("Repeated ReleaseOrder failed: %v", err)
	}
}

func TestStockItem_Fulfill_ShipsReservedThenDirect(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	orderID := uuid.New()
	if err := items.Reserve(ctx, item.ID, 4, orderID, uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	shipmentID := uuid.New()
	if err := items.Fulfill(ctx, item.ID, 6, shipmentID, "SO-1001"); err != nil {
		t.Fatalf("Fulfill failed: %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if item.QuantityOnHand != 4 || item.QuantityReserved != 0 {
		t.Errorf("Expected on_hand=4 reserved=0 after shipping 6, got %d/%d", item.QuantityOnHand, item.QuantityReserved)
	}

	units, err := items.Units(ctx, item.ID)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	var reservedShipped, directShipped int
	for _, u := range units {
		if u.State != core.UnitShipped {
			t.Errorf("Expected every unit shipped, got %+v", u)
			continue
		}
		if u.ShipmentID == nil || *u.ShipmentID != shipmentID {
			t.Errorf("Shipped unit missing shipment id: %+v", u)
		}
		if u.OrderID != nil {
			reservedShipped++
		} else {
			directShipped++
		}
	}
	if reservedShipped != 4 || directShipped != 2 {
		t.Errorf("Expected 4 reserved + 2 direct-sale units shipped, got %d + %d", reservedShipped, directShipped)
	}

	movements, err := items.Movements(ctx, item.ID)
	if err != nil {
		t.Fatalf("Movements failed: %v", err)
	}
	last := movements[len(movements)-1]
	if last.Type != core.MovementSale || last.Quantity != -6 || last.BalanceBefore != 10 || last.BalanceAfter != 4 {
		t.Errorf("Unexpected sale movement: %+v", last)
	}
	if last.Reference != "SO-1001" {
		t.Errorf("Expected reference SO-1001, got %q", last.Reference)
	}
}

func TestStockItem_Fulfill_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 3, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = items.Fulfill(ctx, item.ID, 5, uuid.New(), "")
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
	if got := mustGetItem(t, ctx, items, item.ID).QuantityOnHand; got != 3 {
		t.Errorf("Failed fulfillment changed on_hand to %d", got)
	}
}

func TestStockItem_MovementChainIsContiguous(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.NewFromInt(12))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.AdjustStock(ctx, item.ID, 5, core.MovementReceipt, decimal.NewFromInt(15), "Restock", "PO-1"); err != nil {
		t.Fatalf("AdjustStock +5 failed: %v", err)
	}
	if err := items.AdjustStock(ctx, item.ID, -3, core.MovementAdjustment, decimal.Zero, "Cycle count", ""); err != nil {
		t.Fatalf("AdjustStock -3 failed: %v", err)
	}
	if err := items.Fulfill(ctx, item.ID, 2, uuid.New(), ""); err != nil {
		t.Fatalf("Fulfill failed: %v", err)
	}

	movements, err := items.Movements(ctx, item.ID)
	if err != nil {
		t.Fatalf("Movements failed: %v", err)
	}
	if len(movements) != 4 {
		t.Fatalf("Expected 4 movements, got %d", len(movements))
	}
	for i, m := range movements {
		if m.BalanceAfter != m.BalanceBefore+m.Quantity {
			t.Errorf("Movement %d breaks its own arithmetic: %+v", i, m)
		}
		if i > 0 && m.BalanceBefore != movements[i-1].BalanceAfter {
			t.Errorf("Movement %d does not chain from its predecessor: %d != %d",
				i, m.BalanceBefore, movements[i-1].BalanceAfter)
		}
	}
	if final := movements[len(movements)-1].BalanceAfter; final != 10 {
		t.Errorf("Expected final balance 10, got %d", final)
	}
}

func TestStockItem_SetBackorderPolicy_RejectsExistingDeficit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 2, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 5); err != nil {
		t.Fatalf("SetBackorderPolicy failed: %v", err)
	}
	// Deficit of 3 is now on the books.
	if err := items.Reserve(ctx, item.ID, 5, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Policies the live deficit already breaches are rejected.
	if err := items.SetBackorderPolicy(ctx, item.ID, false, 0); !errors.Is(err, core.ErrBackorderLimitExceeded) {
		t.Errorf("Expected ErrBackorderLimitExceeded disabling backorders under deficit, got %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 2); !errors.Is(err, core.ErrBackorderLimitExceeded) {
		t.Errorf("Expected ErrBackorderLimitExceeded lowering the limit below the deficit, got %v", err)
	}

	item = mustGetItem(t, ctx, items, item.ID)
	if !item.Backorderable || item.BackorderLimit != 5 {
		t.Errorf("Rejected policy change still applied: %+v", item)
	}

	// Tightening down to the exact deficit is allowed.
	if err := items.SetBackorderPolicy(ctx, item.ID, true, 3); err != nil {
		t.Errorf("SetBackorderPolicy at the exact deficit failed: %v", err)
	}
	if err := items.SetBackorderPolicy(ctx, uuid.New(), true, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestStockItem_SoftDeleteAndRestore(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	locations := core.NewStockLocationService(pool)
	items := core.NewStockItemService(pool, nil)
	loc := seedWarehouse(t, ctx, locations, "MAIN", true, 0)

	item, err := items.Create(ctx, uuid.New(), loc.ID, "SHIRT-M", 10, decimal.Zero)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := items.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	levels, err := items.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("Expected deleted item hidden from stock levels, got %d rows", len(levels))
	}

	// Deleting again is a no-op, deleting the unknown is not.
	if err := items.Delete(ctx, item.ID); err != nil {
		t.Errorf("Repeated delete failed: %v", err)
	}
	if err := items.Delete(ctx, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got %v", err)
	}

	if err := items.Restore(ctx, item.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	levels, err = items.GetStockLevels(ctx)
	if err != nil {
		t.Fatalf("GetStockLevels failed: %v", err)
	}
	if len(levels) != 1 || levels[0].OnHand != 10 {
		t.Errorf("Expected restored item back in stock levels with on_hand=10, got %+v", levels)
	}
}
