package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockItemService is the stock ledger. Every mutation locks the stock item
// row, applies counters, inventory units and the movement journal in one
// transaction, and either fully commits or leaves nothing behind.
type StockItemService interface {
	// Create opens a new ledger row for (variant, location) with an initial
	// receipt. Fails with InvalidQuantity if initialQuantity < 0.
	Create(ctx context.Context, variantID, locationID uuid.UUID, sku string, initialQuantity int, unitCost decimal.Decimal) (*StockItem, error)
	Get(ctx context.Context, stockItemID uuid.UUID) (*StockItem, error)
	GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*StockItem, error)
	// GetStockLevels returns every live ledger row joined with its location.
	GetStockLevels(ctx context.Context) ([]StockLevel, error)
	// Movements returns the ordered journal of a stock item, oldest first.
	Movements(ctx context.Context, stockItemID uuid.UUID) ([]StockMovement, error)
	// Units returns the inventory units of a stock item, oldest first.
	Units(ctx context.Context, stockItemID uuid.UUID) ([]InventoryUnit, error)

	// AdjustStock applies a signed delta to quantity_on_hand and journals it.
	// Positive deltas backfill the oldest backordered units first.
	AdjustStock(ctx context.Context, stockItemID uuid.UUID, delta int, movementType StockMovementType, unitCost decimal.Decimal, reason, reference string) error
	// Reserve promises quantity units to an order line, creating one
	// inventory unit per promised unit (OnHand while physical stock covers
	// the promise, Backordered beyond that when the policy allows).
	Reserve(ctx context.Context, stockItemID uuid.UUID, quantity int, orderID, lineItemID uuid.UUID) error
	// Release cancels up to quantity live units promised to orderID, oldest
	// first. Fails with InvalidQuantity if fewer are outstanding.
	Release(ctx context.Context, stockItemID uuid.UUID, quantity int, orderID uuid.UUID) error
	// ReleaseOrder cancels every outstanding promise of an order across all
	// stock items in one transaction: the saga compensation primitive.
	ReleaseOrder(ctx context.Context, orderID uuid.UUID) error
	// Fulfill ships quantity units: reserved OnHand units first, the rest
	// directly from unreserved physical stock.
	Fulfill(ctx context.Context, stockItemID uuid.UUID, quantity int, shipmentID uuid.UUID, reference string) error

	// SetBackorderPolicy updates the backorder policy. A policy the item's
	// current deficit already breaches is rejected.
	SetBackorderPolicy(ctx context.Context, stockItemID uuid.UUID, allowed bool, limit int) error
	Delete(ctx context.Context, stockItemID uuid.UUID) error
	Restore(ctx context.Context, stockItemID uuid.UUID) error

	// TX-scoped variants: run inside a caller-provided transaction so
	// composite flows (stock transfers, order sagas) stay atomic.
	CreateTx(ctx context.Context, tx pgx.Tx, variantID, locationID uuid.UUID, sku string, initialQuantity int, unitCost decimal.Decimal) (*StockItem, error)
	AdjustStockTx(ctx context.Context, tx pgx.Tx, stockItemID uuid.UUID, delta int, movementType StockMovementType, unitCost decimal.Decimal, reason, reference string) error
}

type stockItemService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStockItemService constructs a StockItemService backed by PostgreSQL.
// A nil logger disables logging.
func NewStockItemService(pool *pgxpool.Pool, logger *zap.Logger) StockItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockItemService{pool: pool, logger: logger}
}

const stockItemColumns = `id, variant_id, stock_location_id, sku, qty_on_hand, qty_reserved,
       backorderable, backorder_limit, unit_cost, deleted_at, created_at, updated_at`

func scanStockItem(row pgx.Row) (*StockItem, error) {
	var s StockItem
	err := row.Scan(&s.ID, &s.VariantID, &s.StockLocationID, &s.SKU, &s.QuantityOnHand, &s.QuantityReserved,
		&s.Backorderable, &s.BackorderLimit, &s.UnitCost, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *stockItemService) Get(ctx context.Context, stockItemID uuid.UUID) (*StockItem, error) {
	item, err := scanStockItem(s.pool.QueryRow(ctx,
		"SELECT "+stockItemColumns+" FROM stock_items WHERE id = $1", stockItemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock item %s", ErrNotFound, stockItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock item: %w", err)
	}
	return item, nil
}

func (s *stockItemService) GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*StockItem, error) {
	item, err := scanStockItem(s.pool.QueryRow(ctx,
		"SELECT "+stockItemColumns+" FROM stock_items WHERE variant_id = $1 AND stock_location_id = $2", variantID, locationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock item for variant %s at location %s", ErrNotFound, variantID, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock item: %w", err)
	}
	return item, nil
}

func (s *stockItemService) GetStockLevels(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.sku, l.code, l.name,
		       si.qty_on_hand, si.qty_reserved,
		       si.qty_on_hand - si.qty_reserved AS available,
		       si.unit_cost
		FROM stock_items si
		JOIN stock_locations l ON l.id = si.stock_location_id
		WHERE si.deleted_at IS NULL
		ORDER BY si.sku, l.code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.SKU, &sl.LocationCode, &sl.LocationName,
			&sl.OnHand, &sl.Reserved, &sl.Available, &sl.UnitCost); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *stockItemService) Movements(ctx context.Context, stockItemID uuid.UUID) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_item_id, movement_type, quantity, balance_before, balance_after,
		       unit_cost, reason, reference, occurred_at
		FROM stock_movements
		WHERE stock_item_id = $1
		ORDER BY seq
	`, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.StockItemID, &m.Type, &m.Quantity, &m.BalanceBefore, &m.BalanceAfter,
			&m.UnitCost, &m.Reason, &m.Reference, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *stockItemService) Units(ctx context.Context, stockItemID uuid.UUID) ([]InventoryUnit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_item_id, variant_id, stock_location_id, order_id, line_item_id,
		       shipment_id, state, serial_number, created_at
		FROM inventory_units
		WHERE stock_item_id = $1
		ORDER BY seq
	`, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory units: %w", err)
	}
	defer rows.Close()

	var units []InventoryUnit
	for rows.Next() {
		var u InventoryUnit
		if err := rows.Scan(&u.ID, &u.StockItemID, &u.VariantID, &u.StockLocationID, &u.OrderID, &u.LineItemID,
			&u.ShipmentID, &u.State, &u.SerialNumber, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *stockItemService) Create(ctx context.Context, variantID, locationID uuid.UUID, sku string, initialQuantity int, unitCost decimal.Decimal) (*StockItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := s.CreateTx(ctx, tx, variantID, locationID, sku, initialQuantity, unitCost)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock item creation: %w", err)
	}
	return item, nil
}

func (s *stockItemService) CreateTx(ctx context.Context, tx pgx.Tx, variantID, locationID uuid.UUID, sku string, initialQuantity int, unitCost decimal.Decimal) (*StockItem, error) {
	if initialQuantity < 0 {
		return nil, fmt.Errorf("%w: initial quantity %d must not be negative", ErrInvalidQuantity, initialQuantity)
	}

	item, err := scanStockItem(tx.QueryRow(ctx, `
		INSERT INTO stock_items (variant_id, stock_location_id, sku, qty_on_hand, qty_reserved, backorderable, backorder_limit, unit_cost)
		VALUES ($1, $2, $3, $4, 0, false, 0, $5)
		RETURNING `+stockItemColumns,
		variantID, locationID, sku, initialQuantity, unitCost))
	if err != nil {
		return nil, fmt.Errorf("failed to insert stock item: %w", err)
	}

	if err := insertMovement(ctx, tx, item.ID, MovementReceipt, initialQuantity, 0, initialQuantity, unitCost, "Initial receipt", ""); err != nil {
		return nil, err
	}

	s.logger.Info("stock item created",
		zap.String("stock_item_id", item.ID.String()),
		zap.String("sku", sku),
		zap.Int("initial_quantity", initialQuantity))
	return item, nil
}

// ── Adjust ────────────────────────────────────────────────────────────────────

func (s *stockItemService) AdjustStock(ctx context.Context, stockItemID uuid.UUID, delta int, movementType StockMovementType, unitCost decimal.Decimal, reason, reference string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.AdjustStockTx(ctx, tx, stockItemID, delta, movementType, unitCost, reason, reference); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return nil
}

func (s *stockItemService) AdjustStockTx(ctx context.Context, tx pgx.Tx, stockItemID uuid.UUID, delta int, movementType StockMovementType, unitCost decimal.Decimal, reason, reference string) error {
	item, err := lockStockItem(ctx, tx, stockItemID)
	if err != nil {
		return err
	}

	newOnHand := item.QuantityOnHand + delta

	// Guard: the promise deficit after the adjustment must stay within policy.
	deficit := item.QuantityReserved - newOnHand
	if deficit > 0 {
		if !item.Backorderable || deficit > item.BackorderLimit {
			return fmt.Errorf("%w: adjustment of %d would leave deficit %d (limit %d)",
				ErrBackorderLimitExceeded, delta, deficit, item.BackorderLimit)
		}
	}

	// Backfill: incoming stock promotes the oldest backordered promises. The
	// promise was already counted in qty_reserved, so only unit states move.
	if delta > 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE inventory_units SET state = $1
			WHERE id IN (
				SELECT id FROM inventory_units
				WHERE stock_item_id = $2 AND state = $3
				ORDER BY seq
				LIMIT $4
			)
		`, UnitOnHand, stockItemID, UnitBackordered, delta)
		if err != nil {
			return fmt.Errorf("failed to backfill backordered units: %w", err)
		}
		if n := tag.RowsAffected(); n > 0 {
			s.logger.Info("backordered units backfilled",
				zap.String("stock_item_id", stockItemID.String()),
				zap.Int64("units", n))
		}
	}

	// Weighted average cost on incoming stock, following goods-receipt
	// costing; outgoing stock keeps the current average.
	newCost := item.UnitCost
	if delta > 0 && !unitCost.IsZero() {
		oldQty := decimal.NewFromInt(int64(item.QuantityOnHand))
		addQty := decimal.NewFromInt(int64(delta))
		total := oldQty.Add(addQty)
		if total.IsPositive() {
			newCost = oldQty.Mul(item.UnitCost).Add(addQty.Mul(unitCost)).Div(total)
		} else {
			newCost = unitCost
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE stock_items SET qty_on_hand = $1, unit_cost = $2, updated_at = NOW()
		WHERE id = $3
	`, newOnHand, newCost, stockItemID)
	if err != nil {
		return fmt.Errorf("failed to update stock item: %w", err)
	}

	return insertMovement(ctx, tx, stockItemID, movementType, delta, item.QuantityOnHand, newOnHand, unitCost, reason, reference)
}

// ── Reserve ───────────────────────────────────────────────────────────────────

func (s *stockItemService) Reserve(ctx context.Context, stockItemID uuid.UUID, quantity int, orderID, lineItemID uuid.UUID) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: reserve quantity %d must be positive", ErrInvalidQuantity, quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockStockItem(ctx, tx, stockItemID)
	if err != nil {
		return err
	}

	physical := item.QuantityOnHand - item.QuantityReserved
	if physical < 0 {
		physical = 0
	}
	onHandCount := quantity
	if onHandCount > physical {
		onHandCount = physical
	}
	backordered := quantity - onHandCount

	if backordered > 0 {
		if !item.Backorderable {
			return fmt.Errorf("%w: %d available, %d requested and backordering is disabled",
				ErrInsufficientStock, physical, quantity)
		}
		if deficit := item.QuantityReserved + quantity - item.QuantityOnHand; deficit > item.BackorderLimit {
			return fmt.Errorf("%w: reservation would leave deficit %d (limit %d)",
				ErrBackorderLimitExceeded, deficit, item.BackorderLimit)
		}
	}

	for i := 0; i < quantity; i++ {
		state := UnitOnHand
		if i >= onHandCount {
			state = UnitBackordered
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_units (stock_item_id, variant_id, stock_location_id, order_id, line_item_id, state)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.VariantID, item.StockLocationID, orderID, lineItemID, state); err != nil {
			return fmt.Errorf("failed to insert inventory unit: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock_items SET qty_reserved = qty_reserved + $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, stockItemID); err != nil {
		return fmt.Errorf("failed to update reservation counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	s.logger.Info("stock reserved",
		zap.String("stock_item_id", stockItemID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int("on_hand_units", onHandCount),
		zap.Int("backordered_units", backordered))
	return nil
}

// ── Release ───────────────────────────────────────────────────────────────────

func (s *stockItemService) Release(ctx context.Context, stockItemID uuid.UUID, quantity int, orderID uuid.UUID) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: release quantity %d must be positive", ErrInvalidQuantity, quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockStockItem(ctx, tx, stockItemID); err != nil {
		return err
	}
	if err := releaseUnitsTx(ctx, tx, stockItemID, quantity, orderID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}

	s.logger.Info("reservation released",
		zap.String("stock_item_id", stockItemID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int("quantity", quantity))
	return nil
}

func (s *stockItemService) ReleaseOrder(ctx context.Context, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Stable item order keeps lock acquisition deadlock-free when two
	// compensations overlap.
	rows, err := tx.Query(ctx, `
		SELECT stock_item_id, COUNT(*)
		FROM inventory_units
		WHERE order_id = $1 AND state IN ($2, $3)
		GROUP BY stock_item_id
		ORDER BY stock_item_id
	`, orderID, UnitOnHand, UnitBackordered)
	if err != nil {
		return fmt.Errorf("failed to query outstanding units for order: %w", err)
	}

	type outstanding struct {
		itemID uuid.UUID
		count  int
	}
	var pending []outstanding
	for rows.Next() {
		var o outstanding
		if err := rows.Scan(&o.itemID, &o.count); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan outstanding units: %w", err)
		}
		pending = append(pending, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating outstanding units: %w", err)
	}

	for _, o := range pending {
		if _, err := lockStockItem(ctx, tx, o.itemID); err != nil {
			return err
		}
		if err := releaseUnitsTx(ctx, tx, o.itemID, o.count, orderID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order release: %w", err)
	}

	s.logger.Info("order reservations released",
		zap.String("order_id", orderID.String()),
		zap.Int("stock_items", len(pending)))
	return nil
}

// releaseUnitsTx cancels the oldest `quantity` live units of orderID on one
// stock item. The caller must already hold the item row lock.
func releaseUnitsTx(ctx context.Context, tx pgx.Tx, stockItemID uuid.UUID, quantity int, orderID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE inventory_units SET state = $1
		WHERE id IN (
			SELECT id FROM inventory_units
			WHERE stock_item_id = $2 AND order_id = $3 AND state IN ($4, $5)
			ORDER BY seq
			LIMIT $6
		)
	`, UnitCanceled, stockItemID, orderID, UnitOnHand, UnitBackordered, quantity)
	if err != nil {
		return fmt.Errorf("failed to cancel inventory units: %w", err)
	}
	if int(tag.RowsAffected()) < quantity {
		return fmt.Errorf("%w: %d units reserved for order %s, release of %d requested",
			ErrInvalidQuantity, tag.RowsAffected(), orderID, quantity)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock_items SET qty_reserved = qty_reserved - $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, stockItemID); err != nil {
		return fmt.Errorf("failed to update reservation counter: %w", err)
	}
	return nil
}

// ── Fulfill ───────────────────────────────────────────────────────────────────

func (s *stockItemService) Fulfill(ctx context.Context, stockItemID uuid.UUID, quantity int, shipmentID uuid.UUID, reference string) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: fulfill quantity %d must be positive", ErrInvalidQuantity, quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockStockItem(ctx, tx, stockItemID)
	if err != nil {
		return err
	}

	// Backordered promises have no physical unit behind them, so shipping can
	// never exceed what is on the shelf regardless of backorder policy.
	if quantity > item.QuantityOnHand {
		return fmt.Errorf("%w: %d on hand, %d requested for shipment",
			ErrInsufficientStock, item.QuantityOnHand, quantity)
	}

	// Ship reserved units first, oldest promise first.
	tag, err := tx.Exec(ctx, `
		UPDATE inventory_units SET state = $1, shipment_id = $2
		WHERE id IN (
			SELECT id FROM inventory_units
			WHERE stock_item_id = $3 AND state = $4
			ORDER BY seq
			LIMIT $5
		)
	`, UnitShipped, shipmentID, stockItemID, UnitOnHand, quantity)
	if err != nil {
		return fmt.Errorf("failed to ship reserved units: %w", err)
	}
	shippedReserved := int(tag.RowsAffected())

	// Direct-sale path: the remainder ships straight from unreserved physical
	// stock, creating shipped units on the fly with no order attached.
	for i := shippedReserved; i < quantity; i++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_units (stock_item_id, variant_id, stock_location_id, shipment_id, state)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, item.VariantID, item.StockLocationID, shipmentID, UnitShipped); err != nil {
			return fmt.Errorf("failed to insert direct-sale unit: %w", err)
		}
	}

	newOnHand := item.QuantityOnHand - quantity
	if _, err := tx.Exec(ctx, `
		UPDATE stock_items
		SET qty_on_hand = $1, qty_reserved = qty_reserved - $2, updated_at = NOW()
		WHERE id = $3
	`, newOnHand, shippedReserved, stockItemID); err != nil {
		return fmt.Errorf("failed to update counters for shipment: %w", err)
	}

	if err := insertMovement(ctx, tx, stockItemID, MovementSale, -quantity, item.QuantityOnHand, newOnHand, item.UnitCost,
		fmt.Sprintf("Shipped %d units", quantity), reference); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit fulfillment: %w", err)
	}

	s.logger.Info("stock fulfilled",
		zap.String("stock_item_id", stockItemID.String()),
		zap.String("shipment_id", shipmentID.String()),
		zap.Int("reserved_units", shippedReserved),
		zap.Int("direct_sale_units", quantity-shippedReserved))
	return nil
}

// ── Policy and soft delete ────────────────────────────────────────────────────

func (s *stockItemService) SetBackorderPolicy(ctx context.Context, stockItemID uuid.UUID, allowed bool, limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: backorder limit %d must not be negative", ErrInvalidQuantity, limit)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockStockItem(ctx, tx, stockItemID)
	if err != nil {
		return err
	}

	// A policy change must hold for the deficit the ledger already carries;
	// otherwise the item would sit in a state every mutation rejects.
	if deficit := item.QuantityReserved - item.QuantityOnHand; deficit > 0 {
		if !allowed || deficit > limit {
			return fmt.Errorf("%w: current deficit %d does not fit the new policy (limit %d)",
				ErrBackorderLimitExceeded, deficit, limit)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock_items SET backorderable = $1, backorder_limit = $2, updated_at = NOW()
		WHERE id = $3
	`, allowed, limit, stockItemID); err != nil {
		return fmt.Errorf("failed to update backorder policy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit backorder policy: %w", err)
	}
	return nil
}

func (s *stockItemService) Delete(ctx context.Context, stockItemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE stock_items SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", stockItemID)
	if err != nil {
		return fmt.Errorf("failed to delete stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already deleted is a no-op, unknown id is not.
		if _, err := s.Get(ctx, stockItemID); err != nil {
			return err
		}
	}
	return nil
}

func (s *stockItemService) Restore(ctx context.Context, stockItemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE stock_items SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL", stockItemID)
	if err != nil {
		return fmt.Errorf("failed to restore stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, stockItemID); err != nil {
			return err
		}
	}
	return nil
}

// ── Shared helpers ────────────────────────────────────────────────────────────

// lockStockItem takes the row lock that serializes all ledger mutations of
// one stock item.
func lockStockItem(ctx context.Context, tx pgx.Tx, stockItemID uuid.UUID) (*StockItem, error) {
	item, err := scanStockItem(tx.QueryRow(ctx,
		"SELECT "+stockItemColumns+" FROM stock_items WHERE id = $1 FOR UPDATE", stockItemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock item %s", ErrNotFound, stockItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock item: %w", err)
	}
	return item, nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, stockItemID uuid.UUID, movementType StockMovementType,
	quantity, balanceBefore, balanceAfter int, unitCost decimal.Decimal, reason, reference string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (stock_item_id, movement_type, quantity, balance_before, balance_after, unit_cost, reason, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, stockItemID, movementType, quantity, balanceBefore, balanceAfter, unitCost, reason, reference)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}
