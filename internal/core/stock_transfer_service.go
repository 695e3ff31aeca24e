package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferItemInput holds one variant/quantity line for transfer creation.
type TransferItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// StockTransferService runs the location-to-location movement workflow:
// Draft → Shipped → Received, cancelable until received. Shipping deducts the
// source ledger rows, receiving credits the destination rows; both ends go
// through the stock ledger so the movement journal stays complete.
type StockTransferService interface {
	Create(ctx context.Context, sourceLocationID, destinationLocationID uuid.UUID, referenceNumber, reason string, items []TransferItemInput) (*StockTransfer, error)
	// AddItem appends a line to a Draft transfer, merging quantity into an
	// existing line for the same variant.
	AddItem(ctx context.Context, transferID, variantID uuid.UUID, quantity int) error
	Get(ctx context.Context, transferID uuid.UUID) (*StockTransfer, error)
	Ship(ctx context.Context, transferID uuid.UUID) error
	Receive(ctx context.Context, transferID uuid.UUID) error
	Cancel(ctx context.Context, transferID uuid.UUID) error
}

type stockTransferService struct {
	pool    *pgxpool.Pool
	items   StockItemService
	catalog CatalogService
	logger  *zap.Logger
}

// NewStockTransferService constructs a StockTransferService. A nil logger
// disables logging.
func NewStockTransferService(pool *pgxpool.Pool, items StockItemService, catalog CatalogService, logger *zap.Logger) StockTransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockTransferService{pool: pool, items: items, catalog: catalog, logger: logger}
}

func (s *stockTransferService) Create(ctx context.Context, sourceLocationID, destinationLocationID uuid.UUID, referenceNumber, reason string, items []TransferItemInput) (*StockTransfer, error) {
	if sourceLocationID == destinationLocationID {
		return nil, fmt.Errorf("%w: %s", ErrSameLocation, sourceLocationID)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: transfer quantity %d for variant %s must be positive",
				ErrInvalidQuantity, item.Quantity, item.VariantID)
		}
	}
	if referenceNumber == "" {
		referenceNumber = "TRF-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var toReason *string
	if reason != "" {
		toReason = &reason
	}

	var transferID uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_transfers (reference_number, source_location_id, destination_location_id, status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, referenceNumber, sourceLocationID, destinationLocationID, TransferDraft, toReason).Scan(&transferID); err != nil {
		return nil, fmt.Errorf("failed to insert stock transfer: %w", err)
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_transfer_items (stock_transfer_id, variant_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (stock_transfer_id, variant_id) DO UPDATE SET quantity = stock_transfer_items.quantity + EXCLUDED.quantity
		`, transferID, item.VariantID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to insert transfer item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer creation: %w", err)
	}

	s.logger.Info("stock transfer created",
		zap.String("transfer_id", transferID.String()),
		zap.String("reference", referenceNumber),
		zap.Int("items", len(items)))
	return s.Get(ctx, transferID)
}

func (s *stockTransferService) AddItem(ctx context.Context, transferID, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: transfer quantity %d must be positive", ErrInvalidQuantity, quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := lockTransfer(ctx, tx, transferID)
	if err != nil {
		return err
	}
	if transfer.Status != TransferDraft {
		return fmt.Errorf("%w: cannot add items to a %s transfer", ErrInvalidStateTransition, transfer.Status)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_transfer_items (stock_transfer_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (stock_transfer_id, variant_id) DO UPDATE SET quantity = stock_transfer_items.quantity + EXCLUDED.quantity
	`, transferID, variantID, quantity); err != nil {
		return fmt.Errorf("failed to upsert transfer item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer item: %w", err)
	}
	return nil
}

func (s *stockTransferService) Get(ctx context.Context, transferID uuid.UUID) (*StockTransfer, error) {
	transfer, err := scanTransfer(s.pool.QueryRow(ctx,
		"SELECT "+transferColumns+" FROM stock_transfers WHERE id = $1", transferID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock transfer %s", ErrNotFound, transferID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock transfer: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_transfer_id, variant_id, quantity
		FROM stock_transfer_items
		WHERE stock_transfer_id = $1
		ORDER BY variant_id
	`, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item StockTransferItem
		if err := rows.Scan(&item.ID, &item.StockTransferID, &item.VariantID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan transfer item: %w", err)
		}
		transfer.Items = append(transfer.Items, item)
	}
	return transfer, rows.Err()
}

// Ship deducts every line from the source location and puts the transfer in
// transit. Fails without side effects if any source row lacks the stock.
func (s *stockTransferService) Ship(ctx context.Context, transferID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := lockTransfer(ctx, tx, transferID)
	if err != nil {
		return err
	}
	if transfer.Status != TransferDraft {
		return fmt.Errorf("%w: cannot ship a %s transfer", ErrInvalidStateTransition, transfer.Status)
	}

	items, err := transferItemsTx(ctx, tx, transferID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: transfer %s", ErrEmptyTransfer, transfer.ReferenceNumber)
	}

	for _, item := range items {
		source, err := stockItemAtTx(ctx, tx, item.VariantID, transfer.SourceLocationID)
		if err != nil {
			return err
		}
		if err := s.items.AdjustStockTx(ctx, tx, source.ID, -item.Quantity, MovementTransfer, source.UnitCost,
			"Transfer Out: "+transfer.ReferenceNumber, transfer.ID.String()); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE stock_transfers SET status = $1, shipped_at = NOW() WHERE id = $2",
		TransferShipped, transferID); err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer shipment: %w", err)
	}

	s.logger.Info("stock transfer shipped",
		zap.String("transfer_id", transferID.String()),
		zap.String("reference", transfer.ReferenceNumber))
	return nil
}

// Receive credits every line at the destination, creating missing ledger rows
// with a catalog SKU (or a deterministic placeholder when the catalog does
// not know the variant).
func (s *stockTransferService) Receive(ctx context.Context, transferID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := lockTransfer(ctx, tx, transferID)
	if err != nil {
		return err
	}
	if transfer.Status != TransferShipped {
		return fmt.Errorf("%w: cannot receive a %s transfer", ErrInvalidStateTransition, transfer.Status)
	}

	items, err := transferItemsTx(ctx, tx, transferID)
	if err != nil {
		return err
	}

	for _, item := range items {
		dest, err := stockItemAtTx(ctx, tx, item.VariantID, transfer.DestinationLocationID)
		if errors.Is(err, ErrNotFound) {
			sku := fallbackSKU(item.VariantID)
			if variant, catErr := s.catalog.GetVariant(ctx, item.VariantID); catErr == nil {
				sku = variant.SKU
			}
			dest, err = s.items.CreateTx(ctx, tx, item.VariantID, transfer.DestinationLocationID, sku, 0, decimal.Zero)
		}
		if err != nil {
			return err
		}
		if err := s.items.AdjustStockTx(ctx, tx, dest.ID, item.Quantity, MovementTransfer, dest.UnitCost,
			"Transfer In: "+transfer.ReferenceNumber, transfer.ID.String()); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE stock_transfers SET status = $1, received_at = NOW() WHERE id = $2",
		TransferReceived, transferID); err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer receipt: %w", err)
	}

	s.logger.Info("stock transfer received",
		zap.String("transfer_id", transferID.String()),
		zap.String("reference", transfer.ReferenceNumber))
	return nil
}

// Cancel aborts a Draft or Shipped transfer. Canceling a shipped transfer
// returns the in-transit stock to the source location.
func (s *stockTransferService) Cancel(ctx context.Context, transferID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	transfer, err := lockTransfer(ctx, tx, transferID)
	if err != nil {
		return err
	}
	switch transfer.Status {
	case TransferDraft, TransferShipped:
	default:
		return fmt.Errorf("%w: cannot cancel a %s transfer", ErrInvalidStateTransition, transfer.Status)
	}

	if transfer.Status == TransferShipped {
		items, err := transferItemsTx(ctx, tx, transferID)
		if err != nil {
			return err
		}
		for _, item := range items {
			source, err := stockItemAtTx(ctx, tx, item.VariantID, transfer.SourceLocationID)
			if err != nil {
				return err
			}
			if err := s.items.AdjustStockTx(ctx, tx, source.ID, item.Quantity, MovementTransfer, source.UnitCost,
				"Transfer Canceled: "+transfer.ReferenceNumber, transfer.ID.String()); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE stock_transfers SET status = $1, canceled_at = NOW() WHERE id = $2",
		TransferCanceled, transferID); err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer cancellation: %w", err)
	}
	return nil
}

// ── Shared helpers ────────────────────────────────────────────────────────────

const transferColumns = `id, reference_number, source_location_id, destination_location_id, status, reason,
       created_at, shipped_at, received_at, canceled_at`

func scanTransfer(row pgx.Row) (*StockTransfer, error) {
	var t StockTransfer
	err := row.Scan(&t.ID, &t.ReferenceNumber, &t.SourceLocationID, &t.DestinationLocationID, &t.Status, &t.Reason,
		&t.CreatedAt, &t.ShippedAt, &t.ReceivedAt, &t.CanceledAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func lockTransfer(ctx context.Context, tx pgx.Tx, transferID uuid.UUID) (*StockTransfer, error) {
	transfer, err := scanTransfer(tx.QueryRow(ctx,
		"SELECT "+transferColumns+" FROM stock_transfers WHERE id = $1 FOR UPDATE", transferID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock transfer %s", ErrNotFound, transferID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock transfer: %w", err)
	}
	return transfer, nil
}

func transferItemsTx(ctx context.Context, tx pgx.Tx, transferID uuid.UUID) ([]StockTransferItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, stock_transfer_id, variant_id, quantity
		FROM stock_transfer_items
		WHERE stock_transfer_id = $1
		ORDER BY variant_id
	`, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer items: %w", err)
	}
	defer rows.Close()

	var items []StockTransferItem
	for rows.Next() {
		var item StockTransferItem
		if err := rows.Scan(&item.ID, &item.StockTransferID, &item.VariantID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan transfer item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func stockItemAtTx(ctx context.Context, tx pgx.Tx, variantID, locationID uuid.UUID) (*StockItem, error) {
	item, err := scanStockItem(tx.QueryRow(ctx,
		"SELECT "+stockItemColumns+" FROM stock_items WHERE variant_id = $1 AND stock_location_id = $2",
		variantID, locationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock item for variant %s at location %s", ErrNotFound, variantID, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock item: %w", err)
	}
	return item, nil
}
