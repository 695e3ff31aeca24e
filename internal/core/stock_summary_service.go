package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// StockSummaryService maintains the per-variant availability projection. The
// projection is a cache over the ledger; callers invalidate it by invoking
// Rebuild after mutating any stock item of the variant.
type StockSummaryService interface {
	// Rebuild recomputes the projection from the live ledger rows of the
	// variant and upserts it.
	Rebuild(ctx context.Context, variantID uuid.UUID) (*StockSummary, error)
	Get(ctx context.Context, variantID uuid.UUID) (*StockSummary, error)
}

type stockSummaryService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStockSummaryService constructs a StockSummaryService. A nil logger
// disables logging.
func NewStockSummaryService(pool *pgxpool.Pool, logger *zap.Logger) StockSummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockSummaryService{pool: pool, logger: logger}
}

func (s *stockSummaryService) Rebuild(ctx context.Context, variantID uuid.UUID) (*StockSummary, error) {
	var totalOnHand, totalReserved int
	var backorderable bool
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty_on_hand), 0),
		       COALESCE(SUM(qty_reserved), 0),
		       COALESCE(BOOL_OR(backorderable), false)
		FROM stock_items
		WHERE variant_id = $1 AND deleted_at IS NULL
	`, variantID).Scan(&totalOnHand, &totalReserved, &backorderable)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger totals: %w", err)
	}

	summary := ComputeSummary(variantID, totalOnHand, totalReserved, backorderable)

	err = s.pool.QueryRow(ctx, `
		INSERT INTO stock_summaries (variant_id, total_on_hand, total_reserved, total_available, backorderable, is_buyable, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (variant_id) DO UPDATE SET
			total_on_hand = EXCLUDED.total_on_hand,
			total_reserved = EXCLUDED.total_reserved,
			total_available = EXCLUDED.total_available,
			backorderable = EXCLUDED.backorderable,
			is_buyable = EXCLUDED.is_buyable,
			updated_at = NOW()
		RETURNING updated_at
	`, summary.VariantID, summary.TotalOnHand, summary.TotalReserved, summary.TotalAvailable,
		summary.Backorderable, summary.IsBuyable).Scan(&summary.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert stock summary: %w", err)
	}

	s.logger.Debug("stock summary rebuilt",
		zap.String("variant_id", variantID.String()),
		zap.Int("total_available", summary.TotalAvailable),
		zap.Bool("is_buyable", summary.IsBuyable))
	return &summary, nil
}

func (s *stockSummaryService) Get(ctx context.Context, variantID uuid.UUID) (*StockSummary, error) {
	var sum StockSummary
	err := s.pool.QueryRow(ctx, `
		SELECT variant_id, total_on_hand, total_reserved, total_available, backorderable, is_buyable, updated_at
		FROM stock_summaries
		WHERE variant_id = $1
	`, variantID).Scan(&sum.VariantID, &sum.TotalOnHand, &sum.TotalReserved, &sum.TotalAvailable,
		&sum.Backorderable, &sum.IsBuyable, &sum.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock summary for variant %s", ErrNotFound, variantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock summary: %w", err)
	}
	return &sum, nil
}
