package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// FulfillmentPlanner proposes how to split requested items across the
// location network. Planning is a pure simulation: it reads the ledger, takes
// no locks and persists nothing.
type FulfillmentPlanner interface {
	// Plan allocates requestedItems (variant id → quantity) over the eligible
	// locations. addressHint is accepted for strategy implementations that
	// weigh proximity; the default greedy strategy ignores it.
	Plan(ctx context.Context, requestedItems map[uuid.UUID]int, scope PlanScope, addressHint *uuid.UUID) (*FulfillmentPlan, error)
}

type fulfillmentPlanner struct {
	pool      *pgxpool.Pool
	locations StockLocationService
	strategy  FulfillmentStrategy
	logger    *zap.Logger
}

// NewFulfillmentPlanner constructs a planner. A nil strategy selects the
// greedy minimal-splits strategy; a nil logger disables logging.
func NewFulfillmentPlanner(pool *pgxpool.Pool, locations StockLocationService, strategy FulfillmentStrategy, logger *zap.Logger) FulfillmentPlanner {
	if strategy == nil {
		strategy = GreedyStrategy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fulfillmentPlanner{pool: pool, locations: locations, strategy: strategy, logger: logger}
}

func (p *fulfillmentPlanner) Plan(ctx context.Context, requestedItems map[uuid.UUID]int, scope PlanScope, addressHint *uuid.UUID) (*FulfillmentPlan, error) {
	if len(requestedItems) == 0 {
		return nil, fmt.Errorf("%w: requested items are empty", ErrEmptyOrder)
	}

	locations, err := p.locations.EligibleLocations(ctx, scope.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to discover fulfillment network: %w", err)
	}
	if len(locations) == 0 {
		return nil, ErrNoFulfillableLocations
	}

	// One set-based query for all requested variants across the eligible
	// network, regardless of how many items the order carries.
	variantIDs := make([]uuid.UUID, 0, len(requestedItems))
	for id := range requestedItems {
		variantIDs = append(variantIDs, id)
	}
	locationIDs := make([]uuid.UUID, 0, len(locations))
	for _, l := range locations {
		locationIDs = append(locationIDs, l.ID)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+stockItemColumns+`
		FROM stock_items
		WHERE variant_id = ANY($1) AND stock_location_id = ANY($2) AND deleted_at IS NULL
		ORDER BY created_at, id
	`, variantIDs, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk-load stock items: %w", err)
	}
	defer rows.Close()

	var stock []StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		stock = append(stock, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock items: %w", err)
	}

	plan, err := p.strategy.Allocate(locations, stock, requestedItems)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("fulfillment plan created",
		zap.Int("requested_variants", len(requestedItems)),
		zap.Int("eligible_locations", len(locations)),
		zap.Int("shipments", len(plan.Shipments)),
		zap.Bool("address_hint", addressHint != nil))
	return plan, nil
}
