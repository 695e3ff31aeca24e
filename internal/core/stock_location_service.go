package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockLocationService manages the fulfillment network nodes. The planner and
// the ledger only read locations; mutation belongs to admin tooling.
type StockLocationService interface {
	Create(ctx context.Context, name, code, address string, locType LocationType, isDefault bool, priority int) (*StockLocation, error)
	Get(ctx context.Context, locationID uuid.UUID) (*StockLocation, error)
	List(ctx context.Context) ([]StockLocation, error)
	SetActive(ctx context.Context, locationID uuid.UUID, active bool) error
	Delete(ctx context.Context, locationID uuid.UUID) error
	Restore(ctx context.Context, locationID uuid.UUID) error
	// LinkStore attaches a location to a store's fulfillment network with a
	// per-store priority.
	LinkStore(ctx context.Context, storeID, locationID uuid.UUID, priority int) error
	// EligibleLocations returns the locations planning may use: live, active
	// and fulfillable, ordered default-first then by ascending priority. With
	// a store scope only locations actively linked to that store qualify,
	// ordered by the link's priority.
	EligibleLocations(ctx context.Context, storeID *uuid.UUID) ([]StockLocation, error)
}

type stockLocationService struct {
	pool *pgxpool.Pool
}

// NewStockLocationService constructs a StockLocationService backed by PostgreSQL.
func NewStockLocationService(pool *pgxpool.Pool) StockLocationService {
	return &stockLocationService{pool: pool}
}

const stockLocationColumns = `id, name, code, address, location_type, active, is_default, priority, deleted_at, created_at`

func scanStockLocation(row pgx.Row) (*StockLocation, error) {
	var l StockLocation
	err := row.Scan(&l.ID, &l.Name, &l.Code, &l.Address, &l.Type, &l.Active, &l.IsDefault, &l.Priority, &l.DeletedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *stockLocationService) Create(ctx context.Context, name, code, address string, locType LocationType, isDefault bool, priority int) (*StockLocation, error) {
	loc, err := scanStockLocation(s.pool.QueryRow(ctx, `
		INSERT INTO stock_locations (name, code, address, location_type, active, is_default, priority)
		VALUES ($1, $2, $3, $4, true, $5, $6)
		RETURNING `+stockLocationColumns,
		name, code, address, locType, isDefault, priority))
	if err != nil {
		return nil, fmt.Errorf("failed to insert stock location: %w", err)
	}
	return loc, nil
}

func (s *stockLocationService) Get(ctx context.Context, locationID uuid.UUID) (*StockLocation, error) {
	loc, err := scanStockLocation(s.pool.QueryRow(ctx,
		"SELECT "+stockLocationColumns+" FROM stock_locations WHERE id = $1", locationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: stock location %s", ErrNotFound, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock location: %w", err)
	}
	return loc, nil
}

func (s *stockLocationService) List(ctx context.Context) ([]StockLocation, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+stockLocationColumns+" FROM stock_locations WHERE deleted_at IS NULL ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query stock locations: %w", err)
	}
	defer rows.Close()
	return collectLocations(rows)
}

func (s *stockLocationService) SetActive(ctx context.Context, locationID uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, "UPDATE stock_locations SET active = $1 WHERE id = $2", active, locationID)
	if err != nil {
		return fmt.Errorf("failed to update stock location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock location %s", ErrNotFound, locationID)
	}
	return nil
}

func (s *stockLocationService) Delete(ctx context.Context, locationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE stock_locations SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", locationID)
	if err != nil {
		return fmt.Errorf("failed to delete stock location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, locationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *stockLocationService) Restore(ctx context.Context, locationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE stock_locations SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL", locationID)
	if err != nil {
		return fmt.Errorf("failed to restore stock location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, locationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *stockLocationService) LinkStore(ctx context.Context, storeID, locationID uuid.UUID, priority int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO store_stock_locations (store_id, stock_location_id, is_active, priority)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (store_id, stock_location_id) DO UPDATE SET is_active = true, priority = EXCLUDED.priority
	`, storeID, locationID, priority)
	if err != nil {
		return fmt.Errorf("failed to link store to stock location: %w", err)
	}
	return nil
}

func (s *stockLocationService) EligibleLocations(ctx context.Context, storeID *uuid.UUID) ([]StockLocation, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if storeID != nil {
		rows, err = s.pool.Query(ctx, `
			SELECT l.id, l.name, l.code, l.address, l.location_type, l.active, l.is_default, ssl.priority, l.deleted_at, l.created_at
			FROM stock_locations l
			JOIN store_stock_locations ssl ON ssl.stock_location_id = l.id
			WHERE ssl.store_id = $1 AND ssl.is_active = true
			  AND l.deleted_at IS NULL AND l.active = true
			ORDER BY l.is_default DESC, ssl.priority ASC, l.created_at, l.id
		`, *storeID)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+stockLocationColumns+`
			FROM stock_locations
			WHERE deleted_at IS NULL AND active = true
			ORDER BY is_default DESC, priority ASC, created_at, id
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible locations: %w", err)
	}
	defer rows.Close()

	all, err := collectLocations(rows)
	if err != nil {
		return nil, err
	}

	eligible := all[:0]
	for _, l := range all {
		if l.IsFulfillable() {
			eligible = append(eligible, l)
		}
	}
	return eligible, nil
}

func collectLocations(rows pgx.Rows) ([]StockLocation, error) {
	var locations []StockLocation
	for rows.Next() {
		loc, err := scanStockLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock location: %w", err)
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}
