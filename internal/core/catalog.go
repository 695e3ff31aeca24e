package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService is the read-only variant/SKU lookup this core consumes.
// Variant master data is owned elsewhere; the ledger only resolves SKUs.
type CatalogService interface {
	GetVariant(ctx context.Context, variantID uuid.UUID) (*Variant, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by the variants table.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) GetVariant(ctx context.Context, variantID uuid.UUID) (*Variant, error) {
	var v Variant
	err := s.pool.QueryRow(ctx,
		"SELECT id, sku, name FROM variants WHERE id = $1", variantID,
	).Scan(&v.ID, &v.SKU, &v.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: variant %s", ErrNotFound, variantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch variant: %w", err)
	}
	return &v, nil
}
