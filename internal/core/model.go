package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationType classifies a stock location. Only physical location types can
// fulfill orders; virtual locations (e.g. dropship placeholders) cannot.
type LocationType string

const (
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeRetail    LocationType = "retail"
	LocationTypeVirtual   LocationType = "virtual"
)

// StockLocation is a warehouse or retail node in the fulfillment network.
// Lifecycle is owned by location management; the ledger and planner only read
// its eligibility flags.
type StockLocation struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Address   string
	Type      LocationType
	Active    bool
	IsDefault bool
	Priority  int
	DeletedAt *time.Time
	CreatedAt time.Time
}

// IsFulfillable reports whether orders may ship from this location.
func (l *StockLocation) IsFulfillable() bool {
	return l.Type == LocationTypeWarehouse || l.Type == LocationTypeRetail
}

// IsDeleted reports the soft-delete state.
func (l *StockLocation) IsDeleted() bool { return l.DeletedAt != nil }

// StockItem is one ledger row: the stock of a single variant at a single
// location. Counters are mutated exclusively through StockItemService so that
// every change is serialized and journaled.
type StockItem struct {
	ID               uuid.UUID
	VariantID        uuid.UUID
	StockLocationID  uuid.UUID
	SKU              string
	QuantityOnHand   int
	QuantityReserved int
	Backorderable    bool
	BackorderLimit   int
	UnitCost         decimal.Decimal
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CountAvailable is on-hand minus reserved. Negative when promises exceed
// physical stock (backorders).
func (s *StockItem) CountAvailable() int {
	return s.QuantityOnHand - s.QuantityReserved
}

// IsDeleted reports the soft-delete state.
func (s *StockItem) IsDeleted() bool { return s.DeletedAt != nil }

// StockMovementType tags an entry in a stock item's movement journal.
type StockMovementType string

const (
	MovementReceipt    StockMovementType = "receipt"
	MovementAdjustment StockMovementType = "adjustment"
	MovementTransfer   StockMovementType = "transfer"
	MovementSale       StockMovementType = "sale"
	MovementReturn     StockMovementType = "return"
)

// StockMovement is one immutable journal entry. For the ordered history of a
// stock item, each entry's BalanceAfter equals the next entry's BalanceBefore.
type StockMovement struct {
	ID            uuid.UUID
	StockItemID   uuid.UUID
	Type          StockMovementType
	Quantity      int // signed delta applied to quantity_on_hand
	BalanceBefore int
	BalanceAfter  int
	UnitCost      decimal.Decimal
	Reason        string
	Reference     string
	OccurredAt    time.Time
}

// InventoryUnitState is the lifecycle state of a single promised or physical
// unit. Shipped, Canceled and Damaged are terminal.
type InventoryUnitState string

const (
	UnitOnHand      InventoryUnitState = "on_hand"
	UnitBackordered InventoryUnitState = "backordered"
	UnitShipped     InventoryUnitState = "shipped"
	UnitCanceled    InventoryUnitState = "canceled"
	UnitDamaged     InventoryUnitState = "damaged"
)

// InventoryUnit tracks one unit of a stock item promised to an order line.
// Exactly one unit exists per unit of QuantityReserved outstanding. Units are
// never deleted, only transitioned.
type InventoryUnit struct {
	ID              uuid.UUID
	StockItemID     uuid.UUID
	VariantID       uuid.UUID
	StockLocationID uuid.UUID
	OrderID         *uuid.UUID
	LineItemID      *uuid.UUID
	ShipmentID      *uuid.UUID
	State           InventoryUnitState
	SerialNumber    *string
	CreatedAt       time.Time
}

// StockTransferStatus is the linear workflow state of a transfer.
type StockTransferStatus string

const (
	TransferDraft    StockTransferStatus = "draft"
	TransferShipped  StockTransferStatus = "shipped"
	TransferReceived StockTransferStatus = "received"
	TransferCanceled StockTransferStatus = "canceled"
)

// StockTransfer moves stock between two locations: Draft → Shipped →
// Received, cancelable until received.
type StockTransfer struct {
	ID                    uuid.UUID
	ReferenceNumber       string
	SourceLocationID      uuid.UUID
	DestinationLocationID uuid.UUID
	Status                StockTransferStatus
	Reason                *string
	CreatedAt             time.Time
	ShippedAt             *time.Time
	ReceivedAt            *time.Time
	CanceledAt            *time.Time
	Items                 []StockTransferItem
}

// StockTransferItem is one variant/quantity line on a transfer.
type StockTransferItem struct {
	ID              uuid.UUID
	StockTransferID uuid.UUID
	VariantID       uuid.UUID
	Quantity        int
}

// StockSummary is the derived cross-location availability projection for a
// variant. It is a cache, never a source of truth.
type StockSummary struct {
	VariantID      uuid.UUID
	TotalOnHand    int
	TotalReserved  int
	TotalAvailable int
	Backorderable  bool
	IsBuyable      bool
	UpdatedAt      time.Time
}

// ComputeSummary recalculates the projection from aggregated ledger totals.
func ComputeSummary(variantID uuid.UUID, totalOnHand, totalReserved int, backorderable bool) StockSummary {
	available := totalOnHand - totalReserved
	return StockSummary{
		VariantID:      variantID,
		TotalOnHand:    totalOnHand,
		TotalReserved:  totalReserved,
		TotalAvailable: available,
		Backorderable:  backorderable,
		IsBuyable:      available > 0 || backorderable,
	}
}

// Variant is the read-only catalog projection this core consumes for SKU
// lookups. Master data lives elsewhere.
type Variant struct {
	ID   uuid.UUID
	SKU  string
	Name string
}

// StockLevel is a read model joining ledger rows with their location, used by
// reporting and the admin CLI.
type StockLevel struct {
	SKU          string
	LocationCode string
	LocationName string
	OnHand       int
	Reserved     int
	Available    int
	UnitCost     decimal.Decimal
}
