package core

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// FulfillmentItem is one variant/quantity line proposed for a shipment.
type FulfillmentItem struct {
	VariantID     uuid.UUID
	SKU           string
	Quantity      int
	IsBackordered bool
}

// FulfillmentShipment groups the proposed items shipping from one location.
type FulfillmentShipment struct {
	StockLocationID   uuid.UUID
	StockLocationName string
	Items             []FulfillmentItem
}

// FulfillmentPlan is a non-persisted allocation proposal. It is advisory:
// stock may move between planning and the caller's Reserve calls, so callers
// must handle InsufficientStock on follow-up.
type FulfillmentPlan struct {
	Shipments []FulfillmentShipment
}

// PlanScope restricts planning to one store's linked locations. The zero
// value plans across the whole network.
type PlanScope struct {
	StoreID *uuid.UUID
}

// FulfillmentStrategy allocates requested quantities over an already-loaded
// snapshot of locations and stock. Implementations must be pure: no I/O, no
// mutation of inputs, identical output for identical input.
type FulfillmentStrategy interface {
	Allocate(locations []StockLocation, stock []StockItem, requested map[uuid.UUID]int) (*FulfillmentPlan, error)
}

// GreedyStrategy satisfies demand from the highest-priority location first
// and splits shipments only when a shelf runs out. It minimizes shipment
// count, not cost or distance.
type GreedyStrategy struct{}

func (GreedyStrategy) Allocate(locations []StockLocation, stock []StockItem, requested map[uuid.UUID]int) (*FulfillmentPlan, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: nothing to allocate", ErrEmptyOrder)
	}

	var fulfillable []StockLocation
	for _, l := range locations {
		if l.IsFulfillable() && l.Active && !l.IsDeleted() {
			fulfillable = append(fulfillable, l)
		}
	}
	if len(fulfillable) == 0 {
		return nil, ErrNoFulfillableLocations
	}

	// Map iteration order is random; a sorted key list keeps plans
	// reproducible for identical inputs.
	variantIDs := make([]uuid.UUID, 0, len(requested))
	for id := range requested {
		variantIDs = append(variantIDs, id)
	}
	sort.Slice(variantIDs, func(i, j int) bool {
		return bytes.Compare(variantIDs[i][:], variantIDs[j][:]) < 0
	})

	type stockKey struct{ location, variant uuid.UUID }
	stockAt := make(map[stockKey]*StockItem, len(stock))
	skuOf := make(map[uuid.UUID]string)
	for i := range stock {
		s := &stock[i]
		if s.IsDeleted() {
			continue
		}
		stockAt[stockKey{s.StockLocationID, s.VariantID}] = s
		if _, ok := skuOf[s.VariantID]; !ok {
			skuOf[s.VariantID] = s.SKU
		}
	}

	remaining := make(map[uuid.UUID]int, len(requested))
	for id, qty := range requested {
		remaining[id] = qty
	}

	plan := &FulfillmentPlan{}
	shipmentIdx := make(map[uuid.UUID]int)
	shipmentFor := func(l StockLocation) *FulfillmentShipment {
		if i, ok := shipmentIdx[l.ID]; ok {
			return &plan.Shipments[i]
		}
		plan.Shipments = append(plan.Shipments, FulfillmentShipment{
			StockLocationID:   l.ID,
			StockLocationName: l.Name,
		})
		shipmentIdx[l.ID] = len(plan.Shipments) - 1
		return &plan.Shipments[len(plan.Shipments)-1]
	}

	// Greedy pass: empty the current shelf before moving to the next
	// location so orders split as little as possible.
	for _, location := range fulfillable {
		for _, variantID := range variantIDs {
			needed := remaining[variantID]
			if needed <= 0 {
				continue
			}
			item, ok := stockAt[stockKey{location.ID, variantID}]
			if !ok || item.CountAvailable() <= 0 {
				continue
			}

			toTake := needed
			if available := item.CountAvailable(); toTake > available {
				toTake = available
			}

			shipment := shipmentFor(location)
			shipment.Items = append(shipment.Items, FulfillmentItem{
				VariantID: variantID,
				SKU:       item.SKU,
				Quantity:  toTake,
			})
			remaining[variantID] -= toTake
		}
	}

	// Remainder pass: unmet demand becomes backordered lines on the default
	// (or first) location's shipment.
	defaultLocation := fulfillable[0]
	for _, l := range fulfillable {
		if l.IsDefault {
			defaultLocation = l
			break
		}
	}
	for _, variantID := range variantIDs {
		stillNeeded := remaining[variantID]
		if stillNeeded <= 0 {
			continue
		}
		sku, ok := skuOf[variantID]
		if !ok {
			sku = fallbackSKU(variantID)
		}
		shipment := shipmentFor(defaultLocation)
		shipment.Items = append(shipment.Items, FulfillmentItem{
			VariantID:     variantID,
			SKU:           sku,
			Quantity:      stillNeeded,
			IsBackordered: true,
		})
	}

	return plan, nil
}

// fallbackSKU derives a deterministic placeholder when the catalog knows no
// SKU for a variant.
func fallbackSKU(variantID uuid.UUID) string {
	return "VAR-" + variantID.String()[:8]
}
