package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/repositories"
)

var (
	// ErrUnknownApplicationKind signals a variant whose application kind the
	// engine has no strategy for.
	ErrUnknownApplicationKind = errors.New("pricing: unknown application kind")
	// ErrPricingInvalidInput signals malformed pricing input such as a missing
	// frozen value on a confirmed order.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
)

// pricingStrategy maps a variant cost value and an item base price to the
// variant's monetary contribution.
type pricingStrategy func(costValue, basePrice int64) int64

func fixedStrategy(costValue, _ int64) int64 {
	return costValue
}

// percentageStrategy interprets costValue as whole percentage points of the
// base price. Integer division truncates toward zero, matching floor for the
// non-negative prices the catalog allows.
func percentageStrategy(costValue, basePrice int64) int64 {
	return basePrice * costValue / 100
}

func resolveStrategy(kind domain.ApplicationKind) (pricingStrategy, error) {
	switch kind {
	case domain.ApplicationFixed:
		return fixedStrategy, nil
	case domain.ApplicationPercentage:
		return percentageStrategy, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownApplicationKind, kind)
}

// OrderPricingEngine prices orders by looking up live catalog prices for
// quotes and replaying frozen snapshots for confirmed sales.
type OrderPricingEngine struct {
	catalog repositories.CatalogRepository
}

// OrderPricingEngineDeps lists the collaborators of the pricing engine.
type OrderPricingEngineDeps struct {
	Catalog repositories.CatalogRepository
}

// NewOrderPricingEngine constructs the pricing engine.
func NewOrderPricingEngine(deps OrderPricingEngineDeps) (*OrderPricingEngine, error) {
	if deps.Catalog == nil {
		return nil, errors.New("pricing engine: catalog repository is required")
	}
	return &OrderPricingEngine{catalog: deps.Catalog}, nil
}

// LiveTotal prices the order against the current catalog. Inactive items and
// variants still price; deactivation only gates new selections.
func (e *OrderPricingEngine) LiveTotal(ctx context.Context, order domain.Order) (domain.OrderPricing, error) {
	pricing := domain.OrderPricing{Lines: make([]domain.LinePricing, 0, len(order.LineItems))}
	for _, li := range order.LineItems {
		line, err := e.priceLineLive(ctx, li)
		if err != nil {
			return domain.OrderPricing{}, err
		}
		pricing.Lines = append(pricing.Lines, line)
		pricing.Total += line.Subtotal
	}
	return pricing, nil
}

// SnapshotTotal prices the order from its frozen values only. Every line and
// applied variant must already carry a frozen value.
func (e *OrderPricingEngine) SnapshotTotal(order domain.Order) (domain.OrderPricing, error) {
	pricing := domain.OrderPricing{Lines: make([]domain.LinePricing, 0, len(order.LineItems))}
	for _, li := range order.LineItems {
		if li.FrozenUnitPrice == nil {
			return domain.OrderPricing{}, fmt.Errorf("%w: line item %s has no frozen unit price", ErrPricingInvalidInput, li.ID)
		}
		line := domain.LinePricing{
			LineItemID: li.ID,
			ItemID:     li.ItemID,
			UnitPrice:  *li.FrozenUnitPrice,
			Quantity:   li.Quantity,
			Subtotal:   *li.FrozenUnitPrice * int64(li.Quantity),
			Variants:   make([]domain.VariantPricing, 0, len(li.Variants)),
		}
		for _, av := range li.Variants {
			if av.FrozenCost == nil {
				return domain.OrderPricing{}, fmt.Errorf("%w: applied variant %s has no frozen cost", ErrPricingInvalidInput, av.ID)
			}
			line.Variants = append(line.Variants, domain.VariantPricing{
				AppliedVariantID: av.ID,
				VariantID:        av.VariantID,
				Cost:             *av.FrozenCost,
			})
		}
		pricing.Lines = append(pricing.Lines, line)
		pricing.Total += line.Subtotal
	}
	return pricing, nil
}

// Freeze prices the order live and stamps the results onto the aggregate so
// later repricing never consults the catalog again. Freezing is idempotent at
// the write site because confirmation only runs once per order.
func (e *OrderPricingEngine) Freeze(ctx context.Context, order *domain.Order) (domain.OrderPricing, error) {
	if order == nil {
		return domain.OrderPricing{}, fmt.Errorf("%w: order is nil", ErrPricingInvalidInput)
	}
	pricing, err := e.LiveTotal(ctx, *order)
	if err != nil {
		return domain.OrderPricing{}, err
	}

	for i := range pricing.Lines {
		line := pricing.Lines[i]
		li := order.FindLineItem(line.LineItemID)
		if li == nil {
			return domain.OrderPricing{}, fmt.Errorf("%w: priced line %s missing from order", ErrPricingInvalidInput, line.LineItemID)
		}
		unit := line.UnitPrice
		li.FrozenUnitPrice = &unit
		for _, vp := range line.Variants {
			for j := range li.Variants {
				if li.Variants[j].ID == vp.AppliedVariantID {
					cost := vp.Cost
					li.Variants[j].FrozenCost = &cost
				}
			}
		}
	}
	return pricing, nil
}

func (e *OrderPricingEngine) priceLineLive(ctx context.Context, li domain.LineItem) (domain.LinePricing, error) {
	item, err := e.catalog.FindItem(ctx, li.ItemID)
	if err != nil {
		return domain.LinePricing{}, fmt.Errorf("pricing: load item %s: %w", li.ItemID, err)
	}

	line := domain.LinePricing{
		LineItemID: li.ID,
		ItemID:     li.ItemID,
		BasePrice:  item.BasePrice,
		UnitPrice:  item.BasePrice,
		Quantity:   li.Quantity,
		Variants:   make([]domain.VariantPricing, 0, len(li.Variants)),
	}

	for _, av := range li.Variants {
		variant, err := e.catalog.FindVariant(ctx, av.VariantID)
		if err != nil {
			return domain.LinePricing{}, fmt.Errorf("pricing: load variant %s: %w", av.VariantID, err)
		}
		strategy, err := resolveStrategy(variant.Kind)
		if err != nil {
			return domain.LinePricing{}, err
		}
		cost := strategy(variant.CostValue, item.BasePrice)
		line.UnitPrice += cost
		line.Variants = append(line.Variants, domain.VariantPricing{
			AppliedVariantID: av.ID,
			VariantID:        av.VariantID,
			Cost:             cost,
		})
	}

	line.Subtotal = line.UnitPrice * int64(li.Quantity)
	return line, nil
}

var _ PricingEngine = (*OrderPricingEngine)(nil)
