package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/muebleria/api/internal/domain"
)

func newTestPricingEngine(t *testing.T, catalog *memCatalogRepository) *OrderPricingEngine {
	t.Helper()
	engine, err := NewOrderPricingEngine(OrderPricingEngineDeps{Catalog: catalog})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}
	return engine
}

func TestResolveStrategy(t *testing.T) {
	cases := []struct {
		name      string
		kind      domain.ApplicationKind
		costValue int64
		basePrice int64
		want      int64
	}{
		{name: "fixed ignores base price", kind: domain.ApplicationFixed, costValue: 5000, basePrice: 120000, want: 5000},
		{name: "percentage of base price", kind: domain.ApplicationPercentage, costValue: 10, basePrice: 120000, want: 12000},
		{name: "percentage floors", kind: domain.ApplicationPercentage, costValue: 3, basePrice: 101, want: 3},
		{name: "zero percentage", kind: domain.ApplicationPercentage, costValue: 0, basePrice: 99999, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strategy, err := resolveStrategy(tc.kind)
			if err != nil {
				t.Fatalf("resolve strategy: %v", err)
			}
			if got := strategy(tc.costValue, tc.basePrice); got != tc.want {
				t.Fatalf("strategy(%d, %d) = %d, want %d", tc.costValue, tc.basePrice, got, tc.want)
			}
		})
	}
}

func TestResolveStrategyUnknownKind(t *testing.T) {
	if _, err := resolveStrategy(domain.ApplicationKind("SURCHARGE")); !errors.Is(err, ErrUnknownApplicationKind) {
		t.Fatalf("expected ErrUnknownApplicationKind, got %v", err)
	}
}

func TestLiveTotal(t *testing.T) {
	catalog := newMemCatalog()
	catalog.items["itm_sofa"] = domain.FurnitureItem{ID: "itm_sofa", Name: "Sillón", BasePrice: 100000, Active: true}
	catalog.items["itm_mesa"] = domain.FurnitureItem{ID: "itm_mesa", Name: "Mesa", BasePrice: 40000, Active: true}
	catalog.variants["var_tela"] = domain.Variant{ID: "var_tela", Name: "Tela premium", CostValue: 15, Kind: domain.ApplicationPercentage, Active: true}
	catalog.variants["var_envio"] = domain.Variant{ID: "var_envio", Name: "Armado", CostValue: 8000, Kind: domain.ApplicationFixed, Active: true}

	engine := newTestPricingEngine(t, catalog)

	order := domain.Order{
		ID:    "ord_1",
		State: domain.OrderStateQuote,
		LineItems: []domain.LineItem{
			{
				ID: "li_1", ItemID: "itm_sofa", Quantity: 2,
				Variants: []domain.AppliedVariant{
					{ID: "av_1", VariantID: "var_tela"},
					{ID: "av_2", VariantID: "var_envio"},
				},
			},
			{ID: "li_2", ItemID: "itm_mesa", Quantity: 1},
		},
	}

	pricing, err := engine.LiveTotal(context.Background(), order)
	if err != nil {
		t.Fatalf("live total: %v", err)
	}

	// Line 1 unit: 100000 + 15% (15000) + 8000 = 123000, x2 = 246000.
	// Line 2 unit: 40000, x1 = 40000.
	if pricing.Total != 286000 {
		t.Fatalf("total = %d, want 286000", pricing.Total)
	}
	if len(pricing.Lines) != 2 {
		t.Fatalf("expected 2 priced lines, got %d", len(pricing.Lines))
	}
	line := pricing.Lines[0]
	if line.UnitPrice != 123000 || line.Subtotal != 246000 {
		t.Fatalf("line 1 unit=%d subtotal=%d, want 123000/246000", line.UnitPrice, line.Subtotal)
	}
	if len(line.Variants) != 2 || line.Variants[0].Cost != 15000 || line.Variants[1].Cost != 8000 {
		t.Fatalf("unexpected variant costs: %+v", line.Variants)
	}
}

func TestLiveTotalPricesInactiveCatalogEntries(t *testing.T) {
	catalog := newMemCatalog()
	catalog.items["itm_retired"] = domain.FurnitureItem{ID: "itm_retired", BasePrice: 50000, Active: false}
	catalog.variants["var_retired"] = domain.Variant{ID: "var_retired", CostValue: 20, Kind: domain.ApplicationPercentage, Active: false}

	engine := newTestPricingEngine(t, catalog)
	order := domain.Order{LineItems: []domain.LineItem{{
		ID: "li_1", ItemID: "itm_retired", Quantity: 1,
		Variants: []domain.AppliedVariant{{ID: "av_1", VariantID: "var_retired"}},
	}}}

	pricing, err := engine.LiveTotal(context.Background(), order)
	if err != nil {
		t.Fatalf("live total: %v", err)
	}
	if pricing.Total != 60000 {
		t.Fatalf("total = %d, want 60000", pricing.Total)
	}
}

func TestFreezeStampsLinesAndVariants(t *testing.T) {
	catalog := newMemCatalog()
	catalog.items["itm_sofa"] = domain.FurnitureItem{ID: "itm_sofa", BasePrice: 100000, Active: true}
	catalog.variants["var_tela"] = domain.Variant{ID: "var_tela", CostValue: 10, Kind: domain.ApplicationPercentage, Active: true}

	engine := newTestPricingEngine(t, catalog)
	order := domain.Order{LineItems: []domain.LineItem{{
		ID: "li_1", ItemID: "itm_sofa", Quantity: 3,
		Variants: []domain.AppliedVariant{{ID: "av_1", VariantID: "var_tela"}},
	}}}

	pricing, err := engine.Freeze(context.Background(), &order)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if pricing.Total != 330000 {
		t.Fatalf("total = %d, want 330000", pricing.Total)
	}

	li := order.FindLineItem("li_1")
	if li.FrozenUnitPrice == nil || *li.FrozenUnitPrice != 110000 {
		t.Fatalf("frozen unit price = %v, want 110000", li.FrozenUnitPrice)
	}
	if li.Variants[0].FrozenCost == nil || *li.Variants[0].FrozenCost != 10000 {
		t.Fatalf("frozen cost = %v, want 10000", li.Variants[0].FrozenCost)
	}
}

func TestSnapshotTotalIgnoresCatalogChanges(t *testing.T) {
	catalog := newMemCatalog()
	catalog.items["itm_sofa"] = domain.FurnitureItem{ID: "itm_sofa", BasePrice: 100000, Active: true}
	catalog.variants["var_tela"] = domain.Variant{ID: "var_tela", CostValue: 10, Kind: domain.ApplicationPercentage, Active: true}

	engine := newTestPricingEngine(t, catalog)
	order := domain.Order{LineItems: []domain.LineItem{{
		ID: "li_1", ItemID: "itm_sofa", Quantity: 1,
		Variants: []domain.AppliedVariant{{ID: "av_1", VariantID: "var_tela"}},
	}}}

	if _, err := engine.Freeze(context.Background(), &order); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	// A later catalog price change must not affect the snapshot.
	catalog.items["itm_sofa"] = domain.FurnitureItem{ID: "itm_sofa", BasePrice: 999999, Active: true}

	pricing, err := engine.SnapshotTotal(order)
	if err != nil {
		t.Fatalf("snapshot total: %v", err)
	}
	if pricing.Total != 110000 {
		t.Fatalf("total = %d, want 110000", pricing.Total)
	}
}

func TestSnapshotTotalRequiresFrozenValues(t *testing.T) {
	engine := newTestPricingEngine(t, newMemCatalog())
	order := domain.Order{LineItems: []domain.LineItem{{ID: "li_1", ItemID: "itm_x", Quantity: 1}}}
	if _, err := engine.SnapshotTotal(order); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
}

func TestLiveTotalUnknownKind(t *testing.T) {
	catalog := newMemCatalog()
	catalog.items["itm_x"] = domain.FurnitureItem{ID: "itm_x", BasePrice: 1000, Active: true}
	catalog.variants["var_x"] = domain.Variant{ID: "var_x", CostValue: 5, Kind: domain.ApplicationKind("SURCHARGE"), Active: true}

	engine := newTestPricingEngine(t, catalog)
	order := domain.Order{LineItems: []domain.LineItem{{
		ID: "li_1", ItemID: "itm_x", Quantity: 1,
		Variants: []domain.AppliedVariant{{ID: "av_1", VariantID: "var_x"}},
	}}}

	if _, err := engine.LiveTotal(context.Background(), order); !errors.Is(err, ErrUnknownApplicationKind) {
		t.Fatalf("expected ErrUnknownApplicationKind, got %v", err)
	}
}
