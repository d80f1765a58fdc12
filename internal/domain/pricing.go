package domain

// OrderPricing captures the result of pricing an entire order.
type OrderPricing struct {
	Total int64
	Lines []LinePricing
}

// LinePricing stores the per-line outputs after running the pricing engine.
// UnitPrice is base price plus the variant costs; Subtotal is UnitPrice
// multiplied by the quantity, accumulated in int64 to keep large orders from
// overflowing.
type LinePricing struct {
	LineItemID string
	ItemID     string
	BasePrice  int64
	UnitPrice  int64
	Quantity   int
	Subtotal   int64
	Variants   []VariantPricing
}

// VariantPricing records the monetary contribution of one applied variant.
type VariantPricing struct {
	AppliedVariantID string
	VariantID        string
	Cost             int64
}
