package domain

import (
	"time"
)

// Role enumerates the access levels recognised by the API.
type Role string

const (
	// RoleUser is the default role assigned on registration.
	RoleUser Role = "user"
	// RoleAdmin grants catalog mutations and visibility over all orders.
	RoleAdmin Role = "admin"
)

// UserAccount holds the credentials and role of an API user.
type UserAccount struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// ItemSize enumerates the coarse size buckets used by the catalog.
type ItemSize string

const (
	ItemSizeSmall  ItemSize = "SMALL"
	ItemSizeMedium ItemSize = "MEDIUM"
	ItemSizeLarge  ItemSize = "LARGE"
)

// FurnitureItem is a sellable catalog entry. Prices are whole CLP, no
// fractional subunit. Stock is the physical on-hand count; reservations held
// by open quotes are derived, never stored here.
type FurnitureItem struct {
	ID   string
	Name string
	// NameFolded is the lowercased, accent-stripped name, denormalised for
	// accent-insensitive search.
	NameFolded string
	Type       string
	BasePrice  int64
	Stock      int
	Size       ItemSize
	Material   string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ApplicationKind determines how a variant's cost value is interpreted when
// pricing a line item.
type ApplicationKind string

const (
	// ApplicationFixed treats the cost value as a flat surcharge.
	ApplicationFixed ApplicationKind = "FIXED"
	// ApplicationPercentage treats the cost value as whole percentage points
	// of the item's base price.
	ApplicationPercentage ApplicationKind = "PERCENTAGE"
)

// Variant is an optional priced add-on applicable to any furniture item.
// The active flag only gates future selection; orders already referencing a
// deactivated variant keep working.
type Variant struct {
	ID        string
	Name      string
	CostValue int64
	Kind      ApplicationKind
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderState enumerates the lifecycle states of an order.
type OrderState string

const (
	// OrderStateQuote is the initial, editable state. Line items of a quote
	// implicitly reserve stock.
	OrderStateQuote OrderState = "QUOTE"
	// OrderStateSale is a confirmed order: prices frozen, stock consumed.
	OrderStateSale OrderState = "SALE"
	// OrderStateCancelled is terminal.
	OrderStateCancelled OrderState = "CANCELLED"
)

// ValidOrderState reports whether the value names a known order state.
func ValidOrderState(state OrderState) bool {
	switch state {
	case OrderStateQuote, OrderStateSale, OrderStateCancelled:
		return true
	}
	return false
}

// AppliedVariant records one variant attached to a line item. FrozenCost is
// nil while the owning order is a quote and is written exactly once during
// confirmation.
type AppliedVariant struct {
	ID         string
	VariantID  string
	Name       string
	FrozenCost *int64
}

// LineItem is one position of an order. The item name is denormalised at
// attach time so order documents render without catalog reads.
// FrozenUnitPrice follows the same write-once rule as AppliedVariant.FrozenCost.
type LineItem struct {
	ID              string
	ItemID          string
	ItemName        string
	Quantity        int
	FrozenUnitPrice *int64
	Variants        []AppliedVariant
}

// Order is the aggregate root. It exclusively owns its line items and their
// applied variants; children are only ever reached through the order.
type Order struct {
	ID          string
	UserID      string
	State       OrderState
	Total       int64
	LineItems   []LineItem
	CreatedAt   time.Time
	ConfirmedAt *time.Time
}

// FindLineItem returns a pointer into the order's line item slice, or nil.
func (o *Order) FindLineItem(lineItemID string) *LineItem {
	for i := range o.LineItems {
		if o.LineItems[i].ID == lineItemID {
			return &o.LineItems[i]
		}
	}
	return nil
}

// QuantityOf sums the order's quantities for the given catalog item.
func (o *Order) QuantityOf(itemID string) int {
	total := 0
	for _, li := range o.LineItems {
		if li.ItemID == itemID {
			total += li.Quantity
		}
	}
	return total
}
