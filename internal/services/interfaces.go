package services

import (
	"context"
	"time"

	domain "github.com/muebleria/api/internal/domain"
)

// LineItemRequest describes one position to attach to an order.
type LineItemRequest struct {
	ItemID     string
	Quantity   int
	VariantIDs []string
}

// CreateOrderCommand opens a new quote for the given user.
type CreateOrderCommand struct {
	UserID    string
	LineItems []LineItemRequest
}

// UpdateLineItemCommand replaces the quantity and variants of an existing line item.
type UpdateLineItemCommand struct {
	OrderID    string
	LineItemID string
	Quantity   int
	VariantIDs []string
}

// OrderListFilter narrows order listings. Zero-value fields are ignored.
type OrderListFilter struct {
	UserID string
	State  *domain.OrderState
}

// OrderService drives the quote/sale/cancelled lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	AddLineItem(ctx context.Context, orderID string, req LineItemRequest) (domain.Order, error)
	UpdateLineItem(ctx context.Context, cmd UpdateLineItemCommand) (domain.Order, error)
	RemoveLineItem(ctx context.Context, orderID, lineItemID string) (domain.Order, error)
	ConfirmOrder(ctx context.Context, orderID string) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (domain.Order, error)
}

// CreateItemCommand carries catalog item fields for creation and update.
type CreateItemCommand struct {
	Name      string
	Type      string
	BasePrice int64
	Stock     int
	Size      domain.ItemSize
	Material  string
}

// CreateVariantCommand carries variant fields for creation and update.
type CreateVariantCommand struct {
	Name      string
	CostValue int64
	Kind      domain.ApplicationKind
}

// ItemSearchFilter narrows catalog item listings.
type ItemSearchFilter struct {
	// Name matches accent-insensitively against item names.
	Name string
	// IncludeInactive also returns soft-deleted items.
	IncludeInactive bool
}

// CatalogService manages furniture items and pricing variants.
type CatalogService interface {
	CreateItem(ctx context.Context, cmd CreateItemCommand) (domain.FurnitureItem, error)
	UpdateItem(ctx context.Context, itemID string, cmd CreateItemCommand) (domain.FurnitureItem, error)
	GetItem(ctx context.Context, itemID string) (domain.FurnitureItem, error)
	ListItems(ctx context.Context, filter ItemSearchFilter) ([]domain.FurnitureItem, error)
	DeactivateItem(ctx context.Context, itemID string) (domain.FurnitureItem, error)
	CreateVariant(ctx context.Context, cmd CreateVariantCommand) (domain.Variant, error)
	UpdateVariant(ctx context.Context, variantID string, cmd CreateVariantCommand) (domain.Variant, error)
	GetVariant(ctx context.Context, variantID string) (domain.Variant, error)
	ListVariants(ctx context.Context, includeInactive bool) ([]domain.Variant, error)
	DeactivateVariant(ctx context.Context, variantID string) (domain.Variant, error)
}

// RegisterCommand creates a new account.
type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

// LoginCommand authenticates by username and password.
type LoginCommand struct {
	Username string
	Password string
}

// Session is an issued access token plus its subject.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.UserAccount
}

// AuthService registers accounts and issues sessions.
type AuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (domain.UserAccount, error)
	Login(ctx context.Context, cmd LoginCommand) (Session, error)
}

// PricingEngine computes order totals under the variant application rules.
type PricingEngine interface {
	// LiveTotal prices the order against the current catalog.
	LiveTotal(ctx context.Context, order domain.Order) (domain.OrderPricing, error)
	// SnapshotTotal prices the order from its frozen values only.
	SnapshotTotal(order domain.Order) (domain.OrderPricing, error)
	// Freeze stamps current prices onto the order's line items and variants.
	Freeze(ctx context.Context, order *domain.Order) (domain.OrderPricing, error)
}

// StockLedger derives availability from physical stock and open quotes.
type StockLedger interface {
	// AvailableStock is physical stock minus units held by open quotes.
	AvailableStock(ctx context.Context, item domain.FurnitureItem) (int, error)
	// ValidateCapacity checks a prospective reservation against availability.
	// Quantities already held by excludeOrderID are not counted as reserved.
	ValidateCapacity(ctx context.Context, item domain.FurnitureItem, requested int, excludeOrderID string) error
	// ValidatePhysical checks the request against physical stock only.
	ValidatePhysical(item domain.FurnitureItem, requested int) error
}

// OrderEvent is published after order mutations commit.
type OrderEvent struct {
	Type       string
	OrderID    string
	UserID     string
	State      domain.OrderState
	Total      int64
	OccurredAt time.Time
}

// Order event types.
const (
	EventOrderCreated    = "order.created"
	EventOrderConfirmed  = "order.confirmed"
	EventOrderCancelled  = "order.cancelled"
	EventLineItemAdded   = "order.lineItem.added"
	EventLineItemUpdated = "order.lineItem.updated"
	EventLineItemRemoved = "order.lineItem.removed"
)

// OrderEventPublisher delivers order events to interested consumers.
// Publish failures must not fail the originating request.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
