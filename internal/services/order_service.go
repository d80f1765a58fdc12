package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/repositories"
)

var (
	// ErrOrderNotFound signals that the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState signals an operation applied in a state that does
	// not permit it, such as editing a confirmed sale.
	ErrOrderInvalidState = errors.New("order: invalid state")
	// ErrOrderInvalidInput signals malformed request data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrLineItemNotFound signals an update against a missing line item.
	ErrLineItemNotFound = errors.New("order: line item not found")
)

// DefaultOrderService implements OrderService on top of the catalog, the
// order store, the pricing engine, and the reservation ledger.
type DefaultOrderService struct {
	orders    repositories.OrderRepository
	catalog   repositories.CatalogRepository
	pricing   PricingEngine
	ledger    StockLedger
	uow       repositories.UnitOfWork
	publisher OrderEventPublisher
	clock     func() time.Time
	idgen     func() string
	logger    func(context.Context, string, map[string]any)
}

// DefaultOrderServiceDeps lists the collaborators of the order service.
type DefaultOrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Catalog     repositories.CatalogRepository
	Pricing     PricingEngine
	Ledger      StockLedger
	UnitOfWork  repositories.UnitOfWork
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

// NewOrderService constructs the order service.
func NewOrderService(deps DefaultOrderServiceDeps) (*DefaultOrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing engine is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("order service: stock ledger is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("order service: unit of work is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idgen := deps.IDGenerator
	if idgen == nil {
		return nil, errors.New("order service: id generator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &DefaultOrderService{
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		pricing:   deps.Pricing,
		ledger:    deps.Ledger,
		uow:       deps.UnitOfWork,
		publisher: deps.Publisher,
		clock:     func() time.Time { return clock().UTC() },
		idgen:     idgen,
		logger:    logger,
	}, nil
}

// CreateOrder opens a new quote, optionally pre-populated with line items.
func (s *DefaultOrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	order := domain.Order{
		ID:        "ord_" + s.idgen(),
		UserID:    userID,
		State:     domain.OrderStateQuote,
		CreatedAt: s.clock(),
	}

	var saved domain.Order
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		for _, req := range cmd.LineItems {
			li, err := s.buildLineItem(ctx, &order, req)
			if err != nil {
				return err
			}
			order.LineItems = append(order.LineItems, li)
		}
		pricing, err := s.pricing.LiveTotal(ctx, order)
		if err != nil {
			return err
		}
		order.Total = pricing.Total
		if err := s.orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("order: insert: %w", err)
		}
		saved = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order_created", map[string]any{"orderId": saved.ID, "userId": saved.UserID, "lines": len(saved.LineItems)})
	s.publish(ctx, EventOrderCreated, saved)
	return saved, nil
}

// GetOrder loads one order by ID.
func (s *DefaultOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.load(ctx, orderID)
}

// ListOrders returns orders matching the filter, newest first.
func (s *DefaultOrderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]domain.Order, error) {
	if filter.State != nil && !domain.ValidOrderState(*filter.State) {
		return nil, fmt.Errorf("%w: unknown state %q", ErrOrderInvalidInput, *filter.State)
	}
	orders, err := s.orders.List(ctx, repositories.OrderQuery{UserID: filter.UserID, State: filter.State})
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	return orders, nil
}

// AddLineItem attaches a new position to a quote.
func (s *DefaultOrderService) AddLineItem(ctx context.Context, orderID string, req LineItemRequest) (domain.Order, error) {
	var saved domain.Order
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := requireQuote(order); err != nil {
			return err
		}

		li, err := s.buildLineItem(ctx, &order, req)
		if err != nil {
			return err
		}
		order.LineItems = append(order.LineItems, li)

		return s.repriceAndSave(ctx, &order, &saved)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order_line_item_added", map[string]any{"orderId": saved.ID, "itemId": req.ItemID, "quantity": req.Quantity})
	s.publish(ctx, EventLineItemAdded, saved)
	return saved, nil
}

// UpdateLineItem replaces the quantity and variant set of an existing line item.
func (s *DefaultOrderService) UpdateLineItem(ctx context.Context, cmd UpdateLineItemCommand) (domain.Order, error) {
	if cmd.Quantity <= 0 {
		return domain.Order{}, fmt.Errorf("%w: quantity must be positive", ErrOrderInvalidInput)
	}

	var saved domain.Order
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := requireQuote(order); err != nil {
			return err
		}

		li := order.FindLineItem(cmd.LineItemID)
		if li == nil {
			return fmt.Errorf("%w: %s", ErrLineItemNotFound, cmd.LineItemID)
		}

		item, err := s.loadItem(ctx, li.ItemID)
		if err != nil {
			return err
		}

		// Replacing the line: the order's demand for this item becomes the
		// other lines' quantities plus the new quantity.
		prospective := order.QuantityOf(li.ItemID) - li.Quantity + cmd.Quantity
		if err := s.ledger.ValidateCapacity(ctx, item, prospective, order.ID); err != nil {
			return err
		}

		variants, err := s.buildAppliedVariants(ctx, cmd.VariantIDs)
		if err != nil {
			return err
		}
		li.Quantity = cmd.Quantity
		li.Variants = variants

		return s.repriceAndSave(ctx, &order, &saved)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order_line_item_updated", map[string]any{"orderId": saved.ID, "lineItemId": cmd.LineItemID, "quantity": cmd.Quantity})
	s.publish(ctx, EventLineItemUpdated, saved)
	return saved, nil
}

// RemoveLineItem detaches a position from a quote. Removing an ID the order
// does not hold leaves the order untouched and reports success.
func (s *DefaultOrderService) RemoveLineItem(ctx context.Context, orderID, lineItemID string) (domain.Order, error) {
	var saved domain.Order
	removed := false
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := requireQuote(order); err != nil {
			return err
		}

		kept := order.LineItems[:0]
		for _, li := range order.LineItems {
			if li.ID == lineItemID {
				removed = true
				continue
			}
			kept = append(kept, li)
		}
		if !removed {
			saved = order
			return nil
		}
		order.LineItems = kept

		return s.repriceAndSave(ctx, &order, &saved)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if removed {
		s.logger(ctx, "order_line_item_removed", map[string]any{"orderId": saved.ID, "lineItemId": lineItemID})
		s.publish(ctx, EventLineItemRemoved, saved)
	}
	return saved, nil
}

// ConfirmOrder turns a quote into a sale: prices are frozen, physical stock
// is decremented, and the order leaves the reservation ledger. All steps
// commit atomically.
func (s *DefaultOrderService) ConfirmOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var saved domain.Order
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := requireQuote(order); err != nil {
			return err
		}

		pricing, err := s.pricing.Freeze(ctx, &order)
		if err != nil {
			return err
		}

		// All reads happen before the first write: item snapshots are
		// collected up front, then decrements are buffered.
		demand := make(map[string]int, len(order.LineItems))
		itemOrder := make([]string, 0, len(order.LineItems))
		for _, li := range order.LineItems {
			if _, seen := demand[li.ItemID]; !seen {
				itemOrder = append(itemOrder, li.ItemID)
			}
			demand[li.ItemID] += li.Quantity
		}

		items := make(map[string]domain.FurnitureItem, len(itemOrder))
		for _, itemID := range itemOrder {
			item, err := s.loadItem(ctx, itemID)
			if err != nil {
				return err
			}
			if err := s.ledger.ValidatePhysical(item, demand[itemID]); err != nil {
				return err
			}
			items[itemID] = item
		}

		now := s.clock()
		for _, itemID := range itemOrder {
			item := items[itemID]
			item.Stock -= demand[itemID]
			item.UpdatedAt = now
			if err := s.catalog.SaveItem(ctx, item); err != nil {
				return fmt.Errorf("order: decrement stock for %s: %w", itemID, err)
			}
		}

		order.State = domain.OrderStateSale
		order.Total = pricing.Total
		order.ConfirmedAt = &now
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("order: update: %w", err)
		}
		saved = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order_confirmed", map[string]any{"orderId": saved.ID, "total": saved.Total})
	s.publish(ctx, EventOrderConfirmed, saved)
	return saved, nil
}

// CancelOrder moves the order to its terminal state. Cancelling a sale puts
// the consumed stock back; cancelling a quote simply releases its implicit
// reservation. Cancelling an already cancelled order is a no-op.
func (s *DefaultOrderService) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var saved domain.Order
	alreadyCancelled := false
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if order.State == domain.OrderStateCancelled {
			alreadyCancelled = true
			saved = order
			return nil
		}

		restoreStock := order.State == domain.OrderStateSale

		var items map[string]domain.FurnitureItem
		var demand map[string]int
		var itemOrder []string
		if restoreStock {
			demand = make(map[string]int, len(order.LineItems))
			for _, li := range order.LineItems {
				if _, seen := demand[li.ItemID]; !seen {
					itemOrder = append(itemOrder, li.ItemID)
				}
				demand[li.ItemID] += li.Quantity
			}
			items = make(map[string]domain.FurnitureItem, len(itemOrder))
			for _, itemID := range itemOrder {
				item, err := s.loadItem(ctx, itemID)
				if err != nil {
					return err
				}
				items[itemID] = item
			}
		}

		now := s.clock()
		if restoreStock {
			for _, itemID := range itemOrder {
				item := items[itemID]
				item.Stock += demand[itemID]
				item.UpdatedAt = now
				if err := s.catalog.SaveItem(ctx, item); err != nil {
					return fmt.Errorf("order: restore stock for %s: %w", itemID, err)
				}
			}
		}

		order.State = domain.OrderStateCancelled
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("order: update: %w", err)
		}
		saved = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if !alreadyCancelled {
		s.logger(ctx, "order_cancelled", map[string]any{"orderId": saved.ID})
		s.publish(ctx, EventOrderCancelled, saved)
	}
	return saved, nil
}

func (s *DefaultOrderService) load(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return domain.Order{}, fmt.Errorf("order: load: %w", err)
	}
	return order, nil
}

func (s *DefaultOrderService) loadItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	item, err := s.catalog.FindItem(ctx, itemID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.FurnitureItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return domain.FurnitureItem{}, fmt.Errorf("order: load item: %w", err)
	}
	return item, nil
}

// buildLineItem validates the request against the catalog and the ledger and
// returns a new line item attached to the order's demand.
func (s *DefaultOrderService) buildLineItem(ctx context.Context, order *domain.Order, req LineItemRequest) (domain.LineItem, error) {
	if strings.TrimSpace(req.ItemID) == "" {
		return domain.LineItem{}, fmt.Errorf("%w: item id is required", ErrOrderInvalidInput)
	}
	if req.Quantity <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be positive", ErrOrderInvalidInput)
	}

	item, err := s.loadItem(ctx, req.ItemID)
	if err != nil {
		return domain.LineItem{}, err
	}
	if !item.Active {
		return domain.LineItem{}, fmt.Errorf("%w: item %s is inactive", ErrOrderInvalidInput, item.ID)
	}

	prospective := order.QuantityOf(item.ID) + req.Quantity
	if err := s.ledger.ValidateCapacity(ctx, item, prospective, order.ID); err != nil {
		return domain.LineItem{}, err
	}

	variants, err := s.buildAppliedVariants(ctx, req.VariantIDs)
	if err != nil {
		return domain.LineItem{}, err
	}

	return domain.LineItem{
		ID:       "li_" + s.idgen(),
		ItemID:   item.ID,
		ItemName: item.Name,
		Quantity: req.Quantity,
		Variants: variants,
	}, nil
}

func (s *DefaultOrderService) buildAppliedVariants(ctx context.Context, variantIDs []string) ([]domain.AppliedVariant, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	applied := make([]domain.AppliedVariant, 0, len(variantIDs))
	seen := make(map[string]struct{}, len(variantIDs))
	for _, variantID := range variantIDs {
		variantID = strings.TrimSpace(variantID)
		if variantID == "" {
			return nil, fmt.Errorf("%w: variant id is required", ErrOrderInvalidInput)
		}
		if _, dup := seen[variantID]; dup {
			return nil, fmt.Errorf("%w: variant %s applied twice", ErrOrderInvalidInput, variantID)
		}
		seen[variantID] = struct{}{}

		variant, err := s.catalog.FindVariant(ctx, variantID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
			}
			return nil, fmt.Errorf("order: load variant: %w", err)
		}
		if !variant.Active {
			return nil, fmt.Errorf("%w: variant %s is inactive", ErrOrderInvalidInput, variant.ID)
		}
		applied = append(applied, domain.AppliedVariant{
			ID:        "av_" + s.idgen(),
			VariantID: variant.ID,
			Name:      variant.Name,
		})
	}
	return applied, nil
}

func (s *DefaultOrderService) repriceAndSave(ctx context.Context, order *domain.Order, saved *domain.Order) error {
	pricing, err := s.pricing.LiveTotal(ctx, *order)
	if err != nil {
		return err
	}
	order.Total = pricing.Total
	if err := s.orders.Update(ctx, *order); err != nil {
		return fmt.Errorf("order: update: %w", err)
	}
	*saved = *order
	return nil
}

func (s *DefaultOrderService) publish(ctx context.Context, eventType string, order domain.Order) {
	if s.publisher == nil {
		return
	}
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		State:      order.State,
		Total:      order.Total,
		OccurredAt: s.clock(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger(ctx, "order_event_publish_failed", map[string]any{"orderId": order.ID, "type": eventType, "error": err.Error()})
	}
}

func requireQuote(order domain.Order) error {
	if order.State != domain.OrderStateQuote {
		return fmt.Errorf("%w: order %s is %s", ErrOrderInvalidState, order.ID, order.State)
	}
	return nil
}

var _ OrderService = (*DefaultOrderService)(nil)
