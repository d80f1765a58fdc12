package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/repositories"
)

// ErrInsufficientStock signals that a requested quantity exceeds what the
// ledger can grant.
var ErrInsufficientStock = errors.New("stock: insufficient stock")

// InsufficientStockError carries the ledger numbers behind a rejection.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Physical  int
	Reserved  int
	Requested int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock for item %s: physical %d, reserved %d, requested %d",
		e.ItemID, e.Physical, e.Reserved, e.Requested)
}

// Unwrap ties the typed error to the sentinel.
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ReservationLedger derives per-item availability by scanning open quotes.
// Reservations are never stored; a quote's line items ARE the reservation, so
// the ledger can never drift from the orders it is derived from.
type ReservationLedger struct {
	orders repositories.OrderRepository
}

// ReservationLedgerDeps lists the collaborators of the ledger.
type ReservationLedgerDeps struct {
	Orders repositories.OrderRepository
}

// NewReservationLedger constructs the ledger.
func NewReservationLedger(deps ReservationLedgerDeps) (*ReservationLedger, error) {
	if deps.Orders == nil {
		return nil, errors.New("reservation ledger: order repository is required")
	}
	return &ReservationLedger{orders: deps.Orders}, nil
}

// AvailableStock is physical stock minus units held by open quotes. The
// result can be negative when physical stock was lowered below what quotes
// already hold.
func (l *ReservationLedger) AvailableStock(ctx context.Context, item domain.FurnitureItem) (int, error) {
	reserved, err := l.reserved(ctx, item.ID, "")
	if err != nil {
		return 0, err
	}
	return item.Stock - reserved, nil
}

// ValidateCapacity checks a prospective reservation of requested units
// against availability. Units already held by excludeOrderID do not count as
// reserved, so replacing a line item only needs headroom for the delta.
func (l *ReservationLedger) ValidateCapacity(ctx context.Context, item domain.FurnitureItem, requested int, excludeOrderID string) error {
	reserved, err := l.reserved(ctx, item.ID, excludeOrderID)
	if err != nil {
		return err
	}
	if requested > item.Stock-reserved {
		return &InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Physical:  item.Stock,
			Reserved:  reserved,
			Requested: requested,
		}
	}
	return nil
}

// ValidatePhysical checks the request against physical stock only. Other
// quotes' holds are deliberately ignored here: confirmation races resolve
// first-committed-wins rather than blocking on paper reservations.
func (l *ReservationLedger) ValidatePhysical(item domain.FurnitureItem, requested int) error {
	if requested > item.Stock {
		return &InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Physical:  item.Stock,
			Requested: requested,
		}
	}
	return nil
}

func (l *ReservationLedger) reserved(ctx context.Context, itemID, excludeOrderID string) (int, error) {
	state := domain.OrderStateQuote
	quotes, err := l.orders.List(ctx, repositories.OrderQuery{State: &state})
	if err != nil {
		return 0, fmt.Errorf("stock: list open quotes: %w", err)
	}

	total := 0
	for _, quote := range quotes {
		if excludeOrderID != "" && quote.ID == excludeOrderID {
			continue
		}
		total += quote.QuantityOf(itemID)
	}
	return total, nil
}

var _ StockLedger = (*ReservationLedger)(nil)
