package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/muebleria/api/internal/domain"
	pfirestore "github.com/muebleria/api/internal/platform/firestore"
	"github.com/muebleria/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists orders in Firestore. Line items and their applied
// variants are embedded in the order document so the aggregate is written and
// read as a single unit.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		base: pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil),
	}, nil
}

// Insert writes a new order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	return r.save(ctx, order)
}

// Update overwrites the order document with the current aggregate state.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	return r.save(ctx, order)
}

func (r *OrderRepository) save(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	return r.base.Set(ctx, order.ID, fromDomainOrder(order))
}

// FindByID loads the order aggregate by ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// List returns orders matching the query, newest first.
func (r *OrderRepository) List(ctx context.Context, query repositories.OrderQuery) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if userID := strings.TrimSpace(query.UserID); userID != "" {
			q = q.Where("userId", "==", userID)
		}
		if query.State != nil {
			q = q.Where("state", "==", string(*query.State))
		}
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

type orderDocument struct {
	UserID      string             `firestore:"userId"`
	State       string             `firestore:"state"`
	Total       int64              `firestore:"total"`
	LineItems   []lineItemDocument `firestore:"lineItems"`
	CreatedAt   time.Time          `firestore:"createdAt"`
	ConfirmedAt *time.Time         `firestore:"confirmedAt,omitempty"`
}

type lineItemDocument struct {
	ID              string                   `firestore:"id"`
	ItemID          string                   `firestore:"itemId"`
	ItemName        string                   `firestore:"itemName"`
	Quantity        int                      `firestore:"quantity"`
	FrozenUnitPrice *int64                   `firestore:"frozenUnitPrice,omitempty"`
	Variants        []appliedVariantDocument `firestore:"variants"`
}

type appliedVariantDocument struct {
	ID         string `firestore:"id"`
	VariantID  string `firestore:"variantId"`
	Name       string `firestore:"name"`
	FrozenCost *int64 `firestore:"frozenCost,omitempty"`
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		UserID:    order.UserID,
		State:     string(order.State),
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
	}
	if order.ConfirmedAt != nil {
		confirmed := *order.ConfirmedAt
		doc.ConfirmedAt = &confirmed
	}
	doc.LineItems = make([]lineItemDocument, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		doc.LineItems = append(doc.LineItems, fromDomainLineItem(li))
	}
	return doc
}

func fromDomainLineItem(li domain.LineItem) lineItemDocument {
	doc := lineItemDocument{
		ID:       li.ID,
		ItemID:   li.ItemID,
		ItemName: li.ItemName,
		Quantity: li.Quantity,
	}
	if li.FrozenUnitPrice != nil {
		price := *li.FrozenUnitPrice
		doc.FrozenUnitPrice = &price
	}
	doc.Variants = make([]appliedVariantDocument, 0, len(li.Variants))
	for _, av := range li.Variants {
		variantDoc := appliedVariantDocument{
			ID:        av.ID,
			VariantID: av.VariantID,
			Name:      av.Name,
		}
		if av.FrozenCost != nil {
			cost := *av.FrozenCost
			variantDoc.FrozenCost = &cost
		}
		doc.Variants = append(doc.Variants, variantDoc)
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:        id,
		UserID:    doc.UserID,
		State:     domain.OrderState(doc.State),
		Total:     doc.Total,
		CreatedAt: doc.CreatedAt,
	}
	if doc.ConfirmedAt != nil {
		confirmed := *doc.ConfirmedAt
		order.ConfirmedAt = &confirmed
	}
	order.LineItems = make([]domain.LineItem, 0, len(doc.LineItems))
	for _, li := range doc.LineItems {
		order.LineItems = append(order.LineItems, toDomainLineItem(li))
	}
	return order
}

func toDomainLineItem(doc lineItemDocument) domain.LineItem {
	li := domain.LineItem{
		ID:       doc.ID,
		ItemID:   doc.ItemID,
		ItemName: doc.ItemName,
		Quantity: doc.Quantity,
	}
	if doc.FrozenUnitPrice != nil {
		price := *doc.FrozenUnitPrice
		li.FrozenUnitPrice = &price
	}
	li.Variants = make([]domain.AppliedVariant, 0, len(doc.Variants))
	for _, av := range doc.Variants {
		applied := domain.AppliedVariant{
			ID:        av.ID,
			VariantID: av.VariantID,
			Name:      av.Name,
		}
		if av.FrozenCost != nil {
			cost := *av.FrozenCost
			applied.FrozenCost = &cost
		}
		li.Variants = append(li.Variants, applied)
	}
	return li
}
