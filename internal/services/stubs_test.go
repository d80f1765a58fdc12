package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/repositories"
)

type stubNotFoundError struct{ msg string }

func (e *stubNotFoundError) Error() string       { return e.msg }
func (e *stubNotFoundError) IsNotFound() bool    { return true }
func (e *stubNotFoundError) IsConflict() bool    { return false }
func (e *stubNotFoundError) IsUnavailable() bool { return false }

func notFound(kind, id string) error {
	return &stubNotFoundError{msg: fmt.Sprintf("%s %s not found", kind, id)}
}

type memCatalogRepository struct {
	mu       sync.Mutex
	items    map[string]domain.FurnitureItem
	variants map[string]domain.Variant
	saveErr  error
}

func newMemCatalog() *memCatalogRepository {
	return &memCatalogRepository{
		items:    make(map[string]domain.FurnitureItem),
		variants: make(map[string]domain.Variant),
	}
}

func (r *memCatalogRepository) SaveItem(_ context.Context, item domain.FurnitureItem) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *memCatalogRepository) FindItem(_ context.Context, itemID string) (domain.FurnitureItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return domain.FurnitureItem{}, notFound("item", itemID)
	}
	return item, nil
}

func (r *memCatalogRepository) ListItems(_ context.Context, onlyActive bool) ([]domain.FurnitureItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FurnitureItem, 0, len(r.items))
	for _, item := range r.items {
		if onlyActive && !item.Active {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *memCatalogRepository) SaveVariant(_ context.Context, variant domain.Variant) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[variant.ID] = variant
	return nil
}

func (r *memCatalogRepository) FindVariant(_ context.Context, variantID string) (domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant, ok := r.variants[variantID]
	if !ok {
		return domain.Variant{}, notFound("variant", variantID)
	}
	return variant, nil
}

func (r *memCatalogRepository) ListVariants(_ context.Context, onlyActive bool) ([]domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Variant, 0, len(r.variants))
	for _, variant := range r.variants {
		if onlyActive && !variant.Active {
			continue
		}
		out = append(out, variant)
	}
	return out, nil
}

type memOrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newMemOrders() *memOrderRepository {
	return &memOrderRepository{orders: make(map[string]domain.Order)}
}

func (r *memOrderRepository) Insert(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepository) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return notFound("order", order.ID)
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, notFound("order", orderID)
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepository) List(_ context.Context, query repositories.OrderQuery) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if query.UserID != "" && order.UserID != query.UserID {
			continue
		}
		if query.State != nil && order.State != *query.State {
			continue
		}
		out = append(out, cloneOrder(order))
	}
	return out, nil
}

func cloneOrder(order domain.Order) domain.Order {
	cloned := order
	cloned.LineItems = make([]domain.LineItem, len(order.LineItems))
	for i, li := range order.LineItems {
		cli := li
		if li.FrozenUnitPrice != nil {
			price := *li.FrozenUnitPrice
			cli.FrozenUnitPrice = &price
		}
		cli.Variants = make([]domain.AppliedVariant, len(li.Variants))
		for j, av := range li.Variants {
			cav := av
			if av.FrozenCost != nil {
				cost := *av.FrozenCost
				cav.FrozenCost = &cost
			}
			cli.Variants[j] = cav
		}
		cloned.LineItems[i] = cli
	}
	if order.ConfirmedAt != nil {
		confirmed := *order.ConfirmedAt
		cloned.ConfirmedAt = &confirmed
	}
	return cloned
}

type memUserRepository struct {
	mu    sync.Mutex
	users map[string]domain.UserAccount
}

func newMemUsers() *memUserRepository {
	return &memUserRepository{users: make(map[string]domain.UserAccount)}
}

func (r *memUserRepository) Insert(_ context.Context, account domain.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[account.ID] = account
	return nil
}

func (r *memUserRepository) FindByID(_ context.Context, userID string) (domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.users[userID]
	if !ok {
		return domain.UserAccount{}, notFound("user", userID)
	}
	return account, nil
}

func (r *memUserRepository) FindByUsername(_ context.Context, username string) (domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.users {
		if account.Username == username {
			return account, nil
		}
	}
	return domain.UserAccount{}, notFound("user", username)
}

func (r *memUserRepository) FindByEmail(_ context.Context, email string) (domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.users {
		if account.Email == email {
			return account, nil
		}
	}
	return domain.UserAccount{}, notFound("user", email)
}

type passthroughUnitOfWork struct {
	err error
}

func (u *passthroughUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.err != nil {
		return u.err
	}
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func seqIDGenerator() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%04d", n)
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var errStubUnavailable = errors.New("stub: backend unavailable")
