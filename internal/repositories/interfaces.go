package repositories

import (
	"context"

	domain "github.com/muebleria/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogRepository persists furniture items and pricing variants.
type CatalogRepository interface {
	SaveItem(ctx context.Context, item domain.FurnitureItem) error
	FindItem(ctx context.Context, itemID string) (domain.FurnitureItem, error)
	// ListItems returns catalog items, restricted to active ones when onlyActive is set.
	ListItems(ctx context.Context, onlyActive bool) ([]domain.FurnitureItem, error)
	SaveVariant(ctx context.Context, variant domain.Variant) error
	FindVariant(ctx context.Context, variantID string) (domain.Variant, error)
	ListVariants(ctx context.Context, onlyActive bool) ([]domain.Variant, error)
}

// OrderQuery filters order listings. Zero-value fields are ignored.
type OrderQuery struct {
	UserID string
	State  *domain.OrderState
}

// OrderRepository persists orders with their embedded line items.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, query OrderQuery) ([]domain.Order, error)
}

// UserRepository persists account records used for authentication.
type UserRepository interface {
	Insert(ctx context.Context, account domain.UserAccount) error
	FindByID(ctx context.Context, userID string) (domain.UserAccount, error)
	FindByUsername(ctx context.Context, username string) (domain.UserAccount, error)
	FindByEmail(ctx context.Context, email string) (domain.UserAccount, error)
}

// HealthRepository reports backend connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err carries repository not-found semantics.
func IsNotFound(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsNotFound()
}

// IsConflict reports whether err carries repository conflict semantics.
func IsConflict(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsConflict()
}

// IsUnavailable reports whether err carries repository unavailability semantics.
func IsUnavailable(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsUnavailable()
}

func asRepositoryError(err error) (RepositoryError, bool) {
	for err != nil {
		if repoErr, ok := err.(RepositoryError); ok {
			return repoErr, true
		}
		type unwrapper interface{ Unwrap() error }
		wrapped, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = wrapped.Unwrap()
	}
	return nil, false
}
