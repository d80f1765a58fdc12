package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/muebleria/api/internal/platform/firestore"
	"github.com/muebleria/api/internal/repositories"
)

// UnitOfWork groups repository operations in a single Firestore transaction.
// The transaction handle travels on the context, so any repository call made
// inside fn reads and writes through the same transaction.
type UnitOfWork struct {
	provider *pfirestore.Provider
	opts     []pfirestore.TxOption
}

// NewUnitOfWork constructs a transaction runner bound to the provider.
func NewUnitOfWork(provider *pfirestore.Provider, opts ...pfirestore.TxOption) (*UnitOfWork, error) {
	if provider == nil {
		return nil, errors.New("unit of work requires firestore provider")
	}
	return &UnitOfWork{provider: provider, opts: opts}, nil
}

// RunInTx executes fn within a Firestore transaction. Nested calls reuse the
// transaction already on the context.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.provider == nil {
		return errors.New("unit of work not initialised")
	}
	if fn == nil {
		return errors.New("unit of work requires a function")
	}
	if _, ok := pfirestore.TxFrom(ctx); ok {
		return fn(ctx)
	}
	return u.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	}, u.opts...)
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)
