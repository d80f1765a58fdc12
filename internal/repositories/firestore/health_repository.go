package firestore

import (
	"context"
	"errors"
	"time"

	pfirestore "github.com/muebleria/api/internal/platform/firestore"
	"github.com/muebleria/api/internal/repositories"
)

const (
	healthCollection  = "healthProbes"
	healthProbeDocID  = "readiness"
	defaultPingBudget = 1500 * time.Millisecond
)

// HealthRepository verifies Firestore connectivity for readiness probes.
// A not-found probe document still proves the backend answered.
type HealthRepository struct {
	provider *pfirestore.Provider
	budget   time.Duration
}

// NewHealthRepository constructs a Firestore-backed health repository.
func NewHealthRepository(provider *pfirestore.Provider) (*HealthRepository, error) {
	if provider == nil {
		return nil, errors.New("health repository requires firestore provider")
	}
	return &HealthRepository{provider: provider, budget: defaultPingBudget}, nil
}

// Ping performs a cheap read against the backend.
func (r *HealthRepository) Ping(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return errors.New("health repository not initialised")
	}

	if r.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.budget)
		defer cancel()
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	_, err = client.Collection(healthCollection).Doc(healthProbeDocID).Get(ctx)
	if err == nil {
		return nil
	}
	wrapped := pfirestore.WrapError("health.ping", err)
	if repositories.IsNotFound(wrapped) {
		return nil
	}
	return wrapped
}

var _ repositories.HealthRepository = (*HealthRepository)(nil)
