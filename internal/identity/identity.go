// Package identity reconciles platform roles at the identity-sync
// boundary. Role correction runs when the upstream identity provider
// pushes a user, never inside the lifecycle core.
package identity

import (
	"context"

	"talentgate/internal/errors"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

// Reconciler corrects stale roles against ownership facts.
type Reconciler struct {
	store  store.Store
	logger *errors.Logger
}

// NewReconciler wires the role reconciler.
func NewReconciler(st store.Store, logger *errors.Logger) *Reconciler {
	return &Reconciler{store: st, logger: logger}
}

// ReconcileRole promotes a STUDENT account to HR when it owns a company
// or has posted jobs. The operation is idempotent: an account already
// HR, or one with no ownership, is returned unchanged. Demotion never
// happens here.
func (r *Reconciler) ReconcileRole(ctx context.Context, userID string) (*types.User, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == types.RoleHR {
		return user, nil
	}

	companies, err := r.store.CountCompaniesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	jobs, err := r.store.CountJobsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if companies == 0 && jobs == 0 {
		return user, nil
	}

	user.Role = types.RoleHR
	if err := r.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	r.logger.Info("role reconciled to HR",
		"user_id", userID,
		"companies", companies,
		"jobs", jobs)

	return user, nil
}
