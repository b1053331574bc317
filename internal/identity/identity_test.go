package identity

import (
	"context"
	"log/slog"
	"testing"

	"talentgate/internal/errors"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

func TestReconcileRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		role     types.Role
		jobs     int
		company  bool
		wantRole types.Role
	}{
		{
			name:     "student with a posted job becomes hr",
			role:     types.RoleStudent,
			jobs:     1,
			wantRole: types.RoleHR,
		},
		{
			name:     "student owning a company becomes hr",
			role:     types.RoleStudent,
			company:  true,
			wantRole: types.RoleHR,
		},
		{
			name:     "student with no ownership stays student",
			role:     types.RoleStudent,
			wantRole: types.RoleStudent,
		},
		{
			name:     "hr stays hr",
			role:     types.RoleHR,
			wantRole: types.RoleHR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			r := NewReconciler(st, errors.NewLogger(slog.LevelError))

			user := &types.User{ID: "user-1", Name: "Alex", Role: tt.role}
			if err := st.SaveUser(ctx, user); err != nil {
				t.Fatalf("seed user: %v", err)
			}
			for i := 0; i < tt.jobs; i++ {
				job := &types.JobRequirements{ID: "job-1", OwnerID: "user-1"}
				if err := st.SaveJob(ctx, job); err != nil {
					t.Fatalf("seed job: %v", err)
				}
			}
			if tt.company {
				if err := st.SetCompanyOwner(ctx, "acme", "user-1"); err != nil {
					t.Fatalf("seed company: %v", err)
				}
			}

			got, err := r.ReconcileRole(ctx, "user-1")
			if err != nil {
				t.Fatalf("reconcile: %v", err)
			}
			if got.Role != tt.wantRole {
				t.Errorf("role = %s, want %s", got.Role, tt.wantRole)
			}

			// Idempotent: running again changes nothing.
			again, err := r.ReconcileRole(ctx, "user-1")
			if err != nil {
				t.Fatalf("second reconcile: %v", err)
			}
			if again.Role != tt.wantRole {
				t.Errorf("role after second run = %s, want %s", again.Role, tt.wantRole)
			}
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		st := store.NewMemoryStore()
		r := NewReconciler(st, errors.NewLogger(slog.LevelError))

		if _, err := r.ReconcileRole(ctx, "ghost"); !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("err = %v, want NOT_FOUND", err)
		}
	})
}
