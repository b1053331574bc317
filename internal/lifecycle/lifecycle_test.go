package lifecycle

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"talentgate/internal/errors"
	"talentgate/internal/scoring"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

// fixedScorer returns a constant score so transition tests stay
// independent of the matching strategies.
type fixedScorer struct {
	score int
}

func (f fixedScorer) Score(scoring.Input) types.FitScore {
	return types.FitScore{FitScore: f.score, Strategy: "weighted"}
}

func newTestEngine(t *testing.T, score int) (*Engine, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	engine := NewEngine(st, fixedScorer{score: score}, errors.NewLogger(slog.LevelError))
	return engine, st
}

func seedJob(t *testing.T, st *store.MemoryStore, job types.JobRequirements) {
	t.Helper()
	if job.Status == "" {
		job.Status = types.JobStatusActive
	}
	if err := st.SaveJob(context.Background(), &job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
}

func seedProfile(t *testing.T, st *store.MemoryStore, studentID string) {
	t.Helper()
	profile := &types.StudentProfile{
		StudentID:  studentID,
		Signal:     types.CandidateSignal{Skills: []string{"React"}},
		UploadedAt: time.Now(),
	}
	if err := st.SaveProfileSignal(context.Background(), profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	student := types.Principal{SubjectID: "student-1", Role: types.RoleStudent}

	t.Run("creates pending application with applied timeline entry", func(t *testing.T) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})
		seedProfile(t, st, "student-1")

		app, err := engine.Apply(ctx, student, "job-1")
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if app.Status != types.StatusPending {
			t.Errorf("status = %s, want Pending", app.Status)
		}
		if app.FitScore.FitScore != 72 {
			t.Errorf("fitScore = %d, want 72", app.FitScore.FitScore)
		}
		if len(app.Timeline) != 1 || app.Timeline[0].Stage != StageApplied {
			t.Errorf("timeline = %+v, want single Applied entry", app.Timeline)
		}
		if app.ID == "" {
			t.Error("application id not assigned")
		}
	})

	t.Run("fails without resume on file", func(t *testing.T) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})

		_, err := engine.Apply(ctx, student, "job-1")
		if !errors.IsCode(err, errors.ErrCodePreconditionFailed) {
			t.Errorf("err = %v, want PRECONDITION_FAILED", err)
		}
	})

	t.Run("fails on closed job", func(t *testing.T) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1", Status: types.JobStatusClosed})
		seedProfile(t, st, "student-1")

		_, err := engine.Apply(ctx, student, "job-1")
		if !errors.IsCode(err, errors.ErrCodePreconditionFailed) {
			t.Errorf("err = %v, want PRECONDITION_FAILED", err)
		}
	})

	t.Run("second apply is a duplicate", func(t *testing.T) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})
		seedProfile(t, st, "student-1")

		if _, err := engine.Apply(ctx, student, "job-1"); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		_, err := engine.Apply(ctx, student, "job-1")
		if !errors.IsCode(err, errors.ErrCodeDuplicateApplication) {
			t.Errorf("err = %v, want DUPLICATE_APPLICATION", err)
		}
	})

	t.Run("re-apply allowed after withdrawal", func(t *testing.T) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})
		seedProfile(t, st, "student-1")

		first, err := engine.Apply(ctx, student, "job-1")
		if err != nil {
			t.Fatalf("first apply: %v", err)
		}
		if _, err := engine.Withdraw(ctx, student, first.ID); err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		second, err := engine.Apply(ctx, student, "job-1")
		if err != nil {
			t.Fatalf("re-apply after withdrawal: %v", err)
		}
		if second.ID == first.ID {
			t.Error("re-apply reused the withdrawn application")
		}
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	student := types.Principal{SubjectID: "student-1", Role: types.RoleStudent}

	setup := func(t *testing.T, status types.ApplicationStatus) (*Engine, string) {
		engine, st := newTestEngine(t, 72)
		app := &types.Application{
			ID:        "app-1",
			StudentID: "student-1",
			JobID:     "job-1",
			Status:    status,
			Timeline:  []types.TimelineEntry{{Stage: StageApplied, At: time.Now()}},
			CreatedAt: time.Now(),
		}
		if err := st.CreateApplication(ctx, app); err != nil {
			t.Fatalf("seed application: %v", err)
		}
		return engine, app.ID
	}

	t.Run("pending withdraws and appends timeline", func(t *testing.T) {
		engine, id := setup(t, types.StatusPending)

		app, err := engine.Withdraw(ctx, student, id)
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if app.Status != types.StatusWithdrawn {
			t.Errorf("status = %s, want Withdrawn", app.Status)
		}
		if len(app.Timeline) != 2 || app.Timeline[1].Stage != string(types.StatusWithdrawn) {
			t.Errorf("timeline = %+v, want appended Withdrawn entry", app.Timeline)
		}
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		engine, id := setup(t, types.StatusRejected)

		_, err := engine.Withdraw(ctx, student, id)
		if !errors.IsCode(err, errors.ErrCodeInvalidTransition) {
			t.Errorf("err = %v, want INVALID_TRANSITION", err)
		}
	})

	t.Run("already withdrawn is terminal", func(t *testing.T) {
		engine, id := setup(t, types.StatusWithdrawn)

		_, err := engine.Withdraw(ctx, student, id)
		if !errors.IsCode(err, errors.ErrCodeInvalidTransition) {
			t.Errorf("err = %v, want INVALID_TRANSITION", err)
		}
	})

	t.Run("other students are forbidden", func(t *testing.T) {
		engine, id := setup(t, types.StatusPending)

		other := types.Principal{SubjectID: "student-2", Role: types.RoleStudent}
		_, err := engine.Withdraw(ctx, other, id)
		if !errors.IsCode(err, errors.ErrCodeForbidden) {
			t.Errorf("err = %v, want FORBIDDEN", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Engine, *store.MemoryStore) {
		engine, st := newTestEngine(t, 72)
		seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})
		app := &types.Application{
			ID:        "app-1",
			StudentID: "student-1",
			JobID:     "job-1",
			Status:    types.StatusPending,
			CreatedAt: time.Now(),
		}
		if err := st.CreateApplication(ctx, app); err != nil {
			t.Fatalf("seed application: %v", err)
		}
		return engine, st
	}

	t.Run("owning hr hard-deletes", func(t *testing.T) {
		engine, st := setup(t)

		hr := types.Principal{SubjectID: "hr-1", Role: types.RoleHR}
		if err := engine.Delete(ctx, hr, "app-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := st.GetApplication(ctx, "app-1"); !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("get after delete = %v, want NOT_FOUND", err)
		}
	})

	t.Run("non-owning hr is forbidden", func(t *testing.T) {
		engine, _ := setup(t)

		other := types.Principal{SubjectID: "hr-2", Role: types.RoleHR}
		err := engine.Delete(ctx, other, "app-1")
		if !errors.IsCode(err, errors.ErrCodeForbidden) {
			t.Errorf("err = %v, want FORBIDDEN", err)
		}
	})

	t.Run("students are forbidden", func(t *testing.T) {
		engine, _ := setup(t)

		student := types.Principal{SubjectID: "student-1", Role: types.RoleStudent}
		err := engine.Delete(ctx, student, "app-1")
		if !errors.IsCode(err, errors.ErrCodeForbidden) {
			t.Errorf("err = %v, want FORBIDDEN", err)
		}
	})
}

func TestJobHistory(t *testing.T) {
	ctx := context.Background()
	engine, st := newTestEngine(t, 72)
	hr := types.Principal{SubjectID: "hr-1", Role: types.RoleHR}

	seedJob(t, st, types.JobRequirements{ID: "job-1", OwnerID: "hr-1", Title: "Backend Engineer"})
	for i, status := range []types.ApplicationStatus{types.StatusPending, types.StatusPending, types.StatusRejected} {
		app := &types.Application{
			ID:        "app-" + string(rune('a'+i)),
			StudentID: "student-" + string(rune('a'+i)),
			JobID:     "job-1",
			Status:    status,
			CreatedAt: time.Now(),
		}
		if err := st.CreateApplication(ctx, app); err != nil {
			t.Fatalf("seed application: %v", err)
		}
	}

	stats, err := engine.JobHistory(ctx, hr)
	if err != nil {
		t.Fatalf("job history: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("len(stats) = %d, want 1", len(stats))
	}
	if stats[0].Total != 3 {
		t.Errorf("total = %d, want 3", stats[0].Total)
	}
	if stats[0].ByStatus[types.StatusPending] != 2 || stats[0].ByStatus[types.StatusRejected] != 1 {
		t.Errorf("byStatus = %+v, want 2 Pending / 1 Rejected", stats[0].ByStatus)
	}

	t.Run("students are forbidden", func(t *testing.T) {
		student := types.Principal{SubjectID: "student-1", Role: types.RoleStudent}
		if _, err := engine.JobHistory(ctx, student); !errors.IsCode(err, errors.ErrCodeForbidden) {
			t.Errorf("err = %v, want FORBIDDEN", err)
		}
	})
}
