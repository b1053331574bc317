// Package lifecycle drives an application through the hiring state
// machine: Pending at creation, gated advancement into test rounds,
// student-initiated withdrawal, HR-initiated hard deletion. Every
// transition appends a timestamped timeline entry; timelines are
// append-only and stored chronologically.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"talentgate/internal/errors"
	"talentgate/internal/scoring"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

// StageApplied is the mandatory first timeline stage on every application.
const StageApplied = "Applied"

// terminalStates cannot be left by a student withdrawal.
var terminalStates = map[types.ApplicationStatus]bool{
	types.StatusWithdrawn: true,
	types.StatusRejected:  true,
}

// Engine owns application creation and state transitions.
type Engine struct {
	store  store.Store
	scorer scoring.Scorer
	logger *errors.Logger

	// now and newID are injectable for tests.
	now   func() time.Time
	newID func() string
}

// NewEngine wires the lifecycle engine against a store and a scorer.
func NewEngine(st store.Store, scorer scoring.Scorer, logger *errors.Logger) *Engine {
	return &Engine{
		store:  st,
		scorer: scorer,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Apply creates an application for the principal against a job.
//
// An uploaded resume is a precondition: the stored signal is reused,
// never re-extracted here. At most one non-withdrawn application may
// exist per (student, job) pair; a prior Withdrawn application permits
// re-applying. The fit score is computed once at apply time and
// embedded as a snapshot.
func (e *Engine) Apply(ctx context.Context, principal types.Principal, jobID string) (*types.Application, error) {
	job, err := e.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobStatusActive {
		return nil, errors.NewPreconditionError(errors.ErrCodePreconditionFailed,
			"job is not accepting applications", nil).
			WithContext("job_id", jobID).
			WithContext("job_status", string(job.Status))
	}

	profile, err := e.store.GetProfileSignal(ctx, principal.SubjectID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.NewPreconditionError(errors.ErrCodePreconditionFailed,
			"no resume on file; upload a resume before applying", nil).
			WithContext("student_id", principal.SubjectID)
	}

	existing, err := e.store.FindApplication(ctx, principal.SubjectID, jobID, types.StatusWithdrawn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewConflictError(errors.ErrCodeDuplicateApplication,
			"an application for this job already exists", nil).
			WithContext("application_id", existing.ID).
			WithContext("status", string(existing.Status))
	}

	score := e.scorer.Score(scoring.Input{
		StudentID: principal.SubjectID,
		Signal:    profile.Signal,
		Job:       *job,
	})

	now := e.now()
	app := &types.Application{
		ID:        e.newID(),
		StudentID: principal.SubjectID,
		JobID:     jobID,
		Status:    types.StatusPending,
		FitScore:  score,
		Timeline: []types.TimelineEntry{
			{Stage: StageApplied, At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	e.logger.Info("application created",
		"application_id", app.ID,
		"student_id", app.StudentID,
		"job_id", app.JobID,
		"fit_score", score.FitScore)

	return app, nil
}

// Withdraw moves the principal's own application to Withdrawn. Rejected
// and Withdrawn are terminal for this operation.
func (e *Engine) Withdraw(ctx context.Context, principal types.Principal, applicationID string) (*types.Application, error) {
	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.StudentID != principal.SubjectID {
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden,
			"application belongs to another student", nil).
			WithContext("application_id", applicationID)
	}
	if terminalStates[app.Status] {
		return nil, errors.NewTransitionError(errors.ErrCodeInvalidTransition,
			"cannot withdraw from status "+string(app.Status), nil).
			WithContext("application_id", applicationID).
			WithContext("status", string(app.Status))
	}

	now := e.now()
	app.Status = types.StatusWithdrawn
	app.Timeline = append(app.Timeline, types.TimelineEntry{
		Stage: string(types.StatusWithdrawn),
		At:    now,
	})
	app.UpdatedAt = now

	if err := e.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}

	e.logger.Info("application withdrawn",
		"application_id", app.ID,
		"student_id", app.StudentID)

	return app, nil
}

// Delete hard-deletes an application. Only the HR user that posted the
// associated job may do so. The record disappears entirely, so no
// timeline entry survives.
func (e *Engine) Delete(ctx context.Context, principal types.Principal, applicationID string) error {
	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}

	job, err := e.store.FindJob(ctx, app.JobID)
	if err != nil {
		return err
	}
	if principal.Role != types.RoleHR || job.OwnerID != principal.SubjectID {
		return errors.NewForbiddenError(errors.ErrCodeForbidden,
			"only the HR user that posted the job may delete its applications", nil).
			WithContext("application_id", applicationID).
			WithContext("job_id", job.ID)
	}

	if err := e.store.DeleteApplication(ctx, applicationID); err != nil {
		return err
	}

	e.logger.Info("application deleted",
		"application_id", applicationID,
		"job_id", job.ID,
		"hr_id", principal.SubjectID)

	return nil
}

// ListForStudent returns the principal's own applications in
// chronological order.
func (e *Engine) ListForStudent(ctx context.Context, principal types.Principal) ([]types.Application, error) {
	return e.store.ListApplicationsByStudent(ctx, principal.SubjectID)
}

// ListCandidates returns all applications for a job the principal
// posted, for the HR candidate review view.
func (e *Engine) ListCandidates(ctx context.Context, principal types.Principal, jobID string) ([]types.Application, error) {
	job, err := e.store.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if principal.Role != types.RoleHR || job.OwnerID != principal.SubjectID {
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden,
			"only the HR user that posted the job may list its candidates", nil).
			WithContext("job_id", jobID)
	}
	return e.store.ListApplicationsByJob(ctx, jobID)
}

// JobHistory aggregates per-status application counts across every job
// the principal posted.
func (e *Engine) JobHistory(ctx context.Context, principal types.Principal) ([]types.JobHistoryStats, error) {
	if principal.Role != types.RoleHR {
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden,
			"job history is an HR view", nil)
	}

	jobs, err := e.store.ListJobsByOwner(ctx, principal.SubjectID)
	if err != nil {
		return nil, err
	}

	stats := make([]types.JobHistoryStats, 0, len(jobs))
	for _, job := range jobs {
		apps, err := e.store.ListApplicationsByJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		entry := types.JobHistoryStats{
			JobID:    job.ID,
			Title:    job.Title,
			Total:    len(apps),
			ByStatus: make(map[types.ApplicationStatus]int),
		}
		for _, app := range apps {
			entry.ByStatus[app.Status]++
		}
		stats = append(stats, entry)
	}
	return stats, nil
}
