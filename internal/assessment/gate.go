// Package assessment gates applications into test rounds: threshold
// checks on the embedded fit score, one round per application, and
// advisory anti-cheat telemetry that only ever accumulates.
package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"talentgate/internal/errors"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

// RoundStatusScheduled is the round summary status set at assignment.
const RoundStatusScheduled = "Scheduled"

// Anti-cheat event types accepted by RecordEvent.
const (
	EventTabSwitch      = "tab_switch"
	EventCopyPaste      = "copy_paste"
	EventFullscreenExit = "fullscreen_exit"
	EventSuspicious     = "suspicious"
)

// Gate assigns and tracks first-round tests.
type Gate struct {
	store     store.Store
	questions QuestionSource // nil means rounds start with no questions
	threshold int
	logger    *errors.Logger

	now   func() time.Time
	newID func() string
}

// NewGate wires the test round gate. threshold is the minimum fit score
// for assignment; the boundary is inclusive, a score equal to the
// threshold passes. A nil question source is allowed.
func NewGate(st store.Store, questions QuestionSource, threshold int, logger *errors.Logger) *Gate {
	return &Gate{
		store:     st,
		questions: questions,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// AssignTest creates a first-round test for an application.
//
// Only the HR user that posted the job may assign. The application's
// embedded fit score must reach the threshold, and an application that
// already carries a round1 test cannot be assigned again. On success
// the application advances to Round1 with a Scheduled round summary and
// a timeline entry recording the match score at assignment time.
func (g *Gate) AssignTest(ctx context.Context, principal types.Principal, applicationID string) (*types.TestRound, error) {
	app, err := g.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := g.store.FindJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}

	if principal.Role != types.RoleHR || job.OwnerID != principal.SubjectID {
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden,
			"only the HR user that posted the job may assign tests", nil).
			WithContext("application_id", applicationID).
			WithContext("job_id", job.ID)
	}
	if app.FitScore.FitScore < g.threshold {
		return nil, errors.NewGateError(errors.ErrCodeScoreTooLow,
			fmt.Sprintf("fit score %d is below the assignment threshold %d", app.FitScore.FitScore, g.threshold), nil).
			WithContext("application_id", applicationID).
			WithContext("fit_score", app.FitScore.FitScore)
	}
	if app.Round1 != nil && app.Round1.TestID != "" {
		return nil, errors.NewConflictError(errors.ErrCodeAlreadyAssigned,
			"a test round is already assigned to this application", nil).
			WithContext("application_id", applicationID).
			WithContext("test_id", app.Round1.TestID)
	}

	roundCfg := job.RoundConfig.Round1
	if roundCfg == (types.Round1Config{}) {
		roundCfg = types.DefaultRoundConfig().Round1
	}

	questions := []types.Question{}
	if g.questions != nil {
		fetched, err := g.questions.FetchQuestions(ctx, *job, roundCfg)
		if err != nil {
			// A broken catalogue degrades the round to an empty
			// question list; assignment itself still succeeds.
			g.logger.Warn("question catalogue unavailable, assigning empty round",
				"application_id", applicationID,
				"error", err.Error())
		} else {
			questions = fetched
		}
	}

	now := g.now()
	round := &types.TestRound{
		ID:            g.newID(),
		ApplicationID: app.ID,
		JobID:         job.ID,
		StudentID:     app.StudentID,
		Questions:     questions,
		Duration:      roundCfg.Duration,
		PassingScore:  roundCfg.PassingScore,
		AntiCheat:     types.AntiCheatLog{},
		AssignedAt:    now,
	}
	if err := g.store.CreateTestRound(ctx, round); err != nil {
		return nil, err
	}

	app.Status = types.StatusRound1
	app.Round1 = &types.RoundSummary{
		Status: RoundStatusScheduled,
		TestID: round.ID,
	}
	app.Timeline = append(app.Timeline, types.TimelineEntry{
		Stage:  string(types.StatusRound1),
		At:     now,
		Action: fmt.Sprintf("Test assigned by HR. Match score: %d%%", app.FitScore.FitScore),
	})
	app.UpdatedAt = now

	if err := g.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}

	g.logger.Info("test round assigned",
		"application_id", app.ID,
		"test_id", round.ID,
		"fit_score", app.FitScore.FitScore)

	return round, nil
}

// RecordEvent accumulates one anti-cheat observation on a test round.
// Counters only ever increase and nothing here blocks submission; the
// log is advisory data for HR review.
func (g *Gate) RecordEvent(ctx context.Context, testID, eventType, detail string) (*types.TestRound, error) {
	round, err := g.store.GetTestRound(ctx, testID)
	if err != nil {
		return nil, err
	}

	switch eventType {
	case EventTabSwitch:
		round.AntiCheat.TabSwitches++
	case EventCopyPaste:
		round.AntiCheat.CopyPasteAttempts++
	case EventFullscreenExit:
		round.AntiCheat.FullscreenExits++
	case EventSuspicious:
		round.AntiCheat.SuspiciousActivity = append(round.AntiCheat.SuspiciousActivity, detail)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"unknown anti-cheat event type: "+eventType, nil)
	}

	if err := g.store.UpdateTestRound(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

// Submit marks a test round submitted and stores the client-reported
// anti-cheat log as-is. Grading is an external collaborator; nothing
// here scores answers.
func (g *Gate) Submit(ctx context.Context, principal types.Principal, testID string, antiCheat types.AntiCheatLog) (*types.TestRound, error) {
	round, err := g.store.GetTestRound(ctx, testID)
	if err != nil {
		return nil, err
	}
	if round.StudentID != principal.SubjectID {
		return nil, errors.NewForbiddenError(errors.ErrCodeForbidden,
			"test round belongs to another student", nil).
			WithContext("test_id", testID)
	}
	if round.SubmittedAt != nil {
		return nil, errors.NewTransitionError(errors.ErrCodeInvalidTransition,
			"test round already submitted", nil).
			WithContext("test_id", testID)
	}

	now := g.now()
	round.SubmittedAt = &now
	round.AntiCheat = antiCheat

	if err := g.store.UpdateTestRound(ctx, round); err != nil {
		return nil, err
	}

	g.logger.Info("test round submitted",
		"test_id", round.ID,
		"application_id", round.ApplicationID)

	return round, nil
}
