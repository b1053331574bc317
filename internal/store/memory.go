package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"talentgate/internal/errors"
	"talentgate/internal/types"
)

// MemoryStore is a mutex-guarded in-memory Store. Used for tests,
// demos, and the default "memory" database driver.
type MemoryStore struct {
	mu sync.RWMutex

	applications map[string]types.Application
	jobs         map[string]types.JobRequirements
	profiles     map[string]types.StudentProfile
	rounds       map[string]types.TestRound
	users        map[string]types.User
	companies    map[string]string // companyID -> ownerID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		applications: make(map[string]types.Application),
		jobs:         make(map[string]types.JobRequirements),
		profiles:     make(map[string]types.StudentProfile),
		rounds:       make(map[string]types.TestRound),
		users:        make(map[string]types.User),
		companies:    make(map[string]string),
	}
}

func notFound(message string) error {
	return errors.NewNotFoundError(errors.ErrCodeNotFound, message, nil)
}

// FindApplication returns the application for a (student, job) pair,
// skipping excluded statuses. Returns nil when nothing matches.
func (s *MemoryStore) FindApplication(_ context.Context, studentID, jobID string, excludeStatus ...types.ApplicationStatus) (*types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.applications {
		if app.StudentID != studentID || app.JobID != jobID {
			continue
		}
		if slices.Contains(excludeStatus, app.Status) {
			continue
		}
		found := copyApplication(app)
		return &found, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetApplication(_ context.Context, id string) (*types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, notFound("application not found: " + id)
	}
	found := copyApplication(app)
	return &found, nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *types.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applications[app.ID] = copyApplication(*app)
	return nil
}

func (s *MemoryStore) UpdateApplication(_ context.Context, app *types.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[app.ID]; !ok {
		return notFound("application not found: " + app.ID)
	}
	s.applications[app.ID] = copyApplication(*app)
	return nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return notFound("application not found: " + id)
	}
	delete(s.applications, id)
	return nil
}

func (s *MemoryStore) ListApplicationsByStudent(_ context.Context, studentID string) ([]types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []types.Application
	for _, app := range s.applications {
		if app.StudentID == studentID {
			apps = append(apps, copyApplication(app))
		}
	}
	sortApplications(apps)
	return apps, nil
}

func (s *MemoryStore) ListApplicationsByJob(_ context.Context, jobID string) ([]types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []types.Application
	for _, app := range s.applications {
		if app.JobID == jobID {
			apps = append(apps, copyApplication(app))
		}
	}
	sortApplications(apps)
	return apps, nil
}

func (s *MemoryStore) FindJob(_ context.Context, id string) (*types.JobRequirements, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, notFound("job not found: " + id)
	}
	found := copyJob(job)
	return &found, nil
}

func (s *MemoryStore) SaveJob(_ context.Context, job *types.JobRequirements) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = copyJob(*job)
	return nil
}

func (s *MemoryStore) ListJobsByOwner(_ context.Context, ownerID string) ([]types.JobRequirements, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []types.JobRequirements
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			jobs = append(jobs, copyJob(job))
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

func (s *MemoryStore) CountJobsByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) GetProfileSignal(_ context.Context, studentID string) (*types.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[studentID]
	if !ok {
		return nil, nil
	}
	found := copyProfile(profile)
	return &found, nil
}

func (s *MemoryStore) SaveProfileSignal(_ context.Context, profile *types.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.StudentID] = copyProfile(*profile)
	return nil
}

func (s *MemoryStore) GetTestRound(_ context.Context, id string) (*types.TestRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	if !ok {
		return nil, notFound("test round not found: " + id)
	}
	found := copyTestRound(round)
	return &found, nil
}

func (s *MemoryStore) CreateTestRound(_ context.Context, round *types.TestRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds[round.ID] = copyTestRound(*round)
	return nil
}

func (s *MemoryStore) UpdateTestRound(_ context.Context, round *types.TestRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[round.ID]; !ok {
		return notFound("test round not found: " + round.ID)
	}
	s.rounds[round.ID] = copyTestRound(*round)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFound("user not found: " + id)
	}
	return &user, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) CountCompaniesByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, owner := range s.companies {
		if owner == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) SetCompanyOwner(_ context.Context, companyID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies[companyID] = ownerID
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// sortApplications orders applications chronologically for stable
// listings.
func sortApplications(apps []types.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
}

// Deep copies keep callers from mutating stored state through shared
// slices.

func copyApplication(app types.Application) types.Application {
	out := app
	out.Timeline = append([]types.TimelineEntry(nil), app.Timeline...)
	out.FitScore.MatchedSkills = append([]string(nil), app.FitScore.MatchedSkills...)
	out.FitScore.MissingSkills = append([]string(nil), app.FitScore.MissingSkills...)
	out.FitScore.Flags = append([]string(nil), app.FitScore.Flags...)
	if app.Round1 != nil {
		round := *app.Round1
		round.AntiCheatFlags = append([]string(nil), app.Round1.AntiCheatFlags...)
		out.Round1 = &round
	}
	if app.Round2 != nil {
		round := *app.Round2
		round.AntiCheatFlags = append([]string(nil), app.Round2.AntiCheatFlags...)
		out.Round2 = &round
	}
	return out
}

func copyJob(job types.JobRequirements) types.JobRequirements {
	out := job
	out.RequiredSkills = append([]string(nil), job.RequiredSkills...)
	return out
}

func copyProfile(profile types.StudentProfile) types.StudentProfile {
	out := profile
	out.Signal.Skills = append([]string(nil), profile.Signal.Skills...)
	return out
}

func copyTestRound(round types.TestRound) types.TestRound {
	out := round
	out.Questions = append([]types.Question(nil), round.Questions...)
	out.AntiCheat.SuspiciousActivity = append([]string(nil), round.AntiCheat.SuspiciousActivity...)
	if round.SubmittedAt != nil {
		at := *round.SubmittedAt
		out.SubmittedAt = &at
	}
	return out
}
