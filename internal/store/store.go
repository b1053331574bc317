// Package store defines the persistence contracts for applications,
// jobs, test rounds, resume signals, and user accounts, with an
// in-memory implementation for tests and demos. The MySQL-backed
// implementation lives in the gormstore subpackage.
package store

import (
	"context"

	"talentgate/internal/types"
)

// ApplicationStore persists applications through their lifecycle.
type ApplicationStore interface {
	// FindApplication returns the application for a (student, job) pair,
	// skipping any whose status is in excludeStatus. Returns nil when
	// nothing matches.
	FindApplication(ctx context.Context, studentID, jobID string, excludeStatus ...types.ApplicationStatus) (*types.Application, error)
	GetApplication(ctx context.Context, id string) (*types.Application, error)
	CreateApplication(ctx context.Context, app *types.Application) error
	UpdateApplication(ctx context.Context, app *types.Application) error
	DeleteApplication(ctx context.Context, id string) error
	ListApplicationsByStudent(ctx context.Context, studentID string) ([]types.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID string) ([]types.Application, error)
}

// JobStore persists job postings.
type JobStore interface {
	FindJob(ctx context.Context, id string) (*types.JobRequirements, error)
	SaveJob(ctx context.Context, job *types.JobRequirements) error
	ListJobsByOwner(ctx context.Context, ownerID string) ([]types.JobRequirements, error)
	CountJobsByOwner(ctx context.Context, ownerID string) (int64, error)
}

// ProfileStore persists the per-student resume signal.
type ProfileStore interface {
	// GetProfileSignal returns nil when the student has never uploaded
	// a resume.
	GetProfileSignal(ctx context.Context, studentID string) (*types.StudentProfile, error)
	SaveProfileSignal(ctx context.Context, profile *types.StudentProfile) error
}

// TestRoundStore persists assigned test rounds.
type TestRoundStore interface {
	GetTestRound(ctx context.Context, id string) (*types.TestRound, error)
	CreateTestRound(ctx context.Context, round *types.TestRound) error
	UpdateTestRound(ctx context.Context, round *types.TestRound) error
}

// UserStore persists platform accounts for the identity-sync boundary.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	SaveUser(ctx context.Context, user *types.User) error
	CountCompaniesByOwner(ctx context.Context, ownerID string) (int64, error)
	SetCompanyOwner(ctx context.Context, companyID, ownerID string) error
}

// Store is the full persistence surface the engine runs against.
type Store interface {
	ApplicationStore
	JobStore
	ProfileStore
	TestRoundStore
	UserStore

	// Ping reports backend liveness for health checks.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
