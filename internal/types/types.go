package types

import "time"

// Role identifies what a request principal is allowed to do.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleHR      Role = "HR"
)

// Principal is the authenticated subject attached to a request.
type Principal struct {
	SubjectID string `json:"subjectId"`
	Role      Role   `json:"role"`
}

// User is a platform account as the identity-sync boundary sees it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// PersonalInfo holds contact details pulled out of a resume.
type PersonalInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CandidateSignal is the structured signal extracted from a resume.
type CandidateSignal struct {
	PersonalInfo    PersonalInfo `json:"personalInfo"`
	Skills          []string     `json:"skills"`
	ExperienceYears int          `json:"experienceYears"`
	RawText         string       `json:"rawText,omitempty"`
}

// StudentProfile is the stored per-student resume state.
type StudentProfile struct {
	StudentID      string          `json:"studentId"`
	Signal         CandidateSignal `json:"signal"`
	ResumeFileName string          `json:"resumeFileName,omitempty"`
	UploadedAt     time.Time       `json:"uploadedAt"`
}

// JobStatus is the publication state of a job posting.
type JobStatus string

const (
	JobStatusActive JobStatus = "Active"
	JobStatusClosed JobStatus = "Closed"
)

// Round1Config controls the shape of a first-round test.
type Round1Config struct {
	MCQCount     int `json:"mcqCount"`
	CodingCount  int `json:"codingCount"`
	Duration     int `json:"duration"` // minutes
	PassingScore int `json:"passingScore"`
}

// Round2Config controls whether a job runs a second round.
type Round2Config struct {
	Enabled bool `json:"enabled"`
}

// RoundConfig bundles per-round test settings for a job.
type RoundConfig struct {
	Round1 Round1Config `json:"round1"`
	Round2 Round2Config `json:"round2"`
}

// DefaultRoundConfig mirrors the platform defaults applied when a job
// posting does not configure its rounds.
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		Round1: Round1Config{
			MCQCount:     10,
			CodingCount:  2,
			Duration:     60,
			PassingScore: 70,
		},
		Round2: Round2Config{Enabled: false},
	}
}

// JobRequirements describes a job posting as the matching engine sees it.
type JobRequirements struct {
	ID             string      `json:"id"`
	CompanyID      string      `json:"companyId"`
	OwnerID        string      `json:"ownerId"` // HR subject that created the posting
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	RequiredSkills []string    `json:"requiredSkills"`
	Status         JobStatus   `json:"status"`
	RoundConfig    RoundConfig `json:"roundConfig"`
}

// FitScore is the point-in-time match result embedded in an application.
type FitScore struct {
	FitScore      int      `json:"fitScore"`
	SkillMatch    int      `json:"skillMatch"`
	KeywordMatch  int      `json:"keywordMatch"`
	OverallRank   int      `json:"overallRank,omitempty"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Flags         []string `json:"flags,omitempty"`
	Strategy      string   `json:"strategy"`
}

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "Pending"
	StatusRound1      ApplicationStatus = "Round1"
	StatusRound2      ApplicationStatus = "Round2"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusRejected    ApplicationStatus = "Rejected"
	StatusTalentPool  ApplicationStatus = "TalentPool"
	StatusWithdrawn   ApplicationStatus = "Withdrawn"
)

// TimelineEntry is one append-only audit record on an application.
// Storage order is chronological; display order is the reader's concern.
type TimelineEntry struct {
	Stage  string    `json:"stage"`
	At     time.Time `json:"timestamp"`
	Action string    `json:"action,omitempty"`
}

// RoundSummary is the per-round result snapshot embedded in an application.
type RoundSummary struct {
	Status         string   `json:"status"`
	TestID         string   `json:"testId,omitempty"`
	MCQScore       int      `json:"mcqScore"`
	CodingScore    int      `json:"codingScore"`
	TotalScore     int      `json:"totalScore"`
	AntiCheatFlags []string `json:"antiCheatFlags"`
}

// Application ties a student to a job posting through its lifecycle.
type Application struct {
	ID        string            `json:"id"`
	StudentID string            `json:"studentId"`
	JobID     string            `json:"jobId"`
	Status    ApplicationStatus `json:"status"`
	FitScore  FitScore          `json:"fitScore"`
	Round1    *RoundSummary     `json:"round1,omitempty"`
	Round2    *RoundSummary     `json:"round2,omitempty"`
	Timeline  []TimelineEntry   `json:"timeline"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// AntiCheatLog accumulates proctoring counters for a test round.
// Counters only ever go up.
type AntiCheatLog struct {
	TabSwitches        int      `json:"tabSwitches"`
	CopyPasteAttempts  int      `json:"copyPasteAttempts"`
	FullscreenExits    int      `json:"fullscreenExits"`
	SuspiciousActivity []string `json:"suspiciousActivity"`
}

// Question is one item served in a test round. Content comes from the
// external question catalogue; grading stays outside this engine.
type Question struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"` // "mcq" or "coding"
	Prompt string `json:"prompt"`
}

// TestRound is a first-round test instance assigned to an application.
type TestRound struct {
	ID            string       `json:"id"`
	ApplicationID string       `json:"applicationId"`
	JobID         string       `json:"jobId"`
	StudentID     string       `json:"studentId"`
	Questions     []Question   `json:"questions"`
	Duration      int          `json:"duration"` // minutes
	PassingScore  int          `json:"passingScore"`
	AntiCheat     AntiCheatLog `json:"antiCheat"`
	AssignedAt    time.Time    `json:"assignedAt"`
	SubmittedAt   *time.Time   `json:"submittedAt,omitempty"`
}

// ScoreReport is the offline scoring result: the signal extracted from
// a resume, plus its fit against one job when a job file was given.
type ScoreReport struct {
	Signal   CandidateSignal `json:"signal"`
	JobID    string          `json:"jobId,omitempty"`
	JobTitle string          `json:"jobTitle,omitempty"`
	Fit      *FitScore       `json:"fit,omitempty"`
	Degraded bool            `json:"degraded,omitempty"`
}

// JobHistoryStats is the per-status application breakdown for one job.
type JobHistoryStats struct {
	JobID    string                    `json:"jobId"`
	Title    string                    `json:"title"`
	Total    int                       `json:"total"`
	ByStatus map[ApplicationStatus]int `json:"byStatus"`
}
