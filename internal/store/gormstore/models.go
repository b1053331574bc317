package gormstore

import (
	"encoding/json"
	"time"

	"talentgate/internal/types"
)

// Row types map engine records onto MySQL tables. Nested documents
// (timeline, scores, round summaries) are stored as JSON columns, the
// application row itself is always written as a whole.

type applicationRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	StudentID string `gorm:"size:64;index:idx_app_student_job;index"`
	JobID     string `gorm:"size:64;index:idx_app_student_job;index"`
	Status    string `gorm:"size:32;index"`
	FitScore  []byte `gorm:"type:json"`
	Round1    []byte `gorm:"type:json"`
	Round2    []byte `gorm:"type:json"`
	Timeline  []byte `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (applicationRow) TableName() string { return "applications" }

type jobRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	CompanyID      string `gorm:"size:64;index"`
	OwnerID        string `gorm:"size:64;index"`
	Title          string `gorm:"size:255"`
	Description    string `gorm:"type:text"`
	RequiredSkills []byte `gorm:"type:json"`
	Status         string `gorm:"size:32;index"`
	RoundConfig    []byte `gorm:"type:json"`
}

func (jobRow) TableName() string { return "jobs" }

type profileRow struct {
	StudentID      string `gorm:"primaryKey;size:64"`
	Signal         []byte `gorm:"type:json"`
	ResumeFileName string `gorm:"size:255"`
	UploadedAt     time.Time
}

func (profileRow) TableName() string { return "student_profiles" }

type testRoundRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	ApplicationID string `gorm:"size:64;index"`
	JobID         string `gorm:"size:64;index"`
	StudentID     string `gorm:"size:64;index"`
	Questions     []byte `gorm:"type:json"`
	Duration      int
	PassingScore  int
	AntiCheat     []byte `gorm:"type:json"`
	AssignedAt    time.Time
	SubmittedAt   *time.Time
}

func (testRoundRow) TableName() string { return "test_rounds" }

type userRow struct {
	ID    string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"size:255"`
	Email string `gorm:"size:255;index"`
	Role  string `gorm:"size:16"`
}

func (userRow) TableName() string { return "users" }

type companyRow struct {
	ID      string `gorm:"primaryKey;size:64"`
	OwnerID string `gorm:"size:64;index"`
}

func (companyRow) TableName() string { return "companies" }

func applicationToRow(app *types.Application) (*applicationRow, error) {
	fitScore, err := json.Marshal(app.FitScore)
	if err != nil {
		return nil, err
	}
	timeline, err := json.Marshal(app.Timeline)
	if err != nil {
		return nil, err
	}

	row := &applicationRow{
		ID:        app.ID,
		StudentID: app.StudentID,
		JobID:     app.JobID,
		Status:    string(app.Status),
		FitScore:  fitScore,
		Timeline:  timeline,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}

	if app.Round1 != nil {
		if row.Round1, err = json.Marshal(app.Round1); err != nil {
			return nil, err
		}
	}
	if app.Round2 != nil {
		if row.Round2, err = json.Marshal(app.Round2); err != nil {
			return nil, err
		}
	}

	return row, nil
}

func rowToApplication(row *applicationRow) (*types.Application, error) {
	app := &types.Application{
		ID:        row.ID,
		StudentID: row.StudentID,
		JobID:     row.JobID,
		Status:    types.ApplicationStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if len(row.FitScore) > 0 {
		if err := json.Unmarshal(row.FitScore, &app.FitScore); err != nil {
			return nil, err
		}
	}
	if len(row.Timeline) > 0 {
		if err := json.Unmarshal(row.Timeline, &app.Timeline); err != nil {
			return nil, err
		}
	}
	if len(row.Round1) > 0 {
		app.Round1 = &types.RoundSummary{}
		if err := json.Unmarshal(row.Round1, app.Round1); err != nil {
			return nil, err
		}
	}
	if len(row.Round2) > 0 {
		app.Round2 = &types.RoundSummary{}
		if err := json.Unmarshal(row.Round2, app.Round2); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func jobToRow(job *types.JobRequirements) (*jobRow, error) {
	skills, err := json.Marshal(job.RequiredSkills)
	if err != nil {
		return nil, err
	}
	roundConfig, err := json.Marshal(job.RoundConfig)
	if err != nil {
		return nil, err
	}

	return &jobRow{
		ID:             job.ID,
		CompanyID:      job.CompanyID,
		OwnerID:        job.OwnerID,
		Title:          job.Title,
		Description:    job.Description,
		RequiredSkills: skills,
		Status:         string(job.Status),
		RoundConfig:    roundConfig,
	}, nil
}

func rowToJob(row *jobRow) (*types.JobRequirements, error) {
	job := &types.JobRequirements{
		ID:          row.ID,
		CompanyID:   row.CompanyID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description,
		Status:      types.JobStatus(row.Status),
	}

	if len(row.RequiredSkills) > 0 {
		if err := json.Unmarshal(row.RequiredSkills, &job.RequiredSkills); err != nil {
			return nil, err
		}
	}
	if len(row.RoundConfig) > 0 {
		if err := json.Unmarshal(row.RoundConfig, &job.RoundConfig); err != nil {
			return nil, err
		}
	}

	return job, nil
}

func profileToRow(profile *types.StudentProfile) (*profileRow, error) {
	signal, err := json.Marshal(profile.Signal)
	if err != nil {
		return nil, err
	}
	return &profileRow{
		StudentID:      profile.StudentID,
		Signal:         signal,
		ResumeFileName: profile.ResumeFileName,
		UploadedAt:     profile.UploadedAt,
	}, nil
}

func rowToProfile(row *profileRow) (*types.StudentProfile, error) {
	profile := &types.StudentProfile{
		StudentID:      row.StudentID,
		ResumeFileName: row.ResumeFileName,
		UploadedAt:     row.UploadedAt,
	}
	if len(row.Signal) > 0 {
		if err := json.Unmarshal(row.Signal, &profile.Signal); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func testRoundToRow(round *types.TestRound) (*testRoundRow, error) {
	questions, err := json.Marshal(round.Questions)
	if err != nil {
		return nil, err
	}
	antiCheat, err := json.Marshal(round.AntiCheat)
	if err != nil {
		return nil, err
	}

	return &testRoundRow{
		ID:            round.ID,
		ApplicationID: round.ApplicationID,
		JobID:         round.JobID,
		StudentID:     round.StudentID,
		Questions:     questions,
		Duration:      round.Duration,
		PassingScore:  round.PassingScore,
		AntiCheat:     antiCheat,
		AssignedAt:    round.AssignedAt,
		SubmittedAt:   round.SubmittedAt,
	}, nil
}

func rowToTestRound(row *testRoundRow) (*types.TestRound, error) {
	round := &types.TestRound{
		ID:            row.ID,
		ApplicationID: row.ApplicationID,
		JobID:         row.JobID,
		StudentID:     row.StudentID,
		Duration:      row.Duration,
		PassingScore:  row.PassingScore,
		AssignedAt:    row.AssignedAt,
		SubmittedAt:   row.SubmittedAt,
	}

	if len(row.Questions) > 0 {
		if err := json.Unmarshal(row.Questions, &round.Questions); err != nil {
			return nil, err
		}
	}
	if len(row.AntiCheat) > 0 {
		if err := json.Unmarshal(row.AntiCheat, &round.AntiCheat); err != nil {
			return nil, err
		}
	}

	return round, nil
}
