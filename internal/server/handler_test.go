package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talentgate/internal/assessment"
	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/extract"
	"talentgate/internal/identity"
	"talentgate/internal/lifecycle"
	"talentgate/internal/observability"
	"talentgate/internal/scoring"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

func newTestMux(t *testing.T) (*http.ServeMux, store.Store) {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)
	st := store.NewMemoryStore()
	extractor := extract.New(extract.DefaultOptions([]string{"Go", "Python", "SQL"}))

	matching := config.MatchingConfig{
		Strategy:         "weighted",
		SkillWeight:      0.7,
		KeywordWeight:    0.3,
		MinKeywordLength: 4,
		AssignThreshold:  60,
	}
	scorer, err := scoring.New(matching)
	if err != nil {
		t.Fatalf("scoring.New: %v", err)
	}

	appCfg := &config.Config{
		App: config.AppConfig{
			MinResumeSize: 10,
			MaxResumeSize: 1 << 20,
		},
		Matching: matching,
		Database: config.DatabaseConfig{Driver: "memory"},
		Observability: config.ObservabilityConfig{
			HealthCheck: config.HealthCheckConfig{Timeout: 2 * time.Second},
		},
	}

	srv := NewServer(appCfg, ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		MaxRequestSize: 1 << 20,
	}, Dependencies{
		Store:      st,
		Extractor:  extractor,
		Scorer:     scorer,
		Lifecycle:  lifecycle.NewEngine(st, scorer, logger),
		Gate:       assessment.NewGate(st, nil, matching.AssignThreshold, logger),
		Reconciler: identity.NewReconciler(st, logger),
	}, logger)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, appCfg)
	if err != nil {
		t.Fatalf("NewObservabilityManager: %v", err)
	}

	return srv.setupRoutes(om), st
}

func seedMatchData(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	if err := st.SaveJob(ctx, &types.JobRequirements{
		ID:             "job-1",
		OwnerID:        "hr-1",
		Title:          "Backend Engineer",
		Description:    "Build backend services with strong database skills",
		RequiredSkills: []string{"Go", "SQL"},
		Status:         types.JobStatusActive,
		RoundConfig:    types.DefaultRoundConfig(),
	}); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	if err := st.SaveProfileSignal(ctx, &types.StudentProfile{
		StudentID: "student-1",
		Signal: types.CandidateSignal{
			PersonalInfo:    types.PersonalInfo{Email: "dev@example.com"},
			Skills:          []string{"Go", "SQL"},
			ExperienceYears: 3,
			RawText:         "Backend services engineer with database experience",
		},
		UploadedAt: time.Now(),
	}); err != nil {
		t.Fatalf("SaveProfileSignal: %v", err)
	}
}

func doJSON(mux *http.ServeMux, method, target, subject, role string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("X-Subject-Id", subject)
		req.Header.Set("X-Subject-Role", role)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPrincipalMiddleware(t *testing.T) {
	mux, _ := newTestMux(t)

	t.Run("missing subject header", func(t *testing.T) {
		rec := doJSON(mux, http.MethodGet, "/applications", "", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		rec := doJSON(mux, http.MethodGet, "/applications", "student-1", "ADMIN", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("lowercase role accepted", func(t *testing.T) {
		rec := doJSON(mux, http.MethodGet, "/applications", "student-1", "student", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestApplyEndpoint(t *testing.T) {
	mux, st := newTestMux(t)
	seedMatchData(t, st)

	rec := doJSON(mux, http.MethodPost, "/applications", "student-1", "STUDENT",
		ApplyRequest{JobID: "job-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var app types.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if app.Status != types.StatusPending {
		t.Errorf("expected status Pending, got %s", app.Status)
	}
	if app.FitScore.FitScore == 0 {
		t.Error("expected a non-zero fit score for a full skill match")
	}
	if len(app.Timeline) != 1 || app.Timeline[0].Stage != "Applied" {
		t.Errorf("expected single Applied timeline entry, got %+v", app.Timeline)
	}

	t.Run("duplicate application", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications", "student-1", "STUDENT",
			ApplyRequest{JobID: "job-1"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		var errResp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if errResp.Error != errors.ErrCodeDuplicateApplication {
			t.Errorf("expected code %s, got %s", errors.ErrCodeDuplicateApplication, errResp.Error)
		}
	})

	t.Run("no resume on file", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications", "student-2", "STUDENT",
			ApplyRequest{JobID: "job-1"})
		if rec.Code != http.StatusPreconditionFailed {
			t.Fatalf("expected 412, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestWithdrawEndpoint(t *testing.T) {
	mux, st := newTestMux(t)
	seedMatchData(t, st)

	rec := doJSON(mux, http.MethodPost, "/applications", "student-1", "STUDENT",
		ApplyRequest{JobID: "job-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply failed: %d", rec.Code)
	}
	var app types.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	t.Run("other student forbidden", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/"+app.ID+"/withdraw", "student-2", "STUDENT", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("owner withdraws", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/"+app.ID+"/withdraw", "student-1", "STUDENT", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var withdrawn types.Application
		if err := json.Unmarshal(rec.Body.Bytes(), &withdrawn); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if withdrawn.Status != types.StatusWithdrawn {
			t.Errorf("expected status Withdrawn, got %s", withdrawn.Status)
		}
	})

	t.Run("second withdraw is invalid transition", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/"+app.ID+"/withdraw", "student-1", "STUDENT", nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestAssignTestEndpoint(t *testing.T) {
	mux, st := newTestMux(t)
	seedMatchData(t, st)
	ctx := context.Background()

	now := time.Now()
	if err := st.CreateApplication(ctx, &types.Application{
		ID:        "app-high",
		StudentID: "student-1",
		JobID:     "job-1",
		Status:    types.StatusPending,
		FitScore:  types.FitScore{FitScore: 75, Strategy: "weighted"},
		Timeline:  []types.TimelineEntry{{Stage: "Applied", At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	t.Run("non-owner HR forbidden", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/app-high/assign-test", "hr-2", "HR", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("owning HR assigns", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/app-high/assign-test", "hr-1", "HR", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var round types.TestRound
		if err := json.Unmarshal(rec.Body.Bytes(), &round); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if round.ApplicationID != "app-high" {
			t.Errorf("expected round bound to app-high, got %s", round.ApplicationID)
		}
		if round.Duration != 60 || round.PassingScore != 70 {
			t.Errorf("expected default round config, got duration=%d passing=%d", round.Duration, round.PassingScore)
		}
	})

	t.Run("second assignment conflicts", func(t *testing.T) {
		rec := doJSON(mux, http.MethodPost, "/applications/app-high/assign-test", "hr-1", "HR", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestUploadResumeEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	upload := func(t *testing.T, content string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "resume.txt")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/resume", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("X-Subject-Id", "student-1")
		req.Header.Set("X-Subject-Role", "STUDENT")

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("extracts signal", func(t *testing.T) {
		rec := upload(t, "Senior Go and SQL developer.\nEmail: dev@example.com")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Signal   types.CandidateSignal `json:"signal"`
			Degraded bool                  `json:"degraded"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Degraded {
			t.Error("plain text upload should not be degraded")
		}
		if !containsSkill(resp.Signal.Skills, "Go") || !containsSkill(resp.Signal.Skills, "SQL") {
			t.Errorf("expected Go and SQL in skills, got %v", resp.Signal.Skills)
		}
		if resp.Signal.PersonalInfo.Email != "dev@example.com" {
			t.Errorf("expected extracted email, got %q", resp.Signal.PersonalInfo.Email)
		}
	})

	t.Run("rejects undersized file", func(t *testing.T) {
		rec := upload(t, "tiny")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), errors.ErrCodeFileTooSmall) {
			t.Errorf("expected %s in body, got %s", errors.ErrCodeFileTooSmall, rec.Body.String())
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(mux, http.MethodGet, "/health", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
}

func containsSkill(skills []string, want string) bool {
	for _, skill := range skills {
		if skill == want {
			return true
		}
	}
	return false
}
