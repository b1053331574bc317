package assessment

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/types"
)

func TestCatalogueClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/questions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("mcqCount"); got != "10" {
			t.Errorf("mcqCount = %s, want 10", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questions":[{"id":"q1","kind":"mcq","prompt":"p"}]}`))
	}))
	defer server.Close()

	client := NewCatalogueClient(config.CatalogueConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		APIKey:  "secret",
	}, errors.NewLogger(slog.LevelError))

	job := types.JobRequirements{ID: "job-1", RequiredSkills: []string{"React"}}
	questions, err := client.FetchQuestions(context.Background(), job, types.DefaultRoundConfig().Round1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Errorf("questions = %+v, want [q1]", questions)
	}
}

func TestCatalogueClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewCatalogueClient(config.CatalogueConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, errors.NewLogger(slog.LevelError))

	_, err := client.FetchQuestions(context.Background(), types.JobRequirements{ID: "job-1"}, types.Round1Config{})
	if !errors.IsCode(err, errors.ErrCodeCatalogueFailed) {
		t.Errorf("err = %v, want CATALOGUE_FAILED", err)
	}
}

func TestNewCatalogueClientUnconfigured(t *testing.T) {
	client := NewCatalogueClient(config.CatalogueConfig{}, errors.NewLogger(slog.LevelError))
	if client != nil {
		t.Error("client = non-nil, want nil without a base URL")
	}
}
