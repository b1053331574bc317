package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker/v2"

	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/types"
)

// QuestionSource supplies test questions for a round. Question content
// and grading live outside this engine; a round assigned with no source
// simply starts with an empty question list.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, job types.JobRequirements, round types.Round1Config) ([]types.Question, error)
}

// CatalogueClient pulls questions from the external question catalogue
// over HTTP, wrapped in a circuit breaker so a flapping catalogue
// degrades assignment to empty question lists instead of failing it.
type CatalogueClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]types.Question]
	logger  *errors.Logger
}

// NewCatalogueClient builds a catalogue client from configuration.
// Returns nil when no catalogue base URL is configured.
func NewCatalogueClient(cfg config.CatalogueConfig, logger *errors.Logger) *CatalogueClient {
	if cfg.BaseURL == "" {
		return nil
	}

	client := &CatalogueClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}

	if cfg.CircuitBreaker.Enabled {
		settings := gobreaker.Settings{
			Name:        "question-catalogue",
			MaxRequests: cfg.CircuitBreaker.MaxRequests,
			Interval:    cfg.CircuitBreaker.Interval,
			Timeout:     cfg.CircuitBreaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= cfg.CircuitBreaker.MinRequests &&
					failureRatio >= cfg.CircuitBreaker.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String())
			},
		}
		client.cb = gobreaker.NewCircuitBreaker[[]types.Question](settings)
	}

	return client
}

// FetchQuestions requests a question set sized by the round config.
func (c *CatalogueClient) FetchQuestions(ctx context.Context, job types.JobRequirements, round types.Round1Config) ([]types.Question, error) {
	fetch := func() ([]types.Question, error) {
		return c.fetch(ctx, job, round)
	}
	if c.cb != nil {
		return c.cb.Execute(fetch)
	}
	return fetch()
}

func (c *CatalogueClient) fetch(ctx context.Context, job types.JobRequirements, round types.Round1Config) ([]types.Question, error) {
	query := url.Values{}
	query.Set("jobId", job.ID)
	query.Set("mcqCount", fmt.Sprintf("%d", round.MCQCount))
	query.Set("codingCount", fmt.Sprintf("%d", round.CodingCount))
	for _, skill := range job.RequiredSkills {
		query.Add("skill", skill)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/questions?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeCatalogueFailed, "failed to build catalogue request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeCatalogueFailed, "catalogue request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.NewNetworkError(errors.ErrCodeCatalogueFailed,
			fmt.Sprintf("catalogue returned status %d", resp.StatusCode), nil).
			WithContext("body", string(body))
	}

	var payload struct {
		Questions []types.Question `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeCatalogueFailed, "failed to decode catalogue response", err)
	}
	return payload.Questions, nil
}
