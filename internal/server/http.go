package server

import (
	"context"
	"time"

	"talentgate/internal/assessment"
	"talentgate/internal/config"
	talentgateErrors "talentgate/internal/errors"
	"talentgate/internal/extract"
	"talentgate/internal/identity"
	"talentgate/internal/lifecycle"
	"talentgate/internal/scoring"
	"talentgate/internal/store"
	"talentgate/internal/types"
)

// ApplyRequest represents the request body for the apply endpoint
type ApplyRequest struct {
	JobID string `json:"jobId"`
}

// CreateJobRequest represents the request body for the job upsert
// endpoint. RequiredSkills accepts either a JSON array or a single
// comma-separated string; normalization happens at this boundary.
type CreateJobRequest struct {
	ID             string             `json:"id"`
	CompanyID      string             `json:"companyId"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	RequiredSkills any                `json:"requiredSkills"`
	Skills         any                `json:"required_skills"` // legacy field name
	Status         string             `json:"status"`
	RoundConfig    *types.RoundConfig `json:"roundConfig"`
}

// AntiCheatEventRequest represents one proctoring event report
type AntiCheatEventRequest struct {
	EventType string `json:"eventType"`
	Detail    string `json:"detail,omitempty"`
}

// SubmitTestRequest represents a test submission
type SubmitTestRequest struct {
	AntiCheat types.AntiCheatLog `json:"antiCheat"`
}

// ReconcileRoleRequest represents an identity-sync push
type ReconcileRoleRequest struct {
	UserID string `json:"userId"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RankPublisher enqueues asynchronous rank recomputation for a job.
// Satisfied by ranking.Queue.
type RankPublisher interface {
	Publish(ctx context.Context, jobID string) error
}

// Server holds configuration and collaborators for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Domain collaborators
	Store      store.Store
	Extractor  *extract.Extractor
	Scorer     scoring.Scorer
	Lifecycle  *lifecycle.Engine
	Gate       *assessment.Gate
	Reconciler *identity.Reconciler
	RankQueue  RankPublisher // nil when the queue is disabled

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Logger
	Logger *talentgateErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// Dependencies bundles the domain collaborators wired into the server
type Dependencies struct {
	Store      store.Store
	Extractor  *extract.Extractor
	Scorer     scoring.Scorer
	Lifecycle  *lifecycle.Engine
	Gate       *assessment.Gate
	Reconciler *identity.Reconciler
	RankQueue  RankPublisher
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *talentgateErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Store:          deps.Store,
		Extractor:      deps.Extractor,
		Scorer:         deps.Scorer,
		Lifecycle:      deps.Lifecycle,
		Gate:           deps.Gate,
		Reconciler:     deps.Reconciler,
		RankQueue:      deps.RankQueue,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
