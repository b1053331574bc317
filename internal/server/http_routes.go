package server

import (
	"context"
	"net/http"
	"strings"

	"talentgate/internal/observability"
	"talentgate/internal/types"
)

type principalContextKey struct{}

// principalFromContext returns the authenticated principal attached by
// principalMiddleware.
func principalFromContext(ctx context.Context) (types.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(types.Principal)
	return p, ok
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	protect := func(next http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(
			s.authMiddleware(s.principalMiddleware(requestLimitHandler(next))),
		)
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// Student surface
	mux.HandleFunc("POST /resume", protect(s.createUploadResumeHandler(om)))
	mux.HandleFunc("POST /applications", protect(s.createApplyHandler(om)))
	mux.HandleFunc("GET /applications", protect(s.createMyApplicationsHandler(om)))
	mux.HandleFunc("POST /applications/{id}/withdraw", protect(s.createWithdrawHandler(om)))
	mux.HandleFunc("POST /tests/{id}/events", protect(s.createAntiCheatEventHandler(om)))
	mux.HandleFunc("POST /tests/{id}/submit", protect(s.createSubmitTestHandler(om)))

	// HR surface
	mux.HandleFunc("POST /jobs", protect(s.createUpsertJobHandler(om)))
	mux.HandleFunc("GET /jobs/history", protect(s.createJobHistoryHandler(om)))
	mux.HandleFunc("GET /jobs/{id}/candidates", protect(s.createCandidatesHandler(om)))
	mux.HandleFunc("DELETE /applications/{id}", protect(s.createDeleteApplicationHandler(om)))
	mux.HandleFunc("POST /applications/{id}/assign-test", protect(s.createAssignTestHandler(om)))

	// Identity-sync boundary
	mux.HandleFunc("POST /identity/reconcile", protect(s.createReconcileRoleHandler(om)))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// principalMiddleware extracts the trusted (subject, role) pair set by
// the upstream identity gateway. The engine trusts these headers; token
// verification lives outside this service.
func (s *Server) principalMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := r.Header.Get("X-Subject-Id")
		role := types.Role(strings.ToUpper(r.Header.Get("X-Subject-Role")))

		if subjectID == "" {
			writeErrorResponse(w, "Missing subject", "X-Subject-Id header required", http.StatusUnauthorized)
			return
		}
		if role != types.RoleStudent && role != types.RoleHR {
			writeErrorResponse(w, "Invalid role", "X-Subject-Role must be STUDENT or HR", http.StatusUnauthorized)
			return
		}

		principal := types.Principal{SubjectID: subjectID, Role: role}
		ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
		next(w, r.WithContext(ctx))
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
