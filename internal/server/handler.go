package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"talentgate/internal/errors"
	"talentgate/internal/observability"
	"talentgate/internal/scoring"
	"talentgate/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createUploadResumeHandler handles multipart resume uploads: enforce
// the size band, extract the candidate signal, persist it on the
// student profile, and optionally score against a job right away.
func (s *Server) createUploadResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.upload_resume")
		defer span.End()

		principal, _ := principalFromContext(ctx)

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume file", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to read upload", err.Error(), http.StatusBadRequest)
			return
		}

		if int64(len(data)) < s.AppConfig.App.MinResumeSize {
			writeErrorResponse(w, errors.ErrCodeFileTooSmall,
				fmt.Sprintf("resume must be at least %d bytes", s.AppConfig.App.MinResumeSize),
				http.StatusBadRequest)
			return
		}
		if int64(len(data)) > s.AppConfig.App.MaxResumeSize {
			writeErrorResponse(w, errors.ErrCodeFileTooLarge,
				fmt.Sprintf("resume must be at most %d bytes", s.AppConfig.App.MaxResumeSize),
				http.StatusBadRequest)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		span.SetAttributes(
			attribute.Int("request.file_size", len(data)),
			attribute.String("request.mime_type", mimeType),
			attribute.String("operation", "upload_resume"),
		)

		metrics := om.GetMetrics()
		var signal types.CandidateSignal
		var degraded error
		err = metrics.TrackExtraction(ctx, mimeType, func(ctx context.Context) error {
			var extractErr error
			signal, extractErr = s.Extractor.Extract(data, mimeType)
			if errors.IsCode(extractErr, errors.ErrCodeExtractionDegraded) {
				// Degraded extraction still yields a usable signal
				degraded = extractErr
				return nil
			}
			return extractErr
		})
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_uploaded", false, om)
			s.writeAppError(w, err)
			return
		}
		if degraded != nil {
			s.Logger.Warn("resume extraction degraded",
				"student_id", principal.SubjectID,
				"file", header.Filename)
		}

		profile := &types.StudentProfile{
			StudentID:      principal.SubjectID,
			Signal:         signal,
			ResumeFileName: header.Filename,
			UploadedAt:     time.Now(),
		}
		if err := s.Store.SaveProfileSignal(ctx, profile); err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_uploaded", true, om,
			attribute.Int("skills_detected", len(signal.Skills)),
			attribute.Bool("degraded", degraded != nil))

		response := map[string]any{
			"signal":   signal,
			"degraded": degraded != nil,
		}

		// Immediate score against a job when requested
		if jobID := r.FormValue("jobId"); jobID != "" {
			job, err := s.Store.FindJob(ctx, jobID)
			if err != nil {
				span.RecordError(err)
				s.writeAppError(w, err)
				return
			}
			score := s.Scorer.Score(scoring.Input{
				StudentID: principal.SubjectID,
				Signal:    signal,
				Job:       *job,
			})
			metrics.RecordFitScore(ctx, score.FitScore, om,
				attribute.String("strategy", score.Strategy))
			response["fitScore"] = score
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.skills", len(signal.Skills)),
		)
		writeJSONResponse(w, http.StatusOK, response)
	}
}

// createApplyHandler creates an application for the authenticated
// student.
func (s *Server) createApplyHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.apply")
		defer span.End()

		principal, _ := principalFromContext(ctx)

		var req ApplyRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobID) == "" {
			writeErrorResponse(w, "Missing job id", "jobId field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.job_id", req.JobID),
			attribute.String("operation", "apply"),
		)

		metrics := om.GetMetrics()
		app, err := s.Lifecycle.Apply(ctx, principal, req.JobID)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "application_submitted", false, om,
				attribute.String("error_code", errorCode(err)))
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "application_submitted", true, om)
		metrics.RecordFitScore(ctx, app.FitScore.FitScore, om,
			attribute.String("strategy", app.FitScore.Strategy))

		// Ranks refresh asynchronously; the embedded score is already final
		if s.RankQueue != nil {
			if err := s.RankQueue.Publish(ctx, app.JobID); err != nil {
				s.Logger.Warn("failed to enqueue rank recomputation",
					"job_id", app.JobID, "error", err.Error())
			}
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("fit_score", app.FitScore.FitScore),
		)
		writeJSONResponse(w, http.StatusCreated, app)
	}
}

// createMyApplicationsHandler lists the student's own applications
func (s *Server) createMyApplicationsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.my_applications")
		defer span.End()

		principal, _ := principalFromContext(ctx)

		apps, err := s.Lifecycle.ListForStudent(ctx, principal)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Int("response.count", len(apps)))
		writeJSONResponse(w, http.StatusOK, map[string]any{"applications": apps})
	}
}

// createWithdrawHandler withdraws the student's own application
func (s *Server) createWithdrawHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.withdraw")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		applicationID := r.PathValue("id")

		metrics := om.GetMetrics()
		app, err := s.Lifecycle.Withdraw(ctx, principal, applicationID)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "application_withdrawn", false, om,
				attribute.String("error_code", errorCode(err)))
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "application_withdrawn", true, om)
		span.SetAttributes(attribute.Bool("success", true))
		writeJSONResponse(w, http.StatusOK, app)
	}
}

// createDeleteApplicationHandler hard-deletes an application (HR only)
func (s *Server) createDeleteApplicationHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.delete_application")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		applicationID := r.PathValue("id")

		if err := s.Lifecycle.Delete(ctx, principal, applicationID); err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		w.WriteHeader(http.StatusNoContent)
	}
}

// createUpsertJobHandler stores a job posting, normalizing the skills
// field shape at the boundary
func (s *Server) createUpsertJobHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.upsert_job")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		if principal.Role != types.RoleHR {
			writeErrorResponse(w, errors.ErrCodeForbidden, "only HR users may post jobs", http.StatusForbidden)
			return
		}

		var req CreateJobRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Title) == "" {
			writeErrorResponse(w, "Missing fields", "id and title fields are required", http.StatusBadRequest)
			return
		}

		skillsField := req.RequiredSkills
		if skillsField == nil {
			skillsField = req.Skills
		}
		skills, err := normalizeSkills(skillsField)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid requiredSkills", err.Error(), http.StatusBadRequest)
			return
		}

		status := types.JobStatus(req.Status)
		if status == "" {
			status = types.JobStatusActive
		}
		roundConfig := types.DefaultRoundConfig()
		if req.RoundConfig != nil {
			roundConfig = *req.RoundConfig
		}

		job := &types.JobRequirements{
			ID:             req.ID,
			CompanyID:      req.CompanyID,
			OwnerID:        principal.SubjectID,
			Title:          req.Title,
			Description:    req.Description,
			RequiredSkills: skills,
			Status:         status,
			RoundConfig:    roundConfig,
		}
		if err := s.Store.SaveJob(ctx, job); err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		// Ownership feeds role reconciliation
		if job.CompanyID != "" {
			if err := s.Store.SetCompanyOwner(ctx, job.CompanyID, principal.SubjectID); err != nil {
				s.Logger.Warn("failed to record company ownership",
					"company_id", job.CompanyID, "error", err.Error())
			}
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("required_skills", len(skills)),
		)
		writeJSONResponse(w, http.StatusOK, job)
	}
}

// createCandidatesHandler lists applications for a job (HR only)
func (s *Server) createCandidatesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.candidates")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		jobID := r.PathValue("id")

		apps, err := s.Lifecycle.ListCandidates(ctx, principal, jobID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Int("response.count", len(apps)))
		writeJSONResponse(w, http.StatusOK, map[string]any{"candidates": apps})
	}
}

// createJobHistoryHandler aggregates per-status counts per job (HR only)
func (s *Server) createJobHistoryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.job_history")
		defer span.End()

		principal, _ := principalFromContext(ctx)

		stats, err := s.Lifecycle.JobHistory(ctx, principal)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Int("response.jobs", len(stats)))
		writeJSONResponse(w, http.StatusOK, map[string]any{"history": stats})
	}
}

// createAssignTestHandler assigns a first-round test (HR only)
func (s *Server) createAssignTestHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.assign_test")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		applicationID := r.PathValue("id")

		metrics := om.GetMetrics()
		round, err := s.Gate.AssignTest(ctx, principal, applicationID)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "test_assigned", false, om,
				attribute.String("error_code", errorCode(err)))
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "test_assigned", true, om,
			attribute.Int("question_count", len(round.Questions)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("test_id", round.ID),
		)
		writeJSONResponse(w, http.StatusCreated, round)
	}
}

// createAntiCheatEventHandler records one proctoring event
func (s *Server) createAntiCheatEventHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.anticheat_event")
		defer span.End()

		testID := r.PathValue("id")

		var req AntiCheatEventRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		round, err := s.Gate.RecordEvent(ctx, testID, req.EventType, req.Detail)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.String("event_type", req.EventType))
		writeJSONResponse(w, http.StatusOK, round.AntiCheat)
	}
}

// createSubmitTestHandler marks a test round submitted
func (s *Server) createSubmitTestHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.submit_test")
		defer span.End()

		principal, _ := principalFromContext(ctx)
		testID := r.PathValue("id")

		var req SubmitTestRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		round, err := s.Gate.Submit(ctx, principal, testID, req.AntiCheat)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSONResponse(w, http.StatusOK, round)
	}
}

// createReconcileRoleHandler runs idempotent role reconciliation for
// the identity-sync boundary
func (s *Server) createReconcileRoleHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentgate.api")
		ctx, span := tracer.Start(ctx, "api.reconcile_role")
		defer span.End()

		var req ReconcileRoleRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeErrorResponse(w, "Missing user id", "userId field is required", http.StatusBadRequest)
			return
		}

		user, err := s.Reconciler.ReconcileRole(ctx, req.UserID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.String("role", string(user.Role)))
		writeJSONResponse(w, http.StatusOK, user)
	}
}

// normalizeSkills accepts a JSON array of strings or a single
// comma-separated string and returns a clean skill list.
func normalizeSkills(field any) ([]string, error) {
	switch v := field.(type) {
	case nil:
		return []string{}, nil
	case string:
		var skills []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				skills = append(skills, part)
			}
		}
		return skills, nil
	case []any:
		skills := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("requiredSkills entries must be strings")
			}
			if str = strings.TrimSpace(str); str != "" {
				skills = append(skills, str)
			}
		}
		return skills, nil
	default:
		return nil, fmt.Errorf("requiredSkills must be an array of strings or a comma-separated string")
	}
}

// errorCode extracts the domain error code for metric labels
func errorCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL"
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
