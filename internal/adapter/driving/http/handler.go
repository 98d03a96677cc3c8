// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reviewdeck/reviewdeck/internal/application"
	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	subjectStore driven.SubjectStore
	reviewStore  driven.ReviewStore
	codeHost     driven.CodeHost
	orchestrator *application.ReviewOrchestrator
	fixSvc       *application.FixService
	bulkApplier  *application.BulkFixApplier
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	subjectStore driven.SubjectStore,
	reviewStore driven.ReviewStore,
	codeHost driven.CodeHost,
	orchestrator *application.ReviewOrchestrator,
	fixSvc *application.FixService,
	bulkApplier *application.BulkFixApplier,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		subjectStore: subjectStore,
		reviewStore:  reviewStore,
		codeHost:     codeHost,
		orchestrator: orchestrator,
		fixSvc:       fixSvc,
		bulkApplier:  bulkApplier,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/subjects", h.AddSubject)
	mux.HandleFunc("GET /api/v1/subjects", h.ListSubjects)
	mux.HandleFunc("GET /api/v1/subjects/{id}/reviews", h.ListSubjectReviews)

	mux.HandleFunc("POST /api/v1/reviews", h.TriggerReview)
	mux.HandleFunc("GET /api/v1/reviews/{id}", h.GetReview)
	mux.HandleFunc("GET /api/v1/reviews/{id}/fixes", h.ListFixes)
	mux.HandleFunc("GET /api/v1/reviews/{id}/fixes/{fixID}/preview", h.PreviewFix)
	mux.HandleFunc("POST /api/v1/reviews/{id}/fixes/{fixID}/apply", h.ApplyFix)
	mux.HandleFunc("POST /api/v1/reviews/{id}/fixes/bulk-apply", h.BulkApplyFixes)

	mux.HandleFunc("POST /api/v1/analyze", h.AnalyzeCode)

	mux.HandleFunc("PATCH /api/v1/comments/{id}/resolution", h.UpdateCommentResolution)
	mux.HandleFunc("PATCH /api/v1/comments/{id}/feedback", h.UpdateCommentFeedback)

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// respondError maps a classified error onto the HTTP response. Internal
// errors are logged with a correlation id and never expose detail.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)

	if kind == apperr.KindInternal {
		correlationID := ulid.Make().String()
		h.logger.Error("internal error",
			"path", r.URL.Path,
			"error", err,
			"correlation_id", correlationID,
		)
		writeError(w, http.StatusInternalServerError, "internal server error", correlationID)
		return
	}

	writeError(w, statusForKind(kind), apperr.Message(err), "")
}

// AddSubject registers a pull request as a reviewable subject. The PR is
// resolved against the code host before anything is stored.
func (h *Handler) AddSubject(w http.ResponseWriter, r *http.Request) {
	var req AddSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if req.Repository == "" || req.Number <= 0 {
		writeError(w, http.StatusBadRequest, "repository and positive number are required", "")
		return
	}

	subject, err := h.codeHost.ResolveSubject(r.Context(), req.Repository, req.Number)
	if err != nil {
		h.respondError(w, r, apperr.External("could not resolve pull request", err))
		return
	}

	stored, err := h.subjectStore.Add(r.Context(), *subject)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubjectResponse(*stored))
}

// ListSubjects returns all registered subjects.
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjectStore.ListAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		resp = append(resp, toSubjectResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSubjectReviews returns all reviews for a subject, newest first.
func (h *Handler) ListSubjectReviews(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subject id", "")
		return
	}

	if _, err := h.subjectStore.Get(r.Context(), subjectID); err != nil {
		h.respondError(w, r, err)
		return
	}

	reviews, err := h.reviewStore.GetReviewsBySubject(r.Context(), subjectID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review, nil))
	}

	writeJSON(w, http.StatusOK, resp)
}

// TriggerReview runs a full review cycle for a subject and returns the
// completed review, or the classified failure.
func (h *Handler) TriggerReview(w http.ResponseWriter, r *http.Request) {
	var req TriggerReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	reviewType := model.ReviewType(req.ReviewType)
	if req.ReviewType == "" {
		reviewType = model.ReviewTypeFull
	}

	review, comments, err := h.orchestrator.Trigger(r.Context(), req.SubjectID, reviewType)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(*review, comments))
}

// GetReview returns a single review with its comments.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("id")

	review, err := h.reviewStore.GetReview(r.Context(), reviewID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	comments, err := h.reviewStore.GetComments(r.Context(), reviewID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(*review, comments))
}

// ListFixes returns the review's fix suggestions, most severe first.
func (h *Handler) ListFixes(w http.ResponseWriter, r *http.Request) {
	list, err := h.fixSvc.ListFixes(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFixListResponse(list))
}

// PreviewFix shows the diff a fix would introduce without applying it.
func (h *Handler) PreviewFix(w http.ResponseWriter, r *http.Request) {
	preview, err := h.fixSvc.Preview(r.Context(), r.PathValue("id"), r.PathValue("fixID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	diff := preview.Diff
	if diff == nil {
		diff = []string{}
	}

	writeJSON(w, http.StatusOK, FixPreviewResponse{
		OriginalCode: preview.OriginalCode,
		SuggestedFix: preview.SuggestedCode,
		Diff:         diff,
		Stats:        preview.Stats,
		Explanation:  preview.Explanation,
		Confidence:   preview.Confidence,
		CanAutoApply: preview.CanAutoApply,
	})
}

// ApplyFix applies a single auto-applicable fix.
func (h *Handler) ApplyFix(w http.ResponseWriter, r *http.Request) {
	applied, err := h.fixSvc.ApplyOne(r.Context(), r.PathValue("id"), r.PathValue("fixID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	diff := applied.Diff
	if diff == nil {
		diff = []string{}
	}

	writeJSON(w, http.StatusOK, AppliedFixResponse{
		FixID:        applied.FixID,
		Applied:      true,
		OriginalCode: applied.OriginalCode,
		FixedCode:    applied.FixedCode,
		Diff:         diff,
		AppliedAt:    applied.AppliedAt.Format(time.RFC3339),
	})
}

// BulkApplyFixes applies a batch of fixes with per-item failure isolation.
func (h *Handler) BulkApplyFixes(w http.ResponseWriter, r *http.Request) {
	var req BulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	result, err := h.bulkApplier.Apply(r.Context(), r.PathValue("id"), req.FixIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBulkApplyResponse(result))
}

// AnalyzeCode runs the ad-hoc pattern scan over a standalone code block.
func (h *Handler) AnalyzeCode(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", "")
		return
	}

	fixes := application.ScanCode(req.Code, req.Language)

	resp := FixListResponse{Fixes: make([]FixResponse, 0, len(fixes))}
	for _, f := range fixes {
		resp.Fixes = append(resp.Fixes, toFixResponse(f))
		if f.AutoApplicable {
			resp.AutoApplicableCount++
		}
	}
	resp.TotalFixes = len(fixes)

	writeJSON(w, http.StatusOK, resp)
}

// UpdateCommentResolution sets the resolution state of a review comment.
// Resolution and feedback are the only comment fields mutable after the
// owning review completes.
func (h *Handler) UpdateCommentResolution(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id", "")
		return
	}

	var req UpdateResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if err := h.reviewStore.UpdateCommentResolution(r.Context(), commentID, req.Resolved); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateCommentFeedback sets the user feedback tag of a review comment.
func (h *Handler) UpdateCommentFeedback(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id", "")
		return
	}

	var req UpdateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	feedback := model.Feedback(req.Feedback)
	if !model.ValidFeedback(feedback) {
		writeError(w, http.StatusBadRequest, "feedback must be one of none, helpful, unhelpful", "")
		return
	}

	if err := h.reviewStore.UpdateCommentFeedback(r.Context(), commentID, feedback); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
