package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/application"
	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response. correlationID is included only
// for internal errors so callers can quote it when reporting.
func writeError(w http.ResponseWriter, status int, message, correlationID string) {
	writeJSON(w, status, errorResponse{Error: message, CorrelationID: correlationID})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SubjectResponse is the JSON representation of a registered subject.
type SubjectResponse struct {
	ID           int64  `json:"id"`
	Repository   string `json:"repository"`
	Number       int    `json:"number"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	HeadSHA      string `json:"head_sha"`
	URL          string `json:"url"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changed_files"`
	RegisteredAt string `json:"registered_at"`
}

// ScoresResponse is the JSON representation of a review's scores.
type ScoresResponse struct {
	Overall         int `json:"overall"`
	Security        int `json:"security"`
	Performance     int `json:"performance"`
	Maintainability int `json:"maintainability"`
}

// ReviewResponse is the JSON representation of a review run.
type ReviewResponse struct {
	ID              string                  `json:"id"`
	SubjectID       int64                   `json:"subject_id"`
	ReviewType      string                  `json:"review_type"`
	Status          string                  `json:"status"`
	Scores          ScoresResponse          `json:"scores"`
	Summary         string                  `json:"summary"`
	Recommendations []string                `json:"recommendations"`
	ModelUsed       string                  `json:"model_used"`
	TokensUsed      int                     `json:"tokens_used"`
	DurationMs      int64                   `json:"duration_ms"`
	FailureReason   string                  `json:"failure_reason,omitempty"`
	CreatedAt       string                  `json:"created_at"`
	StartedAt       string                  `json:"started_at,omitempty"`
	CompletedAt     string                  `json:"completed_at,omitempty"`
	Comments        []ReviewCommentResponse `json:"comments"`
}

// ReviewCommentResponse is the JSON representation of a single finding.
type ReviewCommentResponse struct {
	ID            int64  `json:"id"`
	FilePath      string `json:"file_path"`
	Line          int    `json:"line,omitempty"`
	Category      string `json:"category"`
	Severity      string `json:"severity"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	Suggestion    string `json:"suggestion,omitempty"`
	OriginalCode  string `json:"original_code,omitempty"`
	SuggestedCode string `json:"suggested_code,omitempty"`
	IsResolved    bool   `json:"is_resolved"`
	Feedback      string `json:"feedback"`
	CreatedAt     string `json:"created_at"`
}

// FixResponse is the JSON representation of one fix suggestion.
type FixResponse struct {
	ID             string  `json:"id"`
	CommentID      int64   `json:"comment_id,omitempty"`
	Line           int     `json:"line,omitempty"`
	IssueType      string  `json:"issue_type"`
	Severity       string  `json:"severity"`
	OriginalCode   string  `json:"original_code"`
	SuggestedCode  string  `json:"suggested_code"`
	Explanation    string  `json:"explanation"`
	Confidence     float64 `json:"confidence"`
	AutoApplicable bool    `json:"auto_applicable"`
}

// FixListResponse is the JSON body of the fix listing endpoint.
type FixListResponse struct {
	Fixes               []FixResponse `json:"fixes"`
	TotalFixes          int           `json:"total_fixes"`
	AutoApplicableCount int           `json:"auto_applicable_count"`
}

// FixPreviewResponse is the JSON body of the preview endpoint.
type FixPreviewResponse struct {
	OriginalCode string                `json:"original_code"`
	SuggestedFix string                `json:"suggested_fix"`
	Diff         []string              `json:"diff"`
	Stats        application.DiffStats `json:"stats"`
	Explanation  string                `json:"explanation"`
	Confidence   float64               `json:"confidence"`
	CanAutoApply bool                  `json:"can_auto_apply"`
}

// AppliedFixResponse is the JSON body of the single-fix apply endpoint.
type AppliedFixResponse struct {
	FixID        string   `json:"fix_id"`
	Applied      bool     `json:"applied"`
	OriginalCode string   `json:"original_code"`
	FixedCode    string   `json:"fixed_code"`
	Diff         []string `json:"diff"`
	AppliedAt    string   `json:"applied_at"`
}

// BulkApplyResponse is the JSON body of the bulk apply endpoint.
type BulkApplyResponse struct {
	Applied []model.FixOutcome `json:"applied"`
	Failed  []model.FixOutcome `json:"failed"`
	Skipped []model.FixOutcome `json:"skipped"`
	Summary BulkSummary        `json:"summary"`
}

// BulkSummary carries the aggregate counts of a bulk apply call.
type BulkSummary struct {
	Total        int `json:"total"`
	AppliedCount int `json:"applied_count"`
	FailedCount  int `json:"failed_count"`
	SkippedCount int `json:"skipped_count"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// AddSubjectRequest is the JSON body for the subject registration endpoint.
type AddSubjectRequest struct {
	Repository string `json:"repository"`
	Number     int    `json:"number"`
}

// TriggerReviewRequest is the JSON body for the review trigger endpoint.
type TriggerReviewRequest struct {
	SubjectID  int64  `json:"subject_id"`
	ReviewType string `json:"review_type"`
}

// BulkApplyRequest is the JSON body for the bulk apply endpoint.
type BulkApplyRequest struct {
	FixIDs []string `json:"fix_ids"`
}

// AnalyzeCodeRequest is the JSON body for the ad-hoc analysis endpoint.
type AnalyzeCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// UpdateResolutionRequest is the JSON body for the comment resolution endpoint.
type UpdateResolutionRequest struct {
	Resolved bool `json:"resolved"`
}

// UpdateFeedbackRequest is the JSON body for the comment feedback endpoint.
type UpdateFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

func toSubjectResponse(s model.Subject) SubjectResponse {
	return SubjectResponse{
		ID:           s.ID,
		Repository:   s.RepoFullName,
		Number:       s.Number,
		Title:        s.Title,
		Author:       s.Author,
		HeadSHA:      s.HeadSHA,
		URL:          s.URL,
		Additions:    s.Additions,
		Deletions:    s.Deletions,
		ChangedFiles: s.ChangedFiles,
		RegisteredAt: s.RegisteredAt.UTC().Format(time.RFC3339),
	}
}

func toReviewResponse(r model.Review, comments []model.ReviewComment) ReviewResponse {
	resp := ReviewResponse{
		ID:         r.ID,
		SubjectID:  r.SubjectID,
		ReviewType: string(r.ReviewType),
		Status:     string(r.Status),
		Scores: ScoresResponse{
			Overall:         r.Scores.Overall,
			Security:        r.Scores.Security,
			Performance:     r.Scores.Performance,
			Maintainability: r.Scores.Maintainability,
		},
		Summary:         r.Summary,
		Recommendations: r.Recommendations,
		ModelUsed:       r.ModelUsed,
		TokensUsed:      r.TokensUsed,
		DurationMs:      r.Duration.Milliseconds(),
		FailureReason:   r.FailureReason,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		Comments:        []ReviewCommentResponse{},
	}

	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}
	if !r.StartedAt.IsZero() {
		resp.StartedAt = r.StartedAt.UTC().Format(time.RFC3339)
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.UTC().Format(time.RFC3339)
	}

	for _, c := range comments {
		resp.Comments = append(resp.Comments, toReviewCommentResponse(c))
	}

	return resp
}

func toReviewCommentResponse(c model.ReviewComment) ReviewCommentResponse {
	return ReviewCommentResponse{
		ID:            c.ID,
		FilePath:      c.FilePath,
		Line:          c.Line,
		Category:      string(c.Category),
		Severity:      string(c.Severity),
		Title:         c.Title,
		Message:       c.Message,
		Suggestion:    c.Suggestion,
		OriginalCode:  c.OriginalCode,
		SuggestedCode: c.SuggestedCode,
		IsResolved:    c.IsResolved,
		Feedback:      string(c.Feedback),
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFixResponse(f model.FixSuggestion) FixResponse {
	return FixResponse{
		ID:             f.ID,
		CommentID:      f.CommentID,
		Line:           f.Line,
		IssueType:      string(f.IssueType),
		Severity:       string(f.Severity),
		OriginalCode:   f.OriginalCode,
		SuggestedCode:  f.SuggestedCode,
		Explanation:    f.Explanation,
		Confidence:     f.Confidence,
		AutoApplicable: f.AutoApplicable,
	}
}

func toFixListResponse(list *application.FixList) FixListResponse {
	fixes := make([]FixResponse, 0, len(list.Fixes))
	for _, f := range list.Fixes {
		fixes = append(fixes, toFixResponse(f))
	}

	return FixListResponse{
		Fixes:               fixes,
		TotalFixes:          list.TotalFixes,
		AutoApplicableCount: list.AutoApplicableCount,
	}
}

func toBulkApplyResponse(result *model.BulkFixResult) BulkApplyResponse {
	resp := BulkApplyResponse{
		Applied: result.Applied,
		Failed:  result.Failed,
		Skipped: result.Skipped,
		Summary: BulkSummary{
			Total:        result.Total(),
			AppliedCount: len(result.Applied),
			FailedCount:  len(result.Failed),
			SkippedCount: len(result.Skipped),
		},
	}

	if resp.Applied == nil {
		resp.Applied = []model.FixOutcome{}
	}
	if resp.Failed == nil {
		resp.Failed = []model.FixOutcome{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []model.FixOutcome{}
	}

	return resp
}
