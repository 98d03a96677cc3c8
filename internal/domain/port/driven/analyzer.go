package driven

import (
	"context"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// AnalysisRequest carries everything the provider needs to review a subject.
type AnalysisRequest struct {
	RepoFullName string
	Number       int
	Title        string
	ReviewType   model.ReviewType
	// Diff is the unified patch of the subject's changed files.
	Diff string
}

// AnalysisComment is one finding as returned by the provider, before it is
// persisted as a ReviewComment.
type AnalysisComment struct {
	FilePath      string
	Line          int
	Category      model.Category
	Severity      model.Severity
	Title         string
	Message       string
	Suggestion    string
	OriginalCode  string
	SuggestedCode string
}

// AnalysisResult is the provider's verdict on a subject. Score fields are nil
// when the provider omitted them; the orchestrator substitutes the configured
// fallback score.
type AnalysisResult struct {
	OverallScore         *int
	SecurityScore        *int
	PerformanceScore     *int
	MaintainabilityScore *int
	Summary              string
	Recommendations      []string
	Comments             []AnalysisComment
	ModelUsed            string
	TokensUsed           int
}

// Analyzer defines the driven port for the external analysis provider. It is
// consumed, never implemented, by the core: any error (including context
// deadline) is the orchestrator's failure path.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}
