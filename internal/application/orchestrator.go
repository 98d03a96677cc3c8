// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// ReviewOrchestrator owns the review state machine end to end: it is the only
// writer of review status and the only creator of review comments.
type ReviewOrchestrator struct {
	subjects      driven.SubjectStore
	reviews       driven.ReviewStore
	codeHost      driven.CodeHost
	analyzer      driven.Analyzer
	timeout       time.Duration
	fallbackScore int
	now           func() time.Time
}

// NewReviewOrchestrator creates a ReviewOrchestrator with all required
// dependencies. timeout bounds the provider call; fallbackScore fills score
// fields the provider omits.
func NewReviewOrchestrator(
	subjects driven.SubjectStore,
	reviews driven.ReviewStore,
	codeHost driven.CodeHost,
	analyzer driven.Analyzer,
	timeout time.Duration,
	fallbackScore int,
) *ReviewOrchestrator {
	return &ReviewOrchestrator{
		subjects:      subjects,
		reviews:       reviews,
		codeHost:      codeHost,
		analyzer:      analyzer,
		timeout:       timeout,
		fallbackScore: fallbackScore,
		now:           time.Now,
	}
}

// Trigger runs a complete review for the subject: create pending, promote to
// in progress, call the provider under the configured timeout, and persist
// either the completed result or the failure. At most one non-terminal review
// can exist per subject; a second trigger while one is running returns a
// conflict and creates nothing.
func (o *ReviewOrchestrator) Trigger(ctx context.Context, subjectID int64, reviewType model.ReviewType) (*model.Review, []model.ReviewComment, error) {
	if !model.ValidReviewType(reviewType) {
		return nil, nil, apperr.Validation("unsupported review type %q", reviewType)
	}

	subject, err := o.subjects.Get(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}

	review := model.Review{
		ID:         newReviewID(),
		SubjectID:  subject.ID,
		ReviewType: reviewType,
		Status:     model.ReviewStatusPending,
		CreatedAt:  o.now().UTC(),
	}

	if err := o.reviews.CreateReview(ctx, review); err != nil {
		return nil, nil, err
	}

	// The pending->in_progress transition must be durable before the
	// provider runs, so a concurrent trigger can never observe "no active
	// review" for this subject.
	startedAt := o.now().UTC()
	ok, err := o.reviews.TransitionStatus(ctx, review.ID, model.ReviewStatusPending, model.ReviewStatusInProgress, startedAt)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperr.Conflict("review %s is no longer pending", review.ID)
	}
	review.Status = model.ReviewStatusInProgress
	review.StartedAt = startedAt

	slog.Info("review started",
		"review_id", review.ID,
		"subject", subject.RepoFullName,
		"pr_number", subject.Number,
		"review_type", reviewType,
	)

	result, err := o.analyze(ctx, subject, reviewType)
	if err != nil {
		o.fail(review.ID, err)
		return nil, nil, apperr.External("analysis provider failed", err)
	}

	completedAt := o.now().UTC()
	review.Status = model.ReviewStatusCompleted
	review.Scores = model.Scores{
		Overall:         o.scoreOr(result.OverallScore),
		Security:        o.scoreOr(result.SecurityScore),
		Performance:     o.scoreOr(result.PerformanceScore),
		Maintainability: o.scoreOr(result.MaintainabilityScore),
	}
	review.Summary = result.Summary
	review.Recommendations = result.Recommendations
	if review.Recommendations == nil {
		review.Recommendations = []string{}
	}
	review.ModelUsed = result.ModelUsed
	review.TokensUsed = result.TokensUsed
	review.Duration = completedAt.Sub(startedAt)
	review.CompletedAt = completedAt

	comments := make([]model.ReviewComment, 0, len(result.Comments))
	for _, c := range result.Comments {
		comments = append(comments, model.ReviewComment{
			ReviewID:      review.ID,
			FilePath:      c.FilePath,
			Line:          c.Line,
			Category:      c.Category,
			Severity:      c.Severity,
			Title:         c.Title,
			Message:       c.Message,
			Suggestion:    c.Suggestion,
			OriginalCode:  c.OriginalCode,
			SuggestedCode: c.SuggestedCode,
			Feedback:      model.FeedbackNone,
			CreatedAt:     completedAt,
		})
	}

	if err := o.reviews.CompleteReview(ctx, review, comments); err != nil {
		return nil, nil, err
	}

	persisted, err := o.reviews.GetComments(ctx, review.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("review completed",
		"review_id", review.ID,
		"comments", len(persisted),
		"overall_score", review.Scores.Overall,
		"duration", review.Duration.Round(time.Millisecond),
	)

	return &review, persisted, nil
}

// analyze fetches the subject's patch and runs the provider under the
// configured timeout. Any failure here, code host included, is the review's
// failure path.
func (o *ReviewOrchestrator) analyze(ctx context.Context, subject *model.Subject, reviewType model.ReviewType) (*driven.AnalysisResult, error) {
	patch, err := o.codeHost.FetchPatch(ctx, subject.RepoFullName, subject.Number)
	if err != nil {
		return nil, err
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return o.analyzer.Analyze(analyzeCtx, driven.AnalysisRequest{
		RepoFullName: subject.RepoFullName,
		Number:       subject.Number,
		Title:        subject.Title,
		ReviewType:   reviewType,
		Diff:         patch,
	})
}

// fail marks the review failed. The mark uses a background context so a
// cancelled trigger still leaves a terminal state behind. No comments are
// persisted on this path.
func (o *ReviewOrchestrator) fail(reviewID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := o.reviews.MarkFailed(ctx, reviewID, cause.Error(), o.now().UTC()); err != nil {
		slog.Error("failed to mark review failed", "review_id", reviewID, "error", err)
		return
	}

	slog.Warn("review failed", "review_id", reviewID, "error", cause)
}

func (o *ReviewOrchestrator) scoreOr(score *int) int {
	if score == nil {
		return o.fallbackScore
	}
	return *score
}

// newReviewID returns a ULID-based review id. ULIDs are unique under
// concurrent generation and sort by creation time.
func newReviewID() string {
	return "rev-" + ulid.Make().String()
}
