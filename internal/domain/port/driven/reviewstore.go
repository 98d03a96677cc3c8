package driven

import (
	"context"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// ReviewStore defines the driven port for persisting reviews and their
// comments. The orchestrator is the only writer of review status and comment
// content; external collaborators may only touch comment resolution/feedback.
type ReviewStore interface {
	// CreateReview inserts a new review in pending status. It returns a
	// conflict error when the subject already has a non-terminal review;
	// nothing is written in that case.
	CreateReview(ctx context.Context, review model.Review) error
	// TransitionStatus performs an atomic compare-and-set of the review's
	// status. It returns false when the review was not in the expected
	// status, in which case nothing was written.
	TransitionStatus(ctx context.Context, reviewID string, from, to model.ReviewStatus, at time.Time) (bool, error)
	// CompleteReview sets the terminal completed state together with scores
	// and comments in a single transaction. A partial comment set is never
	// visible to readers.
	CompleteReview(ctx context.Context, review model.Review, comments []model.ReviewComment) error
	// MarkFailed sets the terminal failed state with the given reason.
	MarkFailed(ctx context.Context, reviewID string, reason string, at time.Time) error

	GetReview(ctx context.Context, reviewID string) (*model.Review, error)
	GetReviewsBySubject(ctx context.Context, subjectID int64) ([]model.Review, error)
	// GetComments returns the review's comments in provider order.
	GetComments(ctx context.Context, reviewID string) ([]model.ReviewComment, error)
	GetComment(ctx context.Context, commentID int64) (*model.ReviewComment, error)

	UpdateCommentResolution(ctx context.Context, commentID int64, isResolved bool) error
	UpdateCommentFeedback(ctx context.Context, commentID int64, feedback model.Feedback) error
}
