package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// CreateReview inserts a new pending review. The partial unique index on
// active reviews makes a second non-terminal review for the same subject a
// constraint violation, surfaced here as a conflict with nothing written.
func (r *ReviewRepo) CreateReview(ctx context.Context, review model.Review) error {
	const query = `
		INSERT INTO reviews (id, subject_id, review_type, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		review.ID, review.SubjectID, string(review.ReviewType),
		string(review.Status), formatTime(review.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("subject %d already has a review in progress", review.SubjectID)
		}
		return fmt.Errorf("insert review %s: %w", review.ID, err)
	}

	return nil
}

// TransitionStatus atomically moves a review from one status to another.
// The WHERE clause on the current status makes this a compare-and-set: a
// false return means the review was not in the expected state and nothing
// changed.
func (r *ReviewRepo) TransitionStatus(ctx context.Context, reviewID string, from, to model.ReviewStatus, at time.Time) (bool, error) {
	const query = `
		UPDATE reviews
		SET status = ?, started_at = COALESCE(started_at, ?)
		WHERE id = ? AND status = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		string(to), formatTime(at), reviewID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("transition review %s %s->%s: %w", reviewID, from, to, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition review %s rows affected: %w", reviewID, err)
	}

	return affected == 1, nil
}

// CompleteReview writes the terminal completed state, scores, and all
// comments in one transaction so readers never observe a partial comment set.
func (r *ReviewRepo) CompleteReview(ctx context.Context, review model.Review, comments []model.ReviewComment) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete review %s: %w", review.ID, err)
	}
	defer tx.Rollback()

	recommendations, err := json.Marshal(review.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations for review %s: %w", review.ID, err)
	}

	const updateQuery = `
		UPDATE reviews
		SET status = ?,
		    overall_score = ?, security_score = ?, performance_score = ?, maintainability_score = ?,
		    summary = ?, recommendations = ?, model_used = ?, tokens_used = ?,
		    duration_ms = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`

	res, err := tx.ExecContext(ctx, updateQuery,
		string(model.ReviewStatusCompleted),
		review.Scores.Overall, review.Scores.Security,
		review.Scores.Performance, review.Scores.Maintainability,
		review.Summary, string(recommendations), review.ModelUsed, review.TokensUsed,
		review.Duration.Milliseconds(), formatTime(review.CompletedAt),
		review.ID, string(model.ReviewStatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("complete review %s: %w", review.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete review %s rows affected: %w", review.ID, err)
	}
	if affected != 1 {
		return apperr.Conflict("review %s is not in progress", review.ID)
	}

	const insertQuery = `
		INSERT INTO review_comments (
			review_id, file_path, line, category, severity, title, message,
			suggestion, original_code, suggested_code, is_resolved, feedback, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 'none', ?)
	`

	// Insertion order assigns ascending autoincrement ids, which preserves
	// provider order on read.
	for _, c := range comments {
		_, err := tx.ExecContext(ctx, insertQuery,
			review.ID, c.FilePath, c.Line, string(c.Category), string(c.Severity),
			c.Title, c.Message, c.Suggestion, c.OriginalCode, c.SuggestedCode,
			formatTime(c.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert comment for review %s: %w", review.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete review %s: %w", review.ID, err)
	}

	return nil
}

// MarkFailed sets the terminal failed state. Failed reviews keep no comments.
func (r *ReviewRepo) MarkFailed(ctx context.Context, reviewID string, reason string, at time.Time) error {
	const query = `
		UPDATE reviews
		SET status = ?, failure_reason = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		string(model.ReviewStatusFailed), reason, formatTime(at), reviewID,
		string(model.ReviewStatusPending), string(model.ReviewStatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("mark review %s failed: %w", reviewID, err)
	}

	return nil
}

// GetReview returns the review with the given ID, or a not-found error.
func (r *ReviewRepo) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	query := reviewSelect + ` WHERE id = ?`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("review", reviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", reviewID, err)
	}

	return review, nil
}

// GetReviewsBySubject returns all reviews for the subject, newest first.
func (r *ReviewRepo) GetReviewsBySubject(ctx context.Context, subjectID int64) ([]model.Review, error) {
	query := reviewSelect + ` WHERE subject_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query reviews for subject %d: %w", subjectID, err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

// GetComments returns the review's comments in provider order (insert order).
func (r *ReviewRepo) GetComments(ctx context.Context, reviewID string) ([]model.ReviewComment, error) {
	query := commentSelect + ` WHERE review_id = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query comments for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	var comments []model.ReviewComment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// GetComment returns a single comment by ID, or a not-found error.
func (r *ReviewRepo) GetComment(ctx context.Context, commentID int64) (*model.ReviewComment, error) {
	query := commentSelect + ` WHERE id = ?`

	comment, err := scanComment(r.db.Reader.QueryRowContext(ctx, query, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("comment", commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", commentID, err)
	}

	return comment, nil
}

// UpdateCommentResolution sets the is_resolved flag on a review comment.
func (r *ReviewRepo) UpdateCommentResolution(ctx context.Context, commentID int64, isResolved bool) error {
	const query = `UPDATE review_comments SET is_resolved = ? WHERE id = ?`

	resolved := 0
	if isResolved {
		resolved = 1
	}

	res, err := r.db.Writer.ExecContext(ctx, query, resolved, commentID)
	if err != nil {
		return fmt.Errorf("update comment resolution %d: %w", commentID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("comment resolution %d rows affected: %w", commentID, err)
	}
	if affected == 0 {
		return apperr.NotFound("comment", commentID)
	}

	return nil
}

// UpdateCommentFeedback sets the user feedback tag on a review comment.
func (r *ReviewRepo) UpdateCommentFeedback(ctx context.Context, commentID int64, feedback model.Feedback) error {
	const query = `UPDATE review_comments SET feedback = ? WHERE id = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, string(feedback), commentID)
	if err != nil {
		return fmt.Errorf("update comment feedback %d: %w", commentID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("comment feedback %d rows affected: %w", commentID, err)
	}
	if affected == 0 {
		return apperr.NotFound("comment", commentID)
	}

	return nil
}

const reviewSelect = `
	SELECT id, subject_id, review_type, status,
	       overall_score, security_score, performance_score, maintainability_score,
	       summary, recommendations, model_used, tokens_used, duration_ms,
	       failure_reason, created_at, started_at, completed_at
	FROM reviews
`

const commentSelect = `
	SELECT id, review_id, file_path, line, category, severity, title, message,
	       suggestion, original_code, suggested_code, is_resolved, feedback, created_at
	FROM review_comments
`

func scanReview(s scanner) (*model.Review, error) {
	var review model.Review
	var reviewType, status, recommendations, createdAt string
	var durationMs int64
	var startedAt, completedAt sql.NullString

	err := s.Scan(
		&review.ID, &review.SubjectID, &reviewType, &status,
		&review.Scores.Overall, &review.Scores.Security,
		&review.Scores.Performance, &review.Scores.Maintainability,
		&review.Summary, &recommendations, &review.ModelUsed, &review.TokensUsed,
		&durationMs, &review.FailureReason, &createdAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	review.ReviewType = model.ReviewType(reviewType)
	review.Status = model.ReviewStatus(status)
	review.Duration = time.Duration(durationMs) * time.Millisecond

	if err := json.Unmarshal([]byte(recommendations), &review.Recommendations); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}

	review.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if startedAt.Valid {
		review.StartedAt, err = parseTime(startedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
	}

	if completedAt.Valid {
		review.CompletedAt, err = parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
	}

	return &review, nil
}

func scanComment(s scanner) (*model.ReviewComment, error) {
	var comment model.ReviewComment
	var category, severity, feedback, createdAt string
	var isResolved int

	err := s.Scan(
		&comment.ID, &comment.ReviewID, &comment.FilePath, &comment.Line,
		&category, &severity, &comment.Title, &comment.Message,
		&comment.Suggestion, &comment.OriginalCode, &comment.SuggestedCode,
		&isResolved, &feedback, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	comment.Category = model.Category(category)
	comment.Severity = model.Severity(severity)
	comment.Feedback = model.Feedback(feedback)
	comment.IsResolved = isResolved != 0

	comment.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &comment, nil
}
