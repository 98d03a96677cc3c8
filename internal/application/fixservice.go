package application

import (
	"context"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// FixList is the ordered fix listing for one review.
type FixList struct {
	Fixes               []model.FixSuggestion
	TotalFixes          int
	AutoApplicableCount int
}

// FixPreview shows what applying a fix would change, without applying it.
type FixPreview struct {
	OriginalCode  string
	SuggestedCode string
	Diff          []string
	Stats         DiffStats
	Explanation   string
	Confidence    float64
	CanAutoApply  bool
}

// AppliedFix is the outcome of applying a single fix.
type AppliedFix struct {
	FixID        string
	OriginalCode string
	FixedCode    string
	Diff         []string
	AppliedAt    time.Time
}

// FixService resolves review comments into fix suggestions and serves
// listing, preview, and single-fix application. All derivation is pure; the
// store is read-only here.
type FixService struct {
	reviews driven.ReviewStore
	now     func() time.Time
}

// NewFixService creates a FixService backed by the given review store.
func NewFixService(reviews driven.ReviewStore) *FixService {
	return &FixService{reviews: reviews, now: time.Now}
}

// ListFixes returns the review's fixes ordered most severe first, with
// totals. The review must exist; a pending or failed review simply has no
// comments and therefore no fixes.
func (s *FixService) ListFixes(ctx context.Context, reviewID string) (*FixList, error) {
	fixes, err := s.resolveFixes(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	autoApplicable := 0
	for _, fix := range fixes {
		if fix.AutoApplicable {
			autoApplicable++
		}
	}

	return &FixList{
		Fixes:               fixes,
		TotalFixes:          len(fixes),
		AutoApplicableCount: autoApplicable,
	}, nil
}

// Preview computes the diff a fix would introduce without applying it.
func (s *FixService) Preview(ctx context.Context, reviewID, fixID string) (*FixPreview, error) {
	fix, err := s.resolveFix(ctx, reviewID, fixID)
	if err != nil {
		return nil, err
	}

	diff, stats, err := ComputeDiff(fix.OriginalCode, fix.SuggestedCode)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &FixPreview{
		OriginalCode:  fix.OriginalCode,
		SuggestedCode: fix.SuggestedCode,
		Diff:          diff,
		Stats:         stats,
		Explanation:   fix.Explanation,
		Confidence:    fix.Confidence,
		CanAutoApply:  fix.AutoApplicable,
	}, nil
}

// ApplyOne applies a single fix. Fixes that are not auto-applicable are
// rejected with a validation error.
func (s *FixService) ApplyOne(ctx context.Context, reviewID, fixID string) (*AppliedFix, error) {
	fix, err := s.resolveFix(ctx, reviewID, fixID)
	if err != nil {
		return nil, err
	}

	if !fix.AutoApplicable {
		return nil, apperr.Validation("fix %s is not auto-applicable", fixID)
	}

	diff, _, err := ComputeDiff(fix.OriginalCode, fix.SuggestedCode)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AppliedFix{
		FixID:        fix.ID,
		OriginalCode: fix.OriginalCode,
		FixedCode:    fix.SuggestedCode,
		Diff:         diff,
		AppliedAt:    s.now().UTC(),
	}, nil
}

// resolveFixes loads the review's comments and derives the ordered fix list.
func (s *FixService) resolveFixes(ctx context.Context, reviewID string) ([]model.FixSuggestion, error) {
	if _, err := s.reviews.GetReview(ctx, reviewID); err != nil {
		return nil, err
	}

	comments, err := s.reviews.GetComments(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	return SuggestFixes(comments), nil
}

func (s *FixService) resolveFix(ctx context.Context, reviewID, fixID string) (*model.FixSuggestion, error) {
	fixes, err := s.resolveFixes(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	for i := range fixes {
		if fixes[i].ID == fixID {
			return &fixes[i], nil
		}
	}

	return nil, apperr.NotFound("fix", fixID)
}
