package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

func outcomeIDs(outcomes []model.FixOutcome) []string {
	ids := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.FixID)
	}
	return ids
}

func TestBulkFixApplier_MixedBatch(t *testing.T) {
	store := newFakeReviewStore()
	store.seedCompletedReview("rev-1", 1, []model.ReviewComment{
		{ID: 1, Severity: model.SeverityMedium, Category: model.CategoryPerformance, Suggestion: "fix it", OriginalCode: "a", SuggestedCode: "b"},
		{ID: 2, Severity: model.SeverityCritical, Category: model.CategorySecurity, Suggestion: "fix it", OriginalCode: "c", SuggestedCode: "d"},
		{ID: 3, Severity: model.SeverityLow, Category: model.CategoryStyle, Suggestion: "fix it", OriginalCode: "e", SuggestedCode: "f"},
	})
	applier := NewBulkFixApplier(store, 4)

	result, err := applier.Apply(context.Background(), "rev-1", []string{"fix-1", "fix-2", "fix-3", "fix-404"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"fix-1", "fix-3"}, outcomeIDs(result.Applied))
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"fix-2", "fix-404"}, outcomeIDs(result.Skipped))
	assert.Equal(t, 4, result.Total())

	for _, o := range result.Skipped {
		switch o.FixID {
		case "fix-2":
			assert.Equal(t, "not auto-applicable", o.Reason)
		case "fix-404":
			assert.Equal(t, "fix not found", o.Reason)
		}
	}
}

func TestBulkFixApplier_EveryIDAccountedForOnce(t *testing.T) {
	store := newFakeReviewStore()
	var comments []model.ReviewComment
	var fixIDs []string
	for i := int64(1); i <= 30; i++ {
		comments = append(comments, model.ReviewComment{
			ID: i, Severity: model.SeverityLow, Category: model.CategoryStyle,
			Suggestion: "fix it", OriginalCode: "x", SuggestedCode: "y",
		})
		fixIDs = append(fixIDs, fmt.Sprintf("fix-%d", i))
	}
	store.seedCompletedReview("rev-1", 1, comments)
	applier := NewBulkFixApplier(store, 8)

	result, err := applier.Apply(context.Background(), "rev-1", fixIDs)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, list := range [][]model.FixOutcome{result.Applied, result.Failed, result.Skipped} {
		for _, o := range list {
			seen[o.FixID]++
		}
	}
	require.Len(t, seen, 30)
	for id, count := range seen {
		assert.Equal(t, 1, count, "fix %s reported %d times", id, count)
	}
}

func TestBulkFixApplier_EmptyBatchRejected(t *testing.T) {
	applier := NewBulkFixApplier(newFakeReviewStore(), 2)

	_, err := applier.Apply(context.Background(), "rev-1", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestBulkFixApplier_OversizedBatchRejected(t *testing.T) {
	applier := NewBulkFixApplier(newFakeReviewStore(), 2)

	fixIDs := make([]string, BulkApplyMax+1)
	for i := range fixIDs {
		fixIDs[i] = fmt.Sprintf("fix-%d", i)
	}

	_, err := applier.Apply(context.Background(), "rev-1", fixIDs)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestBulkFixApplier_DuplicateIDsRejected(t *testing.T) {
	store := newFakeReviewStore()
	store.seedCompletedReview("rev-1", 1, nil)
	applier := NewBulkFixApplier(store, 2)

	_, err := applier.Apply(context.Background(), "rev-1", []string{"fix-1", "fix-1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestBulkFixApplier_UnknownReviewFailsWholeCall(t *testing.T) {
	applier := NewBulkFixApplier(newFakeReviewStore(), 2)

	_, err := applier.Apply(context.Background(), "rev-missing", []string{"fix-1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBulkFixApplier_CancelledContextSkipsRemaining(t *testing.T) {
	store := newFakeReviewStore()
	store.seedCompletedReview("rev-1", 1, []model.ReviewComment{
		{ID: 1, Severity: model.SeverityLow, Category: model.CategoryStyle, Suggestion: "fix it", OriginalCode: "a", SuggestedCode: "b"},
		{ID: 2, Severity: model.SeverityLow, Category: model.CategoryStyle, Suggestion: "fix it", OriginalCode: "c", SuggestedCode: "d"},
	})
	applier := NewBulkFixApplier(store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := applier.Apply(ctx, "rev-1", []string{"fix-1", "fix-2"})
	require.NoError(t, err)

	// Every item is still accounted for; the not-started ones are skipped.
	assert.Equal(t, 2, result.Total())
	assert.Len(t, result.Skipped, 2)
	for _, o := range result.Skipped {
		assert.Equal(t, "cancelled", o.Reason)
	}
}

func TestBulkFixApplier_WorkerFloor(t *testing.T) {
	store := newFakeReviewStore()
	store.seedCompletedReview("rev-1", 1, []model.ReviewComment{
		{ID: 1, Severity: model.SeverityLow, Category: model.CategoryStyle, Suggestion: "fix it", OriginalCode: "a", SuggestedCode: "b"},
	})

	// A nonsensical worker count falls back to the default instead of
	// deadlocking SetLimit.
	applier := NewBulkFixApplier(store, 0)
	result, err := applier.Apply(context.Background(), "rev-1", []string{"fix-1"})
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)
}
