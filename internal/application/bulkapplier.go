package application

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// BulkApplyMax caps the number of fix ids one bulk call may carry.
const BulkApplyMax = 50

const defaultBulkWorkers = 8

// BulkFixApplier applies a batch of fixes against one review. Items are
// processed independently by a bounded worker pool; a failing item lands in
// the failed list and never aborts its siblings.
type BulkFixApplier struct {
	reviews driven.ReviewStore
	workers int
}

// NewBulkFixApplier creates a BulkFixApplier. workers bounds the pool; values
// below 1 fall back to the default.
func NewBulkFixApplier(reviews driven.ReviewStore, workers int) *BulkFixApplier {
	if workers < 1 {
		workers = defaultBulkWorkers
	}
	return &BulkFixApplier{reviews: reviews, workers: workers}
}

// bulkAccumulator merges per-item outcomes under one lock so the final counts
// are exact regardless of completion order.
type bulkAccumulator struct {
	mu     sync.Mutex
	result model.BulkFixResult
}

func (a *bulkAccumulator) applied(fixID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.Applied = append(a.result.Applied, model.FixOutcome{FixID: fixID})
}

func (a *bulkAccumulator) failed(fixID, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.Failed = append(a.result.Failed, model.FixOutcome{FixID: fixID, Reason: reason})
}

func (a *bulkAccumulator) skipped(fixID, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.Skipped = append(a.result.Skipped, model.FixOutcome{FixID: fixID, Reason: reason})
}

// Apply processes every requested fix id and aggregates the outcomes. The
// whole call fails only on empty or oversized batches, duplicate ids, or an
// unknown review; per-item problems are reported in the result. Every
// requested id is accounted for in exactly one list, cancellation included.
func (b *BulkFixApplier) Apply(ctx context.Context, reviewID string, fixIDs []string) (*model.BulkFixResult, error) {
	if len(fixIDs) == 0 {
		return nil, apperr.Validation("fix_ids must not be empty")
	}
	if len(fixIDs) > BulkApplyMax {
		return nil, apperr.Validation("batch of %d fixes exceeds batch cap of %d", len(fixIDs), BulkApplyMax)
	}

	seen := make(map[string]struct{}, len(fixIDs))
	for _, id := range fixIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation("duplicate fix id %s in batch", id)
		}
		seen[id] = struct{}{}
	}

	if _, err := b.reviews.GetReview(ctx, reviewID); err != nil {
		return nil, err
	}

	comments, err := b.reviews.GetComments(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	fixByID := make(map[string]model.FixSuggestion, len(comments))
	for _, fix := range SuggestFixes(comments) {
		fixByID[fix.ID] = fix
	}

	acc := &bulkAccumulator{}

	g := &errgroup.Group{}
	g.SetLimit(b.workers)

	for _, fixID := range fixIDs {
		g.Go(func() error {
			// Items that have not started when the call is cancelled are
			// skipped; in-flight items run to completion.
			if ctx.Err() != nil {
				acc.skipped(fixID, "cancelled")
				return nil
			}

			b.applyOne(fixID, fixByID, acc)
			return nil
		})
	}

	// Workers never return errors; Wait is only a completion barrier.
	_ = g.Wait()

	if got := acc.result.Total(); got != len(fixIDs) {
		return nil, apperr.Internal(fmt.Errorf("bulk apply accounted for %d of %d fixes", got, len(fixIDs)))
	}

	return &acc.result, nil
}

// applyOne resolves and applies a single fix, recording the outcome. Panics
// are captured into the failed list so a bad item cannot take down the batch.
func (b *BulkFixApplier) applyOne(fixID string, fixByID map[string]model.FixSuggestion, acc *bulkAccumulator) {
	defer func() {
		if v := recover(); v != nil {
			acc.failed(fixID, fmt.Sprintf("panic: %v", v))
		}
	}()

	fix, ok := fixByID[fixID]
	if !ok {
		acc.skipped(fixID, "fix not found")
		return
	}

	if !fix.AutoApplicable {
		acc.skipped(fixID, "not auto-applicable")
		return
	}

	if _, _, err := ComputeDiff(fix.OriginalCode, fix.SuggestedCode); err != nil {
		acc.failed(fixID, err.Error())
		return
	}

	acc.applied(fixID)
}
