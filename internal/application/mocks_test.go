package application

import (
	"context"
	"sync"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// fakeReviewStore is an in-memory ReviewStore with the same conflict and CAS
// semantics as the SQLite adapter. Guarded by a mutex so bulk apply tests can
// hit it concurrently.
type fakeReviewStore struct {
	mu       sync.Mutex
	reviews  map[string]*model.Review
	comments map[string][]model.ReviewComment
	nextID   int64

	failComplete error
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		reviews:  make(map[string]*model.Review),
		comments: make(map[string][]model.ReviewComment),
		nextID:   1,
	}
}

func (f *fakeReviewStore) CreateReview(_ context.Context, review model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.reviews {
		if existing.SubjectID == review.SubjectID && !existing.Status.IsTerminal() {
			return apperr.Conflict("subject %d already has a review in progress", review.SubjectID)
		}
	}

	copied := review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewStore) TransitionStatus(_ context.Context, reviewID string, from, to model.ReviewStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	review, ok := f.reviews[reviewID]
	if !ok || review.Status != from {
		return false, nil
	}

	review.Status = to
	if review.StartedAt.IsZero() {
		review.StartedAt = at
	}
	return true, nil
}

func (f *fakeReviewStore) CompleteReview(_ context.Context, review model.Review, comments []model.ReviewComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failComplete != nil {
		return f.failComplete
	}

	existing, ok := f.reviews[review.ID]
	if !ok || existing.Status != model.ReviewStatusInProgress {
		return apperr.Conflict("review %s is not in progress", review.ID)
	}

	copied := review
	copied.Status = model.ReviewStatusCompleted
	f.reviews[review.ID] = &copied

	stored := make([]model.ReviewComment, 0, len(comments))
	for _, c := range comments {
		c.ID = f.nextID
		f.nextID++
		stored = append(stored, c)
	}
	f.comments[review.ID] = stored
	return nil
}

func (f *fakeReviewStore) MarkFailed(_ context.Context, reviewID string, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	review, ok := f.reviews[reviewID]
	if !ok || review.Status.IsTerminal() {
		return nil
	}

	review.Status = model.ReviewStatusFailed
	review.FailureReason = reason
	review.CompletedAt = at
	return nil
}

func (f *fakeReviewStore) GetReview(_ context.Context, reviewID string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	review, ok := f.reviews[reviewID]
	if !ok {
		return nil, apperr.NotFound("review", reviewID)
	}
	copied := *review
	return &copied, nil
}

func (f *fakeReviewStore) GetReviewsBySubject(_ context.Context, subjectID int64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reviews []model.Review
	for _, review := range f.reviews {
		if review.SubjectID == subjectID {
			reviews = append(reviews, *review)
		}
	}
	return reviews, nil
}

func (f *fakeReviewStore) GetComments(_ context.Context, reviewID string) ([]model.ReviewComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]model.ReviewComment(nil), f.comments[reviewID]...), nil
}

func (f *fakeReviewStore) GetComment(_ context.Context, commentID int64) (*model.ReviewComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, comments := range f.comments {
		for _, c := range comments {
			if c.ID == commentID {
				copied := c
				return &copied, nil
			}
		}
	}
	return nil, apperr.NotFound("comment", commentID)
}

func (f *fakeReviewStore) UpdateCommentResolution(_ context.Context, commentID int64, isResolved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for reviewID, comments := range f.comments {
		for i := range comments {
			if comments[i].ID == commentID {
				f.comments[reviewID][i].IsResolved = isResolved
				return nil
			}
		}
	}
	return apperr.NotFound("comment", commentID)
}

func (f *fakeReviewStore) UpdateCommentFeedback(_ context.Context, commentID int64, feedback model.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for reviewID, comments := range f.comments {
		for i := range comments {
			if comments[i].ID == commentID {
				f.comments[reviewID][i].Feedback = feedback
				return nil
			}
		}
	}
	return apperr.NotFound("comment", commentID)
}

// seedCompletedReview stores a completed review with the given comments and
// returns its id, bypassing the state machine for tests that only read.
func (f *fakeReviewStore) seedCompletedReview(reviewID string, subjectID int64, comments []model.ReviewComment) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reviews[reviewID] = &model.Review{
		ID:        reviewID,
		SubjectID: subjectID,
		Status:    model.ReviewStatusCompleted,
	}

	stored := make([]model.ReviewComment, 0, len(comments))
	for _, c := range comments {
		if c.ID == 0 {
			c.ID = f.nextID
			f.nextID++
		}
		c.ReviewID = reviewID
		stored = append(stored, c)
	}
	f.comments[reviewID] = stored
}

// fakeSubjectStore is an in-memory SubjectStore.
type fakeSubjectStore struct {
	subjects map[int64]model.Subject
}

func newFakeSubjectStore(subjects ...model.Subject) *fakeSubjectStore {
	store := &fakeSubjectStore{subjects: make(map[int64]model.Subject)}
	for _, s := range subjects {
		store.subjects[s.ID] = s
	}
	return store
}

func (f *fakeSubjectStore) Add(_ context.Context, subject model.Subject) (*model.Subject, error) {
	subject.ID = int64(len(f.subjects) + 1)
	f.subjects[subject.ID] = subject
	return &subject, nil
}

func (f *fakeSubjectStore) Get(_ context.Context, subjectID int64) (*model.Subject, error) {
	subject, ok := f.subjects[subjectID]
	if !ok {
		return nil, apperr.NotFound("subject", subjectID)
	}
	return &subject, nil
}

func (f *fakeSubjectStore) ListAll(_ context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	for _, s := range f.subjects {
		subjects = append(subjects, s)
	}
	return subjects, nil
}

// fakeCodeHost returns a canned patch or error.
type fakeCodeHost struct {
	patch string
	err   error
}

func (f *fakeCodeHost) ResolveSubject(_ context.Context, repoFullName string, number int) (*model.Subject, error) {
	return &model.Subject{RepoFullName: repoFullName, Number: number}, nil
}

func (f *fakeCodeHost) FetchPatch(_ context.Context, _ string, _ int) (string, error) {
	return f.patch, f.err
}

// fakeAnalyzer returns a canned result or error and records what it saw.
type fakeAnalyzer struct {
	result *driven.AnalysisResult
	err    error

	gotRequest driven.AnalysisRequest
	calls      int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req driven.AnalysisRequest) (*driven.AnalysisResult, error) {
	f.gotRequest = req
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func intPtr(v int) *int {
	return &v
}
