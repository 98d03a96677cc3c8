package driven

import (
	"context"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// SubjectStore defines the driven port for the registry of reviewable
// pull requests.
type SubjectStore interface {
	// Add registers a subject and returns it with the assigned ID. It
	// returns a conflict error when the repo/number pair already exists.
	Add(ctx context.Context, subject model.Subject) (*model.Subject, error)
	Get(ctx context.Context, subjectID int64) (*model.Subject, error)
	ListAll(ctx context.Context) ([]model.Subject, error)
}
