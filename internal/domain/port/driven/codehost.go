package driven

import (
	"context"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
)

// CodeHost defines the driven port for the repository hosting service.
type CodeHost interface {
	// ResolveSubject fetches pull request metadata for registration.
	ResolveSubject(ctx context.Context, repoFullName string, number int) (*model.Subject, error)
	// FetchPatch returns the unified patch of the pull request's changed
	// files, concatenated in API order.
	FetchPatch(ctx context.Context, repoFullName string, number int) (string, error)
}
