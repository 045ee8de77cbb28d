// Package forge defines the narrow collaborator interface the submission
// pipeline (internal/submit) depends on. It intentionally knows nothing
// about GraphQL, REST, or any particular hosting provider — that lives in
// the adapters under internal/forge/github.
package forge

import (
	"context"
	"time"
)

// State mirrors a change request's lifecycle state on the forge.
type State string

const (
	StateOpen   State = "open"
	StateMerged State = "merged"
	StateClosed State = "closed"
)

// ChangeRequest is forge vocabulary for "pull request" or "merge request".
type ChangeRequest struct {
	ID      string
	Number  int64
	URL     string
	Title   string
	Body    string
	State   State
	Draft   bool
	HeadRef string
	BaseRef string
	// Updated is the change request's last-updated time, zero if the forge
	// doesn't report one.
	Updated time.Time
}

// CreateInput describes a new change request.
type CreateInput struct {
	HeadRef string
	BaseRef string
	Title   string
	Body    string
	Draft   bool
}

// MergeMethod selects how EnableAutoMerge will land the change when checks pass.
type MergeMethod string

const (
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodRebase MergeMethod = "rebase"
)

// Forge is the out-of-scope collaborator SubmissionPipeline (§4.10) depends
// on. Every method is scoped to a single owner/repo pair resolved once at
// construction time, matching how the teacher's cmd/av commands bind to one
// repository slug per invocation.
type Forge interface {
	// CheckExist batch-checks PR existence for a set of head refs in one
	// bounded-parallel round trip. The result maps head ref -> exists.
	CheckExist(ctx context.Context, headRefs []string) (map[string]bool, error)

	// GetByHeadRef looks up the (at most one) open or most-recent change
	// request whose head ref matches headRef.
	GetByHeadRef(ctx context.Context, headRef string) (cr *ChangeRequest, ok bool, err error)

	// GetBody fetches just the current body text, used by the batch
	// description-update pass so it can splice in a fresh stack-viz block.
	GetBody(ctx context.Context, number int64) (string, error)

	Create(ctx context.Context, input CreateInput) (*ChangeRequest, error)

	UpdateBase(ctx context.Context, number int64, newBaseRef string) error
	UpdateBody(ctx context.Context, number int64, newBody string) error

	// Publish converts a draft change request to ready-for-review.
	Publish(ctx context.Context, number int64) error

	EnableAutoMerge(ctx context.Context, number int64, method MergeMethod) error
}
