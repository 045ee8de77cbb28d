// Package github adapts internal/gh's GraphQL client to the narrow
// internal/forge.Forge interface SubmissionPipeline depends on.
package github

import (
	"context"
	"sync"

	"emperror.dev/errors"
	"github.com/shurcooL/githubv4"
	"golang.org/x/sync/errgroup"

	"github.com/stackctl/stackctl/internal/forge"
	"github.com/stackctl/stackctl/internal/gh"
)

// maxParallelChecks bounds the number of concurrent existence-check requests
// fired by CheckExist, matching the "run up to K coroutines in parallel"
// contract spec §5 assigns to the forge fan-out.
const maxParallelChecks = 8

// Adapter binds a *gh.Client to one owner/repo pair.
type Adapter struct {
	client *gh.Client
	owner  string
	repo   string
}

// New returns a forge.Forge backed by GitHub's GraphQL v4 API.
func New(client *gh.Client, owner, repo string) *Adapter {
	return &Adapter{client: client, owner: owner, repo: repo}
}

var _ forge.Forge = (*Adapter)(nil)

func (a *Adapter) slug() string { return a.owner + "/" + a.repo }

// CheckExist fans out one existence check per head ref, bounded to
// maxParallelChecks in flight at once via errgroup.SetLimit, grounded on
// Gizzahub-gzh-cli-gitforge's pkg/repository/bulk.go bounded-worker pattern.
func (a *Adapter) CheckExist(ctx context.Context, headRefs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(headRefs))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)

	for _, headRef := range headRefs {
		headRef := headRef
		g.Go(func() error {
			_, ok, err := a.GetByHeadRef(ctx, headRef)
			if err != nil {
				return errors.Wrapf(err, "checking pull request existence for %q", headRef)
			}
			mu.Lock()
			result[headRef] = ok
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Adapter) GetByHeadRef(ctx context.Context, headRef string) (*forge.ChangeRequest, bool, error) {
	prs, err := a.client.GetPullRequests(ctx, gh.GetPullRequestsOpts{
		Repository:  a.slug(),
		HeadRefName: &headRef,
	})
	if err != nil {
		return nil, false, err
	}
	if len(prs) == 0 {
		return nil, false, nil
	}
	// Prefer the first open PR if several exist (e.g. a closed duplicate);
	// otherwise fall back to the most recently created.
	best := prs[0]
	for _, pr := range prs {
		if pr.State == githubv4.PullRequestStateOpen {
			best = pr
			break
		}
	}
	return convert(best), true, nil
}

func (a *Adapter) GetBody(ctx context.Context, number int64) (string, error) {
	pr, err := a.client.PullRequest(ctx, gh.PullRequestOpts{Owner: a.owner, Repo: a.repo, Number: number})
	if err != nil {
		return "", err
	}
	return pr.Body, nil
}

func (a *Adapter) Create(ctx context.Context, input forge.CreateInput) (*forge.ChangeRequest, error) {
	pr, err := a.client.CreatePullRequestFromSlug(ctx, gh.CreatePullRequestOpts{
		Repository:  a.slug(),
		Title:       input.Title,
		Body:        input.Body,
		HeadRefName: input.HeadRef,
		BaseRefName: input.BaseRef,
		Draft:       input.Draft,
	})
	if err != nil {
		return nil, err
	}
	return convert(pr), nil
}

func (a *Adapter) UpdateBase(ctx context.Context, number int64, newBaseRef string) error {
	pr, err := a.byNumber(ctx, number)
	if err != nil {
		return err
	}
	_, err = a.client.UpdatePullRequest(ctx, githubv4.UpdatePullRequestInput{
		PullRequestID: githubv4.ID(pr.ID),
		BaseRefName:   githubv4.NewString(githubv4.String(newBaseRef)),
	})
	return err
}

func (a *Adapter) UpdateBody(ctx context.Context, number int64, newBody string) error {
	pr, err := a.byNumber(ctx, number)
	if err != nil {
		return err
	}
	_, err = a.client.UpdatePullRequest(ctx, githubv4.UpdatePullRequestInput{
		PullRequestID: githubv4.ID(pr.ID),
		Body:          githubv4.NewString(githubv4.String(newBody)),
	})
	return err
}

func (a *Adapter) Publish(ctx context.Context, number int64) error {
	pr, err := a.byNumber(ctx, number)
	if err != nil {
		return err
	}
	_, err = a.client.MarkPullRequestReadyForReview(ctx, pr.ID)
	return err
}

func (a *Adapter) EnableAutoMerge(ctx context.Context, number int64, method forge.MergeMethod) error {
	pr, err := a.byNumber(ctx, number)
	if err != nil {
		return err
	}
	var ghMethod githubv4.PullRequestMergeMethod
	switch method {
	case forge.MergeMethodMerge:
		ghMethod = githubv4.PullRequestMergeMethodMerge
	case forge.MergeMethodRebase:
		ghMethod = githubv4.PullRequestMergeMethodRebase
	default:
		ghMethod = githubv4.PullRequestMergeMethodSquash
	}
	return a.client.EnablePullRequestAutoMerge(ctx, pr.ID, ghMethod)
}

func (a *Adapter) byNumber(ctx context.Context, number int64) (*gh.PullRequest, error) {
	return a.client.PullRequest(ctx, gh.PullRequestOpts{Owner: a.owner, Repo: a.repo, Number: number})
}

func convert(pr *gh.PullRequest) *forge.ChangeRequest {
	var state forge.State
	switch {
	case pr.Merged:
		state = forge.StateMerged
	case pr.State == githubv4.PullRequestStateClosed:
		state = forge.StateClosed
	default:
		state = forge.StateOpen
	}
	return &forge.ChangeRequest{
		ID:      pr.ID,
		Number:  pr.Number,
		URL:     pr.Permalink,
		Title:   pr.Title,
		Body:    pr.Body,
		State:   state,
		Draft:   pr.IsDraft,
		HeadRef: pr.HeadBranchName(),
		BaseRef: pr.BaseBranchName(),
		Updated: pr.UpdatedAt.Time,
	}
}
