package gh

import (
	"context"
	"emperror.dev/errors"
	"fmt"
	"github.com/shurcooL/githubv4"
	"strings"
)

type PullRequest struct {
	ID     string
	Number int64
	Author struct {
		Login string
	}
	HeadRefName string
	HeadRefOID  string
	BaseRefName string
	IsDraft     bool
	Mergeable   githubv4.MergeableState
	Merged      bool
	MergeCommit struct {
		Oid string
	}
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	Permalink string
	State     githubv4.PullRequestState
	Title     string
	Body      string
}

func (p *PullRequest) HeadBranchName() string {
	// Note: GH sometimes includes the "refs/heads/" prefix and sometimes it doesn't.
	// I think(?) it might just return exactly what is given to the API during
	// creation.
	return strings.TrimPrefix(p.HeadRefName, "refs/heads/")
}

func (p *PullRequest) BaseBranchName() string {
	// See comment in HeadBranchName above.
	return strings.TrimPrefix(p.BaseRefName, "refs/heads/")
}

type PullRequestOpts struct {
	Owner  string
	Repo   string
	Number int64
}

// PullRequestByID fetches a pull request by its opaque GitHub node ID,
// for callers that only have an ID (e.g., from a prior CreatePullRequest)
// and don't know the owning repository's slug/number.
func (c *Client) PullRequestByID(ctx context.Context, id string) (*PullRequest, error) {
	var query struct {
		Node struct {
			PullRequest PullRequest `graphql:"... on PullRequest"`
		} `graphql:"node(id: $id)"`
	}
	if err := c.query(ctx, &query, map[string]any{
		"id": githubv4.ID(id),
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to query pull request %q", id)
	}
	if query.Node.PullRequest.ID == "" {
		return nil, errors.Errorf("pull request %q not found", id)
	}
	return &query.Node.PullRequest, nil
}

func (c *Client) PullRequest(ctx context.Context, opts PullRequestOpts) (*PullRequest, error) {
	var query struct {
		Repository struct {
			PullRequest PullRequest `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner:$owner, name:$repo)"`
	}
	if err := c.query(ctx, &query, map[string]interface{}{
		"owner":  githubv4.String(opts.Owner),
		"repo":   githubv4.String(opts.Repo),
		"number": githubv4.Int(opts.Number),
	}); err != nil {
		return nil, errors.WrapIff(err, "failed to query pull request #%d", opts.Number)
	}
	return &query.Repository.PullRequest, nil
}

// CreatePullRequestOpts is a repo-slug-addressed convenience wrapper around
// CreatePullRequest for callers that don't already have a resolved
// repository node ID (e.g., the provider-agnostic providers.Client adapter).
type CreatePullRequestOpts struct {
	Repository  string // owner/repo slug
	Title       string
	Body        string
	HeadRefName string
	BaseRefName string
	Draft       bool
}

// CreatePullRequestFromSlug resolves Repository to a node ID and creates the
// pull request, for callers addressing repositories by slug rather than ID.
func (c *Client) CreatePullRequestFromSlug(ctx context.Context, opts CreatePullRequestOpts) (*PullRequest, error) {
	repo, err := c.GetRepositoryBySlug(ctx, opts.Repository)
	if err != nil {
		return nil, err
	}
	return c.CreatePullRequest(ctx, githubv4.CreatePullRequestInput{
		RepositoryID: githubv4.ID(repo.ID),
		BaseRefName:  githubv4.String(opts.BaseRefName),
		HeadRefName:  githubv4.String(opts.HeadRefName),
		Title:        githubv4.String(opts.Title),
		Body:         githubv4.NewString(githubv4.String(opts.Body)),
		Draft:        githubv4.NewBoolean(githubv4.Boolean(opts.Draft)),
	})
}

func (c *Client) CreatePullRequest(ctx context.Context, input githubv4.CreatePullRequestInput) (*PullRequest, error) {
	var mutation struct {
		CreatePullRequest struct {
			PullRequest PullRequest
		} `graphql:"createPullRequest(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return nil, errors.Wrap(err, "failed to create pull request: github error")
	}
	return &mutation.CreatePullRequest.PullRequest, nil
}

type AddIssueLabelInput struct {
	// The owner of the GitHub repository.
	Owner string
	// The name of the GitHub repository.
	Repo string
	// The number of the issue or pull request to add a label to.
	Number int64
	// The names of the labels to add to the issue. This will implicitly create
	// a label on the repository if the label doesn't already exist (this is the
	// main reason we use the REST API for this call).
	LabelNames []string
}

// AddIssueLabels adds labels to an issue (or pull request, since in GitHub
// a pull request is a superset of an issue).
func (c *Client) AddIssueLabels(ctx context.Context, input AddIssueLabelInput) error {
	// Working with labels is still kind of a pain in the GitHub GraphQL API
	// (you have to add labels by node id, not label name, and there's no way to
	// create labels from the GraphQL API), so we just use v3/REST here.
	req := struct {
		Labels []string `json:"labels"`
	}{
		Labels: input.LabelNames,
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d", input.Owner, input.Repo, input.Number)
	if err := c.restPost(ctx, endpoint, req, nil); err != nil {
		return errors.Wrap(err, "failed to add labels")
	}
	return nil
}

type RepoPullRequestOpts struct {
	Owner  string
	Repo   string
	First  int64
	After  string
	States []githubv4.PullRequestState
}

type PageInfo struct {
	EndCursor       string
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     string
}

type RepoPullRequestsResponse struct {
	PageInfo
	TotalCount   int64
	PullRequests []PullRequest
}

func (c *Client) RepoPullRequests(ctx context.Context, opts RepoPullRequestOpts) (RepoPullRequestsResponse, error) {
	var query struct {
		Repository struct {
			PullRequests struct {
				TotalCount int64
				PageInfo   PageInfo
				Nodes      []PullRequest
			} `graphql:"pullRequests(states: $states, first: $first, after: $after)"`
		} `graphql:"repository(owner:$owner, name:$repo)"`
	}

	if opts.First == 0 {
		opts.First = 100
	}
	vars := map[string]any{
		"owner":  githubv4.String(opts.Owner),
		"repo":   githubv4.String(opts.Repo),
		"first":  githubv4.Int(opts.First),
		"after":  nullable(githubv4.String(opts.After)),
		"states": opts.States,
	}
	if opts.After != "" {
		vars["after"] = githubv4.String(opts.After)
	}
	if len(opts.States) > 0 {
		vars["states"] = opts.States
	}
	if err := c.query(ctx, &query, vars); err != nil {
		return RepoPullRequestsResponse{}, errors.Wrap(err, "failed to query pull requests")
	}
	return RepoPullRequestsResponse{
		PageInfo:     query.Repository.PullRequests.PageInfo,
		TotalCount:   query.Repository.PullRequests.TotalCount,
		PullRequests: query.Repository.PullRequests.Nodes,
	}, nil
}

// GetPullRequestsOpts filters a repository's pull requests by slug, state,
// and head/base branch, for providers.Client's forge-agnostic listing call.
type GetPullRequestsOpts struct {
	Repository  string // owner/repo slug
	State       *githubv4.PullRequestState
	HeadRefName *string
	BaseRefName *string
}

// GetPullRequests lists pull requests for a repository given by slug,
// applying HeadRefName/BaseRefName filters client-side since the GraphQL
// pullRequests connection only accepts a states filter server-side.
func (c *Client) GetPullRequests(ctx context.Context, opts GetPullRequestsOpts) ([]*PullRequest, error) {
	owner, repo, ok := strings.Cut(opts.Repository, "/")
	if !ok {
		return nil, errors.Errorf("unable to parse repository slug (expected <owner>/<repo>): %q", opts.Repository)
	}

	var states []githubv4.PullRequestState
	if opts.State != nil {
		states = []githubv4.PullRequestState{*opts.State}
	}

	var result []*PullRequest
	after := ""
	for {
		resp, err := c.RepoPullRequests(ctx, RepoPullRequestOpts{
			Owner:  owner,
			Repo:   repo,
			First:  100,
			After:  after,
			States: states,
		})
		if err != nil {
			return nil, err
		}
		for i := range resp.PullRequests {
			pr := &resp.PullRequests[i]
			if opts.HeadRefName != nil && pr.HeadBranchName() != *opts.HeadRefName {
				continue
			}
			if opts.BaseRefName != nil && pr.BaseBranchName() != *opts.BaseRefName {
				continue
			}
			result = append(result, pr)
		}
		if !resp.HasNextPage {
			break
		}
		after = resp.EndCursor
	}
	return result, nil
}

// UpdatePullRequest applies a partial update to a pull request. Fields left
// nil in the input are left unchanged by GitHub.
func (c *Client) UpdatePullRequest(ctx context.Context, input githubv4.UpdatePullRequestInput) (*PullRequest, error) {
	var mutation struct {
		UpdatePullRequest struct {
			PullRequest PullRequest
		} `graphql:"updatePullRequest(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return nil, errors.Wrap(err, "failed to update pull request")
	}
	return &mutation.UpdatePullRequest.PullRequest, nil
}

// ConvertPullRequestToDraft converts an open pull request back to draft.
func (c *Client) ConvertPullRequestToDraft(ctx context.Context, pullRequestID string) (*PullRequest, error) {
	var mutation struct {
		ConvertPullRequestToDraft struct {
			PullRequest PullRequest
		} `graphql:"convertPullRequestToDraft(input: $input)"`
	}
	input := githubv4.ConvertPullRequestToDraftInput{PullRequestID: githubv4.ID(pullRequestID)}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return nil, errors.Wrap(err, "failed to convert pull request to draft")
	}
	return &mutation.ConvertPullRequestToDraft.PullRequest, nil
}

// MarkPullRequestReadyForReview publishes a draft pull request.
func (c *Client) MarkPullRequestReadyForReview(ctx context.Context, pullRequestID string) (*PullRequest, error) {
	var mutation struct {
		MarkPullRequestReadyForReview struct {
			PullRequest PullRequest
		} `graphql:"markPullRequestReadyForReview(input: $input)"`
	}
	input := githubv4.MarkPullRequestReadyForReviewInput{PullRequestID: githubv4.ID(pullRequestID)}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return nil, errors.Wrap(err, "failed to mark pull request ready for review")
	}
	return &mutation.MarkPullRequestReadyForReview.PullRequest, nil
}

// RequestReviews requests reviews from the users and/or teams named in
// input's node IDs.
func (c *Client) RequestReviews(ctx context.Context, input githubv4.RequestReviewsInput) (*PullRequest, error) {
	var mutation struct {
		RequestReviews struct {
			PullRequest PullRequest
		} `graphql:"requestReviews(input: $input)"`
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return nil, errors.Wrap(err, "failed to request reviews")
	}
	return &mutation.RequestReviews.PullRequest, nil
}

// EnablePullRequestAutoMerge configures auto-merge on a pull request with
// the given merge method.
func (c *Client) EnablePullRequestAutoMerge(ctx context.Context, pullRequestID string, mergeMethod githubv4.PullRequestMergeMethod) error {
	var mutation struct {
		EnablePullRequestAutoMerge struct {
			PullRequest PullRequest
		} `graphql:"enablePullRequestAutoMerge(input: $input)"`
	}
	input := githubv4.EnablePullRequestAutoMergeInput{
		PullRequestID: githubv4.ID(pullRequestID),
		MergeMethod:   &mergeMethod,
	}
	if err := c.mutate(ctx, &mutation, input, nil); err != nil {
		return errors.Wrap(err, "failed to enable auto-merge")
	}
	return nil
}
