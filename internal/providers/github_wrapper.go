package providers

import (
	"context"

	"emperror.dev/errors"
	"github.com/shurcooL/githubv4"
	"github.com/stackctl/stackctl/internal/gh"
)

// GitHubClientWrapper wraps the GitHub client to implement our provider interface.
type GitHubClientWrapper struct {
	client   *gh.Client
	repoSlug string
}

func NewGitHubClientWrapper(client *gh.Client, repoSlug string) *GitHubClientWrapper {
	return &GitHubClientWrapper{client: client, repoSlug: repoSlug}
}

func (w *GitHubClientWrapper) GetRepository(ctx context.Context, slug string) (*Repository, error) {
	repo, err := w.client.GetRepositoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	return &Repository{
		ID:       repo.ID,
		Owner:    repo.Owner.Login,
		Name:     repo.Name,
		FullName: repo.Owner.Login + "/" + repo.Name,
	}, nil
}

// GetPullRequest fetches a pull request by its GitHub node ID.
func (w *GitHubClientWrapper) GetPullRequest(ctx context.Context, id string) (*PullRequest, error) {
	pr, err := w.client.PullRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return w.convertGitHubPR(pr), nil
}

func (w *GitHubClientWrapper) CreatePullRequest(ctx context.Context, opts *CreatePullRequestOpts) (*PullRequest, error) {
	pr, err := w.client.CreatePullRequestFromSlug(ctx, gh.CreatePullRequestOpts{
		Repository:  opts.Repository,
		Title:       opts.Title,
		Body:        opts.Body,
		HeadRefName: opts.HeadRefName,
		BaseRefName: opts.BaseRefName,
		Draft:       opts.IsDraft,
	})
	if err != nil {
		return nil, err
	}

	// Request reviews if specified. Don't fail the whole create if this
	// fails: the PR already exists at this point.
	if len(opts.Reviewers) > 0 {
		if _, err := w.requestReviewsByLogin(ctx, pr.ID, opts.Reviewers, nil); err != nil {
			return w.convertGitHubPR(pr), errors.Wrapf(err, "pull request #%d created but requesting reviews failed", pr.Number)
		}
	}

	return w.convertGitHubPR(pr), nil
}

func (w *GitHubClientWrapper) UpdatePullRequest(ctx context.Context, opts *UpdatePullRequestOpts) (*PullRequest, error) {
	input := githubv4.UpdatePullRequestInput{
		PullRequestID: githubv4.ID(opts.ID),
	}
	if opts.Title != nil {
		input.Title = githubv4.NewString(githubv4.String(*opts.Title))
	}
	if opts.Body != nil {
		input.Body = githubv4.NewString(githubv4.String(*opts.Body))
	}
	if opts.BaseRefName != nil {
		input.BaseRefName = githubv4.NewString(githubv4.String(*opts.BaseRefName))
	}

	pr, err := w.client.UpdatePullRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	return w.convertGitHubPR(pr), nil
}

func (w *GitHubClientWrapper) GetPullRequests(ctx context.Context, opts *GetPullRequestsOpts) ([]*PullRequest, error) {
	var state *githubv4.PullRequestState
	if opts.State != nil {
		switch *opts.State {
		case PullRequestStateOpen:
			state = gh.Ptr(githubv4.PullRequestStateOpen)
		case PullRequestStateClosed:
			state = gh.Ptr(githubv4.PullRequestStateClosed)
		case PullRequestStateMerged:
			state = gh.Ptr(githubv4.PullRequestStateMerged)
		}
	}

	prs, err := w.client.GetPullRequests(ctx, gh.GetPullRequestsOpts{
		Repository:  opts.Repository,
		State:       state,
		HeadRefName: opts.HeadRefName,
		BaseRefName: opts.BaseRefName,
	})
	if err != nil {
		return nil, err
	}

	result := make([]*PullRequest, len(prs))
	for i, pr := range prs {
		result[i] = w.convertGitHubPR(pr)
	}

	return result, nil
}

func (w *GitHubClientWrapper) ConvertToDraft(ctx context.Context, id string) (*PullRequest, error) {
	pr, err := w.client.ConvertPullRequestToDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	return w.convertGitHubPR(pr), nil
}

func (w *GitHubClientWrapper) MarkReadyForReview(ctx context.Context, id string) (*PullRequest, error) {
	pr, err := w.client.MarkPullRequestReadyForReview(ctx, id)
	if err != nil {
		return nil, err
	}

	return w.convertGitHubPR(pr), nil
}

func (w *GitHubClientWrapper) RequestReviews(ctx context.Context, id string, reviewers []string, teamReviewers []string) error {
	_, err := w.requestReviewsByLogin(ctx, id, reviewers, teamReviewers)
	return err
}

// requestReviewsByLogin resolves user/team names to GitHub node IDs before
// issuing the requestReviews mutation, matching the teacher's
// AddPullRequestReviewers helper (internal/actions/reviewers.go): GitHub
// addresses reviewers by node ID, not by login, in this mutation.
func (w *GitHubClientWrapper) requestReviewsByLogin(ctx context.Context, pullRequestID string, userLogins, teamSlugs []string) (*gh.PullRequest, error) {
	userIDs := make([]githubv4.ID, 0, len(userLogins))
	for _, login := range userLogins {
		u, err := w.client.User(ctx, login)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving reviewer %q", login)
		}
		userIDs = append(userIDs, u.ID)
	}

	input := githubv4.RequestReviewsInput{
		PullRequestID: githubv4.ID(pullRequestID),
	}
	if len(userIDs) > 0 {
		input.UserIDs = &userIDs
	}
	return w.client.RequestReviews(ctx, input)
}

func (w *GitHubClientWrapper) GetCurrentUser(ctx context.Context) (*User, error) {
	viewer, err := w.client.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:    viewer.ID,
		Login: viewer.Login,
		Name:  viewer.Name,
		Email: viewer.Email,
	}, nil
}

func (w *GitHubClientWrapper) GetUser(ctx context.Context, login string) (*User, error) {
	user, err := w.client.User(ctx, login)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:    string(user.ID),
		Login: user.Login,
	}, nil
}

func (w *GitHubClientWrapper) convertGitHubPR(pr *gh.PullRequest) *PullRequest {
	var state PullRequestState
	switch pr.State {
	case githubv4.PullRequestStateOpen:
		state = PullRequestStateOpen
	case githubv4.PullRequestStateClosed:
		state = PullRequestStateClosed
	case githubv4.PullRequestStateMerged:
		state = PullRequestStateMerged
	}

	converted := &PullRequest{
		ID:          pr.ID,
		Number:      pr.Number,
		Title:       pr.Title,
		Body:        pr.Body,
		State:       state,
		IsDraft:     pr.IsDraft,
		HeadRefName: pr.HeadBranchName(),
		BaseRefName: pr.BaseBranchName(),
		Permalink:   pr.Permalink,
		CreatedAt:   pr.CreatedAt.Time,
		UpdatedAt:   pr.UpdatedAt.Time,
	}

	if pr.MergeCommit.Oid != "" {
		converted.MergeCommit = &pr.MergeCommit.Oid
	}

	return converted
}
