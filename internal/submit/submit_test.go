package submit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackctl/stackctl/internal/forge"
	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/refstore"
)

// fakeForge is an in-memory forge.Forge used to exercise SubmissionPipeline
// without a network dependency, grounded on the same interface the real
// internal/forge/github adapter implements.
type fakeForge struct {
	mu  sync.Mutex
	prs map[string]*forge.ChangeRequest
	nextNumber int64
}

func newFakeForge() *fakeForge {
	return &fakeForge{prs: make(map[string]*forge.ChangeRequest)}
}

func (f *fakeForge) CheckExist(ctx context.Context, headRefs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]bool, len(headRefs))
	for _, h := range headRefs {
		_, ok := f.prs[h]
		result[h] = ok
	}
	return result, nil
}

func (f *fakeForge) GetByHeadRef(ctx context.Context, headRef string) (*forge.ChangeRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.prs[headRef]
	return cr, ok, nil
}

func (f *fakeForge) GetBody(ctx context.Context, number int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.prs {
		if cr.Number == number {
			return cr.Body, nil
		}
	}
	return "", nil
}

func (f *fakeForge) Create(ctx context.Context, input forge.CreateInput) (*forge.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextNumber++
	cr := &forge.ChangeRequest{
		ID:      input.HeadRef,
		Number:  f.nextNumber,
		URL:     "https://example.com/pr/" + input.HeadRef,
		Title:   input.Title,
		State:   forge.StateOpen,
		Draft:   input.Draft,
		HeadRef: input.HeadRef,
		BaseRef: input.BaseRef,
	}
	f.prs[input.HeadRef] = cr
	return cr, nil
}

func (f *fakeForge) UpdateBase(ctx context.Context, number int64, newBaseRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.prs {
		if cr.Number == number {
			cr.BaseRef = newBaseRef
		}
	}
	return nil
}

func (f *fakeForge) UpdateBody(ctx context.Context, number int64, newBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.prs {
		if cr.Number == number {
			cr.Body = newBody
		}
	}
	return nil
}

func (f *fakeForge) Publish(ctx context.Context, number int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.prs {
		if cr.Number == number {
			cr.Draft = false
		}
	}
	return nil
}

func (f *fakeForge) EnableAutoMerge(ctx context.Context, number int64, method forge.MergeMethod) error {
	return nil
}

var _ forge.Forge = (*fakeForge)(nil)

func setupTrackedStack(t *testing.T, repo *gitrepotest.TestRepo) *refstore.Store {
	t.Helper()
	ctx := context.Background()
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-a")
	repo.Checkout("feature-a")
	repo.CommitFile("a.txt", "a")
	repo.Push("feature-a")
	require.NoError(t, store.SetParent(ctx, "feature-a", "main"))

	repo.CreateBranch("feature-b")
	repo.Checkout("feature-b")
	repo.CommitFile("b.txt", "b")
	repo.Push("feature-b")
	require.NoError(t, store.SetParent(ctx, "feature-b", "feature-a"))

	return store
}

func TestSubmitSingleBranchCreatesPR(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	setupTrackedStack(t, repo)

	f := newFakeForge()
	p := New(repo, f)

	res, err := p.Run(ctx, "feature-a", Options{})
	require.NoError(t, err)
	require.Len(t, res.Branches, 1)
	require.True(t, res.Branches[0].Created)
	require.Equal(t, "feature-a", res.Branches[0].Branch)
}

func TestSubmitStackCreatesParentFirst(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	setupTrackedStack(t, repo)

	f := newFakeForge()
	p := New(repo, f)

	res, err := p.Run(ctx, "feature-b", Options{Stack: true})
	require.NoError(t, err)
	require.Len(t, res.Branches, 2)
	require.Equal(t, "feature-a", res.Branches[0].Branch)
	require.Equal(t, "feature-b", res.Branches[1].Branch)

	crA, ok, err := f.GetByHeadRef(ctx, "feature-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "main", crA.BaseRef)

	crB, ok, err := f.GetByHeadRef(ctx, "feature-b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "feature-a", crB.BaseRef)
}

func TestSubmitUpdateOnlySkipsCreate(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	setupTrackedStack(t, repo)

	f := newFakeForge()
	p := New(repo, f)

	res, err := p.Run(ctx, "feature-a", Options{UpdateOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Branches, 1)
	require.False(t, res.Branches[0].Created)

	_, ok, err := f.GetByHeadRef(ctx, "feature-a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubmitRefreshesDescriptions(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	setupTrackedStack(t, repo)

	f := newFakeForge()
	p := New(repo, f)

	res, err := p.Run(ctx, "feature-b", Options{Stack: true})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"feature-a", "feature-b"}, res.DescriptionsUpdated)
	require.Empty(t, res.DescriptionFailures)

	crA, _, err := f.GetByHeadRef(ctx, "feature-a")
	require.NoError(t, err)
	require.Contains(t, crA.Body, "dm:stack")
}
