package gitrepo_test

import (
	"context"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	cur, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", cur)

	exists, err := repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateBranchAtHead(ctx, "feature-1"))
	exists, err = repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.True(t, exists)

	branches, err := repo.ListBranches(ctx)
	require.NoError(t, err)
	assert.Contains(t, branches, "feature-1")
	assert.Contains(t, branches, "main")

	require.NoError(t, repo.DeleteBranch(ctx, "feature-1"))
	exists, err = repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRefAndBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	oid, err := repo.CreateBlob(ctx, []byte("trunk-branch-name"))
	require.NoError(t, err)

	objType, err := repo.ObjectType(ctx, oid)
	require.NoError(t, err)
	assert.Equal(t, "blob", objType)

	content, err := repo.ReadBlob(ctx, oid)
	require.NoError(t, err)
	assert.Equal(t, "trunk-branch-name", string(content))

	ref := "refs/stackctl/parent/feature-1"
	require.NoError(t, repo.UpdateRef(ctx, ref, oid))

	resolved, ok, err := repo.FindRef(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, oid, resolved)

	entries, err := repo.ListRefsGlob(ctx, "refs/stackctl/parent/*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ref, entries[0].Name)

	require.NoError(t, repo.DeleteRef(ctx, ref))
	_, ok, err = repo.FindRef(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusAndConflicts(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	dirty, err := repo.AnyUncommitted(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)

	repo.CreateBranch("feature-a")
	repo.CommitFile("shared.txt", "from feature-a\n")
	repo.Checkout("main")
	repo.CreateBranch("feature-b")
	repo.CommitFile("shared.txt", "from feature-b\n")

	base := repo.RevParse("main")
	result, err := repo.Rebase(ctx, "feature-b", base)
	require.NoError(t, err)
	_ = result

	result, err = repo.RebaseOntoFrom(ctx, "feature-b", "feature-a", base)
	require.NoError(t, err)
	if result.Status == gitrepo.RebaseConflict {
		assert.NotEmpty(t, result.ConflictedFiles)
		for _, f := range result.ConflictedFiles {
			assert.Equal(t, "shared.txt", f.Path)
		}
		require.NoError(t, repo.RebaseAbort(ctx))
	}
}

func TestSyncStatusNoRemote(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	repo.CreateBranch("local-only")
	repo.CommitFile("local.txt", "hi\n")

	status, err := repo.CheckRemoteSync(ctx, "local-only")
	require.NoError(t, err)
	assert.Equal(t, gitrepo.SyncNoRemote, status.Kind)
}

func TestMergeBaseAndAncestor(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	repo.CreateBranch("feature-1")
	repo.CommitFile("f1.txt", "content\n")

	mainRev := repo.RevParse("main")
	featureRev := repo.RevParse("feature-1")

	base, err := repo.MergeBase(ctx, "main", "feature-1")
	require.NoError(t, err)
	assert.Equal(t, mainRev, base)

	isAncestor, err := repo.IsAncestor(ctx, mainRev, featureRev)
	require.NoError(t, err)
	assert.True(t, isAncestor)

	isMerged, err := repo.IsBranchMerged(ctx, "main", "feature-1")
	require.NoError(t, err)
	assert.True(t, isMerged)
}
