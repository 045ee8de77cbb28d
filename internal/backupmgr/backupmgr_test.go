package backupmgr_test

import (
	"context"
	"testing"
	"time"

	"github.com/stackctl/stackctl/internal/backupmgr"
	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRefsAreUnique(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	mgr := backupmgr.New(repo)

	repo.CreateBranch("feature-1")
	repo.CommitFile("f.txt", "content\n")

	b1, err := mgr.Create(ctx, "feature-1")
	require.NoError(t, err)
	b2, err := mgr.Create(ctx, "feature-1")
	require.NoError(t, err)

	assert.NotEqual(t, b1.RefName, b2.RefName)

	refs, err := mgr.List(ctx)
	require.NoError(t, err)
	count := 0
	for _, r := range refs {
		if r.Branch == "feature-1" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestRestoreRecreatesDeletedBranch(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	mgr := backupmgr.New(repo)

	repo.CreateBranch("feature-1")
	sha := repo.CommitFile("f.txt", "content\n")
	_ = sha

	backup, err := mgr.Create(ctx, "feature-1")
	require.NoError(t, err)

	repo.Checkout("main")
	require.NoError(t, repo.DeleteBranch(ctx, "feature-1"))

	exists, err := repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mgr.Restore(ctx, *backup))

	exists, err = repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCleanupByCountKeepsNewest(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	mgr := backupmgr.New(repo)

	repo.CreateBranch("feature-1")
	repo.CommitFile("f.txt", "content\n")

	for i := 0; i < 3; i++ {
		_, err := mgr.Create(ctx, "feature-1")
		require.NoError(t, err)
	}

	deleted, err := mgr.CleanupByCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	refs, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestGCSkippedDuringOperation(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	mgr := backupmgr.New(repo)
	stateStore := opstate.New(repo)

	repo.CreateBranch("feature-1")
	repo.CommitFile("f.txt", "content\n")
	_, err := mgr.Create(ctx, "feature-1")
	require.NoError(t, err)

	require.NoError(t, stateStore.Save(&opstate.State{
		Kind:           opstate.KindRestack,
		OriginalBranch: "feature-1",
		CurrentBranch:  "feature-1",
	}))

	byAge, byCount, err := mgr.GC(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, byAge)
	assert.Equal(t, 0, byCount)

	refs, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestParseLegacySuffixViaList(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	mgr := backupmgr.New(repo)

	repo.CreateBranch("feature-1")
	sha := repo.CommitFile("f.txt", "content\n")

	require.NoError(t, repo.UpdateRef(ctx, "refs/stackctl/backup/feature-1-1700000000", sha))

	refs, err := mgr.List(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "feature-1", refs[0].Branch)
	assert.Equal(t, time.Unix(1700000000, 0), refs[0].Timestamp)
}
