package syncengine_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/syncengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

func TestSyncFastForwardsTrunkAndRestacks(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature")
	repo.CommitFile("f.txt", "f1\n")
	require.NoError(t, store.SetParent(ctx, "feature", "main"))
	repo.Checkout("main")

	// Simulate a remote-side advance of trunk via a second clone of the
	// same bare remote.
	otherClone := filepath.Join(t.TempDir(), "other")
	runGitIn(t, t.TempDir(), "clone", repo.RemoteDir, otherClone)
	runGitIn(t, otherClone, "config", "user.name", "other")
	runGitIn(t, otherClone, "config", "user.email", "other@nonexistent")
	require.NoError(t, os.WriteFile(filepath.Join(otherClone, "trunk-change.txt"), []byte("from-remote\n"), 0o644))
	runGitIn(t, otherClone, "add", "trunk-change.txt")
	runGitIn(t, otherClone, "commit", "-m", "advance trunk")
	runGitIn(t, otherClone, "push", "origin", "main")

	engine := syncengine.New(repo)
	result, err := engine.Run(ctx, syncengine.Options{})
	require.NoError(t, err)
	assert.True(t, result.TrunkFastForwarded)
	require.NotNil(t, result.Restack)
	require.Nil(t, result.Restack.Conflict)
}

func TestSyncPrunesMergedBranch(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-1")
	repo.CommitFile("f1.txt", "f1\n")
	require.NoError(t, store.SetParent(ctx, "feature-1", "main"))

	repo.CreateBranch("feature-2")
	repo.CommitFile("f2.txt", "f2\n")
	require.NoError(t, store.SetParent(ctx, "feature-2", "feature-1"))

	repo.Checkout("main")
	// Simulate feature-1 already landed on trunk (e.g. squash-merged
	// upstream): fast-forward main to feature-1's tip directly.
	mergeCommit := repo.RevParse("feature-1")
	require.NoError(t, repo.UpdateRef(ctx, "refs/heads/main", mergeCommit))

	engine := syncengine.New(repo)
	result, err := engine.Run(ctx, syncengine.Options{DeleteMerged: true})
	require.NoError(t, err)
	assert.Contains(t, result.MergedDeleted, "feature-1")

	exists, err := repo.BranchExists(ctx, "feature-1")
	require.NoError(t, err)
	assert.False(t, exists)

	parent, ok, err := store.GetParent(ctx, "feature-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", parent)
}
