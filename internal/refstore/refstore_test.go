package refstore_test

import (
	"context"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)

	_, ok, err := store.GetTrunk(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetTrunk(ctx, "main"))
	trunk, ok, err := store.GetTrunk(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", trunk)
}

func TestParentageAndChildren(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-a")
	repo.CommitFile("a.txt", "a\n")
	repo.Checkout("main")
	repo.CreateBranch("feature-b")
	repo.CommitFile("b.txt", "b\n")

	require.NoError(t, store.SetParent(ctx, "feature-a", "main"))
	require.NoError(t, store.SetParent(ctx, "feature-b", "main"))

	tracked, err := store.IsTracked(ctx, "feature-a")
	require.NoError(t, err)
	assert.True(t, tracked)

	children, err := store.GetChildren(ctx, "main")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"feature-a", "feature-b"}, children)

	all, err := store.ListTrackedBranches(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"feature-a", "feature-b"}, all)

	// a child's parent must already be tracked or be the trunk.
	err = store.SetParent(ctx, "feature-c", "feature-does-not-exist")
	assert.ErrorIs(t, err, refstore.ErrInvalidParent)
}

func TestAncestorsDetectsCycle(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	for _, name := range []string{"a", "b"} {
		repo.CreateBranch(name)
		repo.CommitFile(name+".txt", name+"\n")
		repo.Checkout("main")
	}
	require.NoError(t, store.SetParent(ctx, "a", "main"))
	require.NoError(t, store.SetParent(ctx, "b", "a"))

	chain, err := store.Ancestors(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chain)

	// Force a cycle: SetParent only checks that the new parent is tracked,
	// so it accepts a parent that closes a loop.
	require.NoError(t, store.SetParent(ctx, "a", "b"))
	_, err = store.Ancestors(ctx, "b")
	assert.ErrorIs(t, err, refstore.ErrCycle)
}

func TestFreezeUnfreeze(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)

	repo.CreateBranch("feature-a")
	repo.CommitFile("a.txt", "a\n")

	frozen, err := store.IsFrozen(ctx, "feature-a")
	require.NoError(t, err)
	assert.False(t, frozen)

	require.NoError(t, store.Freeze(ctx, "feature-a"))
	frozen, err = store.IsFrozen(ctx, "feature-a")
	require.NoError(t, err)
	assert.True(t, frozen)

	require.NoError(t, store.Unfreeze(ctx, "feature-a"))
	frozen, err = store.IsFrozen(ctx, "feature-a")
	require.NoError(t, err)
	assert.False(t, frozen)
}

func TestCollectBranchesDFSAlphabeticalOrder(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	for _, name := range []string{"zeta", "alpha"} {
		repo.Checkout("main")
		repo.CreateBranch(name)
		repo.CommitFile(name+".txt", name+"\n")
		require.NoError(t, store.SetParent(ctx, name, "main"))
	}

	order, err := store.CollectBranchesDFS(ctx, []string{"main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "alpha", "zeta"}, order)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-a")
	repo.CommitFile("a.txt", "a\n")
	require.NoError(t, store.SetParent(ctx, "feature-a", "main"))
	require.NoError(t, store.Freeze(ctx, "feature-a"))

	require.NoError(t, store.ClearAll(ctx))

	_, ok, err := store.GetTrunk(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	tracked, err := store.ListTrackedBranches(ctx)
	require.NoError(t, err)
	assert.Empty(t, tracked)

	frozen, err := store.IsFrozen(ctx, "feature-a")
	require.NoError(t, err)
	assert.False(t, frozen)
}
