package reshape_test

import (
	"context"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/reshape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDiamond(t *testing.T) (*gitrepotest.TestRepo, *refstore.Store) {
	t.Helper()
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("a")
	repo.CommitFile("a.txt", "a1\n")
	repo.Checkout("main")
	repo.CreateBranch("b")
	repo.CommitFile("b.txt", "b1\n")
	repo.Checkout("a")
	repo.CreateBranch("c")
	repo.CommitFile("c.txt", "c1\n")

	require.NoError(t, store.SetParent(ctx, "a", "main"))
	require.NoError(t, store.SetParent(ctx, "b", "main"))
	require.NoError(t, store.SetParent(ctx, "c", "a"))

	return repo, store
}

func TestMoveRebasesOntoNewParent(t *testing.T) {
	ctx := context.Background()
	repo, store := setupDiamond(t)
	engine := reshape.New(repo)

	repo.Checkout("c")
	outcome, err := engine.Move(ctx, "c", "b", "c")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)

	parent, ok, err := store.GetParent(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", parent)

	isAncestor, err := repo.IsAncestor(ctx, repo.RevParse("b"), repo.RevParse("c"))
	require.NoError(t, err)
	assert.True(t, isAncestor)
}

func TestMoveRejectsCycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupDiamond(t)
	engine := reshape.New(repo)

	// a is an ancestor of c; moving a onto c would create a cycle.
	_, err := engine.Move(ctx, "a", "c", "a")
	assert.ErrorIs(t, err, reshape.ErrWouldCreateCycle)
}

func TestMoveRejectsSelfMove(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupDiamond(t)
	engine := reshape.New(repo)

	_, err := engine.Move(ctx, "a", "a", "a")
	assert.ErrorIs(t, err, reshape.ErrSelfMove)
}

func TestInsertAttachesBetweenParentAndChild(t *testing.T) {
	ctx := context.Background()
	repo, store := setupDiamond(t)
	engine := reshape.New(repo)

	repo.Checkout("main")
	repo.CreateBranch("n")
	repo.CommitFile("n.txt", "n1\n")
	require.NoError(t, store.SetParent(ctx, "n", "main"))

	outcome, err := engine.Insert(ctx, "n", "main", "b", "n")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)

	parentN, ok, err := store.GetParent(ctx, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", parentN)

	parentB, ok, err := store.GetParent(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "n", parentB)

	isAncestor, err := repo.IsAncestor(ctx, repo.RevParse("n"), repo.RevParse("b"))
	require.NoError(t, err)
	assert.True(t, isAncestor)
}

func TestInsertRejectsWrongParent(t *testing.T) {
	ctx := context.Background()
	repo, store := setupDiamond(t)
	engine := reshape.New(repo)

	repo.Checkout("main")
	repo.CreateBranch("n")
	repo.CommitFile("n.txt", "n1\n")
	require.NoError(t, store.SetParent(ctx, "n", "main"))

	_, err := engine.Insert(ctx, "n", "main", "c", "n")
	assert.ErrorIs(t, err, reshape.ErrWrongParent)
}
