package restack_test

import (
	"context"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/restack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLinearStack(t *testing.T) (*gitrepotest.TestRepo, *refstore.Store) {
	t.Helper()
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("a")
	repo.CommitFile("a.txt", "a1\n")
	repo.CreateBranch("b")
	repo.CommitFile("b.txt", "b1\n")
	repo.CreateBranch("c")
	repo.CommitFile("c.txt", "c1\n")

	require.NoError(t, store.SetParent(ctx, "a", "main"))
	require.NoError(t, store.SetParent(ctx, "b", "a"))
	require.NoError(t, store.SetParent(ctx, "c", "b"))

	return repo, store
}

func TestRunLinearStackAmendAndRestack(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupLinearStack(t)
	engine := restack.New(repo)

	repo.Checkout("a")
	repo.CommitFile("a2.txt", "a2\n")
	repo.Checkout("c")

	outcome, err := engine.Run(ctx, opstate.KindRestack, []string{"main"}, nil, "c")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	assert.Equal(t, []string{"a", "b", "c"}, outcome.Completed)

	for _, pair := range [][2]string{{"b", "a"}, {"c", "b"}} {
		child, parent := pair[0], pair[1]
		parentTip := repo.RevParse(parent)
		isAncestor, err := repo.IsAncestor(ctx, parentTip, repo.RevParse(child))
		require.NoError(t, err)
		assert.True(t, isAncestor, "%s should be based on %s", child, parent)
	}
}

func TestRunSuspendsOnConflictAndContinues(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupLinearStack(t)
	engine := restack.New(repo)

	// Make `a` and `b` conflict on the same file.
	repo.Checkout("a")
	repo.CommitFile("shared.txt", "from-a\n")
	repo.Checkout("b")
	repo.CommitFile("shared.txt", "from-b\n")
	repo.Checkout("c")

	outcome, err := engine.Run(ctx, opstate.KindRestack, []string{"main"}, nil, "c")
	require.NoError(t, err)
	require.NotNil(t, outcome.Conflict)
	assert.Equal(t, "b", outcome.Conflict.Branch)
	require.NotEmpty(t, outcome.Conflict.ConflictedFiles)
	assert.Equal(t, "shared.txt", outcome.Conflict.ConflictedFiles[0].Path)

	exists, err := opstate.New(repo).Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	// Resolve with new content and stage it.
	repo.WriteAndStage(t, "shared.txt", "resolved\n")

	resumed, err := engine.Continue(ctx)
	require.NoError(t, err)
	require.Nil(t, resumed.Conflict)
	assert.Contains(t, resumed.Completed, "b")
	assert.Contains(t, resumed.Completed, "c")

	exists, err = opstate.New(repo).Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAbortRestoresFromBackup(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupLinearStack(t)
	engine := restack.New(repo)

	repo.Checkout("a")
	repo.CommitFile("shared.txt", "from-a\n")
	repo.Checkout("b")
	repo.CommitFile("shared.txt", "from-b\n")
	originalBTip := repo.RevParse("b")
	repo.Checkout("c")

	outcome, err := engine.Run(ctx, opstate.KindRestack, []string{"main"}, nil, "c")
	require.NoError(t, err)
	require.NotNil(t, outcome.Conflict)

	require.NoError(t, engine.Abort(ctx))

	exists, err := opstate.New(repo).Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, originalBTip, repo.RevParse("b"))

	inProgress, err := repo.RebaseInProgress(ctx)
	require.NoError(t, err)
	assert.False(t, inProgress)
}

func TestFrozenBranchIsSkipped(t *testing.T) {
	ctx := context.Background()
	repo, store := setupLinearStack(t)
	engine := restack.New(repo)

	require.NoError(t, store.Freeze(ctx, "b"))

	bTipBefore := repo.RevParse("b")

	repo.Checkout("a")
	repo.CommitFile("a2.txt", "a2\n")
	repo.Checkout("c")

	outcome, err := engine.Run(ctx, opstate.KindRestack, []string{"main"}, nil, "c")
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	assert.NotContains(t, outcome.Completed, "b")
	assert.Equal(t, bTipBefore, repo.RevParse("b"))
}
