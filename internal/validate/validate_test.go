package validate_test

import (
	"context"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFindsMissingTrunk(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	v := validate.New(repo)

	issues, err := v.Run(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, validate.IssueMissingTrunk, issues[0].Kind)
}

func TestRunFindsOrphanAndMissingBranch(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	v := validate.New(repo)

	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-a")
	repo.CommitFile("a.txt", "a\n")
	repo.Checkout("main")

	require.NoError(t, store.SetParent(ctx, "feature-a", "main"))
	// Force an orphan by writing a parent ref directly at the gitrepo layer
	// (bypassing SetParent's own validation).
	blobOID, err := repo.CreateBlob(ctx, []byte("ghost-branch"))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRef(ctx, "refs/stackctl/parent/feature-orphan", blobOID))

	issues, err := v.Run(ctx)
	require.NoError(t, err)

	var kinds []validate.IssueKind
	for _, iss := range issues {
		kinds = append(kinds, iss.Kind)
	}
	assert.Contains(t, kinds, validate.IssueOrphanedBranch)
	assert.Contains(t, kinds, validate.IssueTrackedBranchMissing)
}

func TestFullRepairPrunesAndReparents(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	store := refstore.New(repo)
	v := validate.New(repo)

	require.NoError(t, store.SetTrunk(ctx, "main"))

	repo.CreateBranch("feature-mid")
	repo.CommitFile("mid.txt", "mid\n")
	repo.Checkout("main")
	repo.CreateBranch("feature-leaf")
	repo.CommitFile("leaf.txt", "leaf\n")
	repo.Checkout("main")

	require.NoError(t, store.SetParent(ctx, "feature-mid", "main"))
	require.NoError(t, store.SetParent(ctx, "feature-leaf", "feature-mid"))

	// Delete feature-mid's git branch without cleaning up metadata, leaving
	// feature-leaf parented to a tracked-but-gone branch.
	require.NoError(t, repo.DeleteBranch(ctx, "feature-mid"))

	report, err := v.FullRepair(ctx)
	require.NoError(t, err)
	assert.Contains(t, report.PrunedStaleParentRefs, "feature-mid")
	assert.Contains(t, report.ReparentedToTrunk, "feature-leaf")

	parent, ok, err := store.GetParent(ctx, "feature-leaf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", parent)
}
