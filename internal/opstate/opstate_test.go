package opstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSaveLoadClear(t *testing.T) {
	repo := gitrepotest.New(t)
	store := opstate.New(repo)

	exists, err := store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	state := &opstate.State{
		Kind:              opstate.KindRestack,
		OriginalBranch:    "feature-top",
		CurrentBranch:     "feature-mid",
		AllBranches:       []string{"feature-top", "feature-mid", "feature-bottom"},
		RemainingBranches: []string{"feature-mid"},
	}
	require.NoError(t, store.Save(state))

	loaded, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.Kind, loaded.Kind)
	assert.Equal(t, state.CurrentBranch, loaded.CurrentBranch)

	err = store.Save(state)
	assert.ErrorIs(t, err, opstate.ErrInProgress)

	require.NoError(t, store.Clear())
	exists, err = store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLogAppendAndLastUndoable(t *testing.T) {
	repo := gitrepotest.New(t)
	log := opstate.NewLog(repo)

	entry, idx, err := log.GetLastUndoableOperation()
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, -1, idx)

	now := time.Now()
	require.NoError(t, log.Append(opstate.KindSync, []string{"a", "b"}, now))
	require.NoError(t, log.Append(opstate.KindMove, []string{"c"}, now.Add(time.Second)))

	entry, idx, err = log.GetLastUndoableOperation()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, opstate.KindSync, entry.Kind)
	assert.Equal(t, 0, idx)

	require.NoError(t, log.MarkUndone(idx))
	entry, _, err = log.GetLastUndoableOperation()
	require.NoError(t, err)
	assert.Nil(t, entry)
}
