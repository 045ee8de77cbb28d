package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackctl/stackctl/internal/gitrepo/gitrepotest"
)

func TestCacheSetAndGet(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	c := Open(repo)

	_, ok, err := c.Get(ctx, "feature")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetPRURL(ctx, "feature", "https://example.com/pr/1"))
	require.NoError(t, c.SetBaseSHA(ctx, "feature", "abc123"))

	e, ok, err := c.Get(ctx, "feature")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://example.com/pr/1", e.PRURL)
	require.Equal(t, "abc123", e.BaseSHA)
}

func TestCachePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)

	require.NoError(t, Open(repo).SetPRURL(ctx, "feature", "https://example.com/pr/2"))

	e, ok, err := Open(repo).Get(ctx, "feature")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://example.com/pr/2", e.PRURL)
}

func TestCacheForget(t *testing.T) {
	ctx := context.Background()
	repo := gitrepotest.New(t)
	c := Open(repo)

	require.NoError(t, c.SetPRURL(ctx, "feature", "https://example.com/pr/3"))
	require.NoError(t, c.Forget(ctx, "feature"))

	_, ok, err := c.Get(ctx, "feature")
	require.NoError(t, err)
	require.False(t, ok)
}
