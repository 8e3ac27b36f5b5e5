package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/model"
)

func newTestCache(t *testing.T) (*HistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHistoryCache(client, 60*time.Second, 5*time.Second), mr
}

func TestHistoryCacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	_, hit, err := c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, hit)

	turns := []model.ConversationTurn{
		{SessionID: "s1", UserID: 1, UserQuery: "q1", ModelAnswer: "a1"},
		{SessionID: "s1", UserID: 1, UserQuery: "q2", ModelAnswer: "a2"},
	}
	require.NoError(t, c.SetTurns(ctx, "s1", 1, turns))

	cached, hit, err := c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, cached, 2)
	assert.Equal(t, "q1", cached[0].UserQuery)
	assert.Equal(t, "a2", cached[1].ModelAnswer)
}

func TestHistoryCacheKeyedPerOwner(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	// One tenant caching its (empty) view of a session id must not replace
	// or shadow another tenant's transcript under the same session id.
	require.NoError(t, c.SetTurns(ctx, "s1", 2, nil))
	require.NoError(t, c.SetTurns(ctx, "s1", 1, []model.ConversationTurn{
		{SessionID: "s1", UserID: 1, UserQuery: "mine", ModelAnswer: "a"},
	}))

	cached, hit, err := c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, cached, 1)
	assert.Equal(t, "mine", cached[0].UserQuery)

	cached, hit, err = c.GetTurns(ctx, "s1", 2)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Empty(t, cached)

	// Invalidation is scoped to one owner too.
	require.NoError(t, c.Invalidate(ctx, "s1", 2))
	_, hit, err = c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, hit)

	dirty, err := c.IsDirty(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, dirty)
	dirty, err = c.IsDirty(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestHistoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.SetTurns(ctx, "s1", 1, []model.ConversationTurn{{UserQuery: "q"}}))
	require.NoError(t, c.Invalidate(ctx, "s1", 1))

	_, hit, err := c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, hit, "invalidation must drop the cached transcript")

	dirty, err := c.IsDirty(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, dirty)

	// Another session is unaffected.
	dirty, err = c.IsDirty(ctx, "s2", 1)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestHistoryCacheDirtyMarkerExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Invalidate(ctx, "s1", 1))
	mr.FastForward(6 * time.Second)

	dirty, err := c.IsDirty(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, dirty, "the dirty marker is short-lived")
}

func TestHistoryCacheEntryExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetTurns(ctx, "s1", 1, []model.ConversationTurn{{UserQuery: "q"}}))
	mr.FastForward(61 * time.Second)

	_, hit, err := c.GetTurns(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, hit)
}
