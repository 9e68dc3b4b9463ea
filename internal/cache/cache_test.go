package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient_SetGetDelete(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	mr.FastForward(2 * time.Minute)
	got, _ = c.Get(ctx, "k")
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestClient_JSONRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	type venue struct {
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}
	require.NoError(t, c.SetJSON(ctx, "venues", []venue{{Name: "Room A", Capacity: 40}}, time.Minute))

	var out []venue
	require.True(t, c.GetJSON(ctx, "venues", &out))
	assert.Equal(t, "Room A", out[0].Name)

	assert.False(t, c.GetJSON(ctx, "missing", &out))
}

func TestClient_FailsSafeWhenRedisDown(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	mr.Close()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Error(t, c.Ping(ctx))
}

func TestClient_NilIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()
	assert.NoError(t, c.Set(ctx, "k", nil, 0))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, c.Redis())
}
