package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_LocalWhenNoRedis(t *testing.T) {
	c, ps, err := Open(CacheConfig{LocalPubSubBuf: 8})
	require.NoError(t, err)
	require.NotNil(t, ps)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Get(ctx, "session:none")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "session:abc", "42", time.Minute))
	v, err := c.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	require.NoError(t, c.PushCapped(ctx, "crafter:1:recent", 2, "a"))
	require.NoError(t, c.PushCapped(ctx, "crafter:1:recent", 2, "b"))
	require.NoError(t, c.PushCapped(ctx, "crafter:1:recent", 2, "c"))
	ids, err := c.Range(ctx, "crafter:1:recent", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	_, _, err := Open(CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestPubSub_LocalRoundTrip(t *testing.T) {
	_, ps, err := Open(CacheConfig{LocalPubSubBuf: 8})
	require.NoError(t, err)

	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "craft", "announce")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "craft", `{"kind":"armor"}`))
	require.NoError(t, ps.Publish(ctx, "announce", `{"message":"hi"}`))
	for _, want := range []string{"craft", "announce"} {
		select {
		case msg := <-ch:
			assert.Equal(t, want, msg.Channel)
		case <-time.After(time.Second):
			t.Fatalf("no %s message received", want)
		}
	}
}

func TestPubSub_RelayClosesOnCancel(t *testing.T) {
	_, ps, err := Open(CacheConfig{})
	require.NoError(t, err)

	ch, cancel, err := ps.Subscribe(context.Background(), "craft")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("relay not closed after cancel")
	}
}
