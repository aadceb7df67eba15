package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()

	select {
	case b, ok := <-ch:
		require.True(t, ok, "channel closed")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertClosed(t *testing.T, ch <-chan []byte) {
	t.Helper()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChannel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chats:42", Channel(42))
}

// broadcasterContract runs the same checks against every implementation.
func broadcasterContract(t *testing.T, b Broadcaster) {
	ctx := context.Background()

	one, cancelOne, err := b.Subscribe(ctx, 1)
	require.NoError(t, err)
	two, cancelTwo, err := b.Subscribe(ctx, 1)
	require.NoError(t, err)
	other, cancelOther, err := b.Subscribe(ctx, 2)
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, b.Publish(ctx, 1, []byte("hello")))
	assert.Equal(t, "hello", string(receive(t, one)))
	assert.Equal(t, "hello", string(receive(t, two)))

	cancelOne()
	cancelOne()
	assertClosed(t, one)

	require.NoError(t, b.Publish(ctx, 1, []byte("again")))
	assert.Equal(t, "again", string(receive(t, two)))
	cancelTwo()

	require.NoError(t, b.Publish(ctx, 2, []byte("elsewhere")))
	assert.Equal(t, "elsewhere", string(receive(t, other)))

	subCtx, stop := context.WithCancel(ctx)
	ch, _, err := b.Subscribe(subCtx, 3)
	require.NoError(t, err)
	stop()
	assertClosed(t, ch)
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	broadcasterContract(t, NewMemoryBroadcaster())
}

func TestMemoryBroadcaster_DropsWhenFull(t *testing.T) {
	t.Parallel()

	b := NewMemoryBroadcaster()
	ch, cancel, err := b.Subscribe(context.Background(), 1)
	require.NoError(t, err)
	defer cancel()

	for range subscriberBuffer + 5 {
		require.NoError(t, b.Publish(context.Background(), 1, []byte("x")))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestRedisBroadcaster(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	broadcasterContract(t, NewRedisBroadcaster(rdb))
}

func TestRedisBroadcaster_Unreachable(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	_, _, err := NewRedisBroadcaster(rdb).Subscribe(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, NewRedisBroadcaster(rdb).Publish(context.Background(), 1, []byte("x")))
}
