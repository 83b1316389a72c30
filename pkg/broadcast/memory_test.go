package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		require.Equal(t, 1, b.Len())

		cancel()
		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)

		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Run("delivers to every subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		subs := []Subscriber[int]{b.Subscribe(ctx), b.Subscribe(ctx), b.Subscribe(ctx)}

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 7}))

		for _, sub := range subs {
			select {
			case msg := <-sub.Receive(ctx):
				assert.Equal(t, 7, msg.Data)
			case <-time.After(100 * time.Millisecond):
				t.Fatal("message not delivered")
			}
		}
	})

	t.Run("slow subscriber is dropped by default", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 2}))

		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("drop message policy keeps slow subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1, WithSlowConsumerPolicy(DropMessage))
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 2}))
		time.Sleep(20 * time.Millisecond)

		assert.Equal(t, 1, b.Len())
		assert.Equal(t, 1, (<-sub.Receive(ctx)).Data)

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 3}))
		assert.Equal(t, 3, (<-sub.Receive(ctx)).Data)
	})

	t.Run("broadcast after close is a no-op", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		assert.NoError(t, b.Broadcast(context.Background(), Message[int]{Data: 1}))
	})
}

func TestMemoryBroadcaster_Concurrent(t *testing.T) {
	b := NewMemoryBroadcaster[int](1000, WithSlowConsumerPolicy(DropMessage))
	defer b.Close()

	ctx := context.Background()
	sub := b.Subscribe(ctx)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 50 {
				_ = b.Broadcast(ctx, Message[int]{Data: n*100 + j})
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, sub.Receive(ctx), 500)
}

func TestMemoryBroadcaster_CloseIsIdempotent(t *testing.T) {
	b := NewMemoryBroadcaster[string](1)
	sub := b.Subscribe(context.Background())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Receive(context.Background())
	assert.False(t, ok)
}
