package broadcast

import (
	"context"
	"sync"
)

// SlowConsumerPolicy decides what happens when a subscriber's buffer is full.
type SlowConsumerPolicy int

const (
	// DropSubscriber unsubscribes a subscriber that cannot keep up.
	DropSubscriber SlowConsumerPolicy = iota
	// DropMessage skips the message for that subscriber but keeps it subscribed.
	// Suitable for "something changed" signals where only the latest state matters.
	DropMessage
)

// MemoryOption configures a MemoryBroadcaster.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	policy SlowConsumerPolicy
}

// WithSlowConsumerPolicy overrides the default DropSubscriber policy.
func WithSlowConsumerPolicy(p SlowConsumerPolicy) MemoryOption {
	return func(c *memoryConfig) { c.policy = p }
}

// MemoryBroadcaster is an in-process Broadcaster. All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	policy      SlowConsumerPolicy
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages (minimum 1).
func NewMemoryBroadcaster[T any](bufferSize int, opts ...MemoryOption) *MemoryBroadcaster[T] {
	cfg := memoryConfig{policy: DropSubscriber}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		policy:      cfg.policy,
	}
}

// Subscribe registers a subscriber that is removed when ctx is cancelled.
// A closed broadcaster hands out already-closed subscribers.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Broadcast delivers msg to every subscriber without blocking.
// It always returns nil; undelivered messages are handled per the slow consumer policy.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for sub := range b.subscribers {
		alive, queued := sub.send(msg)
		if !alive || (!queued && b.policy == DropSubscriber) {
			go b.unsubscribe(sub)
		}
	}

	return nil
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers. Safe to call repeatedly.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
