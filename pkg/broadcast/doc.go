// Package broadcast provides typed in-process fan-out.
//
// MemoryBroadcaster delivers each message to every subscriber without ever
// blocking the sender. What happens to a subscriber whose buffer is full is
// chosen with WithSlowConsumerPolicy: DropSubscriber (default) unsubscribes
// it, DropMessage only skips the message. The notification store uses
// DropMessage for its change feed; the development backend uses the default
// for per-recipient live streams.
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//	msg := <-sub.Receive(ctx)
//
// Subscribers are removed when their context is cancelled or when the
// broadcaster is closed.
package broadcast
