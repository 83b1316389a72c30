// Package async runs work in goroutines and hands back typed futures.
//
// Async starts fn in its own goroutine and returns a *Future; Go is the
// error-only variant used for fire-and-forget calls whose outcome only
// matters to logs and tests. Await blocks, AwaitWithTimeout bounds the wait,
// Done exposes a channel for select, and IsComplete polls.
//
//	f := async.Async(ctx, role, client.History)
//	items, err := f.Await()
//
// A context that is already cancelled completes the future with ctx.Err()
// without running the function; cancelling later is up to the function itself.
package async
