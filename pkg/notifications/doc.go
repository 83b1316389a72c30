// Package notifications holds the client-side notification model and the
// per-session store that every notification consumer renders from.
//
// # Model
//
// A Notification is one backend event addressed to the current user. IDs are
// assigned by the backend and are stable across reloads and duplicate
// deliveries. Role distinguishes the two kinds of users (customer and model),
// each with its own live endpoint.
//
// # State
//
// State is created once per session and injected wherever it is needed. It is
// mutated only through its operations:
//
//   - Seed installs the server-rendered history exactly once.
//   - Append adds a live notification at the head; duplicates by ID are ignored.
//   - MarkRead and MarkAllRead flip read flags without any I/O.
//   - Clear resets everything on logout.
//
// UnreadCount is always a fresh recount of the stored records, and
// MarkAllRead is applied under a single lock, so an Append racing with it
// lands entirely before or entirely after it.
//
//	state := notifications.NewState()
//	state.Seed(history)
//	state.Append(live)
//	state.MarkRead(live.ID)
//	fmt.Println(state.UnreadCount())
//
// Consumers that re-render on change call Subscribe and read the store when a
// Change arrives.
package notifications
