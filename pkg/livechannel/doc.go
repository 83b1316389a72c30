// Package livechannel keeps a server-to-client notification subscription open
// for one role and feeds arrivals into a notifications.State.
//
// A Channel moves through idle, connecting, open, reconnecting and closed
// states. Transport errors flip the store's connectivity flag off and schedule
// a new attempt after the configured Backoff (flat 5s by default). Heartbeat
// and connected frames keep the transport alive and are otherwise ignored.
// Malformed frames are logged and dropped without affecting the connection.
//
// Usage:
//
//	state := notifications.NewState()
//	ch := livechannel.New(client, state, notifications.RoleCustomer,
//		livechannel.WithLogger(log),
//		livechannel.WithAlerter(livechannel.NewTerminalBell(os.Stdout)),
//	)
//	if err := ch.Mount(ctx); err != nil {
//		return err
//	}
//	defer ch.Unmount()
//
// The transport is any Dialer; the backend package provides an SSE one.
package livechannel
