// Package backend is the HTTP client for the notifications API.
//
// It loads history, persists read state and opens the live stream:
//
//	client, err := backend.New(cfg)
//	items, err := client.History(ctx, notifications.RoleModel)
//	err = client.MarkRead(ctx, "n_123", notifications.RoleModel)
//	err = client.MarkAllRead(ctx, notifications.RoleModel)
//	stream, err := client.Dial(ctx, notifications.RoleModel)
//
// Client satisfies livechannel.Dialer. Non-2xx responses are returned as
// *APIError, which matches ErrUnexpectedStatus with errors.Is.
package backend
