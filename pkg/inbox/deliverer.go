package inbox

import (
	"context"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Deliverer pushes a stored notification to connected clients.
type Deliverer interface {
	Deliver(ctx context.Context, to Recipient, n notifications.Notification) error
}

// NoOpDeliverer drops every notification. Useful when only history is needed.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Recipient, notifications.Notification) error {
	return nil
}
