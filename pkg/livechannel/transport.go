package livechannel

import (
	"context"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Stream is one open server-to-client subscription.
type Stream interface {
	// Next blocks until the next frame arrives. ErrFrameTooLarge drops one
	// frame; any other error ends the stream.
	Next() ([]byte, error)
	// Close releases the stream and unblocks a pending Next.
	Close() error
}

// Dialer opens a Stream for a role.
type Dialer interface {
	Dial(ctx context.Context, role notifications.Role) (Stream, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, role notifications.Role) (Stream, error)

func (f DialerFunc) Dial(ctx context.Context, role notifications.Role) (Stream, error) {
	return f(ctx, role)
}
