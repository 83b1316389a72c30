package livechannel

import (
	"context"
	"io"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Alerter plays a short audible cue when a notification arrives.
// Failures are logged by the channel and otherwise ignored.
type Alerter interface {
	Alert(ctx context.Context, n notifications.Notification) error
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(ctx context.Context, n notifications.Notification) error

func (f AlerterFunc) Alert(ctx context.Context, n notifications.Notification) error {
	return f(ctx, n)
}

// NopAlerter stays silent.
type NopAlerter struct{}

func (NopAlerter) Alert(context.Context, notifications.Notification) error { return nil }

// TerminalBell rings the terminal bell by writing BEL to w.
type TerminalBell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalBell(w io.Writer) *TerminalBell {
	return &TerminalBell{w: w}
}

func (b *TerminalBell) Alert(ctx context.Context, _ notifications.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.w.Write([]byte{'\a'})
	return err
}
