package inbox

import (
	"context"
	"log/slog"

	"github.com/rendezvous-app/webclient/pkg/broadcast"
	"github.com/rendezvous-app/webclient/pkg/cache"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// BroadcastDeliverer fans notifications out to the live streams of each
// recipient. Broadcasters are kept in an LRU; evicting one closes its streams,
// which then reconnect and get a fresh broadcaster.
type BroadcastDeliverer struct {
	broadcasters    *cache.LRU[string, broadcast.Broadcaster[notifications.Notification]]
	bufferSize      int
	maxBroadcasters int
	logger          *slog.Logger
}

// BroadcastDelivererOption configures a BroadcastDeliverer.
type BroadcastDelivererOption func(*BroadcastDeliverer)

func WithBroadcastLogger(l *slog.Logger) BroadcastDelivererOption {
	return func(b *BroadcastDeliverer) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxBroadcasters caps how many recipients have a live broadcaster.
// Default is 10,000.
func WithMaxBroadcasters(limit int) BroadcastDelivererOption {
	return func(b *BroadcastDeliverer) {
		if limit > 0 {
			b.maxBroadcasters = limit
		}
	}
}

func NewBroadcastDeliverer(bufferSize int, opts ...BroadcastDelivererOption) *BroadcastDeliverer {
	b := &BroadcastDeliverer{
		bufferSize:      bufferSize,
		maxBroadcasters: 10000,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.broadcasters = cache.New(b.maxBroadcasters,
		cache.WithEvictFunc(func(key string, bc broadcast.Broadcaster[notifications.Notification]) {
			if err := bc.Close(); err != nil {
				b.logger.Error("failed to close evicted broadcaster",
					slog.String("recipient", key),
					logger.Error(err),
				)
			}
		}),
	)
	return b
}

func (d *BroadcastDeliverer) get(to Recipient) broadcast.Broadcaster[notifications.Notification] {
	b, _ := d.broadcasters.GetOrCreate(to.key(), func() broadcast.Broadcaster[notifications.Notification] {
		return broadcast.NewMemoryBroadcaster[notifications.Notification](d.bufferSize)
	})
	return b
}

func (d *BroadcastDeliverer) Deliver(ctx context.Context, to Recipient, n notifications.Notification) error {
	return d.get(to).Broadcast(ctx, broadcast.Message[notifications.Notification]{Data: n})
}

// Subscribe opens a live feed for to, bound to ctx.
func (d *BroadcastDeliverer) Subscribe(ctx context.Context, to Recipient) broadcast.Subscriber[notifications.Notification] {
	return d.get(to).Subscribe(ctx)
}

// Close closes every broadcaster, ending all live streams.
func (d *BroadcastDeliverer) Close() error {
	d.broadcasters.Clear()
	return nil
}
