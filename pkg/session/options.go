package session

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rendezvous-app/webclient/pkg/feed"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/readsync"
)

type options struct {
	logger      *slog.Logger
	config      Config
	alerter     livechannel.Alerter
	registerer  prometheus.Registerer
	channelOpts []livechannel.Option
	syncOpts    []readsync.Option
	feedOpts    []feed.Option
}

// Option configures a Session.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig applies retry, sync timeout and feed settings.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithAlerter sets the arrival cue of the live channel.
func WithAlerter(a livechannel.Alerter) Option {
	return func(o *options) { o.alerter = a }
}

// WithRegisterer enables live channel and read-sync metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithChannelOptions passes extra options to the live channel. They are
// applied after the ones derived from Config.
func WithChannelOptions(opts ...livechannel.Option) Option {
	return func(o *options) { o.channelOpts = append(o.channelOpts, opts...) }
}

func WithSyncerOptions(opts ...readsync.Option) Option {
	return func(o *options) { o.syncOpts = append(o.syncOpts, opts...) }
}

func WithFeedOptions(opts ...feed.Option) Option {
	return func(o *options) { o.feedOpts = append(o.feedOpts, opts...) }
}
