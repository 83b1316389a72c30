package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/async"
	"github.com/rendezvous-app/webclient/pkg/feed"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/readsync"
)

// Backend is everything a session needs from the notifications API.
// backend.Client implements it.
type Backend interface {
	livechannel.Dialer
	readsync.Persister
	feed.BulkMarker
	History(ctx context.Context, role notifications.Role) ([]notifications.Notification, error)
}

// Session owns the notification store of one signed-in role together with
// its single live channel, read-state syncer and feed.
type Session struct {
	role    notifications.Role
	backend Backend
	state   *notifications.State
	channel *livechannel.Channel
	syncer  *readsync.Syncer
	feed    *feed.Feed
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	seeded  *async.Future[struct{}]
}

// New wires a session for role. Nothing touches the network until Start.
func New(b Backend, role notifications.Role, opts ...Option) (*Session, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	if _, err := notifications.ParseRole(string(role)); err != nil {
		return nil, err
	}

	cfg := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	log := cfg.logger.With(logger.Role(role))
	state := notifications.NewState()

	chOpts := []livechannel.Option{livechannel.WithLogger(log), livechannel.WithBackoff(cfg.config.Live.Backoff())}
	syncOpts := []readsync.Option{readsync.WithLogger(log), readsync.WithTimeout(cfg.config.Sync.Timeout)}
	feedOpts := []feed.Option{feed.WithLogger(log), feed.WithRecentLimit(cfg.config.Feed.RecentLimit)}
	if cfg.alerter != nil {
		chOpts = append(chOpts, livechannel.WithAlerter(cfg.alerter))
	}
	if cfg.registerer != nil {
		chOpts = append(chOpts, livechannel.WithMetrics(livechannel.NewMetrics(cfg.registerer)))
		syncOpts = append(syncOpts, readsync.WithMetrics(readsync.NewMetrics(cfg.registerer)))
	}

	syncer := readsync.New(b, role, append(syncOpts, cfg.syncOpts...)...)

	return &Session{
		role:    role,
		backend: b,
		state:   state,
		channel: livechannel.New(b, state, role, append(chOpts, cfg.channelOpts...)...),
		syncer:  syncer,
		feed:    feed.New(state, role, syncer, b, append(feedOpts, cfg.feedOpts...)...),
		logger:  log.With(logger.Component("session")),
	}, nil
}

// Start mounts the live channel and loads history in the background. History
// failures are logged only; the feed then shows live arrivals alone.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case s.started:
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := s.channel.Mount(ctx); err != nil {
		cancel()
		return err
	}
	s.started = true
	s.cancel = cancel
	s.seeded = async.Go(ctx, s.loadHistory)
	return nil
}

func (s *Session) loadHistory(ctx context.Context) error {
	items, err := s.backend.History(ctx, s.role)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load notification history", logger.Error(err))
		return err
	}
	if !s.state.Seed(items) {
		s.logger.DebugContext(ctx, "history ignored, store already initialized")
		return nil
	}
	s.logger.InfoContext(ctx, "notification history loaded",
		logger.Count(len(items)),
		slog.Int("unread", s.state.UnreadCount()),
	)
	return nil
}

// Seeded completes once the history request has finished. It is nil before Start.
func (s *Session) Seeded() *async.Future[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// Close tears the session down: the channel is unmounted, in-flight
// persistence is cancelled and the store is emptied. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel, seeded := s.cancel, s.seeded
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.channel.Unmount()
	s.syncer.Close()
	if seeded != nil {
		// a late history response must not repopulate the cleared store
		_, _ = seeded.Await()
	}
	s.state.Clear()
	_ = s.state.Close()
	s.logger.Info("notification session closed")
}

func (s *Session) Role() notifications.Role      { return s.role }
func (s *Session) State() *notifications.State   { return s.state }
func (s *Session) Channel() *livechannel.Channel { return s.channel }
func (s *Session) Feed() *feed.Feed              { return s.feed }
