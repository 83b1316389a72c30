package readsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rendezvous-app/webclient/pkg/async"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// DefaultTimeout bounds a single persistence request.
const DefaultTimeout = 10 * time.Second

// Persister stores the read flag of one notification.
type Persister interface {
	MarkRead(ctx context.Context, id string, role notifications.Role) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, id string, role notifications.Role) error

func (f PersisterFunc) MarkRead(ctx context.Context, id string, role notifications.Role) error {
	return f(ctx, id, role)
}

// Syncer pushes local read transitions to the backend without blocking the
// caller. Requests are never retried and their failures never reach the UI.
type Syncer struct {
	persister Persister
	role      notifications.Role
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a Syncer for role. It panics when p is nil.
func New(p Persister, role notifications.Role, opts ...Option) *Syncer {
	if p == nil {
		panic("readsync: persister is required")
	}

	s := &Syncer{
		persister: p,
		role:      role,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("readsync"), logger.Role(role))
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Persist issues exactly one detached request for id. The returned future
// reports the outcome for observers; callers are free to ignore it.
// After Close it resolves immediately with ErrClosed.
func (s *Syncer) Persist(id string) *async.Future[struct{}] {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return async.Resolved(struct{}{}, ErrClosed)
	}
	s.wg.Add(1)
	s.mu.Unlock()

	// The outer context is never cancelled so the body always runs and
	// releases the wait group; cancellation comes from s.ctx.
	return async.Go(context.Background(), func(context.Context) error {
		defer s.wg.Done()
		return s.persist(id)
	})
}

func (s *Syncer) persist(id string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.persister.MarkRead(ctx, id, s.role)
	switch {
	case err == nil:
		s.metrics.observe(resultOK)
		s.logger.DebugContext(ctx, "read state persisted",
			logger.NotificationID(id),
			logger.Duration(time.Since(start)),
		)
		return nil
	case errors.Is(err, context.Canceled) && s.ctx.Err() != nil:
		s.metrics.observe(resultCancelled)
		s.logger.Debug("read state request cancelled", logger.NotificationID(id))
	default:
		s.metrics.observe(resultFailed)
		s.logger.Warn("failed to persist read state",
			logger.NotificationID(id),
			logger.Error(err),
		)
	}
	return err
}

// Close cancels in-flight requests and waits for them to return.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
