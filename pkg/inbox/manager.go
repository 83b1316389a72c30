package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Manager orchestrates notification storage and delivery.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithManagerMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithManagerClock overrides the clock used for createdAt.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager. A nil deliverer disables live delivery.
func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) *Manager {
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("inbox"))
	return m
}

// Send stores n for to and then pushes it to live streams. Missing id and
// createdAt are filled in; the notification always starts unread.
func (m *Manager) Send(ctx context.Context, to Recipient, n notifications.Notification) (notifications.Notification, error) {
	if n.Type == "" || n.Type.IsControl() {
		return n, ErrMissingType
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now().UTC()
	}
	n.IsRead = false

	// store first so the notification survives a failed delivery
	if err := m.storage.Create(ctx, to, n); err != nil {
		return n, fmt.Errorf("failed to store notification: %w", err)
	}
	m.metrics.sent(to.Role, n.Type)

	if err := m.deliverer.Deliver(ctx, to, n); err != nil {
		m.logger.WarnContext(ctx, "failed to deliver notification, but it was stored",
			logger.NotificationID(n.ID),
			logger.UserID(to.UserID),
			logger.Role(to.Role),
			logger.Error(err),
		)
	}
	return n, nil
}

func (m *Manager) List(ctx context.Context, to Recipient, opts ListOptions) ([]notifications.Notification, error) {
	return m.storage.List(ctx, to, opts)
}

// MarkRead marks one notification read. Marking an already read
// notification succeeds; an unknown id returns ErrNotificationNotFound.
func (m *Manager) MarkRead(ctx context.Context, to Recipient, id string) error {
	if _, err := m.storage.Get(ctx, to, id); err != nil {
		return err
	}
	changed, err := m.storage.MarkRead(ctx, to, id)
	if err != nil {
		return err
	}
	m.metrics.read(to.Role, changed)
	return nil
}

// MarkAllRead marks every notification of to read and returns how many changed.
func (m *Manager) MarkAllRead(ctx context.Context, to Recipient) (int, error) {
	changed, err := m.storage.MarkAllRead(ctx, to)
	if err != nil {
		return 0, err
	}
	m.metrics.read(to.Role, changed)
	m.logger.DebugContext(ctx, "marked all read", logger.UserID(to.UserID), logger.Role(to.Role), logger.Count(changed))
	return changed, nil
}

func (m *Manager) CountUnread(ctx context.Context, to Recipient) (int, error) {
	return m.storage.CountUnread(ctx, to)
}
