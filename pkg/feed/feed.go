package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rendezvous-app/webclient/pkg/async"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// DefaultRecentLimit is how many items the bell dropdown shows.
const DefaultRecentLimit = 5

// Syncer persists a single read transition in the background.
type Syncer interface {
	Persist(id string) *async.Future[struct{}]
}

// BulkMarker persists "mark all as read" for a role in one request.
type BulkMarker interface {
	MarkAllRead(ctx context.Context, role notifications.Role) error
}

// Target is where the UI navigates after an item is opened.
type Target struct {
	Path      string
	BookingID string
}

// Feed is the read side of the store plus the user-driven read transitions.
type Feed struct {
	state  *notifications.State
	role   notifications.Role
	syncer Syncer
	bulk   BulkMarker
	limit  int
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Feed over state. It panics when state or syncer is nil.
// bulk may be nil, in which case MarkAllRead only updates the store.
func New(state *notifications.State, role notifications.Role, syncer Syncer, bulk BulkMarker, opts ...Option) *Feed {
	if state == nil {
		panic("feed: state is required")
	}
	if syncer == nil {
		panic("feed: syncer is required")
	}

	f := &Feed{
		state:  state,
		role:   role,
		syncer: syncer,
		bulk:   bulk,
		limit:  DefaultRecentLimit,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logger.Component("feed"), logger.Role(role))
	return f
}

// UnreadCount is recomputed from the store on every call.
func (f *Feed) UnreadCount() int { return f.state.UnreadCount() }

// Recent returns the newest items up to the configured limit.
func (f *Feed) Recent() []notifications.Notification { return f.state.Recent(f.limit) }

// All returns every item, newest first.
func (f *Feed) All() []notifications.Notification { return f.state.Notifications() }

// Live reports whether the live channel is currently open.
func (f *Feed) Live() bool { return f.state.IsConnected() }

// Open marks id read locally, issues one persistence request and returns the
// navigation target. It returns false and does nothing for unknown ids.
func (f *Feed) Open(ctx context.Context, id string) (Target, bool) {
	n, ok := f.state.Get(id)
	if !ok {
		f.logger.DebugContext(ctx, "open of unknown notification", logger.NotificationID(id))
		return Target{}, false
	}

	f.state.MarkRead(id)
	f.syncer.Persist(id)

	return f.TargetFor(n), true
}

// TargetFor derives the navigation target from the notification payload.
func (f *Feed) TargetFor(n notifications.Notification) Target {
	if bookingID, ok := n.BookingID(); ok {
		return Target{
			Path:      "/" + f.role.String() + "/bookings/" + bookingID,
			BookingID: bookingID,
		}
	}
	return Target{Path: "/" + f.role.String() + "/notifications"}
}

// MarkAllRead marks every item read locally and persists the whole batch
// with one bulk request. The local update is kept even if the request fails.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	changed := f.state.MarkAllRead()
	f.logger.DebugContext(ctx, "marked all read", logger.Count(changed))

	if f.bulk == nil {
		return nil
	}
	if err := f.bulk.MarkAllRead(ctx, f.role); err != nil {
		f.logger.WarnContext(ctx, "bulk mark-all-read failed", logger.Error(err))
		return errors.Join(ErrBulkMarkFailed, err)
	}
	return nil
}
