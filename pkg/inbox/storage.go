package inbox

import (
	"context"
	"time"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Recipient addresses one user acting in one role. The same user has
// separate inboxes as customer and as model.
type Recipient struct {
	UserID string
	Role   notifications.Role
}

func (r Recipient) key() string {
	return string(r.Role) + ":" + r.UserID
}

func (r Recipient) validate() error {
	if r.UserID == "" {
		return ErrMissingRecipient
	}
	if _, err := notifications.ParseRole(string(r.Role)); err != nil {
		return err
	}
	return nil
}

// Storage handles notification persistence and retrieval.
type Storage interface {
	// Create stores a new notification. IDs must be unique per recipient.
	Create(ctx context.Context, to Recipient, n notifications.Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, to Recipient, id string) (notifications.Notification, error)

	// List returns notifications newest first.
	List(ctx context.Context, to Recipient, opts ListOptions) ([]notifications.Notification, error)

	// MarkRead marks the given notifications read and returns how many changed.
	MarkRead(ctx context.Context, to Recipient, ids ...string) (int, error)

	// MarkAllRead marks every unread notification read and returns how many changed.
	MarkAllRead(ctx context.Context, to Recipient) (int, error)

	// CountUnread returns the unread count.
	CountUnread(ctx context.Context, to Recipient) (int, error)
}

// ListOptions provides filtering and pagination options for listing notifications.
type ListOptions struct {
	Limit      int                  // Maximum number of notifications to return (0 = no limit)
	Offset     int                  // Number of notifications to skip for pagination
	OnlyUnread bool                 // When true, only return unread notifications
	Types      []notifications.Type // If specified, only return notifications of these types
	Since      *time.Time           // If specified, only return notifications created after this time
}

func (o ListOptions) match(n notifications.Notification) bool {
	if o.OnlyUnread && n.IsRead {
		return false
	}
	if len(o.Types) > 0 {
		found := false
		for _, t := range o.Types {
			if n.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.Since != nil && n.CreatedAt.Before(*o.Since) {
		return false
	}
	return true
}

func (o ListOptions) page(items []notifications.Notification) []notifications.Notification {
	start := o.Offset
	if start > len(items) {
		return []notifications.Notification{}
	}
	end := start + o.Limit
	if o.Limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
