package feed

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Summary is the bell widget view model.
type Summary struct {
	Unread int    `json:"unread"`
	Live   bool   `json:"live"`
	Items  []Item `json:"items"`
}

// Item is one row of the bell dropdown.
type Item struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
	Href    string `json:"href"`
	When    string `json:"when"`
}

// Summary snapshots the unread count, the live flag and the recent items.
func (f *Feed) Summary() Summary {
	now := f.now()
	recent := f.Recent()

	s := Summary{
		Unread: f.UnreadCount(),
		Live:   f.Live(),
		Items:  make([]Item, 0, len(recent)),
	}
	for _, n := range recent {
		s.Items = append(s.Items, Item{
			ID:      n.ID,
			Type:    string(n.Type),
			Title:   n.Title,
			Message: n.Message,
			Read:    n.IsRead,
			Href:    f.TargetFor(n).Path,
			When:    relativeTime(n.CreatedAt, now),
		})
	}
	return s
}

// Line renders n as a single text line for terminal output.
func (f *Feed) Line(n notifications.Notification) string {
	mark := "*"
	if n.IsRead {
		mark = " "
	}
	return fmt.Sprintf("%s %s  %s: %s (%s)", mark, n.ID, n.Title, n.Message, relativeTime(n.CreatedAt, f.now()))
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < time.Second && t.Sub(now) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
