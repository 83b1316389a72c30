package livechannel

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// frame is the wire shape of a live event.
type frame struct {
	Type      notifications.Type      `json:"type"`
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      map[string]any          `json:"data"`
	CreatedAt notifications.Timestamp `json:"createdAt"`
}

// decodeFrame parses raw and returns its type. The notification is only set
// for non-control frames; it is always unread and a missing or empty createdAt
// becomes now.
func decodeFrame(raw []byte, now time.Time) (notifications.Type, notifications.Notification, error) {
	var (
		f frame
		n notifications.Notification
	)
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", n, errors.Join(ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return "", n, ErrMissingType
	}
	if f.Type.IsControl() {
		return f.Type, n, nil
	}
	if f.ID == "" {
		return f.Type, n, ErrMissingID
	}

	n = notifications.Notification{
		ID:        f.ID,
		Type:      f.Type,
		Title:     f.Title,
		Message:   f.Message,
		Data:      f.Data,
		IsRead:    false,
		CreatedAt: now,
	}
	if !f.CreatedAt.IsZero() {
		n.CreatedAt = f.CreatedAt.Time
	}
	return f.Type, n, nil
}
