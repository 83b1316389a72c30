package notifications

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Type is the notification category. It selects icons and navigation in the
// UI; the store itself never branches on it.
type Type string

const (
	TypeBookingCreated   Type = "booking_created"
	TypeBookingConfirmed Type = "booking_confirmed"
	TypeBookingRejected  Type = "booking_rejected"
	TypeBookingCancelled Type = "booking_cancelled"
	TypeBookingCheckedIn Type = "booking_checked_in"
	TypeBookingCompleted Type = "booking_completed"
	TypePaymentReleased  Type = "payment_released"
	TypeDisputeRaised    Type = "dispute_raised"
)

// Control frame types. They travel on the live channel but never become notifications.
const (
	ControlHeartbeat Type = "heartbeat"
	ControlConnected Type = "connected"
)

// IsControl reports whether t is a control-only frame type.
func (t Type) IsControl() bool {
	return t == ControlHeartbeat || t == ControlConnected
}

// Role is the acting user's type. It selects the live endpoint and data scope.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleModel    Role = "model"
)

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleModel:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Notification is one event delivered to a user.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

// BookingID returns the related booking identifier carried in Data, if any.
func (n Notification) BookingID() (string, bool) {
	for _, key := range []string{"bookingId", "booking_id"} {
		switch v := n.Data[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return fmt.Sprintf("%.0f", v), true
		}
	}
	return "", false
}

// UnmarshalJSON accepts any createdAt form ParseTimestamp understands. A
// missing or empty createdAt leaves CreatedAt zero.
func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	var aux struct {
		plain
		CreatedAt Timestamp `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*n = Notification(aux.plain)
	n.CreatedAt = aux.CreatedAt.Time
	return nil
}

// clone returns a copy that shares nothing mutable with n.
func (n Notification) clone() Notification {
	if n.Data != nil {
		n.Data = maps.Clone(n.Data)
	}
	return n
}
