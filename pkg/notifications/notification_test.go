package notifications_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

func TestParseRole(t *testing.T) {
	r, err := notifications.ParseRole("model")
	require.NoError(t, err)
	assert.Equal(t, notifications.RoleModel, r)

	r, err = notifications.ParseRole("customer")
	require.NoError(t, err)
	assert.Equal(t, notifications.RoleCustomer, r)

	_, err = notifications.ParseRole("admin")
	assert.ErrorIs(t, err, notifications.ErrInvalidRole)
}

func TestType_IsControl(t *testing.T) {
	assert.True(t, notifications.ControlHeartbeat.IsControl())
	assert.True(t, notifications.ControlConnected.IsControl())
	assert.False(t, notifications.TypeBookingConfirmed.IsControl())
	assert.False(t, notifications.Type("").IsControl())
}

func TestNotification_BookingID(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
		ok   bool
	}{
		{name: "camel case", data: map[string]any{"bookingId": "b-1"}, want: "b-1", ok: true},
		{name: "snake case", data: map[string]any{"booking_id": "b-2"}, want: "b-2", ok: true},
		{name: "numeric", data: map[string]any{"bookingId": float64(42)}, want: "42", ok: true},
		{name: "empty string", data: map[string]any{"bookingId": ""}},
		{name: "no data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := notifications.Notification{Data: tt.data}.BookingID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotification_WireFormat(t *testing.T) {
	raw := `{"id":"B","type":"booking_confirmed","title":"t","message":"m","data":{"bookingId":"b-9"},"isRead":true,"createdAt":"2024-01-02T00:00:00Z"}`

	var n notifications.Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, "B", n.ID)
	assert.Equal(t, notifications.TypeBookingConfirmed, n.Type)
	assert.True(t, n.IsRead)
	assert.True(t, n.CreatedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02T00:00:00Z", want},
		{"2024-01-02T02:00:00+02:00", want},
		{"2024-01-02T00:00:00.250Z", want.Add(250 * time.Millisecond)},
		{"2024-01-02T00:00:00", want},
		{"2024-01-02T00:00:00.5", want.Add(500 * time.Millisecond)},
		{"2024-01-02T00:00:00+0000", want},
		{"2024-01-01T19:00:00-0500", want},
	}
	for _, tt := range tests {
		got, err := notifications.ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%s parsed as %s", tt.in, got)
	}

	for _, bad := range []string{"yesterday", "2024-01-02", "02/01/2024 00:00"} {
		_, err := notifications.ParseTimestamp(bad)
		assert.ErrorIs(t, err, notifications.ErrInvalidTimestamp, bad)
	}
}

func TestNotification_LenientCreatedAt(t *testing.T) {
	t.Parallel()

	decode := func(createdAt string) (notifications.Notification, error) {
		var n notifications.Notification
		err := json.Unmarshal([]byte(`{"id":"n1","type":"booking_created","data":{"bookingId":"b1"},"createdAt":`+createdAt+`}`), &n)
		return n, err
	}

	n, err := decode(`"2024-01-02T00:00:00"`)
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, notifications.TypeBookingCreated, n.Type)
	assert.True(t, n.CreatedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	id, ok := n.BookingID()
	assert.True(t, ok)
	assert.Equal(t, "b1", id)

	for _, missing := range []string{`""`, `null`} {
		n, err := decode(missing)
		require.NoError(t, err, missing)
		assert.True(t, n.CreatedAt.IsZero(), missing)
	}

	for _, bad := range []string{`"yesterday"`, `42`} {
		_, err := decode(bad)
		assert.ErrorIs(t, err, notifications.ErrInvalidTimestamp, bad)
	}
}
