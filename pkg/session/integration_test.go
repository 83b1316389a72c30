package session_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendezvous-app/webclient/pkg/backend"
	"github.com/rendezvous-app/webclient/pkg/inbox"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/session"
)

// devBackend runs the in-memory inbox API behind an httptest server.
type devBackend struct {
	manager *inbox.Manager
	streams *inbox.BroadcastDeliverer
	url     string
}

func newDevBackend(t *testing.T) *devBackend {
	t.Helper()
	streams := inbox.NewBroadcastDeliverer(16, inbox.WithBroadcastLogger(logger.Discard()))
	m := inbox.NewManager(inbox.NewMemoryStorage(), streams, inbox.WithManagerLogger(logger.Discard()))
	h := inbox.NewHandler(m, streams, inbox.WithHandlerLogger(logger.Discard()), inbox.WithHeartbeat(time.Second))

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = streams.Close() })
	return &devBackend{manager: m, streams: streams, url: srv.URL}
}

func (d *devBackend) client(t *testing.T, userID string) *backend.Client {
	t.Helper()
	c, err := backend.New(backend.Config{BaseURL: d.url, Timeout: 2 * time.Second},
		backend.WithToken(userID),
		backend.WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	return c
}

func (d *devBackend) send(t *testing.T, to inbox.Recipient, n notifications.Notification) {
	t.Helper()
	_, err := d.manager.Send(context.Background(), to, n)
	require.NoError(t, err)
}

// unread is safe to call from Eventually conditions.
func (d *devBackend) unread(to inbox.Recipient) int {
	n, err := d.manager.CountUnread(context.Background(), to)
	if err != nil {
		return -1
	}
	return n
}

func TestSession_AgainstDevBackend(t *testing.T) {
	t.Parallel()

	dev := newDevBackend(t)
	model := inbox.Recipient{UserID: "model-1", Role: notifications.RoleModel}
	dev.send(t, model, notifications.Notification{
		ID:        "old-1",
		Type:      notifications.TypeBookingCompleted,
		Title:     "Booking completed",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	dev.send(t, inbox.Recipient{UserID: "model-1", Role: notifications.RoleCustomer}, notifications.Notification{
		ID:   "other-role",
		Type: notifications.TypeBookingCreated,
	})

	s, err := session.New(dev.client(t, "model-1"), notifications.RoleModel,
		session.WithLogger(logger.Discard()),
		session.WithChannelOptions(livechannel.WithRetryDelay(20*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Start(context.Background()))
	_, err = s.Seeded().AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)
	require.Eventually(t, s.State().IsConnected, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, s.State().Len(), "history is scoped to the role")

	dev.send(t, model, notifications.Notification{
		ID:    "live-1",
		Type:  notifications.TypeBookingCreated,
		Title: "New booking",
		Data:  map[string]any{"bookingId": "b-42"},
	})
	require.Eventually(t, func() bool { return s.Feed().UnreadCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "live-1", s.Feed().Recent()[0].ID)

	target, ok := s.Feed().Open(context.Background(), "live-1")
	require.True(t, ok)
	assert.Equal(t, "/model/bookings/b-42", target.Path)
	assert.Equal(t, 1, s.Feed().UnreadCount())
	require.Eventually(t, func() bool { return dev.unread(model) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Feed().MarkAllRead(context.Background()))
	assert.Zero(t, s.Feed().UnreadCount())
	assert.Zero(t, dev.unread(model))
}

func TestSession_ReconnectsAfterServerDropsStream(t *testing.T) {
	t.Parallel()

	dev := newDevBackend(t)
	customer := inbox.Recipient{UserID: "cust-1", Role: notifications.RoleCustomer}

	s, err := session.New(dev.client(t, "cust-1"), notifications.RoleCustomer,
		session.WithLogger(logger.Discard()),
		session.WithChannelOptions(livechannel.WithRetryDelay(20*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, s.State().IsConnected, 2*time.Second, 5*time.Millisecond)

	changes := s.State().Subscribe(context.Background())
	t.Cleanup(func() { _ = changes.Close() })

	// dropping every broadcaster ends the open stream
	require.NoError(t, dev.streams.Close())

	sawOffline := false
	deadline := time.After(2 * time.Second)
	for !sawOffline {
		select {
		case msg := <-changes.Receive(context.Background()):
			if msg.Data.Kind == notifications.ChangeConnectivity && !msg.Data.Connected {
				sawOffline = true
			}
		case <-deadline:
			t.Fatal("channel never reported the drop")
		}
	}
	require.Eventually(t, s.State().IsConnected, 2*time.Second, 5*time.Millisecond)

	// the server subscribes before answering, so a connected channel sees this
	dev.send(t, customer, notifications.Notification{ID: "after-drop", Type: notifications.TypeBookingConfirmed})
	require.Eventually(t, func() bool {
		_, ok := s.State().Get("after-drop")
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}
