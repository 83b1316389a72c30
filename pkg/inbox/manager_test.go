package inbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendezvous-app/webclient/pkg/inbox"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

type failingDeliverer struct{}

func (failingDeliverer) Deliver(context.Context, inbox.Recipient, notifications.Notification) error {
	return errors.New("no subscribers reachable")
}

func TestManager_SendStoresAndDelivers(t *testing.T) {
	t.Parallel()

	storage := inbox.NewMemoryStorage()
	streams := inbox.NewBroadcastDeliverer(4, inbox.WithBroadcastLogger(logger.Discard()))
	t.Cleanup(func() { _ = streams.Close() })
	m := inbox.NewManager(storage, streams,
		inbox.WithManagerLogger(logger.Discard()),
		inbox.WithManagerClock(func() time.Time { return base }),
	)

	to := inbox.Recipient{UserID: "u1", Role: notifications.RoleModel}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := streams.Subscribe(ctx, to)
	other := streams.Subscribe(ctx, inbox.Recipient{UserID: "u1", Role: notifications.RoleCustomer})

	sent, err := m.Send(context.Background(), to, notifications.Notification{
		Type:   notifications.TypeBookingCreated,
		Title:  "New booking",
		IsRead: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, base, sent.CreatedAt)
	assert.False(t, sent.IsRead)

	select {
	case msg := <-sub.Receive(ctx):
		assert.Equal(t, sent.ID, msg.Data.ID)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
	select {
	case <-other.Receive(ctx):
		t.Fatal("delivered to the wrong role")
	case <-time.After(20 * time.Millisecond):
	}

	items, err := m.List(context.Background(), to, inbox.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, sent.ID, items[0].ID)
}

func TestManager_DeliveryFailureKeepsNotification(t *testing.T) {
	t.Parallel()

	m := inbox.NewManager(inbox.NewMemoryStorage(), failingDeliverer{}, inbox.WithManagerLogger(logger.Discard()))
	to := inbox.Recipient{UserID: "u1", Role: notifications.RoleCustomer}

	_, err := m.Send(context.Background(), to, notifications.Notification{ID: "fixed", Type: notifications.TypeDisputeRaised})
	require.NoError(t, err)

	count, err := m.CountUnread(context.Background(), to)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestManager_SendValidation(t *testing.T) {
	t.Parallel()

	m := inbox.NewManager(inbox.NewMemoryStorage(), nil, inbox.WithManagerLogger(logger.Discard()))
	to := inbox.Recipient{UserID: "u1", Role: notifications.RoleCustomer}

	_, err := m.Send(context.Background(), to, notifications.Notification{})
	assert.ErrorIs(t, err, inbox.ErrMissingType)

	_, err = m.Send(context.Background(), to, notifications.Notification{Type: notifications.ControlHeartbeat})
	assert.ErrorIs(t, err, inbox.ErrMissingType)

	_, err = m.Send(context.Background(), inbox.Recipient{Role: notifications.RoleCustomer}, notifications.Notification{Type: notifications.TypeBookingCreated})
	assert.ErrorIs(t, err, inbox.ErrMissingRecipient)
}

func TestManager_MarkRead(t *testing.T) {
	t.Parallel()

	m := inbox.NewManager(inbox.NewMemoryStorage(), nil, inbox.WithManagerLogger(logger.Discard()))
	to := inbox.Recipient{UserID: "u1", Role: notifications.RoleCustomer}
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Send(ctx, to, notifications.Notification{ID: id, Type: notifications.TypeBookingCreated})
		require.NoError(t, err)
	}

	require.NoError(t, m.MarkRead(ctx, to, "a"))
	require.NoError(t, m.MarkRead(ctx, to, "a"), "marking twice is fine")
	assert.ErrorIs(t, m.MarkRead(ctx, to, "zzz"), inbox.ErrNotificationNotFound)

	changed, err := m.MarkAllRead(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
}

func TestBroadcastDeliverer_EvictionClosesStreams(t *testing.T) {
	t.Parallel()

	d := inbox.NewBroadcastDeliverer(1,
		inbox.WithBroadcastLogger(logger.Discard()),
		inbox.WithMaxBroadcasters(1),
	)
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := d.Subscribe(ctx, inbox.Recipient{UserID: "a", Role: notifications.RoleModel})
	d.Subscribe(ctx, inbox.Recipient{UserID: "b", Role: notifications.RoleModel})

	select {
	case _, ok := <-first.Receive(ctx):
		assert.False(t, ok, "evicted stream must be closed")
	case <-time.After(time.Second):
		t.Fatal("evicted stream stayed open")
	}
}
