package livechannel_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

var errDial = errors.New("dial refused")

type fakeStream struct {
	frames    chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 4),
		closed: make(chan struct{}),
	}
}

func (s *fakeStream) Next() ([]byte, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case err := <-s.errs:
		return nil, err
	case <-s.closed:
		return nil, io.ErrClosedPipe
	}
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// drop simulates the server ending the stream.
func (s *fakeStream) drop() { close(s.frames) }

type fakeDialer struct {
	mu        sync.Mutex
	streams   []*fakeStream
	failFirst int
	calls     atomic.Int32
	gate      chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, _ notifications.Role) (livechannel.Stream, error) {
	d.calls.Add(1)
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFirst > 0 {
		d.failFirst--
		return nil, errDial
	}
	s := newFakeStream()
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDialer) stream(i int) *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.streams) {
		return nil
	}
	return d.streams[i]
}

func (d *fakeDialer) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

func newChannel(t *testing.T, d livechannel.Dialer, opts ...livechannel.Option) (*livechannel.Channel, *notifications.State) {
	t.Helper()
	state := notifications.NewState()
	t.Cleanup(func() { _ = state.Close() })
	opts = append([]livechannel.Option{livechannel.WithLogger(logger.Discard())}, opts...)
	ch := livechannel.New(d, state, notifications.RoleCustomer, opts...)
	t.Cleanup(ch.Unmount)
	return ch, state
}

func waitOpen(t *testing.T, ch *livechannel.Channel, state *notifications.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ch.State() == livechannel.StateOpen && state.IsConnected()
	}, time.Second, 5*time.Millisecond)
}

func TestChannel_ControlFramesAreIgnored(t *testing.T) {
	t.Parallel()

	ch, state := newChannel(t, &fakeDialer{})
	state.Seed([]notifications.Notification{{ID: "a"}, {ID: "b", IsRead: true}})
	state.SetConnected(true)

	ch.HandleFrame([]byte(`{"type":"heartbeat"}`))
	ch.HandleFrame([]byte(`{"type":"connected","clientId":"x"}`))

	assert.Equal(t, 2, state.Len())
	assert.Equal(t, 1, state.UnreadCount())
	assert.True(t, state.IsConnected(), "control frames never touch connectivity")
}

func TestChannel_MalformedFramesAreDropped(t *testing.T) {
	t.Parallel()

	ch, state := newChannel(t, &fakeDialer{})
	state.SetConnected(true)

	assert.NotPanics(t, func() {
		ch.HandleFrame([]byte(`{broken`))
		ch.HandleFrame(nil)
		ch.HandleFrame([]byte(`{"type":"booking_created"}`))
		ch.HandleFrame([]byte(`{"id":"no-type"}`))
		ch.HandleFrame([]byte(`[1,2,3]`))
	})
	assert.Zero(t, state.Len())
	assert.True(t, state.IsConnected())

	ch.HandleFrame([]byte(`{"id":"n1","type":"booking_created","title":"New booking"}`))
	require.Equal(t, 1, state.Len())
	n, ok := state.Get("n1")
	require.True(t, ok)
	assert.False(t, n.IsRead)
	assert.Equal(t, "New booking", n.Title)
}

func TestChannel_DuplicateFrameKeepsReadFlag(t *testing.T) {
	t.Parallel()

	ch, state := newChannel(t, &fakeDialer{})
	ch.HandleFrame([]byte(`{"id":"n1","type":"booking_created"}`))
	require.True(t, state.MarkRead("n1"))

	ch.HandleFrame([]byte(`{"id":"n1","type":"booking_created"}`))
	assert.Equal(t, 1, state.Len())
	assert.Zero(t, state.UnreadCount())
}

func TestChannel_MountDeliversFrames(t *testing.T) {
	t.Parallel()

	var alerts atomic.Int32
	alerter := livechannel.AlerterFunc(func(context.Context, notifications.Notification) error {
		alerts.Add(1)
		return errors.New("speaker unplugged")
	})

	d := &fakeDialer{}
	ch, state := newChannel(t, d, livechannel.WithAlerter(alerter))
	assert.Equal(t, livechannel.StateIdle, ch.State())

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	s := d.stream(0)
	s.frames <- []byte(`{"type":"connected"}`)
	s.frames <- []byte(`{"id":"n1","type":"booking_confirmed"}`)
	s.frames <- []byte(`{"type":"heartbeat"}`)
	s.frames <- []byte(`{"id":"n2","type":"payment_released"}`)

	require.Eventually(t, func() bool { return state.Len() == 2 }, time.Second, 5*time.Millisecond)
	recent := state.Recent(-1)
	assert.Equal(t, "n2", recent[0].ID)
	assert.Equal(t, "n1", recent[1].ID)
	assert.Eventually(t, func() bool { return alerts.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, state.IsConnected(), "alert failures do not affect the channel")
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestChannel_MountTwice(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d)

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	err := ch.Mount(context.Background())
	assert.ErrorIs(t, err, livechannel.ErrAlreadyMounted)
	assert.Never(t, func() bool { return d.calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestChannel_ReconnectsAfterDelay(t *testing.T) {
	t.Parallel()

	const delay = 150 * time.Millisecond
	d := &fakeDialer{}
	ch, state := newChannel(t, d, livechannel.WithRetryDelay(delay))

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	first := d.stream(0)
	first.drop()

	require.Eventually(t, func() bool { return !state.IsConnected() }, time.Second, 2*time.Millisecond)
	assert.Equal(t, livechannel.StateReconnecting, ch.State())
	assert.True(t, first.isClosed(), "failed handle is discarded")

	start := time.Now()
	require.Eventually(t, func() bool { return d.opened() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), delay-20*time.Millisecond)
	waitOpen(t, ch, state)

	d.stream(1).frames <- []byte(`{"id":"after","type":"booking_completed"}`)
	require.Eventually(t, func() bool { return state.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestChannel_OversizedFrameKeepsStream(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d, livechannel.WithRetryDelay(10*time.Millisecond))

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	s := d.stream(0)
	s.errs <- fmt.Errorf("%w: over 1024 bytes", livechannel.ErrFrameTooLarge)
	require.Eventually(t, func() bool { return len(s.errs) == 0 }, time.Second, 2*time.Millisecond)
	s.frames <- []byte(`{"id":"n1","type":"booking_created"}`)

	require.Eventually(t, func() bool { return state.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, state.IsConnected())
	assert.False(t, s.isClosed())
	assert.Equal(t, 1, d.opened())
	assert.Equal(t, livechannel.StateOpen, ch.State())
}

func TestChannel_RetriesFailedDials(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{failFirst: 3}
	ch, state := newChannel(t, d, livechannel.WithRetryDelay(10*time.Millisecond))

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)
	assert.Equal(t, int32(4), d.calls.Load())
}

func TestChannel_UnmountStopsDelivery(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d)

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	s := d.stream(0)
	ch.Unmount()

	assert.Equal(t, livechannel.StateClosed, ch.State())
	assert.False(t, state.IsConnected())
	assert.True(t, s.isClosed())

	s.frames <- []byte(`{"id":"late","type":"booking_created"}`)
	ch.HandleFrame([]byte(`{"id":"late2","type":"booking_created"}`))
	assert.Never(t, func() bool { return state.Len() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	ch.Unmount()
	assert.Equal(t, livechannel.StateClosed, ch.State())
}

func TestChannel_UnmountCancelsPendingReconnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d, livechannel.WithRetryDelay(50*time.Millisecond))

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)

	d.stream(0).drop()
	require.Eventually(t, func() bool {
		return ch.State() == livechannel.StateReconnecting
	}, time.Second, 2*time.Millisecond)

	ch.Unmount()
	assert.Never(t, func() bool { return d.calls.Load() > 1 }, 150*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, livechannel.StateClosed, ch.State())
}

func TestChannel_UnmountDuringDial(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{gate: make(chan struct{})}
	ch, state := newChannel(t, d)

	require.NoError(t, ch.Mount(context.Background()))
	require.Eventually(t, func() bool { return d.calls.Load() == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, livechannel.StateConnecting, ch.State())

	ch.Unmount()
	close(d.gate)

	assert.Never(t, func() bool {
		return state.IsConnected() || ch.State() != livechannel.StateClosed
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestChannel_Remount(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d)

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)
	ch.Unmount()

	require.NoError(t, ch.Mount(context.Background()))
	waitOpen(t, ch, state)
	assert.Equal(t, 2, d.opened())
	assert.True(t, d.stream(0).isClosed())
	assert.False(t, d.stream(1).isClosed())
}

func TestChannel_ContextCancelUnmounts(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	ch, state := newChannel(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ch.Mount(ctx))
	waitOpen(t, ch, state)

	cancel()
	require.Eventually(t, func() bool {
		return ch.State() == livechannel.StateClosed
	}, time.Second, 5*time.Millisecond)
	assert.False(t, state.IsConnected())
}

func TestChannel_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	ch, _ := newChannel(t, &fakeDialer{}, livechannel.WithMetrics(livechannel.NewMetrics(reg)))

	ch.HandleFrame([]byte(`{"type":"heartbeat"}`))
	ch.HandleFrame([]byte(`{"type":"heartbeat"}`))
	ch.HandleFrame([]byte(`{"id":"n1","type":"booking_created"}`))
	ch.HandleFrame([]byte(`{"id":"n1","type":"booking_created"}`))
	ch.HandleFrame([]byte(`nope`))

	assert.Equal(t, 2.0, counter(t, reg, "notifications_live_frames_total", "heartbeat"))
	assert.Equal(t, 1.0, counter(t, reg, "notifications_live_frames_total", "notification"))
	assert.Equal(t, 1.0, counter(t, reg, "notifications_live_frames_total", "duplicate"))
	assert.Equal(t, 1.0, counter(t, reg, "notifications_live_frames_total", "malformed"))
}

func counter(t *testing.T, reg *prometheus.Registry, name, kind string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestTerminalBell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	bell := livechannel.NewTerminalBell(&buf)
	require.NoError(t, bell.Alert(context.Background(), notifications.Notification{ID: "n1"}))
	assert.Equal(t, "\a", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bell.Alert(ctx, notifications.Notification{}), context.Canceled)
	assert.Equal(t, "\a", buf.String())
}
