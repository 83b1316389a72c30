package livechannel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/statemachine"
)

// Channel states.
const (
	StateIdle         statemachine.State = "idle"
	StateConnecting   statemachine.State = "connecting"
	StateOpen         statemachine.State = "open"
	StateReconnecting statemachine.State = "reconnecting"
	StateClosed       statemachine.State = "closed"
)

const (
	eventMount   statemachine.Event = "mount"
	eventOpened  statemachine.Event = "opened"
	eventFailed  statemachine.Event = "failed"
	eventUnmount statemachine.Event = "unmount"
)

// Channel keeps one live subscription for a role and feeds arriving
// notifications into the shared State. It reconnects forever after
// transport errors until Unmount.
type Channel struct {
	role    notifications.Role
	state   *notifications.State
	dialer  Dialer
	alerter Alerter
	backoff Backoff
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	fsm     *statemachine.Machine
	ctx     context.Context
	cancel  context.CancelFunc
	stream  Stream
	timer   *time.Timer
	attempt int
	// gen identifies the current subscription attempt. Any callback carrying
	// an older generation belongs to a discarded handle and is ignored.
	gen   uint64
	mount uint64
}

// New creates an idle channel. It panics when dialer or state is nil.
func New(dialer Dialer, state *notifications.State, role notifications.Role, opts ...Option) *Channel {
	if dialer == nil {
		panic("livechannel: dialer is required")
	}
	if state == nil {
		panic("livechannel: state is required")
	}

	c := &Channel{
		role:    role,
		state:   state,
		dialer:  dialer,
		alerter: NopAlerter{},
		backoff: FlatBackoff(DefaultRetryDelay),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("livechannel"), logger.Role(role))

	c.fsm = statemachine.MustNew(StateIdle,
		statemachine.Allow([]statemachine.State{StateIdle, StateClosed}, StateConnecting, eventMount),
		statemachine.Allow([]statemachine.State{StateConnecting, StateReconnecting}, StateOpen, eventOpened),
		statemachine.Allow([]statemachine.State{StateConnecting, StateOpen, StateReconnecting}, StateReconnecting, eventFailed),
		statemachine.Allow([]statemachine.State{StateConnecting, StateOpen, StateReconnecting}, StateClosed, eventUnmount),
		statemachine.WithObserver(func(_ context.Context, from, to statemachine.State, ev statemachine.Event) {
			c.logger.Debug("live channel transition",
				slog.String("from", from.String()),
				logger.State(to.String()),
				logger.EventType(ev.String()),
			)
		}),
	)
	return c
}

// Role returns the role the channel subscribes for.
func (c *Channel) Role() notifications.Role { return c.role }

// State returns the current connection state.
func (c *Channel) State() statemachine.State { return c.fsm.Current() }

// Mount opens the subscription. It returns ErrAlreadyMounted while a
// subscription is active. Cancelling ctx has the same effect as Unmount.
func (c *Channel) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fsm.Fire(ctx, eventMount, nil); err != nil {
		c.logger.WarnContext(ctx, "live channel already mounted", logger.State(c.fsm.Current().String()))
		return errors.Join(ErrAlreadyMounted, err)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mount++
	c.gen++
	c.attempt = 0

	go c.watch(c.ctx, c.mount)
	go c.connect(c.ctx, c.gen)
	return nil
}

// Unmount closes the transport and cancels any pending reconnect. After it
// returns no frame from this or an older subscription reaches the State.
func (c *Channel) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmountLocked()
}

// HandleFrame applies one raw frame. Control frames are ignored and malformed
// frames are logged and dropped. Frames are dropped once the channel is closed.
func (c *Channel) HandleFrame(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fsm.Is(StateClosed) {
		return
	}
	c.handleFrameLocked(raw)
}

func (c *Channel) unmountLocked() {
	if c.fsm.Is(StateIdle) || c.fsm.Is(StateClosed) {
		return
	}

	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.closeStreamLocked()
	c.attempt = 0

	if err := c.fsm.Fire(context.Background(), eventUnmount, nil); err != nil {
		c.logger.Error("live channel unmount transition failed", logger.Error(err))
	}
	c.state.SetConnected(false)
	c.metrics.setConnected(c.role, false)
	c.logger.Info("live channel unmounted")
}

// watch unmounts when the mount context ends on its own.
func (c *Channel) watch(ctx context.Context, mount uint64) {
	<-ctx.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mount == mount {
		c.unmountLocked()
	}
}

func (c *Channel) connect(ctx context.Context, gen uint64) {
	stream, err := c.dialer.Dial(ctx, c.role)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		return
	}

	c.stream = stream
	c.attempt = 0
	if err := c.fsm.Fire(ctx, eventOpened, nil); err != nil {
		c.logger.ErrorContext(ctx, "live channel open transition failed", logger.Error(err))
	}
	c.state.SetConnected(true)
	c.metrics.setConnected(c.role, true)
	c.logger.InfoContext(ctx, "live channel open")
	c.mu.Unlock()

	c.read(stream, gen)
}

func (c *Channel) read(stream Stream, gen uint64) {
	for {
		raw, err := stream.Next()

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		if errors.Is(err, ErrFrameTooLarge) {
			c.metrics.frame(c.role, kindMalformed)
			c.logger.Warn("dropping oversized live frame", logger.Error(err))
			c.mu.Unlock()
			continue
		}
		if err != nil {
			c.failLocked(err)
			c.mu.Unlock()
			return
		}
		c.handleFrameLocked(raw)
		c.mu.Unlock()
	}
}

// failLocked discards the current handle and schedules the next attempt.
func (c *Channel) failLocked(cause error) {
	c.closeStreamLocked()
	c.gen++
	c.attempt++

	if err := c.fsm.Fire(context.Background(), eventFailed, nil); err != nil {
		c.logger.Error("live channel failure transition failed", logger.Error(err))
	}
	c.state.SetConnected(false)
	c.metrics.setConnected(c.role, false)
	c.metrics.reconnect(c.role)

	delay := c.backoff(c.attempt)
	c.logger.Warn("live channel lost, reconnecting",
		logger.Error(cause),
		logger.Attempt(c.attempt),
		logger.Duration(delay),
	)

	gen, ctx := c.gen, c.ctx
	c.timer = time.AfterFunc(delay, func() { c.retry(ctx, gen) })
}

func (c *Channel) retry(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.fsm.Is(StateReconnecting) {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.connect(ctx, gen)
}

func (c *Channel) closeStreamLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Debug("closing live stream", logger.Error(err))
	}
	c.stream = nil
}

func (c *Channel) handleFrameLocked(raw []byte) {
	typ, n, err := decodeFrame(raw, c.now())
	if err != nil {
		c.metrics.frame(c.role, kindMalformed)
		c.logger.Warn("dropping malformed live frame", logger.Error(err), slog.Int("size", len(raw)))
		return
	}
	switch typ {
	case notifications.ControlHeartbeat:
		c.metrics.frame(c.role, kindHeartbeat)
		return
	case notifications.ControlConnected:
		c.metrics.frame(c.role, kindConnected)
		return
	}

	if !c.state.Append(n) {
		c.metrics.frame(c.role, kindDuplicate)
		c.logger.Debug("duplicate live notification", logger.NotificationID(n.ID))
		return
	}
	c.metrics.frame(c.role, kindNotification)

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go c.alert(ctx, n)
}

func (c *Channel) alert(ctx context.Context, n notifications.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("alerter panicked", slog.Any("panic", r), logger.NotificationID(n.ID))
		}
	}()
	if err := c.alerter.Alert(ctx, n); err != nil {
		c.logger.Debug("alert failed", logger.Error(err), logger.NotificationID(n.ID))
	}
}
