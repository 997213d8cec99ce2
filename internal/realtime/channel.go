package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/relay"
)

// State is the channel's connection state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is the receive side of a push connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	Dialer *websocket.Dialer // nil uses websocket.DefaultDialer
	Header http.Header
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// Sink receives decoded push updates. *state.Store satisfies it.
type Sink interface {
	MergeDeviceDelta(id string, delta relay.DeviceDelta) bool
	MergeStatusDeltas(entries []relay.StatusEntry) int
	SetConnected(connected bool)
}

// Options configure a Channel.
type Options struct {
	URL       string
	Dialer    Dialer          // nil uses WebSocketDialer{}
	Policy    ReconnectPolicy // nil uses FixedDelay(DefaultReconnectDelay)
	Logger    logrus.FieldLogger
	OnMessage func(relay.Message) // optional observer, called after the store is updated
}

// ErrAlreadyRunning is returned when Run is called on a running channel.
var ErrAlreadyRunning = errors.New("push channel already running")

// Channel keeps one push connection open and feeds its frames into a Sink.
// It is receive-only.
type Channel struct {
	url       string
	dialer    Dialer
	policy    ReconnectPolicy
	sink      Sink
	log       logrus.FieldLogger
	onMessage func(relay.Message)

	state   atomic.Int32
	running atomic.Bool

	mu   sync.Mutex
	conn Conn
}

// New builds a Channel for the given sink.
func New(sink Sink, opts Options) (*Channel, error) {
	if sink == nil {
		return nil, fmt.Errorf("push channel requires a sink")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("push channel requires a url")
	}
	c := &Channel{
		url:       opts.URL,
		dialer:    opts.Dialer,
		policy:    opts.Policy,
		sink:      sink,
		log:       opts.Logger,
		onMessage: opts.OnMessage,
	}
	if c.dialer == nil {
		c.dialer = WebSocketDialer{}
	}
	if c.policy == nil {
		c.policy = FixedDelay(DefaultReconnectDelay)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.log = c.log.WithField("component", "realtime")
	return c, nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Run connects and keeps reconnecting until ctx is cancelled. A close or
// transport error leads to exactly one reconnect attempt after the policy's
// delay; since the loop is the only place that dials, only one attempt is
// ever pending. Run blocks and returns nil once ctx is done.
func (c *Channel) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	attempt := 0
	for {
		c.state.Store(int32(Connecting))
		conn, err := c.dialer.Dial(ctx, c.url)
		switch {
		case err == nil:
			attempt = 0
			c.serve(ctx, conn)
		case ctx.Err() == nil:
			c.log.WithError(err).Warn("push channel connect failed")
		}
		c.state.Store(int32(Disconnected))

		if ctx.Err() != nil {
			return nil
		}

		attempt++
		delay := c.policy.NextDelay(attempt)
		c.log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay.String()}).Info("push channel reconnect scheduled")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Disconnect drops the current connection as a local close. Run treats it
// like any other close and schedules one reconnect. It reports false when
// there was no open connection.
func (c *Channel) Disconnect() bool {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (c *Channel) serve(ctx context.Context, conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.state.Store(int32(Connected))
	c.sink.SetConnected(true)
	c.log.WithField("url", c.url).Info("push channel connected")

	// Unblock ReadMessage when the caller goes away.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.logClose(ctx, err)
			break
		}
		c.handle(payload)
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
	c.sink.SetConnected(false)
}

func (c *Channel) logClose(ctx context.Context, err error) {
	if ctx.Err() != nil {
		c.log.Debug("push channel closed on shutdown")
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.WithError(err).Info("push channel closed")
		return
	}
	c.log.WithError(err).Warn("push channel lost")
}

func (c *Channel) handle(payload []byte) {
	msg, err := relay.DecodeMessage(payload)
	if err != nil {
		c.log.WithError(err).WithField("bytes", len(payload)).Warn("discarding push frame")
		return
	}

	switch m := msg.(type) {
	case relay.DeviceUpdateMessage:
		if !c.sink.MergeDeviceDelta(m.DeviceID, m.Data) {
			c.log.WithField("device_id", m.DeviceID).Debug("device_update for unknown device")
		}
	case relay.StatusUpdateMessage:
		for _, err := range m.Skipped {
			c.log.WithError(err).Warn("skipping status_update entry")
		}
		applied := c.sink.MergeStatusDeltas(m.Devices)
		c.log.WithFields(logrus.Fields{"devices": len(m.Devices), "applied": applied}).Debug("status_update merged")
	default:
		c.log.WithField("type", msg.MessageType()).Debug("ignoring push frame")
	}

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}
