// Package live maintains the one persistent connection that carries every
// tracker's position and geofence updates. Callers subscribe per tracker id;
// the channel multiplexes those subscriptions over a single socket, buffers
// control frames while disconnected, and survives drops with jittered
// exponential-backoff reconnects. Subscriptions outlive the socket: after a
// reconnect they are replayed without caller involvement.
package live

import (
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fleetdeck/fleetdeck/pkg/domain"
)

// State is the connection lifecycle phase of a Channel.
type State int

const (
	// Disconnected means no socket and no reconnect pending.
	Disconnected State = iota
	// Connecting means a dial is in flight.
	Connecting
	// Connected means the socket is up.
	Connected
	// Reconnecting means the socket dropped and a backoff retry is pending.
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// TokenSource supplies the bearer token attached to each connect attempt.
// It is read fresh per attempt so a logout or re-login during a reconnect
// is observed on the next dial.
type TokenSource interface {
	Token() string
}

// controlFrame is the outbound subscribe/unsubscribe message, keyed by
// tracker id.
type controlFrame struct {
	Action    string `json:"action"`
	TrackerID string `json:"trackerId"`
}

// Defaults for the reconnect schedule.
const (
	DefaultBackoffBase = time.Second
	DefaultBackoffCap  = 30 * time.Second
)

// Config configures a Channel.
type Config struct {
	// URL is the live-updates endpoint (ws:// or wss://).
	URL string
	// Tokens supplies the connect-time credential. Without a token,
	// EnsureConnected is a deferred no-op.
	Tokens TokenSource
	// Logger receives dropped-frame and reconnect diagnostics. Optional.
	Logger *zap.Logger
	// BackoffBase/BackoffCap override the reconnect schedule. Optional.
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// Channel is the shared live connection. All methods are safe for
// concurrent use.
type Channel struct {
	url    string
	tokens TokenSource
	logger *zap.Logger
	dialer *websocket.Dialer

	// wmu serializes socket writes (the websocket allows one writer).
	wmu sync.Mutex

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	subs           map[string]int
	msgListeners   map[string]func(domain.LiveMessage)
	openListeners  map[string]func()
	closeListeners map[string]func()
	bo             *backoff
	done           chan struct{}
}

// NewChannel creates a Channel. It does not connect; call EnsureConnected.
func NewChannel(cfg Config) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	cap := cfg.BackoffCap
	if cap < base {
		cap = DefaultBackoffCap
	}
	return &Channel{
		url:            cfg.URL,
		tokens:         cfg.Tokens,
		logger:         logger,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		subs:           make(map[string]int),
		msgListeners:   make(map[string]func(domain.LiveMessage)),
		openListeners:  make(map[string]func()),
		closeListeners: make(map[string]func()),
		bo:             newBackoff(base, cap),
	}
}

// State returns the current lifecycle phase.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is currently up.
func (c *Channel) IsConnected() bool {
	return c.State() == Connected
}

// EnsureConnected starts the connection loop if it is not already running.
// It is idempotent, and a deferred no-op while no token is available: call
// it again once login completes.
func (c *Channel) EnsureConnected() {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	if c.token() == "" {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(done)
}

// Close shuts the channel down explicitly. No reconnect is attempted until
// the next EnsureConnected.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.state = Disconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close() //nolint:errcheck // best-effort close
	}
}

// Subscribe registers interest in a tracker. The first subscription for an
// id sends one subscribe frame (buffered until connected); further
// subscriptions only increment the reference count.
func (c *Channel) Subscribe(trackerID string) {
	c.mu.Lock()
	c.subs[trackerID]++
	first := c.subs[trackerID] == 1
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if first && connected && conn != nil {
		c.writeFrame(conn, controlFrame{Action: "subscribe", TrackerID: trackerID})
	}
}

// Unsubscribe releases one reference to a tracker. When the count reaches
// zero the entry is removed and one unsubscribe frame is sent. Extra calls
// for an unknown id are ignored.
func (c *Channel) Unsubscribe(trackerID string) {
	c.mu.Lock()
	n, ok := c.subs[trackerID]
	if !ok {
		c.mu.Unlock()
		return
	}
	n--
	if n > 0 {
		c.subs[trackerID] = n
		c.mu.Unlock()
		return
	}
	delete(c.subs, trackerID)
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if connected && conn != nil {
		c.writeFrame(conn, controlFrame{Action: "unsubscribe", TrackerID: trackerID})
	}
}

// OnMessage registers a listener for every classified live message,
// regardless of tracker; filtering is the caller's concern. The returned
// function removes this listener without affecting others.
func (c *Channel) OnMessage(fn func(domain.LiveMessage)) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.msgListeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.msgListeners, id)
		c.mu.Unlock()
	}
}

// OnOpen registers a listener invoked after every successful connect,
// including reconnects.
func (c *Channel) OnOpen(fn func()) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.openListeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.openListeners, id)
		c.mu.Unlock()
	}
}

// OnClose registers a listener invoked whenever the socket drops, whether
// from an explicit Close or a failure.
func (c *Channel) OnClose(fn func()) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.closeListeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.closeListeners, id)
		c.mu.Unlock()
	}
}

func (c *Channel) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// dialURL attaches the connect-time token to the handshake.
func (c *Channel) dialURL(token string) string {
	sep := "?"
	if u, err := url.Parse(c.url); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return c.url + sep + "token=" + url.QueryEscape(token)
}

// run is the connection loop: dial, replay subscriptions, read until the
// socket drops, back off, repeat. It exits on explicit Close or when the
// credential disappears (e.g. logout during a reconnect).
func (c *Channel) run(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		token := c.token()
		if token == "" {
			c.logger.Info("live channel stopping: no credential")
			c.setState(Disconnected)
			return
		}

		conn, resp, err := c.dialer.Dial(c.dialURL(token), nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close() //nolint:errcheck
		}
		if err != nil {
			c.logger.Warn("live connect failed", zap.Error(err))
			if !c.waitRetry(done) {
				return
			}
			continue
		}

		c.mu.Lock()
		select {
		case <-done:
			c.mu.Unlock()
			conn.Close() //nolint:errcheck
			return
		default:
		}
		c.conn = conn
		c.state = Connected
		c.bo.Reset()
		frames := make([]controlFrame, 0, len(c.subs))
		for id := range c.subs {
			frames = append(frames, controlFrame{Action: "subscribe", TrackerID: id})
		}
		opens := snapshotFuncs(c.openListeners)
		c.mu.Unlock()

		for _, f := range frames {
			c.writeFrame(conn, f)
		}
		for _, fn := range opens {
			fn()
		}
		c.logger.Info("live channel connected", zap.Int("subscriptions", len(frames)))

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		closes := snapshotFuncs(c.closeListeners)
		c.mu.Unlock()
		for _, fn := range closes {
			fn()
		}

		select {
		case <-done:
			return
		default:
		}
		c.logger.Warn("live channel dropped, reconnecting")
		if !c.waitRetry(done) {
			return
		}
	}
}

// waitRetry sleeps out the next backoff delay in Reconnecting state. It
// returns false when the channel was closed while waiting.
func (c *Channel) waitRetry(done chan struct{}) bool {
	c.mu.Lock()
	c.state = Reconnecting
	delay := c.bo.Next()
	c.mu.Unlock()

	select {
	case <-done:
		return false
	case <-time.After(delay):
		return true
	}
}

// readLoop dispatches inbound frames in socket order until the connection
// fails. Unclassifiable frames are dropped, never surfaced.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := domain.ClassifyLiveMessage(raw)
		if err != nil {
			c.logger.Debug("dropped live frame", zap.Error(err))
			continue
		}
		c.mu.Lock()
		listeners := make([]func(domain.LiveMessage), 0, len(c.msgListeners))
		for _, fn := range c.msgListeners {
			listeners = append(listeners, fn)
		}
		c.mu.Unlock()
		for _, fn := range listeners {
			fn(msg)
		}
	}
}

func (c *Channel) writeFrame(conn *websocket.Conn, f controlFrame) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := conn.WriteJSON(f); err != nil {
		c.logger.Warn("control frame write failed",
			zap.String("action", f.Action),
			zap.String("trackerId", f.TrackerID),
			zap.Error(err))
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func snapshotFuncs(m map[string]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}
