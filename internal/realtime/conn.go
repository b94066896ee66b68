// Package realtime manages the websocket channel to the generation backend
// and the one-shot availability probe that gates it. A connection is only
// attempted after the prober confirms the backend is reachable; once a
// connection closes or errors it stays down for the rest of the run unless
// reconnection is explicitly enabled.
package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/logging"
	"github.com/prepforge/prepforge/internal/model"
)

// Handler receives decoded inbound frames of a single type.
type Handler func(Frame)

// Options configures a connection.
type Options struct {
	// HandshakeTimeout bounds the websocket upgrade.
	HandshakeTimeout time.Duration
	// Reconnect re-dials after an unexpected close. Off by default; a
	// dropped channel falls back to REST for the rest of the run.
	Reconnect bool
}

// Conn is the realtime channel to the backend. All methods are safe for
// concurrent use. The read loop runs on its own goroutine and dispatches
// inbound frames to registered handlers.
type Conn struct {
	baseURL string
	prober  *Prober
	opts    Options
	bus     *event.Bus
	log     *logging.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	state     model.ConnectionState
	sessionID string
	lastErr   error
	handlers  map[string][]Handler
	closing   bool
}

// NewConn creates a connection manager for the given websocket URL
// (scheme ws or wss, path included, no query). The bus and log may be nil.
func NewConn(baseURL string, prober *Prober, opts Options, bus *event.Bus, log *logging.Logger) *Conn {
	if log == nil {
		log = logging.NopLogger()
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Conn{
		baseURL:  baseURL,
		prober:   prober,
		opts:     opts,
		bus:      bus,
		log:      log,
		state:    model.StateDisconnected,
		handlers: make(map[string][]Handler),
	}
}

// Handle registers a handler for an inbound frame type. Handlers must be
// registered before Connect; registration after the read loop has started
// is still safe but may miss frames already dispatched.
func (c *Conn) Handle(frameType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[frameType] = append(c.handlers[frameType], h)
}

// State returns the current connection state.
func (c *Conn) State() model.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether frames can currently be sent.
func (c *Conn) Connected() bool {
	return c.State() == model.StateConnected
}

// LastError returns the first transport failure observed on this
// connection, or nil. Failures that occur after the prober already marked
// the backend unreachable are wrapped with the suppressed flag so callers
// do not surface them twice.
func (c *Conn) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect dials the backend for the given session. It refuses without a
// network attempt when the prober has marked the backend unreachable,
// returning ErrTransportUnavailable so the caller takes the fallback path.
func (c *Conn) Connect(ctx context.Context, sessionID string) error {
	if !c.prober.Probe(ctx) {
		return errors.ErrTransportUnavailable
	}

	c.mu.Lock()
	if c.state == model.StateConnected || c.state == model.StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.sessionID = sessionID
	c.mu.Unlock()

	return c.dial(ctx, sessionID, model.StateConnecting)
}

func (c *Conn) dial(ctx context.Context, sessionID string, via model.ConnectionState) error {
	c.setState(via)

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	ws, resp, err := dialer.DialContext(ctx, c.dialURL(sessionID), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.recordError(errors.NewTransportError("connect", err))
		c.setState(model.StateError)
		return errors.Join(errors.ErrTransportUnavailable, err)
	}

	c.mu.Lock()
	c.ws = ws
	c.closing = false
	c.mu.Unlock()
	c.setState(model.StateConnected)
	c.log.Info("realtime channel open", "session_id", sessionID)

	go c.readLoop(ws, sessionID)
	return nil
}

func (c *Conn) dialURL(sessionID string) string {
	return c.baseURL + "?session_id=" + url.QueryEscape(sessionID)
}

// Send writes a typed frame on the open channel. It returns false, without
// error detail, when the channel is not connected; the caller is expected
// to fall back. A successful write is treated as a successful dispatch.
func (c *Conn) Send(frameType, requestID string, data any) bool {
	c.mu.Lock()
	if c.state != model.StateConnected || c.ws == nil {
		c.mu.Unlock()
		return false
	}
	ws := c.ws
	sessionID := c.sessionID
	c.mu.Unlock()

	frame := outboundFrame{
		Type:      frameType,
		SessionID: sessionID,
		RequestID: requestID,
		Data:      data,
	}
	if err := ws.WriteJSON(frame); err != nil {
		c.recordError(errors.NewTransportError("send", err))
		c.teardown(ws)
		return false
	}
	c.log.Debug("frame sent", "type", frameType, "session_id", sessionID, "request_id", requestID)
	return true
}

// Ping sends a keepalive frame. Returns false when not connected.
func (c *Conn) Ping() bool {
	return c.Send(FramePing, "", nil)
}

// Close shuts the channel down deliberately. Subsequent Sends return false.
func (c *Conn) Close() error {
	c.mu.Lock()
	ws := c.ws
	c.closing = true
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}
	c.setState(model.StateDisconnected)
	return nil
}

// readLoop decodes inbound frames until the connection dies. Unknown or
// malformed frames are ignored for forward compatibility.
func (c *Conn) readLoop(ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.closing
			c.mu.Unlock()
			if !deliberate {
				c.recordError(errors.NewTransportError("read", err))
				c.log.Warn("realtime channel lost", "session_id", sessionID, "error", err)
				c.teardown(ws)
				c.maybeReconnect(sessionID)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Debug("ignoring malformed frame", "error", err)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame Frame) {
	if frame.Type == FramePong {
		c.log.Debug("pong received", "session_id", frame.SessionID)
	}

	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers[frame.Type]))
	copy(handlers, c.handlers[frame.Type])
	c.mu.Unlock()

	if len(handlers) == 0 {
		if frame.Type != FramePong {
			c.log.Debug("ignoring unknown frame type", "type", frame.Type)
		}
		return
	}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("frame handler panicked", "type", frame.Type, "panic", r)
				}
			}()
			h(frame)
		}()
	}
}

// teardown closes the socket and marks the channel down. With reconnection
// disabled this is terminal for the run.
func (c *Conn) teardown(ws *websocket.Conn) {
	ws.Close()
	c.mu.Lock()
	if c.ws == ws {
		c.ws = nil
	}
	c.mu.Unlock()
	c.setState(model.StateDisconnected)
}

func (c *Conn) maybeReconnect(sessionID string) {
	if !c.opts.Reconnect {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
	defer cancel()
	if err := c.dial(ctx, sessionID, model.StateReconnecting); err != nil {
		c.log.Warn("reconnect failed", "session_id", sessionID, "error", err)
	}
}

// recordError keeps only the first failure. Later failures on an already
// dead channel add no information.
func (c *Conn) recordError(err error) {
	c.mu.Lock()
	if c.lastErr == nil {
		c.lastErr = err
	}
	c.mu.Unlock()
}

func (c *Conn) setState(next model.ConnectionState) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	c.log.Debug("connection state changed", "from", string(prev), "to", string(next))
	if c.bus != nil {
		c.bus.Publish(event.NewConnectionStateEvent(prev, next))
	}
}
