package websocket

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/questnet"
	"github.com/luciancaetano/questnet/internal/codec"
)

// registry is the part of the server a connection may reach: enough to
// deregister itself and to broadcast. The server owns the connection, never
// the other way around.
type registry interface {
	RemoveConnection(id string)
	Broadcast(msg questnet.Message)
}

var _ questnet.Connection = (*Connection)(nil)

// Connection implements the questnet.Connection interface
type Connection struct {
	id         string
	conn       *websocket.Conn
	remoteAddr string
	codec      codec.Codec
	frameType  int
	registry   registry
	logger     *logrus.Entry
	keepalive  KeepaliveConfig
	maxSize    int64

	ctx     context.Context
	cancel  context.CancelFunc
	sendCh  chan []byte
	limiter *rate.Limiter // nil when rate limiting is disabled

	mu         sync.RWMutex
	closed     bool
	closeFrame []byte

	handlersMu sync.RWMutex
	onMessage  func(msg questnet.Message)
	onClose    func()

	finishOnce sync.Once
}

type connectionOptions struct {
	codec          codec.Codec
	logger         logrus.FieldLogger
	keepalive      KeepaliveConfig
	rateLimit      *RateLimitConfig
	sendBufferSize int
	maxMessageSize int64
}

// newConnection wraps an upgraded socket and starts its write pump. The read
// loop is started separately by run, once the connection is registered.
func newConnection(id string, conn *websocket.Conn, remoteAddr string, reg registry, opts connectionOptions) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	frameType := websocket.TextMessage
	if opts.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	c := &Connection{
		id:         id,
		conn:       conn,
		remoteAddr: remoteAddr,
		codec:      opts.codec,
		frameType:  frameType,
		registry:   reg,
		logger: opts.logger.WithFields(logrus.Fields{
			"connection_id": id,
			"remote_addr":   remoteAddr,
		}),
		keepalive: opts.keepalive,
		maxSize:   opts.maxMessageSize,
		ctx:       ctx,
		cancel:    cancel,
		sendCh:    make(chan []byte, opts.sendBufferSize),
		limiter:   opts.rateLimit.newLimiter(),
	}

	go c.writePump()

	return c
}

// ID returns the identifier assigned when the socket was accepted
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr returns the client's remote network address
func (c *Connection) RemoteAddr() string {
	return c.remoteAddr
}

// Context returns the connection's lifecycle context
func (c *Connection) Context() context.Context {
	return c.ctx
}

// IsAlive returns true if the connection is still open
func (c *Connection) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// OnMessage installs the handler for decoded inbound messages
func (c *Connection) OnMessage(callback func(msg questnet.Message)) {
	c.handlersMu.Lock()
	c.onMessage = callback
	c.handlersMu.Unlock()
}

// OnClose installs the handler invoked once when the connection closes
func (c *Connection) OnClose(callback func()) {
	c.handlersMu.Lock()
	c.onClose = callback
	c.handlersMu.Unlock()
}

func (c *Connection) messageHandler() func(msg questnet.Message) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.onMessage
}

func (c *Connection) closeHandler() func() {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.onClose
}

// Broadcast sends msg to every connection of the owning server
func (c *Connection) Broadcast(msg questnet.Message) {
	c.registry.Broadcast(msg)
}

// Send encodes msg and queues it for the write pump. Messages sent after the
// connection closed are dropped silently.
func (c *Connection) Send(msg questnet.Message) {
	if !c.IsAlive() {
		return
	}

	data, err := c.codec.Encode(msg)
	if err != nil {
		c.logger.WithError(err).Error("failed to encode message")
		return
	}

	// Hold the read lock while queueing so shutdown cannot close sendCh
	// underneath us.
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	select {
	case c.sendCh <- data:
		c.mu.RUnlock()
		return
	default:
		c.mu.RUnlock()
	}

	c.logger.WithField("buffer", cap(c.sendCh)).Warn("send buffer full, dropping slow connection")
	c.closeWithCode(websocket.ClosePolicyViolation, questnet.ReasonSendBufferFull)
}

// Close requests termination of the connection with a normal closure
func (c *Connection) Close(reason string) {
	c.closeWithCode(websocket.CloseNormalClosure, reason)
}

func (c *Connection) closeWithCode(code int, reason string) {
	c.logger.WithFields(logrus.Fields{
		"code":   code,
		"reason": reason,
	}).Infof("closing connection to %s", c.remoteAddr)
	c.shutdown(code, reason)
}

// shutdown moves the connection to CLOSED and hands the close frame to the
// write pump, which then closes the socket. It reports whether this call
// performed the transition.
func (c *Connection) shutdown(code int, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.closed = true
	c.closeFrame = websocket.FormatCloseMessage(code, truncateReason(reason))
	c.cancel()
	close(c.sendCh)
	return true
}

// maxCloseReason is the largest reason that fits a close control frame: a
// 125-byte payload minus the 2-byte code.
const maxCloseReason = 123

// truncateReason shortens reason to fit a close frame without splitting a
// UTF-8 sequence.
func truncateReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

// run reads frames until the socket fails or the connection closes, then
// tears the connection down. Handlers are invoked from this goroutine only.
func (c *Connection) run() {
	defer c.finish()

	c.conn.SetReadLimit(c.maxSize)
	c.conn.SetReadDeadline(time.Now().Add(c.keepalive.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.keepalive.ReadTimeout))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(c.keepalive.ReadTimeout))

		if c.limiter != nil && !c.limiter.Allow() {
			c.logger.Warn("rate limit exceeded")
			c.closeWithCode(websocket.ClosePolicyViolation, questnet.ReasonRateLimited)
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			reason := questnet.ReasonInvalidMessage
			if messageType == websocket.BinaryMessage {
				reason = questnet.ReasonInvalidBinaryMessage
			}
			c.logger.WithError(err).Error(reason)
			c.closeWithCode(websocket.CloseUnsupportedData, reason)
			return
		}

		if handler := c.messageHandler(); handler != nil {
			handler(msg)
		}
	}
}

func (c *Connection) logReadError(err error) {
	if !c.IsAlive() {
		// We initiated the close; the read error is its echo.
		return
	}

	sockErr := &questnet.SocketError{ConnectionID: c.id, Err: err}

	var closeErr *websocket.CloseError
	switch {
	case errors.As(err, &closeErr) && !websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.logger.WithField("code", closeErr.Code).Debug("connection closed by peer")
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.WithError(sockErr).WithField("limit", c.maxSize).Warn("inbound frame too large")
	default:
		c.logger.WithError(sockErr).Warn("connection error")
	}
}

// finish runs the CLOSED transition effects exactly once: fire OnClose, then
// leave the registry.
func (c *Connection) finish() {
	c.finishOnce.Do(func() {
		c.shutdown(websocket.CloseNormalClosure, "")

		if handler := c.closeHandler(); handler != nil {
			handler()
		}
		c.registry.RemoveConnection(c.id)

		c.handlersMu.Lock()
		c.onMessage = nil
		c.onClose = nil
		c.handlersMu.Unlock()

		c.logger.Debug("connection closed")
	})
}

// writePump pumps messages from the send channel to the websocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.keepalive.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sendCh:
			if !ok {
				// Channel closed by shutdown
				c.mu.RLock()
				frame := c.closeFrame
				c.mu.RUnlock()
				c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(c.keepalive.WriteTimeout))
			if err := c.conn.WriteMessage(c.frameType, message); err != nil {
				c.logger.WithError(err).Debug("write failed")
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			c.conn.SetWriteDeadline(time.Now().Add(c.keepalive.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
