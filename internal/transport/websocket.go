package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/apperrors"
	"github.com/palemoky/tagracer/internal/logger"
	"github.com/palemoky/tagracer/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	sendBufferSize   = 64

	defaultReconnectInterval = 1 * time.Second
	maxReconnectInterval     = 30 * time.Second
)

// WebSocketOption configures a WebSocketChannel.
type WebSocketOption func(*WebSocketChannel)

// WithReconnectInterval sets the first reconnect delay. It doubles on every
// failed attempt up to maxInterval.
func WithReconnectInterval(initial, maxInterval time.Duration) WebSocketOption {
	return func(c *WebSocketChannel) {
		c.reconnectInterval = initial
		c.maxReconnectInterval = maxInterval
	}
}

// WithMaxReconnectAttempts caps consecutive failed dials. 0 retries forever.
func WithMaxReconnectAttempts(n int) WebSocketOption {
	return func(c *WebSocketChannel) { c.maxAttempts = n }
}

// WebSocketChannel is a Channel over a JSON websocket that reconnects with
// exponential backoff until closed.
type WebSocketChannel struct {
	url    string
	dialer websocket.Dialer

	reconnectInterval    time.Duration
	maxReconnectInterval time.Duration
	maxAttempts          int

	handlers handlers
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
}

// NewWebSocket creates an unstarted channel for url (ws:// or wss://).
func NewWebSocket(url string, opts ...WebSocketOption) *WebSocketChannel {
	c := &WebSocketChannel{
		url: url,
		dialer: websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		reconnectInterval:    defaultReconnectInterval,
		maxReconnectInterval: maxReconnectInterval,
		handlers:             make(handlers),
		send:                 make(chan []byte, sendBufferSize),
		done:                 make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WebSocketOpener returns an Opener producing WebSocketChannels for url.
func WebSocketOpener(url string, opts ...WebSocketOption) Opener {
	return func() Channel {
		return NewWebSocket(url, opts...)
	}
}

// On registers h for event. Must be called before Start.
func (c *WebSocketChannel) On(event protocol.EventType, h Handler) {
	c.handlers[event] = h
}

// Start connects in the background. Calling it twice has no effect.
func (c *WebSocketChannel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	c.wg.Add(1)
	go c.run()
}

// Close stops reconnecting and closes the connection. Safe to call more than
// once, and from a handler.
func (c *WebSocketChannel) Close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
}

// Wait blocks until the background goroutine has exited. It returns at once
// for channels that were never started.
func (c *WebSocketChannel) Wait() {
	c.wg.Wait()
}

// Send queues msg for the server.
func (c *WebSocketChannel) Send(msg *protocol.Message) error {
	select {
	case <-c.done:
		return apperrors.ErrChannelClosed
	default:
	}

	data, err := msg.Encode()
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return apperrors.ErrSendBufferFull
	}
}

// IsClosed reports whether Close has been called.
func (c *WebSocketChannel) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// run owns the connection lifecycle. Every handler runs on this goroutine.
func (c *WebSocketChannel) run() {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()

	backoff := c.reconnectInterval
	attempts := 0

	for {
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			attempts++
			log.Warn().Err(err).Str("url", c.url).Int("attempt", attempts).Msg("dial failed")
			if c.maxAttempts > 0 && attempts >= c.maxAttempts {
				log.Error().Int("attempts", attempts).Msg("giving up reconnecting")
				return
			}
			if !c.wait(backoff) {
				return
			}
			backoff = min(backoff*2, c.maxReconnectInterval)
			continue
		}

		if !c.attach(conn) {
			_ = conn.Close()
			return
		}
		attempts = 0
		backoff = c.reconnectInterval

		c.emit(protocol.EventConnect)
		c.serve(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.IsClosed() {
			return
		}
		c.emit(protocol.EventDisconnect)

		if !c.wait(backoff) {
			return
		}
	}
}

// attach records conn as current unless the channel was closed meanwhile.
func (c *WebSocketChannel) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.IsClosed() {
		return false
	}
	c.conn = conn
	return true
}

// serve runs the write pump and reads until the connection drops.
func (c *WebSocketChannel) serve(conn *websocket.Conn) {
	stop := make(chan struct{})
	var pump sync.WaitGroup
	pump.Add(1)
	go func() {
		defer pump.Done()
		c.writePump(conn, stop)
	}()

	c.readPump(conn)

	close(stop)
	pump.Wait()
	_ = conn.Close()
}

func (c *WebSocketChannel) readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !c.IsClosed() {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Msg("undecodable message dropped")
			continue
		}
		if msg.Type.IsLifecycle() {
			log.Warn().Str("event", string(msg.Type)).Msg("server sent a lifecycle event, dropped")
			continue
		}
		c.deliver(msg)
	}
}

func (c *WebSocketChannel) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = conn.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}

		case <-stop:
			return
		}
	}
}

func (c *WebSocketChannel) emit(event protocol.EventType) {
	c.deliver(&protocol.Message{Type: event})
}

func (c *WebSocketChannel) deliver(msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	if !c.handlers.dispatch(msg) {
		log.Debug().Str("event", string(msg.Type)).Msg("no handler for event")
	}
}

// wait sleeps for d unless the channel is closed first.
func (c *WebSocketChannel) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	}
}
