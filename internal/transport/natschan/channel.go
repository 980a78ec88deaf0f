// Package natschan delivers realtime events published on NATS subjects
// <prefix>.<event>, with the event payload as the message body.
package natschan

import (
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/logger"
	"github.com/palemoky/tagracer/internal/protocol"
	"github.com/palemoky/tagracer/internal/transport"
)

const queueSize = 256

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Subject       string // subject prefix, e.g. "tagracer.events"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       "tagracer.events",
		MaxReconnects: -1, // forever
		ReconnectWait: 2 * time.Second,
	}
}

// Channel is a transport.Channel backed by a NATS subscription.
type Channel struct {
	cfg      Config
	handlers map[protocol.EventType]transport.Handler

	queue chan *protocol.Message
	done  chan struct{}
	once  sync.Once

	mu        sync.Mutex
	nc        *nats.Conn
	started   bool
	connected bool
}

// New creates an unstarted channel.
func New(cfg Config) *Channel {
	return &Channel{
		cfg:      cfg,
		handlers: make(map[protocol.EventType]transport.Handler),
		queue:    make(chan *protocol.Message, queueSize),
		done:     make(chan struct{}),
	}
}

// Opener returns a transport.Opener producing channels for cfg.
func Opener(cfg Config) transport.Opener {
	return func() transport.Channel {
		return New(cfg)
	}
}

// On registers h for event. Must be called before Start.
func (c *Channel) On(event protocol.EventType, h transport.Handler) {
	c.handlers[event] = h
}

// Start connects in the background.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.dispatch()
	go c.connect()
}

// Close drains the subscription and closes the connection.
func (c *Channel) Close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		nc := c.nc
		c.nc = nil
		c.mu.Unlock()
		if nc != nil {
			nc.Close()
		}
	})
}

func (c *Channel) connect() {
	opts := []nats.Option{
		nats.Name("tagracer-scoreboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.ConnectHandler(func(nc *nats.Conn) {
			c.setConnected(true)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			c.setConnected(true)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
			c.setConnected(false)
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(c.cfg.URL, opts...)
	if err != nil {
		log.Error().Err(err).Str("url", c.cfg.URL).Msg("connect to NATS")
		return
	}

	if _, err := nc.Subscribe(c.cfg.Subject+".>", c.handleMsg); err != nil {
		log.Error().Err(err).Str("subject", c.cfg.Subject).Msg("subscribe")
		nc.Close()
		return
	}

	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		nc.Close()
		return
	}
	c.nc = nc
	c.mu.Unlock()

	if nc.IsConnected() {
		c.setConnected(true)
	}
}

// handleMsg maps a NATS message onto an event envelope.
func (c *Channel) handleMsg(m *nats.Msg) {
	event, ok := eventFromSubject(c.cfg.Subject, m.Subject)
	if !ok || event.IsLifecycle() {
		log.Debug().Str("subject", m.Subject).Msg("ignored NATS subject")
		return
	}
	c.enqueue(&protocol.Message{Type: event, Payload: append([]byte(nil), m.Data...)})
}

// setConnected enqueues a lifecycle event when the state actually changes.
func (c *Channel) setConnected(connected bool) {
	c.mu.Lock()
	changed := c.connected != connected
	c.connected = connected
	c.mu.Unlock()
	if !changed {
		return
	}

	event := protocol.EventDisconnect
	if connected {
		event = protocol.EventConnect
	}
	c.enqueue(&protocol.Message{Type: event})
}

func (c *Channel) enqueue(msg *protocol.Message) {
	select {
	case c.queue <- msg:
	case <-c.done:
	}
}

// dispatch runs every handler on one goroutine, in arrival order.
func (c *Channel) dispatch() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()

	for {
		select {
		case msg := <-c.queue:
			if h, ok := c.handlers[msg.Type]; ok {
				h(msg)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// eventFromSubject extracts the event name from prefix.<event>.
func eventFromSubject(prefix, subject string) (protocol.EventType, bool) {
	rest, ok := strings.CutPrefix(subject, prefix+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return "", false
	}
	return protocol.EventType(rest), true
}
