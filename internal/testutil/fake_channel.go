//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/tagracer/internal/protocol"
	"github.com/palemoky/tagracer/internal/transport"
)

// FakeChannel is an in-memory transport.Channel driven by Emit.
type FakeChannel struct {
	mu       sync.Mutex
	handlers map[protocol.EventType]transport.Handler
	started  bool
	closed   bool
}

// NewFakeChannel creates an unstarted FakeChannel.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{handlers: make(map[protocol.EventType]transport.Handler)}
}

func (c *FakeChannel) On(event protocol.EventType, h transport.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

func (c *FakeChannel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
}

func (c *FakeChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Emit delivers an event with payload to the registered handler, if any.
// Nothing is delivered once the channel is closed.
func (c *FakeChannel) Emit(event protocol.EventType, payload any) {
	c.mu.Lock()
	h, ok := c.handlers[event]
	closed := c.closed
	c.mu.Unlock()
	if !ok || closed {
		return
	}
	h(protocol.MustNewMessage(event, payload))
}

// EmitRaw delivers a prebuilt message.
func (c *FakeChannel) EmitRaw(msg *protocol.Message) {
	c.mu.Lock()
	h, ok := c.handlers[msg.Type]
	c.mu.Unlock()
	if ok {
		h(msg)
	}
}

func (c *FakeChannel) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *FakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeChannel) HasHandler(event protocol.EventType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[event]
	return ok
}

// FakeOpener records every channel it opens.
type FakeOpener struct {
	mu       sync.Mutex
	Channels []*FakeChannel
}

// Open implements transport.Opener.
func (o *FakeOpener) Open() transport.Channel {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := NewFakeChannel()
	o.Channels = append(o.Channels, ch)
	return ch
}

// Last returns the most recently opened channel, or nil.
func (o *FakeOpener) Last() *FakeChannel {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Channels) == 0 {
		return nil
	}
	return o.Channels[len(o.Channels)-1]
}
