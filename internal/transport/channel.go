// Package transport provides realtime channels that deliver server events.
package transport

import "github.com/palemoky/tagracer/internal/protocol"

// Handler receives one event. Handlers run on the channel's delivery
// goroutine, one at a time, in delivery order.
type Handler func(msg *protocol.Message)

// Channel is a single realtime channel. Handlers must be registered before
// Start; the channel then connects in the background, reconnecting on its own
// and reporting protocol.EventConnect / protocol.EventDisconnect at each
// boundary.
type Channel interface {
	On(event protocol.EventType, h Handler)
	Start()
	Close()
}

// Opener creates a fresh, unstarted channel.
type Opener func() Channel

// handlers is the registry shared by channel implementations.
type handlers map[protocol.EventType]Handler

func (hs handlers) dispatch(msg *protocol.Message) bool {
	h, ok := hs[msg.Type]
	if !ok {
		return false
	}
	h(msg)
	return true
}
