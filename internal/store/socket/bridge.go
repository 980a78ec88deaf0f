// Package socket owns the realtime channel and turns its events into game
// store commands.
package socket

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/protocol"
	"github.com/palemoky/tagracer/internal/transport"
)

// GameCommands is the part of the game store the bridge drives.
type GameCommands interface {
	HandleScoreUpdate(p protocol.ScoreUpdatePayload)
	HandleGameOver()
}

// GameStartedHandler is implemented by commands that also accept
// game_started announcements.
type GameStartedHandler interface {
	HandleGameStarted(p protocol.GameStartedPayload)
}

// Bridge supervises at most one realtime channel at a time.
type Bridge struct {
	open     transport.Opener
	cmds     GameCommands
	onChange func()

	mu        sync.RWMutex
	channel   transport.Channel
	connected bool
}

// New creates a Bridge. onChange, when not nil, is called after every
// connection status change.
func New(open transport.Opener, cmds GameCommands, onChange func()) *Bridge {
	return &Bridge{
		open:     open,
		cmds:     cmds,
		onChange: onChange,
	}
}

// Init opens a fresh channel, closing the one currently held.
func (b *Bridge) Init() {
	b.Disconnect()

	ch := b.open()

	ch.On(protocol.EventConnect, b.guard(ch, func(*protocol.Message) {
		log.Info().Msg("realtime channel connected")
		b.setConnected(true)
	}))
	ch.On(protocol.EventDisconnect, b.guard(ch, func(*protocol.Message) {
		log.Warn().Msg("realtime channel disconnected")
		b.setConnected(false)
	}))
	ch.On(protocol.EventScoreUpdate, b.guard(ch, b.onScoreUpdate))
	ch.On(protocol.EventGameOver, b.guard(ch, func(*protocol.Message) {
		b.cmds.HandleGameOver()
	}))
	ch.On(protocol.EventGameStarted, b.guard(ch, b.onGameStarted))
	ch.On(protocol.EventPlayerJoined, b.guard(ch, b.onPlayerJoined))

	b.mu.Lock()
	b.channel = ch
	b.mu.Unlock()

	ch.Start()
}

// Disconnect closes the held channel, if any, and marks the bridge
// disconnected.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	ch := b.channel
	if ch == nil {
		b.mu.Unlock()
		return
	}
	b.channel = nil
	wasConnected := b.connected
	b.connected = false
	b.mu.Unlock()

	ch.Close()
	log.Info().Msg("realtime channel closed")
	if wasConnected {
		b.changed()
	}
}

// Connected reports whether the channel's last boundary event was connect.
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// guard drops events from channels that are no longer the current one.
func (b *Bridge) guard(ch transport.Channel, h transport.Handler) transport.Handler {
	return func(msg *protocol.Message) {
		b.mu.RLock()
		current := b.channel == ch
		b.mu.RUnlock()
		if !current {
			log.Debug().Str("event", string(msg.Type)).Msg("event from stale channel dropped")
			return
		}
		h(msg)
	}
}

func (b *Bridge) onScoreUpdate(msg *protocol.Message) {
	p, err := protocol.ParsePayload[protocol.ScoreUpdatePayload](msg)
	if err != nil {
		log.Warn().Err(err).Msg("malformed score_update dropped")
		return
	}
	b.cmds.HandleScoreUpdate(*p)
}

func (b *Bridge) onGameStarted(msg *protocol.Message) {
	h, ok := b.cmds.(GameStartedHandler)
	if !ok {
		return
	}
	p, err := protocol.ParsePayload[protocol.GameStartedPayload](msg)
	if err != nil {
		log.Warn().Err(err).Msg("malformed game_started dropped")
		return
	}
	h.HandleGameStarted(*p)
}

func (b *Bridge) onPlayerJoined(msg *protocol.Message) {
	p, err := protocol.ParsePayload[protocol.PlayerJoinedPayload](msg)
	if err != nil {
		return
	}
	log.Info().Int64("game_id", p.GameID).Str("player_id", p.PlayerID).Msg("player joined")
}

func (b *Bridge) setConnected(connected bool) {
	b.mu.Lock()
	changed := b.connected != connected
	b.connected = connected
	b.mu.Unlock()

	if changed {
		b.changed()
	}
}

func (b *Bridge) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
