// Package protocol defines the realtime events exchanged with the TagRacer server.
package protocol

import "encoding/json"

// Message is the envelope carried by the realtime channel.
type Message struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventType names a realtime event.
type EventType string

// Lifecycle events, synthesised locally by the channel when the connection
// opens or drops. The server never sends them.
const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
)

// Server -> client events
const (
	EventScoreUpdate  EventType = "score_update"  // a tag was scanned
	EventGameOver     EventType = "game_over"     // the running game ended
	EventGameStarted  EventType = "game_started"  // POST /games/start succeeded somewhere
	EventPlayerJoined EventType = "player_joined" // a player joined the running game
)

// Client -> server events
const (
	EventJoinGame EventType = "join_game"
)

// IsLifecycle reports whether t is a locally synthesised connection event.
func (t EventType) IsLifecycle() bool {
	return t == EventConnect || t == EventDisconnect
}
