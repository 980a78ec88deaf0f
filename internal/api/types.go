package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Game is returned by POST /games/start.
type Game struct {
	GameID    int64     `json:"game_id"`
	StartTime Timestamp `json:"start_time"`
}

// Score is one row of the current game's score list.
type Score struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Points   int    `json:"points"`
	TagCount int    `json:"tag_count"`
}

// CurrentGame is returned by GET /games/current.
type CurrentGame struct {
	Game
	Scores []Score `json:"scores"`
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO 8601 form the
// server emits, which is interpreted as UTC.
type Timestamp struct {
	time.Time
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses s as RFC 3339 or as zone-less ISO 8601 in UTC. An
// empty string yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed, nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
