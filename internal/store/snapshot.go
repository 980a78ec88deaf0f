package store

import (
	"time"

	"github.com/palemoky/tagracer/internal/store/game"
	"github.com/palemoky/tagracer/internal/store/notify"
)

// Snapshot is a read-only copy of the state tree.
type Snapshot struct {
	Session       *game.Session         `json:"session"`
	Status        game.Status           `json:"status,omitempty"`
	Scores        []game.ScoreEntry     `json:"scores"`
	Activity      []game.ActivityEvent  `json:"activity"`
	Connected     bool                  `json:"connected"`
	LastError     string                `json:"last_error,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
	TakenAt       time.Time             `json:"taken_at"`
}

// Leader returns the top scorer.
func (s Snapshot) Leader() (game.ScoreEntry, bool) {
	return game.TopScorer(s.Scores)
}

// LatestActivity returns the newest activity event.
func (s Snapshot) LatestActivity() (game.ActivityEvent, bool) {
	if len(s.Activity) == 0 {
		return game.ActivityEvent{}, false
	}
	return s.Activity[0], true
}
