package game

import (
	"time"

	"github.com/google/uuid"
)

// MaxActivity caps the recent-activity feed.
const MaxActivity = 10

// Status is derived from a session's start time and duration.
type Status string

const (
	StatusRunning  Status = "running"
	StatusOvertime Status = "overtime"
)

// Session is the active game.
type Session struct {
	GameID    int64         `json:"game_id"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// StatusAt derives the session status at now.
func (s Session) StatusAt(now time.Time) Status {
	if s.Duration > 0 && !now.Before(s.StartTime.Add(s.Duration)) {
		return StatusOvertime
	}
	return StatusRunning
}

// RemainingAt returns the time left at now, never negative.
func (s Session) RemainingAt(now time.Time) time.Duration {
	left := s.StartTime.Add(s.Duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// ScoreEntry is one player's row in the score list.
type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Points   int    `json:"points"`
	TagCount int    `json:"tag_count"`
}

// DisplayName returns the nickname, falling back to the player id.
func (e ScoreEntry) DisplayName() string {
	if e.Nickname != "" {
		return e.Nickname
	}
	return e.PlayerID
}

// TopScorer returns the entry with the most points. Ties go to the earlier
// entry.
func TopScorer(scores []ScoreEntry) (ScoreEntry, bool) {
	if len(scores) == 0 {
		return ScoreEntry{}, false
	}
	best := scores[0]
	for _, e := range scores[1:] {
		if e.Points > best.Points {
			best = e
		}
	}
	return best, true
}

// ActivityEvent records one scoring occurrence. Never mutated.
type ActivityEvent struct {
	ID        uuid.UUID `json:"id"`
	Player    string    `json:"player"`
	Points    int       `json:"points"`
	TagID     string    `json:"tag_id"`
	Timestamp time.Time `json:"timestamp"`
}
