// Package game holds the current session, the score ledger and the
// recent-activity feed.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/api"
	"github.com/palemoky/tagracer/internal/apperrors"
	"github.com/palemoky/tagracer/internal/protocol"
)

// API is the HTTP collaborator consumed by the store.
type API interface {
	StartGame(ctx context.Context) (*api.Game, error)
	CurrentGame(ctx context.Context) (*api.CurrentGame, error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for activity timestamps and session status.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithGameDuration sets the duration attached to new sessions.
func WithGameDuration(d time.Duration) Option {
	return func(s *Store) { s.gameDuration = d }
}

// WithOnChange registers a hook called after every state change, outside the
// store lock.
func WithOnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// Store is the single source of truth for the current game.
type Store struct {
	api          API
	clock        clockwork.Clock
	gameDuration time.Duration
	onChange     func()

	mu       sync.RWMutex
	session  *Session
	scores   []ScoreEntry
	activity []ActivityEvent
	lastErr  string
}

// New creates a Store.
func New(client API, opts ...Option) *Store {
	s := &Store{
		api:          client,
		clock:        clockwork.NewRealClock(),
		gameDuration: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Commands ---

// StartNewGame starts a game through the API and makes it the current
// session. Failures are recorded as the last error and returned.
func (s *Store) StartNewGame(ctx context.Context) (*Session, error) {
	g, err := s.api.StartGame(ctx)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	session := s.newSession(g)
	s.mutate(func() {
		s.session = &session
		s.lastErr = ""
	})
	log.Info().Int64("game_id", session.GameID).Msg("game started")
	return &session, nil
}

// FetchCurrentGame loads the running game and its scores. When the server has
// no running game the store is cleared and (nil, nil) is returned.
func (s *Store) FetchCurrentGame(ctx context.Context) (*Session, error) {
	current, err := s.api.CurrentGame(ctx)
	if apperrors.IsNotFound(err) {
		log.Debug().Msg("no active game")
		s.mutate(s.clear)
		return nil, nil
	}
	if err != nil {
		s.setError(err)
		return nil, err
	}

	session := s.newSession(&current.Game)
	scores := make([]ScoreEntry, 0, len(current.Scores))
	for _, sc := range current.Scores {
		scores = append(scores, ScoreEntry{
			PlayerID: sc.PlayerID,
			Nickname: sc.Nickname,
			Points:   sc.Points,
			TagCount: sc.TagCount,
		})
	}

	s.mutate(func() {
		s.session = &session
		s.scores = scores
		s.lastErr = ""
	})
	return &session, nil
}

// HandleScoreUpdate applies a score_update event. The score of an unknown
// player is dropped, but the activity is always recorded.
func (s *Store) HandleScoreUpdate(p protocol.ScoreUpdatePayload) {
	s.mutate(func() {
		event := ActivityEvent{
			ID:        newActivityID(),
			Player:    p.DisplayName(),
			Points:    p.Points,
			TagID:     p.TagID,
			Timestamp: s.clock.Now(),
		}

		if entry := s.findScore(p.PlayerID); entry != nil {
			entry.Points = p.Points
			entry.TagCount++
		} else {
			// TODO: decide with product whether late joiners should be appended to the roster
			log.Debug().Str("player_id", p.PlayerID).Msg("score update for unknown player")
		}

		s.activity = append([]ActivityEvent{event}, s.activity...)
		if len(s.activity) > MaxActivity {
			s.activity = s.activity[:MaxActivity]
		}
	})
}

// HandleGameOver clears the session, scores and activity.
func (s *Store) HandleGameOver() {
	s.mutate(s.clear)
	log.Info().Msg("game over")
}

// HandleGameStarted adopts a session announced over the realtime channel.
// The score list is reset since the new game has no scores yet.
func (s *Store) HandleGameStarted(p protocol.GameStartedPayload) {
	start, err := api.ParseTimestamp(p.StartTime)
	if err != nil {
		log.Warn().Err(err).Int64("game_id", p.GameID).Msg("bad game_started start_time")
	}
	session := s.newSession(&api.Game{GameID: p.GameID, StartTime: api.Timestamp{Time: start}})

	s.mutate(func() {
		if s.session != nil && s.session.GameID == session.GameID {
			return
		}
		s.session = &session
		s.scores = nil
		s.activity = nil
	})
}

// --- Queries ---

// Session returns a copy of the current session, or nil.
func (s *Store) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// Status returns the current session status, or "" without a session.
func (s *Store) Status() Status {
	session := s.Session()
	if session == nil {
		return ""
	}
	return session.StatusAt(s.clock.Now())
}

// Scores returns a copy of the score list in insertion order.
func (s *Store) Scores() []ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ScoreEntry(nil), s.scores...)
}

// Activity returns a copy of the activity feed, newest first.
func (s *Store) Activity() []ActivityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityEvent(nil), s.activity...)
}

// LastError returns the last recorded error message, or "".
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Leader returns the entry with the most points. Ties go to the earlier entry.
func (s *Store) Leader() (ScoreEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TopScorer(s.scores)
}

// --- internal ---

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange()
	}
}

// clear must be called with mu held.
func (s *Store) clear() {
	s.session = nil
	s.scores = nil
	s.activity = nil
}

func (s *Store) setError(err error) {
	log.Error().Err(err).Msg("game store command failed")
	s.mutate(func() { s.lastErr = err.Error() })
}

// findScore must be called with mu held.
func (s *Store) findScore(playerID string) *ScoreEntry {
	for i := range s.scores {
		if s.scores[i].PlayerID == playerID {
			return &s.scores[i]
		}
	}
	return nil
}

func (s *Store) newSession(g *api.Game) Session {
	start := g.StartTime.Time
	if start.IsZero() {
		start = s.clock.Now()
	}
	return Session{
		GameID:    g.GameID,
		StartTime: start,
		Duration:  s.gameDuration,
	}
}

// newActivityID returns a time-ordered id.
func newActivityID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
