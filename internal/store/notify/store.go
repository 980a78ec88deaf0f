// Package notify manages ephemeral alerts that decay and expire on their own.
package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/logger"
)

// DefaultTickInterval is one display refresh at 60Hz.
const DefaultTickInterval = time.Second / 60

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock driving the decay loops.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithTickInterval sets the decay refresh interval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithSequence shares an id sequence between stores.
func WithSequence(seq *Sequence) Option {
	return func(s *Store) { s.seq = seq }
}

// WithOnChange registers a hook called after every change, outside the lock.
// Decay ticks call it too, from the decay goroutines.
func WithOnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// Store holds the live notifications.
type Store struct {
	clock    clockwork.Clock
	tick     time.Duration
	seq      *Sequence
	onChange func()

	mu    sync.RWMutex
	items []*Notification
	loops map[uint64]chan struct{}
	wg    sync.WaitGroup
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		clock: clockwork.NewRealClock(),
		tick:  DefaultTickInterval,
		loops: make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seq == nil {
		s.seq = &Sequence{}
	}
	return s
}

// Add inserts a notification at full progress and, when it has a duration,
// starts its decay loop. It returns the new id.
func (s *Store) Add(spec Spec) uint64 {
	n := &Notification{
		ID:        s.seq.Next(),
		Kind:      spec.Kind,
		Title:     spec.Title,
		Message:   spec.Message,
		Duration:  spec.Duration,
		Progress:  100,
		CreatedAt: s.clock.Now(),
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	if n.Expires() {
		stop := make(chan struct{})
		s.loops[n.ID] = stop
		ticker := s.clock.NewTicker(s.tick)
		s.wg.Add(1)
		go s.decay(n.ID, n.CreatedAt, n.Duration, ticker, stop)
	}
	s.mu.Unlock()

	log.Debug().
		Uint64("id", n.ID).
		Str("kind", string(n.Kind)).
		Dur("duration", n.Duration).
		Msg("notification added")
	s.changed()
	return n.ID
}

// Remove deletes the notification and stops its decay loop. Unknown ids are
// ignored.
func (s *Store) Remove(id uint64) {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()

	if removed {
		s.changed()
	}
}

// ShowSuccess adds a success notification (default 5s).
func (s *Store) ShowSuccess(title, message string, duration ...time.Duration) uint64 {
	return s.show(KindSuccess, title, message, duration)
}

// ShowError adds an error notification (default 8s).
func (s *Store) ShowError(title, message string, duration ...time.Duration) uint64 {
	return s.show(KindError, title, message, duration)
}

// ShowWarning adds a warning notification (default 6s).
func (s *Store) ShowWarning(title, message string, duration ...time.Duration) uint64 {
	return s.show(KindWarning, title, message, duration)
}

// ShowInfo adds an info notification (default 4s).
func (s *Store) ShowInfo(title, message string, duration ...time.Duration) uint64 {
	return s.show(KindInfo, title, message, duration)
}

func (s *Store) show(kind Kind, title, message string, duration []time.Duration) uint64 {
	d := kind.DefaultDuration()
	if len(duration) > 0 {
		d = duration[0]
	}
	return s.Add(Spec{Kind: kind, Title: title, Message: message, Duration: d})
}

// List returns copies of the live notifications in insertion order.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.items))
	for i, n := range s.items {
		out[i] = *n
	}
	return out
}

// Get returns a copy of the notification with id.
func (s *Store) Get(id uint64) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.findLocked(id); n != nil {
		return *n, true
	}
	return Notification{}, false
}

// Len returns the number of live notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close stops every decay loop and waits for them to exit. Notifications
// stay in place.
func (s *Store) Close() {
	s.mu.Lock()
	for id, stop := range s.loops {
		close(stop)
		delete(s.loops, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// decay recomputes one notification's progress on every tick until it
// reaches 0 or the notification disappears.
func (s *Store) decay(id uint64, start time.Time, duration time.Duration, ticker clockwork.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			progress := decayProgress(s.clock.Since(start), duration)
			found, alive := s.setProgress(id, progress)
			if found {
				s.changed()
			}
			if !alive {
				return
			}
		}
	}
}

// setProgress updates the notification's progress, removing it once progress
// reaches 0. It reports whether the notification existed and whether it is
// still live.
func (s *Store) setProgress(id uint64, progress float64) (found, alive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.findLocked(id)
	if n == nil {
		return false, false
	}
	if progress < n.Progress {
		n.Progress = progress
	}
	if n.Progress <= 0 {
		s.removeLocked(id)
		log.Debug().Uint64("id", id).Msg("notification expired")
		return true, false
	}
	return true, true
}

// removeLocked must be called with mu held.
func (s *Store) removeLocked(id uint64) bool {
	if stop, ok := s.loops[id]; ok {
		close(stop)
		delete(s.loops, id)
	}
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// findLocked must be called with mu held.
func (s *Store) findLocked(id uint64) *Notification {
	for _, n := range s.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (s *Store) loopCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loops)
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
