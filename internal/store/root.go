// Package store composes the game store, the connection bridge and the
// notification store into one state tree.
package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/tagracer/internal/store/game"
	"github.com/palemoky/tagracer/internal/store/notify"
	"github.com/palemoky/tagracer/internal/store/socket"
	"github.com/palemoky/tagracer/internal/transport"
)

// Option configures a Root.
type Option func(*options)

type options struct {
	clock        clockwork.Clock
	gameDuration time.Duration
	tickInterval time.Duration
}

// WithClock sets the clock shared by the game and notification stores.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithGameDuration sets the session duration.
func WithGameDuration(d time.Duration) Option {
	return func(o *options) { o.gameDuration = d }
}

// WithTickInterval sets the notification decay tick.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) { o.tickInterval = d }
}

// Root is the application state tree.
type Root struct {
	Game   *game.Store
	Socket *socket.Bridge
	Notify *notify.Store

	mu      sync.RWMutex
	subs    []chan struct{}
	changes <-chan struct{}
	clock   clockwork.Clock
}

// NewRoot wires the three stores. The bridge drives the game store through
// its command interface; no store knows about the others.
func NewRoot(client game.API, open transport.Opener, opts ...Option) *Root {
	o := options{
		clock:        clockwork.NewRealClock(),
		gameDuration: 5 * time.Minute,
		tickInterval: notify.DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Root{clock: o.clock}
	r.changes = r.Subscribe()

	r.Game = game.New(client,
		game.WithClock(o.clock),
		game.WithGameDuration(o.gameDuration),
		game.WithOnChange(r.notify),
	)
	r.Notify = notify.New(
		notify.WithClock(o.clock),
		notify.WithTickInterval(o.tickInterval),
		notify.WithOnChange(r.notify),
	)
	r.Socket = socket.New(open, r.Game, r.notify)
	return r
}

// Changes signals that some part of the tree changed. Signals coalesce:
// a reader that falls behind sees one pending signal, not a backlog.
func (r *Root) Changes() <-chan struct{} {
	return r.changes
}

// Subscribe returns a new coalescing change channel.
func (r *Root) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

func (r *Root) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot copies the observable state. Each store is read atomically;
// the stores are not read under one common lock.
func (r *Root) Snapshot() Snapshot {
	snap := Snapshot{
		Scores:        r.Game.Scores(),
		Activity:      r.Game.Activity(),
		LastError:     r.Game.LastError(),
		Connected:     r.Socket.Connected(),
		Notifications: r.Notify.List(),
		TakenAt:       r.clock.Now(),
	}
	if s := r.Game.Session(); s != nil {
		snap.Session = s
		snap.Status = s.StatusAt(snap.TakenAt)
	}
	return snap
}

// Close disconnects the channel and stops every decay loop.
func (r *Root) Close() {
	r.Socket.Disconnect()
	r.Notify.Close()
}
