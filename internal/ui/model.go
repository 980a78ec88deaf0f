// Package ui renders the live scoreboard in the terminal.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/sound"
	"github.com/palemoky/tagracer/internal/store"
	"github.com/palemoky/tagracer/internal/store/game"
	"github.com/palemoky/tagracer/internal/ui/view"
)

const defaultRequestTimeout = 10 * time.Second

// action is a user command that talks to the API.
type action string

const (
	actionStart   action = "start"
	actionRefresh action = "refresh"
)

// changedMsg signals that the state tree changed.
type changedMsg struct{}

// tickMsg drives the session countdown.
type tickMsg time.Time

// commandDoneMsg carries the outcome of an API command.
type commandDoneMsg struct {
	action  action
	session *game.Session
	err     error
}

// Option configures a Model.
type Option func(*Model)

// WithSound plays cues through p.
func WithSound(p *sound.Player) Option {
	return func(m *Model) { m.sound = p }
}

// WithClock sets the clock used for the countdown.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Model) { m.clock = clock }
}

// WithRequestTimeout bounds each API command.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// Model is the scoreboard tea.Model.
type Model struct {
	root    *store.Root
	changes <-chan struct{}
	sound   *sound.Player
	clock   clockwork.Clock
	timeout time.Duration

	keys keyMap
	help help.Model
	bar  progress.Model

	snap     store.Snapshot
	width    int
	height   int
	quitting bool
}

// New creates the scoreboard model for root.
func New(root *store.Root, opts ...Option) *Model {
	m := &Model{
		root:    root,
		changes: root.Changes(),
		clock:   clockwork.NewRealClock(),
		timeout: defaultRequestTimeout,
		keys:    defaultKeyMap(),
		help:    help.New(),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.snap = root.Snapshot()
	return m
}

// Init starts listening for changes and loads the current game.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForChange(),
		m.refresh(),
		m.tick(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case changedMsg:
		m.applySnapshot(m.root.Snapshot())
		return m, m.waitForChange()

	case tickMsg:
		return m, m.tick()

	case commandDoneMsg:
		m.handleCommandDone(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return view.Scoreboard(m.snap, m.clock.Now(), m.bar, m.help.View(m.keys), m.width)
}

// Snapshot returns the state last rendered.
func (m *Model) Snapshot() store.Snapshot {
	return m.snap
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m.startGame()
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.Reconnect):
		m.root.Socket.Init()
		m.root.Notify.ShowInfo("Reconnecting", "opening a new realtime channel")
	case key.Matches(msg, m.keys.Dismiss):
		m.dismissNewest()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleCommandDone(msg commandDoneMsg) {
	if msg.err != nil {
		log.Error().Err(msg.err).Str("action", string(msg.action)).Msg("command failed")
		m.root.Notify.ShowError(fmt.Sprintf("Could not %s game", msg.action), msg.err.Error())
		return
	}

	switch msg.action {
	case actionStart:
		m.root.Notify.ShowSuccess("Game started", fmt.Sprintf("Game #%d is on", msg.session.GameID))
	case actionRefresh:
		if msg.session == nil {
			m.root.Notify.ShowInfo("No active game", "press n to start one")
		}
	}
}

func (m *Model) applySnapshot(snap store.Snapshot) {
	if m.sound != nil {
		for _, cue := range sound.CuesFor(m.snap, snap) {
			m.sound.Play(cue)
		}
	}
	m.snap = snap
}

func (m *Model) dismissNewest() {
	items := m.root.Notify.List()
	if len(items) == 0 {
		return
	}
	m.root.Notify.Remove(items[len(items)-1].ID)
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) startGame() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		session, err := m.root.Game.StartNewGame(ctx)
		return commandDoneMsg{action: actionStart, session: session, err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		session, err := m.root.Game.FetchCurrentGame(ctx)
		return commandDoneMsg{action: actionRefresh, session: session, err: err}
	}
}
