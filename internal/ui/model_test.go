package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/tagracer/internal/api"
	"github.com/palemoky/tagracer/internal/apperrors"
	"github.com/palemoky/tagracer/internal/protocol"
	"github.com/palemoky/tagracer/internal/store"
	"github.com/palemoky/tagracer/internal/store/notify"
	"github.com/palemoky/tagracer/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (*Model, *testutil.MockAPI, *testutil.FakeOpener) {
	t.Helper()
	client := &testutil.MockAPI{}
	opener := &testutil.FakeOpener{}
	clock := clockwork.NewFakeClockAt(epoch)
	root := store.NewRoot(client, opener.Open, store.WithClock(clock))
	t.Cleanup(root.Close)
	return New(root, WithClock(clock)), client, opener
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func titles(items []notify.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.Title)
	}
	return out
}

func TestModel_StartGame(t *testing.T) {
	t.Parallel()

	m, client, _ := newTestModel(t)
	client.On("StartGame", mock.Anything).Return(&api.Game{GameID: 5, StartTime: api.Timestamp{Time: epoch}}, nil)

	_, cmd := m.Update(keyPress('n'))
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(commandDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	m.Update(done)
	assert.Equal(t, []string{"Game started"}, titles(m.root.Notify.List()))

	m.Update(changedMsg{})
	require.NotNil(t, m.Snapshot().Session)
	assert.Equal(t, int64(5), m.Snapshot().Session.GameID)
	assert.Contains(t, m.View(), "Game #5")
}

func TestModel_StartGameFailureShowsError(t *testing.T) {
	t.Parallel()

	m, client, _ := newTestModel(t)
	client.On("StartGame", mock.Anything).Return(nil, &apperrors.APIError{Status: 503, Message: "arena offline"})

	_, cmd := m.Update(keyPress('n'))
	m.Update(cmd())

	items := m.root.Notify.List()
	require.Len(t, items, 1)
	assert.Equal(t, notify.KindError, items[0].Kind)
	assert.Equal(t, "Could not start game", items[0].Title)
	assert.Contains(t, items[0].Message, "arena offline")
	assert.Equal(t, notify.DefaultErrorDuration, items[0].Duration)
}

func TestModel_RefreshWithoutGame(t *testing.T) {
	t.Parallel()

	m, client, _ := newTestModel(t)
	client.On("CurrentGame", mock.Anything).Return(nil, apperrors.ErrNotFound)

	_, cmd := m.Update(keyPress('r'))
	done := cmd().(commandDoneMsg)
	assert.NoError(t, done.err)
	assert.Nil(t, done.session)

	m.Update(done)
	assert.Equal(t, []string{"No active game"}, titles(m.root.Notify.List()))
}

func TestModel_RefreshFailure(t *testing.T) {
	t.Parallel()

	m, client, _ := newTestModel(t)
	client.On("CurrentGame", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	_, cmd := m.Update(keyPress('r'))
	m.Update(cmd())

	assert.Equal(t, []string{"Could not refresh game"}, titles(m.root.Notify.List()))
	assert.Equal(t, "dial tcp: refused", m.root.Game.LastError())
}

func TestModel_ReconnectOpensNewChannel(t *testing.T) {
	t.Parallel()

	m, _, opener := newTestModel(t)
	m.root.Socket.Init()
	first := opener.Last()

	_, cmd := m.Update(keyPress('c'))
	assert.Nil(t, cmd)
	assert.True(t, first.Closed())
	assert.Len(t, opener.Channels, 2)
	assert.Equal(t, []string{"Reconnecting"}, titles(m.root.Notify.List()))
}

func TestModel_DismissNewest(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	m.root.Notify.ShowInfo("old", "")
	m.root.Notify.ShowInfo("new", "")

	m.Update(keyPress('x'))
	assert.Equal(t, []string{"old"}, titles(m.root.Notify.List()))

	m.Update(keyPress('x'))
	m.Update(keyPress('x'))
	assert.Empty(t, m.root.Notify.List())
}

func TestModel_ChangeFollowsChannelEvents(t *testing.T) {
	t.Parallel()

	m, _, opener := newTestModel(t)
	m.root.Socket.Init()
	opener.Last().Emit(protocol.EventConnect, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msgCh := make(chan tea.Msg, 1)
	go func() { msgCh <- m.waitForChange()() }()

	select {
	case msg := <-msgCh:
		_, cmd := m.Update(msg)
		assert.NotNil(t, cmd, "keeps listening")
	case <-ctx.Done():
		t.Fatal("no change signal")
	}
	assert.True(t, m.Snapshot().Connected)
	assert.Contains(t, m.View(), "live")
}

func TestModel_HelpToggleAndQuit(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	assert.False(t, m.help.ShowAll)
	m.Update(keyPress('?'))
	assert.True(t, m.help.ShowAll)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 100, m.width)

	_, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
