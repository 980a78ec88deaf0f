//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/palemoky/tagracer/internal/protocol"
)

// MockGameCommands implements the commands the connection bridge forwards to.
type MockGameCommands struct {
	mock.Mock
}

func (m *MockGameCommands) HandleScoreUpdate(p protocol.ScoreUpdatePayload) {
	m.Called(p)
}

func (m *MockGameCommands) HandleGameOver() {
	m.Called()
}

// MockGameStartedCommands also accepts game_started events.
type MockGameStartedCommands struct {
	MockGameCommands
}

func (m *MockGameStartedCommands) HandleGameStarted(p protocol.GameStartedPayload) {
	m.Called(p)
}
