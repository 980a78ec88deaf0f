//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/tagracer/internal/api"
)

// MockAPI implements the game store's HTTP collaborator.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) StartGame(ctx context.Context) (*api.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Game), args.Error(1)
}

func (m *MockAPI) CurrentGame(ctx context.Context) (*api.CurrentGame, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CurrentGame), args.Error(1)
}
