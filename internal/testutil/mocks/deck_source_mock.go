package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hanzitools/hanzistats/internal/models"
)

// MockDeckDataSource is a mock implementation of repository.DeckDataSource
type MockDeckDataSource struct {
	mock.Mock
}

func (m *MockDeckDataSource) ListDecks(ctx context.Context) ([]models.Deck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deck), args.Error(1)
}

func (m *MockDeckDataSource) FieldNames(ctx context.Context, deckID int64) ([]string, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDeckDataSource) Observe(ctx context.Context, sel models.Selection) ([]models.Observation, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Observation), args.Error(1)
}
