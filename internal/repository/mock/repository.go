package mock

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.RecordGameError = errors.New("database error")
//	svc := services.NewHistoryService(log, mockRepo)
type Repository struct {
	repository.FullRepository

	RecordGameError      error
	ListRecentGamesError error
	GetGameError         error
	WinStatsError        error
	PingError            error

	// Recorded holds every result passed to RecordGame, including failed ones
	Recorded []models.GameResult
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

func (m *Repository) RecordGame(ctx context.Context, result models.GameResult) error {
	m.Recorded = append(m.Recorded, result)
	if m.RecordGameError != nil {
		return m.RecordGameError
	}
	return m.FullRepository.RecordGame(ctx, result)
}

func (m *Repository) ListRecentGames(ctx context.Context, limit int) ([]models.GameSummary, error) {
	if m.ListRecentGamesError != nil {
		return nil, m.ListRecentGamesError
	}
	return m.FullRepository.ListRecentGames(ctx, limit)
}

func (m *Repository) GetGame(ctx context.Context, gameID string) (*models.GameResult, error) {
	if m.GetGameError != nil {
		return nil, m.GetGameError
	}
	return m.FullRepository.GetGame(ctx, gameID)
}

func (m *Repository) WinStats(ctx context.Context) (map[string]int, error) {
	if m.WinStatsError != nil {
		return nil, m.WinStatsError
	}
	return m.FullRepository.WinStats(ctx)
}

func (m *Repository) Ping(ctx context.Context) error {
	if m.PingError != nil {
		return m.PingError
	}
	return m.FullRepository.Ping(ctx)
}
