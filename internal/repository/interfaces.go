package repository

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/models"
)

// HistoryRepository defines finished-game history operations
type HistoryRepository interface {
	RecordGame(ctx context.Context, result models.GameResult) error
	ListRecentGames(ctx context.Context, limit int) ([]models.GameSummary, error)
	GetGame(ctx context.Context, gameID string) (*models.GameResult, error)
	WinStats(ctx context.Context) (map[string]int, error)
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	HistoryRepository
	Ping(ctx context.Context) error
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
