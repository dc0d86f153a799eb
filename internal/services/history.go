package services

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/repository"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryService reads the finished-game history
type HistoryService struct {
	log  logger.Logger
	repo repository.HistoryRepository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(log logger.Logger, repo repository.HistoryRepository) *HistoryService {
	return &HistoryService{log: log, repo: repo}
}

// HistoryStats summarizes every recorded game
type HistoryStats struct {
	TotalGames int            `json:"total_games"`
	Wins       map[string]int `json:"wins"`
}

// ListRecent returns the most recently finished games. A limit outside
// 1..MaxHistoryLimit falls back to the default or the cap.
func (s *HistoryService) ListRecent(ctx context.Context, limit int) ([]models.GameSummary, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	games, err := s.repo.ListRecentGames(ctx, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return games, nil
}

// GetGame returns one recorded game with its players
func (s *HistoryService) GetGame(ctx context.Context, gameID string) (*models.GameResult, error) {
	g, err := s.repo.GetGame(ctx, gameID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("game %s not found in history", gameID)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return g, nil
}

// Stats counts recorded games per winner
func (s *HistoryService) Stats(ctx context.Context) (*HistoryStats, error) {
	wins, err := s.repo.WinStats(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	stats := &HistoryStats{Wins: wins}
	for _, n := range wins {
		stats.TotalGames += n
	}
	return stats, nil
}
