package services

import (
	"context"
	"time"

	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// AdminService lets the operator inspect and delete live games
type AdminService struct {
	log logger.Logger
	rt  *Runtime
}

// NewAdminService creates a new AdminService
func NewAdminService(log logger.Logger, rt *Runtime) *AdminService {
	return &AdminService{log: log, rt: rt}
}

// LiveGame is one row of the admin game list
type LiveGame struct {
	Code        string           `json:"code"`
	State       models.GameState `json:"state"`
	Host        string           `json:"host,omitempty"`
	PlayerCount int              `json:"player_count"`
	Connected   int              `json:"connected"`
	Winner      string           `json:"winner,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ListGames summarizes every live game, ordered by code
func (s *AdminService) ListGames(ctx context.Context) []LiveGame {
	games := []LiveGame{}
	for _, code := range s.rt.Store().Codes() {
		// a game deleted since Codes() was taken is skipped
		_ = s.rt.Store().Do(code, func(tx *store.Tx) error {
			g := tx.Game()
			row := LiveGame{
				Code:        g.Code,
				State:       g.State,
				PlayerCount: len(g.Players),
				Winner:      g.Winner,
				CreatedAt:   g.CreatedAt,
			}
			if h := g.Host(); h != nil {
				row.Host = h.Name
			}
			for _, p := range g.Players {
				if p.Connected {
					row.Connected++
				}
			}
			games = append(games, row)
			return nil
		})
	}
	return games
}

// DeleteGame removes a game, invalidates its tokens and closes its sockets
func (s *AdminService) DeleteGame(ctx context.Context, code string) error {
	if err := s.rt.Store().Delete(code); err != nil {
		return err
	}
	code = store.NormalizeCode(code)
	if s.rt.broadcaster != nil {
		s.rt.broadcaster.CloseGame(code)
	}
	s.log.Info("Game deleted by admin", "code", code)
	return nil
}

// GameCount returns the number of live games
func (s *AdminService) GameCount() int {
	return s.rt.Store().Count()
}
