package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// PlayService handles a player's own actions while a game runs: tasks,
// reporting their death, and reading their private view
type PlayService struct {
	log logger.Logger
	rt  *Runtime
}

// NewPlayService creates a new PlayService
func NewPlayService(log logger.Logger, rt *Runtime) *PlayService {
	return &PlayService{log: log, rt: rt}
}

// TaskProgress is the crew's task percentage after a task change
type TaskProgress struct {
	TaskPercentage float64 `json:"task_percentage"`
	Winner         string  `json:"winner,omitempty"`
}

// CompleteTask marks one of the caller's tasks completed
func (s *PlayService) CompleteTask(ctx context.Context, token, taskID string) (*TaskProgress, error) {
	return s.taskChange(ctx, token, "complete_task", taskID, engine.CompleteTask)
}

// UncompleteTask reverts one of the caller's completed tasks
func (s *PlayService) UncompleteTask(ctx context.Context, token, taskID string) (*TaskProgress, error) {
	return s.taskChange(ctx, token, "uncomplete_task", taskID, engine.UncompleteTask)
}

func (s *PlayService) taskChange(ctx context.Context, token, action, taskID string,
	fn func(*engine.Turn, *models.Game, *models.Player, string) error) (*TaskProgress, error) {
	var progress TaskProgress
	err := s.rt.act(ctx, "", token, action, func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		if err := fn(t, g, p, taskID); err != nil {
			return err
		}
		progress = TaskProgress{TaskPercentage: engine.TaskPercentage(g), Winner: g.Winner}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// MarkDead records that the caller was killed
func (s *PlayService) MarkDead(ctx context.Context, token, playerID string) error {
	return s.rt.act(ctx, "", token, "mark_dead", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.MarkDead(t, tx.Game(), p, playerID)
	})
}

// Me returns the caller's private view of their game
func (s *PlayService) Me(ctx context.Context, token string) (*engine.MeView, error) {
	var view engine.MeView
	err := s.rt.Store().DoSession(token, func(tx *store.Tx, p *models.Player) error {
		view = engine.NewMeView(tx.Game(), p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ReconnectResult tells a returning client where it belongs
type ReconnectResult struct {
	Code     string           `json:"code"`
	PlayerID string           `json:"player_id"`
	Name     string           `json:"name"`
	IsHost   bool             `json:"is_host"`
	State    models.GameState `json:"state"`
}

// Reconnect resolves a stored session token back to its game and player
func (s *PlayService) Reconnect(ctx context.Context, token string) (*ReconnectResult, error) {
	var res ReconnectResult
	err := s.rt.Store().DoSession(token, func(tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		res = ReconnectResult{Code: g.Code, PlayerID: p.ID, Name: p.Name, IsHost: p.IsHost, State: g.State}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
