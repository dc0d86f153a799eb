package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// SabotageService handles starting, fixing and polling sabotages. Countdown
// expiry is lazy: it is applied whenever a player acts on the game.
type SabotageService struct {
	log logger.Logger
	rt  *Runtime
}

// NewSabotageService creates a new SabotageService
func NewSabotageService(log logger.Logger, rt *Runtime) *SabotageService {
	return &SabotageService{log: log, rt: rt}
}

// TimeoutCheck is the answer to an explicit timeout poll
type TimeoutCheck struct {
	Expired bool                  `json:"expired"`
	Winner  string                `json:"winner,omitempty"`
	Status  engine.SabotageStatus `json:"status"`
}

// StartSabotage begins the sabotage in the given 1-based slot
func (s *SabotageService) StartSabotage(ctx context.Context, code, token string, index int) error {
	return s.rt.act(ctx, code, token, "start_sabotage", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.StartSabotage(t, tx.Game(), p, index)
	})
}

// FixSabotage applies one fix action (tap, hold_start, hold_end)
func (s *SabotageService) FixSabotage(ctx context.Context, code, token, action string) (*engine.FixResult, error) {
	var res engine.FixResult
	err := s.rt.act(ctx, code, token, "fix_sabotage", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		res, err = engine.FixSabotage(t, tx.Game(), p, action)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckTimeout applies the lazy countdown check and reports whether it
// ended the game
func (s *SabotageService) CheckTimeout(ctx context.Context, code, token string) (*TimeoutCheck, error) {
	var res TimeoutCheck
	err := s.rt.poll(ctx, code, token, "check_sabotage_timeout", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		// the runtime already ran the check; only it can have ended the game so far
		res.Expired = t.Out.Ended
		if res.Expired {
			res.Winner = g.Winner
		}
		res.Status = engine.Status(t, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Status returns the sabotage state of the caller's game
func (s *SabotageService) Status(ctx context.Context, code, token string) (*engine.SabotageStatus, error) {
	var st engine.SabotageStatus
	err := s.rt.poll(ctx, code, token, "sabotage_status", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		st = engine.Status(t, tx.Game())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}
