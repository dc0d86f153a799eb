package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// AbilityService handles the role abilities
type AbilityService struct {
	log logger.Logger
	rt  *Runtime
}

// NewAbilityService creates a new AbilityService
func NewAbilityService(log logger.Logger, rt *Runtime) *AbilityService {
	return &AbilityService{log: log, rt: rt}
}

// EngineerFix resolves the active sabotage remotely, once per game
func (s *AbilityService) EngineerFix(ctx context.Context, code, token string) error {
	return s.rt.act(ctx, code, token, "engineer_fix", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.EngineerFix(t, tx.Game(), p)
	})
}

// CaptainMeeting calls a meeting remotely, once per game
func (s *AbilityService) CaptainMeeting(ctx context.Context, code, token string) error {
	return s.rt.act(ctx, code, token, "captain_meeting", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.CaptainMeeting(t, tx.Game(), p)
	})
}

// Guess names a target's role during a meeting. A wrong guess kills the guesser.
func (s *AbilityService) Guess(ctx context.Context, code, token, targetID, guessedRole string) (*engine.GuessResult, error) {
	var res engine.GuessResult
	err := s.rt.act(ctx, code, token, "guess", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		res, err = engine.Guess(t, tx.Game(), p, targetID, guessedRole)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// VultureEat consumes an undiscovered body
func (s *AbilityService) VultureEat(ctx context.Context, code, token, bodyID string) (*engine.VultureProgress, error) {
	var res engine.VultureProgress
	err := s.rt.act(ctx, code, token, "vulture_eat", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		res, err = engine.VultureEat(t, tx.Game(), p, bodyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ClaimBounty records a bounty kill (claimed) or asks for a new target
func (s *AbilityService) ClaimBounty(ctx context.Context, code, token string, claimed bool) (*engine.BountyResult, error) {
	var res engine.BountyResult
	err := s.rt.act(ctx, code, token, "bounty_kill", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		res, err = engine.ClaimBounty(t, tx.Game(), p, claimed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Swap selects the two players whose votes trade places at the reveal
func (s *AbilityService) Swap(ctx context.Context, code, token, firstID, secondID string) ([]string, error) {
	var targets []string
	err := s.rt.act(ctx, code, token, "swap", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		targets, err = engine.Swap(t, tx.Game(), p, firstID, secondID)
		return err
	})
	return targets, err
}

// NoiseMakerReport lets a dead Noise Maker call a body report on a target
func (s *AbilityService) NoiseMakerReport(ctx context.Context, code, token, targetID string) error {
	return s.rt.act(ctx, code, token, "noise_maker", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.NoiseMakerReport(t, tx.Game(), p, targetID)
	})
}

// LookoutWatch picks the player the Lookout is alerted about
func (s *AbilityService) LookoutWatch(ctx context.Context, code, token, targetID string) (*engine.PlayerRef, error) {
	var ref engine.PlayerRef
	err := s.rt.act(ctx, code, token, "lookout_watch", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		ref, err = engine.LookoutWatch(t, tx.Game(), p, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
