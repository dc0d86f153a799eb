package services

import (
	"context"
	"time"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/store"
)

// ExpirySweeper periodically applies the lazy expiry checks to every live
// game so deadlines fire even when nobody is polling
type ExpirySweeper struct {
	log logger.Logger
	rt  *Runtime
}

// NewExpirySweeper creates a new ExpirySweeper
func NewExpirySweeper(log logger.Logger, rt *Runtime) *ExpirySweeper {
	return &ExpirySweeper{log: log, rt: rt}
}

// Sweep checks every game once and returns how many changed
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	changed := 0
	for _, code := range s.rt.Store().Codes() {
		var hit bool
		err := s.rt.actOnGame(ctx, code, func(t *engine.Turn, tx *store.Tx) error {
			g := tx.Game()
			sabotage := engine.CheckSabotageTimeout(t, g)
			voting := engine.CheckVotingTimeout(t, g)
			hit = sabotage || voting
			return nil
		})
		if err == nil && hit {
			changed++
			s.log.Debug("Sweep applied expiry", "code", code)
		}
	}
	return changed
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// returns immediately.
func (s *ExpirySweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.log.Info("Expiry sweep enabled", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
