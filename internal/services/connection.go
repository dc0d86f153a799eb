package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// ConnectionService tracks socket presence and builds resync payloads
type ConnectionService struct {
	log logger.Logger
	rt  *Runtime
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(log logger.Logger, rt *Runtime) *ConnectionService {
	return &ConnectionService{log: log, rt: rt}
}

// Authorize checks that token is a session of the game with the given code,
// without marking the player connected
func (s *ConnectionService) Authorize(ctx context.Context, code, token string) error {
	return s.rt.poll(ctx, code, token, "authorize", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return nil
	})
}

// Connect marks the player connected and hands their state_sync payload to
// attach. attach runs under the game lock before any later event for the
// game is delivered, so a socket registered there misses nothing.
func (s *ConnectionService) Connect(ctx context.Context, code, token string, attach func(playerID string, state *engine.StateSync)) error {
	return s.rt.act(ctx, code, token, "connect", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		p.Connected = true
		sync := engine.NewStateSync(g, p, t.Now)
		if attach != nil {
			attach(p.ID, &sync)
		}
		t.Out.BroadcastExcept(p.ID, models.EventPlayerConnected, map[string]interface{}{
			"player_id":   p.ID,
			"player_name": p.Name,
		})
		return nil
	})
}

// Disconnect marks a player's socket gone. Unknown games and players are
// ignored; the game may have been deleted while the socket was open.
func (s *ConnectionService) Disconnect(ctx context.Context, code, playerID string) {
	err := s.rt.actOnGame(ctx, code, func(t *engine.Turn, tx *store.Tx) error {
		p := tx.Game().Player(playerID)
		if p == nil {
			return nil
		}
		p.Connected = false
		t.Out.BroadcastExcept(p.ID, models.EventPlayerDisconnected, map[string]interface{}{
			"player_id":   p.ID,
			"player_name": p.Name,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		s.log.Warn("Disconnect failed", "code", code, "player", playerID, "error", err)
	}
}

// Sync builds a fresh state_sync payload for a connected player
func (s *ConnectionService) Sync(ctx context.Context, code, playerID string) (*engine.StateSync, error) {
	var sync engine.StateSync
	err := s.rt.actOnGame(ctx, code, func(t *engine.Turn, tx *store.Tx) error {
		g := tx.Game()
		p := g.Player(playerID)
		if p == nil {
			return errors.NotFound("player not found")
		}
		engine.CheckSabotageTimeout(t, g)
		sync = engine.NewStateSync(g, p, t.Now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sync, nil
}
