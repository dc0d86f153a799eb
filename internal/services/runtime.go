package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// Broadcaster defines the interface for pushing events to connected clients
type Broadcaster interface {
	BroadcastToGame(code string, msg models.WSMessage, excludePlayerID string)
	SendToPlayer(code, playerID string, msg models.WSMessage)
	CloseGame(code string)
}

// GameRecorder stores finished games
type GameRecorder interface {
	RecordGame(ctx context.Context, result models.GameResult) error
}

// Runtime is the machinery every game service runs mutations through:
// resolve the session, lock the game, apply lazy expiry, run the engine,
// deliver the outbox, unlock and record the game if it ended.
type Runtime struct {
	log         logger.Logger
	store       *store.Store
	recorder    GameRecorder
	broadcaster Broadcaster
	now         func() time.Time
	rng         engine.Rand
}

// RuntimeOption configures a Runtime
type RuntimeOption func(*Runtime)

// WithClock replaces time.Now
func WithClock(now func() time.Time) RuntimeOption {
	return func(r *Runtime) { r.now = now }
}

// WithRand replaces the random source used for role and task draws
func WithRand(rng engine.Rand) RuntimeOption {
	return func(r *Runtime) { r.rng = rng }
}

// NewRuntime creates a Runtime. recorder may be nil to disable history.
func NewRuntime(log logger.Logger, st *store.Store, recorder GameRecorder, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		log:      log,
		store:    st,
		recorder: recorder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.rng = &lockedRand{r: r.rng}
	return r
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (r *Runtime) SetBroadcaster(b Broadcaster) {
	r.broadcaster = b
}

// Store returns the live game store
func (r *Runtime) Store() *store.Store {
	return r.store
}

// Now returns the runtime clock's current time
func (r *Runtime) Now() time.Time {
	return r.now()
}

func (r *Runtime) turn() *engine.Turn {
	return engine.NewTurn(r.now(), r.rng)
}

// mutation is the body of a session-scoped action. It runs with the game
// locked; the acting player is already resolved.
type mutation func(t *engine.Turn, tx *store.Tx, p *models.Player) error

// act resolves token, checks it belongs to code (when code is non-empty)
// and runs fn under the game's lock.
func (r *Runtime) act(ctx context.Context, code, token, action string, fn mutation) error {
	return r.run(ctx, code, token, action, false, fn)
}

// poll is act for read-mostly calls; success is logged at debug level
func (r *Runtime) poll(ctx context.Context, code, token, action string, fn mutation) error {
	return r.run(ctx, code, token, action, true, fn)
}

func (r *Runtime) run(ctx context.Context, code, token, action string, quiet bool, fn mutation) error {
	t := r.turn()
	var (
		gameCode string
		playerID string
		ended    *models.GameResult
	)

	err := r.store.DoSession(token, func(tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		gameCode, playerID = g.Code, p.ID
		if code != "" && store.NormalizeCode(code) != g.Code {
			return errors.Forbidden("session does not belong to this game")
		}

		// lazy expiry is committed even when the action itself is rejected
		engine.CheckSabotageTimeout(t, g)
		err := fn(t, tx, p)
		if t.Out.Ended {
			res := resultOf(g)
			ended = &res
		}
		r.flush(g.Code, t.Out)
		return err
	})

	if ended != nil {
		r.record(ctx, *ended)
	}

	log := r.log.With("action", action, "code", gameCode, "player", playerID)
	if err != nil {
		log.Debug("Action rejected", "error", err)
		return err
	}
	if quiet {
		log.Debug("Action applied")
	} else {
		log.Info("Action applied")
	}
	return nil
}

// actOnGame runs fn under the lock of the game with the given code, without
// a session. Used by the sweeper and admin tooling.
func (r *Runtime) actOnGame(ctx context.Context, code string, fn func(t *engine.Turn, tx *store.Tx) error) error {
	t := r.turn()
	var ended *models.GameResult

	err := r.store.Do(code, func(tx *store.Tx) error {
		err := fn(t, tx)
		if t.Out.Ended {
			res := resultOf(tx.Game())
			ended = &res
		}
		r.flush(tx.Game().Code, t.Out)
		return err
	})

	if ended != nil {
		r.record(ctx, *ended)
	}
	return err
}

// flush hands queued events to the broadcaster. Called with the game lock
// held so deliveries keep the order the mutations were applied in; the
// broadcaster must not block on game locks.
func (r *Runtime) flush(code string, out engine.Outbox) {
	if r.broadcaster == nil || code == "" {
		return
	}
	for _, env := range out.Envelopes {
		if env.Private() {
			r.broadcaster.SendToPlayer(code, env.To, env.Message)
		} else {
			r.broadcaster.BroadcastToGame(code, env.Message, env.Exclude)
		}
	}
}

func (r *Runtime) record(ctx context.Context, res models.GameResult) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordGame(ctx, res); err != nil {
		r.log.Error("Failed to record finished game", "game_id", res.GameID, "code", res.Code, "error", err)
		return
	}
	r.log.Info("Game recorded", "game_id", res.GameID, "code", res.Code, "winner", res.Winner)
}

func resultOf(g *models.Game) models.GameResult {
	res := models.GameResult{
		GameID:    g.ID,
		Code:      g.Code,
		Winner:    g.Winner,
		Reason:    g.WinReason,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
	for _, p := range g.OrderedPlayers() {
		pr := models.PlayerResult{
			Name:     p.Name,
			Role:     p.Role,
			RoleName: p.Role.DisplayName(),
			Status:   p.Status,
		}
		for _, task := range p.Tasks {
			if task.IsFake {
				continue
			}
			pr.TasksTotal++
			if task.Status == models.TaskCompleted {
				pr.TasksCompleted++
			}
		}
		res.Players = append(res.Players, pr)
	}
	return res
}

// lockedRand serializes access to a Rand shared by every game
type lockedRand struct {
	mu sync.Mutex
	r  engine.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
