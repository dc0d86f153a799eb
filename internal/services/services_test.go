package services_test

import (
	"testing"

	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/repository/mock"
	"github.com/abrezinsky/irlsus/internal/services"
	"github.com/abrezinsky/irlsus/internal/store"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

// harness wires every service against an in-memory store and history db
type harness struct {
	clock *testutil.Clock
	bc    *testutil.Broadcaster
	store *store.Store
	repo  *mock.Repository
	rt    *services.Runtime

	lobby    *services.LobbyService
	play     *services.PlayService
	meeting  *services.MeetingService
	sabotage *services.SabotageService
	ability  *services.AbilityService
	conn     *services.ConnectionService
	history  *services.HistoryService
	admin    *services.AdminService
	sweeper  *services.ExpirySweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.Discard()
	h := &harness{
		clock: testutil.NewClock(),
		bc:    &testutil.Broadcaster{},
		store: store.New(),
		repo:  mock.NewRepository(testutil.NewTestRepository(t)),
	}
	h.rt = services.NewRuntime(log, h.store, h.repo,
		services.WithClock(h.clock.Now),
		services.WithRand(testutil.NewRand(1)))
	h.rt.SetBroadcaster(h.bc)

	h.lobby = services.NewLobbyService(log, h.rt)
	h.play = services.NewPlayService(log, h.rt)
	h.meeting = services.NewMeetingService(log, h.rt)
	h.sabotage = services.NewSabotageService(log, h.rt)
	h.ability = services.NewAbilityService(log, h.rt)
	h.conn = services.NewConnectionService(log, h.rt)
	h.history = services.NewHistoryService(log, h.repo)
	h.admin = services.NewAdminService(log, h.rt)
	h.sweeper = services.NewExpirySweeper(log, h.rt)
	return h
}

// seed registers g in the store and returns its code
func (h *harness) seed(t *testing.T, g *models.Game) string {
	t.Helper()
	code, err := h.store.Create(g)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return code
}

// game runs fn with the locked game record
func (h *harness) game(t *testing.T, code string, fn func(g *models.Game)) {
	t.Helper()
	err := h.store.Do(code, func(tx *store.Tx) error {
		fn(tx.Game())
		return nil
	})
	if err != nil {
		t.Fatalf("game %s: %v", code, err)
	}
}

func tok(i int) string {
	return "tok-" + testutil.PlayerID(i)
}
