package services_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

func TestHistoryService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	winners := []string{models.WinnerCrewmate, models.WinnerImpostor, models.WinnerCrewmate}
	for i, w := range winners {
		err := h.repo.RecordGame(ctx, models.GameResult{
			GameID:  fmt.Sprintf("g%d", i),
			Code:    "ABCD",
			Winner:  w,
			EndedAt: testutil.Epoch.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	games, err := h.history.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(games) != 3 || games[0].GameID != "g2" {
		t.Errorf("expected 3 games newest first with the default limit, got %+v", games)
	}
	if games, _ := h.history.ListRecent(ctx, 2); len(games) != 2 {
		t.Errorf("expected the limit to apply, got %d", len(games))
	}

	stats, err := h.history.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalGames != 3 || stats.Wins[models.WinnerCrewmate] != 2 || stats.Wins[models.WinnerImpostor] != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	game, err := h.history.GetGame(ctx, "g1")
	if err != nil || game.Winner != models.WinnerImpostor {
		t.Errorf("GetGame: %+v %v", game, err)
	}
	if _, err := h.history.GetGame(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing game: expected not found, got %v", err)
	}

	h.repo.ListRecentGamesError = stderrors.New("disk full")
	if _, err := h.history.ListRecent(ctx, 5); !errors.Is(err, errors.ErrInternal) {
		t.Errorf("repository failure: expected internal, got %v", err)
	}
	h.repo.GetGameError = stderrors.New("disk full")
	if _, err := h.history.GetGame(ctx, "g1"); !errors.Is(err, errors.ErrInternal) {
		t.Errorf("repository failure: expected internal, got %v", err)
	}
	h.repo.WinStatsError = stderrors.New("disk full")
	if _, err := h.history.Stats(ctx); !errors.Is(err, errors.ErrInternal) {
		t.Errorf("repository failure: expected internal, got %v", err)
	}
}
