package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var epoch = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func result(id, winner string, endedAfter time.Duration) models.GameResult {
	return models.GameResult{
		GameID:    id,
		Code:      "ABCD",
		Winner:    winner,
		Reason:    winner + " win",
		StartedAt: epoch,
		EndedAt:   epoch.Add(endedAfter),
		Players: []models.PlayerResult{
			{Name: "Ada", Role: models.RoleImpostor, Status: models.StatusAlive},
			{Name: "Bo", Role: models.RoleSheriff, Status: models.StatusDead, TasksCompleted: 2, TasksTotal: 5},
		},
	}
}

func TestRecordAndGetGame(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RecordGame(ctx, result("g1", models.WinnerImpostor, 10*time.Minute)); err != nil {
		t.Fatalf("RecordGame failed: %v", err)
	}

	got, err := repo.GetGame(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if got.Winner != models.WinnerImpostor || got.Code != "ABCD" {
		t.Errorf("unexpected game %+v", got)
	}
	if !got.EndedAt.Equal(epoch.Add(10*time.Minute)) || !got.StartedAt.Equal(epoch) {
		t.Errorf("timestamps did not round trip: %v %v", got.StartedAt, got.EndedAt)
	}
	if len(got.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(got.Players))
	}
	bo := got.Players[1]
	if bo.Name != "Bo" || bo.Role != models.RoleSheriff || bo.RoleName != models.RoleSheriff.DisplayName() {
		t.Errorf("unexpected player %+v", bo)
	}
	if bo.Status != models.StatusDead || bo.TasksCompleted != 2 || bo.TasksTotal != 5 {
		t.Errorf("unexpected player progress %+v", bo)
	}
}

func TestGetGame_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetGame(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordGame_DuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.RecordGame(ctx, result("g1", models.WinnerCrewmate, time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordGame(ctx, result("g1", models.WinnerCrewmate, time.Minute)); err == nil {
		t.Error("expected an error recording the same game twice")
	}

	// the failed insert must not leave partial rows behind
	got, err := repo.GetGame(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(got.Players))
	}
}

func TestListRecentGames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		r := result(fmt.Sprintf("g%d", i), models.WinnerCrewmate, time.Duration(i)*time.Minute)
		if err := repo.RecordGame(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	games, err := repo.ListRecentGames(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecentGames failed: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(games))
	}
	for i, want := range []string{"g5", "g4", "g3"} {
		if games[i].GameID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, games[i].GameID)
		}
	}
	if games[0].PlayerCount != 2 {
		t.Errorf("expected player count 2, got %d", games[0].PlayerCount)
	}
}

func TestListRecentGames_Empty(t *testing.T) {
	repo := newTestRepo(t)

	games, err := repo.ListRecentGames(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if games == nil || len(games) != 0 {
		t.Errorf("expected an empty non-nil list, got %v", games)
	}
}

func TestWinStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	winners := []string{models.WinnerCrewmate, models.WinnerCrewmate, models.WinnerImpostor, models.WinnerJester}
	for i, w := range winners {
		if err := repo.RecordGame(ctx, result(fmt.Sprintf("g%d", i), w, time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.WinStats(ctx)
	if err != nil {
		t.Fatalf("WinStats failed: %v", err)
	}
	if stats[models.WinnerCrewmate] != 2 || stats[models.WinnerImpostor] != 1 || stats[models.WinnerJester] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNew_BadPath(t *testing.T) {
	if _, err := New("/nonexistent-dir/irlsus/history.db"); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
