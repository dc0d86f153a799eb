package engine_test

import (
	"testing"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

func TestCheckWin(t *testing.T) {
	I, C, M := models.RoleImpostor, models.RoleCrewmate, models.RoleMinion
	W, J, S := models.RoleLoneWolf, models.RoleJester, models.RoleSpy

	tests := []struct {
		name   string
		roles  []models.Role
		dead   []int
		winner string
	}{
		{"game continues", []models.Role{I, C, C, C}, nil, ""},
		{"all impostors dead", []models.Role{I, C, C, C}, []int{1}, models.WinnerCrewmate},
		{"parity", []models.Role{I, C, C, C}, []int{2, 3}, models.WinnerImpostor},
		{"minion counts toward parity", []models.Role{I, M, C, C, C}, []int{3}, models.WinnerImpostor},
		{"minion alone is still a threat", []models.Role{I, M, C, C, C}, []int{1}, ""},
		{"minion without killers cannot win by parity", []models.Role{I, M, C}, []int{1}, ""},
		{"spy plays for the crew", []models.Role{I, S, C}, []int{1}, models.WinnerCrewmate},
		{"last impostor standing", []models.Role{I, C}, []int{2}, models.WinnerImpostor},
		{"last crew standing", []models.Role{I, C}, []int{1}, models.WinnerCrewmate},
		{"last lone wolf standing", []models.Role{I, W, C}, []int{1, 3}, models.WinnerLoneWolf},
		{"wolf and impostor standoff", []models.Role{I, W, C}, []int{3}, ""},
		{"wolf blocks crew win", []models.Role{I, W, C, C}, []int{1}, ""},
		{"wolf blocks impostor parity", []models.Role{I, I, W, C}, []int{4}, ""},
		{"wolf outlasts crew", []models.Role{I, W, C}, []int{1}, models.WinnerLoneWolf},
		{"jester does not block crew", []models.Role{I, J, C, C}, []int{1}, models.WinnerCrewmate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewGame(t, tt.roles...)
			for _, i := range tt.dead {
				g.Players[testutil.PlayerID(i)].Status = models.StatusDead
			}

			w, ok := engine.CheckWin(g)
			if tt.winner == "" {
				if ok {
					t.Fatalf("expected no winner, got %+v", w)
				}
				return
			}
			if !ok || w.Winner != tt.winner {
				t.Fatalf("expected %q, got %+v (ok=%v)", tt.winner, w, ok)
			}
		})
	}
}

func TestCheckWin_Deterministic(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	g.Players["p3"].Status = models.StatusDead

	first, firstOK := engine.CheckWin(g)
	for i := 0; i < 20; i++ {
		w, ok := engine.CheckWin(g)
		if ok != firstOK || w != first {
			t.Fatalf("call %d returned %+v/%v, first was %+v/%v", i, w, ok, first, firstOK)
		}
	}
}

func TestCheckWin_VultureFirst(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleVulture, models.RoleCrewmate, models.RoleCrewmate)
	g.Settings.VultureEatCount = 2
	g.Players["p2"].Ability.EatenBodyIDs = []string{"a", "b"}
	// impostors would also have won on the same check
	g.Players["p3"].Status = models.StatusDead
	g.Players["p4"].Status = models.StatusDead

	w, ok := engine.CheckWin(g)
	if !ok || w.Winner != models.WinnerVulture {
		t.Fatalf("expected vulture win, got %+v", w)
	}
}

func TestCheckWin_TasksBeforeParity(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate)
	for _, p := range g.Players {
		for i := range p.Tasks {
			p.Tasks[i].Status = models.TaskCompleted
		}
	}
	g.Players["p3"].Status = models.StatusDead

	w, ok := engine.CheckWin(g)
	if !ok || w.Winner != models.WinnerCrewmate {
		t.Fatalf("expected crew task win, got %+v", w)
	}
}

func TestCheckWin_OnlyWhileInProgress(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleCrewmate)
	g.Players["p2"].Status = models.StatusDead
	g.State = models.StateLobby

	if _, ok := engine.CheckWin(g); ok {
		t.Fatal("expected no winner in the lobby")
	}
}
