package engine_test

import (
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

func TestJoin(t *testing.T) {
	g := testutil.NewLobby(t, 2)

	turn := newTurn()
	p := engine.NewPlayer("p9", "tok-p9", "Zoe", false, testutil.Epoch.Add(time.Minute))
	if err := engine.Join(turn, g, p); err != nil {
		t.Fatalf("Join: %v", err)
	}
	env, ok := turn.Out.Last(models.EventPlayerJoined)
	if !ok || env.Exclude != "p9" {
		t.Fatalf("expected player_joined excluding the newcomer, got %+v", env)
	}

	dup := engine.NewPlayer("p10", "tok-p10", "zoe", false, testutil.Epoch)
	if err := engine.Join(newTurn(), g, dup); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("duplicate name: expected validation, got %v", err)
	}

	g.State = models.StatePlaying
	late := engine.NewPlayer("p11", "tok-p11", "Late", false, testutil.Epoch)
	if err := engine.Join(newTurn(), g, late); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("join after start: expected invalid state, got %v", err)
	}
}

func TestLeave_HostHandsOver(t *testing.T) {
	g := testutil.NewLobby(t, 3)

	turn := newTurn()
	empty, err := engine.Leave(turn, g, g.Players["p1"])
	if err != nil || empty {
		t.Fatalf("Leave: %v empty=%v", err, empty)
	}
	if !g.Players["p2"].IsHost {
		t.Error("expected the earliest remaining player to become host")
	}
	env, _ := turn.Out.Last(models.EventPlayerLeft)
	if env.Message.Payload.(map[string]interface{})["new_host_id"] != "p2" {
		t.Errorf("expected new_host_id p2, got %+v", env.Message.Payload)
	}

	if _, err := engine.Leave(newTurn(), g, g.Players["p3"]); err != nil {
		t.Fatal(err)
	}
	empty, err = engine.Leave(newTurn(), g, g.Players["p2"])
	if err != nil || !empty {
		t.Fatalf("last leave should empty the game: %v empty=%v", err, empty)
	}
}

func TestUpdateSettings(t *testing.T) {
	g := testutil.NewLobby(t, 3)
	four := 4

	if err := engine.UpdateSettings(newTurn(), g, g.Players["p2"], models.SettingsPatch{TasksPerPlayer: &four}); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("non-host: expected forbidden, got %v", err)
	}

	turn := newTurn()
	if err := engine.UpdateSettings(turn, g, g.Players["p1"], models.SettingsPatch{TasksPerPlayer: &four}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if g.Settings.TasksPerPlayer != 4 || turn.Out.Count(models.EventSettingsChanged) != 1 {
		t.Errorf("expected tasks per player 4 and a broadcast, got %d", g.Settings.TasksPerPlayer)
	}

	bad := 99
	if err := engine.UpdateSettings(newTurn(), g, g.Players["p1"], models.SettingsPatch{TasksPerPlayer: &bad}); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("out of range: expected validation, got %v", err)
	}
	if g.Settings.TasksPerPlayer != 4 {
		t.Error("a rejected patch must not change settings")
	}
}

func TestTaskList(t *testing.T) {
	g := testutil.NewLobby(t, 3)
	host := g.Players["p1"]

	if err := engine.AddTask(newTurn(), g, host, "Juggle"); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := engine.AddTask(newTurn(), g, host, "juggle"); !errors.Is(err, errors.ErrAlreadyDone) {
		t.Fatalf("duplicate task: expected already done, got %v", err)
	}
	if err := engine.RemoveTask(newTurn(), g, host, "Wires"); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if err := engine.RemoveTask(newTurn(), g, host, "Wires"); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("missing task: expected not found, got %v", err)
	}
	if g.TaskIndex("Juggle") < 0 || g.TaskIndex("Wires") >= 0 {
		t.Errorf("unexpected task list %v", g.AvailableTasks)
	}
}

func TestStartGame(t *testing.T) {
	g := testutil.NewLobby(t, 5)
	g.Settings.NumImpostors = 1

	if err := engine.StartGame(newTurn(), g, g.Players["p2"]); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("non-host start: expected forbidden, got %v", err)
	}

	turn := newTurn()
	if err := engine.StartGame(turn, g, g.Players["p1"]); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if g.State != models.StatePlaying {
		t.Fatalf("expected Playing, got %s", g.State)
	}
	if n := turn.Out.Count(models.EventGameStarted); n != 5 {
		t.Errorf("expected a private game_started per player, got %d", n)
	}
	for _, env := range turn.Out.Envelopes {
		if env.Message.Type == models.EventGameStarted && !env.Private() {
			t.Error("game_started must be private")
		}
	}
	if g.CrewTaskTotal != 4*g.Settings.TasksPerPlayer {
		t.Errorf("expected crew task total %d, got %d", 4*g.Settings.TasksPerPlayer, g.CrewTaskTotal)
	}

	if err := engine.StartGame(newTurn(), g, g.Players["p1"]); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("second start: expected invalid state, got %v", err)
	}
}

func TestStartGame_NeedsEnoughTasks(t *testing.T) {
	g := testutil.NewLobby(t, 4)
	g.Settings.NumImpostors = 1
	g.AvailableTasks = []string{"Wires"}

	if err := engine.StartGame(newTurn(), g, g.Players["p1"]); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if g.State != models.StateLobby {
		t.Error("a rejected start must leave the lobby untouched")
	}
}

func TestEndGame(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate)

	if err := engine.EndGame(newTurn(), g, g.Players["p2"]); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("non-host: expected forbidden, got %v", err)
	}

	turn := newTurn()
	if err := engine.EndGame(turn, g, g.Players["p1"]); err != nil {
		t.Fatalf("EndGame: %v", err)
	}
	if g.Winner != models.WinnerCancelled || !turn.Out.Ended {
		t.Errorf("expected a cancelled game, got %q", g.Winner)
	}
	if err := engine.EndGame(newTurn(), g, g.Players["p1"]); !errors.Is(err, errors.ErrAlreadyDone) {
		t.Fatalf("second end: expected already done, got %v", err)
	}
}
