package engine_test

import (
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

const (
	slotLights  = 1
	slotReactor = 2
	slotO2      = 3
	slotComms   = 4
)

func turnAt(d time.Duration) *engine.Turn {
	return engine.NewTurn(testutil.Epoch.Add(d), testutil.NewRand(1))
}

func sabotageGame(t *testing.T) *models.Game {
	t.Helper()
	return testutil.NewGame(t,
		models.RoleImpostor, models.RoleImpostor,
		models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleEngineer)
}

func startSabotage(t *testing.T, g *models.Game, index int) {
	t.Helper()
	if err := engine.StartSabotage(newTurn(), g, g.Players["p1"], index); err != nil {
		t.Fatalf("StartSabotage(%d): %v", index, err)
	}
}

func TestStartSabotage_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		index int
		setup func(g *models.Game)
		kind  errors.Kind
	}{
		{"crew cannot sabotage", "p3", slotLights, nil, errors.ErrForbidden},
		{"disabled feature", "p1", slotLights, func(g *models.Game) { g.Settings.EnableSabotage = false }, errors.ErrInvalidState},
		{"already active", "p1", slotLights, func(g *models.Game) {
			g.ActiveSabotage = &models.ActiveSabotage{Type: models.SabotageLights, ReactorHolders: map[string]bool{}}
		}, errors.ErrInvalidState},
		{"cooldown", "p1", slotLights, func(g *models.Game) { g.SabotageCooldownEnd = testutil.Epoch.Add(time.Minute) }, errors.ErrInvalidState},
		{"slot out of range", "p1", 5, nil, errors.ErrValidation},
		{"slot disabled", "p1", slotComms, nil, errors.ErrInvalidState},
		{"during meeting", "p1", slotLights, func(g *models.Game) { g.State = models.StateMeeting }, errors.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sabotageGame(t)
			if tt.setup != nil {
				tt.setup(g)
			}
			err := engine.StartSabotage(newTurn(), g, g.Players[tt.actor], tt.index)
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestStartSabotage_DeadImpostorMaySabotage(t *testing.T) {
	g := sabotageGame(t)
	g.Players["p1"].Status = models.StatusDead

	turn := newTurn()
	if err := engine.StartSabotage(turn, g, g.Players["p1"], slotLights); err != nil {
		t.Fatalf("StartSabotage: %v", err)
	}
	if g.ActiveSabotage == nil || g.ActiveSabotage.Type != models.SabotageLights {
		t.Fatalf("expected lights active, got %+v", g.ActiveSabotage)
	}
	if turn.Out.Count(models.EventSabotageStarted) != 1 {
		t.Error("expected sabotage_started")
	}
}

func TestFixLights(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotLights)

	res, err := engine.FixSabotage(turnAt(10*time.Second), g, g.Players["p3"], engine.FixTap)
	if err != nil {
		t.Fatalf("FixSabotage: %v", err)
	}
	if !res.Resolved || g.ActiveSabotage != nil {
		t.Fatal("expected lights resolved")
	}
	want := testutil.Epoch.Add(10*time.Second + 60*time.Second)
	if !g.SabotageCooldownEnd.Equal(want) {
		t.Errorf("expected cooldown end %v, got %v", want, g.SabotageCooldownEnd)
	}
}

func TestReactorRendezvous(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotReactor)

	steps := []struct {
		player   string
		action   string
		resolved bool
		holders  int
	}{
		{"p3", engine.FixHoldStart, false, 1},
		{"p3", engine.FixHoldStart, false, 1},
		{"p3", engine.FixHoldEnd, false, 0},
		{"p4", engine.FixHoldStart, false, 1},
		{"p3", engine.FixHoldStart, true, 0},
	}

	for i, step := range steps {
		res, err := engine.FixSabotage(turnAt(time.Second), g, g.Players[step.player], step.action)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Resolved != step.resolved {
			t.Fatalf("step %d: resolved = %v, want %v", i, res.Resolved, step.resolved)
		}
		if !res.Resolved && len(res.Holders) != step.holders {
			t.Fatalf("step %d: %d holders, want %d", i, len(res.Holders), step.holders)
		}
	}
	if g.ActiveSabotage != nil {
		t.Error("expected reactor cleared")
	}
}

func TestReactor_RejectsTap(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotReactor)

	if _, err := engine.FixSabotage(newTurn(), g, g.Players["p3"], engine.FixTap); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestO2NeedsTwoSwitches(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotO2)

	turn := newTurn()
	res, err := engine.FixSabotage(turn, g, g.Players["p3"], engine.FixTap)
	if err != nil || res.Resolved || res.O2Switches != 1 {
		t.Fatalf("first switch: %+v, %v", res, err)
	}
	if turn.Out.Count(models.EventSabotageUpdate) != 1 {
		t.Error("expected sabotage_update after the first switch")
	}
	res, err = engine.FixSabotage(newTurn(), g, g.Players["p3"], engine.FixTap)
	if err != nil || !res.Resolved {
		t.Fatalf("second switch: %+v, %v", res, err)
	}
}

func TestDeadPlayersCannotFix(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotLights)
	g.Players["p3"].Status = models.StatusDead

	if _, err := engine.FixSabotage(newTurn(), g, g.Players["p3"], engine.FixTap); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSabotageTimeout(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotReactor)

	if engine.CheckSabotageTimeout(turnAt(44*time.Second), g) {
		t.Fatal("timed out early")
	}
	if _, err := engine.FixSabotage(turnAt(45*time.Second), g, g.Players["p3"], engine.FixHoldStart); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("expected fix after expiry to be rejected, got %v", err)
	}

	turn := turnAt(45 * time.Second)
	if !engine.CheckSabotageTimeout(turn, g) {
		t.Fatal("expected timeout")
	}
	if g.State != models.StateEnded || g.Winner != models.WinnerImpostor {
		t.Fatalf("expected impostor win, got %s/%q", g.State, g.Winner)
	}
	if g.WinReason != "Reactor Meltdown was not fixed in time!" {
		t.Errorf("unexpected reason %q", g.WinReason)
	}
	if g.ActiveSabotage != nil {
		t.Error("expected sabotage cleared")
	}
	if engine.CheckSabotageTimeout(turnAt(50*time.Second), g) {
		t.Error("timeout fired twice")
	}
}

func TestUntimedSabotageNeverExpires(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotLights)

	if engine.CheckSabotageTimeout(turnAt(24*time.Hour), g) {
		t.Fatal("lights should never time out")
	}
}

func TestStatus(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotReactor)

	st := engine.Status(turnAt(10500*time.Millisecond), g)
	if !st.Active || st.Remaining != 35 || st.Name != "Reactor Meltdown" {
		t.Fatalf("unexpected status %+v", st)
	}

	if _, err := engine.FixSabotage(turnAt(11*time.Second), g, g.Players["p3"], engine.FixHoldStart); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.FixSabotage(turnAt(11*time.Second), g, g.Players["p4"], engine.FixHoldStart); err != nil {
		t.Fatal(err)
	}

	st = engine.Status(turnAt(21*time.Second), g)
	if st.Active || st.CooldownRemaining != 50 {
		t.Fatalf("expected 50s of cooldown left, got %+v", st)
	}
}

func TestLightsSurvivesMeeting(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotLights)

	if err := engine.CallMeeting(turnAt(5*time.Second), g, g.Players["p3"], models.MeetingEmergency); err != nil {
		t.Fatalf("CallMeeting: %v", err)
	}
	if g.ActiveSabotage != nil {
		t.Fatal("no sabotage may be active during a meeting")
	}
	if err := engine.EndMeeting(turnAt(30*time.Second), g, g.Players["p3"]); err != nil {
		t.Fatalf("EndMeeting: %v", err)
	}
	if g.ActiveSabotage == nil || g.ActiveSabotage.Type != models.SabotageLights {
		t.Fatalf("expected lights to still be active, got %+v", g.ActiveSabotage)
	}
}

func TestMeetingPausesSuspendedCountdown(t *testing.T) {
	g := sabotageGame(t)
	g.Settings.Sabotages[slotComms-1] = models.SabotageSlot{Enabled: true, Name: "Comms", Type: models.SabotageComms, Timer: 30}
	startSabotage(t, g, slotComms)

	if err := engine.CallMeeting(turnAt(10*time.Second), g, g.Players["p3"], models.MeetingEmergency); err != nil {
		t.Fatal(err)
	}
	if err := engine.EndMeeting(turnAt(70*time.Second), g, g.Players["p3"]); err != nil {
		t.Fatal(err)
	}

	st := engine.Status(turnAt(70*time.Second), g)
	if !st.Active || st.Remaining != 20 {
		t.Fatalf("expected 20s left on comms, got %+v", st)
	}
}

func TestReactorClearedByMeeting(t *testing.T) {
	g := sabotageGame(t)
	startSabotage(t, g, slotReactor)

	turn := turnAt(5 * time.Second)
	if err := engine.CallMeeting(turn, g, g.Players["p3"], models.MeetingEmergency); err != nil {
		t.Fatalf("CallMeeting: %v", err)
	}
	if g.ActiveSabotage != nil || g.SuspendedSabotage != nil {
		t.Fatal("expected reactor cleared by the meeting")
	}
	if !g.SabotageCooldownEnd.Equal(testutil.Epoch.Add(65 * time.Second)) {
		t.Errorf("expected cooldown to start at the meeting call, got %v", g.SabotageCooldownEnd)
	}
	env, ok := turn.Out.Last(models.EventSabotageResolved)
	if !ok {
		t.Fatal("expected sabotage_resolved")
	}
	if by := env.Message.Payload.(map[string]interface{})["resolved_by"]; by != "Meeting" {
		t.Errorf("expected resolved_by Meeting, got %v", by)
	}

	if err := engine.EndMeeting(turnAt(20*time.Second), g, g.Players["p3"]); err != nil {
		t.Fatal(err)
	}
	if g.ActiveSabotage != nil {
		t.Error("reactor must not come back after the meeting")
	}
}
