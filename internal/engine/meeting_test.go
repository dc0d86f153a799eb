package engine_test

import (
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/testutil"
)

// afterDiscussion is past the default 15s discussion window
const afterDiscussion = 20 * time.Second

func openVoting(t *testing.T, g *models.Game, callerID string) {
	t.Helper()
	caller := g.Players[callerID]
	if err := engine.CallMeeting(newTurn(), g, caller, models.MeetingEmergency); err != nil {
		t.Fatalf("CallMeeting: %v", err)
	}
	if _, err := engine.StartVoting(newTurn(), g, caller); err != nil {
		t.Fatalf("StartVoting: %v", err)
	}
}

func vote(t *testing.T, turn *engine.Turn, g *models.Game, voterID, targetID string) engine.VoteProgress {
	t.Helper()
	progress, err := engine.CastVote(turn, g, g.Players[voterID], targetID)
	if err != nil {
		t.Fatalf("%s voting for %q: %v", voterID, targetID, err)
	}
	return progress
}

func ballots(pairs ...string) map[string]*models.Vote {
	votes := make(map[string]*models.Vote)
	for i := 0; i+1 < len(pairs); i += 2 {
		votes[pairs[i]] = &models.Vote{VoterID: pairs[i], TargetID: pairs[i+1]}
	}
	return votes
}

func TestTally(t *testing.T) {
	C := models.RoleCrewmate
	tests := []struct {
		name       string
		roles      []models.Role
		votes      map[string]*models.Vote
		swap       []string
		outcome    string
		eliminated string
	}{
		{"all skip", []models.Role{C, C, C, C}, ballots("p1", "", "p2", "", "p3", "", "p4", ""), nil, models.OutcomeSkip, ""},
		{"three for one", []models.Role{C, C, C, C}, ballots("p1", "p4", "p2", "p4", "p3", "p4", "p4", ""), nil, models.OutcomeElimination, "p4"},
		{"two two split", []models.Role{C, C, C, C}, ballots("p1", "p3", "p2", "p3", "p3", "p1", "p4", "p1"), nil, models.OutcomeTie, ""},
		{"skip plurality", []models.Role{C, C, C, C}, ballots("p1", "p4", "p2", "", "p3", "", "p4", ""), nil, models.OutcomeSkip, ""},
		{"three way split with a skip", []models.Role{C, C, C, C}, ballots("p1", "p2", "p2", "p3", "p3", "p4", "p4", ""), nil, models.OutcomeTie, ""},
		{"candidate tied with skip", []models.Role{C, C, C, C}, ballots("p1", "p2", "p2", "p2", "p3", "", "p4", ""), nil, models.OutcomeTie, ""},
		{"no ballots", []models.Role{C, C, C, C}, ballots(), nil, models.OutcomeSkip, ""},
		{"mayor breaks the tie", []models.Role{models.RoleMayor, C, C, C}, ballots("p1", "p3", "p2", "p4"), nil, models.OutcomeElimination, "p3"},
		{"swap redirects votes", []models.Role{C, C, C, C}, ballots("p1", "p4", "p2", "p4", "p3", "p4"), []string{"p4", "p2"}, models.OutcomeElimination, "p2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewGame(t, tt.roles...)
			res := engine.Tally(g.Players, tt.votes, tt.swap, false)
			if res.Outcome != tt.outcome {
				t.Fatalf("outcome = %q, want %q (%+v)", res.Outcome, tt.outcome, res)
			}
			if res.EliminatedID != tt.eliminated {
				t.Errorf("eliminated = %q, want %q", res.EliminatedID, tt.eliminated)
			}
		})
	}
}

func TestTally_Breakdown(t *testing.T) {
	g := testutil.NewGame(t, models.RoleMayor, models.RoleCrewmate, models.RoleCrewmate)
	votes := ballots("p1", "p3", "p2", "p3", "p3", "")

	res := engine.Tally(g.Players, votes, nil, false)
	if res.VoteCounts["P3"] != 3 || res.SkipCount != 1 || res.TotalVotes != 3 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if got := res.VotesByTarget["P3"]; len(got) != 3 {
		t.Errorf("expected mayor listed twice among P3's voters, got %v", got)
	}
	if res.IndividualVotes["P3"] != "Skip" {
		t.Errorf("expected P3 to have skipped, got %q", res.IndividualVotes["P3"])
	}

	anon := engine.Tally(g.Players, votes, nil, true)
	if anon.VotesByTarget != nil || anon.IndividualVotes != nil {
		t.Error("anonymous results must not carry individual votes")
	}
	if anon.VoteCounts["P3"] != 3 {
		t.Error("anonymous results still carry aggregate counts")
	}
}

func TestMeetingFlow(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	g.Players["p5"].Status = models.StatusDead

	if err := engine.CallMeeting(newTurn(), g, g.Players["p5"], models.MeetingEmergency); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("dead caller: expected forbidden, got %v", err)
	}

	turn := newTurn()
	if err := engine.CallMeeting(turn, g, g.Players["p2"], models.MeetingBodyReport); err != nil {
		t.Fatalf("CallMeeting: %v", err)
	}
	if g.State != models.StateMeeting || g.ActiveMeeting == nil || g.ActiveMeeting.Phase != models.PhaseGathering {
		t.Fatalf("expected a gathering meeting, got %s %+v", g.State, g.ActiveMeeting)
	}
	if !g.VultureIneligible["p5"] {
		t.Error("expected the body on the floor to become ineligible")
	}
	if turn.Out.Count(models.EventMeetingCalled) != 1 {
		t.Error("expected meeting_called")
	}

	if err := engine.CallMeeting(newTurn(), g, g.Players["p3"], models.MeetingEmergency); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("second meeting: expected invalid state, got %v", err)
	}
	if _, err := engine.CastVote(newTurn(), g, g.Players["p3"], ""); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("vote while gathering: expected invalid state, got %v", err)
	}
	if _, err := engine.StartVoting(newTurn(), g, g.Players["p3"]); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("non-caller start voting: expected forbidden, got %v", err)
	}

	started, err := engine.StartVoting(newTurn(), g, g.Players["p2"])
	if err != nil || !started {
		t.Fatalf("StartVoting: %v %v", started, err)
	}
	again := newTurn()
	started, err = engine.StartVoting(again, g, g.Players["p2"])
	if err != nil || started {
		t.Fatalf("second StartVoting should be a quiet no-op, got %v %v", started, err)
	}
	if again.Out.Count(models.EventVotingStarted) != 0 {
		t.Error("second StartVoting must not broadcast")
	}

	if _, err := engine.CastVote(turnAt(5*time.Second), g, g.Players["p3"], ""); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("vote during discussion: expected invalid state, got %v", err)
	}

	tests := []struct {
		name   string
		voter  string
		target string
		kind   errors.Kind
	}{
		{"dead voter", "p5", "", errors.ErrForbidden},
		{"unknown target", "p3", "ghost", errors.ErrNotFound},
		{"dead target", "p3", "p5", errors.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CastVote(turnAt(afterDiscussion), g, g.Players[tt.voter], tt.target)
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}

	vote(t, turnAt(afterDiscussion), g, "p3", "p3")
	if _, err := engine.CastVote(turnAt(afterDiscussion), g, g.Players["p3"], ""); !errors.Is(err, errors.ErrAlreadyDone) {
		t.Fatalf("double vote: expected already done, got %v", err)
	}
	vote(t, turnAt(afterDiscussion), g, "p1", "p1")
	vote(t, turnAt(afterDiscussion), g, "p2", "p1")

	last := turnAt(afterDiscussion)
	progress := vote(t, last, g, "p4", "p1")
	if !progress.AllVoted || !progress.Revealed {
		t.Fatalf("expected the last ballot to reveal, got %+v", progress)
	}

	// impostor voted out
	if g.State != models.StateEnded || g.Winner != models.WinnerCrewmate {
		t.Fatalf("expected crew win, got %s/%q", g.State, g.Winner)
	}
	if last.Out.Count(models.EventVoteResults) != 1 || last.Out.Count(models.EventGameEnded) != 1 {
		t.Errorf("expected vote_results and game_ended, got %+v", last.Out.Envelopes)
	}
	if g.Players["p1"].DeathCause != models.CauseVotedOut {
		t.Errorf("expected voted_out, got %q", g.Players["p1"].DeathCause)
	}
}

func TestReveal_SingleFire(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")

	at := turnAt(afterDiscussion)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		vote(t, at, g, id, "")
	}
	progress := vote(t, at, g, "p6", "")
	if !progress.Revealed {
		t.Fatal("expected reveal on the last ballot")
	}

	expired := turnAt(10 * time.Minute)
	revealed, err := engine.TimerExpired(expired, g)
	if err != nil || revealed {
		t.Fatalf("timer after reveal should be a no-op, got %v %v", revealed, err)
	}
	if n := at.Out.Count(models.EventVoteResults) + expired.Out.Count(models.EventVoteResults); n != 1 {
		t.Errorf("expected exactly one vote_results, got %d", n)
	}
	if g.ActiveMeeting.Result == nil || g.ActiveMeeting.Result.Outcome != models.OutcomeSkip {
		t.Errorf("expected a frozen skip result, got %+v", g.ActiveMeeting.Result)
	}
}

func TestTimerExpired(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")
	vote(t, turnAt(afterDiscussion), g, "p3", "p1")

	if _, err := engine.TimerExpired(turnAt(time.Minute), g); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("early timer: expected invalid state, got %v", err)
	}

	turn := turnAt(2 * time.Minute)
	revealed, err := engine.TimerExpired(turn, g)
	if err != nil || !revealed {
		t.Fatalf("TimerExpired: %v %v", revealed, err)
	}
	if g.Players["p1"].Alive() {
		t.Error("expected the single-vote candidate to be eliminated")
	}
	if _, err := engine.CastVote(turnAt(2*time.Minute), g, g.Players["p4"], ""); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("late vote: expected invalid state, got %v", err)
	}
}

func TestJesterVotedOutWins(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleJester, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")

	at := turnAt(afterDiscussion)
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		vote(t, at, g, id, "p2")
	}
	vote(t, at, g, "p5", "")

	if g.Winner != models.WinnerJester {
		t.Fatalf("expected jester win, got %q", g.Winner)
	}
}

func TestExecutionerTargetVotedOutWins(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleExecutioner, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	g.Players["p2"].Ability.ExecutionerTargetID = "p3"
	openVoting(t, g, "p4")

	at := turnAt(afterDiscussion)
	for _, id := range []string{"p1", "p2", "p4", "p5"} {
		vote(t, at, g, id, "p3")
	}
	vote(t, at, g, "p3", "")

	if g.Winner != models.WinnerExecutioner {
		t.Fatalf("expected executioner win, got %q", g.Winner)
	}
}

func TestExecutionerBecomesJester(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleExecutioner, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	g.Players["p2"].Ability.ExecutionerTargetID = "p3"

	turn := newTurn()
	if err := engine.MarkDead(turn, g, g.Players["p3"], "p3"); err != nil {
		t.Fatalf("MarkDead: %v", err)
	}

	exe := g.Players["p2"]
	if exe.Role != models.RoleJester || exe.Ability.OriginalRole != models.RoleExecutioner {
		t.Fatalf("expected conversion to jester, got %q (was %q)", exe.Role, exe.Ability.OriginalRole)
	}
	env, ok := turn.Out.Last(models.EventRoleChanged)
	if !ok || env.To != "p2" {
		t.Fatalf("expected a private role_changed for p2, got %+v", env)
	}
}

func TestDeathDuringVotingSettles(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")

	at := turnAt(afterDiscussion)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		vote(t, at, g, id, "")
	}

	turn := turnAt(afterDiscussion)
	if err := engine.MarkDead(turn, g, g.Players["p6"], "p6"); err != nil {
		t.Fatalf("MarkDead: %v", err)
	}
	if !g.ActiveMeeting.VotingEnded || turn.Out.Count(models.EventVoteResults) != 1 {
		t.Fatal("expected the reveal once every alive player had voted")
	}
}

func TestDeathScrubsVote(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")
	vote(t, turnAt(afterDiscussion), g, "p4", "p1")

	if err := engine.MarkDead(newTurn(), g, g.Players["p4"], "p4"); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.ActiveMeeting.Votes["p4"]; ok {
		t.Error("expected the dead player's vote to be removed")
	}
}

func TestDeadTargetCannotBeVotedOut(t *testing.T) {
	tests := []struct {
		name string
		kill func(t *testing.T, turn *engine.Turn, g *models.Game)
	}{
		{"marked dead", func(t *testing.T, turn *engine.Turn, g *models.Game) {
			if err := engine.MarkDead(turn, g, g.Players["p2"], "p2"); err != nil {
				t.Fatalf("MarkDead: %v", err)
			}
		}},
		{"guessed", func(t *testing.T, turn *engine.Turn, g *models.Game) {
			if _, err := engine.Guess(turn, g, g.Players["p3"], "p2", "jester"); err != nil {
				t.Fatalf("Guess: %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewGame(t,
				models.RoleImpostor, models.RoleJester, models.RoleNiceGuesser,
				models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
			openVoting(t, g, "p4")

			turn := turnAt(afterDiscussion)
			for _, id := range []string{"p4", "p5", "p6"} {
				vote(t, turn, g, id, "p2")
			}
			tt.kill(t, turn, g)
			vote(t, turn, g, "p1", "")
			vote(t, turn, g, "p3", "")

			m := g.ActiveMeeting
			if !m.VotingEnded || m.Result == nil {
				t.Fatal("expected the vote to be revealed")
			}
			if m.Result.Outcome != models.OutcomeSkip || m.Result.SkipCount != 5 {
				t.Errorf("ballots for the dead should count as skips, got %+v", m.Result)
			}
			if g.Winner != "" || g.State != models.StateMeeting {
				t.Errorf("expected the game to continue, got %s %q", g.State, g.Winner)
			}
			if n := turn.Out.Count(models.EventPlayerDied); n != 1 {
				t.Errorf("expected one player_died, got %d", n)
			}
		})
	}
}

func TestReveal_DropsSwapWithDeadPlayer(t *testing.T) {
	g := testutil.NewGame(t,
		models.RoleImpostor, models.RoleSwapper, models.RoleCrewmate,
		models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	openVoting(t, g, "p3")
	if _, err := engine.Swap(newTurn(), g, g.Players["p2"], "p1", "p6"); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	turn := turnAt(afterDiscussion)
	if err := engine.MarkDead(turn, g, g.Players["p6"], "p6"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"p2", "p3", "p4", "p5"} {
		vote(t, turn, g, id, "p1")
	}
	vote(t, turn, g, "p1", "")

	if r := g.ActiveMeeting.Result; r == nil || r.EliminatedID != "p1" {
		t.Fatalf("expected p1 voted out without the swap, got %+v", r)
	}
}

func TestStartVoting_HostTakesOverFromDeadCaller(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	if err := engine.CallMeeting(newTurn(), g, g.Players["p3"], models.MeetingEmergency); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.StartVoting(newTurn(), g, g.Players["p1"]); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("host with live caller: expected forbidden, got %v", err)
	}

	g.Players["p3"].Status = models.StatusDead
	if started, err := engine.StartVoting(newTurn(), g, g.Players["p1"]); err != nil || !started {
		t.Fatalf("expected host to start voting, got %v %v", started, err)
	}
}

func TestStartVoting_Disabled(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleCrewmate, models.RoleCrewmate)
	g.Settings.EnableVoting = false
	if err := engine.CallMeeting(newTurn(), g, g.Players["p2"], models.MeetingEmergency); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.StartVoting(newTurn(), g, g.Players["p2"]); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestEndMeeting(t *testing.T) {
	g := testutil.NewGame(t, models.RoleImpostor, models.RoleEvilGuesser, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate, models.RoleCrewmate)
	g.Players["p6"].Status = models.StatusDead
	if err := engine.CallMeeting(newTurn(), g, g.Players["p3"], models.MeetingEmergency); err != nil {
		t.Fatal(err)
	}
	g.Players["p2"].Ability.GuessedThisMeeting = true

	if err := engine.EndMeeting(newTurn(), g, g.Players["p4"]); !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("expected forbidden for a bystander, got %v", err)
	}

	turn := turnAt(time.Minute)
	if err := engine.EndMeeting(turn, g, g.Players["p1"]); err != nil {
		t.Fatalf("host EndMeeting: %v", err)
	}
	if g.State != models.StatePlaying || g.ActiveMeeting != nil {
		t.Fatalf("expected Playing with no meeting, got %s", g.State)
	}
	if g.Players["p2"].Ability.GuessedThisMeeting {
		t.Error("expected per-meeting guess flag reset")
	}
	if len(g.AliveAtLastMeeting) != 5 {
		t.Errorf("expected 5 players in the alive snapshot, got %v", g.AliveAtLastMeeting)
	}
	if turn.Out.Count(models.EventMeetingEnded) != 1 {
		t.Error("expected meeting_ended")
	}
	if err := engine.EndMeeting(newTurn(), g, g.Players["p1"]); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("expected invalid state with no meeting, got %v", err)
	}
}
