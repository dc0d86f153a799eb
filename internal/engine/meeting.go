package engine

import (
	"sort"
	"time"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// VoteProgress is returned to a voter after a ballot is recorded
type VoteProgress struct {
	VotesCast   int  `json:"votes_cast"`
	VotesNeeded int  `json:"votes_needed"`
	AllVoted    bool `json:"all_voted"`
	Revealed    bool `json:"revealed"`
}

// ParseMeetingType accepts "meeting", "body_report" or empty for an emergency meeting
func ParseMeetingType(s string) (models.MeetingType, error) {
	switch models.MeetingType(s) {
	case "", models.MeetingEmergency:
		return models.MeetingEmergency, nil
	case models.MeetingBodyReport:
		return models.MeetingBodyReport, nil
	}
	return "", errors.Validationf("unknown meeting type %q", s)
}

// CallMeeting lets an alive player call a meeting
func CallMeeting(t *Turn, g *models.Game, caller *models.Player, typ models.MeetingType) error {
	if !caller.Alive() {
		return errors.Forbidden("dead players cannot call meetings")
	}
	if g.State != models.StatePlaying {
		return errors.InvalidState("meetings can only be called while playing")
	}
	startMeeting(t, g, caller, typ, "")
	return nil
}

// startMeeting opens a meeting in the gathering phase. Every body on the
// floor becomes ineligible for eating, reactor and o2 are resolved, and
// lights or comms are suspended until the meeting ends.
func startMeeting(t *Turn, g *models.Game, caller *models.Player, typ models.MeetingType, via string) {
	var dead []PlayerRef
	for _, p := range g.OrderedPlayers() {
		if !p.Alive() {
			g.VultureIneligible[p.ID] = true
			dead = append(dead, PlayerRef{ID: p.ID, Name: p.Name})
		}
	}

	var interrupted string
	if s := g.ActiveSabotage; s != nil {
		if s.Type.InterruptedByMeeting() {
			interrupted = s.Name
			resolveSabotage(t, g, "Meeting")
		} else {
			g.SuspendedSabotage = s
			g.ActiveSabotage = nil
		}
	}

	g.ActiveMeeting = &models.MeetingState{
		StartedAt:  t.Now,
		CallerID:   caller.ID,
		CallerName: caller.Name,
		Type:       typ,
		Phase:      models.PhaseGathering,
		Votes:      make(map[string]*models.Vote),
	}
	g.State = models.StateMeeting
	g.MeetingCount++

	payload := map[string]interface{}{
		"caller_id":    caller.ID,
		"caller_name":  caller.Name,
		"meeting_type": typ,
		"dead_players": dead,
	}
	if interrupted != "" {
		payload["interrupted_sabotage"] = interrupted
	}
	if via != "" {
		payload["via"] = via
	}
	t.Out.Broadcast(models.EventMeetingCalled, payload)
}

// StartVoting moves the meeting from gathering to voting. Only the caller may
// do this (or the host once the caller is dead). Calling it again is a no-op
// and reports false.
func StartVoting(t *Turn, g *models.Game, p *models.Player) (bool, error) {
	m, err := activeMeeting(g)
	if err != nil {
		return false, err
	}
	if p.ID != m.CallerID {
		caller := g.Player(m.CallerID)
		if !(p.IsHost && (caller == nil || !caller.Alive())) {
			return false, errors.Forbidden("only the player who called the meeting can start voting")
		}
	}
	if !g.Settings.EnableVoting {
		return false, errors.InvalidState("voting is disabled in this game")
	}
	if m.Phase != models.PhaseGathering {
		return false, nil
	}

	m.Phase = models.PhaseVoting
	m.DiscussionEndTime = t.Now.Add(time.Duration(g.Settings.DiscussionTime) * time.Second)
	m.VotingEndTime = t.Now.Add(time.Duration(g.Settings.MeetingTimer) * time.Second)

	t.Out.Broadcast(models.EventVotingStarted, map[string]interface{}{
		"discussion_end_time": m.DiscussionEndTime,
		"voting_end_time":     m.VotingEndTime,
		"discussion_time":     g.Settings.DiscussionTime,
		"meeting_timer":       g.Settings.MeetingTimer,
		"anonymous":           g.Settings.AnonymousVoting,
	})
	return true, nil
}

// CastVote records a ballot. An empty targetID is a skip; self votes are
// allowed. The last missing ballot triggers the reveal.
func CastVote(t *Turn, g *models.Game, voter *models.Player, targetID string) (VoteProgress, error) {
	m, err := activeMeeting(g)
	if err != nil {
		return VoteProgress{}, err
	}
	if m.Phase != models.PhaseVoting || m.VotingEnded {
		return VoteProgress{}, errors.InvalidState("voting is not open")
	}
	if t.Now.Before(m.DiscussionEndTime) {
		return VoteProgress{}, errors.InvalidStatef("discussion continues for %d more seconds", secondsUntil(t.Now, m.DiscussionEndTime))
	}
	if !voter.Alive() {
		return VoteProgress{}, errors.Forbidden("dead players cannot vote")
	}
	if _, ok := m.Votes[voter.ID]; ok {
		return VoteProgress{}, errors.AlreadyDone("you have already voted")
	}
	var target *models.Player
	if targetID != "" {
		target = g.Player(targetID)
		if target == nil {
			return VoteProgress{}, errors.NotFound("vote target not found")
		}
		if !target.Alive() {
			return VoteProgress{}, errors.InvalidState("cannot vote for a dead player")
		}
	}

	m.Votes[voter.ID] = &models.Vote{VoterID: voter.ID, TargetID: targetID, CastAt: t.Now}

	needed := len(g.AlivePlayers())
	progress := VoteProgress{
		VotesCast:   len(m.Votes),
		VotesNeeded: needed,
		AllVoted:    len(m.Votes) >= needed,
	}
	payload := map[string]interface{}{
		"votes_cast":   progress.VotesCast,
		"votes_needed": progress.VotesNeeded,
		"all_voted":    progress.AllVoted,
	}
	if !g.Settings.AnonymousVoting {
		payload["voter_name"] = voter.Name
		if target != nil {
			payload["target_name"] = target.Name
		} else {
			payload["target_name"] = "Skip"
		}
	}
	t.Out.Broadcast(models.EventVoteCast, payload)

	if progress.AllVoted {
		reveal(t, g)
		progress.Revealed = true
	}
	return progress, nil
}

// TimerExpired reveals the vote once the voting window has closed. It is a
// no-op if the reveal already happened.
func TimerExpired(t *Turn, g *models.Game) (bool, error) {
	m, err := activeMeeting(g)
	if err != nil {
		return false, err
	}
	if m.VotingEnded {
		return false, nil
	}
	if m.Phase != models.PhaseVoting {
		return false, errors.InvalidState("voting has not started")
	}
	if t.Now.Before(m.VotingEndTime) {
		return false, errors.InvalidStatef("voting continues for %d more seconds", secondsUntil(t.Now, m.VotingEndTime))
	}
	reveal(t, g)
	return true, nil
}

// CheckVotingTimeout reveals the vote if the voting window has closed. Used
// by the optional background sweep.
func CheckVotingTimeout(t *Turn, g *models.Game) bool {
	m := g.ActiveMeeting
	if m == nil || m.Phase != models.PhaseVoting || m.VotingEnded || t.Now.Before(m.VotingEndTime) {
		return false
	}
	reveal(t, g)
	return true
}

// settleVoting reveals if every remaining alive player has voted, which can
// happen when a player who had not voted dies mid-vote
func settleVoting(t *Turn, g *models.Game) {
	m := g.ActiveMeeting
	if m == nil || m.Phase != models.PhaseVoting || m.VotingEnded {
		return
	}
	alive := len(g.AlivePlayers())
	if alive > 0 && len(m.Votes) >= alive {
		reveal(t, g)
	}
}

// reveal tallies the vote exactly once and applies its outcome
func reveal(t *Turn, g *models.Game) {
	m := g.ActiveMeeting
	if m == nil || m.VotingEnded {
		return
	}
	m.VotingEnded = true
	m.Phase = models.PhaseResults

	var swap []string
	for _, p := range g.OrderedPlayers() {
		if p.Role == models.RoleSwapper && p.Alive() && len(p.Ability.SwapTargets) == 2 && swap == nil {
			swap = p.Ability.SwapTargets
		}
		if p.Role == models.RoleSwapper {
			p.Ability.SwapTargets = nil
		}
	}

	// a swap involving a dead player would redirect ballots onto a body
	if swap != nil && (!isAlive(g, swap[0]) || !isAlive(g, swap[1])) {
		swap = nil
	}

	result := Tally(g.Players, m.Votes, swap, g.Settings.AnonymousVoting)
	m.Result = result
	t.Out.Broadcast(models.EventVoteResults, result)

	if result.Outcome != models.OutcomeElimination {
		applyWin(t, g)
		return
	}

	victim := g.Player(result.EliminatedID)
	if victim == nil || !victim.Alive() {
		applyWin(t, g)
		return
	}
	g.VultureIneligible[victim.ID] = true
	kill(t, g, victim, models.CauseVotedOut)

	if victim.Role == models.RoleJester {
		finish(t, g, models.WinnerJester, victim.Name+" was voted out")
		return
	}
	for _, p := range g.OrderedPlayers() {
		if p.Role == models.RoleExecutioner && p.Alive() && p.Ability.ExecutionerTargetID == victim.ID {
			finish(t, g, models.WinnerExecutioner, p.Name+" got "+victim.Name+" voted out")
			return
		}
	}
	applyWin(t, g)
}

func isAlive(g *models.Game, id string) bool {
	p := g.Player(id)
	return p != nil && p.Alive()
}

// Tally counts the ballots. A ballot for either player in swap counts for
// the other; a Mayor's ballot weighs 2. Skip winning or tying the top
// candidate means no elimination, as does a tie between candidates.
func Tally(players map[string]*models.Player, votes map[string]*models.Vote, swap []string, anonymous bool) *models.VoteResult {
	result := &models.VoteResult{
		VoteCounts: make(map[string]int),
	}
	if !anonymous {
		result.VotesByTarget = make(map[string][]string)
		result.IndividualVotes = make(map[string]string)
	}

	name := func(id string) string {
		if p := players[id]; p != nil {
			return p.Name
		}
		return id
	}

	if len(swap) == 2 {
		for _, id := range swap {
			result.SwappedNames = append(result.SwappedNames, name(id))
			result.VoteCounts[name(id)] += 0
		}
	}

	voterIDs := make([]string, 0, len(votes))
	for id := range votes {
		voterIDs = append(voterIDs, id)
	}
	sort.Strings(voterIDs)

	weights := make(map[string]int)
	for _, voterID := range voterIDs {
		v := votes[voterID]
		weight := 1
		if voter := players[voterID]; voter != nil && voter.Role.Info().VoteWeight > 1 {
			weight = voter.Role.Info().VoteWeight
		}

		target := v.TargetID
		if target != "" && len(swap) == 2 {
			switch target {
			case swap[0]:
				target = swap[1]
			case swap[1]:
				target = swap[0]
			}
		}

		result.TotalVotes++
		label := "Skip"
		if target == "" {
			result.SkipCount += weight
		} else {
			weights[target] += weight
			label = name(target)
			result.VoteCounts[label] += weight
		}

		if !anonymous {
			for i := 0; i < weight; i++ {
				result.VotesByTarget[label] = append(result.VotesByTarget[label], name(voterID))
			}
			result.IndividualVotes[name(voterID)] = label
		}
	}

	top, topID, atTop := 0, "", 0
	for id, w := range weights {
		switch {
		case w > top:
			top, topID, atTop = w, id, 1
		case w == top:
			atTop++
		}
	}

	switch {
	case result.SkipCount > top || top == 0:
		result.Outcome = models.OutcomeSkip
	case result.SkipCount == top || atTop > 1:
		result.Outcome = models.OutcomeTie
	default:
		result.Outcome = models.OutcomeElimination
		result.EliminatedID = topID
		result.EliminatedName = name(topID)
		if p := players[topID]; p != nil {
			result.EliminatedRole = p.Role
		}
	}
	return result
}

// EndMeeting closes the meeting and returns to play. The caller or the host
// may end it.
func EndMeeting(t *Turn, g *models.Game, p *models.Player) error {
	m, err := activeMeeting(g)
	if err != nil {
		return err
	}
	if p.ID != m.CallerID && !p.IsHost {
		return errors.Forbidden("only the meeting caller or the host can end the meeting")
	}

	alive := make([]string, 0, len(g.Players))
	for _, q := range g.OrderedPlayers() {
		q.Ability.GuessedThisMeeting = false
		q.Ability.SwapTargets = nil
		if q.Alive() {
			alive = append(alive, q.ID)
		}
	}
	g.AliveAtLastMeeting = alive

	if s := g.SuspendedSabotage; s != nil {
		// the countdown is paused for the length of the meeting
		s.StartedAt = s.StartedAt.Add(t.Now.Sub(m.StartedAt))
		g.ActiveSabotage = s
		g.SuspendedSabotage = nil
	}

	g.ActiveMeeting = nil
	g.State = models.StatePlaying

	payload := map[string]interface{}{
		"result": m.Result,
	}
	if g.ActiveSabotage != nil {
		payload["active_sabotage"] = Status(t, g)
	}
	t.Out.Broadcast(models.EventMeetingEnded, payload)

	applyWin(t, g)
	return nil
}

func activeMeeting(g *models.Game) (*models.MeetingState, error) {
	if g.State != models.StateMeeting || g.ActiveMeeting == nil {
		return nil, errors.InvalidState("no meeting in progress")
	}
	return g.ActiveMeeting, nil
}
