package engine

import (
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// GuessResult is returned to a guesser
type GuessResult struct {
	Correct      bool   `json:"correct"`
	DeadPlayerID string `json:"dead_player_id"`
	Message      string `json:"message"`
}

// VultureProgress is returned after a body is eaten
type VultureProgress struct {
	BodiesEaten  int  `json:"bodies_eaten"`
	BodiesNeeded int  `json:"bodies_needed"`
	Won          bool `json:"vulture_wins"`
}

// BountyResult is returned after a bounty claim
type BountyResult struct {
	Kills  int        `json:"bounty_kills"`
	Target *PlayerRef `json:"new_target,omitempty"`
}

func requireRole(p *models.Player, want models.Role) error {
	if p.Role != want {
		return errors.Forbiddenf("only the %s can do that", want.DisplayName())
	}
	return nil
}

func requireAlive(p *models.Player) error {
	if !p.Alive() {
		return errors.Forbidden("you are dead")
	}
	return nil
}

// EngineerFix resolves the active sabotage from anywhere, once per game
func EngineerFix(t *Turn, g *models.Game, p *models.Player) error {
	if err := requireRole(p, models.RoleEngineer); err != nil {
		return err
	}
	if err := requireAlive(p); err != nil {
		return err
	}
	if p.Ability.RemoteFixUsed {
		return errors.AlreadyDone("remote fix already used this game")
	}
	if g.State != models.StatePlaying {
		return errors.InvalidState("remote fix is only possible while playing")
	}
	if g.ActiveSabotage == nil {
		return errors.InvalidState("no active sabotage to fix")
	}

	p.Ability.RemoteFixUsed = true
	resolveSabotage(t, g, p.Name)
	return nil
}

// CaptainMeeting calls a meeting from anywhere, once per game. It is
// blocked while a sabotage is active.
func CaptainMeeting(t *Turn, g *models.Game, p *models.Player) error {
	if err := requireRole(p, models.RoleCaptain); err != nil {
		return err
	}
	if err := requireAlive(p); err != nil {
		return err
	}
	if p.Ability.RemoteMeetingUsed {
		return errors.AlreadyDone("remote meeting already used this game")
	}
	if g.State != models.StatePlaying {
		return errors.InvalidState("meetings can only be called while playing")
	}
	if g.ActiveSabotage != nil {
		return errors.InvalidState("cannot call a remote meeting during a sabotage")
	}

	p.Ability.RemoteMeetingUsed = true
	startMeeting(t, g, p, models.MeetingEmergency, "captain")
	return nil
}

// Guess lets a guesser name a target's role during a meeting. A correct
// guess kills the target and the guesser may keep going; a wrong guess kills
// the guesser. A Nice Guesser naming "Impostor" matches every
// impostor-category role.
func Guess(t *Turn, g *models.Game, p *models.Player, targetID, guessed string) (GuessResult, error) {
	if !p.Role.Info().Guesser {
		return GuessResult{}, errors.Forbidden("only guessers can guess roles")
	}
	if err := requireAlive(p); err != nil {
		return GuessResult{}, err
	}
	if g.State != models.StateMeeting {
		return GuessResult{}, errors.InvalidState("guesses can only be made during meetings")
	}
	if p.Ability.GuessedThisMeeting {
		return GuessResult{}, errors.AlreadyDone("you already guessed this meeting")
	}
	role, ok := models.ParseRole(guessed)
	if !ok {
		return GuessResult{}, errors.Validationf("unknown role %q", guessed)
	}
	target := g.Player(targetID)
	if target == nil {
		return GuessResult{}, errors.NotFound("target not found")
	}
	if target.ID == p.ID {
		return GuessResult{}, errors.Validation("you cannot guess your own role")
	}
	if !target.Alive() {
		return GuessResult{}, errors.InvalidState("target is already dead")
	}

	correct := target.Role == role
	if p.Role == models.RoleNiceGuesser && role == models.RoleImpostor {
		correct = target.Role.Category() == models.CategoryImpostor
	}

	dead, cause := target, models.CauseGuessed
	if !correct {
		p.Ability.GuessedThisMeeting = true
		dead, cause = p, models.CauseMisguessed
	}
	kill(t, g, dead, cause)

	res := GuessResult{
		Correct:      correct,
		DeadPlayerID: dead.ID,
		Message:      dead.Name + " has been eliminated.",
	}
	payload := map[string]interface{}{
		"guesser_id":       p.ID,
		"guesser_name":     p.Name,
		"target_id":        target.ID,
		"target_name":      target.Name,
		"guessed_role":     role.DisplayName(),
		"correct":          correct,
		"dead_player_id":   dead.ID,
		"dead_player_name": dead.Name,
		"message":          res.Message,
	}
	if m := g.ActiveMeeting; m != nil {
		payload["votes_cast"] = len(m.Votes)
		payload["votes_needed"] = len(g.AlivePlayers())
	}
	t.Out.Broadcast(models.EventGuesserResult, payload)

	settleVoting(t, g)
	applyWin(t, g)
	return res, nil
}

// VultureEat consumes a body. Each body can be eaten once, and bodies found
// at a meeting or voted out are off limits.
func VultureEat(t *Turn, g *models.Game, p *models.Player, bodyID string) (VultureProgress, error) {
	if err := requireRole(p, models.RoleVulture); err != nil {
		return VultureProgress{}, err
	}
	if err := requireAlive(p); err != nil {
		return VultureProgress{}, err
	}
	if g.State != models.StatePlaying {
		return VultureProgress{}, errors.InvalidState("bodies can only be eaten while playing")
	}
	body := g.Player(bodyID)
	if body == nil {
		return VultureProgress{}, errors.NotFound("body not found")
	}
	if body.Alive() {
		return VultureProgress{}, errors.InvalidState("that player is not dead")
	}
	for _, id := range p.Ability.EatenBodyIDs {
		if id == bodyID {
			return VultureProgress{}, errors.AlreadyDone("you already ate this body")
		}
	}
	if g.VultureIneligible[bodyID] {
		return VultureProgress{}, errors.InvalidState("this body is no longer available")
	}

	p.Ability.EatenBodyIDs = append(p.Ability.EatenBodyIDs, bodyID)
	t.Out.Send(body.ID, models.EventBodyEaten, map[string]interface{}{
		"message": "A Vulture ate your body! Act alive until the next meeting.",
	})

	progress := VultureProgress{
		BodiesEaten:  len(p.Ability.EatenBodyIDs),
		BodiesNeeded: g.Settings.VultureEatCount,
	}
	progress.Won = applyWin(t, g) && g.Winner == models.WinnerVulture
	return progress, nil
}

// ClaimBounty reports that the hunter's bounty target is dead. A claimed
// kill counts toward the hunter's total. A target that died and was already
// replaced can still be claimed once.
func ClaimBounty(t *Turn, g *models.Game, p *models.Player, claimed bool) (BountyResult, error) {
	if !p.Role.Info().HasBounty {
		return BountyResult{}, errors.Forbidden("only bounty hunters can claim bounties")
	}
	if err := requireAlive(p); err != nil {
		return BountyResult{}, err
	}
	if g.State != models.StatePlaying {
		return BountyResult{}, errors.InvalidState("bounties can only be claimed while playing")
	}

	reason := "claimed"
	if p.Ability.BountyPendingClaimID != "" {
		p.Ability.BountyPendingClaimID = ""
	} else {
		if p.Ability.BountyTargetID == "" {
			return BountyResult{}, errors.InvalidState("no bounty target assigned")
		}
		if target := g.Player(p.Ability.BountyTargetID); target != nil && target.Alive() {
			return BountyResult{}, errors.InvalidState("bounty target is not dead")
		}
		p.Ability.BountyTargetID = pickBountyTarget(g, p, t.Rand)
	}
	if claimed {
		p.Ability.BountyKills++
	} else {
		reason = "reassigned"
	}

	sendBountyUpdate(t, g, p, reason)

	res := BountyResult{Kills: p.Ability.BountyKills}
	if target := g.Player(p.Ability.BountyTargetID); target != nil {
		res.Target = &PlayerRef{ID: target.ID, Name: target.Name}
	}
	return res, nil
}

// Swap stores the Swapper's pair for the next reveal
func Swap(t *Turn, g *models.Game, p *models.Player, firstID, secondID string) ([]string, error) {
	if err := requireRole(p, models.RoleSwapper); err != nil {
		return nil, err
	}
	if err := requireAlive(p); err != nil {
		return nil, err
	}
	m := g.ActiveMeeting
	if g.State != models.StateMeeting || m == nil || m.Phase != models.PhaseVoting || m.VotingEnded {
		return nil, errors.InvalidState("swaps can only be made while voting is open")
	}
	if firstID == secondID {
		return nil, errors.Validation("pick two different players")
	}
	first, second := g.Player(firstID), g.Player(secondID)
	if first == nil || second == nil {
		return nil, errors.NotFound("player not found")
	}
	if !first.Alive() || !second.Alive() {
		return nil, errors.InvalidState("only alive players can be swapped")
	}

	p.Ability.SwapTargets = []string{first.ID, second.ID}
	names := []string{first.Name, second.Name}
	t.Out.Send(p.ID, models.EventSwapSelected, map[string]interface{}{
		"swapped": names,
	})
	return names, nil
}

// NoiseMakerReport lets a dead Noise Maker pick who finds their body. The
// target becomes the caller of a body report meeting.
func NoiseMakerReport(t *Turn, g *models.Game, p *models.Player, targetID string) error {
	if err := requireRole(p, models.RoleNoiseMaker); err != nil {
		return err
	}
	if p.Alive() {
		return errors.Forbidden("you must be dead to use this ability")
	}
	if p.Ability.NoiseMakerUsed {
		return errors.AlreadyDone("noise already made this game")
	}
	if g.State != models.StatePlaying {
		return errors.InvalidState("only possible while playing")
	}
	target := g.Player(targetID)
	if target == nil {
		return errors.NotFound("target not found")
	}
	if !target.Alive() {
		return errors.InvalidState("target must be alive")
	}

	p.Ability.NoiseMakerUsed = true
	startMeeting(t, g, target, models.MeetingBodyReport, "noise_maker")
	return nil
}

// LookoutWatch selects the player the Lookout keeps an eye on. Only players
// alive when the last meeting ended can be picked.
func LookoutWatch(t *Turn, g *models.Game, p *models.Player, targetID string) (PlayerRef, error) {
	if err := requireRole(p, models.RoleLookout); err != nil {
		return PlayerRef{}, err
	}
	if err := requireAlive(p); err != nil {
		return PlayerRef{}, err
	}
	if g.State != models.StatePlaying {
		return PlayerRef{}, errors.InvalidState("only possible while playing")
	}
	target := g.Player(targetID)
	if target == nil {
		return PlayerRef{}, errors.NotFound("target not found")
	}
	if target.ID == p.ID {
		return PlayerRef{}, errors.Validation("you cannot watch yourself")
	}
	if !target.Alive() {
		return PlayerRef{}, errors.InvalidState("target must be alive")
	}
	if g.AliveAtLastMeeting != nil && !contains(g.AliveAtLastMeeting, target.ID) {
		return PlayerRef{}, errors.InvalidState("target was not alive at the last meeting")
	}

	p.Ability.LookoutTargetID = target.ID
	return PlayerRef{ID: target.ID, Name: target.Name}, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
