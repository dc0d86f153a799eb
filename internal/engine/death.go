package engine

import (
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// MarkDead records that the acting player has been killed. Players can only
// mark themselves.
func MarkDead(t *Turn, g *models.Game, actor *models.Player, targetID string) error {
	if targetID != actor.ID {
		return errors.Forbidden("you can only mark yourself as dead")
	}
	if !g.InProgress() {
		return errors.InvalidState("game is not in progress")
	}
	if !actor.Alive() {
		return errors.AlreadyDone("you are already dead")
	}

	kill(t, g, actor, models.CauseReported)
	settleVoting(t, g)
	applyWin(t, g)
	return nil
}

// kill marks victim dead, announces it and runs the cascades that depend on
// a death: vote scrubbing (the victim's ballot and ballots against them), bounty reassignment, executioner fallback and
// lookout alerts.
func kill(t *Turn, g *models.Game, victim *models.Player, cause string) {
	victim.Status = models.StatusDead
	victim.DeathCause = cause

	if m := g.ActiveMeeting; m != nil && !m.VotingEnded {
		delete(m.Votes, victim.ID)
		// ballots for the dead count as skips
		for _, v := range m.Votes {
			if v.TargetID == victim.ID {
				v.TargetID = ""
			}
		}
	}
	if s := g.ActiveSabotage; s != nil {
		delete(s.ReactorHolders, victim.ID)
	}

	t.Out.Broadcast(models.EventPlayerDied, map[string]interface{}{
		"player_id":   victim.ID,
		"player_name": victim.Name,
		"cause":       cause,
	})

	for _, p := range g.OrderedPlayers() {
		if p.ID == victim.ID || !p.Alive() {
			continue
		}

		if p.Role.Info().HasBounty && p.Ability.BountyTargetID == victim.ID {
			p.Ability.BountyPendingClaimID = victim.ID
			p.Ability.BountyTargetID = pickBountyTarget(g, p, t.Rand)
			sendBountyUpdate(t, g, p, "target_died")
		}

		if p.Role == models.RoleExecutioner && p.Ability.ExecutionerTargetID == victim.ID && cause != models.CauseVotedOut {
			p.Ability.OriginalRole = p.Role
			p.Ability.ExecutionerTargetID = ""
			p.Role = models.RoleJester
			t.Out.Send(p.ID, models.EventRoleChanged, map[string]interface{}{
				"previous_role": models.RoleExecutioner,
				"role_info":     NewRoleView(g, p),
				"reason":        victim.Name + " died before being voted out",
			})
		}

		if g.State == models.StatePlaying && p.Role == models.RoleLookout && p.Ability.LookoutTargetID == victim.ID {
			t.Out.Send(p.ID, models.EventLookoutAlert, map[string]interface{}{
				"target_id":   victim.ID,
				"target_name": victim.Name,
			})
		}
	}
}

func sendBountyUpdate(t *Turn, g *models.Game, hunter *models.Player, reason string) {
	payload := map[string]interface{}{
		"kills":  hunter.Ability.BountyKills,
		"reason": reason,
	}
	if target := g.Player(hunter.Ability.BountyTargetID); target != nil {
		payload["target"] = PlayerRef{ID: target.ID, Name: target.Name}
	}
	t.Out.Send(hunter.ID, models.EventBountyTargetUpdate, payload)
}
