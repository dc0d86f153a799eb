package engine

import (
	"fmt"

	"github.com/abrezinsky/irlsus/internal/models"
)

// Win is a decided winner with a human-readable reason
type Win struct {
	Winner string
	Reason string
}

// CheckWin evaluates the win rules in order and returns the first match.
// It only reads the game and returns false outside Playing and Meeting.
func CheckWin(g *models.Game) (Win, bool) {
	if !g.InProgress() {
		return Win{}, false
	}

	for _, p := range g.OrderedPlayers() {
		if p.Role == models.RoleVulture && len(p.Ability.EatenBodyIDs) >= g.Settings.VultureEatCount {
			return Win{models.WinnerVulture, fmt.Sprintf("%s ate %d bodies", p.Name, len(p.Ability.EatenBodyIDs))}, true
		}
	}

	if g.CrewTaskTotal > 0 && TaskPercentage(g) >= 100 {
		return Win{models.WinnerCrewmate, "All tasks completed"}, true
	}

	alive := g.AlivePlayers()
	aligned, killers, wolves := 0, 0, 0
	for _, p := range alive {
		switch {
		case p.Role == models.RoleLoneWolf:
			wolves++
		case p.Role.ImpostorAligned():
			aligned++
			if p.Role.Category() == models.CategoryImpostor {
				killers++
			}
		}
	}
	others := len(alive) - aligned - wolves

	if len(alive) == 1 {
		last := alive[0]
		switch {
		case last.Role == models.RoleLoneWolf:
			return Win{models.WinnerLoneWolf, fmt.Sprintf("%s is the last one standing", last.Name)}, true
		case last.Role.ImpostorAligned():
			return Win{models.WinnerImpostor, "The impostors eliminated everyone"}, true
		case last.Role.CrewAligned():
			return Win{models.WinnerCrewmate, "The crew survived"}, true
		}
	}

	if len(alive) == 2 && wolves == 1 && aligned == 1 {
		return Win{}, false
	}

	if aligned == 0 && wolves == 0 {
		return Win{models.WinnerCrewmate, "All impostors were eliminated"}, true
	}

	if wolves == 0 && killers > 0 && aligned >= others {
		return Win{models.WinnerImpostor, "The impostors outnumber the crew"}, true
	}

	if len(alive) == 2 && wolves == 1 && aligned == 0 {
		return Win{models.WinnerLoneWolf, "The Lone Wolf outlasted everyone"}, true
	}

	return Win{}, false
}

// applyWin ends the game if a win condition holds
func applyWin(t *Turn, g *models.Game) bool {
	w, ok := CheckWin(g)
	if !ok {
		return false
	}
	finish(t, g, w.Winner, w.Reason)
	return true
}

// finish moves the game to Ended and announces the winner with every role
func finish(t *Turn, g *models.Game, winner, reason string) {
	if g.State == models.StateEnded {
		return
	}
	g.State = models.StateEnded
	g.Winner = winner
	g.WinReason = reason
	g.EndedAt = t.Now
	g.ActiveSabotage = nil
	g.SuspendedSabotage = nil
	g.ActiveMeeting = nil

	t.Out.Ended = true
	t.Out.Broadcast(models.EventGameEnded, map[string]interface{}{
		"winner":    winner,
		"reason":    reason,
		"all_roles": AllRoles(g),
	})
}
