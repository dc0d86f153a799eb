package engine

import (
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// MinPlayers returns how many players the slot counts in s require
func MinPlayers(s models.Settings) int {
	return s.NumImpostors + s.NumNeutrals + s.NumAdvancedCrew + 1
}

// AssignRoles gives every player a role and wires role targets.
// The game must be in the lobby with enough players for one base Crewmate
// slot to remain; otherwise nothing is changed.
func AssignRoles(g *models.Game, rng Rand) error {
	if g.State != models.StateLobby {
		return errors.InvalidState("roles can only be assigned in the lobby")
	}
	s := g.Settings
	players := g.OrderedPlayers()
	if need := MinPlayers(s); len(players) < need {
		return errors.InvalidStatef("need at least %d players for these settings, have %d", need, len(players))
	}

	rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })

	impostors := drawPool(s, models.PoolImpostor, s.NumImpostors, rng)
	for len(impostors) < s.NumImpostors {
		impostors = append(impostors, models.RoleImpostor)
	}
	ensureKiller(impostors)
	rng.Shuffle(len(impostors), func(i, j int) { impostors[i], impostors[j] = impostors[j], impostors[i] })

	roles := impostors
	roles = append(roles, drawPool(s, models.PoolNeutral, s.NumNeutrals, rng)...)
	roles = append(roles, drawPool(s, models.PoolAdvancedCrew, s.NumAdvancedCrew, rng)...)

	for i, p := range players {
		p.Role = models.RoleCrewmate
		if i < len(roles) {
			p.Role = roles[i]
		}
		p.Status = models.StatusAlive
		p.DeathCause = ""
		p.Ability = models.AbilityState{}
	}

	for _, p := range players {
		switch {
		case p.Role.Info().HasBounty:
			p.Ability.BountyTargetID = pickBountyTarget(g, p, rng)
		case p.Role == models.RoleExecutioner:
			p.Ability.ExecutionerTargetID = pickTarget(g, rng, func(c *models.Player) bool {
				return c.ID != p.ID && c.Role.CrewAligned()
			})
		}
	}
	return nil
}

// drawPool builds the candidate list for a slot pool and takes up to n.
// Each enabled role passes an independent probability roll and then enters
// the pool maxCount times.
func drawPool(s models.Settings, pool models.Pool, n int, rng Rand) []models.Role {
	if n <= 0 {
		return nil
	}
	var candidates []models.Role
	for _, r := range models.PoolRoles(pool) {
		cfg := s.RoleConfigFor(r)
		if !cfg.Enabled || cfg.Probability <= 0 {
			continue
		}
		if cfg.Probability < 100 && rng.Intn(100) >= cfg.Probability {
			continue
		}
		copies := cfg.MaxCount
		if copies < 1 {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			candidates = append(candidates, r)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// ensureKiller guarantees at least one impostor slot can kill. A team made
// only of Minions has its first slot turned into a base Impostor.
func ensureKiller(roles []models.Role) {
	if len(roles) == 0 {
		return
	}
	for _, r := range roles {
		if r.Category() == models.CategoryImpostor {
			return
		}
	}
	roles[0] = models.RoleImpostor
}

// pickTarget returns the id of a random player satisfying ok, or ""
func pickTarget(g *models.Game, rng Rand, ok func(*models.Player) bool) string {
	var candidates []*models.Player
	for _, p := range g.OrderedPlayers() {
		if ok(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rng.Intn(len(candidates))].ID
}

func pickBountyTarget(g *models.Game, hunter *models.Player, rng Rand) string {
	return pickTarget(g, rng, func(c *models.Player) bool {
		return c.ID != hunter.ID && c.Alive() && !c.Role.ImpostorAligned()
	})
}
