package models

import "strings"

// Role identifies a player's hidden role. The set of roles is closed; every
// role has exactly one entry in roleTable.
type Role string

const (
	RoleCrewmate     Role = "crewmate"
	RoleImpostor     Role = "impostor"
	RoleEvilGuesser  Role = "evil_guesser"
	RoleBountyHunter Role = "bounty_hunter"
	RoleCleaner      Role = "cleaner"
	RoleVenter       Role = "venter"
	RoleMinion       Role = "minion"
	RoleJester       Role = "jester"
	RoleLoneWolf     Role = "lone_wolf"
	RoleVulture      Role = "vulture"
	RoleNoiseMaker   Role = "noise_maker"
	RoleExecutioner  Role = "executioner"
	RoleSheriff      Role = "sheriff"
	RoleEngineer     Role = "engineer"
	RoleCaptain      Role = "captain"
	RoleMayor        Role = "mayor"
	RoleNiceGuesser  Role = "nice_guesser"
	RoleSpy          Role = "spy"
	RoleSwapper      Role = "swapper"
	RoleLookout      Role = "lookout"
)

// Category is the team a role presents as
type Category string

const (
	CategoryCrew     Category = "crew"
	CategoryImpostor Category = "impostor"
	CategoryNeutral  Category = "neutral"
)

// Pool is the slot pool a role is drawn from during assignment
type Pool int

const (
	PoolBase Pool = iota
	PoolImpostor
	PoolNeutral
	PoolAdvancedCrew
)

// RoleInfo is the static description of a role
type RoleInfo struct {
	Role     Role     `json:"key"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Pool     Pool     `json:"-"`

	// ImpostorAligned counts the role on the impostor side of win checks.
	// True for every impostor-category role and for the Minion.
	ImpostorAligned bool `json:"-"`
	CanDoTasks      bool `json:"-"`
	SeesImpostors   bool `json:"-"`
	ShownAsImpostor bool `json:"-"`
	CanSabotage     bool `json:"-"`
	OneShotAbility  bool `json:"-"`
	Guesser         bool `json:"-"`
	HasBounty       bool `json:"-"`
	VoteWeight      int  `json:"-"`

	Description string `json:"description"`
}

var roleTable = map[Role]RoleInfo{
	RoleCrewmate: {
		Name: "Crewmate", Category: CategoryCrew, Pool: PoolBase,
		CanDoTasks: true, VoteWeight: 1,
		Description: "Finish your tasks and find the impostors.",
	},
	RoleImpostor: {
		Name: "Impostor", Category: CategoryImpostor, Pool: PoolBase,
		ImpostorAligned: true, SeesImpostors: true, CanSabotage: true, VoteWeight: 1,
		Description: "Eliminate the crew without getting caught.",
	},
	RoleEvilGuesser: {
		Name: "Riddler", Category: CategoryImpostor, Pool: PoolImpostor,
		ImpostorAligned: true, SeesImpostors: true, CanSabotage: true, Guesser: true, VoteWeight: 1,
		Description: "Impostor who may guess a player's role during meetings.",
	},
	RoleBountyHunter: {
		Name: "Rampager", Category: CategoryImpostor, Pool: PoolImpostor,
		ImpostorAligned: true, SeesImpostors: true, CanSabotage: true, HasBounty: true, VoteWeight: 1,
		Description: "Impostor hunting an assigned bounty target.",
	},
	RoleCleaner: {
		Name: "Cleaner", Category: CategoryImpostor, Pool: PoolImpostor,
		ImpostorAligned: true, SeesImpostors: true, CanSabotage: true, VoteWeight: 1,
		Description: "Impostor who hides bodies.",
	},
	RoleVenter: {
		Name: "Venter", Category: CategoryImpostor, Pool: PoolImpostor,
		ImpostorAligned: true, SeesImpostors: true, CanSabotage: true, VoteWeight: 1,
		Description: "Impostor who moves through vents.",
	},
	RoleMinion: {
		Name: "Minion", Category: CategoryCrew, Pool: PoolImpostor,
		ImpostorAligned: true, SeesImpostors: true, VoteWeight: 1,
		Description: "Looks like crew, works for the impostors. Your tasks are fake.",
	},
	RoleJester: {
		Name: "Jester", Category: CategoryNeutral, Pool: PoolNeutral,
		VoteWeight:  1,
		Description: "Get yourself voted out to win.",
	},
	RoleLoneWolf: {
		Name: "Lone Wolf", Category: CategoryNeutral, Pool: PoolNeutral,
		VoteWeight:  1,
		Description: "Be the last one standing.",
	},
	RoleVulture: {
		Name: "Vulture", Category: CategoryNeutral, Pool: PoolNeutral,
		VoteWeight:  1,
		Description: "Eat enough undiscovered bodies to win.",
	},
	RoleNoiseMaker: {
		Name: "Noise Maker", Category: CategoryNeutral, Pool: PoolNeutral,
		OneShotAbility: true, VoteWeight: 1,
		Description: "When you die, pick someone to call a body report.",
	},
	RoleExecutioner: {
		Name: "Executioner", Category: CategoryNeutral, Pool: PoolNeutral,
		VoteWeight:  1,
		Description: "Get your target voted out.",
	},
	RoleSheriff: {
		Name: "Sheriff", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, VoteWeight: 1,
		Description: "Crew member who may shoot a suspected impostor.",
	},
	RoleEngineer: {
		Name: "Engineer", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, OneShotAbility: true, VoteWeight: 1,
		Description: "Fix one sabotage remotely.",
	},
	RoleCaptain: {
		Name: "Captain", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, OneShotAbility: true, VoteWeight: 1,
		Description: "Call one meeting from anywhere.",
	},
	RoleMayor: {
		Name: "Mayor", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, VoteWeight: 2,
		Description: "Your vote counts twice.",
	},
	RoleNiceGuesser: {
		Name: "Nice Guesser", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, Guesser: true, VoteWeight: 1,
		Description: "Guess an impostor's role during a meeting to eliminate them.",
	},
	RoleSpy: {
		Name: "Spy", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, ShownAsImpostor: true, VoteWeight: 1,
		Description: "The impostors think you are one of them.",
	},
	RoleSwapper: {
		Name: "Swapper", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, VoteWeight: 1,
		Description: "Swap the votes of two players during a meeting.",
	},
	RoleLookout: {
		Name: "Lookout", Category: CategoryCrew, Pool: PoolAdvancedCrew,
		CanDoTasks: true, VoteWeight: 1,
		Description: "Watch a player and learn when they die.",
	},
}

// roleOrder fixes iteration order so assignment is reproducible under a seeded source
var roleOrder = []Role{
	RoleCrewmate, RoleImpostor,
	RoleEvilGuesser, RoleBountyHunter, RoleCleaner, RoleVenter, RoleMinion,
	RoleJester, RoleLoneWolf, RoleVulture, RoleNoiseMaker, RoleExecutioner,
	RoleSheriff, RoleEngineer, RoleCaptain, RoleMayor, RoleNiceGuesser, RoleSpy, RoleSwapper, RoleLookout,
}

// Roles returns every role in table order
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// PoolRoles returns the roles drawn from the given pool, in table order
func PoolRoles(pool Pool) []Role {
	var out []Role
	for _, r := range roleOrder {
		if roleTable[r].Pool == pool {
			out = append(out, r)
		}
	}
	return out
}

// Info returns the static description of r. Unknown roles get a zero RoleInfo.
func (r Role) Info() RoleInfo {
	info, ok := roleTable[r]
	if !ok {
		return RoleInfo{Role: r}
	}
	info.Role = r
	return info
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

func (r Role) Category() Category    { return r.Info().Category }
func (r Role) DisplayName() string   { return r.Info().Name }
func (r Role) ImpostorAligned() bool { return r.Info().ImpostorAligned }

// CrewAligned is true for crew-category roles that play for the crew (everything but the Minion)
func (r Role) CrewAligned() bool {
	info := r.Info()
	return info.Category == CategoryCrew && !info.ImpostorAligned
}

// ParseRole matches a role key or display name, case-insensitively
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range roleOrder {
		if strings.EqualFold(string(r), s) || strings.EqualFold(roleTable[r].Name, s) {
			return r, true
		}
	}
	return "", false
}
