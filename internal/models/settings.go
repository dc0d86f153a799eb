package models

import (
	"strings"
	"unicode/utf8"

	"github.com/abrezinsky/irlsus/internal/errors"
)

// SabotageType selects how a sabotage is fixed
type SabotageType string

const (
	SabotageLights  SabotageType = "lights"
	SabotageReactor SabotageType = "reactor"
	SabotageO2      SabotageType = "o2"
	SabotageComms   SabotageType = "comms"
)

// Valid reports whether t is a known sabotage type
func (t SabotageType) Valid() bool {
	switch t {
	case SabotageLights, SabotageReactor, SabotageO2, SabotageComms:
		return true
	}
	return false
}

// InterruptedByMeeting is true for sabotages that a meeting call resolves
func (t SabotageType) InterruptedByMeeting() bool {
	return t == SabotageReactor || t == SabotageO2
}

// SabotageSlotCount is the number of configurable sabotage slots
const SabotageSlotCount = 4

// Bounds for settings values
const (
	MinTasksPerPlayer   = 1
	MaxTasksPerPlayer   = 10
	MinImpostors        = 1
	MaxImpostors        = 3
	MaxNeutrals         = 5
	MaxAdvancedCrew     = 8
	MaxRoleCount        = 5
	MaxSabotageCooldown = 600
	MinMeetingTimer     = 10
	MaxMeetingTimer     = 600
	MaxDiscussionTime   = 300
	MaxSabotageTimer    = 300
	MinVultureEatCount  = 1
	MaxVultureEatCount  = 10
	MaxSabotageNameLen  = 32
)

// RoleConfig controls whether and how often a role enters its slot pool
type RoleConfig struct {
	Enabled     bool `json:"enabled"`
	Probability int  `json:"probability"`
	MaxCount    int  `json:"max_count"`
}

// SabotageSlot is one of the four configurable sabotages
type SabotageSlot struct {
	Enabled bool         `json:"enabled"`
	Name    string       `json:"name"`
	Type    SabotageType `json:"type"`
	Timer   int          `json:"timer"` // seconds, 0 = no countdown
}

// Settings is the per-game configuration. Durations are in seconds.
type Settings struct {
	TasksPerPlayer  int                 `json:"tasks_per_player"`
	NumImpostors    int                 `json:"num_impostors"`
	NumNeutrals     int                 `json:"num_neutrals"`
	NumAdvancedCrew int                 `json:"num_advanced_crew"`
	Roles           map[Role]RoleConfig `json:"roles"`

	EnableSabotage   bool                            `json:"enable_sabotage"`
	SabotageCooldown int                             `json:"sabotage_cooldown"`
	Sabotages        [SabotageSlotCount]SabotageSlot `json:"sabotages"`

	EnableVoting    bool `json:"enable_voting"`
	AnonymousVoting bool `json:"anonymous_voting"`
	DiscussionTime  int  `json:"discussion_time"`
	MeetingTimer    int  `json:"meeting_timer"`

	VultureEatCount int `json:"vulture_eat_count"`
}

// DefaultSettings returns the settings a new lobby starts with
func DefaultSettings() Settings {
	s := Settings{
		TasksPerPlayer:   5,
		NumImpostors:     2,
		Roles:            make(map[Role]RoleConfig),
		EnableSabotage:   true,
		SabotageCooldown: 60,
		Sabotages: [SabotageSlotCount]SabotageSlot{
			{Enabled: true, Name: "Lights", Type: SabotageLights, Timer: 0},
			{Enabled: true, Name: "Reactor Meltdown", Type: SabotageReactor, Timer: 45},
			{Enabled: true, Name: "O2 Depletion", Type: SabotageO2, Timer: 45},
			{Enabled: false, Name: "Comms", Type: SabotageComms, Timer: 0},
		},
		EnableVoting:    true,
		DiscussionTime:  15,
		MeetingTimer:    120,
		VultureEatCount: 3,
	}
	for _, r := range roleOrder {
		if roleTable[r].Pool == PoolBase {
			continue
		}
		s.Roles[r] = RoleConfig{Enabled: false, Probability: 100, MaxCount: 1}
	}
	return s
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	out := s
	out.Roles = make(map[Role]RoleConfig, len(s.Roles))
	for k, v := range s.Roles {
		out.Roles[k] = v
	}
	return out
}

// RoleConfigFor returns the configuration for r, defaulting to disabled
func (s Settings) RoleConfigFor(r Role) RoleConfig {
	if cfg, ok := s.Roles[r]; ok {
		return cfg
	}
	return RoleConfig{Probability: 100, MaxCount: 1}
}

// Slot returns the 1-based sabotage slot
func (s Settings) Slot(index int) (SabotageSlot, bool) {
	if index < 1 || index > SabotageSlotCount {
		return SabotageSlot{}, false
	}
	return s.Sabotages[index-1], true
}

// Validate checks every field against its bounds
func (s Settings) Validate() error {
	if err := inRange("tasks_per_player", s.TasksPerPlayer, MinTasksPerPlayer, MaxTasksPerPlayer); err != nil {
		return err
	}
	if err := inRange("num_impostors", s.NumImpostors, MinImpostors, MaxImpostors); err != nil {
		return err
	}
	if err := inRange("num_neutrals", s.NumNeutrals, 0, MaxNeutrals); err != nil {
		return err
	}
	if err := inRange("num_advanced_crew", s.NumAdvancedCrew, 0, MaxAdvancedCrew); err != nil {
		return err
	}
	for r, cfg := range s.Roles {
		if !r.Valid() || r.Info().Pool == PoolBase {
			return errors.Validationf("unknown configurable role %q", r)
		}
		if err := inRange(string(r)+".probability", cfg.Probability, 0, 100); err != nil {
			return err
		}
		if err := inRange(string(r)+".max_count", cfg.MaxCount, 1, MaxRoleCount); err != nil {
			return err
		}
	}
	if err := inRange("sabotage_cooldown", s.SabotageCooldown, 0, MaxSabotageCooldown); err != nil {
		return err
	}
	for i, slot := range s.Sabotages {
		if !slot.Type.Valid() {
			return errors.Validationf("sabotage %d has unknown type %q", i+1, slot.Type)
		}
		n := utf8.RuneCountInString(strings.TrimSpace(slot.Name))
		if n == 0 || n > MaxSabotageNameLen {
			return errors.Validationf("sabotage %d name must be 1-%d characters", i+1, MaxSabotageNameLen)
		}
		if err := inRange("sabotage timer", slot.Timer, 0, MaxSabotageTimer); err != nil {
			return err
		}
	}
	if err := inRange("discussion_time", s.DiscussionTime, 0, MaxDiscussionTime); err != nil {
		return err
	}
	if err := inRange("meeting_timer", s.MeetingTimer, MinMeetingTimer, MaxMeetingTimer); err != nil {
		return err
	}
	return inRange("vulture_eat_count", s.VultureEatCount, MinVultureEatCount, MaxVultureEatCount)
}

func inRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return errors.Validationf("%s must be between %d and %d", field, lo, hi)
	}
	return nil
}

// RoleConfigPatch is a partial RoleConfig
type RoleConfigPatch struct {
	Enabled     *bool `json:"enabled,omitempty"`
	Probability *int  `json:"probability,omitempty"`
	MaxCount    *int  `json:"max_count,omitempty"`
}

// SabotageSlotPatch is a partial SabotageSlot
type SabotageSlotPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Name    *string `json:"name,omitempty"`
	Type    *string `json:"type,omitempty"`
	Timer   *int    `json:"timer,omitempty"`
}

// SettingsPatch is a partial update; nil fields are left alone.
// EnableJester, EnableLoneWolf and EnableMinion are aliases for
// Roles[...].Enabled and write through to the same pool entries.
type SettingsPatch struct {
	TasksPerPlayer  *int                       `json:"tasks_per_player,omitempty"`
	NumImpostors    *int                       `json:"num_impostors,omitempty"`
	NumNeutrals     *int                       `json:"num_neutrals,omitempty"`
	NumAdvancedCrew *int                       `json:"num_advanced_crew,omitempty"`
	Roles           map[string]RoleConfigPatch `json:"roles,omitempty"`

	EnableJester   *bool `json:"enable_jester,omitempty"`
	EnableLoneWolf *bool `json:"enable_lone_wolf,omitempty"`
	EnableMinion   *bool `json:"enable_minion,omitempty"`

	EnableSabotage   *bool                     `json:"enable_sabotage,omitempty"`
	SabotageCooldown *int                      `json:"sabotage_cooldown,omitempty"`
	Sabotages        map[int]SabotageSlotPatch `json:"sabotages,omitempty"` // keyed by 1-based slot

	EnableVoting    *bool `json:"enable_voting,omitempty"`
	AnonymousVoting *bool `json:"anonymous_voting,omitempty"`
	DiscussionTime  *int  `json:"discussion_time,omitempty"`
	MeetingTimer    *int  `json:"meeting_timer,omitempty"`

	VultureEatCount *int `json:"vulture_eat_count,omitempty"`
}

// Apply returns s with the patch applied. s itself is never modified and
// the result is validated as a whole.
func (p SettingsPatch) Apply(s Settings) (Settings, error) {
	out := s.Clone()

	setInt(&out.TasksPerPlayer, p.TasksPerPlayer)
	setInt(&out.NumImpostors, p.NumImpostors)
	setInt(&out.NumNeutrals, p.NumNeutrals)
	setInt(&out.NumAdvancedCrew, p.NumAdvancedCrew)

	for key, rp := range p.Roles {
		r, ok := ParseRole(key)
		if !ok || r.Info().Pool == PoolBase {
			return s, errors.Validationf("unknown configurable role %q", key)
		}
		cfg := out.RoleConfigFor(r)
		if rp.Enabled != nil {
			cfg.Enabled = *rp.Enabled
		}
		setInt(&cfg.Probability, rp.Probability)
		setInt(&cfg.MaxCount, rp.MaxCount)
		out.Roles[r] = cfg
	}

	for r, alias := range map[Role]*bool{
		RoleJester:   p.EnableJester,
		RoleLoneWolf: p.EnableLoneWolf,
		RoleMinion:   p.EnableMinion,
	} {
		if alias == nil {
			continue
		}
		cfg := out.RoleConfigFor(r)
		cfg.Enabled = *alias
		out.Roles[r] = cfg
	}

	setBool(&out.EnableSabotage, p.EnableSabotage)
	setInt(&out.SabotageCooldown, p.SabotageCooldown)
	for idx, sp := range p.Sabotages {
		if idx < 1 || idx > SabotageSlotCount {
			return s, errors.Validationf("sabotage slot must be between 1 and %d", SabotageSlotCount)
		}
		slot := &out.Sabotages[idx-1]
		setBool(&slot.Enabled, sp.Enabled)
		if sp.Name != nil {
			slot.Name = strings.TrimSpace(*sp.Name)
		}
		if sp.Type != nil {
			slot.Type = SabotageType(strings.ToLower(*sp.Type))
		}
		setInt(&slot.Timer, sp.Timer)
	}

	setBool(&out.EnableVoting, p.EnableVoting)
	setBool(&out.AnonymousVoting, p.AnonymousVoting)
	setInt(&out.DiscussionTime, p.DiscussionTime)
	setInt(&out.MeetingTimer, p.MeetingTimer)
	setInt(&out.VultureEatCount, p.VultureEatCount)

	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
