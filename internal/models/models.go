package models

import (
	"sort"
	"strings"
	"time"
)

// GameState is the lifecycle state of a game
type GameState string

const (
	StateLobby   GameState = "lobby"
	StatePlaying GameState = "playing"
	StateMeeting GameState = "meeting"
	StateEnded   GameState = "ended"
)

// PlayerStatus is alive or dead
type PlayerStatus string

const (
	StatusAlive PlayerStatus = "alive"
	StatusDead  PlayerStatus = "dead"
)

// TaskStatus is pending or completed
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Winner labels
const (
	WinnerCrewmate    = "Crewmate"
	WinnerImpostor    = "Impostor"
	WinnerLoneWolf    = "Lone Wolf"
	WinnerJester      = "Jester"
	WinnerVulture     = "Vulture"
	WinnerExecutioner = "Executioner"
	WinnerCancelled   = "Cancelled"
)

// Death causes
const (
	CauseReported   = "reported"
	CauseVotedOut   = "voted_out"
	CauseGuessed    = "guessed"
	CauseMisguessed = "misguessed"
)

// DefaultTasks are the tasks a new lobby starts with
var DefaultTasks = []string{
	"Books", "Bottle flip", "Cards", "Clean vent", "Code", "Coins", "Colors", "Cup stack",
	"Dice", "Files", "Folding", "Leaves", "Scooter", "Trashketball", "Water pong", "Wires",
}

// Task is one entry on a player's task list
type Task struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status TaskStatus `json:"status"`
	IsFake bool       `json:"is_fake"`
}

// AbilityState holds the role-specific mutable fields of a player
type AbilityState struct {
	RemoteFixUsed      bool `json:"remote_fix_used"`
	RemoteMeetingUsed  bool `json:"remote_meeting_used"`
	GuessedThisMeeting bool `json:"guessed_this_meeting"`
	NoiseMakerUsed     bool `json:"noise_maker_used"`

	EatenBodyIDs []string `json:"eaten_body_ids,omitempty"`

	BountyTargetID       string `json:"bounty_target_id,omitempty"`
	BountyKills          int    `json:"bounty_kills"`
	BountyPendingClaimID string `json:"-"`

	ExecutionerTargetID string `json:"executioner_target_id,omitempty"`

	SwapTargets []string `json:"swap_targets,omitempty"`

	LookoutTargetID string `json:"lookout_target_id,omitempty"`

	// OriginalRole is set when a role conversion happened
	OriginalRole Role `json:"original_role,omitempty"`
}

// Player belongs to exactly one game
type Player struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SessionToken string       `json:"-"`
	Role         Role         `json:"role,omitempty"`
	Status       PlayerStatus `json:"status"`
	Tasks        []Task       `json:"tasks"`
	IsHost       bool         `json:"is_host"`
	Connected    bool         `json:"connected"`
	JoinedAt     time.Time    `json:"joined_at"`
	DeathCause   string       `json:"death_cause,omitempty"`
	Ability      AbilityState `json:"ability"`
}

// Alive reports whether the player is alive
func (p *Player) Alive() bool {
	return p.Status == StatusAlive
}

// Task returns a pointer to the player's task with the given id
func (p *Player) Task(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// ActiveSabotage is the sabotage currently running in a game
type ActiveSabotage struct {
	Index          int             `json:"index"`
	Type           SabotageType    `json:"type"`
	Name           string          `json:"name"`
	Timer          int             `json:"timer"`
	StartedAt      time.Time       `json:"started_at"`
	StartedBy      string          `json:"started_by"`
	ReactorHolders map[string]bool `json:"-"`
	O2Switches     int             `json:"o2_switches"`
}

// Deadline returns when an untouched sabotage times out; zero if untimed
func (s *ActiveSabotage) Deadline() time.Time {
	if s.Timer <= 0 {
		return time.Time{}
	}
	return s.StartedAt.Add(time.Duration(s.Timer) * time.Second)
}

// Expired reports whether the countdown has run out at now
func (s *ActiveSabotage) Expired(now time.Time) bool {
	d := s.Deadline()
	return !d.IsZero() && !now.Before(d)
}

// HolderIDs returns the reactor holders, sorted
func (s *ActiveSabotage) HolderIDs() []string {
	ids := make([]string, 0, len(s.ReactorHolders))
	for id := range s.ReactorHolders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MeetingType is how a meeting was called
type MeetingType string

const (
	MeetingEmergency  MeetingType = "meeting"
	MeetingBodyReport MeetingType = "body_report"
)

// MeetingPhase is the sub-state of an active meeting
type MeetingPhase string

const (
	PhaseGathering MeetingPhase = "gathering"
	PhaseVoting    MeetingPhase = "voting"
	PhaseResults   MeetingPhase = "results"
)

// Vote is one player's ballot. An empty TargetID is a skip.
type Vote struct {
	VoterID  string    `json:"voter_id"`
	TargetID string    `json:"target_id,omitempty"`
	CastAt   time.Time `json:"cast_at"`
}

// VoteResult is the frozen outcome of a meeting's reveal
type VoteResult struct {
	Outcome         string              `json:"outcome"` // skip, tie or elimination
	EliminatedID    string              `json:"eliminated_id,omitempty"`
	EliminatedName  string              `json:"eliminated_name,omitempty"`
	EliminatedRole  Role                `json:"-"`
	VoteCounts      map[string]int      `json:"vote_counts"`
	SkipCount       int                 `json:"skip_count"`
	TotalVotes      int                 `json:"total_votes"`
	SwappedNames    []string            `json:"swapped_names,omitempty"`
	VotesByTarget   map[string][]string `json:"votes_by_target,omitempty"`
	IndividualVotes map[string]string   `json:"individual_votes,omitempty"`
}

// Vote outcomes
const (
	OutcomeSkip        = "skip"
	OutcomeTie         = "tie"
	OutcomeElimination = "elimination"
)

// MeetingState exists only while the game is in a meeting
type MeetingState struct {
	StartedAt         time.Time        `json:"started_at"`
	CallerID          string           `json:"caller_id"`
	CallerName        string           `json:"caller_name"`
	Type              MeetingType      `json:"meeting_type"`
	Phase             MeetingPhase     `json:"phase"`
	Votes             map[string]*Vote `json:"-"`
	DiscussionEndTime time.Time        `json:"discussion_end_time"`
	VotingEndTime     time.Time        `json:"voting_end_time"`
	VotingEnded       bool             `json:"voting_ended"`
	Result            *VoteResult      `json:"result,omitempty"`
}

// Game is the canonical mutable record for one session
type Game struct {
	ID             string             `json:"id"`
	Code           string             `json:"code"`
	State          GameState          `json:"state"`
	Settings       Settings           `json:"settings"`
	Players        map[string]*Player `json:"-"`
	AvailableTasks []string           `json:"available_tasks"`
	CrewTaskTotal  int                `json:"crew_task_total"`
	Winner         string             `json:"winner,omitempty"`
	WinReason      string             `json:"win_reason,omitempty"`
	ActiveSabotage *ActiveSabotage    `json:"active_sabotage,omitempty"`
	// SuspendedSabotage holds a lights or comms sabotage while a meeting runs
	SuspendedSabotage   *ActiveSabotage `json:"-"`
	SabotageCooldownEnd time.Time       `json:"sabotage_cooldown_end"`
	ActiveMeeting       *MeetingState   `json:"active_meeting,omitempty"`
	MeetingCount        int             `json:"meeting_count"`
	CreatedAt           time.Time       `json:"created_at"`
	StartedAt           time.Time       `json:"started_at"`
	EndedAt             time.Time       `json:"ended_at"`

	// VultureIneligible holds bodies discovered at a meeting or voted out
	VultureIneligible map[string]bool `json:"-"`
	// AliveAtLastMeeting is nil until the first meeting ends
	AliveAtLastMeeting []string `json:"-"`
}

// NewGame creates a lobby with default settings and tasks
func NewGame(id string, now time.Time) *Game {
	tasks := make([]string, len(DefaultTasks))
	copy(tasks, DefaultTasks)
	return &Game{
		ID:                id,
		State:             StateLobby,
		Settings:          DefaultSettings(),
		Players:           make(map[string]*Player),
		AvailableTasks:    tasks,
		CreatedAt:         now,
		VultureIneligible: make(map[string]bool),
	}
}

// Player returns the player with the given id, or nil
func (g *Game) Player(id string) *Player {
	return g.Players[id]
}

// OrderedPlayers returns players in join order (ties broken by id)
func (g *Game) OrderedPlayers() []*Player {
	out := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// AlivePlayers returns alive players in join order
func (g *Game) AlivePlayers() []*Player {
	var out []*Player
	for _, p := range g.OrderedPlayers() {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// Host returns the host player, or nil
func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// FindTask locates a task by id across all players
func (g *Game) FindTask(taskID string) (*Player, *Task) {
	for _, p := range g.Players {
		if t := p.Task(taskID); t != nil {
			return p, t
		}
	}
	return nil, nil
}

// TaskIndex returns the position of name in the available task list
// (case-insensitive), or -1
func (g *Game) TaskIndex(name string) int {
	for i, t := range g.AvailableTasks {
		if strings.EqualFold(t, name) {
			return i
		}
	}
	return -1
}

// InProgress is true while the game is Playing or in a Meeting
func (g *Game) InProgress() bool {
	return g.State == StatePlaying || g.State == StateMeeting
}

// WSMessage is the typed event envelope delivered to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
