package engine

import (
	"time"

	"github.com/abrezinsky/irlsus/internal/models"
)

// PlayerRef is a minimal reference to another player
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerView is what other players may see about a player
type PlayerView struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Status    models.PlayerStatus `json:"status"`
	IsHost    bool                `json:"is_host"`
	Connected bool                `json:"connected"`
	Role      models.Role         `json:"role,omitempty"`
	RoleName  string              `json:"role_name,omitempty"`
}

// NewPlayerView builds a public view of p. The role is only included when
// revealRole is set.
func NewPlayerView(p *models.Player, revealRole bool) PlayerView {
	v := PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		IsHost:    p.IsHost,
		Connected: p.Connected,
	}
	if revealRole && p.Role != "" {
		v.Role = p.Role
		v.RoleName = p.Role.DisplayName()
	}
	return v
}

// PlayerViews lists every player in join order
func PlayerViews(g *models.Game, revealRoles bool) []PlayerView {
	players := g.OrderedPlayers()
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		out = append(out, NewPlayerView(p, revealRoles))
	}
	return out
}

// RoleView is the private role briefing a player receives
type RoleView struct {
	Role            models.Role     `json:"role"`
	RoleName        string          `json:"role_name"`
	Category        models.Category `json:"category"`
	Description     string          `json:"description"`
	Tasks           []models.Task   `json:"tasks"`
	FellowImpostors []PlayerRef     `json:"fellow_impostors,omitempty"`

	BountyTarget      *PlayerRef `json:"bounty_target,omitempty"`
	BountyKills       int        `json:"bounty_kills,omitempty"`
	ExecutionerTarget *PlayerRef `json:"executioner_target,omitempty"`
	BodiesEaten       int        `json:"bodies_eaten,omitempty"`
	BodiesNeeded      int        `json:"bodies_needed,omitempty"`
	LookoutTarget     *PlayerRef `json:"lookout_target,omitempty"`

	RemoteFixUsed      bool        `json:"remote_fix_used,omitempty"`
	RemoteMeetingUsed  bool        `json:"remote_meeting_used,omitempty"`
	GuessedThisMeeting bool        `json:"guessed_this_meeting,omitempty"`
	NoiseMakerUsed     bool        `json:"noise_maker_used,omitempty"`
	OriginalRole       models.Role `json:"original_role,omitempty"`
}

// NewRoleView builds p's private role briefing
func NewRoleView(g *models.Game, p *models.Player) RoleView {
	info := p.Role.Info()
	tasks := make([]models.Task, len(p.Tasks))
	copy(tasks, p.Tasks)

	v := RoleView{
		Role:               p.Role,
		RoleName:           info.Name,
		Category:           info.Category,
		Description:        info.Description,
		Tasks:              tasks,
		RemoteFixUsed:      p.Ability.RemoteFixUsed,
		RemoteMeetingUsed:  p.Ability.RemoteMeetingUsed,
		GuessedThisMeeting: p.Ability.GuessedThisMeeting,
		NoiseMakerUsed:     p.Ability.NoiseMakerUsed,
		OriginalRole:       p.Ability.OriginalRole,
	}

	if info.SeesImpostors {
		for _, other := range g.OrderedPlayers() {
			if other.ID == p.ID {
				continue
			}
			oi := other.Role.Info()
			if oi.Category == models.CategoryImpostor || oi.ShownAsImpostor {
				v.FellowImpostors = append(v.FellowImpostors, PlayerRef{ID: other.ID, Name: other.Name})
			}
		}
	}

	if info.HasBounty {
		v.BountyTarget = ref(g, p.Ability.BountyTargetID)
		v.BountyKills = p.Ability.BountyKills
	}
	switch p.Role {
	case models.RoleExecutioner:
		v.ExecutionerTarget = ref(g, p.Ability.ExecutionerTargetID)
	case models.RoleVulture:
		v.BodiesEaten = len(p.Ability.EatenBodyIDs)
		v.BodiesNeeded = g.Settings.VultureEatCount
	case models.RoleLookout:
		v.LookoutTarget = ref(g, p.Ability.LookoutTargetID)
	}
	return v
}

func ref(g *models.Game, id string) *PlayerRef {
	p := g.Player(id)
	if p == nil {
		return nil
	}
	return &PlayerRef{ID: p.ID, Name: p.Name}
}

// RoleReveal is one row of the end-of-game role list
type RoleReveal struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Role           models.Role         `json:"role"`
	RoleName       string              `json:"role_name"`
	Category       models.Category     `json:"category"`
	Status         models.PlayerStatus `json:"status"`
	OriginalRole   models.Role         `json:"original_role,omitempty"`
	TasksCompleted int                 `json:"tasks_completed"`
	TasksTotal     int                 `json:"tasks_total"`
}

// AllRoles lists every player's role in join order
func AllRoles(g *models.Game) []RoleReveal {
	players := g.OrderedPlayers()
	out := make([]RoleReveal, 0, len(players))
	for _, p := range players {
		r := RoleReveal{
			ID:           p.ID,
			Name:         p.Name,
			Role:         p.Role,
			RoleName:     p.Role.DisplayName(),
			Category:     p.Role.Category(),
			Status:       p.Status,
			OriginalRole: p.Ability.OriginalRole,
		}
		for _, t := range p.Tasks {
			if t.IsFake {
				continue
			}
			r.TasksTotal++
			if t.Status == models.TaskCompleted {
				r.TasksCompleted++
			}
		}
		out = append(out, r)
	}
	return out
}

// MeetingView is the client-facing meeting state
type MeetingView struct {
	Type              models.MeetingType  `json:"meeting_type"`
	Phase             models.MeetingPhase `json:"phase"`
	CallerID          string              `json:"caller_id"`
	CallerName        string              `json:"caller_name"`
	StartedAt         time.Time           `json:"started_at"`
	DiscussionEndTime *time.Time          `json:"discussion_end_time,omitempty"`
	VotingEndTime     *time.Time          `json:"voting_end_time,omitempty"`
	VotesCast         int                 `json:"votes_cast"`
	VotesNeeded       int                 `json:"votes_needed"`
	HasVoted          bool                `json:"has_voted"`
	Result            *models.VoteResult  `json:"result,omitempty"`
}

// NewMeetingView describes the active meeting from viewer's point of view.
// It returns nil outside meetings.
func NewMeetingView(g *models.Game, viewer *models.Player) *MeetingView {
	m := g.ActiveMeeting
	if m == nil {
		return nil
	}
	v := &MeetingView{
		Type:        m.Type,
		Phase:       m.Phase,
		CallerID:    m.CallerID,
		CallerName:  m.CallerName,
		StartedAt:   m.StartedAt,
		VotesCast:   len(m.Votes),
		VotesNeeded: len(g.AlivePlayers()),
		Result:      m.Result,
	}
	if !m.DiscussionEndTime.IsZero() {
		d, e := m.DiscussionEndTime, m.VotingEndTime
		v.DiscussionEndTime, v.VotingEndTime = &d, &e
	}
	if viewer != nil {
		_, v.HasVoted = m.Votes[viewer.ID]
	}
	return v
}

// GameView is the public snapshot of a game. Roles stay hidden until the
// game has ended.
type GameView struct {
	Code           string           `json:"code"`
	State          models.GameState `json:"state"`
	Settings       models.Settings  `json:"settings"`
	Players        []PlayerView     `json:"players"`
	AvailableTasks []string         `json:"available_tasks"`
	TaskPercentage float64          `json:"task_percentage"`
	MeetingCount   int              `json:"meeting_count"`
	Winner         string           `json:"winner,omitempty"`
	WinReason      string           `json:"win_reason,omitempty"`
	Meeting        *MeetingView     `json:"meeting,omitempty"`
	Sabotage       *SabotageStatus  `json:"sabotage,omitempty"`
}

// NewGameView snapshots g at now
func NewGameView(g *models.Game, now time.Time) GameView {
	tasks := make([]string, len(g.AvailableTasks))
	copy(tasks, g.AvailableTasks)
	v := GameView{
		Code:           g.Code,
		State:          g.State,
		Settings:       g.Settings.Clone(),
		Players:        PlayerViews(g, g.State == models.StateEnded),
		AvailableTasks: tasks,
		TaskPercentage: TaskPercentage(g),
		MeetingCount:   g.MeetingCount,
		Winner:         g.Winner,
		WinReason:      g.WinReason,
		Meeting:        NewMeetingView(g, nil),
	}
	if g.State == models.StatePlaying {
		st := SabotageSnapshot(g, now)
		v.Sabotage = &st
	}
	return v
}

// MeView is everything one player needs to render their own screen
type MeView struct {
	PlayerID       string              `json:"player_id"`
	Name           string              `json:"name"`
	Code           string              `json:"code"`
	IsHost         bool                `json:"is_host"`
	Status         models.PlayerStatus `json:"status"`
	State          models.GameState    `json:"state"`
	RoleInfo       *RoleView           `json:"role_info,omitempty"`
	TaskPercentage float64             `json:"task_percentage"`
	Winner         string              `json:"winner,omitempty"`
	WinReason      string              `json:"win_reason,omitempty"`
	AllRoles       []RoleReveal        `json:"all_roles,omitempty"`
}

// NewMeView builds p's private view of g
func NewMeView(g *models.Game, p *models.Player) MeView {
	v := MeView{
		PlayerID:       p.ID,
		Name:           p.Name,
		Code:           g.Code,
		IsHost:         p.IsHost,
		Status:         p.Status,
		State:          g.State,
		TaskPercentage: TaskPercentage(g),
		Winner:         g.Winner,
		WinReason:      g.WinReason,
	}
	if p.Role != "" {
		rv := NewRoleView(g, p)
		v.RoleInfo = &rv
	}
	if g.State == models.StateEnded {
		v.AllRoles = AllRoles(g)
	}
	return v
}

// StateSync is sent to a socket when it connects or asks to resync
type StateSync struct {
	Game    GameView     `json:"game"`
	Me      MeView       `json:"me"`
	Meeting *MeetingView `json:"meeting,omitempty"`
}

// NewStateSync builds the resync payload for p
func NewStateSync(g *models.Game, p *models.Player, now time.Time) StateSync {
	return StateSync{
		Game:    NewGameView(g, now),
		Me:      NewMeView(g, p),
		Meeting: NewMeetingView(g, p),
	}
}
