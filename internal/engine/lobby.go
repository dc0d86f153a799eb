package engine

import (
	"strings"
	"time"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// NewPlayer builds a player record for a lobby
func NewPlayer(id, token, name string, host bool, now time.Time) *models.Player {
	return &models.Player{
		ID:           id,
		Name:         name,
		SessionToken: token,
		Status:       models.StatusAlive,
		IsHost:       host,
		JoinedAt:     now,
	}
}

// Join adds p to a lobby. Names are unique within a game.
func Join(t *Turn, g *models.Game, p *models.Player) error {
	if g.State != models.StateLobby {
		return errors.InvalidState("game has already started")
	}
	for _, other := range g.Players {
		if strings.EqualFold(other.Name, p.Name) {
			return errors.Validationf("the name %q is already taken in this game", p.Name)
		}
	}

	g.Players[p.ID] = p
	t.Out.BroadcastExcept(p.ID, models.EventPlayerJoined, map[string]interface{}{
		"player":       NewPlayerView(p, false),
		"player_count": len(g.Players),
	})
	return nil
}

// Leave removes p from a lobby. A departing host hands over to the
// earliest-joined remaining player. It reports whether the game is now empty.
func Leave(t *Turn, g *models.Game, p *models.Player) (bool, error) {
	if g.State != models.StateLobby {
		return false, errors.InvalidState("players can only leave from the lobby")
	}

	delete(g.Players, p.ID)
	if len(g.Players) == 0 {
		return true, nil
	}

	payload := map[string]interface{}{
		"player_id":    p.ID,
		"player_name":  p.Name,
		"player_count": len(g.Players),
	}
	if p.IsHost {
		next := g.OrderedPlayers()[0]
		next.IsHost = true
		payload["new_host_id"] = next.ID
	}
	t.Out.Broadcast(models.EventPlayerLeft, payload)
	return false, nil
}

// UpdateSettings applies a settings patch in the lobby
func UpdateSettings(t *Turn, g *models.Game, actor *models.Player, patch models.SettingsPatch) error {
	if err := requireHostInLobby(g, actor, "change settings"); err != nil {
		return err
	}
	updated, err := patch.Apply(g.Settings)
	if err != nil {
		return err
	}

	g.Settings = updated
	t.Out.Broadcast(models.EventSettingsChanged, map[string]interface{}{
		"settings": g.Settings,
	})
	return nil
}

// AddTask appends a task name to the available list
func AddTask(t *Turn, g *models.Game, actor *models.Player, name string) error {
	if err := requireHostInLobby(g, actor, "edit tasks"); err != nil {
		return err
	}
	if name == "" {
		return errors.Validation("task name is required")
	}
	if g.TaskIndex(name) >= 0 {
		return errors.AlreadyDonef("task %q already exists", name)
	}

	g.AvailableTasks = append(g.AvailableTasks, name)
	broadcastTasks(t, g)
	return nil
}

// RemoveTask drops a task name from the available list
func RemoveTask(t *Turn, g *models.Game, actor *models.Player, name string) error {
	if err := requireHostInLobby(g, actor, "edit tasks"); err != nil {
		return err
	}
	idx := g.TaskIndex(name)
	if idx < 0 {
		return errors.NotFoundf("task %q not found", name)
	}

	g.AvailableTasks = append(g.AvailableTasks[:idx:idx], g.AvailableTasks[idx+1:]...)
	broadcastTasks(t, g)
	return nil
}

func broadcastTasks(t *Turn, g *models.Game) {
	tasks := make([]string, len(g.AvailableTasks))
	copy(tasks, g.AvailableTasks)
	t.Out.Broadcast(models.EventTasksUpdated, map[string]interface{}{
		"available_tasks": tasks,
	})
}

// StartGame assigns roles, deals tasks and moves the lobby to Playing.
// Each player privately receives their role information.
func StartGame(t *Turn, g *models.Game, actor *models.Player) error {
	if err := requireHostInLobby(g, actor, "start the game"); err != nil {
		return err
	}
	if per := g.Settings.TasksPerPlayer; len(g.AvailableTasks) < per {
		return errors.InvalidStatef("need at least %d available tasks, have %d", per, len(g.AvailableTasks))
	}
	if err := AssignRoles(g, t.Rand); err != nil {
		return err
	}
	DistributeTasks(g, t.Rand)

	g.State = models.StatePlaying
	g.StartedAt = t.Now
	g.Winner = ""
	g.WinReason = ""
	g.SabotageCooldownEnd = time.Time{}
	g.VultureIneligible = make(map[string]bool)
	g.AliveAtLastMeeting = nil
	g.MeetingCount = 0

	for _, p := range g.OrderedPlayers() {
		t.Out.Send(p.ID, models.EventGameStarted, map[string]interface{}{
			"role_info":       NewRoleView(g, p),
			"task_percentage": TaskPercentage(g),
			"players":         PlayerViews(g, false),
		})
	}
	return nil
}

// EndGame lets the host cancel a running game
func EndGame(t *Turn, g *models.Game, actor *models.Player) error {
	if !actor.IsHost {
		return errors.Forbidden("only the host can end the game")
	}
	switch g.State {
	case models.StateLobby:
		return errors.InvalidState("game has not started")
	case models.StateEnded:
		return errors.AlreadyDone("game has already ended")
	}

	finish(t, g, models.WinnerCancelled, "Ended by host")
	return nil
}

func requireHostInLobby(g *models.Game, actor *models.Player, action string) error {
	if !actor.IsHost {
		return errors.Forbiddenf("only the host can %s", action)
	}
	if g.State != models.StateLobby {
		return errors.InvalidStatef("cannot %s after the game has started", action)
	}
	return nil
}
