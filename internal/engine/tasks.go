package engine

import (
	"math"

	"github.com/google/uuid"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// DistributeTasks deals every player tasksPerPlayer tasks sampled without
// replacement from the available list. Players whose role cannot do tasks
// get fake ones. CrewTaskTotal becomes the number of real tasks dealt.
func DistributeTasks(g *models.Game, rng Rand) {
	per := g.Settings.TasksPerPlayer
	doers := 0

	for _, p := range g.OrderedPlayers() {
		names := make([]string, len(g.AvailableTasks))
		copy(names, g.AvailableTasks)
		rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
		if len(names) > per {
			names = names[:per]
		}

		fake := !p.Role.Info().CanDoTasks
		p.Tasks = make([]models.Task, 0, len(names))
		for _, name := range names {
			p.Tasks = append(p.Tasks, models.Task{
				ID:     uuid.NewString(),
				Name:   name,
				Status: models.TaskPending,
				IsFake: fake,
			})
		}
		if !fake {
			doers++
		}
	}

	g.CrewTaskTotal = doers * per
}

// TaskPercentage is the share of real tasks completed, rounded to one
// decimal. It is 0 when no real tasks were dealt.
func TaskPercentage(g *models.Game) float64 {
	if g.CrewTaskTotal == 0 {
		return 0
	}
	done := 0
	for _, p := range g.Players {
		for _, t := range p.Tasks {
			if !t.IsFake && t.Status == models.TaskCompleted {
				done++
			}
		}
	}
	return math.Round(1000*float64(done)/float64(g.CrewTaskTotal)) / 10
}

// CompleteTask marks one of p's tasks completed
func CompleteTask(t *Turn, g *models.Game, p *models.Player, taskID string) error {
	task, err := ownTask(g, p, taskID)
	if err != nil {
		return err
	}
	if task.Status == models.TaskCompleted {
		return errors.AlreadyDone("task is already completed")
	}

	task.Status = models.TaskCompleted
	t.Out.Broadcast(models.EventTaskCompleted, map[string]interface{}{
		"task_percentage": TaskPercentage(g),
	})
	applyWin(t, g)
	return nil
}

// UncompleteTask reverts one of p's completed tasks to pending
func UncompleteTask(t *Turn, g *models.Game, p *models.Player, taskID string) error {
	task, err := ownTask(g, p, taskID)
	if err != nil {
		return err
	}
	if task.Status != models.TaskCompleted {
		return errors.InvalidState("task is not completed")
	}

	task.Status = models.TaskPending
	t.Out.Broadcast(models.EventTaskCompleted, map[string]interface{}{
		"task_percentage": TaskPercentage(g),
	})
	return nil
}

func ownTask(g *models.Game, p *models.Player, taskID string) (*models.Task, error) {
	if g.State != models.StatePlaying {
		return nil, errors.InvalidState("tasks can only be changed while playing")
	}
	owner, task := g.FindTask(taskID)
	if task == nil {
		return nil, errors.NotFound("task not found")
	}
	if owner.ID != p.ID {
		return nil, errors.Forbidden("that task belongs to another player")
	}
	return task, nil
}
