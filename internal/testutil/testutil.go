package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/repository"
)

// Epoch is the fixed start time used by test clocks and game builders
var Epoch = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

// NewRand returns a deterministic random source
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Clock is a manually advanced clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at Epoch
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// PlayerID returns the id NewGame and NewLobby give the i-th player (1-based)
func PlayerID(i int) string {
	return fmt.Sprintf("p%d", i)
}

// NewLobby builds a lobby with n players. Player 1 is the host.
func NewLobby(t *testing.T, n int) *models.Game {
	t.Helper()

	g := models.NewGame("game-1", Epoch)
	g.Code = "TEST"
	for i := 1; i <= n; i++ {
		id := PlayerID(i)
		g.Players[id] = &models.Player{
			ID:           id,
			Name:         fmt.Sprintf("P%d", i),
			SessionToken: "tok-" + id,
			Status:       models.StatusAlive,
			IsHost:       i == 1,
			Connected:    true,
			JoinedAt:     Epoch.Add(time.Duration(i) * time.Second),
		}
	}
	return g
}

// NewGame builds a game in Playing with one player per role, in order.
// Every player gets two tasks with ids "<player>-t1" and "<player>-t2";
// tasks of roles that cannot do tasks are fake.
func NewGame(t *testing.T, roles ...models.Role) *models.Game {
	t.Helper()

	g := NewLobby(t, len(roles))
	g.Settings.TasksPerPlayer = 2
	doers := 0
	for i, r := range roles {
		p := g.Players[PlayerID(i+1)]
		p.Role = r
		fake := !r.Info().CanDoTasks
		for j := 1; j <= g.Settings.TasksPerPlayer; j++ {
			p.Tasks = append(p.Tasks, models.Task{
				ID:     fmt.Sprintf("%s-t%d", p.ID, j),
				Name:   g.AvailableTasks[j-1],
				Status: models.TaskPending,
				IsFake: fake,
			})
		}
		if !fake {
			doers++
		}
	}
	g.CrewTaskTotal = doers * g.Settings.TasksPerPlayer
	g.State = models.StatePlaying
	g.StartedAt = Epoch
	return g
}

// Delivery is one message captured by Broadcaster
type Delivery struct {
	Code    string
	To      string
	Exclude string
	Message models.WSMessage
}

// Broadcaster records every delivery instead of sending it
type Broadcaster struct {
	mu         sync.Mutex
	deliveries []Delivery
	closed     []string
}

// BroadcastToGame records a game-wide message
func (b *Broadcaster) BroadcastToGame(code string, msg models.WSMessage, excludePlayerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = append(b.deliveries, Delivery{Code: code, Exclude: excludePlayerID, Message: msg})
}

// SendToPlayer records a private message
func (b *Broadcaster) SendToPlayer(code, playerID string, msg models.WSMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = append(b.deliveries, Delivery{Code: code, To: playerID, Message: msg})
}

// CloseGame records that a game's connections were closed
func (b *Broadcaster) CloseGame(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, code)
}

// Deliveries returns a copy of everything recorded so far
func (b *Broadcaster) Deliveries() []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Delivery, len(b.deliveries))
	copy(out, b.deliveries)
	return out
}

// Count returns how many recorded messages have the given type
func (b *Broadcaster) Count(msgType string) int {
	n := 0
	for _, d := range b.Deliveries() {
		if d.Message.Type == msgType {
			n++
		}
	}
	return n
}

// Closed returns the codes passed to CloseGame
func (b *Broadcaster) Closed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.closed))
	copy(out, b.closed)
	return out
}

// Reset forgets everything recorded so far
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = nil
	b.closed = nil
}
