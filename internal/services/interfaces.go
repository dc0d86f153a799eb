package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/models"
)

// LobbyServicer defines the interface for lobby operations
type LobbyServicer interface {
	CreateGame(ctx context.Context, playerName string) (*JoinResult, error)
	JoinGame(ctx context.Context, code, playerName string) (*JoinResult, error)
	LeaveGame(ctx context.Context, code, token string) error
	GetGame(ctx context.Context, code string) (*engine.GameView, error)
	UpdateSettings(ctx context.Context, code, token string, patch models.SettingsPatch) (*models.Settings, error)
	AddTask(ctx context.Context, code, token, taskName string) error
	RemoveTask(ctx context.Context, code, token, taskName string) error
	StartGame(ctx context.Context, code, token string) error
	EndGame(ctx context.Context, code, token string) error
	GenerateQRImage(ctx context.Context, code string) ([]byte, error)
}

// PlayServicer defines the interface for in-game player operations
type PlayServicer interface {
	CompleteTask(ctx context.Context, token, taskID string) (*TaskProgress, error)
	UncompleteTask(ctx context.Context, token, taskID string) (*TaskProgress, error)
	MarkDead(ctx context.Context, token, playerID string) error
	Me(ctx context.Context, token string) (*engine.MeView, error)
	Reconnect(ctx context.Context, token string) (*ReconnectResult, error)
}

// MeetingServicer defines the interface for meeting operations
type MeetingServicer interface {
	CallMeeting(ctx context.Context, code, token, meetingType string) error
	StartVoting(ctx context.Context, code, token string) (bool, error)
	CastVote(ctx context.Context, code, token, targetID string) (*VoteOutcome, error)
	TimerExpired(ctx context.Context, code, token string) (*VoteOutcome, error)
	EndMeeting(ctx context.Context, code, token string) error
}

// SabotageServicer defines the interface for sabotage operations
type SabotageServicer interface {
	StartSabotage(ctx context.Context, code, token string, index int) error
	FixSabotage(ctx context.Context, code, token, action string) (*engine.FixResult, error)
	CheckTimeout(ctx context.Context, code, token string) (*TimeoutCheck, error)
	Status(ctx context.Context, code, token string) (*engine.SabotageStatus, error)
}

// AbilityServicer defines the interface for role abilities
type AbilityServicer interface {
	EngineerFix(ctx context.Context, code, token string) error
	CaptainMeeting(ctx context.Context, code, token string) error
	Guess(ctx context.Context, code, token, targetID, guessedRole string) (*engine.GuessResult, error)
	VultureEat(ctx context.Context, code, token, bodyID string) (*engine.VultureProgress, error)
	ClaimBounty(ctx context.Context, code, token string, claimed bool) (*engine.BountyResult, error)
	Swap(ctx context.Context, code, token, firstID, secondID string) ([]string, error)
	NoiseMakerReport(ctx context.Context, code, token, targetID string) error
	LookoutWatch(ctx context.Context, code, token, targetID string) (*engine.PlayerRef, error)
}

// ConnectionServicer defines the interface the websocket hub uses
type ConnectionServicer interface {
	Authorize(ctx context.Context, code, token string) error
	Connect(ctx context.Context, code, token string, attach func(playerID string, state *engine.StateSync)) error
	Disconnect(ctx context.Context, code, playerID string)
	Sync(ctx context.Context, code, playerID string) (*engine.StateSync, error)
}

// HistoryServicer defines the interface for finished-game history
type HistoryServicer interface {
	ListRecent(ctx context.Context, limit int) ([]models.GameSummary, error)
	GetGame(ctx context.Context, gameID string) (*models.GameResult, error)
	Stats(ctx context.Context) (*HistoryStats, error)
}

// AdminServicer defines the interface for operator actions
type AdminServicer interface {
	ListGames(ctx context.Context) []LiveGame
	DeleteGame(ctx context.Context, code string) error
	GameCount() int
}

// Ensure concrete types implement interfaces
var (
	_ LobbyServicer      = (*LobbyService)(nil)
	_ PlayServicer       = (*PlayService)(nil)
	_ MeetingServicer    = (*MeetingService)(nil)
	_ SabotageServicer   = (*SabotageService)(nil)
	_ AbilityServicer    = (*AbilityService)(nil)
	_ ConnectionServicer = (*ConnectionService)(nil)
	_ HistoryServicer    = (*HistoryService)(nil)
	_ AdminServicer      = (*AdminService)(nil)
)
