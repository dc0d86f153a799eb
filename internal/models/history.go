package models

import "time"

// PlayerResult is one player's line in a finished game record
type PlayerResult struct {
	Name           string       `json:"name"`
	Role           Role         `json:"role"`
	RoleName       string       `json:"role_name"`
	Status         PlayerStatus `json:"status"`
	TasksCompleted int          `json:"tasks_completed"`
	TasksTotal     int          `json:"tasks_total"`
}

// GameResult is the record kept for every game that reaches Ended
type GameResult struct {
	GameID    string         `json:"game_id"`
	Code      string         `json:"code"`
	Winner    string         `json:"winner"`
	Reason    string         `json:"reason"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Players   []PlayerResult `json:"players,omitempty"`
}

// GameSummary is a history list row
type GameSummary struct {
	GameID      string    `json:"game_id"`
	Code        string    `json:"code"`
	Winner      string    `json:"winner"`
	Reason      string    `json:"reason"`
	PlayerCount int       `json:"player_count"`
	EndedAt     time.Time `json:"ended_at"`
}
