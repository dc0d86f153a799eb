package handlers

import "github.com/abrezinsky/irlsus/internal/engine"

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

// StartVotingResponse reports whether this call opened the vote
type StartVotingResponse struct {
	Started bool `json:"started"`
}

// SwapResponse names the two players whose votes are swapped
type SwapResponse struct {
	Swapped []string `json:"swapped"`
}

// LookoutResponse names the player being watched
type LookoutResponse struct {
	Watching *engine.PlayerRef `json:"watching"`
}

// LogLevelResponse echoes the active log level
type LogLevelResponse struct {
	Level string `json:"level"`
}

// HTTPLoggingResponse echoes the HTTP logging switch
type HTTPLoggingResponse struct {
	Enabled bool `json:"enabled"`
}
