package handlers

// PlayerNameRequest is the body of create and join
type PlayerNameRequest struct {
	PlayerName string `json:"player_name"`
}

// TaskRequest adds an available task to a lobby
type TaskRequest struct {
	TaskName string `json:"task_name"`
}

// LoginRequest is the JSON form of the admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// LogLevelRequest changes the process log level
type LogLevelRequest struct {
	Level string `json:"level"`
}

// HTTPLoggingRequest toggles per-request logging
type HTTPLoggingRequest struct {
	Enabled bool `json:"enabled"`
}
