package models

// Event types delivered through the broadcast gateway
const (
	EventStateSync          = "state_sync"
	EventPong               = "pong"
	EventPlayerJoined       = "player_joined"
	EventPlayerLeft         = "player_left"
	EventPlayerConnected    = "player_connected"
	EventPlayerDisconnected = "player_disconnected"
	EventHostChanged        = "host_changed"
	EventSettingsChanged    = "settings_changed"
	EventTasksUpdated       = "tasks_updated"
	EventGameStarted        = "game_started"
	EventGameEnded          = "game_ended"
	EventGameDeleted        = "game_deleted"
	EventTaskCompleted      = "task_completed"
	EventPlayerDied         = "player_died"
	EventMeetingCalled      = "meeting_called"
	EventVotingStarted      = "voting_started"
	EventVoteCast           = "vote_cast"
	EventVoteResults        = "vote_results"
	EventMeetingEnded       = "meeting_ended"
	EventSabotageStarted    = "sabotage_started"
	EventSabotageUpdate     = "sabotage_update"
	EventSabotageResolved   = "sabotage_resolved"
	EventGuesserResult      = "guesser_result"
	EventBountyTargetUpdate = "bounty_target_update"
	EventRoleChanged        = "role_changed"
	EventLookoutAlert       = "lookout_alert"
	EventBodyEaten          = "body_eaten"
	EventSwapSelected       = "swap_selected"
	EventError              = "error"
)
