package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// LobbyService handles game creation and everything that happens before a
// game starts, plus the host's start and end controls
type LobbyService struct {
	log          logger.Logger
	rt           *Runtime
	baseURL      string
	defaultTasks []string
}

// NewLobbyService creates a new LobbyService
func NewLobbyService(log logger.Logger, rt *Runtime) *LobbyService {
	return &LobbyService{
		log: log,
		rt:  rt,
	}
}

// SetBaseURL sets the URL join links and QR codes point at
func (s *LobbyService) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimSuffix(baseURL, "/")
}

// SetDefaultTasks replaces the task list new lobbies start with
func (s *LobbyService) SetDefaultTasks(tasks []string) {
	s.defaultTasks = append([]string(nil), tasks...)
}

// JoinResult is returned to a player entering a game
type JoinResult struct {
	Code         string `json:"code"`
	PlayerID     string `json:"player_id"`
	SessionToken string `json:"session_token"`
	IsHost       bool   `json:"is_host"`
}

// CreateGame opens a new lobby hosted by playerName
func (s *LobbyService) CreateGame(ctx context.Context, playerName string) (*JoinResult, error) {
	name, err := SanitizePlayerName(playerName)
	if err != nil {
		return nil, err
	}

	now := s.rt.Now()
	g := models.NewGame(uuid.NewString(), now)
	if len(s.defaultTasks) > 0 {
		g.AvailableTasks = append([]string(nil), s.defaultTasks...)
	}
	host := engine.NewPlayer(uuid.NewString(), uuid.NewString(), name, true, now)
	g.Players[host.ID] = host

	code, err := s.rt.Store().Create(g)
	if err != nil {
		return nil, err
	}

	s.log.Info("Game created", "code", code, "host", name)
	return &JoinResult{Code: code, PlayerID: host.ID, SessionToken: host.SessionToken, IsHost: true}, nil
}

// JoinGame adds playerName to the lobby with the given code
func (s *LobbyService) JoinGame(ctx context.Context, code, playerName string) (*JoinResult, error) {
	name, err := SanitizePlayerName(playerName)
	if err != nil {
		return nil, err
	}

	p := engine.NewPlayer(uuid.NewString(), uuid.NewString(), name, false, s.rt.Now())
	err = s.rt.actOnGame(ctx, code, func(t *engine.Turn, tx *store.Tx) error {
		if err := engine.Join(t, tx.Game(), p); err != nil {
			return err
		}
		tx.Bind(p.SessionToken, p.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	code = store.NormalizeCode(code)
	s.log.Info("Player joined", "code", code, "player", name)
	return &JoinResult{Code: code, PlayerID: p.ID, SessionToken: p.SessionToken}, nil
}

// LeaveGame removes the caller from a lobby. The last player out deletes it.
func (s *LobbyService) LeaveGame(ctx context.Context, code, token string) error {
	var emptied bool
	err := s.rt.act(ctx, code, token, "leave", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		empty, err := engine.Leave(t, tx.Game(), p)
		if err != nil {
			return err
		}
		tx.Unbind(token)
		if empty {
			tx.Delete()
			emptied = true
		}
		return nil
	})
	if err == nil && emptied && s.rt.broadcaster != nil {
		s.rt.broadcaster.CloseGame(store.NormalizeCode(code))
	}
	return err
}

// GetGame returns the public snapshot of a game. Roles stay hidden until the
// game has ended.
func (s *LobbyService) GetGame(ctx context.Context, code string) (*engine.GameView, error) {
	var view engine.GameView
	err := s.rt.Store().Do(code, func(tx *store.Tx) error {
		view = engine.NewGameView(tx.Game(), s.rt.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateSettings applies a settings patch to a lobby
func (s *LobbyService) UpdateSettings(ctx context.Context, code, token string, patch models.SettingsPatch) (*models.Settings, error) {
	var updated models.Settings
	err := s.rt.act(ctx, code, token, "update_settings", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		if err := engine.UpdateSettings(t, tx.Game(), p, patch); err != nil {
			return err
		}
		updated = tx.Game().Settings.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddTask adds a task to the lobby's available list
func (s *LobbyService) AddTask(ctx context.Context, code, token, taskName string) error {
	name, err := SanitizeTaskName(taskName)
	if err != nil {
		return err
	}
	return s.rt.act(ctx, code, token, "add_task", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.AddTask(t, tx.Game(), p, name)
	})
}

// RemoveTask drops a task from the lobby's available list
func (s *LobbyService) RemoveTask(ctx context.Context, code, token, taskName string) error {
	return s.rt.act(ctx, code, token, "remove_task", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.RemoveTask(t, tx.Game(), p, strings.TrimSpace(taskName))
	})
}

// StartGame assigns roles and tasks and moves the lobby to Playing
func (s *LobbyService) StartGame(ctx context.Context, code, token string) error {
	return s.rt.act(ctx, code, token, "start_game", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.StartGame(t, tx.Game(), p)
	})
}

// EndGame lets the host cancel a running game
func (s *LobbyService) EndGame(ctx context.Context, code, token string) error {
	return s.rt.act(ctx, code, token, "end_game", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.EndGame(t, tx.Game(), p)
	})
}

// JoinURL returns the link players open to join the game with code
func (s *LobbyService) JoinURL(code string) string {
	return fmt.Sprintf("%s/join/%s", s.baseURL, store.NormalizeCode(code))
}

// GenerateQRImage returns a PNG QR code for the game's join link
func (s *LobbyService) GenerateQRImage(ctx context.Context, code string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, errors.InvalidState("base_url not configured")
	}
	if err := s.rt.Store().Do(code, func(*store.Tx) error { return nil }); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.JoinURL(code), qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to generate QR code")
	}
	return png, nil
}
