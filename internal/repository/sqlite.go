package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/irlsus/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			winner TEXT NOT NULL,
			reason TEXT,
			player_count INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME,
			ended_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_players (
			game_id TEXT NOT NULL,
			seat INTEGER NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			tasks_total INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (game_id, seat),
			FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_ended ON games(ended_at)`,
		`CREATE INDEX IF NOT EXISTS idx_games_winner ON games(winner)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== History Methods ====================

// RecordGame stores a finished game and its players in one transaction
func (r *Repository) RecordGame(ctx context.Context, result models.GameResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var startedAt interface{}
	if !result.StartedAt.IsZero() {
		startedAt = result.StartedAt.UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, code, winner, reason, player_count, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.GameID, result.Code, result.Winner, result.Reason, len(result.Players), startedAt, result.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert game %s: %w", result.GameID, err)
	}

	for seat, p := range result.Players {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, seat, name, role, status, tasks_completed, tasks_total)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, result.GameID, seat, p.Name, string(p.Role), string(p.Status), p.TasksCompleted, p.TasksTotal)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// ListRecentGames returns up to limit finished games, newest first
func (r *Repository) ListRecentGames(ctx context.Context, limit int) ([]models.GameSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, winner, COALESCE(reason, ''), player_count, ended_at
		FROM games
		ORDER BY ended_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []models.GameSummary{}
	for rows.Next() {
		var g models.GameSummary
		if err := rows.Scan(&g.GameID, &g.Code, &g.Winner, &g.Reason, &g.PlayerCount, &g.EndedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GetGame returns one finished game with its players
func (r *Repository) GetGame(ctx context.Context, gameID string) (*models.GameResult, error) {
	var (
		g         models.GameResult
		startedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, winner, COALESCE(reason, ''), started_at, ended_at
		FROM games WHERE id = ?
	`, gameID).Scan(&g.GameID, &g.Code, &g.Winner, &g.Reason, &startedAt, &g.EndedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		g.StartedAt = startedAt.Time
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, role, status, tasks_completed, tasks_total
		FROM game_players WHERE game_id = ?
		ORDER BY seat
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p            models.PlayerResult
			role, status string
		)
		if err := rows.Scan(&p.Name, &role, &status, &p.TasksCompleted, &p.TasksTotal); err != nil {
			return nil, err
		}
		p.Role = models.Role(role)
		p.RoleName = p.Role.DisplayName()
		p.Status = models.PlayerStatus(status)
		g.Players = append(g.Players, p)
	}
	return &g, rows.Err()
}

// WinStats counts finished games per winner label
func (r *Repository) WinStats(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT winner, COUNT(*) FROM games GROUP BY winner`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			winner string
			count  int
		)
		if err := rows.Scan(&winner, &count); err != nil {
			return nil, err
		}
		stats[winner] = count
	}
	return stats, rows.Err()
}
