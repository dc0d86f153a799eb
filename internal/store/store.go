// Package store holds the live games of the process. Each game has its own
// lock so unrelated games never wait on each other; the store-wide lock only
// guards the code and session indexes.
package store

import (
	crand "crypto/rand"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

const (
	CodeLength = 4
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	maxCodeAttempts = 100
)

// NormalizeCode uppercases and trims a game code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateCode returns a random code of CodeLength uppercase letters
func GenerateCode() string {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(codeChars))))
		if err != nil {
			n = big.NewInt(int64(i))
		}
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

type entry struct {
	mu      sync.Mutex
	game    *models.Game
	deleted bool
}

type session struct {
	code     string
	playerID string
}

// Store is the process-owned registry of live games
type Store struct {
	mu       sync.RWMutex
	games    map[string]*entry
	sessions map[string]session

	newCode  func() string
	maxGames int
}

// Option configures a Store
type Option func(*Store)

// WithCodeGenerator replaces the random code source
func WithCodeGenerator(fn func() string) Option {
	return func(s *Store) { s.newCode = fn }
}

// WithMaxGames caps the number of live games. Zero means no cap.
func WithMaxGames(n int) Option {
	return func(s *Store) { s.maxGames = n }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		games:    make(map[string]*entry),
		sessions: make(map[string]session),
		newCode:  GenerateCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers g under a fresh code, retrying on collision, and binds
// the session tokens of the players it already has. g.Code is set.
func (s *Store) Create(g *models.Game) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxGames > 0 && len(s.games) >= s.maxGames {
		return "", errors.InvalidState("the server is hosting too many games, try again later")
	}

	var code string
	for i := 0; i < maxCodeAttempts; i++ {
		c := NormalizeCode(s.newCode())
		if _, taken := s.games[c]; !taken {
			code = c
			break
		}
	}
	if code == "" {
		return "", errors.Internalf("could not find a free game code after %d attempts", maxCodeAttempts)
	}

	g.Code = code
	s.games[code] = &entry{game: g}
	for _, p := range g.Players {
		s.sessions[p.SessionToken] = session{code: code, playerID: p.ID}
	}
	return code, nil
}

// Tx is the exclusive handle on one game passed to Do callbacks
type Tx struct {
	s    *Store
	code string
	e    *entry
}

// Game returns the locked game record
func (tx *Tx) Game() *models.Game {
	return tx.e.game
}

// Bind makes token resolve to playerID in this game
func (tx *Tx) Bind(token, playerID string) {
	tx.s.mu.Lock()
	tx.s.sessions[token] = session{code: tx.code, playerID: playerID}
	tx.s.mu.Unlock()
}

// Unbind forgets a session token
func (tx *Tx) Unbind(token string) {
	tx.s.mu.Lock()
	delete(tx.s.sessions, token)
	tx.s.mu.Unlock()
}

// Delete removes the game and invalidates every token bound to it. Calls
// already waiting on the game's lock will see NotFound.
func (tx *Tx) Delete() {
	tx.e.deleted = true
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if tx.s.games[tx.code] == tx.e {
		delete(tx.s.games, tx.code)
	}
	for token, sess := range tx.s.sessions {
		if sess.code == tx.code {
			delete(tx.s.sessions, token)
		}
	}
}

// Do runs fn with exclusive access to the game with the given code
func (s *Store) Do(code string, fn func(tx *Tx) error) error {
	code = NormalizeCode(code)
	s.mu.RLock()
	e, ok := s.games[code]
	s.mu.RUnlock()
	if !ok {
		return errors.NotFoundf("game %s not found", code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return errors.NotFoundf("game %s not found", code)
	}
	return fn(&Tx{s: s, code: code, e: e})
}

// DoSession resolves token and runs fn with exclusive access to its game
// and player
func (s *Store) DoSession(token string, fn func(tx *Tx, p *models.Player) error) error {
	code, playerID, err := s.Resolve(token)
	if err != nil {
		return err
	}
	return s.Do(code, func(tx *Tx) error {
		p := tx.Game().Player(playerID)
		if p == nil || p.SessionToken != token {
			return errors.NotFound("session not found")
		}
		return fn(tx, p)
	})
}

// Resolve returns the game code and player id a token belongs to
func (s *Store) Resolve(token string) (string, string, error) {
	if token == "" {
		return "", "", errors.NotFound("session not found")
	}
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return "", "", errors.NotFound("session not found")
	}
	return sess.code, sess.playerID, nil
}

// Delete removes a game by code
func (s *Store) Delete(code string) error {
	return s.Do(code, func(tx *Tx) error {
		tx.Delete()
		return nil
	})
}

// Codes returns the codes of every live game, sorted
func (s *Store) Codes() []string {
	s.mu.RLock()
	codes := make([]string, 0, len(s.games))
	for code := range s.games {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	sort.Strings(codes)
	return codes
}

// Count returns the number of live games
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
