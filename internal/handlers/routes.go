package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// Sockets live well past any request timeout
	r.Get("/ws/{code}/{token}", h.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/", h.handleIndex)
		r.Get("/join/{code}", h.handleIndex)
		if h.staticFS != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", NewStaticServer(h.staticFS)))
		}
		r.Get("/health", h.handleHealth)

		// Lobby
		r.With(h.limitByIP).Post("/api/games", h.handleCreateGame)
		r.With(h.limitByIP).Post("/api/games/{code}/join", h.handleJoinGame)
		r.Post("/api/games/{code}/leave", h.handleLeaveGame)
		r.Get("/api/games/{code}", h.handleGetGame)
		r.Get("/api/games/{code}/qr", h.handleGameQR)
		r.Patch("/api/games/{code}/settings", h.handleUpdateSettings)
		r.Post("/api/games/{code}/tasks", h.handleAddTask)
		r.Delete("/api/games/{code}/tasks/{taskName}", h.handleRemoveTask)
		r.Post("/api/games/{code}/start", h.handleStartGame)
		r.Post("/api/games/{code}/end", h.handleEndGame)

		// Meetings
		r.Post("/api/games/{code}/meeting/start", h.handleCallMeeting)
		r.Post("/api/games/{code}/meeting/start-voting", h.handleStartVoting)
		r.Post("/api/games/{code}/meeting/vote", h.handleCastVote)
		r.Post("/api/games/{code}/meeting/timer-expired", h.handleTimerExpired)
		r.Post("/api/games/{code}/meeting/end", h.handleEndMeeting)

		// Sabotage
		r.Post("/api/games/{code}/sabotage/start", h.handleStartSabotage)
		r.Post("/api/games/{code}/sabotage/fix", h.handleFixSabotage)
		r.Post("/api/games/{code}/sabotage/check-timeout", h.handleCheckSabotageTimeout)
		r.Get("/api/games/{code}/sabotage/status", h.handleSabotageStatus)

		// Role abilities
		r.Post("/api/games/{code}/ability/engineer-fix", h.handleEngineerFix)
		r.Post("/api/games/{code}/ability/captain-meeting", h.handleCaptainMeeting)
		r.Post("/api/games/{code}/ability/guess", h.handleGuess)
		r.Post("/api/games/{code}/ability/vulture-eat", h.handleVultureEat)
		r.Post("/api/games/{code}/ability/bounty-kill", h.handleBountyKill)
		r.Post("/api/games/{code}/ability/swap", h.handleSwap)
		r.Post("/api/games/{code}/ability/noise-maker", h.handleNoiseMaker)
		r.Post("/api/games/{code}/ability/lookout-watch", h.handleLookoutWatch)

		// Player
		r.Post("/api/tasks/{taskID}/complete", h.handleCompleteTask)
		r.Post("/api/tasks/{taskID}/uncomplete", h.handleUncompleteTask)
		r.Post("/api/players/{playerID}/die", h.handleMarkDead)
		r.Get("/api/players/me", h.handleMe)
		r.Post("/api/reconnect", h.handleReconnect)

		// History
		r.Get("/api/history", h.handleListHistory)
		r.Get("/api/history/stats", h.handleHistoryStats)
		r.Get("/api/history/{gameID}", h.handleGetHistoryGame)

		// Auth routes (public)
		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)

		// Admin API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)
			r.Get("/api/admin/games", h.handleAdminListGames)
			r.Delete("/api/admin/games/{code}", h.handleAdminDeleteGame)
			r.Post("/api/admin/log-level", h.handleSetLogLevel)
			r.Post("/api/admin/http-logging", h.handleSetHTTPLogging)
		})
	})

	return r
}
