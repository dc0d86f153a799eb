package handlers

import (
	"io/fs"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/abrezinsky/irlsus/internal/auth"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/services"
)

// Default limits for the unauthenticated create and join endpoints, per client IP
const (
	DefaultJoinRate  = rate.Limit(0.5)
	DefaultJoinBurst = 20
)

// SocketServer upgrades a request into a registered game socket
type SocketServer interface {
	ServeWs(w http.ResponseWriter, r *http.Request, code, token string) error
}

// Services groups the servicers the HTTP layer calls into
type Services struct {
	Lobby    services.LobbyServicer
	Play     services.PlayServicer
	Meeting  services.MeetingServicer
	Sabotage services.SabotageServicer
	Ability  services.AbilityServicer
	History  services.HistoryServicer
	Admin    services.AdminServicer
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Lobby    services.LobbyServicer
	Play     services.PlayServicer
	Meeting  services.MeetingServicer
	Sabotage services.SabotageServicer
	Ability  services.AbilityServicer
	History  services.HistoryServicer
	Admin    services.AdminServicer
	Auth     *auth.Auth
	Hub      SocketServer
	Log      logger.Logger

	staticFS    fs.FS
	joinLimiter *ipLimiter
}

// New creates a new Handlers instance with all dependencies
func New(svc Services, adminAuth *auth.Auth, hub SocketServer, log logger.Logger, staticFS fs.FS) *Handlers {
	return &Handlers{
		Lobby:       svc.Lobby,
		Play:        svc.Play,
		Meeting:     svc.Meeting,
		Sabotage:    svc.Sabotage,
		Ability:     svc.Ability,
		History:     svc.History,
		Admin:       svc.Admin,
		Auth:        adminAuth,
		Hub:         hub,
		Log:         log,
		staticFS:    staticFS,
		joinLimiter: newIPLimiter(DefaultJoinRate, DefaultJoinBurst),
	}
}

// SetJoinRateLimit replaces the per-IP limit on game creation and joins
func (h *Handlers) SetJoinRateLimit(limit rate.Limit, burst int) {
	h.joinLimiter = newIPLimiter(limit, burst)
}

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h.staticFS == nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, h.staticFS, "index.html")
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, HealthResponse{Status: "ok", Games: h.Admin.GameCount()})
}
