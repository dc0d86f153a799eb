package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/irlsus/internal/auth"
	"github.com/abrezinsky/irlsus/internal/config"
	"github.com/abrezinsky/irlsus/internal/handlers"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/repository"
	"github.com/abrezinsky/irlsus/internal/services"
	"github.com/abrezinsky/irlsus/internal/store"
	"github.com/abrezinsky/irlsus/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	handlers *handlers.Handlers
	repo     *repository.Repository
	lobby    *services.LobbyService
	sweeper  *services.ExpirySweeper
	baseURL  string
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config, staticFS fs.FS, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	games := store.New(store.WithMaxGames(cfg.MaxGames))
	rt := services.NewRuntime(log, games, repo)

	hub := websocket.New(log, services.NewConnectionService(log, rt))
	hub.Start()
	rt.SetBroadcaster(hub)

	lobby := services.NewLobbyService(log, rt)
	if len(cfg.DefaultTasks) > 0 {
		lobby.SetDefaultTasks(cfg.DefaultTasks)
	}

	h := handlers.New(handlers.Services{
		Lobby:    lobby,
		Play:     services.NewPlayService(log, rt),
		Meeting:  services.NewMeetingService(log, rt),
		Sabotage: services.NewSabotageService(log, rt),
		Ability:  services.NewAbilityService(log, rt),
		History:  services.NewHistoryService(log, repo),
		Admin:    services.NewAdminService(log, rt),
	}, adminAuth, hub, log, staticFS)

	a := &App{
		log:      log,
		cfg:      cfg,
		handlers: h,
		repo:     repo,
		lobby:    lobby,
		sweeper:  services.NewExpirySweeper(log, rt),
	}
	a.setBaseURL(cfg.BaseURL, getPreferredIP(realNetworkProvider{}))
	return a, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// BaseURL is the address players are sent to by join links and QR codes
func (a *App) BaseURL() string {
	return a.baseURL
}

// setBaseURL uses the configured URL, or the LAN address when none is set
func (a *App) setBaseURL(configured, ip string) {
	a.baseURL = configured
	if a.baseURL == "" {
		a.baseURL = fmt.Sprintf("http://%s", net.JoinHostPort(ip, fmt.Sprint(a.cfg.Port)))
	}
	a.lobby.SetBaseURL(a.baseURL)
}

// Close releases the database
func (a *App) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweeper.Run(sweepCtx, a.cfg.SweepInterval)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(ln)
	}()
	a.log.Info("Server starting", "url", a.baseURL)

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the IPv4 address phones on the same network can
// reach. Private addresses win over public ones; localhost is the fallback.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var fallback string
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip := addrIP(addr)
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			if ip.IsPrivate() {
				return ip.String()
			}
			if fallback == "" {
				fallback = ip.String()
			}
		}
	}

	if fallback != "" {
		return fallback
	}
	return "localhost"
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
