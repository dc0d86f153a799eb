package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/irlsus/internal/logger"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (h *Handlers) handleAdminListGames(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Admin.ListGames(r.Context()))
}

func (h *Handlers) handleAdminDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteGame(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	level := strings.ToLower(strings.TrimSpace(req.Level))
	if !logLevels[level] {
		h.respondError(w, r, BadRequest("level must be one of debug, info, warn, error"))
		return
	}

	h.Log.SetLevel(logger.ParseLevel(level))
	h.Log.Info("Log level changed", "level", level)
	respondOK(w, LogLevelResponse{Level: level})
}

func (h *Handlers) handleSetHTTPLogging(w http.ResponseWriter, r *http.Request) {
	var req HTTPLoggingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.Enabled {
		h.Log.EnableHTTPLogging()
	} else {
		h.Log.DisableHTTPLogging()
	}
	respondOK(w, HTTPLoggingResponse{Enabled: h.Log.IsHTTPLoggingEnabled()})
}
