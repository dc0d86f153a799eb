package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if r.URL.Query().Get("limit") != "" {
		n, err := queryInt(r, "limit")
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		limit = n
	}

	games, err := h.History.ListRecent(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, games)
}

func (h *Handlers) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.History.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}

func (h *Handlers) handleGetHistoryGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.History.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, game)
}
