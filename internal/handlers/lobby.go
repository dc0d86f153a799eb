package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/irlsus/internal/models"
)

func (h *Handlers) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req PlayerNameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Lobby.CreateGame(r.Context(), req.PlayerName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, res)
}

func (h *Handlers) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req PlayerNameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.Lobby.JoinGame(r.Context(), chi.URLParam(r, "code"), req.PlayerName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, res)
}

func (h *Handlers) handleLeaveGame(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Lobby.LeaveGame(r.Context(), chi.URLParam(r, "code"), token); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Left game")
}

func (h *Handlers) handleGetGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.Lobby.GetGame(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleGameQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Lobby.GenerateQRImage(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var patch models.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}

	settings, err := h.Lobby.UpdateSettings(r.Context(), chi.URLParam(r, "code"), token, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, settings)
}

func (h *Handlers) handleAddTask(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Lobby.AddTask(r.Context(), chi.URLParam(r, "code"), token, req.TaskName); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Task added")
}

func (h *Handlers) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Lobby.RemoveTask(r.Context(), chi.URLParam(r, "code"), token, chi.URLParam(r, "taskName")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Task removed")
}

func (h *Handlers) handleStartGame(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "Game started", h.Lobby.StartGame)
}

func (h *Handlers) handleEndGame(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "Game ended", h.Lobby.EndGame)
}

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.Hub.ServeWs(w, r, chi.URLParam(r, "code"), chi.URLParam(r, "token")); err != nil {
		h.respondError(w, r, err)
	}
}
