package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/irlsus/internal/services"
)

func (h *Handlers) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	h.taskChange(w, r, h.Play.CompleteTask)
}

func (h *Handlers) handleUncompleteTask(w http.ResponseWriter, r *http.Request) {
	h.taskChange(w, r, h.Play.UncompleteTask)
}

func (h *Handlers) taskChange(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, token, taskID string) (*services.TaskProgress, error)) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	progress, err := fn(r.Context(), token, chi.URLParam(r, "taskID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, progress)
}

func (h *Handlers) handleMarkDead(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Play.MarkDead(r.Context(), token, chi.URLParam(r, "playerID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Marked dead")
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	me, err := h.Play.Me(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, me)
}

func (h *Handlers) handleReconnect(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Play.Reconnect(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}
