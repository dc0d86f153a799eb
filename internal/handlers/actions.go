package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type sessionAction func(ctx context.Context, code, token string) error

// withSession runs an action that needs only the game code and session
// token, answering with message on success
func (h *Handlers) withSession(w http.ResponseWriter, r *http.Request, message string, fn sessionAction) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := fn(r.Context(), chi.URLParam(r, "code"), token); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, message)
}

// ==================== Meetings ====================

func (h *Handlers) handleCallMeeting(w http.ResponseWriter, r *http.Request) {
	meetingType := r.URL.Query().Get("meeting_type")
	h.withSession(w, r, "Meeting called", func(ctx context.Context, code, token string) error {
		return h.Meeting.CallMeeting(ctx, code, token, meetingType)
	})
}

func (h *Handlers) handleStartVoting(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	started, err := h.Meeting.StartVoting(r.Context(), chi.URLParam(r, "code"), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, StartVotingResponse{Started: started})
}

func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out, err := h.Meeting.CastVote(r.Context(), chi.URLParam(r, "code"), token, r.URL.Query().Get("target_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, out)
}

func (h *Handlers) handleTimerExpired(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out, err := h.Meeting.TimerExpired(r.Context(), chi.URLParam(r, "code"), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, out)
}

func (h *Handlers) handleEndMeeting(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "Meeting ended", h.Meeting.EndMeeting)
}

// ==================== Sabotage ====================

func (h *Handlers) handleStartSabotage(w http.ResponseWriter, r *http.Request) {
	index, err := queryInt(r, "sabotage_index")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.withSession(w, r, "Sabotage started", func(ctx context.Context, code, token string) error {
		return h.Sabotage.StartSabotage(ctx, code, token, index)
	})
}

func (h *Handlers) handleFixSabotage(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Sabotage.FixSabotage(r.Context(), chi.URLParam(r, "code"), token, r.URL.Query().Get("action"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleCheckSabotageTimeout(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	check, err := h.Sabotage.CheckTimeout(r.Context(), chi.URLParam(r, "code"), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, check)
}

func (h *Handlers) handleSabotageStatus(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	status, err := h.Sabotage.Status(r.Context(), chi.URLParam(r, "code"), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, status)
}

// ==================== Role abilities ====================

func (h *Handlers) handleEngineerFix(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "Sabotage fixed remotely", h.Ability.EngineerFix)
}

func (h *Handlers) handleCaptainMeeting(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, "Meeting called", h.Ability.CaptainMeeting)
}

func (h *Handlers) handleGuess(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := h.Ability.Guess(r.Context(), chi.URLParam(r, "code"), token, q.Get("target_id"), q.Get("guessed_role"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleVultureEat(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Ability.VultureEat(r.Context(), chi.URLParam(r, "code"), token, r.URL.Query().Get("body_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleBountyKill(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	claimed, err := queryBool(r, "claimed", true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Ability.ClaimBounty(r.Context(), chi.URLParam(r, "code"), token, claimed)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleSwap(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	names, err := h.Ability.Swap(r.Context(), chi.URLParam(r, "code"), token, q.Get("player1_id"), q.Get("player2_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, SwapResponse{Swapped: names})
}

func (h *Handlers) handleNoiseMaker(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("target_id")
	h.withSession(w, r, "Body reported", func(ctx context.Context, code, token string) error {
		return h.Ability.NoiseMakerReport(ctx, code, token, targetID)
	})
}

func (h *Handlers) handleLookoutWatch(w http.ResponseWriter, r *http.Request) {
	token, err := sessionToken(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	target, err := h.Ability.LookoutWatch(r.Context(), chi.URLParam(r, "code"), token, r.URL.Query().Get("target_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, LookoutResponse{Watching: target})
}
