package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/irlsus/internal/auth"
)

// handleLogin accepts the admin password as JSON or a form field
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var password string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
		password = req.Password
	} else {
		password = r.FormValue("password")
	}

	token, ok := h.Auth.Login(password)
	if !ok {
		h.Log.Warn("Admin login failed", "ip", clientIP(r))
		h.respondError(w, r, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondSuccess(w, "Logged in")
}

// handleLogout clears the session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}
