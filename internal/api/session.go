package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kalambet/folio/internal/admin"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by the session endpoints.
type SessionResponse struct {
	Admin     bool       `json:"admin"`
	UserID    string     `json:"userId,omitempty"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, me := deps.Gate.Resolve(r.Context())
		resp := SessionResponse{Admin: state == admin.Admin}
		if me != nil {
			resp.UserID = me.ID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSignIn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "email and password are required")
			return
		}

		secret, me, err := deps.Gate.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			slog.Info("sign-in failed", "error", err)
			httpError(w, http.StatusUnauthorized, "authentication_error", "sign-in failed: %v", err)
			return
		}

		token, expires, err := deps.Sessions.Issue(secret, me.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to issue session: %v", err)
			return
		}
		setSessionCookie(w, r, token, expires)
		writeJSON(w, http.StatusOK, SessionResponse{Admin: true, UserID: me.ID, Token: token, ExpiresAt: &expires})
	}
}

func handleSignOut(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Gate.SignOut(r.Context())
		clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
	}
}
