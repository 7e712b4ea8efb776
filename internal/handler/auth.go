package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/errs"
)

const (
	defaultLanding  = "/dashboard"
	authFailedQuery = "/signin?error=Authentication+failed"
)

type AuthHandler struct {
	provider *auth.Provider
	logger   *slog.Logger
}

func NewAuthHandler(p *auth.Provider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{provider: p, logger: logger}
}

type signInRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo"`
}

func isJSONRequest(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json" || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// SignIn handles POST /api/auth/signin. Browsers post the form and are sent
// back to the sign-in page; scripts post JSON and get the envelope.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSONRequest(r)

	var req signInRequest
	if asJSON {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.RedirectTo = r.FormValue("redirectTo")
	}

	err := h.provider.SendSignInLink(r.Context(), req.Email, req.RedirectTo)
	if err != nil {
		var verr *errs.ValidationError
		status, msg := http.StatusInternalServerError, "Could not send the sign-in link, please try again"
		if errors.As(err, &verr) {
			status, msg = http.StatusBadRequest, verr.Message
		} else {
			h.logger.Error("send sign-in link", "error", err)
		}
		if asJSON {
			writeError(w, status, msg)
			return
		}
		http.Redirect(w, r, "/signin?error="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}

	if asJSON {
		writeData(w, http.StatusOK, map[string]string{"message": "Check your email for a sign-in link"})
		return
	}
	http.Redirect(w, r, "/signin?sent=1", http.StatusSeeOther)
}

// Callback handles GET /auth/callback?code=...
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, redirectTo, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			h.logger.Warn("auth callback rejected code", "error", err)
		} else {
			h.logger.Error("auth callback", "error", err)
		}
		http.Redirect(w, r, authFailedQuery, http.StatusSeeOther)
		return
	}

	h.provider.SetSessionCookie(w, sess)
	if redirectTo == "" {
		redirectTo = defaultLanding
	}
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.provider.SignOut(r.Context(), cookie.Value); err != nil {
			h.logger.Error("sign out", "error", err)
		}
	}
	h.provider.ClearSessionCookie(w)

	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, envelope{Success: true})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
