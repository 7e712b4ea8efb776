package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dukerupert/santaswishlist/internal/auth"
)

const (
	signInPath    = "/signin"
	dashboardPath = "/dashboard"
)

// SessionResolver returns the signed-in identity for a request, or nil for
// anonymous callers.
type SessionResolver interface {
	CurrentUser(ctx context.Context, r *http.Request) (*auth.Identity, error)
}

var publicPaths = map[string]bool{
	"/":              true,
	signInPath:       true,
	"/auth/callback": true,
	"/health":        true,
	"/video":         true,
}

var publicPrefixes = []string{"/api/auth/", "/static/", "/wishlist/"}

var imageExts = map[string]bool{
	".ico": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".svg": true, ".webp": true,
}

// publicAPI matches the API routes a child with a shared link may call.
var publicAPI = func() *http.ServeMux {
	mux := http.NewServeMux()
	ok := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	mux.Handle("GET /api/wishlists/{id}", ok)
	mux.Handle("POST /api/wishlists/{id}/responses", ok)
	mux.Handle("POST /api/wishlists/responses", ok)
	return mux
}()

// IsPublic reports whether r may proceed without a session.
func IsPublic(r *http.Request) bool {
	p := r.URL.Path
	if publicPaths[p] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	if imageExts[strings.ToLower(path.Ext(p))] {
		return true
	}
	_, pattern := publicAPI.Handler(r)
	return pattern != ""
}

// Gate decides per request whether a session is required. Public requests
// pass through untouched; everything else needs a valid session and gets
// the caller's identity attached to its context.
func Gate(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "gate")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != signInPath && IsPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.CurrentUser(r.Context(), r)
			if err != nil {
				logger.Warn("session lookup failed", "path", r.URL.Path, "error", err)
				id = nil
			}

			if r.URL.Path == signInPath {
				if id != nil {
					http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if id == nil {
				denyAnonymous(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), *id)))
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Unauthorized"})
		return
	}

	target := signInPath + "?redirectTo=" + url.QueryEscape(r.URL.RequestURI())
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
