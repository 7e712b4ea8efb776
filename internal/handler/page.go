package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/errs"
	"github.com/dukerupert/santaswishlist/internal/letter"
	"github.com/dukerupert/santaswishlist/internal/service"
	"github.com/dukerupert/santaswishlist/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home.html", "signin.html", "dashboard.html", "letter.html", "not_found.html"}

type PageHandler struct {
	wishlists *service.WishlistService
	prefs     *store.PreferenceStore
	vapidKey  string
	pages     map[string]*template.Template
	logger    *slog.Logger
}

func NewPageHandler(ws *service.WishlistService, ps *store.PreferenceStore, vapidKey string, logger *slog.Logger) *PageHandler {
	funcs := template.FuncMap{"names": letter.FormatNames}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return &PageHandler{
		wishlists: ws,
		prefs:     ps,
		vapidKey:  vapidKey,
		pages:     pages,
		logger:    logger,
	}
}

// Home handles GET /{$}
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", map[string]any{})
}

// SignIn handles GET /signin
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, http.StatusOK, "signin.html", map[string]any{
		"Error":      q.Get("error"),
		"Sent":       q.Get("sent") != "",
		"RedirectTo": auth.SafeRedirect(q.Get("redirectTo")),
	})
}

// Dashboard handles GET /dashboard. Preferences are read once here and
// handed to the page.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller := auth.Caller(r.Context())
	list, err := h.wishlists.List(r.Context(), caller)
	if err != nil {
		h.logger.Error("dashboard wishlists", "error", err)
		http.Error(w, "failed to load wishlists", http.StatusInternalServerError)
		return
	}
	prefs, err := loadPreferences(r, h.prefs)
	if err != nil {
		h.logger.Error("dashboard preferences", "error", err)
		http.Error(w, "failed to load preferences", http.StatusInternalServerError)
		return
	}

	h.render(w, http.StatusOK, "dashboard.html", map[string]any{
		"Email":     caller.Email,
		"Wishlists": list,
		"Prefs":     prefs,
		"VAPIDKey":  h.vapidKey,
	})
}

// Letter handles GET /wishlist/{id}, the page a family shares with the
// children.
func (h *PageHandler) Letter(w http.ResponseWriter, r *http.Request) {
	wl, err := h.wishlists.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, errs.ErrNotFound) {
		h.render(w, http.StatusNotFound, "not_found.html", map[string]any{})
		return
	}
	if err != nil {
		h.logger.Error("letter page", "error", err)
		http.Error(w, "failed to load wishlist", http.StatusInternalServerError)
		return
	}
	h.render(w, http.StatusOK, "letter.html", map[string]any{"Wishlist": wl.Public()})
}

// render buffers the page so a template failure can still become a 500.
func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("template error", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
