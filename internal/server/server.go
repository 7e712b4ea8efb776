package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/handler"
	"github.com/dukerupert/santaswishlist/internal/legacy"
	"github.com/dukerupert/santaswishlist/internal/media"
	"github.com/dukerupert/santaswishlist/internal/middleware"
	"github.com/dukerupert/santaswishlist/internal/notify"
	"github.com/dukerupert/santaswishlist/internal/push"
	"github.com/dukerupert/santaswishlist/internal/service"
	"github.com/dukerupert/santaswishlist/internal/store"
	ws "github.com/dukerupert/santaswishlist/internal/websocket"
)

const (
	publicWriteLimit  = 10
	publicWriteWindow = time.Minute
)

// Options carries the optional collaborators. Zero values disable the
// corresponding feature.
type Options struct {
	Auth           auth.Config
	Mailer         auth.Mailer
	Push           *push.Service
	Video          media.Source
	ArtifactDir    string
	StaticDir      string
	OriginPatterns []string
	TrustedProxies middleware.TrustedProxies
	Registerer     prometheus.Registerer
}

type Server struct {
	db             *database.DB
	hub            *ws.Hub
	dispatcher     *notify.Dispatcher
	provider       *auth.Provider
	wishlistH      *handler.WishlistHandler
	responseH      *handler.ResponseHandler
	authH          *handler.AuthHandler
	prefH          *handler.PreferenceHandler
	pageH          *handler.PageHandler
	pushH          *handler.PushHandler
	videoH         *media.Handler
	sessionStore   *store.SessionStore
	magicLinkStore *store.MagicLinkStore
	rateLimiter    *middleware.RateLimiter
	metrics        *middleware.Metrics
	proxies        middleware.TrustedProxies
	staticDir      string
	originPatterns []string
	logger         *slog.Logger
}

func New(db *database.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	magicLinkStore := store.NewMagicLinkStore(db)
	wishlistStore := store.NewWishlistStore(db)
	responseStore := store.NewResponseStore(db)
	prefStore := store.NewPreferenceStore(db)
	pushStore := store.NewPushStore(db)

	var sender notify.Sender
	var pushH *handler.PushHandler
	vapidKey := ""
	if opts.Push != nil && opts.Push.Configured() {
		sender = opts.Push
		pushH = handler.NewPushHandler(pushStore, opts.Push, logger.With("component", "push_handler"))
		vapidKey = opts.Push.VAPIDPublicKey()
	}
	dispatcher := notify.NewDispatcher(hub, sender, pushStore, logger)

	var cleaner service.ArtifactCleaner
	if opts.ArtifactDir != "" {
		cleaner = legacy.NewCleaner(opts.ArtifactDir)
	}

	provider := auth.NewProvider(userStore, sessionStore, magicLinkStore, opts.Mailer, opts.Auth, logger.With("component", "auth"))
	wishlists := service.NewWishlistService(wishlistStore, cleaner, dispatcher, logger.With("component", "wishlist"))
	responses := service.NewResponseService(wishlistStore, responseStore, dispatcher, logger.With("component", "response"))

	var videoH *media.Handler
	if opts.Video != nil {
		videoH = media.NewHandler(opts.Video, logger)
	}

	var metrics *middleware.Metrics
	if opts.Registerer != nil {
		metrics = middleware.NewMetrics(opts.Registerer)
	}

	return &Server{
		db:             db,
		hub:            hub,
		dispatcher:     dispatcher,
		provider:       provider,
		wishlistH:      handler.NewWishlistHandler(wishlists, logger.With("component", "wishlist_handler")),
		responseH:      handler.NewResponseHandler(responses, logger.With("component", "response_handler")),
		authH:          handler.NewAuthHandler(provider, logger.With("component", "auth_handler")),
		prefH:          handler.NewPreferenceHandler(prefStore, logger.With("component", "preference_handler")),
		pageH:          handler.NewPageHandler(wishlists, prefStore, vapidKey, logger.With("component", "page")),
		pushH:          pushH,
		videoH:         videoH,
		sessionStore:   sessionStore,
		magicLinkStore: magicLinkStore,
		rateLimiter:    middleware.NewRateLimiter(),
		metrics:        metrics,
		proxies:        opts.TrustedProxies,
		staticDir:      opts.StaticDir,
		originPatterns: opts.OriginPatterns,
		logger:         logger,
	}
}

// Cleanup removes expired sessions and sign-in links and forgets stale
// rate-limit windows.
func (s *Server) Cleanup(ctx context.Context) {
	if n, err := s.sessionStore.DeleteExpired(ctx); err != nil {
		s.logger.Error("cleanup expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("cleaned up expired sessions", "count", n)
	}
	if n, err := s.magicLinkStore.DeleteExpired(ctx); err != nil {
		s.logger.Error("cleanup expired sign-in links", "error", err)
	} else if n > 0 {
		s.logger.Info("cleaned up expired sign-in links", "count", n)
	}
	s.rateLimiter.Cleanup()
}

// Wait blocks until background notifications finish.
func (s *Server) Wait() {
	s.dispatcher.Wait()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var h http.Handler = middleware.Gate(s.provider, s.logger)(mux)
	h = middleware.RequestLogger(s.logger.With("component", "http"), s.proxies.RealIP)(h)
	if s.metrics != nil {
		h = s.metrics.Instrument(mux)(h)
	}
	return h
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, s.proxies.RealIP, publicWriteLimit, publicWriteWindow)(h)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Wishlists
	mux.HandleFunc("POST /api/wishlists", s.wishlistH.Create)
	mux.HandleFunc("GET /api/wishlists", s.wishlistH.List)
	mux.HandleFunc("GET /api/wishlists/{id}", s.wishlistH.Get)
	mux.HandleFunc("DELETE /api/wishlists/{id}", s.wishlistH.Delete)

	// Replies
	mux.HandleFunc("GET /api/wishlists/{id}/responses", s.responseH.List)
	mux.Handle("POST /api/wishlists/{id}/responses", s.rateLimited(s.responseH.Create))
	mux.Handle("POST /api/wishlists/responses", s.rateLimited(s.responseH.CreateLegacy))

	// Auth
	mux.Handle("POST /api/auth/signin", s.rateLimited(s.authH.SignIn))
	mux.HandleFunc("POST /api/auth/signout", s.authH.SignOut)
	mux.HandleFunc("GET /auth/callback", s.authH.Callback)

	mux.HandleFunc("GET /api/preferences", s.prefH.List)
	mux.HandleFunc("PUT /api/preferences/{key}", s.prefH.Set)

	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	if s.videoH != nil {
		mux.Handle("GET /video", s.videoH)
	}
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns, s.logger.With("component", "websocket")))
	mux.HandleFunc("GET /health", handler.Health(s.db, s.logger))
	if s.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	}

	// Pages
	mux.HandleFunc("GET /{$}", s.pageH.Home)
	mux.HandleFunc("GET /signin", s.pageH.SignIn)
	mux.HandleFunc("GET /dashboard", s.pageH.Dashboard)
	mux.HandleFunc("GET /wishlist/{id}", s.pageH.Letter)
}
