package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/config"
	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/email"
	"github.com/dukerupert/santaswishlist/internal/logging"
	"github.com/dukerupert/santaswishlist/internal/media"
	"github.com/dukerupert/santaswishlist/internal/middleware"
	"github.com/dukerupert/santaswishlist/internal/objectstore"
	"github.com/dukerupert/santaswishlist/internal/push"
	"github.com/dukerupert/santaswishlist/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "santaswishlist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "dialect", db.Dialect)

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("WISHLIST_TRUSTED_PROXIES: %w", err)
	}

	opts := server.Options{
		Auth: auth.Config{
			SigningKey:    cfg.AuthKey,
			SiteURL:       cfg.SiteURL,
			CookieDomain:  cfg.CookieDomain,
			SecureCookies: cfg.SecureCookies,
		},
		ArtifactDir:    cfg.ArtifactDir,
		StaticDir:      cfg.StaticDir,
		OriginPatterns: cfg.AllowedOrigins,
		TrustedProxies: proxies,
	}

	if mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail); mailer.Configured() {
		opts.Mailer = mailer
	} else {
		logger.Warn("postmark not configured, sign-in links will be logged")
	}

	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		opts.Push = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubject)
	}

	if cfg.VideoBucket != "" && cfg.S3.Configured() {
		opts.Video = media.NewS3Source(objectstore.NewClient(cfg.S3), cfg.VideoBucket, cfg.VideoKey)
		logger.Info("serving tutorial video from object storage", "bucket", cfg.VideoBucket, "key", cfg.VideoKey)
	} else {
		opts.Video = media.FileSource{Path: cfg.VideoPath}
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registerer = reg

		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	srv := server.New(db, opts, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hourly cleanup of expired sessions, sign-in links and rate-limit windows
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.Cleanup(ctx)
			}
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("santa's wishlist running", "addr", httpServer.Addr, "site", cfg.SiteURL, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			logger.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	srv.Wait()
	return nil
}
