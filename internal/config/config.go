// Package config reads the server's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dukerupert/santaswishlist/internal/objectstore"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSigningKey = "santaswishlist-development-signing-key"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	SiteURL     string
	LogLevel    string
	LogFormat   string
	MetricsAddr string

	AuthKey       []byte
	CookieDomain  string
	SecureCookies bool

	VideoPath   string
	VideoBucket string
	VideoKey    string
	S3          objectstore.Config

	PostmarkToken string
	FromEmail     string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubject     string

	ArtifactDir    string
	StaticDir      string
	AllowedOrigins []string
	TrustedProxies []string

	BackupBucket     string
	BackupPassphrase string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env:         strings.ToLower(getEnvOrDefault("WISHLIST_ENV", EnvDevelopment)),
		Port:        getEnvOrDefault("WISHLIST_PORT", "8080"),
		DatabaseURL: getEnvOrDefault("WISHLIST_DATABASE_URL", "santaswishlist.db"),
		LogLevel:    getEnvOrDefault("WISHLIST_LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("WISHLIST_LOG_FORMAT", "text"),
		MetricsAddr: os.Getenv("WISHLIST_METRICS_ADDR"),

		VideoPath:   getEnvOrDefault("WISHLIST_VIDEO_PATH", "web/static/videos/tutorial.mp4"),
		VideoBucket: os.Getenv("WISHLIST_VIDEO_S3_BUCKET"),
		VideoKey:    getEnvOrDefault("WISHLIST_VIDEO_S3_KEY", "videos/tutorial.mp4"),
		S3: objectstore.Config{
			Endpoint:  os.Getenv("WISHLIST_S3_ENDPOINT"),
			Region:    os.Getenv("WISHLIST_S3_REGION"),
			AccessKey: os.Getenv("WISHLIST_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("WISHLIST_S3_SECRET_KEY"),
		},

		PostmarkToken: os.Getenv("WISHLIST_POSTMARK_TOKEN"),
		FromEmail:     getEnvOrDefault("WISHLIST_FROM_EMAIL", "santa@santaswishlist.app"),

		VAPIDPublicKey:  os.Getenv("WISHLIST_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("WISHLIST_VAPID_PRIVATE_KEY"),
		PushSubject:     os.Getenv("WISHLIST_PUSH_SUBJECT"),

		ArtifactDir:    os.Getenv("WISHLIST_ARTIFACT_DIR"),
		StaticDir:      os.Getenv("WISHLIST_STATIC_DIR"),
		AllowedOrigins: splitList(os.Getenv("WISHLIST_ALLOWED_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("WISHLIST_TRUSTED_PROXIES")),

		BackupBucket:     os.Getenv("WISHLIST_BACKUP_S3_BUCKET"),
		BackupPassphrase: os.Getenv("WISHLIST_BACKUP_PASSPHRASE"),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("WISHLIST_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}

	cfg.SiteURL = strings.TrimSuffix(getEnvOrDefault("WISHLIST_SITE_URL", "http://localhost:"+cfg.Port), "/")
	site, err := url.Parse(cfg.SiteURL)
	if err != nil || site.Host == "" {
		return nil, fmt.Errorf("WISHLIST_SITE_URL %q is not an absolute URL", cfg.SiteURL)
	}

	if key := os.Getenv("WISHLIST_AUTH_KEY"); key != "" {
		cfg.AuthKey = []byte(key)
	} else if cfg.IsProduction() {
		return nil, fmt.Errorf("WISHLIST_AUTH_KEY environment variable is required in production")
	} else {
		cfg.AuthKey = []byte(devSigningKey)
	}

	if cfg.IsProduction() {
		cfg.CookieDomain = cookieDomain(site.Hostname())
	}
	cfg.SecureCookies = cfg.IsProduction() || site.Scheme == "https"

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// cookieDomain scopes cookies to the site and its subdomains. Hosts that
// cannot carry a domain cookie get a host-only cookie.
func cookieDomain(host string) string {
	if host == "" || host == "localhost" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return ""
	}
	return "." + strings.TrimPrefix(host, "www.")
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
