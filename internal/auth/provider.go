package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/santaswishlist/internal/errs"
	"github.com/dukerupert/santaswishlist/internal/model"
	"github.com/dukerupert/santaswishlist/internal/store"
)

const (
	SessionCookieName = "santa_session"
	codeIssuer        = "santaswishlist"
)

// ErrInvalidCode is returned for sign-in codes that are malformed, expired,
// already used, or signed with another key.
var ErrInvalidCode = errors.New("invalid or expired sign-in code")

// Mailer delivers the sign-in link.
type Mailer interface {
	SendSignInLink(ctx context.Context, to, link string) error
}

type Config struct {
	SigningKey    []byte
	SiteURL       string
	CookieDomain  string
	SecureCookies bool
}

// Provider is the passwordless identity provider: e-mailed links exchanged
// for cookie sessions.
type Provider struct {
	users    *store.UserStore
	sessions *store.SessionStore
	links    *store.MagicLinkStore
	mailer   Mailer
	cfg      Config
	logger   *slog.Logger
}

func NewProvider(us *store.UserStore, ss *store.SessionStore, mls *store.MagicLinkStore, mailer Mailer, cfg Config, logger *slog.Logger) *Provider {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Provider{
		users:    us,
		sessions: ss,
		links:    mls,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
	}
}

// SafeRedirect keeps only local absolute paths so a sign-in link can never
// bounce the user to another site.
func SafeRedirect(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return ""
	}
	return path
}

// SendSignInLink e-mails a single-use sign-in link to email. Unknown
// addresses get a link too; the account is created on first use.
func (p *Provider) SendSignInLink(ctx context.Context, email, redirectTo string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return errs.Invalid("email", "a valid email address is required")
	}

	ml, err := p.links.Create(ctx, addr.Address, SafeRedirect(redirectTo))
	if err != nil {
		return err
	}

	code, err := p.issueCode(ml)
	if err != nil {
		return err
	}
	link := p.cfg.SiteURL + "/auth/callback?code=" + url.QueryEscape(code)

	if p.mailer == nil {
		p.logger.Info("email not configured, sign-in link logged instead", "email", ml.Email, "link", link)
		return nil
	}
	if err := p.mailer.SendSignInLink(ctx, ml.Email, link); err != nil {
		return fmt.Errorf("send sign-in link: %w", err)
	}
	return nil
}

func (p *Provider) issueCode(ml *model.MagicLink) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    codeIssuer,
		Subject:   ml.Email,
		ID:        ml.ID,
		IssuedAt:  jwt.NewNumericDate(ml.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(ml.ExpiresAt),
	}
	code, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign code: %w", err)
	}
	return code, nil
}

// ExchangeCode turns a sign-in code into a session. It returns the session
// and the local path the user asked to land on, if any.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*model.Session, string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(code, &claims, func(t *jwt.Token) (any, error) {
		return p.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codeIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	ml, err := p.links.Consume(ctx, claims.ID)
	if err != nil {
		return nil, "", err
	}
	if ml == nil || ml.Email != claims.Subject {
		return nil, "", ErrInvalidCode
	}

	user, err := p.users.FindOrCreate(ctx, ml.Email)
	if err != nil {
		return nil, "", err
	}

	sess, err := p.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return sess, ml.RedirectTo, nil
}

// CurrentUser resolves the session cookie on r. It returns nil, nil when
// the request carries no live session.
func (p *Provider) CurrentUser(ctx context.Context, r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := p.sessions.GetByToken(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	user, err := p.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	return &Identity{UserID: user.ID, Email: user.Email, SessionID: sess.ID}, nil
}

func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return p.sessions.DeleteByToken(ctx, token)
}

func (p *Provider) SetSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Domain:   p.cfg.CookieDomain,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(store.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *Provider) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   p.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
