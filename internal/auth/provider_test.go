package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/errs"
	"github.com/dukerupert/santaswishlist/internal/store"
)

type captureMailer struct {
	to   string
	link string
	err  error
}

func (m *captureMailer) SendSignInLink(_ context.Context, to, link string) error {
	m.to = to
	m.link = link
	return m.err
}

func setupProvider(t *testing.T) (*Provider, *captureMailer) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mailer := &captureMailer{}
	p := NewProvider(
		store.NewUserStore(db),
		store.NewSessionStore(db),
		store.NewMagicLinkStore(db),
		mailer,
		Config{SigningKey: []byte("test-signing-key"), SiteURL: "https://santa.test/"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return p, mailer
}

func codeFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Path != "/auth/callback" {
		t.Errorf("link path = %q, want /auth/callback", u.Path)
	}
	code := u.Query().Get("code")
	if code == "" {
		t.Fatal("link has no code")
	}
	return code
}

func TestSignInRoundTrip(t *testing.T) {
	p, mailer := setupProvider(t)
	ctx := context.Background()

	if err := p.SendSignInLink(ctx, "Alice@Example.com", "/dashboard"); err != nil {
		t.Fatalf("send sign-in link: %v", err)
	}
	if mailer.to != "alice@example.com" {
		t.Errorf("to = %q, want %q", mailer.to, "alice@example.com")
	}

	sess, redirectTo, err := p.ExchangeCode(ctx, codeFromLink(t, mailer.link))
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected session token")
	}
	if redirectTo != "/dashboard" {
		t.Errorf("redirectTo = %q, want %q", redirectTo, "/dashboard")
	}

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	id, err := p.CurrentUser(ctx, req)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if id == nil {
		t.Fatal("expected identity")
	}
	if id.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", id.Email, "alice@example.com")
	}
	if id.SessionID != sess.ID {
		t.Errorf("session id = %q, want %q", id.SessionID, sess.ID)
	}

	if err := p.SignOut(ctx, sess.Token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	id, err = p.CurrentUser(ctx, req)
	if err != nil {
		t.Fatalf("current user after sign out: %v", err)
	}
	if id != nil {
		t.Error("expected no identity after sign out")
	}
}

func TestExchangeCodeSingleUse(t *testing.T) {
	p, mailer := setupProvider(t)
	ctx := context.Background()

	p.SendSignInLink(ctx, "alice@example.com", "")
	code := codeFromLink(t, mailer.link)

	if _, _, err := p.ExchangeCode(ctx, code); err != nil {
		t.Fatalf("first exchange: %v", err)
	}
	_, _, err := p.ExchangeCode(ctx, code)
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("second exchange err = %v, want ErrInvalidCode", err)
	}
}

func TestExchangeCodeRejectsForeignKey(t *testing.T) {
	p, mailer := setupProvider(t)
	other, _ := setupProvider(t)
	ctx := context.Background()

	p.SendSignInLink(ctx, "alice@example.com", "")
	code := codeFromLink(t, mailer.link)

	_, _, err := other.ExchangeCode(ctx, code)
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}

	_, _, err = p.ExchangeCode(ctx, "not-a-jwt")
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("garbage code err = %v, want ErrInvalidCode", err)
	}
}

func TestSendSignInLinkInvalidEmail(t *testing.T) {
	p, mailer := setupProvider(t)

	err := p.SendSignInLink(context.Background(), "not an email", "")
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if mailer.link != "" {
		t.Error("no mail should be sent for an invalid address")
	}
}

func TestSendSignInLinkDropsOffsiteRedirect(t *testing.T) {
	p, mailer := setupProvider(t)
	ctx := context.Background()

	p.SendSignInLink(ctx, "alice@example.com", "//evil.example.com")
	_, redirectTo, err := p.ExchangeCode(ctx, codeFromLink(t, mailer.link))
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if redirectTo != "" {
		t.Errorf("redirectTo = %q, want empty", redirectTo)
	}
}

func TestCurrentUserNoCookie(t *testing.T) {
	p, _ := setupProvider(t)

	id, err := p.CurrentUser(context.Background(), httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if id != nil {
		t.Error("expected nil identity without cookie")
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/dashboard", "/dashboard"},
		{"/wishlist/abc?x=1", "/wishlist/abc?x=1"},
		{"", ""},
		{"https://evil.example.com", ""},
		{"//evil.example.com", ""},
		{"/\\evil.example.com", ""},
	}
	for _, tt := range tests {
		if got := SafeRedirect(tt.in); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
