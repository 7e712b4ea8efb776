package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// Client sends transactional mail through the Postmark HTTP API.
type Client struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

// SendSignInLink mails the one-time sign-in link.
func (c *Client) SendSignInLink(ctx context.Context, toEmail, link string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	textBody := fmt.Sprintf("Click the link below to sign in to Santa's Wishlist:\n\n%s\n\nThis link expires in 15 minutes. If you didn't ask for it, you can ignore this email.", link)
	htmlBody := fmt.Sprintf(
		`<p>Click the link below to sign in to Santa's Wishlist:</p><p><a href="%s">Sign in</a></p><p>This link expires in 15 minutes. If you didn't ask for it, you can ignore this email.</p>`,
		html.EscapeString(link),
	)

	return c.send(ctx, postmarkEmail{
		From:          c.fromEmail,
		To:            toEmail,
		Subject:       "Your Santa's Wishlist sign-in link",
		HtmlBody:      htmlBody,
		TextBody:      textBody,
		MessageStream: "outbound",
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
