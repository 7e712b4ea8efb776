package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
)

// MagicLinkTTL bounds how long an e-mailed sign-in link stays usable.
const MagicLinkTTL = 15 * time.Minute

type MagicLinkStore struct {
	db *database.DB
}

func NewMagicLinkStore(db *database.DB) *MagicLinkStore {
	return &MagicLinkStore{db: db}
}

func scanMagicLink(scanner interface{ Scan(...any) error }) (*model.MagicLink, error) {
	var ml model.MagicLink
	var usedAt sql.NullTime

	err := scanner.Scan(&ml.ID, &ml.Email, &ml.RedirectTo, &ml.ExpiresAt, &usedAt, &ml.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		ml.UsedAt = &usedAt.Time
	}
	return &ml, nil
}

const magicLinkCols = `id, email, redirect_to, expires_at, used_at, created_at`

// Create records a pending sign-in for email. Earlier pending links for
// the same address are invalidated first.
func (s *MagicLinkStore) Create(ctx context.Context, email, redirectTo string) (*model.MagicLink, error) {
	now := time.Now().UTC()
	email = normalizeEmail(email)

	_, err := s.db.ExecContext(ctx,
		`UPDATE magic_links SET used_at = ? WHERE email = ? AND used_at IS NULL`,
		now, email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous links: %w", err)
	}

	ml := &model.MagicLink{
		ID:         uuid.NewString(),
		Email:      email,
		RedirectTo: redirectTo,
		ExpiresAt:  now.Add(MagicLinkTTL),
		CreatedAt:  now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO magic_links (id, email, redirect_to, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		ml.ID, ml.Email, ml.RedirectTo, ml.ExpiresAt, ml.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert magic link: %w", err)
	}
	return ml, nil
}

// Consume marks the link used and returns it. It returns nil if the link
// does not exist, has expired, or was already used.
func (s *MagicLinkStore) Consume(ctx context.Context, id string) (*model.MagicLink, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE magic_links SET used_at = ? WHERE id = ? AND used_at IS NULL AND expires_at > ?`,
		now, id, now,
	)
	if err != nil {
		return nil, fmt.Errorf("consume magic link: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+magicLinkCols+` FROM magic_links WHERE id = ?`, id)
	ml, err := scanMagicLink(row)
	if err != nil {
		return nil, fmt.Errorf("get magic link: %w", err)
	}
	return ml, nil
}

func (s *MagicLinkStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM magic_links WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired magic links: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
