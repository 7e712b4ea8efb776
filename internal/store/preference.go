package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
)

// PreferenceStore keeps small per-user flags such as whether the
// dashboard tutorial has been dismissed.
type PreferenceStore struct {
	db *database.DB
}

func NewPreferenceStore(db *database.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

func (s *PreferenceStore) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences WHERE user_id = ? ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

func (s *PreferenceStore) Set(ctx context.Context, userID, key, value string) (*model.Preference, error) {
	p := &model.Preference{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("set preference %q: %w", key, err)
	}
	return p, nil
}
