package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
)

type WishlistStore struct {
	db *database.DB
}

func NewWishlistStore(db *database.DB) *WishlistStore {
	return &WishlistStore{db: db}
}

func scanWishlist(scanner interface{ Scan(...any) error }) (*model.Wishlist, error) {
	var w model.Wishlist
	var children string

	err := scanner.Scan(
		&w.ID, &w.FamilyName, &children, &w.Note,
		&w.ResponsesCount, &w.UserID, &w.UserEmail, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(children), &w.Children); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	if w.Children == nil {
		w.Children = []string{}
	}
	return &w, nil
}

// responses_count is always derived from the responses table; the stored
// column only records the value at creation.
const wishlistCols = `w.id, w.family_name, w.children, w.note,
	(SELECT COUNT(*) FROM responses r WHERE r.wishlist_id = w.id),
	w.user_id, w.user_email, w.created_at`

func (s *WishlistStore) Create(ctx context.Context, w *model.Wishlist) error {
	children := w.Children
	if children == nil {
		children = []string{}
	}
	encoded, err := json.Marshal(children)
	if err != nil {
		return fmt.Errorf("encode children: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wishlists (id, family_name, children, note, responses_count, user_id, user_email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.FamilyName, string(encoded), w.Note, w.ResponsesCount, w.UserID, w.UserEmail, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wishlist: %w", err)
	}
	return nil
}

func (s *WishlistStore) GetByID(ctx context.Context, id string) (*model.Wishlist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+wishlistCols+` FROM wishlists w WHERE w.id = ?`, id)
	w, err := scanWishlist(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return w, nil
}

// ListByUser returns the user's wishlists, newest first.
func (s *WishlistStore) ListByUser(ctx context.Context, userID string) ([]model.Wishlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wishlistCols+` FROM wishlists w
		 WHERE w.user_id = ?
		 ORDER BY w.created_at DESC, w.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	defer rows.Close()

	wishlists := []model.Wishlist{}
	for rows.Next() {
		w, err := scanWishlist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		wishlists = append(wishlists, *w)
	}
	return wishlists, rows.Err()
}

// DeleteOwned removes the wishlist only if it belongs to userID. Responses
// go with it through the foreign key cascade. It reports whether a row was
// removed.
func (s *WishlistStore) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM wishlists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete wishlist: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
