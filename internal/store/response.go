package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/santaswishlist/internal/database"
	"github.com/dukerupert/santaswishlist/internal/model"
)

type ResponseStore struct {
	db *database.DB
}

func NewResponseStore(db *database.DB) *ResponseStore {
	return &ResponseStore{db: db}
}

func scanResponse(scanner interface{ Scan(...any) error }) (*model.Response, error) {
	var r model.Response
	err := scanner.Scan(&r.ID, &r.WishlistID, &r.ChildName, &r.Message, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const responseCols = `id, wishlist_id, child_name, message, created_at`

func (s *ResponseStore) Create(ctx context.Context, r *model.Response) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (id, wishlist_id, child_name, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.WishlistID, r.ChildName, r.Message, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ListByWishlist returns replies to a wishlist, newest first.
func (s *ResponseStore) ListByWishlist(ctx context.Context, wishlistID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+responseCols+` FROM responses WHERE wishlist_id = ? ORDER BY created_at DESC, id DESC`,
		wishlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}
