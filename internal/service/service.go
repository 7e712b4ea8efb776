// Package service holds the wishlist and reply rules that sit between the
// HTTP handlers and the stores.
package service

import (
	"context"

	"github.com/dukerupert/santaswishlist/internal/model"
)

// Input limits.
const (
	MaxFamilyNameLen = 100
	MaxChildren      = 20
	MaxChildNameLen  = 50
	MaxNoteWords     = 60
	MaxReplyNameLen  = 100
	MaxReplyWords    = 400
)

type WishlistRepository interface {
	Create(ctx context.Context, w *model.Wishlist) error
	GetByID(ctx context.Context, id string) (*model.Wishlist, error)
	ListByUser(ctx context.Context, userID string) ([]model.Wishlist, error)
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, r *model.Response) error
	ListByWishlist(ctx context.Context, wishlistID string) ([]model.Response, error)
}

// ArtifactCleaner removes files left behind for a wishlist by the older
// file-based deployment.
type ArtifactCleaner interface {
	Remove(ctx context.Context, wishlistID string) error
}

// Notifier tells a wishlist owner about changes. Implementations handle
// their own failures; nothing is reported back.
type Notifier interface {
	WishlistCreated(ctx context.Context, w *model.Wishlist)
	WishlistDeleted(ctx context.Context, ownerID, wishlistID string)
	ResponseCreated(ctx context.Context, w *model.Wishlist, r *model.Response)
}
