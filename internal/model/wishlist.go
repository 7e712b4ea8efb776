package model

import "time"

type Wishlist struct {
	ID             string    `json:"id"`
	FamilyName     string    `json:"family_name"`
	Children       []string  `json:"children"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"created_at"`
	ResponsesCount int       `json:"responses_count"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
}

// PublicWishlist is the view of a wishlist served to anonymous visitors.
// It leaves out the owner's identity.
type PublicWishlist struct {
	ID             string    `json:"id"`
	FamilyName     string    `json:"family_name"`
	Children       []string  `json:"children"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"created_at"`
	ResponsesCount int       `json:"responses_count"`
}

func (w *Wishlist) Public() PublicWishlist {
	return PublicWishlist{
		ID:             w.ID,
		FamilyName:     w.FamilyName,
		Children:       w.Children,
		Note:           w.Note,
		CreatedAt:      w.CreatedAt,
		ResponsesCount: w.ResponsesCount,
	}
}

type Response struct {
	ID         string    `json:"id"`
	WishlistID string    `json:"wishlist_id"`
	ChildName  string    `json:"child_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
