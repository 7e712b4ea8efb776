package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/errs"
	"github.com/dukerupert/santaswishlist/internal/letter"
	"github.com/dukerupert/santaswishlist/internal/model"
)

type CreateWishlistInput struct {
	FamilyName string
	Children   []string
	Note       string
}

type WishlistService struct {
	wishlists WishlistRepository
	cleaner   ArtifactCleaner
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewWishlistService builds the service. cleaner and notifier may be nil.
func NewWishlistService(wr WishlistRepository, cleaner ArtifactCleaner, notifier Notifier, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		wishlists: wr,
		cleaner:   cleaner,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (in CreateWishlistInput) normalize() (CreateWishlistInput, error) {
	out := CreateWishlistInput{
		FamilyName: strings.TrimSpace(in.FamilyName),
		Note:       strings.TrimSpace(in.Note),
		Children:   []string{},
	}

	if out.FamilyName == "" {
		return out, errs.Invalid("family_name", "family name is required")
	}
	if utf8.RuneCountInString(out.FamilyName) > MaxFamilyNameLen {
		return out, errs.Invalid("family_name", "family name must be at most %d characters", MaxFamilyNameLen)
	}

	for _, c := range in.Children {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if utf8.RuneCountInString(c) > MaxChildNameLen {
			return out, errs.Invalid("children", "child names must be at most %d characters", MaxChildNameLen)
		}
		out.Children = append(out.Children, c)
	}
	if len(out.Children) > MaxChildren {
		return out, errs.Invalid("children", "at most %d children per wishlist", MaxChildren)
	}

	if letter.WordCount(out.Note) > MaxNoteWords {
		return out, errs.Invalid("note", "note must be %d words or fewer", MaxNoteWords)
	}
	return out, nil
}

// wishlistID builds "wishlist_<first 8 chars of owner id>_<epoch millis>".
func wishlistID(ownerID string, at time.Time) string {
	prefix := ownerID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("wishlist_%s_%d", prefix, at.UnixMilli())
}

func (s *WishlistService) Create(ctx context.Context, owner *auth.Identity, in CreateWishlistInput) (*model.Wishlist, error) {
	if owner == nil {
		return nil, errs.ErrUnauthorized
	}

	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w := &model.Wishlist{
		ID:             wishlistID(owner.UserID, now),
		FamilyName:     in.FamilyName,
		Children:       in.Children,
		Note:           in.Note,
		CreatedAt:      now,
		ResponsesCount: 0,
		UserID:         owner.UserID,
		UserEmail:      owner.Email,
	}
	if err := s.wishlists.Create(ctx, w); err != nil {
		return nil, errs.Store("create wishlist", err)
	}

	if s.notifier != nil {
		s.notifier.WishlistCreated(ctx, w)
	}
	return w, nil
}

// List returns the owner's wishlists, newest first.
func (s *WishlistService) List(ctx context.Context, owner *auth.Identity) ([]model.Wishlist, error) {
	if owner == nil {
		return nil, errs.ErrUnauthorized
	}
	list, err := s.wishlists.ListByUser(ctx, owner.UserID)
	if err != nil {
		return nil, errs.Store("list wishlists", err)
	}
	if list == nil {
		list = []model.Wishlist{}
	}
	return list, nil
}

// Get returns any wishlist by id. Anyone holding the link may read it.
func (s *WishlistService) Get(ctx context.Context, id string) (*model.Wishlist, error) {
	w, err := s.wishlists.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Store("get wishlist", err)
	}
	if w == nil {
		return nil, errs.ErrNotFound
	}
	return w, nil
}

func (s *WishlistService) Delete(ctx context.Context, caller *auth.Identity, id string) error {
	if caller == nil {
		return errs.ErrUnauthorized
	}

	w, err := s.wishlists.GetByID(ctx, id)
	if err != nil {
		return errs.Store("get wishlist", err)
	}
	if w == nil {
		return errs.ErrNotFound
	}
	if w.UserID != caller.UserID {
		return errs.ErrForbidden
	}

	deleted, err := s.wishlists.DeleteOwned(ctx, id, caller.UserID)
	if err != nil {
		return errs.Store("delete wishlist", err)
	}
	if !deleted {
		// removed by a concurrent request
		return errs.ErrNotFound
	}

	if s.cleaner != nil {
		if err := s.cleaner.Remove(ctx, id); err != nil {
			s.logger.Warn("remove legacy artifacts", "wishlist_id", id, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.WishlistDeleted(ctx, caller.UserID, id)
	}
	return nil
}
