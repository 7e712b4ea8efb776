package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/errs"
	"github.com/dukerupert/santaswishlist/internal/letter"
	"github.com/dukerupert/santaswishlist/internal/model"
)

type CreateResponseInput struct {
	ChildName string
	Message   string
}

type ResponseService struct {
	wishlists WishlistRepository
	responses ResponseRepository
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewResponseService(wr WishlistRepository, rr ResponseRepository, notifier Notifier, logger *slog.Logger) *ResponseService {
	return &ResponseService{
		wishlists: wr,
		responses: rr,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (in CreateResponseInput) normalize() (CreateResponseInput, error) {
	out := CreateResponseInput{
		ChildName: strings.TrimSpace(in.ChildName),
		Message:   strings.TrimSpace(in.Message),
	}
	if out.ChildName == "" {
		return out, errs.Invalid("child_name", "child name is required")
	}
	if utf8.RuneCountInString(out.ChildName) > MaxReplyNameLen {
		return out, errs.Invalid("child_name", "child name must be at most %d characters", MaxReplyNameLen)
	}
	if out.Message == "" {
		return out, errs.Invalid("message", "message is required")
	}
	if letter.WordCount(out.Message) > MaxReplyWords {
		return out, errs.Invalid("message", "message must be %d words or fewer", MaxReplyWords)
	}
	return out, nil
}

// Create records a child's reply. No sign-in is needed; the wishlist id is
// the capability.
func (s *ResponseService) Create(ctx context.Context, wishlistID string, in CreateResponseInput) (*model.Response, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	w, err := s.wishlists.GetByID(ctx, wishlistID)
	if err != nil {
		return nil, errs.Store("get wishlist", err)
	}
	if w == nil {
		return nil, errs.ErrNotFound
	}

	r := &model.Response{
		ID:         s.newID(),
		WishlistID: w.ID,
		ChildName:  in.ChildName,
		Message:    in.Message,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.responses.Create(ctx, r); err != nil {
		return nil, errs.Store("create response", err)
	}

	if s.notifier != nil {
		s.notifier.ResponseCreated(ctx, w, r)
	}
	return r, nil
}

// List returns replies to one of the owner's wishlists, newest first. A
// wishlist owned by someone else is reported as not found.
func (s *ResponseService) List(ctx context.Context, owner *auth.Identity, wishlistID string) ([]model.Response, error) {
	if owner == nil {
		return nil, errs.ErrUnauthorized
	}

	w, err := s.wishlists.GetByID(ctx, wishlistID)
	if err != nil {
		return nil, errs.Store("get wishlist", err)
	}
	if w == nil || w.UserID != owner.UserID {
		return nil, errs.ErrNotFound
	}

	list, err := s.responses.ListByWishlist(ctx, wishlistID)
	if err != nil {
		return nil, errs.Store("list responses", err)
	}
	if list == nil {
		list = []model.Response{}
	}
	return list, nil
}
