package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/dukerupert/santaswishlist/internal/model"
)

var errBoom = errors.New("boom")

type fakeWishlists struct {
	mu        sync.Mutex
	items     map[string]model.Wishlist
	responses *fakeResponses
	err       error
	created   int
}

func newFakeWishlists() *fakeWishlists {
	return &fakeWishlists{items: map[string]model.Wishlist{}}
}

func (f *fakeWishlists) Create(_ context.Context, w *model.Wishlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[w.ID]; ok {
		return errors.New("duplicate id")
	}
	f.items[w.ID] = *w
	f.created++
	return nil
}

func (f *fakeWishlists) GetByID(_ context.Context, id string) (*model.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	if f.responses != nil {
		w.ResponsesCount = f.responses.count(id)
	}
	return &w, nil
}

func (f *fakeWishlists) ListByUser(_ context.Context, userID string) ([]model.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Wishlist
	for _, w := range f.items {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeWishlists) DeleteOwned(_ context.Context, id, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	w, ok := f.items[id]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(f.items, id)
	if f.responses != nil {
		f.responses.deleteFor(id)
	}
	return true, nil
}

type fakeResponses struct {
	mu    sync.Mutex
	items []model.Response
	err   error
}

func (f *fakeResponses) Create(_ context.Context, r *model.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeResponses) ListByWishlist(_ context.Context, wishlistID string) ([]model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Response
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].WishlistID == wishlistID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *fakeResponses) count(wishlistID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.items {
		if r.WishlistID == wishlistID {
			n++
		}
	}
	return n
}

func (f *fakeResponses) deleteFor(wishlistID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, r := range f.items {
		if r.WishlistID != wishlistID {
			kept = append(kept, r)
		}
	}
	f.items = kept
}

type fakeCleaner struct {
	removed []string
	err     error
}

func (f *fakeCleaner) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return f.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	events  []string
	replies []model.Response
}

func (n *recordingNotifier) WishlistCreated(_ context.Context, w *model.Wishlist) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "wishlist_created:"+w.ID)
}

func (n *recordingNotifier) WishlistDeleted(_ context.Context, ownerID, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "wishlist_deleted:"+id)
}

func (n *recordingNotifier) ResponseCreated(_ context.Context, w *model.Wishlist, r *model.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "response_created:"+w.ID)
	n.replies = append(n.replies, *r)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
