package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/service"
)

type WishlistHandler struct {
	wishlists *service.WishlistService
	logger    *slog.Logger
}

func NewWishlistHandler(ws *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{wishlists: ws, logger: logger}
}

type createWishlistRequest struct {
	FamilyName string   `json:"family_name"`
	ChildName  string   `json:"childName"` // older clients sent the family name under this key
	Children   []string `json:"children"`
	Note       string   `json:"note"`
}

// Create handles POST /api/wishlists
func (h *WishlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWishlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FamilyName == "" {
		req.FamilyName = req.ChildName
	}

	wl, err := h.wishlists.Create(r.Context(), auth.Caller(r.Context()), service.CreateWishlistInput{
		FamilyName: req.FamilyName,
		Children:   req.Children,
		Note:       req.Note,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create wishlist", err)
		return
	}
	writeData(w, http.StatusOK, wl)
}

// List handles GET /api/wishlists
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.wishlists.List(r.Context(), auth.Caller(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, "list wishlists", err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// Get handles GET /api/wishlists/{id}. Anyone holding the id may read the
// letter, so the owner's details are left out.
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	wl, err := h.wishlists.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "get wishlist", err)
		return
	}
	writeData(w, http.StatusOK, wl.Public())
}

// Delete handles DELETE /api/wishlists/{id}
func (h *WishlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlists.Delete(r.Context(), auth.Caller(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, "delete wishlist", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
