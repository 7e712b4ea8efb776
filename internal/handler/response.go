package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/service"
)

type ResponseHandler struct {
	responses *service.ResponseService
	logger    *slog.Logger
}

func NewResponseHandler(rs *service.ResponseService, logger *slog.Logger) *ResponseHandler {
	return &ResponseHandler{responses: rs, logger: logger}
}

type createResponseRequest struct {
	ChildName string `json:"child_name"`
	Message   string `json:"message"`
}

// Create handles POST /api/wishlists/{id}/responses. No session needed.
func (h *ResponseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := h.responses.Create(r.Context(), r.PathValue("id"), service.CreateResponseInput{
		ChildName: req.ChildName,
		Message:   req.Message,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create response", err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

type legacyResponseRequest struct {
	WishlistID string `json:"wishlistId"`
	ChildName  string `json:"childName"`
	Message    string `json:"message"`
}

// CreateLegacy handles POST /api/wishlists/responses, the older form that
// carries the wishlist id in the body.
func (h *ResponseHandler) CreateLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.WishlistID == "" {
		writeError(w, http.StatusBadRequest, "Wishlist ID is required")
		return
	}

	resp, err := h.responses.Create(r.Context(), req.WishlistID, service.CreateResponseInput{
		ChildName: req.ChildName,
		Message:   req.Message,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create response", err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// List handles GET /api/wishlists/{id}/responses
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.responses.List(r.Context(), auth.Caller(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "list responses", err)
		return
	}
	writeData(w, http.StatusOK, list)
}
