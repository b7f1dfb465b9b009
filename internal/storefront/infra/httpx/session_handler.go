package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

// CreateSession starts an empty shopper session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := entity.NewSession(uuid.NewString())
	if err := h.deps.Sessions.Save(r.Context(), s); err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, mapSession(s))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapSession(s))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if strings.TrimSpace(req.ID) == "" || req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "id and a non-negative price are required")
		return
	}

	h.mutate(w, r, http.StatusCreated, func(s *entity.Session) bool {
		s.AddItem(entity.CartLineItem{
			ID:       req.ID,
			Name:     req.Name,
			Price:    req.Price,
			Quantity: req.Quantity,
			Size:     req.Size,
		})
		return true
	})
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	itemID, size := chi.URLParam(r, "itemID"), r.URL.Query().Get("size")

	h.mutate(w, r, http.StatusOK, func(s *entity.Session) bool {
		return s.UpdateQuantity(itemID, size, req.Quantity)
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, size := chi.URLParam(r, "itemID"), r.URL.Query().Get("size")

	h.mutate(w, r, http.StatusOK, func(s *entity.Session) bool {
		return s.RemoveItem(itemID, size)
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *entity.Session) bool {
		s.ClearCart()
		return true
	})
}

func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req WishlistItemRequest
	if err := decode(w, r, h.deps.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	h.mutate(w, r, http.StatusCreated, func(s *entity.Session) bool {
		s.AddToWishlist(entity.WishlistItem{
			ID:       req.ID,
			Name:     req.Name,
			Price:    req.Price,
			Image:    req.Image,
			Category: req.Category,
		})
		return true
	})
}

func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	h.mutate(w, r, http.StatusOK, func(s *entity.Session) bool {
		return s.RemoveFromWishlist(itemID)
	})
}

func (h *Handler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *entity.Session) bool {
		s.ClearWishlist()
		return true
	})
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*entity.Session, bool) {
	id := chi.URLParam(r, "id")
	s, err := h.deps.Sessions.Load(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return nil, false
	}
	return s, true
}

// mutate loads the session, applies fn and saves. fn returning false means
// the target item does not exist.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*entity.Session) bool) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !fn(s) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err := h.deps.Sessions.Save(r.Context(), s); err != nil {
		slog.ErrorContext(r.Context(), "failed to save session", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, status, mapSession(s))
}
