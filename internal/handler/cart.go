package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gostorefront/storefront/internal/cart"
	"github.com/gostorefront/storefront/internal/product"
)

type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.svc.Get(r.Context(), customerID)
	if err != nil {
		log.Info().Msgf("Failed to get cart: %v", err)
		http.Error(w, "failed to get cart", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == uuid.Nil {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	c, err := h.svc.AddItem(r.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to add cart item: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := urlID(w, r, "productID")
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		http.Error(w, "quantity must be non-negative", http.StatusBadRequest)
		return
	}

	c, err := h.svc.UpdateQuantity(r.Context(), customerID, productID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			http.Error(w, "cart line not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to update cart item: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := urlID(w, r, "productID")
	if !ok {
		return
	}

	c, err := h.svc.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			http.Error(w, "cart line not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to remove cart item: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, c)
}
