package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gostorefront/storefront/internal/checkout"
	"github.com/gostorefront/storefront/internal/order"
)

// Converter is the checkout service surface the handler needs.
type Converter interface {
	Convert(ctx context.Context, customerID, addressID, cardID uuid.UUID) (*order.Order, error)
}

type CheckoutHandler struct {
	svc Converter
}

func NewCheckoutHandler(svc Converter) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutRequest struct {
	AddressID uuid.UUID `json:"address_id"`
	CardID    uuid.UUID `json:"card_id"`
}

// Convert handles POST /customers/{id}/checkout. It returns either the
// complete order or a typed error; there is no intermediate state.
func (h *CheckoutHandler) Convert(w http.ResponseWriter, r *http.Request) {
	customerID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.Convert(r.Context(), customerID, req.AddressID, req.CardID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrEmptyCart):
			http.Error(w, "cart is empty", http.StatusConflict)
		case errors.Is(err, checkout.ErrCustomerNotFound):
			http.Error(w, "customer not found", http.StatusNotFound)
		case errors.Is(err, checkout.ErrAddressNotFound):
			http.Error(w, "address not found", http.StatusNotFound)
		case errors.Is(err, checkout.ErrCardNotFound):
			http.Error(w, "card not found", http.StatusNotFound)
		default:
			log.Info().Msgf("Failed to convert cart: %v", err)
			http.Error(w, "failed to convert cart to order", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, o)
}
