package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gostorefront/storefront/internal/customer"
)

// CustomerHandler handles HTTP requests for customers and their addresses
// and cards.
type CustomerHandler struct {
	svc customer.Service
}

func NewCustomerHandler(svc customer.Service) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c := &customer.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	created, err := h.svc.Register(r.Context(), c, req.Password)
	if err != nil {
		if errors.Is(err, customer.ErrEmailExists) {
			http.Error(w, "customer with this email already exists", http.StatusConflict)
			return
		}
		log.Info().Msgf("Failed to register customer: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to get customer by id: %v", err)
		http.Error(w, "failed to get customer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to delete customer: %v", err)
		http.Error(w, "failed to delete customer", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var a customer.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a.CustomerID = id

	created, err := h.svc.AddAddress(r.Context(), &a)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to add address: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	addresses, err := h.svc.ListAddresses(r.Context(), id)
	if err != nil {
		log.Info().Msgf("Failed to list addresses: %v", err)
		http.Error(w, "failed to list addresses", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, addresses)
}

func (h *CustomerHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var c customer.Card
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c.CustomerID = id

	created, err := h.svc.AddCard(r.Context(), &c)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Info().Msgf("Failed to add card: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	cards, err := h.svc.ListCards(r.Context(), id)
	if err != nil {
		log.Info().Msgf("Failed to list cards: %v", err)
		http.Error(w, "failed to list cards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}
