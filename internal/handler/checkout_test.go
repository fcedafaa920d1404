package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gostorefront/storefront/internal/checkout"
	"github.com/gostorefront/storefront/internal/order"
)

type mockConverter struct {
	convertFunc func(ctx context.Context, customerID, addressID, cardID uuid.UUID) (*order.Order, error)
}

func (m *mockConverter) Convert(ctx context.Context, customerID, addressID, cardID uuid.UUID) (*order.Order, error) {
	return m.convertFunc(ctx, customerID, addressID, cardID)
}

func TestCheckoutHandler_Convert(t *testing.T) {
	customerID := "550e8400-e29b-41d4-a716-446655440000"
	addressID := "550e8400-e29b-41d4-a716-446655440001"
	cardID := "550e8400-e29b-41d4-a716-446655440002"
	body := fmt.Sprintf(`{"address_id": %q, "card_id": %q}`, addressID, cardID)

	tests := []struct {
		name           string
		customerID     string
		body           string
		convert        func(ctx context.Context, customerID, addressID, cardID uuid.UUID) (*order.Order, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "success",
			customerID: customerID,
			body:       body,
			convert: func(ctx context.Context, cid, aid, cdid uuid.UUID) (*order.Order, error) {
				return &order.Order{
					ID:         uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440099"),
					CustomerID: cid,
					AddressID:  aid,
					CardID:     cdid,
					Total:      decimal.RequireFromString("25.00"),
					Status:     order.StatusCreated,
					OrderDate:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
					Lines:      []order.Line{},
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:       "empty_cart",
			customerID: customerID,
			body:       body,
			convert: func(ctx context.Context, cid, aid, cdid uuid.UUID) (*order.Order, error) {
				return nil, checkout.ErrEmptyCart
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "cart is empty\n",
		},
		{
			name:       "missing_address_id",
			customerID: customerID,
			body:       fmt.Sprintf(`{"card_id": %q}`, cardID),
			convert: func(ctx context.Context, cid, aid, cdid uuid.UUID) (*order.Order, error) {
				return nil, fmt.Errorf("%w: address id", checkout.ErrInvalidArgument)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "customer_not_found",
			customerID: customerID,
			body:       body,
			convert: func(ctx context.Context, cid, aid, cdid uuid.UUID) (*order.Order, error) {
				return nil, checkout.ErrCustomerNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "customer not found\n",
		},
		{
			name:       "persistence_failure",
			customerID: customerID,
			body:       body,
			convert: func(ctx context.Context, cid, aid, cdid uuid.UUID) (*order.Order, error) {
				return nil, fmt.Errorf("%w: inserting order: connection reset", checkout.ErrPersistence)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "failed to convert cart to order\n",
		},
		{
			name:           "invalid_json",
			customerID:     customerID,
			body:           `{not json}`,
			convert:        nil,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body\n",
		},
		{
			name:           "bad_customer_id",
			customerID:     "not-a-uuid",
			body:           body,
			convert:        nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCheckoutHandler(&mockConverter{convertFunc: tt.convert})

			r := chi.NewRouter()
			r.Post("/customers/{id}/checkout", h.Convert)

			req := httptest.NewRequest(http.MethodPost,
				"/customers/"+tt.customerID+"/checkout", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, rec.Body.String())
			}
			if tt.expectedStatus == http.StatusCreated {
				assert.Contains(t, rec.Body.String(), `"total":"25"`)
				assert.Contains(t, rec.Body.String(), `"status":"CREATED"`)
			}
		})
	}
}
