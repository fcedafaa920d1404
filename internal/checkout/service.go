// Package checkout converts a customer's mutable cart into an immutable
// order. The whole conversion runs inside one database transaction: the
// order and its lines either all become visible together with the cart
// drained of exactly the lines that were billed, or nothing happens at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gostorefront/storefront/internal/cart"
	"github.com/gostorefront/storefront/internal/order"
)

var (
	ErrInvalidArgument  = errors.New("missing required identifier")
	ErrEmptyCart        = errors.New("cart is empty, nothing to convert")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrCardNotFound     = errors.New("card not found")
	// ErrPersistence wraps storage failures. The transaction is rolled back
	// before it surfaces, so retrying is always safe.
	ErrPersistence = errors.New("persistence failure")
)

// CartStore reads and drains the customer's cart. LockLines must hold row
// locks on the returned lines until the surrounding transaction resolves,
// and RemoveLines must delete exactly the given lines, leaving lines added
// after the snapshot untouched.
type CartStore interface {
	LockLines(ctx context.Context, customerID uuid.UUID) ([]cart.Line, error)
	RemoveLines(ctx context.Context, customerID uuid.UUID, lines []cart.Line) error
}

// OrderStore persists the assembled order header and lines as one unit.
type OrderStore interface {
	Create(ctx context.Context, o *order.Order) error
}

// CustomerDirectory answers existence checks for the identifiers the order
// will reference.
type CustomerDirectory interface {
	Exists(ctx context.Context, customerID uuid.UUID) (bool, error)
	AddressExists(ctx context.Context, customerID, addressID uuid.UUID) (bool, error)
	CardExists(ctx context.Context, customerID, cardID uuid.UUID) (bool, error)
}

// TxManager scopes fn to a single database transaction carried in the
// context. fn returning an error rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	tx        TxManager
	carts     CartStore
	orders    OrderStore
	customers CustomerDirectory
	now       func() time.Time
}

func NewService(tx TxManager, carts CartStore, orders OrderStore, customers CustomerDirectory) *Service {
	return &Service{
		tx:        tx,
		carts:     carts,
		orders:    orders,
		customers: customers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Convert turns the customer's current cart lines into a new order.
//
// The lines observed at the start are the exact set billed: their unit
// prices (captured at add-to-cart time) and quantities produce the total,
// they are copied verbatim onto the order, and only they are removed from
// the cart. Callers see either the complete order or an error with no
// side effects.
func (s *Service) Convert(ctx context.Context, customerID, addressID, cardID uuid.UUID) (*order.Order, error) {
	if err := validateIdentifiers(customerID, addressID, cardID); err != nil {
		conversionsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	var o *order.Order

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.customers.Exists(ctx, customerID)
		if err != nil {
			return fmt.Errorf("%w: checking customer: %v", ErrPersistence, err)
		}
		if !exists {
			return ErrCustomerNotFound
		}

		exists, err = s.customers.AddressExists(ctx, customerID, addressID)
		if err != nil {
			return fmt.Errorf("%w: checking address: %v", ErrPersistence, err)
		}
		if !exists {
			return ErrAddressNotFound
		}

		exists, err = s.customers.CardExists(ctx, customerID, cardID)
		if err != nil {
			return fmt.Errorf("%w: checking card: %v", ErrPersistence, err)
		}
		if !exists {
			return ErrCardNotFound
		}

		lines, err := s.carts.LockLines(ctx, customerID)
		if err != nil {
			return fmt.Errorf("%w: loading cart lines: %v", ErrPersistence, err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		orderLines := make([]order.Line, 0, len(lines))
		for _, l := range lines {
			total = total.Add(l.Subtotal())
			orderLines = append(orderLines, order.Line{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			})
		}

		o = &order.Order{
			CustomerID: customerID,
			AddressID:  addressID,
			CardID:     cardID,
			Total:      total,
			Status:     order.StatusCreated,
			OrderDate:  s.now(),
			Lines:      orderLines,
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("%w: inserting order: %v", ErrPersistence, err)
		}

		if err := s.carts.RemoveLines(ctx, customerID, lines); err != nil {
			return fmt.Errorf("%w: clearing cart: %v", ErrPersistence, err)
		}

		return nil
	})
	if err != nil {
		// Begin/commit failures come back untyped from the tx manager.
		if !isConversionError(err) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		conversionsTotal.WithLabelValues(outcome(err)).Inc()
		log.Warn().Err(err).Stringer("customer_id", customerID).Msg("checkout: conversion failed")
		return nil, err
	}

	conversionsTotal.WithLabelValues("success").Inc()
	log.Info().
		Stringer("order_id", o.ID).
		Stringer("customer_id", customerID).
		Str("total", o.Total.String()).
		Int("lines", len(o.Lines)).
		Msg("checkout: cart converted to order")

	return o, nil
}

func validateIdentifiers(customerID, addressID, cardID uuid.UUID) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("%w: customer id", ErrInvalidArgument)
	}
	if addressID == uuid.Nil {
		return fmt.Errorf("%w: address id", ErrInvalidArgument)
	}
	if cardID == uuid.Nil {
		return fmt.Errorf("%w: card id", ErrInvalidArgument)
	}
	return nil
}

func isConversionError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrCustomerNotFound, ErrAddressNotFound, ErrCardNotFound, ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrAddressNotFound),
		errors.Is(err, ErrCardNotFound):
		return "not_found"
	default:
		return "failure"
	}
}
