package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gostorefront/storefront/internal/product"
)

// PriceSource yields the current catalog price for a product. The price is
// captured into the cart line at add time and never re-read afterwards.
type PriceSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type Service interface {
	AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*Cart, error)
	Get(ctx context.Context, customerID uuid.UUID) (*Cart, error)
}

type service struct {
	repo     Repository
	products PriceSource
}

func NewService(repo Repository, products PriceSource) Service {
	return &service{repo: repo, products: products}
}

func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("service: quantity must be positive, got %d", quantity)
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to fetch product for cart add")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	c, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to get or create cart")
		return nil, fmt.Errorf("service: failed to get or create cart: %w", err)
	}

	if err := s.repo.UpsertLine(ctx, c.ID, productID, quantity, p.Price); err != nil {
		log.Error().Err(err).Stringer("cart_id", c.ID).Msg("service: failed to add cart line")
		return nil, fmt.Errorf("service: failed to add cart line: %w", err)
	}

	return s.Get(ctx, customerID)
}

func (s *service) UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("service: quantity must be non-negative, got %d", quantity)
	}

	if quantity == 0 {
		return s.RemoveItem(ctx, customerID, productID)
	}

	if err := s.repo.SetQuantity(ctx, customerID, productID, quantity); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return nil, ErrLineNotFound
		}
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to update cart quantity")
		return nil, fmt.Errorf("service: failed to update cart quantity: %w", err)
	}

	return s.Get(ctx, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*Cart, error) {
	if err := s.repo.RemoveLine(ctx, customerID, productID); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return nil, ErrLineNotFound
		}
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to remove cart line")
		return nil, fmt.Errorf("service: failed to remove cart line: %w", err)
	}

	return s.Get(ctx, customerID)
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			// No cart yet reads as an empty cart.
			return &Cart{CustomerID: customerID, Lines: []Line{}}, nil
		}
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to fetch cart")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}
	return c, nil
}
