package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, c *Customer, password string) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddAddress(ctx context.Context, a *Address) (*Address, error)
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]Address, error)

	AddCard(ctx context.Context, c *Card) (*Card, error)
	ListCards(ctx context.Context, customerID uuid.UUID) ([]Card, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, c *Customer, password string) (*Customer, error) {
	if c.Email == "" {
		return nil, errors.New("service: email is required")
	}
	if password == "" {
		return nil, errors.New("service: password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}
	c.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Stringer("customer_id", c.ID).Msg("service: customer registered")
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to fetch customer")
		return nil, fmt.Errorf("service: failed to fetch customer: %w", err)
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to delete customer")
		return fmt.Errorf("service: failed to delete customer: %w", err)
	}
	return nil
}

func (s *service) AddAddress(ctx context.Context, a *Address) (*Address, error) {
	if a.CustomerID == uuid.Nil {
		return nil, errors.New("service: customer id is required")
	}
	if a.Street == "" || a.City == "" || a.Country == "" {
		return nil, errors.New("service: street, city and country are required")
	}

	if err := s.repo.AddAddress(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", a.CustomerID).Msg("service: failed to add address")
		return nil, fmt.Errorf("service: failed to add address: %w", err)
	}

	return a, nil
}

func (s *service) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]Address, error) {
	addresses, err := s.repo.ListAddresses(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to list addresses")
		return nil, fmt.Errorf("service: failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *service) AddCard(ctx context.Context, c *Card) (*Card, error) {
	if c.CustomerID == uuid.Nil {
		return nil, errors.New("service: customer id is required")
	}
	if c.MaskedNum == "" {
		return nil, errors.New("service: card number is required")
	}
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		return nil, fmt.Errorf("service: expiry month %d is out of range", c.ExpiryMonth)
	}

	if err := s.repo.AddCard(ctx, c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("customer_id", c.CustomerID).Msg("service: failed to add card")
		return nil, fmt.Errorf("service: failed to add card: %w", err)
	}

	return c, nil
}

func (s *service) ListCards(ctx context.Context, customerID uuid.UUID) ([]Card, error) {
	cards, err := s.repo.ListCards(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to list cards")
		return nil, fmt.Errorf("service: failed to list cards: %w", err)
	}
	return cards, nil
}
