package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gostorefront/storefront/internal/db"
)

var (
	ErrNotFound        = errors.New("customer not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrEmailExists     = errors.New("customer with this email already exists")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	AddAddress(ctx context.Context, a *Address) error
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]Address, error)
	AddressExists(ctx context.Context, customerID, addressID uuid.UUID) (bool, error)

	AddCard(ctx context.Context, c *Card) error
	ListCards(ctx context.Context, customerID uuid.UUID) ([]Card, error)
	CardExists(ctx context.Context, customerID, cardID uuid.UUID) (bool, error)
}

type postgresRepository struct {
	pg *db.Postgres
}

func NewRepository(pg *db.Postgres) Repository {
	return &postgresRepository{pg: pg}
}

func (r *postgresRepository) Create(ctx context.Context, c *Customer) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate customer ID: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO customers (id, first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pg.Querier(ctx).Exec(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.PasswordHash, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c Customer
	err := r.pg.Querier(ctx).QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %s: %w", id, err)
	}

	return &c, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.pg.Querier(ctx).Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete customer %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pg.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check customer %s: %w", id, err)
	}
	return exists, nil
}

func (r *postgresRepository) AddAddress(ctx context.Context, a *Address) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate address ID: %w", err)
	}
	a.ID = id
	a.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO addresses (id, customer_id, street, city, zip, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pg.Querier(ctx).Exec(ctx, query,
		a.ID, a.CustomerID, a.Street, a.City, a.Zip, a.Country, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("repository: failed to insert address for customer %s: %w", a.CustomerID, err)
	}

	return nil
}

func (r *postgresRepository) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]Address, error) {
	query := `
		SELECT id, customer_id, street, city, zip, country, created_at
		FROM addresses
		WHERE customer_id = $1
		ORDER BY created_at
	`

	rows, err := r.pg.Querier(ctx).Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Street, &a.City, &a.Zip, &a.Country, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan address for customer %s: %w", customerID, err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses for customer %s: %w", customerID, err)
	}

	return addresses, nil
}

func (r *postgresRepository) AddressExists(ctx context.Context, customerID, addressID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pg.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM addresses WHERE id = $1 AND customer_id = $2)`,
		addressID, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check address %s: %w", addressID, err)
	}
	return exists, nil
}

func (r *postgresRepository) AddCard(ctx context.Context, c *Card) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate card ID: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO cards (id, customer_id, masked_num, expiry_month, expiry_year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pg.Querier(ctx).Exec(ctx, query,
		c.ID, c.CustomerID, c.MaskedNum, c.ExpiryMonth, c.ExpiryYear, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("repository: failed to insert card for customer %s: %w", c.CustomerID, err)
	}

	return nil
}

func (r *postgresRepository) ListCards(ctx context.Context, customerID uuid.UUID) ([]Card, error) {
	query := `
		SELECT id, customer_id, masked_num, expiry_month, expiry_year, created_at
		FROM cards
		WHERE customer_id = $1
		ORDER BY created_at
	`

	rows, err := r.pg.Querier(ctx).Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cards for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	cards := make([]Card, 0)
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.MaskedNum, &c.ExpiryMonth, &c.ExpiryYear, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan card for customer %s: %w", customerID, err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cards for customer %s: %w", customerID, err)
	}

	return cards, nil
}

func (r *postgresRepository) CardExists(ctx context.Context, customerID, cardID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pg.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1 AND customer_id = $2)`,
		cardID, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check card %s: %w", cardID, err)
	}
	return exists, nil
}
