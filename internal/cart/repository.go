package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/gostorefront/storefront/internal/db"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

type Repository interface {
	// GetOrCreate returns the customer's cart header, creating it on first use.
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*Cart, error)
	Get(ctx context.Context, customerID uuid.UUID) (*Cart, error)

	UpsertLine(ctx context.Context, cartID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error
	Lines(ctx context.Context, customerID uuid.UUID) ([]Line, error)
	LockLines(ctx context.Context, customerID uuid.UUID) ([]Line, error)
	SetQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, customerID, productID uuid.UUID) error
	RemoveLines(ctx context.Context, customerID uuid.UUID, lines []Line) error
}

type postgresRepository struct {
	pg *db.Postgres
}

func NewRepository(pg *db.Postgres) Repository {
	return &postgresRepository{pg: pg}
}

func (r *postgresRepository) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	c, err := r.Get(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate cart ID: %w", err)
	}
	now := time.Now().UTC()

	// Concurrent first adds race on the unique customer_id; the loser keeps
	// the winner's row.
	query := `
		INSERT INTO carts (id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (customer_id) DO NOTHING
	`
	if _, err := r.pg.Querier(ctx).Exec(ctx, query, id, customerID, now); err != nil {
		return nil, fmt.Errorf("repository: failed to insert cart for customer %s: %w", customerID, err)
	}

	return r.Get(ctx, customerID)
}

func (r *postgresRepository) Get(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	query := `
		SELECT id, customer_id, created_at, updated_at
		FROM carts
		WHERE customer_id = $1
	`

	var c Cart
	err := r.pg.Querier(ctx).QueryRow(ctx, query, customerID).Scan(
		&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart for customer %s: %w", customerID, err)
	}

	lines, err := r.Lines(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines

	return &c, nil
}

func (r *postgresRepository) UpsertLine(ctx context.Context, cartID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate cart line ID: %w", err)
	}
	now := time.Now().UTC()

	// Re-adding a product bumps the quantity but keeps the original price
	// snapshot.
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`
	_, err = r.pg.Querier(ctx).Exec(ctx, query,
		id, cartID, productID, quantity, unitPrice, now)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert cart line for cart %s: %w", cartID, err)
	}

	return nil
}

const selectLines = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price, ci.created_at, ci.updated_at
	FROM cart_items ci
	JOIN carts c ON c.id = ci.cart_id
	WHERE c.customer_id = $1
	ORDER BY ci.created_at
`

func (r *postgresRepository) Lines(ctx context.Context, customerID uuid.UUID) ([]Line, error) {
	return r.queryLines(ctx, customerID, selectLines)
}

// LockLines reads the customer's cart lines with FOR UPDATE row locks, so a
// concurrent conversion for the same cart blocks until this transaction
// resolves.
func (r *postgresRepository) LockLines(ctx context.Context, customerID uuid.UUID) ([]Line, error) {
	return r.queryLines(ctx, customerID, selectLines+" FOR UPDATE OF ci")
}

func (r *postgresRepository) queryLines(ctx context.Context, customerID uuid.UUID, query string) ([]Line, error) {
	rows, err := r.pg.Querier(ctx).Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line for customer %s: %w", customerID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines for customer %s: %w", customerID, err)
	}

	return lines, nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items ci
		SET quantity = $3, updated_at = $4
		FROM carts c
		WHERE c.id = ci.cart_id AND c.customer_id = $1 AND ci.product_id = $2
	`
	cmdTag, err := r.pg.Querier(ctx).Exec(ctx, query, customerID, productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to update quantity for product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *postgresRepository) RemoveLine(ctx context.Context, customerID, productID uuid.UUID) error {
	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.customer_id = $1 AND ci.product_id = $2
	`
	cmdTag, err := r.pg.Querier(ctx).Exec(ctx, query, customerID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to remove cart line for product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

// RemoveLines deletes exactly the given lines by id. Lines added to the cart
// after the caller observed these are left untouched.
func (r *postgresRepository) RemoveLines(ctx context.Context, customerID uuid.UUID, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}

	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.customer_id = $1 AND ci.id = ANY($2)
	`
	cmdTag, err := r.pg.Querier(ctx).Exec(ctx, query, customerID, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to remove cart lines for customer %s: %w", customerID, err)
	}
	if cmdTag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("repository: expected to remove %d cart lines, removed %d", len(ids), cmdTag.RowsAffected())
	}
	return nil
}
