package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gostorefront/storefront/internal/db"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// Create inserts the order header and all its lines. When the context
	// carries a transaction, everything joins it.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type postgresRepository struct {
	pg *db.Postgres
}

func NewRepository(pg *db.Postgres) Repository {
	return &postgresRepository{pg: pg}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate order ID: %w", err)
	}
	o.ID = id

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}

	q := r.pg.Querier(ctx)

	queryOrder := `
		INSERT INTO orders (id, customer_id, address_id, card_id, total, status, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = q.Exec(ctx, queryOrder,
		o.ID, o.CustomerID, o.AddressID, o.CardID, o.Total, string(o.Status), o.OrderDate, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryLine := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range o.Lines {
		line := &o.Lines[i]

		lineID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order line ID: %w", err)
		}
		line.ID = lineID
		line.OrderID = o.ID
		line.CreatedAt = now

		_, err = q.Exec(ctx, queryLine,
			line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	q := r.pg.Querier(ctx)

	queryOrder := `
		SELECT id, customer_id, address_id, card_id, total, status, order_date, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := q.QueryRow(ctx, queryOrder, id).Scan(
		&o.ID, &o.CustomerID, &o.AddressID, &o.CardID, &o.Total, &o.Status, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	queryLines := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, queryLines, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for order %s: %w", id, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for order %s: %w", id, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for order %s: %w", id, err)
	}

	o.Lines = lines
	return &o, nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	q := r.pg.Querier(ctx)

	queryOrders := `
		SELECT id, customer_id, address_id, card_id, total, status, order_date, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	orderRows, err := q.Query(ctx, queryOrders, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for customer %s: %w", customerID, err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		err := orderRows.Scan(
			&o.ID, &o.CustomerID, &o.AddressID, &o.CardID, &o.Total, &o.Status, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for customer %s: %w", customerID, err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for customer %s: %w", customerID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryLines := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	lineRows, err := q.Query(ctx, queryLines, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for customer %s: %w", customerID, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l Line
		if err := lineRows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for customer %s: %w", customerID, err)
		}
		if o, ok := ordersMap[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for customer %s: %w", customerID, err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.pg.Querier(ctx).Exec(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
