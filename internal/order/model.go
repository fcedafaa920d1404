package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Line is an immutable snapshot of a cart line, bound permanently to its
// order.
type Line struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Order header fields never change after creation except Status, which is
// advanced by its own workflow.
type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	CustomerID uuid.UUID       `json:"customer_id" db:"customer_id"`
	AddressID  uuid.UUID       `json:"address_id" db:"address_id"`
	CardID     uuid.UUID       `json:"card_id" db:"card_id"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Status     Status          `json:"status" db:"status"`
	OrderDate  time.Time       `json:"order_date" db:"order_date"`
	Lines      []Line          `json:"lines" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
