package customer

import (
	"time"

	"github.com/gofrs/uuid"
)

type Customer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	Zip        string    `json:"zip" db:"zip"`
	Country    string    `json:"country" db:"country"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Card struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CustomerID  uuid.UUID `json:"customer_id" db:"customer_id"`
	MaskedNum   string    `json:"masked_num" db:"masked_num"`
	ExpiryMonth int       `json:"expiry_month" db:"expiry_month"`
	ExpiryYear  int       `json:"expiry_year" db:"expiry_year"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
