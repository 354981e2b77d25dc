package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) String() string {
	return string(m)
}

// Customer is embedded in the order at creation time. Orders do not
// reference an account record; the contact details live with the order.
type Customer struct {
	Name    string `json:"name" db:"customer_name"`
	Phone   string `json:"phone" db:"customer_phone"`
	Address string `json:"address" db:"customer_address"`
	Email   string `json:"email" db:"customer_email"`
}

// OrderItem snapshots the product at purchase time. Later edits to the
// catalog never change what an existing order shows.
type OrderItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OrderID      uuid.UUID `json:"order_id" db:"order_id"`
	ProductID    uuid.UUID `json:"product_id" db:"product_id"`
	Name         string    `json:"name" db:"name"`
	PricePerUnit float64   `json:"price_per_unit" db:"price_per_unit"`
	Quantity     int       `json:"quantity" db:"quantity"`
	ImageURL     string    `json:"image_url,omitempty" db:"image_url"`
}

func (i OrderItem) LineTotal() float64 {
	return float64(i.Quantity) * i.PricePerUnit
}

type Order struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Customer      Customer      `json:"customer"`
	Items         []OrderItem   `json:"items" db:"-"`
	Total         float64       `json:"total" db:"total"`
	Status        Status        `json:"status" db:"status"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	Version       int64         `json:"version" db:"version"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// TransitionResult is the committed outcome of a status change.
type TransitionResult struct {
	Order     *Order `json:"order"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}
