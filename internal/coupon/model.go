package coupon

import (
	"time"

	"github.com/gofrs/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a checkout collaborator: plain CRUD, no lifecycle logic.
type Coupon struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Code       string       `json:"code" db:"code"`
	Type       DiscountType `json:"type" db:"type"`
	Value      float64      `json:"value" db:"value"`
	ActiveFrom time.Time    `json:"active_from" db:"active_from"`
	ActiveTo   time.Time    `json:"active_to" db:"active_to"`
	UsageCap   int          `json:"usage_cap" db:"usage_cap"`
	Active     bool         `json:"active" db:"active"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}
