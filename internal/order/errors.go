package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrUnknownStatus          = errors.New("unknown order status")
	ErrNoOpTransition         = errors.New("order already has the requested status")
	ErrConcurrentModification = errors.New("order was modified by a concurrent writer")
)

// IllegalTransitionError carries the allowed-next set so a caller can
// present valid choices instead of a bare "invalid".
type IllegalTransitionError struct {
	From        Status
	To          Status
	AllowedNext []Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s (allowed: %v)", e.From, e.To, e.AllowedNext)
}

func newIllegalTransitionError(from, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{
		From:        from,
		To:          to,
		AllowedNext: AllowedNext(from),
	}
}
