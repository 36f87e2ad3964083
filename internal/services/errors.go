package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")

	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")

	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrInvalidPreload  = errors.New("preload amount must not be negative")
	ErrLineNotFound    = errors.New("cart line not found")

	ErrEmptyCart      = errors.New("cart is empty")
	ErrOrderTooLarge  = errors.New("order total exceeds the allowed maximum")
	ErrOrderNotFound  = errors.New("order not found")

	ErrInvalidReport = errors.New("report payload must be valid JSON")
	ErrNoReport      = errors.New("no report has been published")

	// ErrPersistence wraps storage failures. Its message is safe to show to clients.
	ErrPersistence = errors.New("internal storage error")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
