package service

import (
	"errors"
	"fmt"

	"github.com/flicky/storefront/internal/model"
)

// Error kinds. Every error returned by this package that a caller can act
// on unwraps to exactly one of these; anything else is an internal failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a user-facing failure with a message safe to return to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrUserNotFound         = newError(ErrNotFound, "User not found")
	ErrStoreNotFound        = newError(ErrNotFound, "Store not found")
	ErrProductNotFound      = newError(ErrNotFound, "Product not found")
	ErrOrderNotFound        = newError(ErrNotFound, "Order not found")
	ErrCartItemNotFound     = newError(ErrNotFound, "Cart item not found")
	ErrNotificationNotFound = newError(ErrNotFound, "Notification not found")
	ErrStoreNotFoundForUser = newError(ErrNotFound, "Store not found for this user")

	ErrEmptyCart      = newError(ErrInvalidState, "Cart is empty")
	ErrNegativeStock  = newError(ErrInvalidState, "stock cannot go negative")
	ErrOrderCancelled = newError(ErrInvalidState, "Order is already cancelled")
	ErrOrderDelivered = newError(ErrInvalidState, "Cannot cancel delivered order")
	ErrOrderShipped   = newError(ErrInvalidState, "Cannot cancel shipped order")

	ErrZeroChange        = newError(ErrInvalidInput, "Change must not be zero")
	ErrInvalidQuantity   = newError(ErrInvalidInput, "Quantity must be at least 1")
	ErrStoreNameRequired = newError(ErrInvalidInput, "Store name is required")

	ErrAccessDenied       = newError(ErrForbidden, "Not authorized to access this resource")
	ErrUserAlreadyExists  = newError(ErrConflict, "User already exists")
	ErrConcurrentUpdate   = newError(ErrConflict, "Order was modified concurrently, retry")
	ErrCartChanged        = newError(ErrConflict, "Cart changed during checkout, retry")
	ErrStoreNameTaken     = newError(ErrConflict, "Store name already exists")
	ErrOwnerHasStore      = newError(ErrConflict, "User already owns a store")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")
)

// OutOfStockError reports the product that could not cover a checkout line.
type OutOfStockError struct {
	Product   string
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, requested: %d", e.Product, e.Available, e.Requested)
}

func (e *OutOfStockError) Unwrap() error { return ErrInvalidState }

func invalidTransition(from, to model.OrderStatus) *Error {
	return newError(ErrInvalidState, fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
