package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrAuthRequired           = errors.New("authentication required")
	ErrEmptyOrder             = errors.New("order is empty")
	ErrShopNotSelected        = errors.New("no shop or order type selected")
	ErrOrderNotFound          = errors.New("order not found")
	ErrMenuItemNotFound       = errors.New("menu item not found")
	ErrItemUnavailable        = errors.New("item is not available")
	ErrItemNotRedeemable      = errors.New("item is not redeemable")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrRedemptionNotFound     = errors.New("redemption not found")
	ErrInvalidRedemptionState = errors.New("redemption cannot be cancelled")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPaymentFailed          = errors.New("payment failed")
)

// ValidationError wraps ErrValidation with a human-readable detail, such
// as the name of a required customization group that has no selection.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
