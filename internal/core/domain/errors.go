package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrDelegateDisabled = errors.New("answer delegate not configured")
)

// WrapError keeps the error kind matchable with errors.Is while adding the
// operation name in front of the cause.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
