// Package errs holds the error taxonomy shared by services and transports.
package errs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrAlreadyPaid       = errors.New("already paid")
	ErrGatewayFailure    = errors.New("payment gateway failure")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)

// OutOfStockError reports a reservation that asked for more than is available.
type OutOfStockError struct {
	VariantID   uuid.UUID
	VariantName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	name := e.VariantName
	if name == "" {
		name = e.VariantID.String()
	}

	return fmt.Sprintf("insufficient stock for variant %s, %d available", name, e.Available)
}

// Is makes errors.Is(err, ErrOutOfStock) match.
func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

// InvalidStatusError names the status field that carried an unknown value.
type InvalidStatusError struct {
	Field string
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidStatus) match.
func (e *InvalidStatusError) Is(target error) bool {
	return target == ErrInvalidStatus
}

// IllegalTransitionError is returned when an enforced transition table rejects a move.
type IllegalTransitionError struct {
	Field string
	From  string
	To    string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s", e.Field, e.From, e.To)
}

// Is makes errors.Is(err, ErrIllegalTransition) match.
func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// NotFoundf wraps ErrNotFound with a formatted subject.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInputf wraps ErrInvalidInput with a formatted reason.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
