package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/toolroom/internal/tools/repository"
)

// Error kinds returned by the services. Callers test them with errors.Is;
// the wrapped message carries the detail.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrAlreadyInUse  = errors.New("instance already checked out")
	ErrAlreadyClosed = errors.New("checkout already returned")
	ErrValidation    = errors.New("validation failed")
	ErrOverDelivery  = errors.New("over-delivery")

	// ErrMissingEmployee is a validation error.
	ErrMissingEmployee = fmt.Errorf("%w: issuing employee is required", ErrValidation)
)

// missing converts a repository not-found into ErrNotFound naming what was
// looked up. Other errors pass through unchanged.
func missing(err error, what, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return err
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
