package service

import (
	"errors"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// WithStorage runs a storage operation and reclassifies its failure.
// Taxonomy errors raised inside op pass through unchanged, so callers can
// report not-found or ownership problems from within the closure.
func WithStorage[T any](op func() (T, error)) (T, error) {
	v, err := op()
	if err == nil {
		return v, nil
	}

	var zero T
	if de, ok := domain.AsError(err); ok {
		return zero, de
	}
	switch {
	case errors.Is(err, domain.ErrUniqueViolation):
		return zero, domain.NewConflictError("Resource already exists")
	case errors.Is(err, domain.ErrReferenceViolation):
		return zero, domain.NewValidationError("Invalid reference to related resource", nil)
	default:
		return zero, domain.NewDatabaseError("Database operation failed", err)
	}
}

// exec is WithStorage for operations without a result.
func exec(op func() error) error {
	_, err := WithStorage(func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
