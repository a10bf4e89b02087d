package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrFileNotFound      = errors.New("file not found")
	ErrJobNotFound       = errors.New("rescan job not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrBatchTooLarge     = errors.New("batch too large")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
