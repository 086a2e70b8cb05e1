package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist or the id is not positive.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a foreign key or unique constraint.
	ErrConflict = errors.New("record conflict")
	// ErrStoreFailure wraps every other database error.
	ErrStoreFailure = errors.New("store failure")
)

// translate maps gorm errors onto the store sentinels. Requires gorm.Config.TranslateError.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
}
