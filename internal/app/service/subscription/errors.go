package subscription

import (
	"fmt"

	"github.com/fatflowers/backoffice/internal/store"
)

// Lookup failures. All of them match store.ErrNotFound with errors.Is.
var (
	ErrSubscriptionNotFound  = fmt.Errorf("subscription %w", store.ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("product %w", store.ErrNotFound)
	ErrPricingOptionNotFound = fmt.Errorf("pricing option %w", store.ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", store.ErrNotFound)
)

// notFound rewrites a store miss into the entity sentinel and keeps the id.
func notFound(err error, sentinel error, id int64) error {
	if store.IsNotFound(err) {
		return fmt.Errorf("%w: id=%d", sentinel, id)
	}
	return err
}
