package storage

import (
	"errors"
	"fmt"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// unavailable marks a backend failure as transient for the caller.
func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, op, err)
}
