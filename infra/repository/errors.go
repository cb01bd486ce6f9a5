// Package repository holds the gorm implementations of the console's local
// stores. Sub-packages own one table each.
package repository

import (
	"errors"
	"fmt"

	"github.com/amirasaad/payconsole/pkg/domain"
	"gorm.io/gorm"
)

// MapError translates gorm errors into domain errors, keeping op as
// context. Unknown errors are wrapped unchanged.
func MapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Affected returns domain.ErrNotFound when a write touched no row.
func Affected(op string, res *gorm.DB) error {
	if res.Error != nil {
		return MapError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
