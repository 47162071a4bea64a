package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Fehlerklassen für die HTTP-Schicht. Handler mappen sie auf Statuscodes.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// classify übersetzt gorm-Fehler in unsere Fehlerklassen. Alles, was nicht
// zuordenbar ist, bleibt ein Storage-Fehler (HTTP 500).
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	default:
		return err
	}
}
