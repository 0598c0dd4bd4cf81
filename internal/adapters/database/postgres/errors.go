package postgres

import (
	"errors"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// wrap classifies a gorm error: a missing row becomes ErrNotFound, anything
// else ErrBackingStore.
func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorz.NotFound(what)
	}
	return errorz.Store(err)
}

// uuidID reports whether id can be compared against a uuid column. Anything
// else cannot match a row and is reported as not found before querying.
func uuidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
