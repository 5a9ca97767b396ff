package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row. It is a logical
	// outcome, not a storage failure.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrDuplicate indicates a unique constraint rejected an insert.
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalidTransition is returned when a payment status change is not
	// pending → paid or paid → refunded.
	ErrInvalidTransition = errors.New("invalid payment status transition")
)

// isUniqueViolation recognizes unique-constraint errors across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
// postgres reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "sqlstate 23505") ||
		strings.Contains(low, "duplicate key value")
}
