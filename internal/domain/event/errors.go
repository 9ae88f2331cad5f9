// internal/domain/event/errors.go

package event

import "errors"

var (
	// ErrNotFound is returned when an event does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrNotOwner is returned when a mutation is attempted by a user
	// other than the event's creator.
	ErrNotOwner = errors.New("only the event creator may modify it")

	// ErrLocationRequired is returned when a search needs an anchor
	// point and none could be resolved from the request or the user's
	// stored location. Searches fail closed instead of defaulting.
	ErrLocationRequired = errors.New("location required")

	// ErrInvalidDateRange is returned when a date filter has
	// startDate > endDate or an event has startTime >= endTime.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidPagination is returned for a non-positive page or
	// page size, before any store access.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrInvalidCategory is returned when a category filter contains
	// a non-positive id.
	ErrInvalidCategory = errors.New("invalid category id")
)

// ValidatePagination checks the 1-indexed page window.
func ValidatePagination(page, pageSize int) error {
	if page <= 0 || pageSize <= 0 {
		return ErrInvalidPagination
	}
	return nil
}
