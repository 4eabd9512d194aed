package finance

import (
	"errors"
	"fmt"
	"strings"

	"finboard-server/src/db"
)

var (
	// ErrUnauthenticated is returned when no user identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStoreQuery is a store failure that survived local retries.
	ErrStoreQuery = db.ErrStoreQuery
	// ErrPartialJoin is returned when any per-item accounts query failed.
	ErrPartialJoin = errors.New("partial join failure")
	// ErrInvalidCursor is returned for malformed, tampered or foreign cursors.
	// Callers restart pagination from the first page.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrAccountNotFound is returned when an account scope is not owned by the user.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidScope is returned for identifiers that cannot be used in a key.
	ErrInvalidScope = errors.New("invalid scope")
)

// PartialJoinError reports the items whose accounts could not be read.
type PartialJoinError struct {
	UserID      string
	FailedItems []string
	Err         error
}

func (e *PartialJoinError) Error() string {
	return fmt.Sprintf("%s for user %s (items %s): %v",
		ErrPartialJoin, e.UserID, strings.Join(e.FailedItems, ", "), e.Err)
}

func (e *PartialJoinError) Unwrap() []error {
	return []error{ErrPartialJoin, e.Err}
}

// IsRetryable reports whether err is a failure the caller may retry as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreQuery) || errors.Is(err, ErrPartialJoin)
}
