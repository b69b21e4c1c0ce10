package errs

import (
	"errors"
	"fmt"
)

var ErrConcurrentModification = errors.New("concurrent modification")

// ConcurrentModificationError reports that a write lost an optimistic version race.
// Callers may reload the aggregate and retry.
type ConcurrentModificationError struct {
	Entity          string
	ID              any
	ExpectedVersion int64
	Cause           error
}

func NewConcurrentModificationError(entity string, id any, expectedVersion int64) *ConcurrentModificationError {
	return &ConcurrentModificationError{
		Entity:          entity,
		ID:              id,
		ExpectedVersion: expectedVersion,
	}
}

func NewConcurrentModificationErrorWithCause(
	entity string,
	id any,
	expectedVersion int64,
	cause error,
) *ConcurrentModificationError {
	return &ConcurrentModificationError{
		Entity:          entity,
		ID:              id,
		ExpectedVersion: expectedVersion,
		Cause:           cause,
	}
}

func (e *ConcurrentModificationError) Error() string {
	msg := fmt.Sprintf("%s: %s %s, expected version is %d",
		ErrConcurrentModification,
		sanitize(e.Entity),
		sanitize(fmt.Sprintf("%v", e.ID)),
		e.ExpectedVersion,
	)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ConcurrentModificationError) Unwrap() error {
	return ErrConcurrentModification
}
