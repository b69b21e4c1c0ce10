package order

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel matched by errors.Is for rejected commands.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError carries the rejected move. It is never retried.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Command CommandType
}

func NewInvalidTransitionError(from Status, command CommandType) *InvalidTransitionError {
	return &InvalidTransitionError{
		From:    from,
		To:      command.Target(),
		Command: command,
	}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s an order in status %s (target %s)",
		ErrInvalidTransition, e.Command, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
