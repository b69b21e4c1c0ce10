package order

import (
	"fmt"
	"strings"

	"oms/internal/pkg/errs"
)

// Status is the lifecycle state of an order. It is persisted as its integer value.
type Status int

const (
	// Unknown catches uninitialized values. It is also the previous status of a
	// freshly placed order.
	Unknown Status = iota

	Created
	PaymentPending
	Confirmed
	Shipped

	// Delivered is terminal.
	Delivered

	// Cancelled is terminal.
	Cancelled
)

var statusNames = map[Status]string{
	Unknown:        "UNKNOWN",
	Created:        "CREATED",
	PaymentPending: "PAYMENT_PENDING",
	Confirmed:      "CONFIRMED",
	Shipped:        "SHIPPED",
	Delivered:      "DELIVERED",
	Cancelled:      "CANCELLED",
}

// successors lists the allowed next states for every non-terminal status.
var successors = map[Status][]Status{
	Created:        {PaymentPending, Cancelled},
	PaymentPending: {Confirmed, Cancelled},
	Confirmed:      {Shipped, Cancelled},
	Shipped:        {Delivered},
}

// ParseStatus converts the wire name (case-insensitive) into a Status.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range statusNames {
		if s != Unknown && n == upper {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known status", name))
}

// Validate reports whether s is one of the lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[Unknown]
}

// IsTerminal is true for DELIVERED and CANCELLED.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range successors[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Successors returns a copy of the allowed next states.
func (s Status) Successors() []Status {
	next := successors[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
