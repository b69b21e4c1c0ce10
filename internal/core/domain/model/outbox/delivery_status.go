package outbox

import (
	"fmt"

	"oms/internal/pkg/errs"
)

// DeliveryStatus is persisted as its integer value.
type DeliveryStatus int

const (
	UnknownStatus DeliveryStatus = iota
	Pending
	Delivered
	Failed
)

func (s DeliveryStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Delivered:
		return "DELIVERED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s DeliveryStatus) Validate() error {
	if s < Pending || s > Failed {
		return errs.NewValueIsInvalidErrorWithCause("delivery status", fmt.Errorf("%d is not a valid delivery status", s))
	}
	return nil
}
