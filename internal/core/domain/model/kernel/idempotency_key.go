package kernel

import (
	"fmt"
	"strings"

	"oms/internal/pkg/errs"
)

// MaxIdempotencyKeyLength bounds the key so it fits the idempotency table column.
const MaxIdempotencyKeyLength = 128

// ErrIdempotencyKeyIsNotConstructed indicates a zero-value IdempotencyKey.
var ErrIdempotencyKeyIsNotConstructed = errs.NewValueIsRequiredError("IdempotencyKey must be created via NewIdempotencyKey")

// IdempotencyKey identifies one logical client request against one order.
// Replaying a command with the same key returns the recorded result instead of
// applying the transition again.
type IdempotencyKey struct {
	value string
}

// NewIdempotencyKey trims surrounding whitespace and validates the length.
func NewIdempotencyKey(value string) (IdempotencyKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return IdempotencyKey{}, errs.NewValueIsRequiredError("idempotency key")
	}
	if len(value) > MaxIdempotencyKeyLength {
		return IdempotencyKey{}, errs.NewValueIsOutOfRangeErrorWithCause(
			"idempotency key length", len(value), 1, MaxIdempotencyKeyLength,
			fmt.Errorf("key %.16q... is too long", value),
		)
	}
	return IdempotencyKey{value: value}, nil
}

func (k IdempotencyKey) String() string {
	return k.value
}

func (k IdempotencyKey) IsEqual(other IdempotencyKey) bool {
	return k.value == other.value
}

func (k IdempotencyKey) Validate() error {
	if k.value == "" {
		return ErrIdempotencyKeyIsNotConstructed
	}
	return nil
}
