package queries

import (
	"errors"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/pkg/guard"
)

var (
	ErrListFailedOutboxEntriesQueryIsNotConstructed = errors.New(
		"ListFailedOutboxEntriesQuery must be created via NewListFailedOutboxEntriesQuery constructor",
	)
)

// ListFailedOutboxEntriesQuery lists entries the publisher gave up on, most
// recent failure first. Operators use it to find events that need replaying.
type ListFailedOutboxEntriesQuery struct {
	limit  int
	offset int

	guard guard.ConstructorGuard
}

func NewListFailedOutboxEntriesQuery(limit, offset int) (ListFailedOutboxEntriesQuery, error) {
	if err := validatePage(limit, offset); err != nil {
		return ListFailedOutboxEntriesQuery{}, err
	}
	return ListFailedOutboxEntriesQuery{limit: limit, offset: offset, guard: guard.NewConstructorGuard()}, nil
}

func (q ListFailedOutboxEntriesQuery) Validate() error {
	return q.guard.Validate(ErrListFailedOutboxEntriesQueryIsNotConstructed)
}

func (q ListFailedOutboxEntriesQuery) Limit() int {
	return q.limit
}

func (q ListFailedOutboxEntriesQuery) Offset() int {
	return q.offset
}

type ListFailedOutboxEntriesQueryResponse struct {
	ID           kernel.UUID
	OrderID      kernel.UUID
	OrderVersion int64
	EventType    string
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	FailedAt     time.Time
}
