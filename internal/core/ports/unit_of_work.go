package ports

import (
	"context"
)

type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork groups repository writes into one database transaction.
// Repositories obtained after Begin are bound to the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	OutboxRepository() OutboxRepository

	IdempotencyRepository() IdempotencyRepository
}
