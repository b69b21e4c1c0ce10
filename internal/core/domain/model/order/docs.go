// Package order implements the Order aggregate and its lifecycle state machine.
//
// Lifecycle:
//
//	CREATED ──> PAYMENT_PENDING ──> CONFIRMED ──> SHIPPED ──> DELIVERED
//	   │              │                 │
//	   └──────────────┴─────────────────┴──────> CANCELLED
//
// DELIVERED and CANCELLED are terminal. Every accepted transition increments the
// order version by one and produces a StatusChanged event describing it.
//
// The aggregate is a value: Apply never mutates its receiver, it returns the next
// state together with the event. Persisting both atomically is the caller's job.
//
// Usage:
//
//	placed, created, err := order.Place(kernel.NewUUID(), items, time.Now())
//	if err != nil {
//	    return err
//	}
//
//	pending, changed, err := placed.Apply(order.RequestPayment, time.Now())
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // the command is not allowed from the current status
//	}
package order
