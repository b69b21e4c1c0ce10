// Package kernel provides shared domain primitives for the order management service.
//
// The package includes:
//   - UUID: a validated identifier for aggregates and outbox entries
//   - IdempotencyKey: a client supplied token that deduplicates order commands
//
// Zero values of both types are invalid; they must be built through their
// constructors so that every identifier reaching the domain has been checked.
package kernel
