// Package outbox models the transactional outbox: one Entry per accepted order
// transition, written in the same transaction as the order row and later
// delivered to the message bus by the publisher.
//
// Entry lifecycle:
//
//	PENDING ──> DELIVERED
//	   │
//	   └──(attempts exhausted)──> FAILED
//
// A PENDING entry may carry a NextAttemptAt in the future while it backs off
// after a failed publish.
package outbox
