package outbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"
)

// MaxErrorLength bounds the stored last error.
const MaxErrorLength = 512

var ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry or RestoreEntry constructor")

// Entry is one pending or processed event.
type Entry struct {
	id            kernel.UUID
	orderID       kernel.UUID
	orderVersion  int64
	eventType     string
	payload       []byte
	createdAt     time.Time
	status        DeliveryStatus
	attempts      int
	nextAttemptAt time.Time
	lastError     string
	processedAt   time.Time

	isConstructed bool
}

// NewEntry builds the PENDING entry for event. It is immediately due.
func NewEntry(event order.StatusChanged, now time.Time) (*Entry, error) {
	if err := event.OrderID.Validate(); err != nil {
		return nil, err
	}
	if event.EventType == "" {
		return nil, errs.NewValueIsRequiredError("eventType")
	}
	if event.Version < 1 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than 1", event.Version))
	}

	payload, err := MessageFromEvent(event).Marshal()
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("outbox payload", err)
	}

	return &Entry{
		id:            kernel.NewUUID(),
		orderID:       event.OrderID,
		orderVersion:  event.Version,
		eventType:     event.EventType,
		payload:       payload,
		createdAt:     now,
		status:        Pending,
		nextAttemptAt: now,
		isConstructed: true,
	}, nil
}

// RestoreEntry rebuilds an entry from persisted state.
func RestoreEntry(
	id kernel.UUID,
	orderID kernel.UUID,
	orderVersion int64,
	eventType string,
	payload []byte,
	createdAt time.Time,
	status DeliveryStatus,
	attempts int,
	nextAttemptAt time.Time,
	lastError string,
	processedAt time.Time,
) (*Entry, error) {
	if err := errors.Join(id.Validate(), orderID.Validate(), status.Validate()); err != nil {
		return nil, err
	}
	if attempts < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("attempts", fmt.Errorf("%d is negative", attempts))
	}

	return &Entry{
		id:            id,
		orderID:       orderID,
		orderVersion:  orderVersion,
		eventType:     eventType,
		payload:       payload,
		createdAt:     createdAt,
		status:        status,
		attempts:      attempts,
		nextAttemptAt: nextAttemptAt,
		lastError:     lastError,
		processedAt:   processedAt,
		isConstructed: true,
	}, nil
}

func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

func (e *Entry) ID() kernel.UUID {
	return e.id
}

// OrderID is also the partition key on the bus.
func (e *Entry) OrderID() kernel.UUID {
	return e.orderID
}

// OrderVersion is the order version the entry describes. Entries of one order
// are delivered in increasing OrderVersion.
func (e *Entry) OrderVersion() int64 {
	return e.orderVersion
}

func (e *Entry) EventType() string {
	return e.eventType
}

// Payload returns a copy of the JSON body.
func (e *Entry) Payload() []byte {
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out
}

func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}

func (e *Entry) Status() DeliveryStatus {
	return e.status
}

func (e *Entry) Attempts() int {
	return e.attempts
}

func (e *Entry) NextAttemptAt() time.Time {
	return e.nextAttemptAt
}

func (e *Entry) LastError() string {
	return e.lastError
}

// ProcessedAt is the delivery or failure time; zero while PENDING.
func (e *Entry) ProcessedAt() time.Time {
	return e.processedAt
}

// Message decodes the payload.
func (e *Entry) Message() (Message, error) {
	return UnmarshalMessage(e.payload)
}

// TruncateError keeps stored failure reasons within MaxErrorLength.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToValidUTF8(err.Error(), "?")
	if len(msg) <= MaxErrorLength {
		return msg
	}
	return strings.ToValidUTF8(msg[:MaxErrorLength], "")
}
