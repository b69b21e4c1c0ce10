package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"oms/internal/core/domain/model/order"
	"oms/internal/pkg/errs"
)

// Message is the JSON body published for every order transition.
// PreviousStatus is empty for OrderCreated.
type Message struct {
	EventType      string    `json:"eventType"`
	OrderID        string    `json:"orderID"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Version        int64     `json:"version"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// MessageFromEvent maps a domain event onto the wire schema.
func MessageFromEvent(event order.StatusChanged) Message {
	previous := ""
	if event.PreviousStatus != order.Unknown {
		previous = event.PreviousStatus.String()
	}

	return Message{
		EventType:      event.EventType,
		OrderID:        event.OrderID.String(),
		PreviousStatus: previous,
		NewStatus:      event.NewStatus.String(),
		Version:        event.Version,
		OccurredAt:     event.OccurredAt.UTC(),
	}
}

// DedupKey is the consumer-side deduplication key of the transition.
func (m Message) DedupKey() string {
	return fmt.Sprintf("%s:%s:%d", m.OrderID, m.NewStatus, m.Version)
}

func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalMessage decodes a published body.
func UnmarshalMessage(payload []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, errs.NewValueIsInvalidErrorWithCause("outbox payload", err)
	}
	return m, nil
}
