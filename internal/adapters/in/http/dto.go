package http

import (
	"time"

	"github.com/shopspring/decimal"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type NewOrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewOrder is the body of POST /api/v1/orders. ID is optional; a client that
// wants retries of the same placement to be safe sends its own ID together
// with an Idempotency-Key.
type NewOrder struct {
	ID    string         `json:"id,omitempty"`
	Items []NewOrderItem `json:"items"`
}

type OrderCommand struct {
	Command string `json:"command"`
}

type Transition struct {
	OrderID        string    `json:"orderId"`
	EventType      string    `json:"eventType"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Version        int64     `json:"version"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Version   int64           `json:"version"`
	Items     []OrderItem     `json:"items,omitempty"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type FailedOutboxEntry struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"orderId"`
	OrderVersion int64     `json:"orderVersion"`
	EventType    string    `json:"eventType"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"lastError"`
	CreatedAt    time.Time `json:"createdAt"`
	FailedAt     time.Time `json:"failedAt"`
}

type BreakerHealth struct {
	Status   string           `json:"status"`
	Breakers []BreakerSummary `json:"breakers"`
}

type BreakerSummary struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
}
