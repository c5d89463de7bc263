package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op names the write that produced an event.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// TransactionEvent is a lightweight notice that a transaction changed.
// Consumers re-read the record from storage; the event carries no amounts.
type TransactionEvent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps an event with the current time.
func NewTransactionEvent(id, ownerID string, op Op) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		OwnerID:   ownerID,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.ID == "" || evt.OwnerID == "" {
		return nil, fmt.Errorf("event missing id or owner_id")
	}
	switch evt.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", evt.Op)
	}
	return &evt, nil
}
