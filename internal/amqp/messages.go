package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventOp names the ledger mutation an event reports.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

// LedgerEvent is a lightweight change notification. It carries only the
// transaction ID; consumers read current state from the ledger.
type LedgerEvent struct {
	ID        int64     `json:"id"`
	Op        EventOp   `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(id int64, op EventOp) *LedgerEvent {
	return &LedgerEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", msg.Op)
	}
	return &msg, nil
}
