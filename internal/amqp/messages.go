package amqp

import (
	"encoding/json"
	"time"
)

// EventAction names what happened to a record.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// ExpenseEvent is the change-notification published after every mutation.
// It carries only the id and owner; consumers fetch the full record from
// storage when they need it.
type ExpenseEvent struct {
	Action    EventAction `json:"action"`
	ID        int64       `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewExpenseEvent creates an event stamped with the current time.
func NewExpenseEvent(action EventAction, id int64, ownerID string) *ExpenseEvent {
	return &ExpenseEvent{
		Action:    action,
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON parses an event from JSON bytes.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
