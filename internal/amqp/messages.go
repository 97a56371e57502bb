package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// EventType names the change a TransactionEvent announces.
type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

// TransactionEvent is a lightweight change notification. It carries only the
// identifier; listeners read the record from the API if they need it.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event with a fresh id.
func NewTransactionEvent(eventType EventType, transactionID int64) *TransactionEvent {
	return &TransactionEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

// RoutingKeys lists every key events are published under.
func RoutingKeys() []string {
	return []string{string(EventCreated), string(EventUpdated), string(EventDeleted)}
}

// RoutingKey is the event type.
func (e *TransactionEvent) RoutingKey() string {
	return string(e.Type)
}

// Publishing encodes the event as a persistent JSON message.
func (e *TransactionEvent) Publishing() (amqp091.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.EventID,
		Type:         string(e.Type),
		Timestamp:    e.Timestamp,
		Body:         body,
	}, nil
}

// TransactionEventFromJSON decodes and checks an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}
	return &e, nil
}
