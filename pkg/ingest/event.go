// Package ingest consumes conversation-closed events from a Kafka topic and
// turns them into customer observations via the memory layer's fact
// extractor.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dialpoint/memline/pkg/customer"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeConversationClosed is emitted by the conversation manager
	// after a conversation ends.
	EventTypeConversationClosed = "memline.conversation.closed"
)

// ConversationClosedEvent is the transport-neutral payload emitted when a
// customer conversation ends. The transcript carries every turn in order.
type ConversationClosedEvent struct {
	SchemaVersion  int                `json:"schema_version"`
	EventType      string             `json:"event_type"`
	ConversationID string             `json:"conversation_id"`
	CustomerPhone  string             `json:"customer_phone"`
	Source         string             `json:"source"`
	ClosedAt       time.Time          `json:"closed_at"`
	Messages       []customer.Message `json:"messages"`
}

// DecodeConversationClosedEvent parses and validates an event payload.
func DecodeConversationClosedEvent(data []byte) (*ConversationClosedEvent, error) {
	var event ConversationClosedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	if event.EventType != EventTypeConversationClosed {
		return nil, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if event.CustomerPhone == "" {
		return nil, fmt.Errorf("event missing customer phone")
	}
	if _, err := customer.ParseSource(event.Source); err != nil {
		return nil, err
	}

	return &event, nil
}
