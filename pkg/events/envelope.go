package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEventType is returned when a frame names an event type outside
// the closed set. Unknown types are an error, never a silent default.
var ErrUnknownEventType = errors.New("unknown event type")

// Envelope is the wire frame of the live channel: one typed event with its
// emission timestamp.
type Envelope struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps an event for transport.
func NewEnvelope(event Event) (*Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", event.GetType(), err)
	}

	return &Envelope{
		Type:      event.GetType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Marshal serializes the envelope for transport.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope deserializes a wire frame without decoding its payload.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse event envelope: %w", err)
	}

	if envelope.Type == "" {
		return nil, errors.New("event envelope has no type")
	}

	return &envelope, nil
}

// Decode unmarshals the payload into its typed event.
func (e *Envelope) Decode() (Event, error) {
	var event Event

	switch e.Type {
	case WorkflowStartedEvent:
		event = &WorkflowStarted{}
	case WorkflowCompletedEvent:
		event = &WorkflowCompleted{}
	case WorkflowFailedEvent:
		event = &WorkflowFailed{}
	case NodeStartedEvent:
		event = &NodeStarted{}
	case NodeCompletedEvent:
		event = &NodeCompleted{}
	case NodeFailedEvent:
		event = &NodeFailed{}
	case NodeRetryingEvent:
		event = &NodeRetrying{}
	case NodeContinuedEvent:
		event = &NodeContinued{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}

	if err := json.Unmarshal(e.Data, event); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}

	return event, nil
}
