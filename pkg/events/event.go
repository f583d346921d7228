package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is anything published on the bus. The subject is derived from
// EventType; only the payload travels as the message body.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// Encode returns the message body for e.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.EventType(), err)
	}
	return data, nil
}

// Decode rebuilds an event from a message received on subject.
func Decode(subject string, body []byte, at time.Time) (BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event on %s: %w", subject, err)
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return BaseEvent{
		Type:       TypeFromSubject(subject),
		Data:       payload,
		OccurredAt: at,
	}, nil
}
