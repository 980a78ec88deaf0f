package protocol

import (
	"encoding/json"
	"fmt"
)

// NewMessage builds an envelope, encoding payload as JSON when present.
func NewMessage(eventType EventType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
	}
	return &Message{
		Type:    eventType,
		Payload: data,
	}, nil
}

// MustNewMessage is NewMessage that panics on error.
func MustNewMessage(eventType EventType, payload any) *Message {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode encodes the envelope as JSON.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode decodes a JSON envelope.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message without type")
	}
	return &msg, nil
}

// ParsePayload decodes the message payload into T.
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("%s: empty payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", msg.Type, err)
	}
	return &payload, nil
}
