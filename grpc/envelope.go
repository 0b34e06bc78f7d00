package pb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event names carried in Envelope.Event.
const (
	// client -> server
	EventJoin  = "join"
	EventLeave = "leave"
	EventSync  = "sync"
	// both directions
	EventDraw        = "draw"
	EventUndo        = "undo"
	EventRedo        = "redo"
	EventChatMessage = "chat-message"
	// client -> server only
	EventClear = "clear"
	// server -> client only
	EventInitialState = "initial-state"
	EventClearBoard   = "clear-board"
	EventUserLeft     = "user-left"
	EventChatHistory  = "chat-history"
)

// Envelope is one event on the board channel. WebSocket clients exchange it
// as a JSON text frame, gRPC clients as a google.protobuf.Struct.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Payload: raw}, nil
}

// Decode unmarshals the payload into v. An absent payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Event, err)
	}
	return nil
}

func (e Envelope) ToStruct() (*structpb.Struct, error) {
	return ToStruct(e)
}

func EnvelopeFromStruct(s *structpb.Struct) (Envelope, error) {
	var env Envelope
	if err := FromStruct(s, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope has no event name")
	}
	return env, nil
}

// ToStruct converts any JSON-object-shaped value into a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode struct: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("failed to convert to struct: %w", err)
	}
	return s, nil
}

// FromStruct decodes a Struct into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("nil struct")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to convert from struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode struct: %w", err)
	}
	return nil
}
