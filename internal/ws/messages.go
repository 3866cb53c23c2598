package ws

import "encoding/json"

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSchemaCreated   MessageType = "schema_created"
	MsgSchemaUpdated   MessageType = "schema_updated"
	MsgSchemaActivated MessageType = "schema_activated"
	MsgSchemaDeleted   MessageType = "schema_deleted"
	MsgCatalog         MessageType = "catalog"
	MsgSync            MessageType = "sync"
	MsgError           MessageType = "error"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a new Message with the given type and payload.
func NewMessage(typ MessageType, payload any) ([]byte, error) {
	var p json.RawMessage
	if payload != nil {
		var err error
		p, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Message{Type: typ, Payload: p})
}

// EventType maps a registry change op to its broadcast message type.
func EventType(op string) (MessageType, bool) {
	switch op {
	case "created":
		return MsgSchemaCreated, true
	case "updated":
		return MsgSchemaUpdated, true
	case "activated":
		return MsgSchemaActivated, true
	case "deleted":
		return MsgSchemaDeleted, true
	}
	return "", false
}
