// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
//
// Clients subscribe to one session's events, or to every session when they
// connect without an ID.
package hub

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte

	// Session scopes the message. Empty means every client receives it.
	Session string
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(session string, data []byte) Message {
	return Message{Type: JSONMessage, Data: data, Session: session}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(session string, data []byte) Message {
	return Message{Type: BinaryMessage, Data: data, Session: session}
}

// matches reports whether a client subscribed to session should receive m.
func (m Message) matches(session string) bool {
	return m.Session == "" || session == "" || m.Session == session
}
