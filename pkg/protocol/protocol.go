package protocol

import "encoding/json"

// MessageType defines the type of message being sent
type MessageType string

const (
	// Client to server commands
	MsgTypeInitializePublish   MessageType = "initialize_publish"
	MsgTypeInitializeSubscribe MessageType = "initialize_subscribe"
	MsgTypeNotifyRadarState    MessageType = "notify_radar_state"
	MsgTypeDisconnect          MessageType = "disconnect"

	// Server to client responses
	MsgTypeResponseError             MessageType = "response_error"
	MsgTypeResponseInitializePublish MessageType = "response_initialize_publish"
	MsgTypeResponseSubscribeSuccess  MessageType = "response_subscribe_success"

	// Server to client notifications
	MsgTypeNotifySessionClosed MessageType = "notify_session_closed"
	MsgTypeNotifyViewCount     MessageType = "notify_view_count"
)

// Message is the base structure for all messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InitializeSubscribePayload contains the session a client wants to observe
type InitializeSubscribePayload struct {
	SessionID string `json:"session_id"`
}

// ResponseInitializePublishPayload contains the session assigned to a new publisher
type ResponseInitializePublishPayload struct {
	SessionID string `json:"session_id"`
}

// ErrorPayload contains a human readable failure description
type ErrorPayload struct {
	Error string `json:"error"`
}

// ViewCountPayload contains the current subscriber count of a session
type ViewCountPayload struct {
	Viewers int `json:"viewers"`
}

// RadarStatePayload carries the radar state as an opaque document.
// The server relays it verbatim and never interprets the contents.
type RadarStatePayload struct {
	State json.RawMessage `json:"state"`
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// ParsePayload unmarshals the message payload into the given interface
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// NewSessionClosedMessage creates the notification broadcast to subscribers
// when the owning publisher disconnects. It carries no payload.
func NewSessionClosedMessage() *Message {
	return &Message{Type: MsgTypeNotifySessionClosed}
}

// NewViewCountMessage creates the notification broadcast to subscribers
// after every session membership change.
func NewViewCountMessage(viewers int) *Message {
	msg, _ := NewMessage(MsgTypeNotifyViewCount, &ViewCountPayload{Viewers: viewers})
	return msg
}

// NewErrorMessage creates a response_error message with the given description
func NewErrorMessage(text string) *Message {
	msg, _ := NewMessage(MsgTypeResponseError, &ErrorPayload{Error: text})
	return msg
}
