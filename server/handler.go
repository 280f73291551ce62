package server

import (
	"github.com/auyylaso/Valthrun/pkg/protocol"
)

// commandHandler is the default command handler: it maps each client
// command onto the registry operations and encodes the outcome as a
// response message.
type commandHandler struct {
	server *RadarServer
}

// Handle processes one inbound message from the given client
func (h *commandHandler) Handle(clientID uint32, msg *protocol.Message) *protocol.Message {
	switch msg.Type {
	case protocol.MsgTypeInitializePublish:
		return h.handleInitializePublish(clientID)
	case protocol.MsgTypeInitializeSubscribe:
		return h.handleInitializeSubscribe(clientID, msg)
	case protocol.MsgTypeNotifyRadarState:
		return h.handleRadarState(clientID, msg)
	case protocol.MsgTypeDisconnect:
		return h.handleDisconnect(clientID)
	default:
		return protocol.NewErrorMessage("unsupported command")
	}
}

// handleInitializePublish creates a session owned by the sender and returns
// the new session id. The failure is uniform regardless of cause.
func (h *commandHandler) handleInitializePublish(clientID uint32) *protocol.Message {
	sessionID, ok := h.server.CreateSession(clientID)
	if !ok {
		return protocol.NewErrorMessage("failed to create session")
	}

	response, err := protocol.NewMessage(protocol.MsgTypeResponseInitializePublish,
		&protocol.ResponseInitializePublishPayload{SessionID: sessionID})
	if err != nil {
		return protocol.NewErrorMessage("failed to encode response")
	}
	return response
}

// handleInitializeSubscribe joins the sender to the requested session
func (h *commandHandler) handleInitializeSubscribe(clientID uint32, msg *protocol.Message) *protocol.Message {
	var payload protocol.InitializeSubscribePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return protocol.NewErrorMessage("invalid subscribe payload")
	}

	result := h.server.Subscribe(payload.SessionID, clientID)
	if result != SubscribeSuccess {
		return protocol.NewErrorMessage(result.String())
	}
	return &protocol.Message{Type: protocol.MsgTypeResponseSubscribeSuccess}
}

// handleRadarState relays a publisher's radar state to its session's
// subscribers. The payload is forwarded verbatim; state from a client that
// is not a publisher is rejected. Relayed state has no direct response.
func (h *commandHandler) handleRadarState(clientID uint32, msg *protocol.Message) *protocol.Message {
	role, ok := h.server.ClientRole(clientID)
	if !ok || role.Kind != RolePublisher {
		return protocol.NewErrorMessage("not a session publisher")
	}

	h.server.BroadcastToSession(role.SessionID, &protocol.Message{
		Type:    protocol.MsgTypeNotifyRadarState,
		Payload: msg.Payload,
	})
	return nil
}

// handleDisconnect detaches a subscriber from its session. From any other
// role state the command is a no-op.
func (h *commandHandler) handleDisconnect(clientID uint32) *protocol.Message {
	role, ok := h.server.ClientRole(clientID)
	if ok && role.Kind == RoleSubscriber {
		h.server.Unsubscribe(role.SessionID, clientID)
	}
	return nil
}
