package server

import (
	"net"
	"net/http"
	"sync"

	"github.com/auyylaso/Valthrun/pkg/health"
	"github.com/auyylaso/Valthrun/pkg/logger"
	"github.com/auyylaso/Valthrun/pkg/protocol"
)

// CommandHandler maps a decoded inbound message to registry operations and
// produces the response message for the sending client. A nil response
// means the command has no direct reply.
type CommandHandler interface {
	Handle(clientID uint32, msg *protocol.Message) *protocol.Message
}

// SubscribeResult is the typed outcome of a subscribe operation
type SubscribeResult int

const (
	SubscribeSuccess SubscribeResult = iota
	SubscribeInvalidClientID
	SubscribeInvalidClientState
	SubscribeInvalidSessionID
)

// String returns the result name for logging
func (r SubscribeResult) String() string {
	switch r {
	case SubscribeSuccess:
		return "success"
	case SubscribeInvalidClientID:
		return "invalid client id"
	case SubscribeInvalidClientState:
		return "invalid client state"
	case SubscribeInvalidSessionID:
		return "invalid session id"
	default:
		return "unknown"
	}
}

// RadarServer owns the client and session registries and composes the
// connection bridge, driver loops, and broadcast fanout. A single coarse
// lock guards both registries; it is always taken before any per-client
// lock.
type RadarServer struct {
	mu              sync.RWMutex
	clients         map[uint32]*Client
	sessions        map[string]*Session
	clientIDCounter uint32

	handler CommandHandler
	log     *logger.Logger
	monitor *health.Monitor

	serverMu   sync.Mutex
	httpServer *http.Server
	listenAddr net.Addr
	started    bool
}

// NewRadarServer creates a radar relay server with the default command
// handler.
func NewRadarServer() *RadarServer {
	s := &RadarServer{
		clients:  make(map[uint32]*Client),
		sessions: make(map[string]*Session),
		log:      logger.Get(),
		monitor:  health.NewMonitor(),
	}
	s.handler = &commandHandler{server: s}
	return s
}

// SetCommandHandler replaces the command handler. Must be called before any
// client connects.
func (s *RadarServer) SetCommandHandler(handler CommandHandler) {
	s.handler = handler
}

// RegisterClient assigns the next client id, stores the client in
// unassigned state, and starts its driver loop bound to the given event
// sequence. Id allocation cannot fail; the counter wraps at 2^32.
func (s *RadarServer) RegisterClient(client *Client, events <-chan Event) uint32 {
	s.mu.Lock()
	s.clientIDCounter++
	clientID := s.clientIDCounter
	client.id = clientID
	s.clients[clientID] = client
	s.mu.Unlock()

	s.log.DebugWith("registered new client", "address", client.Address(), "client_id", clientID)

	go s.driveClient(client, events)
	return clientID
}

// driveClient consumes a client's inbound events in order. Decoded messages
// go through the command handler; the first error event ends the loop. The
// client is unregistered unconditionally when the loop ends, which is the
// only path that removes a client.
func (s *RadarServer) driveClient(client *Client, events <-chan Event) {
	for ev := range events {
		if ev.Message != nil {
			response := s.handler.Handle(client.ID(), ev.Message)
			if response == nil {
				continue
			}
			if err := client.Send(response); err != nil {
				s.log.DebugWith("client response dropped", "client_id", client.ID(), "error", err)
				break
			}
			continue
		}

		if ev.RecvErr != nil {
			s.log.DebugWith("client recv error", "client_id", client.ID(), "error", ev.RecvErr)
		} else {
			s.log.DebugWith("client send error", "client_id", client.ID(), "error", ev.SendErr)
		}
		break
	}

	s.UnregisterClient(client.ID())
}

// UnregisterClient removes a client from the registry; unknown ids are a
// no-op. A publisher's session is destroyed and its subscribers receive a
// session closed notification; a subscriber is unsubscribed from its
// session.
func (s *RadarServer) UnregisterClient(clientID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return
	}
	delete(s.clients, clientID)

	role := client.Role()
	switch role.Kind {
	case RolePublisher:
		if session, ok := s.sessions[role.SessionID]; ok {
			delete(s.sessions, role.SessionID)
			s.log.InfoWith("session closed", "session_id", role.SessionID)
			session.Broadcast(protocol.NewSessionClosedMessage())
		}
	case RoleSubscriber:
		s.unsubscribeLocked(role.SessionID, clientID)
	case RoleUnassigned:
		// Nothing to do
	}

	s.log.DebugWith("disconnected client", "client_id", clientID)
}

// CreateSession creates a session owned by the given client and transitions
// the owner to the publisher role. It fails if the owner is unknown or not
// unassigned; the failure carries no reason.
func (s *RadarServer) CreateSession(ownerID uint32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.clients[ownerID]
	if !ok {
		return "", false
	}
	if owner.Role().Kind != RoleUnassigned {
		return "", false
	}

	sessionID := generateSessionID()
	s.sessions[sessionID] = newSession(sessionID, ownerID)

	s.log.InfoWith("created new session", "session_id", sessionID, "owner_id", ownerID)
	owner.setRole(Role{Kind: RolePublisher, SessionID: sessionID})
	return sessionID, true
}

// FindSession looks up a session by id. The returned session is owned by
// the registry and must be treated as read-only.
func (s *RadarServer) FindSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Subscribe inserts the client into the session's subscriber set, notifies
// every subscriber of the new viewer count, and transitions the client to
// the subscriber role.
func (s *RadarServer) Subscribe(sessionID string, clientID uint32) SubscribeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok {
		return SubscribeInvalidClientID
	}
	if client.Role().Kind != RoleUnassigned {
		return SubscribeInvalidClientState
	}

	session, ok := s.sessions[sessionID]
	if !ok {
		return SubscribeInvalidSessionID
	}

	session.subscribers[clientID] = client
	session.Broadcast(protocol.NewViewCountMessage(session.SubscriberCount()))

	client.setRole(Role{Kind: RoleSubscriber, SessionID: sessionID})
	return SubscribeSuccess
}

// Unsubscribe removes the client from the session's subscriber set and
// notifies the remaining subscribers. Unknown sessions or clients are safe
// no-ops.
func (s *RadarServer) Unsubscribe(sessionID string, clientID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribeLocked(sessionID, clientID)
}

// unsubscribeLocked implements Unsubscribe under the registry lock. The
// client's role resets to unassigned only if it records exactly this
// session; a mismatch is logged but not treated as an error.
func (s *RadarServer) unsubscribeLocked(sessionID string, clientID uint32) {
	if session, ok := s.sessions[sessionID]; ok {
		delete(session.subscribers, clientID)
		session.Broadcast(protocol.NewViewCountMessage(session.SubscriberCount()))
	}

	client, ok := s.clients[clientID]
	if !ok {
		return
	}

	role := client.Role()
	if role.Kind != RoleSubscriber {
		return
	}
	if role.SessionID != sessionID {
		s.log.WarnWith("client state indicates a different session id than the one being unsubscribed",
			"client_id", clientID, "client_session_id", role.SessionID, "session_id", sessionID)
		return
	}
	client.setRole(Role{Kind: RoleUnassigned})
}

// BroadcastToSession delivers a message to every subscriber of the session
// using the non-blocking fanout policy. Returns false if the session does
// not exist.
func (s *RadarServer) BroadcastToSession(sessionID string, msg *protocol.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.Broadcast(msg)
	return true
}

// ClientRole returns the current role of a registered client
func (s *RadarServer) ClientRole(clientID uint32) (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		return Role{}, false
	}
	return client.Role(), true
}

// ClientCount returns the number of currently registered clients
func (s *RadarServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// SessionCount returns the number of currently live sessions
func (s *RadarServer) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
