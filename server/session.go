package server

import (
	"math/rand"

	"github.com/auyylaso/Valthrun/pkg/protocol"
)

const (
	sessionIDLength   = 6
	sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Session is one active publish stream. It is owned by the RadarServer
// registry and guarded by the registry lock; it is destroyed exactly when
// its owning publisher disconnects.
type Session struct {
	ID      string
	OwnerID uint32

	subscribers map[uint32]*Client
}

// newSession creates an empty session owned by the given publisher client
func newSession(id string, ownerID uint32) *Session {
	return &Session{
		ID:          id,
		OwnerID:     ownerID,
		subscribers: make(map[uint32]*Client),
	}
}

// Broadcast delivers a message to every subscriber using a non-blocking,
// best-effort send. A subscriber with a full outbound queue or a gone
// connection silently misses the message; the call never blocks or fails.
func (s *Session) Broadcast(msg *protocol.Message) {
	for _, subscriber := range s.subscribers {
		subscriber.TrySend(msg)
	}
}

// SubscriberCount returns the current size of the subscriber set
func (s *Session) SubscriberCount() int {
	return len(s.subscribers)
}

// generateSessionID returns a 6 character alphanumeric session code.
// Ids are generated, not checked against live sessions; with 62^6 possible
// codes and a handful of concurrent sessions collisions are not a concern.
func generateSessionID() string {
	id := make([]byte, sessionIDLength)
	for i := range id {
		id[i] = sessionIDAlphabet[rand.Intn(len(sessionIDAlphabet))]
	}
	return string(id)
}
