package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auyylaso/Valthrun/pkg/errors"
	"github.com/auyylaso/Valthrun/pkg/protocol"
)

const receiveTimeout = time.Second

// registerTestClient registers a client backed by a plain event channel
// instead of a websocket bridge. Tests feed Events to drive the client's
// loop and read notifications straight off the outbound queue.
func registerTestClient(t *testing.T, s *RadarServer) (*Client, chan Event) {
	t.Helper()
	client := newClient("127.0.0.1:9999")
	events := make(chan Event, sendQueueSize)
	s.RegisterClient(client, events)
	return client, events
}

// receiveMessage reads the next outbound message of a client
func receiveMessage(t *testing.T, client *Client) *protocol.Message {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(receiveTimeout):
		t.Fatal("Timed out waiting for outbound message")
		return nil
	}
}

// requireViewCount asserts that the client's next outbound message is a
// viewer count notification with the given count
func requireViewCount(t *testing.T, client *Client, viewers int) {
	t.Helper()
	msg := receiveMessage(t, client)
	require.Equal(t, protocol.MsgTypeNotifyViewCount, msg.Type)
	var payload protocol.ViewCountPayload
	require.NoError(t, msg.ParsePayload(&payload))
	require.Equal(t, viewers, payload.Viewers)
}

// disconnect simulates a transport failure on the client's connection
func disconnect(client *Client, events chan Event) {
	client.close()
	events <- Event{RecvErr: errors.ErrClientDisconnected}
	close(events)
}

func TestPublishAndSubscribe(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	b, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	require.Len(t, sessionID, sessionIDLength)

	role, ok := s.ClientRole(a.ID())
	require.True(t, ok)
	assert.Equal(t, RolePublisher, role.Kind)
	assert.Equal(t, sessionID, role.SessionID)

	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))
	requireViewCount(t, b, 1)

	role, ok = s.ClientRole(b.ID())
	require.True(t, ok)
	assert.Equal(t, RoleSubscriber, role.Kind)
	assert.Equal(t, sessionID, role.SessionID)
}

func TestSecondSubscriberNotifiesBoth(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	b, _ := registerTestClient(t, s)
	c, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))
	requireViewCount(t, b, 1)

	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, c.ID()))
	requireViewCount(t, b, 2)
	requireViewCount(t, c, 2)
}

func TestSubscriberDisconnectShrinksSession(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	b, bEvents := registerTestClient(t, s)
	c, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))
	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, c.ID()))
	requireViewCount(t, c, 2)

	disconnect(b, bEvents)

	require.Eventually(t, func() bool {
		_, ok := s.ClientRole(b.ID())
		return !ok
	}, receiveTimeout, 5*time.Millisecond)

	session, ok := s.FindSession(sessionID)
	require.True(t, ok)
	assert.Equal(t, 1, session.SubscriberCount())
	requireViewCount(t, c, 1)
}

func TestPublisherDisconnectClosesSession(t *testing.T) {
	s := NewRadarServer()
	a, aEvents := registerTestClient(t, s)
	c, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, c.ID()))
	requireViewCount(t, c, 1)

	disconnect(a, aEvents)

	require.Eventually(t, func() bool {
		return s.SessionCount() == 0
	}, receiveTimeout, 5*time.Millisecond)

	// Exactly one session closed notification, nothing after it
	msg := receiveMessage(t, c)
	require.Equal(t, protocol.MsgTypeNotifySessionClosed, msg.Type)
	assert.Empty(t, c.send)

	d, _ := registerTestClient(t, s)
	assert.Equal(t, SubscribeInvalidSessionID, s.Subscribe(sessionID, d.ID()))
}

func TestSubscribeValidation(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	b, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)

	assert.Equal(t, SubscribeInvalidClientID, s.Subscribe(sessionID, 9999))
	assert.Equal(t, SubscribeInvalidSessionID, s.Subscribe("ZZZZZZ", b.ID()))

	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))

	// A subscriber can neither create nor subscribe again
	_, ok = s.CreateSession(b.ID())
	assert.False(t, ok)
	assert.Equal(t, SubscribeInvalidClientState, s.Subscribe(sessionID, b.ID()))

	// The publisher is not unassigned either
	_, ok = s.CreateSession(a.ID())
	assert.False(t, ok)
	assert.Equal(t, SubscribeInvalidClientState, s.Subscribe(sessionID, a.ID()))
}

func TestUnsubscribeResetsRole(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	b, _ := registerTestClient(t, s)

	sessionID, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	require.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))
	requireViewCount(t, b, 1)

	s.Unsubscribe(sessionID, b.ID())

	role, ok := s.ClientRole(b.ID())
	require.True(t, ok)
	assert.Equal(t, RoleUnassigned, role.Kind)

	session, ok := s.FindSession(sessionID)
	require.True(t, ok)
	assert.Equal(t, 0, session.SubscriberCount())

	// Back to unassigned, the client may join again
	assert.Equal(t, SubscribeSuccess, s.Subscribe(sessionID, b.ID()))
}

func TestUnsubscribeUnknownSessionIsNoop(t *testing.T) {
	s := NewRadarServer()
	b, _ := registerTestClient(t, s)

	s.Unsubscribe("ZZZZZZ", b.ID())

	role, ok := s.ClientRole(b.ID())
	require.True(t, ok)
	assert.Equal(t, RoleUnassigned, role.Kind)
}

func TestUnsubscribeSessionMismatchKeepsRole(t *testing.T) {
	s := NewRadarServer()
	a, _ := registerTestClient(t, s)
	p, _ := registerTestClient(t, s)
	b, _ := registerTestClient(t, s)

	first, ok := s.CreateSession(a.ID())
	require.True(t, ok)
	second, ok := s.CreateSession(p.ID())
	require.True(t, ok)

	require.Equal(t, SubscribeSuccess, s.Subscribe(first, b.ID()))

	// Unsubscribing from a session the client never joined only logs
	s.Unsubscribe(second, b.ID())

	role, ok := s.ClientRole(b.ID())
	require.True(t, ok)
	assert.Equal(t, RoleSubscriber, role.Kind)
	assert.Equal(t, first, role.SessionID)
}

func TestClientIDsUniqueAmongLiveClients(t *testing.T) {
	s := NewRadarServer()

	seen := make(map[uint32]bool)
	for i := 0; i < 10; i++ {
		client, _ := registerTestClient(t, s)
		require.False(t, seen[client.ID()], "client id %d assigned twice", client.ID())
		seen[client.ID()] = true
	}
	assert.Equal(t, 10, s.ClientCount())
}

func TestUnregisterUnknownClientIsNoop(t *testing.T) {
	s := NewRadarServer()
	s.UnregisterClient(4242)
	assert.Equal(t, 0, s.ClientCount())
}
