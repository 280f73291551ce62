package server

import (
	"sync"

	"github.com/auyylaso/Valthrun/pkg/errors"
	"github.com/auyylaso/Valthrun/pkg/protocol"
)

// sendQueueSize bounds the per-connection outbound queue. Enqueueing blocks
// when the queue is full, so a connection's own command traffic is throttled
// by how fast the client consumes it.
const sendQueueSize = 16

// RoleKind enumerates the connection role states
type RoleKind int

const (
	// RoleUnassigned is the initial state of every registered client
	RoleUnassigned RoleKind = iota
	// RolePublisher marks a client owning a session
	RolePublisher
	// RoleSubscriber marks a client observing a session
	RoleSubscriber
)

// String returns the role kind name for logging
func (k RoleKind) String() string {
	switch k {
	case RolePublisher:
		return "publisher"
	case RoleSubscriber:
		return "subscriber"
	default:
		return "unassigned"
	}
}

// Role is the tagged role state of a client. SessionID is set for
// publishers and subscribers, empty otherwise.
type Role struct {
	Kind      RoleKind
	SessionID string
}

// Client represents one live connection. It is created on websocket upgrade,
// owned by the RadarServer registry, and removed when its driver loop ends.
type Client struct {
	id      uint32
	address string

	send      chan *protocol.Message
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.RWMutex
	role Role
}

// newClient creates a client for a connection from the given address.
// The id is assigned by the registry on registration.
func newClient(address string) *Client {
	return &Client{
		address: address,
		send:    make(chan *protocol.Message, sendQueueSize),
		done:    make(chan struct{}),
	}
}

// ID returns the registry assigned client id
func (c *Client) ID() uint32 {
	return c.id
}

// Address returns the origin network address, informational only
func (c *Client) Address() string {
	return c.address
}

// Role returns the client's current role state
func (c *Client) Role() Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// setRole updates the client's role state. Callers hold the registry lock.
func (c *Client) setRole(role Role) {
	c.mu.Lock()
	c.role = role
	c.mu.Unlock()
}

// Send enqueues an outbound message, blocking while the queue is full.
// It fails once the client's connection bridge has shut down. The done
// check comes first so a closed client never wins the enqueue case.
func (c *Client) Send(msg *protocol.Message) error {
	select {
	case <-c.done:
		return errors.ErrClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errors.ErrClientClosed
	}
}

// TrySend enqueues an outbound message without blocking. A full queue or a
// torn down connection drops the message; this is the fanout delivery policy.
func (c *Client) TrySend(msg *protocol.Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close marks the connection as gone and unblocks pending senders.
// Called by the connection bridge exactly once during teardown.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
