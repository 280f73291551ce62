package server

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/auyylaso/Valthrun/pkg/errors"
	"github.com/auyylaso/Valthrun/pkg/logger"
	"github.com/auyylaso/Valthrun/pkg/protocol"
)

// Event is one entry of a connection's inbound event sequence. Exactly one
// field is set: a decoded message, a receive error, or a send error. Error
// events are terminal for the connection.
type Event struct {
	Message *protocol.Message
	RecvErr error
	SendErr error
}

// bridge adapts one websocket connection to a typed event sequence. A reader
// pump decodes incoming text frames into Events and a writer pump drains the
// client's outbound queue onto the wire. The bridge ends as soon as either
// pump ends; the events channel is closed only after both have stopped.
type bridge struct {
	conn   *websocket.Conn
	client *Client
	events chan Event
	log    *logger.Logger
}

// newBridge creates a bridge for the given connection and client
func newBridge(conn *websocket.Conn, client *Client) *bridge {
	return &bridge{
		conn:   conn,
		client: client,
		events: make(chan Event, sendQueueSize),
		log:    logger.Get(),
	}
}

// Events returns the inbound event sequence consumed by the driver loop
func (b *bridge) Events() <-chan Event {
	return b.events
}

// run pumps the connection until either direction fails, then tears down.
// After both pumps have stopped a synthetic disconnect event is injected so
// the consumer observes a uniform terminal signal, and the event channel is
// closed. Blocks until teardown is complete.
func (b *bridge) run() {
	readDone := make(chan struct{})
	writeDone := make(chan struct{})

	go func() {
		defer close(readDone)
		b.readPump()
	}()
	go func() {
		defer close(writeDone)
		b.writePump()
	}()

	// First pump to finish ends the bridge; the other is unblocked by
	// closing the client and the connection.
	select {
	case <-readDone:
	case <-writeDone:
	}

	b.client.close()
	b.conn.Close()
	<-readDone
	<-writeDone

	// Both pumps have stopped, nothing else writes to events. The consumer
	// may already be gone, so never block here.
	select {
	case b.events <- Event{RecvErr: errors.ErrClientDisconnected}:
	default:
	}
	close(b.events)
}

// readPump decodes incoming text frames into message events. Non-text
// frames are ignored. A transport or decode error emits a terminal receive
// error and ends the pump.
func (b *bridge) readPump() {
	for {
		frameType, data, err := b.conn.ReadMessage()
		if err != nil {
			b.log.DebugWith("read pump terminated", "address", b.client.Address(), "error", err)
			b.emit(Event{RecvErr: err})
			return
		}

		if frameType != websocket.TextMessage {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.DebugWith("failed to decode client message", "address", b.client.Address(), "error", err)
			b.emit(Event{RecvErr: err})
			return
		}

		b.emit(Event{Message: &msg})
	}
}

// writePump drains the client's outbound queue and writes each message as a
// text frame. An encode or transport error emits a terminal send error and
// ends the pump.
func (b *bridge) writePump() {
	for {
		select {
		case msg := <-b.client.send:
			data, err := json.Marshal(msg)
			if err != nil {
				b.log.DebugWith("failed to encode outbound message", "address", b.client.Address(), "error", err)
				b.emit(Event{SendErr: err})
				return
			}
			if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.log.DebugWith("write pump terminated", "address", b.client.Address(), "error", err)
				b.emit(Event{SendErr: err})
				return
			}
		case <-b.client.done:
			return
		}
	}
}

// emit forwards an event to the consumer, aborting if the bridge is being
// torn down while the event queue is full.
func (b *bridge) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.client.done:
	}
}
