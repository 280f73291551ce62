package errors

import "errors"

// Server lifecycle errors
var (
	// ErrServerAlreadyStarted is returned when ListenHTTP is called twice
	ErrServerAlreadyStarted = errors.New("www already started")

	// ErrBundledNotSupported is returned for the bundled static serving mode
	ErrBundledNotSupported = errors.New("bundled is currently not supported")
)

// Connection errors
var (
	// ErrClientDisconnected is the terminal event injected when a
	// connection bridge shuts down
	ErrClientDisconnected = errors.New("client disconnected")

	// ErrClientClosed is returned when enqueueing a message to a client
	// whose connection has already been torn down
	ErrClientClosed = errors.New("client connection closed")
)
