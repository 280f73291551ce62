// Package protocol provides message types for the radar relay protocol.
// It defines the message envelope, payloads, and utilities used for
// communication between the server and publisher/subscriber clients.
package protocol
