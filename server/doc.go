// Package server implements the radar relay core: the client and session
// registries, the per-connection bridge between the websocket transport and
// typed message events, and the best-effort broadcast fanout.
//
// One publisher connection owns a session identified by a short random code;
// any number of subscriber connections join that session and receive the
// publisher's radar state together with viewer count notifications. Sessions
// live exactly as long as their publisher's connection.
//
// Locking discipline: the RadarServer mutex guards both registries and is
// always acquired before any per-client mutex, never the reverse. Broadcasts
// to a session's subscribers never block; the per-connection outbound queue
// does. The two policies are deliberately distinct so a slow subscriber can
// never stall its publisher.
package server
