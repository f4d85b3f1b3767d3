// Package liveclient keeps a local view of a learner's live progress in sync with the server.
//
// A Manager owns the websocket session and its reconnects, a Router applies pushed events to
// the Store in arrival order, and a Coordinator pulls the authoritative stats over REST on
// connect, on demand and on a fallback timer.
package liveclient
