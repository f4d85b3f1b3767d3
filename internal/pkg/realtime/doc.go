// Package realtime pushes envelopes to connected learners.
//
// A Hub keys subscribers by user id; the channel of a user is "recipient:<id>". Websocket
// connections (Server) and SSE streams both subscribe to the same Hub, and every send is
// best effort: a user without subscribers is a silent miss and a full per-connection
// queue drops the envelope. The Hub is process local.
package realtime
