// Package jwt issues and verifies the HS512 access tokens shared by the REST API,
// the SSE stream and the websocket handshake.
//
// Tokens arrive in the Authorization header; socket clients that cannot set headers
// may pass them as the access_token query parameter instead. Verified claims travel
// on the request context.
package jwt
