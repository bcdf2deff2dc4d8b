// Package bridge implements the server-side HTTP surface of the
// session-synchronization core.
//
// # Endpoints
//
//	POST /auth/set-session   materialize a token pair into session cookies
//	any  /protected          verify a bearer token, respond with the principal
//	GET  /health             liveness
//	GET  /health/ready       degraded when no backend is configured
//
// The cookie issuer is the sole path from client-held tokens into a transport
// a server-rendering layer can read. The protected endpoint is the choke
// point for guarded resources: verification is remote on every request, with
// no validity cache, and every failure branch answers with a fixed JSON body
// and status — never internal detail.
package bridge
