// Package server runs live sessions over WebSocket.
//
// Each connection gets its own reactive runtime and host document. The
// session's root content is mounted on the runtime loop; client events are
// posted to the same loop, resolved by hydration ID, and run through the
// middleware chain. After every execution unit that mutated the document
// the session sends the rendered HTML to the client.
//
// # Protocol
//
// Frames are JSON text messages.
//
// Client to server:
//
//	{"type":"event","hid":"h3","event":"click","value":""}
//	{"type":"ping"}
//
// Server to client:
//
//	{"type":"render","seq":1,"html":"<main>...</main>","mutations":2}
//	{"type":"error","code":"E060","message":"..."}
//	{"type":"pong"}
//
// # Routes
//
//	GET /          page shell with the first render and the client script
//	GET /ws        live session
//	GET /snapshot  one-off render of the root as HTML
//	GET /healthz   liveness
package server
