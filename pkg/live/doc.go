// Package live serves attribute reconciliation over WebSocket.
//
// A client opens /ws and sends desired element state as JSON text frames:
//
//	{"hid": "h1", "tag": "input", "attrs": {"value": "hi", "class": "field"}}
//
// Each desired-state message is answered with exactly one binary patches
// frame (see package protocol) holding the mutations that bring the client
// element in line. A message with "remove": true forgets the element.
//
// The client reports state the server does not own (focus, class edits made
// by client code) in binary reports frames. Reports are not answered unless
// they are invalid.
//
// Invalid messages and rejected attribute values produce a non-fatal error
// frame. Reconciler configuration errors produce a fatal error frame and the
// session is closed.
//
// The router also exposes /metrics (Prometheus) and /healthz.
package live
