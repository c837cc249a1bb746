// Package ipc is the message bus between the runner (tray-owning)
// process and the settings process. One process listens on a named
// local endpoint; the others connect as clients, retrying with backoff
// when the listener is not up yet. Messages are length-prefixed frames
// with a one-byte discriminant tag and a JSON payload. Delivery is FIFO
// per connection and at-most-once: a successful send means the bytes
// reached the transport, not that the peer acted on them.
package ipc
