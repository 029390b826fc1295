package transport

import "errors"

var (
	// ErrDropped is returned when a low-priority message (currently only
	// Ping) is shed under backpressure instead of queued.
	ErrDropped = errors.New("transport: message dropped under backpressure")

	// ErrClosed is returned by Send once a Peer has been Closed.
	ErrClosed = errors.New("transport: peer closed")

	// ErrHandshakeTimeout names a backend failing to establish its
	// connection (WS upgrade, ICE negotiation) within its deadline.
	// Neither LocalWS nor WebRTC returns it; their constructors pass the
	// underlying error through.
	ErrHandshakeTimeout = errors.New("transport: handshake timed out")

	// ErrInvalidEnvelope is returned by Crypto.Open on a malformed or
	// tampered FGEC envelope.
	ErrInvalidEnvelope = errors.New("transport: invalid encrypted envelope")
)
