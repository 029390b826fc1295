package netcode

// Signaling is the opaque bidirectional message bus the host application
// wires up to its preferred signaling server (spec §6 "Signaling"): the
// core only emits and consumes SDP/ICE JSON payloads through it and
// never opens a connection of its own.
type Signaling interface {
	Send(payload []byte) error
	On(handler func(payload []byte))
}

// signalingEnvelope tags which half of the offer/answer/ICE exchange a
// payload carries, since Signaling.Send/On move raw bytes rather than a
// typed union.
type signalingKind string

// Vanilla (non-trickle) ICE only: WebRTC.go waits on
// webrtc.GatheringCompletePromise before the SDP is considered final,
// so all candidates are already embedded by the time an offer or
// answer crosses this bus — there's no separate candidate kind to
// carry.
const (
	signalingOffer  signalingKind = "offer"
	signalingAnswer signalingKind = "answer"
)

type signalingEnvelope struct {
	Kind signalingKind `json:"kind"`
	SDP  string        `json:"sdp,omitempty"`
}
