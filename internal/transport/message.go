package transport

// MessageType tags the union of wire messages a Peer exchanges (spec
// §6 "Wire formats"). JSON-tagged fields are stable wire names, kept
// short to match the teacher's convention of terse over-the-wire JSON
// keys in internal/game/event.go's outbound payloads.
type MessageType string

const (
	MessageInput       MessageType = "i"
	MessagePing        MessageType = "p"
	MessageClock       MessageType = "clock"
	MessageRenegotiate MessageType = "renegotiate"
	MessageChecksum    MessageType = "c"
)

// Message is the envelope every Peer implementation sends and
// receives. Only the fields relevant to Type are populated.
type Message struct {
	Type MessageType `json:"t"`

	// Input
	Frame uint32 `json:"f,omitempty"`
	Bits  uint32 `json:"b,omitempty"`

	// Ping
	Timestamp float64 `json:"ts,omitempty"`
	Echo      bool    `json:"echo,omitempty"`

	// Clock
	Phase string  `json:"phase,omitempty"`
	Now   float64 `json:"now,omitempty"`
}

// Stats is the read-only per-peer telemetry surface (spec §4.4 /
// §4.5), returned by Peer.Stats and merged into netcode.Service.GetStats.
// It is not fed into internal/observability's Prometheus collectors.
type Stats struct {
	RTTMillis    float64
	JitterMillis float64
	PacketsSent  uint64
	PacketsRecv  uint64
	PacketsLost  uint64
	Reconnects   uint64

	// BytesTx and BytesRx are the wire-encoded byte totals sent/received
	// on this peer (spec §4.5 "Statistics": "bytesTx, bytesRx").
	BytesTx uint64
	BytesRx uint64

	// OutOfOrderCount and LossSuspectCount mirror the resequencer's
	// same-named counters (spec §4.4 "Ordering & loss counters"),
	// merged in by netcode.Service.GetStats.
	OutOfOrderCount  uint64
	LossSuspectCount uint64
}

// Peer is the transport-agnostic link the rollback controller drives.
// Two concrete implementations exist: LocalWS (same-process/loopback,
// gorilla/websocket) and WebRTC (pion/webrtc, peer-to-peer).
type Peer interface {
	Send(Message) error
	Recv() <-chan Message
	Stats() Stats
	Close() error
}
