package netcode

import "errors"

// Error taxonomy per spec §7 "Error Handling Design": transient network
// conditions never surface past the transport, the kernel never fails,
// and the controller surfaces only these terminal/diagnostic conditions
// to the host.
var (
	// ErrSessionLost is returned by EnableWebRTC when the offer/answer
	// exchange does not complete within 15 seconds or the remote answer
	// cannot be applied. No reconnect or renegotiation is attempted, and
	// Step does not return it once a session is established.
	ErrSessionLost = errors.New("netcode: session lost")

	// ErrNotEnabled is returned by Step/GetStats when called before
	// EnableLocalP2 or EnableWebRTC.
	ErrNotEnabled = errors.New("netcode: not enabled")

	// ErrAlreadyEnabled is returned when Enable* is called while a
	// session is already active.
	ErrAlreadyEnabled = errors.New("netcode: already enabled")
)

// DesyncDetected is the diagnostic event emitted when a confirmed
// remote checksum disagrees with the local one at the same frame.
// Policy on what to do about it (log, end the match, force a resync)
// is host-defined; this package only reports it.
type DesyncDetected struct {
	Frame         uint64
	LocalChecksum uint32
	PeerChecksum  uint32
}

func (d DesyncDetected) Error() string {
	return "netcode: desync detected"
}
