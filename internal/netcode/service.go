// Package netcode is the host-facing facade (spec §6 "Host-facing
// API") that wires a transport.Peer to a rollback.Controller: it owns
// enabling/disabling a session, the once-per-frame Step driver, and the
// merged statistics surface.
package netcode

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fightnet/internal/input"
	"fightnet/internal/kernel"
	"fightnet/internal/rollback"
	"fightnet/internal/transport"
)

// delayRecalcEvery bounds how often maybeRecalcDelay recomputes the
// adaptive target from RTT/jitter, so Step doesn't redo the arithmetic
// every single frame.
const delayRecalcEvery = 15

// checksumSendEvery bounds how often a confirmed-frame checksum is
// exchanged for the desync diagnostic (spec §7: "not fully wired" by
// the distilled spec, supplemented here).
const checksumSendEvery = 30

// Stats is the merged read-only statistics surface: the controller's
// own counters (spec §4.5) plus the active peer's transport counters.
type Stats struct {
	rollback.Stats
	Transport transport.Stats
}

// Service is the host-facing netcode facade.
type Service struct {
	mu sync.Mutex

	controller *rollback.Controller
	peer       transport.Peer
	resequence *transport.Resequencer
	pacer      *transport.Pacer

	jitterBufferFrames int
	desiredDelay       int

	enabled bool

	framesSinceDelayRecalc  int
	framesSinceChecksumSend int
	onDesync                func(DesyncDetected)
}

// NewService creates a facade around a simulation seeded with initial.
func NewService(initial kernel.State, localIsP0 bool) *Service {
	return &Service{
		controller:         rollback.NewController(initial, rollback.Config{LocalIsP0: localIsP0}),
		resequence:         transport.NewResequencer(2),
		pacer:              transport.NewDefaultPacer(),
		jitterBufferFrames: 2,
		desiredDelay:       2,
	}
}

// EnableLocalP2 activates the session over an already-connected
// same-LAN peer (gorilla/websocket-backed transport.LocalWS, dialed or
// accepted by the caller — see cmd/fightnetd for the listener/dialer).
func (s *Service) EnableLocalP2(peer transport.Peer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return ErrAlreadyEnabled
	}
	s.peer = peer
	s.enabled = true
	return nil
}

// EnableWebRTC performs the offer/answer exchange over signaling and
// activates the session once the data channel is established.
func (s *Service) EnableWebRTC(signaling Signaling, isOfferer bool, iceServers []transport.ICEServerConfig) error {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return ErrAlreadyEnabled
	}
	s.mu.Unlock()

	if isOfferer {
		return s.enableWebRTCOfferer(signaling, iceServers)
	}
	return s.enableWebRTCAnswerer(signaling, iceServers)
}

func (s *Service) enableWebRTCOfferer(signaling Signaling, iceServers []transport.ICEServerConfig) error {
	peer, offerSDP, err := transport.NewWebRTCOfferer(iceServers)
	if err != nil {
		return fmt.Errorf("netcode: %w", err)
	}

	answerCh := make(chan string, 1)
	signaling.On(func(payload []byte) {
		var env signalingEnvelope
		if json.Unmarshal(payload, &env) == nil && env.Kind == signalingAnswer {
			select {
			case answerCh <- env.SDP:
			default:
			}
		}
	})

	envelope, err := json.Marshal(signalingEnvelope{Kind: signalingOffer, SDP: offerSDP})
	if err != nil {
		peer.Close()
		return err
	}
	if err := signaling.Send(envelope); err != nil {
		peer.Close()
		return fmt.Errorf("netcode: sending offer: %w", err)
	}

	select {
	case answer := <-answerCh:
		if err := peer.SetRemoteAnswer(answer); err != nil {
			peer.Close()
			return fmt.Errorf("netcode: %w: %v", ErrSessionLost, err)
		}
	case <-time.After(15 * time.Second):
		peer.Close()
		return ErrSessionLost
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = peer
	s.enabled = true
	return nil
}

func (s *Service) enableWebRTCAnswerer(signaling Signaling, iceServers []transport.ICEServerConfig) error {
	offerCh := make(chan string, 1)
	signaling.On(func(payload []byte) {
		var env signalingEnvelope
		if json.Unmarshal(payload, &env) == nil && env.Kind == signalingOffer {
			select {
			case offerCh <- env.SDP:
			default:
			}
		}
	})

	var offer string
	select {
	case offer = <-offerCh:
	case <-time.After(15 * time.Second):
		return ErrSessionLost
	}

	peer, answerSDP, err := transport.NewWebRTCAnswerer(offer, iceServers)
	if err != nil {
		return fmt.Errorf("netcode: %w", err)
	}

	envelope, err := json.Marshal(signalingEnvelope{Kind: signalingAnswer, SDP: answerSDP})
	if err != nil {
		peer.Close()
		return err
	}
	if err := signaling.Send(envelope); err != nil {
		peer.Close()
		return fmt.Errorf("netcode: sending answer: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = peer
	s.enabled = true
	return nil
}

// OnDesync registers a callback invoked when a peer's exchanged
// confirmed-frame checksum disagrees with the local one. The policy
// that follows (log it, end the match) belongs to the host, per spec
// §7's error taxonomy for desync.
func (s *Service) OnDesync(cb func(DesyncDetected)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDesync = cb
}

// Disable stops the session and releases the peer connection.
func (s *Service) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return nil
	}
	s.enabled = false
	peer := s.peer
	s.peer = nil
	if peer == nil {
		return nil
	}
	return peer.Close()
}

// Step pulls queued remote messages, reconciles the resequencer,
// pushes the local input, and advances the controller by one frame.
// Called once per host frame (spec §6 "NetcodeService.step()").
func (s *Service) Step(local input.PlayerInput) (kernel.State, error) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return kernel.State{}, ErrNotEnabled
	}
	peer := s.peer
	s.mu.Unlock()

	s.drainPeer(peer)

	for {
		in, frame, ok := s.resequence.Pop()
		if !ok {
			break
		}
		s.controller.ReceiveRemote(uint64(frame), input.Encode(in))
	}

	bits := input.Encode(local)
	frame, _ := s.controller.PushLocal(bits)

	msg := transport.Message{Type: transport.MessageInput, Frame: uint32(frame), Bits: bits}
	if err := s.pacer.AdmitTimeout(msg, 5*time.Millisecond); err == nil {
		_ = peer.Send(msg)
	}
	// Backpressure drop is silent per spec §5 "Backpressure": the
	// controller never blocks the simulation on send success.

	s.maybeRecalcDelay(peer)
	s.maybeSendChecksum(peer)

	return s.controller.Advance(), nil
}

func (s *Service) drainPeer(peer transport.Peer) {
	if peer == nil {
		return
	}
	for {
		select {
		case msg, ok := <-peer.Recv():
			if !ok {
				return
			}
			switch msg.Type {
			case transport.MessageInput:
				s.resequence.Push(msg.Frame, msg.Bits)
			case transport.MessageChecksum:
				s.checkPeerChecksum(msg.Frame, msg.Bits)
			}
		default:
			return
		}
	}
}

// checkPeerChecksum compares a peer-reported checksum for frame against
// the local snapshot checksum for the same frame, if still held in the
// rollback window, and fires onDesync on a mismatch.
func (s *Service) checkPeerChecksum(frame uint32, peerChecksum uint32) {
	local, ok := s.controller.SnapshotChecksum(uint64(frame))
	if !ok || local == peerChecksum {
		return
	}
	s.mu.Lock()
	cb := s.onDesync
	s.mu.Unlock()
	if cb != nil {
		cb(DesyncDetected{Frame: uint64(frame), LocalChecksum: local, PeerChecksum: peerChecksum})
	}
}

// maybeSendChecksum periodically exchanges the checksum of the newest
// confirmed frame so each side can detect a desync (spec §7).
func (s *Service) maybeSendChecksum(peer transport.Peer) {
	if peer == nil {
		return
	}
	s.framesSinceChecksumSend++
	if s.framesSinceChecksumSend < checksumSendEvery {
		return
	}
	s.framesSinceChecksumSend = 0

	// With a nonzero frame delay the newest confirmed remote frame lies
	// ahead of the snapshot ring, which only holds frames already
	// advanced past; cap it at the newest snapshotted frame.
	frame := s.controller.ConfirmedFrame()
	if cur := s.controller.Stats().CurrentFrame; frame >= cur {
		if cur == 0 {
			return
		}
		frame = cur - 1
	}
	checksum, ok := s.controller.SnapshotChecksum(frame)
	if !ok {
		return
	}
	msg := transport.Message{Type: transport.MessageChecksum, Frame: uint32(frame), Bits: checksum}
	_ = peer.Send(msg)
}

// maybeRecalcDelay implements spec §4.5 "Adaptive frame delay":
// frames ≈ round(rtt/50ms) + min(jitterBufferFrames, round(jitter/50ms)),
// clamped to [desiredDelay, 8].
func (s *Service) maybeRecalcDelay(peer transport.Peer) {
	if peer == nil {
		return
	}
	s.framesSinceDelayRecalc++
	if s.framesSinceDelayRecalc < delayRecalcEvery {
		return
	}
	s.framesSinceDelayRecalc = 0

	stats := peer.Stats()
	rttFrames := roundDiv(stats.RTTMillis, 50)
	jitterFrames := roundDiv(stats.JitterMillis, 50)
	if jitterFrames > s.jitterBufferFrames {
		jitterFrames = s.jitterBufferFrames
	}
	target := rttFrames + jitterFrames
	if target > 8 {
		target = 8
	}
	if target < s.desiredDelay {
		target = s.desiredDelay
	}
	s.controller.SetFrameDelay(target)
}

func roundDiv(v float64, by float64) int {
	return int((v / by) + 0.5)
}

// GetStats returns the merged controller + transport statistics.
func (s *Service) GetStats() (Stats, error) {
	s.mu.Lock()
	peer := s.peer
	enabled := s.enabled
	s.mu.Unlock()

	if !enabled {
		return Stats{}, ErrNotEnabled
	}

	out := Stats{Stats: s.controller.Stats()}
	if peer != nil {
		out.Transport = peer.Stats()
	}
	rs := s.resequence.Stats()
	out.Transport.OutOfOrderCount = rs.OutOfOrderCount
	out.Transport.LossSuspectCount = rs.LossSuspectCount
	return out, nil
}

// SetDesiredDelay sets the floor frame delay (spec: "the floor exposed
// to users, default 2").
func (s *Service) SetDesiredDelay(frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desiredDelay = frames
	s.controller.SetDesiredDelay(frames)
}

// SetJitterBuffer sets both the resequencer's lookahead window and the
// cap applied to the jitter term of the adaptive delay formula.
func (s *Service) SetJitterBuffer(frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jitterBufferFrames = frames
	s.resequence = transport.NewResequencer(frames)
}
