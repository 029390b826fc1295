package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v3"
)

// ICEServerConfig names a STUN/TURN server, mirrored from the
// LanternOps remote-desktop session manager's ICEServerConfig.
type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

func parseICEServers(raw []ICEServerConfig) []webrtc.ICEServer {
	if len(raw) == 0 {
		return []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}
	servers := make([]webrtc.ICEServer, 0, len(raw))
	for _, r := range raw {
		s := webrtc.ICEServer{URLs: r.URLs}
		if r.Username != "" {
			s.Username = r.Username
			s.Credential = r.Credential
			s.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, s)
	}
	return servers
}

// WebRTC is a Peer backed by a single ordered, reliable pion data
// channel named "match" carrying JSON-encoded Message frames — the
// internet-capable peer-to-peer backend, as opposed to LocalWS's
// single-hop websocket. Grounded on the LanternOps-breeze session's
// PeerConnection/DataChannel setup, narrowed from "video + audio +
// cursor + control channels" to one channel carrying game messages.
type WebRTC struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	recvCh  chan Message
	closeCh chan struct{}
	closed  int32

	writeMu          sync.Mutex
	sent, recv, lost uint64
	reconnects       uint64
	bytesTx, bytesRx uint64

	sync *ClockSync
}

// NewWebRTCOfferer creates a PeerConnection and data channel, and
// returns the local SDP offer to be sent to the remote peer through
// the out-of-band signaling bus (spec §6 "Signaling").
func NewWebRTCOfferer(iceServers []ICEServerConfig) (*WebRTC, string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: parseICEServers(iceServers)})
	if err != nil {
		return nil, "", fmt.Errorf("transport: new peer connection: %w", err)
	}

	dc, err := pc.CreateDataChannel("match", nil)
	if err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("transport: create data channel: %w", err)
	}

	w := newWebRTC(pc, dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		w.Close()
		return nil, "", fmt.Errorf("transport: create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		w.Close()
		return nil, "", fmt.Errorf("transport: set local description: %w", err)
	}
	<-gatherComplete

	encoded, err := json.Marshal(pc.LocalDescription())
	if err != nil {
		w.Close()
		return nil, "", err
	}
	return w, string(encoded), nil
}

// NewWebRTCAnswerer accepts a remote SDP offer, wires up the "match"
// data channel once the remote creates it, and returns the local SDP
// answer to send back through signaling.
func NewWebRTCAnswerer(offerSDP string, iceServers []ICEServerConfig) (*WebRTC, string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: parseICEServers(iceServers)})
	if err != nil {
		return nil, "", fmt.Errorf("transport: new peer connection: %w", err)
	}

	w := &WebRTC{pc: pc, recvCh: make(chan Message, 256), closeCh: make(chan struct{}), sync: NewClockSync()}

	ready := make(chan struct{})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		w.attach(dc)
		close(ready)
	})

	var offer webrtc.SessionDescription
	if err := json.Unmarshal([]byte(offerSDP), &offer); err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("transport: decode offer: %w", err)
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("transport: set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("transport: create answer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, "", fmt.Errorf("transport: set local description: %w", err)
	}
	<-gatherComplete

	encoded, err := json.Marshal(pc.LocalDescription())
	if err != nil {
		pc.Close()
		return nil, "", err
	}
	return w, string(encoded), nil
}

func newWebRTC(pc *webrtc.PeerConnection, dc *webrtc.DataChannel) *WebRTC {
	w := &WebRTC{pc: pc, recvCh: make(chan Message, 256), closeCh: make(chan struct{}), sync: NewClockSync()}
	w.attach(dc)
	return w
}

func (w *WebRTC) attach(dc *webrtc.DataChannel) {
	w.dc = dc
	dc.OnMessage(func(raw webrtc.DataChannelMessage) {
		var msg Message
		if err := json.Unmarshal(raw.Data, &msg); err != nil {
			atomic.AddUint64(&w.lost, 1)
			return
		}
		atomic.AddUint64(&w.recv, 1)
		atomic.AddUint64(&w.bytesRx, uint64(len(raw.Data)))
		select {
		case w.recvCh <- msg:
		case <-w.closeCh:
		}
	})
	dc.OnClose(func() {
		atomic.AddUint64(&w.reconnects, 0) // reconnection is driven by the caller re-running the offer/answer exchange
	})
}

// SetRemoteAnswer completes the offerer side of the handshake once the
// answer arrives back over signaling.
func (w *WebRTC) SetRemoteAnswer(answerSDP string) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal([]byte(answerSDP), &answer); err != nil {
		return fmt.Errorf("transport: decode answer: %w", err)
	}
	return w.pc.SetRemoteDescription(answer)
}

// AddICECandidate feeds a trickled ICE candidate received via signaling.
func (w *WebRTC) AddICECandidate(candidate string) error {
	return w.pc.AddICECandidate(webrtc.ICECandidateInit{Candidate: candidate})
}

// Send marshals msg to JSON and writes it as one data channel message.
func (w *WebRTC) Send(msg Message) error {
	if atomic.LoadInt32(&w.closed) != 0 {
		return ErrClosed
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.dc.Send(encoded); err != nil {
		return err
	}
	atomic.AddUint64(&w.sent, 1)
	atomic.AddUint64(&w.bytesTx, uint64(len(encoded)))
	return nil
}

// Recv returns the channel of decoded inbound messages.
func (w *WebRTC) Recv() <-chan Message {
	return w.recvCh
}

// Stats reports point-in-time counters plus the live RTT/jitter
// estimate from this peer's ClockSync.
func (w *WebRTC) Stats() Stats {
	return Stats{
		RTTMillis:    w.sync.RTTMillis(),
		JitterMillis: w.sync.JitterMillis(),
		PacketsSent:  atomic.LoadUint64(&w.sent),
		PacketsRecv:  atomic.LoadUint64(&w.recv),
		PacketsLost:  atomic.LoadUint64(&w.lost),
		Reconnects:   atomic.LoadUint64(&w.reconnects),
		BytesTx:      atomic.LoadUint64(&w.bytesTx),
		BytesRx:      atomic.LoadUint64(&w.bytesRx),
	}
}

// ClockSync exposes the peer's RTT/jitter/offset tracker so a caller
// can feed it Ping/Clock round trips observed on Recv().
func (w *WebRTC) ClockSync() *ClockSync {
	return w.sync
}

// Close tears down the data channel and the underlying connection.
func (w *WebRTC) Close() error {
	if !atomic.CompareAndSwapInt32(&w.closed, 0, 1) {
		return nil
	}
	close(w.closeCh)
	if w.dc != nil {
		w.dc.Close()
	}
	return w.pc.Close()
}

var _ Peer = (*WebRTC)(nil)
