package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// localWSUpgrader mirrors the teacher's upgrader (internal/api/websocket.go):
// generous buffers, and a CheckOrigin that accepts every origin, since
// this package has no notion of the host application's configured
// origins.
var localWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LocalWS is a Peer backed by a single gorilla/websocket connection —
// the same-process or same-LAN transport, as opposed to WebRTC's
// internet peer-to-peer path. Grounded on the teacher's WebSocketHub,
// narrowed from "broadcast hub serving many spectators" to "one
// connection serving one opposing player".
type LocalWS struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	recvCh  chan Message
	closeCh chan struct{}
	closed  int32

	sent, recv, lost uint64
	reconnects       uint64
	bytesTx, bytesRx uint64

	sync *ClockSync
}

// DialLocalWS opens a client-side connection to a LocalWS listener.
func DialLocalWS(url string, dialTimeout time.Duration) (*LocalWS, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return newLocalWS(conn), nil
}

// AcceptLocalWS upgrades an incoming HTTP request to a LocalWS peer,
// grounded on the teacher's HandleWebSocket.
func AcceptLocalWS(w http.ResponseWriter, r *http.Request) (*LocalWS, error) {
	conn, err := localWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newLocalWS(conn), nil
}

func newLocalWS(conn *websocket.Conn) *LocalWS {
	p := &LocalWS{
		conn:    conn,
		recvCh:  make(chan Message, 256),
		closeCh: make(chan struct{}),
		sync:    NewClockSync(),
	}
	go p.readLoop()
	return p
}

func (p *LocalWS) readLoop() {
	defer close(p.recvCh)
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			atomic.AddUint64(&p.lost, 1)
			continue
		}
		atomic.AddUint64(&p.recv, 1)
		atomic.AddUint64(&p.bytesRx, uint64(len(raw)))
		select {
		case p.recvCh <- msg:
		case <-p.closeCh:
			return
		}
	}
}

// Send writes msg as a single JSON text frame.
func (p *LocalWS) Send(msg Message) error {
	if atomic.LoadInt32(&p.closed) != 0 {
		return ErrClosed
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
		return err
	}
	atomic.AddUint64(&p.sent, 1)
	atomic.AddUint64(&p.bytesTx, uint64(len(encoded)))
	return nil
}

// Recv returns the channel of decoded inbound messages.
func (p *LocalWS) Recv() <-chan Message {
	return p.recvCh
}

// Stats reports point-in-time counters plus the live RTT/jitter
// estimate from this peer's ClockSync.
func (p *LocalWS) Stats() Stats {
	return Stats{
		RTTMillis:    p.sync.RTTMillis(),
		JitterMillis: p.sync.JitterMillis(),
		PacketsSent:  atomic.LoadUint64(&p.sent),
		PacketsRecv:  atomic.LoadUint64(&p.recv),
		PacketsLost:  atomic.LoadUint64(&p.lost),
		Reconnects:   atomic.LoadUint64(&p.reconnects),
		BytesTx:      atomic.LoadUint64(&p.bytesTx),
		BytesRx:      atomic.LoadUint64(&p.bytesRx),
	}
}

// ClockSync exposes the peer's RTT/jitter/offset tracker so a caller
// can feed it Ping/Clock round trips observed on Recv().
func (p *LocalWS) ClockSync() *ClockSync {
	return p.sync
}

// Close terminates the connection and stops the read loop.
func (p *LocalWS) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	close(p.closeCh)
	return p.conn.Close()
}

var _ Peer = (*LocalWS)(nil)
