package transport

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/time/rate"
)

// priority orders which messages get dropped first under backpressure
// (spec §4.4 "Backpressure": lowest-priority Ping messages are dropped;
// Input messages block on the queue and drain on subsequent ticks).
type priority int8

const (
	priorityPing priority = iota
	priorityControl
	priorityInput
)

func priorityOf(m Message) priority {
	switch m.Type {
	case MessagePing:
		return priorityPing
	case MessageClock, MessageRenegotiate:
		return priorityControl
	default:
		return priorityInput
	}
}

// DefaultPacerCapacityBytes and DefaultPacerRefillBytesPerSec are the
// spec §4.4 "Pacing" defaults: "capacity 16 KiB, refill 4 KiB/s".
const (
	DefaultPacerCapacityBytes     = 16 * 1024
	DefaultPacerRefillBytesPerSec = 4 * 1024
)

// Pacer is the byte-budget token-bucket send gate shared by every Peer
// backend (spec §4.4 "Pacing"), grounded on the teacher's
// IPRateLimiter (internal/api/ratelimit.go), which wraps
// golang.org/x/time/rate the same way: a rate.Limiter sized in request
// units there, sized in wire bytes here. Each message debits its own
// marshaled byte size from the bucket via WaitN/AllowN rather than a
// flat one-token-per-message cost, so a handful of large messages
// exhausts the budget exactly as fast as many small ones of the same
// total size.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given byte-budget capacity and
// refill rate (bytes/sec).
func NewPacer(capacityBytes, refillBytesPerSec float64) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(refillBytesPerSec), int(capacityBytes))}
}

// NewDefaultPacer creates a pacer using the spec's named defaults.
func NewDefaultPacer() *Pacer {
	return NewPacer(DefaultPacerCapacityBytes, DefaultPacerRefillBytesPerSec)
}

// messageCost estimates msg's wire size in bytes: the same JSON
// encoding every Peer backend actually puts on the wire (see
// localws.go's Send and webrtc.go's Send, both of which marshal msg
// before writing it).
func messageCost(msg Message) int {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return 0
	}
	n := len(encoded)
	if n == 0 {
		return 1
	}
	return n
}

// Admit reports whether msg may be sent right now, debiting its byte
// cost from the budget. Ping messages are dropped outright when the
// budget can't cover them; everything else blocks the caller until
// enough budget accrues or ctx is done.
func (p *Pacer) Admit(ctx context.Context, msg Message) error {
	cost := messageCost(msg)

	if priorityOf(msg) == priorityPing {
		if !p.limiter.AllowN(time.Now(), cost) {
			return ErrDropped
		}
		return nil
	}
	return p.limiter.WaitN(ctx, cost)
}

// AdmitTimeout is a convenience wrapper for callers that want a bounded
// wait instead of threading a context through.
func (p *Pacer) AdmitTimeout(msg Message, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.Admit(ctx, msg)
}
