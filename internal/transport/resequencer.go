package transport

import (
	"sort"
	"sync"

	"fightnet/internal/input"
)

// maxPendingFrames is the spec §4.4 "Resequencer" bound: "the pending
// buffer is bounded (≤64) and flushed on overflow".
const maxPendingFrames = 64

// Resequencer reorders inbound Input messages into strict frame order
// and conceals gaps left by loss or reordering (spec §4.4 "Loss
// concealment"): a missing frame's input is synthesized by repeating
// the last delivered input rather than stalling the pipeline, matching
// the spec's "hold last known input" concealment rule. Arriving-late
// packets that duplicate an already-delivered frame are discarded.
type Resequencer struct {
	mu sync.Mutex

	bufferFrames int // how many frames ahead of nextWant to hold before giving up and concealing

	nextWant uint32
	started  bool
	pending  map[uint32]input.PlayerInput
	lastSeen input.PlayerInput

	delivered   uint64
	concealed   uint64
	duplicates  uint64
	reordered   uint64
	flushed     uint64
	maxObserved uint32

	// lastRecvFrame, outOfOrderCount and lossSuspectCount implement the
	// exact per-peer counters spec §4.4 "Ordering & loss counters"
	// names: outOfOrderCount counts frames received with f <=
	// lastRecvFrame; lossSuspectCount sums gaps > 1 between successive
	// highest-seen frames.
	lastRecvFrame    uint32
	outOfOrderCount  uint64
	lossSuspectCount uint64
}

// NewResequencer creates a resequencer that holds up to bufferFrames of
// lookahead before conceding a gap and synthesizing concealment input.
func NewResequencer(bufferFrames int) *Resequencer {
	if bufferFrames < 0 {
		bufferFrames = 0
	}
	return &Resequencer{
		bufferFrames: bufferFrames,
		pending:      make(map[uint32]input.PlayerInput),
	}
}

// Push admits a received (frame, bits) pair. Bits are decoded via
// internal/input.Decode before buffering.
func (r *Resequencer) Push(frame uint32, bits uint32) {
	in := input.Decode(bits)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.nextWant = frame
		r.started = true
		r.lastRecvFrame = frame
	} else if frame <= r.lastRecvFrame {
		r.outOfOrderCount++
	} else {
		if gap := int64(frame) - int64(r.lastRecvFrame); gap > 1 {
			r.lossSuspectCount += uint64(gap - 1)
		}
		r.lastRecvFrame = frame
	}

	if frame < r.nextWant {
		r.duplicates++
		return
	}
	if _, exists := r.pending[frame]; exists {
		r.duplicates++
		return
	}
	if frame > r.maxObserved {
		r.maxObserved = frame
	}
	if frame != r.nextWant {
		r.reordered++
	}
	r.pending[frame] = in

	if len(r.pending) > maxPendingFrames {
		r.flushLocked()
	}
}

// flushLocked discards every buffered frame once the pending set grows
// past maxPendingFrames, jumping the sequence forward to the newest
// observed frame instead of letting the map grow unbounded (spec §4.4:
// "flushed on overflow"). The newest frame's input becomes the
// concealment input for whatever gap this leaves behind.
func (r *Resequencer) flushLocked() {
	newest := r.pending[r.maxObserved]
	r.pending = make(map[uint32]input.PlayerInput)
	r.lastSeen = newest
	r.nextWant = r.maxObserved + 1
	r.flushed++
}

// Pop returns the next frame's input in strict sequence. ok is false
// only when nothing is available yet and the buffer hasn't accumulated
// enough lookahead to justify concealing (caller should wait for more
// Push calls). When a gap is conceded, the returned input is the last
// delivered one (or the zero value before any frame has ever arrived).
func (r *Resequencer) Pop() (in input.PlayerInput, frame uint32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return input.PlayerInput{}, 0, false
	}

	if got, exists := r.pending[r.nextWant]; exists {
		delete(r.pending, r.nextWant)
		r.lastSeen = got
		r.delivered++
		frame = r.nextWant
		r.nextWant++
		return got, frame, true
	}

	if int(r.maxObserved)-int(r.nextWant) >= r.bufferFrames && r.maxObserved >= r.nextWant {
		r.concealed++
		frame = r.nextWant
		r.nextWant++
		return r.lastSeen, frame, true
	}

	return input.PlayerInput{}, 0, false
}

// PendingFrames returns the currently buffered frame numbers, sorted,
// for diagnostics.
func (r *Resequencer) PendingFrames() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, 0, len(r.pending))
	for f := range r.pending {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResequencerStats is a snapshot of delivery counters for observability.
type ResequencerStats struct {
	Delivered  uint64
	Concealed  uint64
	Duplicates uint64
	Reordered  uint64
	Flushed    uint64

	// OutOfOrderCount and LossSuspectCount are spec §4.4's exact named
	// counters, surfaced to the host via netcode.Service.GetStats.
	OutOfOrderCount  uint64
	LossSuspectCount uint64
}

// Stats returns the current delivery counters.
func (r *Resequencer) Stats() ResequencerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ResequencerStats{
		Delivered:        r.delivered,
		Concealed:        r.concealed,
		Duplicates:       r.duplicates,
		Reordered:        r.reordered,
		Flushed:          r.flushed,
		OutOfOrderCount:  r.outOfOrderCount,
		LossSuspectCount: r.lossSuspectCount,
	}
}
