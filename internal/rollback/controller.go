// Package rollback implements the predict/confirm/rewind loop that
// drives the simulation kernel over a lossy transport: buffer local
// inputs with a frame delay, guess remote inputs until the confirmed
// value arrives, and rewind-and-resimulate when a guess turns out
// wrong. See Controller.
package rollback

import (
	"sync"

	"fightnet/internal/input"
	"fightnet/internal/kernel"
	"fightnet/internal/snapshot"
)

const (
	minFrameDelay = 0
	maxFrameDelay = 10

	defaultMaxRollback  = 150 // ≈2.5s at 60Hz
	defaultMaxSnapshots = defaultMaxRollback
)

// Stats mirrors spec §4.5's read-only statistics struct.
type Stats struct {
	FrameDelay           int
	Rollbacks            uint64
	TotalRollbackFrames  uint64
	MaxRollbackSpan      int
	CurrentFrame         uint64
	ConfirmedRemoteFrame uint64
}

// side selects which of the kernel's two character slots this
// controller's local player occupies (localSide); the remote player
// occupies the other one.
type side int8

const (
	sideP0 side = iota
	sideP1
)

// Controller owns the simulation clock, the local/remote input
// history, the snapshot ring, and the rollback bookkeeping. It is
// single-threaded by contract (spec §5 "Scheduling"): Advance and
// PushLocal are driven from one cooperative worker, and remote inputs
// arrive through ReceiveRemote which the caller must only invoke from
// that same worker (the transport's own receive goroutine must stage
// them elsewhere and hand off, per spec §5 "Shared resources").
type Controller struct {
	mu sync.Mutex

	localSide side

	state State

	localInputs     map[uint64]uint32
	remoteInputs    map[uint64]uint32
	predictedRemote map[uint64]uint32

	snapshots map[uint64]snapshotEntry

	currentFrame         uint64
	confirmedRemoteFrame uint64
	lastConfirmedBits    uint32

	frameDelay   int
	desiredDelay int
	maxRollback  int
	maxSnapshots int

	stats Stats
}

// State is the minimal view of kernel.State a Controller advances;
// kept as a type alias point so callers don't need to import kernel
// directly just to hold a Controller.
type State = kernel.State

type snapshotEntry struct {
	blob     []byte
	checksum uint32
}

// Config tunes a new Controller. A zero MaxRollback falls back to
// defaultMaxRollback; a zero FrameDelay means no frame delay.
type Config struct {
	LocalIsP0   bool
	MaxRollback int // 0 => defaultMaxRollback
	FrameDelay  int // clamped to [0,10]
}

// NewController creates a controller seeded with initial and the
// given configuration.
func NewController(initial kernel.State, cfg Config) *Controller {
	maxRollback := cfg.MaxRollback
	if maxRollback <= 0 {
		maxRollback = defaultMaxRollback
	}
	delay := clampInt(cfg.FrameDelay, minFrameDelay, maxFrameDelay)

	ls := sideP0
	if !cfg.LocalIsP0 {
		ls = sideP1
	}

	c := &Controller{
		localSide:       ls,
		state:           initial,
		localInputs:     make(map[uint64]uint32),
		remoteInputs:    make(map[uint64]uint32),
		predictedRemote: make(map[uint64]uint32),
		snapshots:       make(map[uint64]snapshotEntry),
		frameDelay:      delay,
		desiredDelay:    delay,
		maxRollback:     maxRollback,
		maxSnapshots:    maxRollback,
	}
	return c
}

// PushLocal assigns bits to localInputs[currentFrame+frameDelay]; the
// caller is responsible for also sending (frame, bits) to the
// transport (the Controller doesn't own a Peer directly — see
// internal/netcode, which wires the two together).
func (c *Controller) PushLocal(bits uint32) (frame uint64, delay int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame = c.currentFrame + uint64(c.frameDelay)
	c.localInputs[frame] = bits
	return frame, c.frameDelay
}

// ReceiveRemote records a confirmed remote input for frame f.
func (c *Controller) ReceiveRemote(f uint64, bits uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteInputs[f] = bits
	if f >= c.confirmedRemoteFrame {
		c.confirmedRemoteFrame = f
		c.lastConfirmedBits = bits
	}
}

// SetFrameDelay clamps and applies a new frame delay, per spec's
// adaptive-delay mechanism (the caller computes the target value from
// transport RTT/jitter; see internal/netcode).
func (c *Controller) SetFrameDelay(frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameDelay = clampInt(frames, c.desiredDelay, maxFrameDelay)
}

// SetDesiredDelay sets the floor below which adaptive delay never
// drops (spec: "desiredDelay is the floor exposed to users").
func (c *Controller) SetDesiredDelay(frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desiredDelay = clampInt(frames, minFrameDelay, maxFrameDelay)
	if c.frameDelay < c.desiredDelay {
		c.frameDelay = c.desiredDelay
	}
}

// Advance runs one iteration of the per-frame algorithm (spec §4.5
// steps 1-6): snapshot, resolve inputs, step the kernel, advance the
// clock, then scan for and execute a rollback if a prediction was
// wrong.
func (c *Controller) Advance() kernel.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saveSnapshotLocked(c.currentFrame)
	c.pruneSnapshotsLocked()

	localBits := c.localInputs[c.currentFrame]
	remoteBits := c.resolveRemoteLocked(c.currentFrame)

	c.state = stepWithSide(c.state, c.localSide, localBits, remoteBits)
	c.currentFrame++

	c.reconcileLocked()

	c.stats = Stats{
		FrameDelay:           c.frameDelay,
		Rollbacks:            c.stats.Rollbacks,
		TotalRollbackFrames:  c.stats.TotalRollbackFrames,
		MaxRollbackSpan:      c.stats.MaxRollbackSpan,
		CurrentFrame:         c.currentFrame,
		ConfirmedRemoteFrame: c.confirmedRemoteFrame,
	}
	return c.state
}

// resolveRemoteLocked implements step 3: confirmed bits win; else a
// previously stored prediction; else the last confirmed bits; else 0.
// The chosen guess is stored back as the prediction for f.
func (c *Controller) resolveRemoteLocked(f uint64) uint32 {
	if bits, ok := c.remoteInputs[f]; ok {
		return bits
	}
	if bits, ok := c.predictedRemote[f]; ok {
		return bits
	}
	guess := c.lastConfirmedBits
	c.predictedRemote[f] = guess
	return guess
}

// reconcileLocked implements step 6: scan the rollback window for the
// earliest mismatch between a confirmed and a predicted value, and
// rewind to it if found.
func (c *Controller) reconcileLocked() {
	var lowWatermark uint64
	if c.currentFrame > uint64(c.maxRollback) {
		lowWatermark = c.currentFrame - uint64(c.maxRollback)
	}

	var mismatchFrame uint64
	found := false
	for f := lowWatermark; f < c.currentFrame; f++ {
		remote, hasRemote := c.remoteInputs[f]
		predicted, hasPredicted := c.predictedRemote[f]
		if hasRemote && hasPredicted && remote != predicted {
			mismatchFrame = f
			found = true
			break
		}
	}
	if found {
		c.rollbackLocked(mismatchFrame)
	}
}

// rollbackLocked implements the rollback procedure: restore the
// snapshot at f, then resimulate forward to currentFrame, preferring
// confirmed remote bits at every replayed frame and clearing any
// prediction that's now been confirmed.
func (c *Controller) rollbackLocked(f uint64) {
	entry, ok := c.snapshots[f]
	if !ok {
		// Nothing to roll back to (evicted or never saved); the caller
		// has exceeded maxRollback and must accept the desync risk.
		return
	}
	restored, err := snapshot.Load(entry.blob)
	if err != nil {
		return
	}
	c.state = restored

	span := int(c.currentFrame - f)
	c.stats.Rollbacks++
	c.stats.TotalRollbackFrames += uint64(span)
	if span > c.stats.MaxRollbackSpan {
		c.stats.MaxRollbackSpan = span
	}

	for g := f; g < c.currentFrame; g++ {
		localBits := c.localInputs[g]
		remoteBits := c.resolveRemoteLocked(g)
		c.saveSnapshotLocked(g)
		c.state = stepWithSide(c.state, c.localSide, localBits, remoteBits)
		if _, confirmed := c.remoteInputs[g]; confirmed {
			delete(c.predictedRemote, g)
		}
	}
}

func (c *Controller) saveSnapshotLocked(f uint64) {
	_, checksum, blob, err := snapshot.Save(c.state)
	if err != nil {
		return
	}
	c.snapshots[f] = snapshotEntry{blob: blob, checksum: checksum}
}

func (c *Controller) pruneSnapshotsLocked() {
	if c.currentFrame < uint64(c.maxSnapshots) {
		return
	}
	floor := c.currentFrame - uint64(c.maxSnapshots)
	for f := range c.snapshots {
		if f < floor {
			delete(c.snapshots, f)
		}
	}
}

// SnapshotChecksum returns the checksum recorded for frame f, if still
// held in the snapshot ring. Used by internal/netcode to exchange and
// cross-check checksums for the desync diagnostic (spec §7).
func (c *Controller) SnapshotChecksum(f uint64) (checksum uint32, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.snapshots[f]
	if !ok {
		return 0, false
	}
	return entry.checksum, true
}

// ConfirmedFrame returns the highest frame for which a remote input has
// been confirmed (not merely predicted) — the newest frame both
// peers' snapshots should agree on.
func (c *Controller) ConfirmedFrame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmedRemoteFrame
}

// Stats returns a point-in-time copy of the controller's statistics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// State returns the controller's current simulation state.
func (c *Controller) State() kernel.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SaveState returns the snapshot blob recorded for frame f, for replay
// and test harnesses (spec §6 "Host-facing API"); it does not mutate
// controller state.
func (c *Controller) SaveState(f uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.snapshots[f]
	if !ok {
		return nil, snapshot.ErrInvalidInput
	}
	return entry.blob, nil
}

// LoadState forces the controller's current state to the decoded blob,
// for replay and test harnesses only — it bypasses the predict/confirm
// bookkeeping entirely and is not part of the normal per-frame flow.
func (c *Controller) LoadState(blob []byte) error {
	restored, err := snapshot.Load(blob)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = restored
	c.currentFrame = restored.Frame
	return nil
}

// Step is a raw, one-off kernel advance bypassing prediction and
// snapshotting entirely, for replay and test harnesses (spec §6
// "the controller exposes ... step(frame, p0, p1) only for replay and
// test harnesses"). frame is advisory and only used to keep the
// controller's currentFrame counter consistent with the caller's.
func (c *Controller) Step(frame uint64, p0, p1 input.PlayerInput) kernel.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = kernel.Step(c.state, p0, p1)
	c.currentFrame = frame + 1
	return c.state
}

// stepWithSide calls kernel.Step with localBits/remoteBits assigned to
// the correct player slot depending on which side is local.
func stepWithSide(s kernel.State, local side, localBits, remoteBits uint32) kernel.State {
	if local == sideP0 {
		return kernel.Step(s, input.Decode(localBits), input.Decode(remoteBits))
	}
	return kernel.Step(s, input.Decode(remoteBits), input.Decode(localBits))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
