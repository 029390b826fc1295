package rollback

import (
	"testing"

	"fightnet/internal/kernel"
)

func newTestController() (*Controller, kernel.State) {
	initial := kernel.NewMatch("ryu", "ken", -1, 1, 1000)
	return NewController(initial, Config{LocalIsP0: true, FrameDelay: 0}), initial
}

// TestPredictionCorrectionMatchesStraightLineRun drives spec §8
// scenario 2: a confirmed remote input for frame 10 arrives four
// frames late (at the point frame 14 is being advanced). Frames 10-13
// are first stepped on the predicted guess (0, since the last
// confirmed bits were 0); once the real value lands, the controller
// must roll back and re-step 10-13 with the real bits, landing on the
// same state a straight-line run fed the true inputs from the start
// would reach.
func TestPredictionCorrectionMatchesStraightLineRun(t *testing.T) {
	c, initial := newTestController()

	trueRemoteBits := func(frame uint64) uint32 {
		if frame == 10 {
			return 0x0010 // light punch
		}
		return 0
	}

	for f := uint64(0); f < 10; f++ {
		c.PushLocal(0)
		c.Advance()
	}
	for f := uint64(10); f < 14; f++ {
		c.PushLocal(0)
		c.Advance()
		_ = f
	}
	// the confirmed value for frame 10 arrives only now, at frame 14.
	c.ReceiveRemote(10, trueRemoteBits(10))
	c.PushLocal(0)
	c.Advance()

	if got := c.Stats().Rollbacks; got != 1 {
		t.Fatalf("Rollbacks = %d, want 1", got)
	}

	got := c.State()

	straightLine := initial
	for f := uint64(0); f < 15; f++ {
		straightLine = stepWithSide(straightLine, sideP0, 0, trueRemoteBits(f))
	}

	if got.Frame != straightLine.Frame {
		t.Fatalf("Frame = %d, want %d", got.Frame, straightLine.Frame)
	}
	if got.P1.Health != straightLine.P1.Health {
		t.Fatalf("P1.Health = %d, want %d (predicted-vs-confirmed desync)", got.P1.Health, straightLine.P1.Health)
	}
	if got.P1.X != straightLine.P1.X || got.P0.X != straightLine.P0.X {
		t.Fatalf("positions = (%v,%v), want (%v,%v)", got.P0.X, got.P1.X, straightLine.P0.X, straightLine.P1.X)
	}
}

func TestMatchingPredictionNeverRollsBack(t *testing.T) {
	c, _ := newTestController()

	for f := uint64(0); f < 5; f++ {
		c.PushLocal(0)
		c.Advance()
		c.ReceiveRemote(f, 0) // confirms exactly what was predicted
	}

	if got := c.Stats().Rollbacks; got != 0 {
		t.Fatalf("Rollbacks = %d, want 0 when every prediction matches", got)
	}
}

func TestFrameDelayClampsToSpecRange(t *testing.T) {
	c, _ := newTestController()

	c.SetFrameDelay(999)
	c.Advance()
	if got := c.Stats().FrameDelay; got != maxFrameDelay {
		t.Fatalf("FrameDelay = %d, want clamp to %d", got, maxFrameDelay)
	}

	c.SetDesiredDelay(0)
	c.SetFrameDelay(-5)
	c.Advance()
	if got := c.Stats().FrameDelay; got != minFrameDelay {
		t.Fatalf("FrameDelay = %d, want clamp to %d", got, minFrameDelay)
	}
}

func TestPushLocalAppliesFrameDelay(t *testing.T) {
	c, _ := newTestController()
	c.SetFrameDelay(3)
	c.SetDesiredDelay(0)
	c.SetFrameDelay(3)

	frame, delay := c.PushLocal(0x0001)
	if delay != 3 {
		t.Fatalf("delay = %d, want 3", delay)
	}
	if frame != 3 {
		t.Fatalf("frame = %d, want currentFrame(0)+delay(3) = 3", frame)
	}
}
