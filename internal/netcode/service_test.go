package netcode

import (
	"testing"
	"time"

	"fightnet/internal/input"
	"fightnet/internal/kernel"
	"fightnet/internal/transport"
)

// fakePeer is an in-memory transport.Peer pair for driving two Service
// instances against each other without a real socket or data channel.
type fakePeer struct {
	out  chan transport.Message
	in   chan transport.Message
	stat transport.Stats
}

func newFakePeerPair() (a, b *fakePeer) {
	ab := make(chan transport.Message, 64)
	ba := make(chan transport.Message, 64)
	a = &fakePeer{out: ab, in: ba}
	b = &fakePeer{out: ba, in: ab}
	return a, b
}

func (f *fakePeer) Send(m transport.Message) error {
	select {
	case f.out <- m:
		return nil
	default:
		return nil
	}
}

func (f *fakePeer) Recv() <-chan transport.Message { return f.in }
func (f *fakePeer) Stats() transport.Stats         { return f.stat }
func (f *fakePeer) Close() error                   { return nil }

var _ transport.Peer = (*fakePeer)(nil)

func TestServiceStepRequiresEnable(t *testing.T) {
	svc := NewService(kernel.NewMatch("ryu", "ken", -1, 1, 1000), true)
	if _, err := svc.Step(zeroInput()); err != ErrNotEnabled {
		t.Fatalf("Step before Enable = %v, want ErrNotEnabled", err)
	}
}

func TestServiceTwoEndsStayInSync(t *testing.T) {
	peerA, peerB := newFakePeerPair()

	initial := kernel.NewMatch("ryu", "ken", -1, 1, 1000)
	svcA := NewService(initial, true)
	svcB := NewService(initial, false)

	if err := svcA.EnableLocalP2(peerA); err != nil {
		t.Fatalf("EnableLocalP2(A): %v", err)
	}
	if err := svcB.EnableLocalP2(peerB); err != nil {
		t.Fatalf("EnableLocalP2(B): %v", err)
	}

	for i := 0; i < 20; i++ {
		stateA, err := svcA.Step(zeroInput())
		if err != nil {
			t.Fatalf("A.Step: %v", err)
		}
		stateB, err := svcB.Step(zeroInput())
		if err != nil {
			t.Fatalf("B.Step: %v", err)
		}
		if stateA.Frame != stateB.Frame || stateA.P0.X != stateB.P0.X || stateA.P1.X != stateB.P1.X ||
			stateA.P0.Health != stateB.P0.Health || stateA.P1.Health != stateB.P1.Health {
			t.Fatalf("step %d: states diverged: A=%+v B=%+v", i, stateA, stateB)
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := svcA.GetStats(); err != nil {
		t.Fatalf("GetStats(A): %v", err)
	}

	if err := svcA.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if _, err := svcA.Step(zeroInput()); err != ErrNotEnabled {
		t.Fatalf("Step after Disable = %v, want ErrNotEnabled", err)
	}
}

func zeroInput() input.PlayerInput {
	return input.PlayerInput{}
}

func TestServiceDetectsDesyncFromDivergentStates(t *testing.T) {
	peerA, peerB := newFakePeerPair()

	// B starts from a different initial position than A, so the two
	// sides' simulations diverge from frame zero even though they see
	// identical inputs — a stand-in for genuine desync (e.g. a move
	// table mismatch) without needing to engineer real nondeterminism.
	svcA := NewService(kernel.NewMatch("ryu", "ken", -1, 1, 1000), true)
	svcB := NewService(kernel.NewMatch("ryu", "ken", -50, 50, 1000), false)

	if err := svcA.EnableLocalP2(peerA); err != nil {
		t.Fatalf("EnableLocalP2(A): %v", err)
	}
	if err := svcB.EnableLocalP2(peerB); err != nil {
		t.Fatalf("EnableLocalP2(B): %v", err)
	}

	var desynced bool
	svcA.OnDesync(func(d DesyncDetected) { desynced = true })

	for i := 0; i < checksumSendEvery*2+5; i++ {
		if _, err := svcA.Step(zeroInput()); err != nil {
			t.Fatalf("A.Step: %v", err)
		}
		if _, err := svcB.Step(zeroInput()); err != nil {
			t.Fatalf("B.Step: %v", err)
		}
	}

	if !desynced {
		t.Fatal("expected OnDesync to fire for divergent initial states")
	}
}
