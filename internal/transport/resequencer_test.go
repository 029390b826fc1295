package transport

import (
	"testing"

	"fightnet/internal/input"
)

func TestResequencerDeliversInOrder(t *testing.T) {
	r := NewResequencer(2)
	r.Push(0, input.Encode(input.PlayerInput{Right: true}))
	r.Push(1, input.Encode(input.PlayerInput{Left: true}))

	in, frame, ok := r.Pop()
	if !ok || frame != 0 || !in.Right {
		t.Fatalf("first pop = %+v, %d, %v", in, frame, ok)
	}
	in, frame, ok = r.Pop()
	if !ok || frame != 1 || !in.Left {
		t.Fatalf("second pop = %+v, %d, %v", in, frame, ok)
	}
	if _, _, ok := r.Pop(); ok {
		t.Fatal("expected no more frames ready")
	}
}

func TestResequencerReordersOutOfOrderArrivals(t *testing.T) {
	r := NewResequencer(2)
	r.Push(1, input.Encode(input.PlayerInput{Left: true}))
	r.Push(0, input.Encode(input.PlayerInput{Right: true}))

	_, frame, ok := r.Pop()
	if !ok || frame != 0 {
		t.Fatalf("expected frame 0 first, got %d ok=%v", frame, ok)
	}
	_, frame, ok = r.Pop()
	if !ok || frame != 1 {
		t.Fatalf("expected frame 1 second, got %d ok=%v", frame, ok)
	}
	if st := r.Stats(); st.Reordered == 0 {
		t.Fatal("expected Reordered to be counted")
	}
}

func TestResequencerConcealsGapAfterBufferWindow(t *testing.T) {
	r := NewResequencer(2)
	r.Push(0, input.Encode(input.PlayerInput{Right: true}))
	// frame 1 never arrives; frames 2 and 3 do, giving 2 frames of lookahead.
	r.Push(2, input.Encode(input.PlayerInput{Left: true}))
	r.Push(3, input.Encode(input.PlayerInput{Up: true}))

	in, frame, ok := r.Pop()
	if !ok || frame != 0 || !in.Right {
		t.Fatalf("frame 0 pop = %+v, %d, %v", in, frame, ok)
	}

	in, frame, ok = r.Pop()
	if !ok || frame != 1 {
		t.Fatalf("expected concealed frame 1, got %d ok=%v", frame, ok)
	}
	if !in.Right {
		t.Fatalf("concealed input = %+v, want a repeat of the last delivered input", in)
	}
	if st := r.Stats(); st.Concealed != 1 {
		t.Fatalf("Concealed = %d, want 1", st.Concealed)
	}
}

func TestResequencerFlushesPendingOnOverflow(t *testing.T) {
	r := NewResequencer(2)
	r.Push(0, input.Encode(input.PlayerInput{Right: true}))

	// Never deliver frame 1, and push far enough ahead of it that
	// pending grows past maxPendingFrames — the buffer must flush
	// rather than grow without bound.
	for f := uint32(1); f <= maxPendingFrames+5; f++ {
		r.Push(f, input.Encode(input.PlayerInput{Up: true}))
	}

	if st := r.Stats(); st.Flushed == 0 {
		t.Fatal("expected a flush once pending exceeded maxPendingFrames")
	}
	if got := len(r.PendingFrames()); got > maxPendingFrames {
		t.Fatalf("pending frames = %d, want <= %d", got, maxPendingFrames)
	}
}

func TestResequencerDropsDuplicates(t *testing.T) {
	r := NewResequencer(1)
	r.Push(0, input.Encode(input.PlayerInput{Right: true}))
	r.Push(0, input.Encode(input.PlayerInput{Left: true}))
	if st := r.Stats(); st.Duplicates != 1 {
		t.Fatalf("Duplicates = %d, want 1", st.Duplicates)
	}
	in, _, ok := r.Pop()
	if !ok || !in.Right {
		t.Fatalf("expected the first delivery to win, got %+v ok=%v", in, ok)
	}
}
