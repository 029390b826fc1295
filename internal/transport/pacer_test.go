package transport

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func costOf(t *testing.T, msg Message) float64 {
	t.Helper()
	encoded, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return float64(len(encoded))
}

func TestPacerAdmitsWithinBudget(t *testing.T) {
	msg := Message{Type: MessageInput}
	cost := costOf(t, msg)
	p := NewPacer(cost*3, cost)
	for i := 0; i < 3; i++ {
		if err := p.Admit(context.Background(), msg); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
	}
}

func TestPacerDropsPingUnderBackpressure(t *testing.T) {
	msg := Message{Type: MessagePing}
	cost := costOf(t, msg)
	p := NewPacer(cost, cost)
	if err := p.Admit(context.Background(), msg); err != nil {
		t.Fatalf("first ping should be admitted: %v", err)
	}
	if err := p.Admit(context.Background(), msg); err != ErrDropped {
		t.Fatalf("expected ErrDropped, got %v", err)
	}
}

func TestPacerBlocksInputUnderBackpressure(t *testing.T) {
	msg := Message{Type: MessageInput}
	cost := costOf(t, msg)
	p := NewPacer(cost, cost)
	if err := p.Admit(context.Background(), msg); err != nil {
		t.Fatalf("first input should be admitted: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Admit(ctx, msg); err == nil {
		t.Fatal("expected the second input to block past the short deadline")
	}
}

func TestPacerBudgetsByByteSizeNotMessageCount(t *testing.T) {
	small := Message{Type: MessageInput}
	big := Message{Type: MessageInput, Frame: 1, Bits: 0xFFFFFFFF}
	if costOf(t, big) <= costOf(t, small) {
		t.Fatal("test fixture expected a larger message to cost more bytes")
	}

	cost := costOf(t, small)
	p := NewPacer(cost*2, cost)
	if err := p.Admit(context.Background(), small); err != nil {
		t.Fatalf("first small message should be admitted: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := p.Admit(ctx, big); err == nil {
		t.Fatal("expected a message costing more than the remaining budget to block")
	}
}
