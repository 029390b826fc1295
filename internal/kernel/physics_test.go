package kernel

import (
	"math"
	"testing"
)

func TestResolvePushboxesNeverOverlap(t *testing.T) {
	s := NewMatch("ryu", "ken", -0.1, 0.1, 1000)
	resolvePushboxes(&s)

	gap := math.Abs(s.P0.X - s.P1.X)
	if gap < 2*pushboxHalfWidth-1e-9 {
		t.Fatalf("pushboxes overlap: gap = %v, want >= %v", gap, 2*pushboxHalfWidth)
	}
}

func TestResolvePushboxesClampsToStage(t *testing.T) {
	s := NewMatch("ryu", "ken", -100, -99, 1000)
	resolvePushboxes(&s)

	if s.P0.X < -stageHalfWidth || s.P0.X > stageHalfWidth {
		t.Fatalf("P0.X = %v escaped stage bounds", s.P0.X)
	}
	if s.P1.X < -stageHalfWidth || s.P1.X > stageHalfWidth {
		t.Fatalf("P1.X = %v escaped stage bounds", s.P1.X)
	}
}

func TestApplyAirbornePhysicsLandsWhenSlow(t *testing.T) {
	c := &Character{Airborne: true, Y: 0.01, VY: -0.01}
	applyAirbornePhysics(c)

	if c.Airborne {
		t.Fatal("expected character to land")
	}
	if c.Y != 0 {
		t.Fatalf("landed Y = %v, want 0", c.Y)
	}
}

func TestApplyAirbornePhysicsBouncesWhenFast(t *testing.T) {
	c := &Character{Airborne: true, Y: 0.01, VY: -0.5}
	applyAirbornePhysics(c)

	if !c.Airborne {
		t.Fatal("expected character to stay airborne after a fast bounce")
	}
	if c.VY <= 0 {
		t.Fatalf("VY after ground bounce = %v, want positive", c.VY)
	}
}

func TestCanCancelIntoFallbackChain(t *testing.T) {
	if !CanCancelInto("light_punch", PhaseActive, CancelHit, "medium_punch") {
		t.Fatal("light -> medium should be cancelable on hit via the fallback chain")
	}
	if CanCancelInto("heavy_punch", PhaseActive, CancelHit, "light_punch") {
		t.Fatal("heavy -> light is not in the fallback chain")
	}
	if CanCancelInto("light_punch", PhaseRecovery, CancelHit, "medium_punch") {
		t.Fatal("no move can be canceled from its own recovery")
	}
}

func TestCanCancelIntoDeclaredRuleOverridesFallback(t *testing.T) {
	// hadoken declares an explicit (empty) cancel rule, so it should
	// never admit a cancel even though it's a special move.
	if CanCancelInto("hadoken", PhaseActive, CancelHit, "shoryuken") {
		t.Fatal("hadoken declares no cancels, fallback chain should not apply")
	}
}
