package kernel

import (
	"testing"

	"fightnet/internal/input"
)

func drive(t *testing.T, s State, frames int, in0, in1 input.PlayerInput) State {
	t.Helper()
	for i := 0; i < frames; i++ {
		s = Step(s, in0, in1)
	}
	return s
}

func TestCheckHitFallsBackToCoarseAABBWhenRangeIsZero(t *testing.T) {
	if !checkHit(HitboxCircle, 0, 0, 0, 0, 1, 0.5, 0.2) {
		t.Fatal("expected a target inside the coarse AABB to be hit")
	}
	if checkHit(HitboxCircle, 0, 0, 0, 0, 1, 5, 0) {
		t.Fatal("expected a target far outside the coarse AABB to miss")
	}
	if checkHit(HitboxCircle, 0, 0, 0, 0, 1, -0.5, 0) {
		t.Fatal("expected a target behind facing to miss the coarse AABB")
	}
}

func TestComboScalingSequence(t *testing.T) {
	// Three successive light_punch hits (base damage 30) should scale
	// 1.0, 0.8, 0.72: 30, 24, 21 -> 75 total. Verified here against the
	// generic 100-base formula used in the design doc (100, 80, 72).
	scale1 := comboScaleFor(1)
	scale2 := comboScaleFor(2)
	scale3 := comboScaleFor(3)

	if scale1 != 1.0 {
		t.Fatalf("first hit scale = %v, want 1.0", scale1)
	}
	if got := int(100 * scale2); got != 80 {
		t.Fatalf("second hit on a 100-damage move = %d, want 80", got)
	}
	if got := int(100 * scale3); got != 72 {
		t.Fatalf("third hit on a 100-damage move = %d, want 72", got)
	}
}

func TestApplyHitComboDamageAccumulates(t *testing.T) {
	s := NewMatch("ryu", "ken", -1, 1, 1000)
	def, ok := LookupMove("heavy_punch")
	if !ok {
		t.Fatal("heavy_punch missing from move table")
	}
	attacker := &s.P0
	defender := &s.P1

	applyHit(&s, attacker, defender, def)
	applyHit(&s, attacker, defender, def)
	applyHit(&s, attacker, defender, def)

	if defender.ComboHits != 3 {
		t.Fatalf("ComboHits = %d, want 3", defender.ComboHits)
	}
	if defender.ComboDamage != 252 {
		t.Fatalf("ComboDamage = %d, want 252 (100+80+72)", defender.ComboDamage)
	}
}

func TestKOHaltsDefenderOnZeroHealth(t *testing.T) {
	s := NewMatch("ryu", "ken", -1, 1, 50)
	def, _ := LookupMove("heavy_kick")

	applyHit(&s, &s.P0, &s.P1, def)

	if s.P1.State != StateKO {
		t.Fatalf("defender state = %v, want KO", s.P1.State)
	}
	if s.P1.Health != 0 {
		t.Fatalf("defender health = %d, want 0", s.P1.Health)
	}

	found := false
	for _, ev := range s.Timeline {
		if ev.Type == EventKO {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a KO event in the timeline")
	}
}

func TestParryNullifiesDamage(t *testing.T) {
	// Pushboxes hold the two 1.0 apart, inside heavy_punch's 1.1 range,
	// facing one another: P0 faces right (+1) toward P1, P1 faces left
	// (-1) toward P0.
	s := NewMatch("ryu", "ken", -0.3, 0.3, 1000)
	healthBefore := s.P1.Health

	def, ok := LookupMove("heavy_punch")
	if !ok {
		t.Fatal("heavy_punch missing from move table")
	}

	// P0 throws a heavy punch; P1 waits out startup, then taps toward
	// P0 (Left, since P1 faces -1) on the exact frame the hitbox goes
	// active to parry it.
	s = Step(s, input.PlayerInput{HeavyPunch: true}, input.PlayerInput{})
	for i := 1; i < def.StartupFrames; i++ {
		s = Step(s, input.PlayerInput{}, input.PlayerInput{})
	}
	s = Step(s, input.PlayerInput{}, input.PlayerInput{Left: true})

	if s.P1.Health != healthBefore {
		t.Fatalf("parry should have nullified damage: health = %d, want %d", s.P1.Health, healthBefore)
	}

	parried := false
	for _, ev := range s.Timeline {
		if ev.Type == EventParry {
			parried = true
		}
	}
	if !parried {
		t.Fatal("expected a parry event in the timeline")
	}
}

func TestStepIsDeterministic(t *testing.T) {
	s0 := NewMatch("ryu", "ken", -1, 1, 1000)
	in0 := input.PlayerInput{Right: true, LightPunch: true}
	in1 := input.PlayerInput{Left: true}

	a := drive(t, s0, 30, in0, in1)
	b := drive(t, s0, 30, in0, in1)

	if a.Frame != b.Frame || a.P0.X != b.P0.X || a.P1.Health != b.P1.Health {
		t.Fatal("identical inputs from identical state produced divergent results")
	}
}
