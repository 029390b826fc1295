package kernel

import "fightnet/internal/input"

// Step advances the simulation by exactly one 1/60s frame given both
// players' decoded inputs. It is a pure function: given the same
// (state, inputP0, inputP1) it always returns the same result, which
// is what makes rollback resimulation safe (spec §4.3.1, §4.5).
func Step(state State, inputP0, inputP1 input.PlayerInput) State {
	s := state
	s.Timeline = nil
	if n := len(state.Projectiles); n > 0 {
		s.Projectiles = make([]Projectile, n)
		copy(s.Projectiles, state.Projectiles)
	} else {
		s.Projectiles = nil
	}
	if state.P0.CurrentMove != nil {
		mv := *state.P0.CurrentMove
		s.P0.CurrentMove = &mv
	}
	if state.P1.CurrentMove != nil {
		mv := *state.P1.CurrentMove
		s.P1.CurrentMove = &mv
	}

	// 1. Hitstop freezes everything except its own countdown.
	if s.Hitstop > 0 {
		s.Hitstop--
		return s
	}

	// 2. Advance the frame counter.
	s.Frame++

	// 3. Fire deferred timers (guard regen, combo/juggle reset, stun
	// recovery) scheduled for this frame or earlier.
	fireDeferredTimers(&s, &s.P0)
	fireDeferredTimers(&s, &s.P1)

	// Parry/block edge detection uses facing computed *before* this
	// frame's movement, matching the position both players reacted to.
	p0Parrying := holdingToward(&s.P0, inputP0) && !s.P0.heldTowardLastFrame
	p1Parrying := holdingToward(&s.P1, inputP1) && !s.P1.heldTowardLastFrame
	p0Blocking := holdingAway(&s.P0, inputP0) && (s.P0.State == StateIdle || s.P0.State == StateWalking || s.P0.State == StateBlockstun)
	p1Blocking := holdingAway(&s.P1, inputP1) && (s.P1.State == StateIdle || s.P1.State == StateWalking || s.P1.State == StateBlockstun)
	s.P0.heldTowardLastFrame = holdingToward(&s.P0, inputP0)
	s.P1.heldTowardLastFrame = holdingToward(&s.P1, inputP1)

	// 4. Per-character input: movement, move selection, cancels.
	updateCharacterAction(&s.P0, inputP0)
	updateCharacterAction(&s.P1, inputP1)

	// 5. Recompute facing.
	recomputeFacing(&s)

	// 6. Airborne physics.
	applyAirbornePhysics(&s.P0)
	applyAirbornePhysics(&s.P1)

	// 7. Pushbox resolution.
	resolvePushboxes(&s)

	// 8. Spawn/step projectiles. Projectiles test against hurtboxes
	// using the same collision rules as melee (spec §4.3.1 step 8), so
	// they see the same block/parry edges computed right after step 3.
	spawnProjectileIfDue(&s, 0, &s.P0)
	spawnProjectileIfDue(&s, 1, &s.P1)
	stepProjectiles(&s, p0Blocking, p0Parrying, p1Blocking, p1Parrying)

	// 9. Advance move phases.
	advanceMovePhase(&s.P0)
	advanceMovePhase(&s.P1)

	// 10. Hit/block/parry collision pass.
	resolveCollision(&s, &s.P0, &s.P1, p1Blocking, p1Parrying)
	resolveCollision(&s, &s.P1, &s.P0, p0Blocking, p0Parrying)

	return s
}

// resolveCollision checks whether attacker's currently-active move
// connects with defender this frame, and if so runs the outcome
// pipeline.
func resolveCollision(s *State, attacker, defender *Character, defenderBlocking, defenderParrying bool) {
	if attacker.CurrentMove == nil || attacker.CurrentMove.Phase != PhaseActive {
		return
	}
	def, ok := LookupMove(attacker.CurrentMove.Name)
	if !ok || def.HitboxType == HitboxProjectile {
		return
	}
	if defender.State == StateKO {
		return
	}
	if checkHit(def.HitboxType, def.Range, def.Width, attacker.X, attacker.Y, attacker.Facing, defender.X, defender.Y) {
		resolveAttackOutcome(s, attacker, defender, def, defenderBlocking, defenderParrying)
	}
}
