package kernel

import "fightnet/internal/input"

// selectAttack resolves which move, if any, an input frame requests.
// Priority: specials first (deliberate motion inputs), then normals by
// tier heavy > medium > light, punch before kick on a tie (spec
// §4.3.2 "attack-input priority").
func selectAttack(in input.PlayerInput) string {
	switch {
	case in.Hadoken:
		return "hadoken"
	case in.Shoryuken:
		return "shoryuken"
	case in.Tatsumaki:
		return "tatsumaki"
	case in.HeavyPunch:
		return "heavy_punch"
	case in.HeavyKick:
		return "heavy_kick"
	case in.MediumPunch:
		return "medium_punch"
	case in.MediumKick:
		return "medium_kick"
	case in.LightPunch:
		return "light_punch"
	case in.LightKick:
		return "light_kick"
	default:
		return ""
	}
}

// holdingToward/holdingAway interpret the raw Left/Right bits relative
// to facing, used to detect guard and the parry tap (spec §4.3.3).
func holdingToward(c *Character, in input.PlayerInput) bool {
	if c.Facing > 0 {
		return in.Right
	}
	return in.Left
}

func holdingAway(c *Character, in input.PlayerInput) bool {
	if c.Facing > 0 {
		return in.Left
	}
	return in.Right
}

// updateCharacterAction is step 4 of the frame sequence: read inputs,
// drive idle/walk movement, select a new move, or admit a cancel.
func updateCharacterAction(c *Character, in input.PlayerInput) {
	if c.State == StateKO {
		return
	}

	if c.State == StateHitstun || c.State == StateBlockstun {
		return
	}

	if c.State == StateAttacking && c.CurrentMove != nil {
		attack := selectAttack(in)
		if attack != "" && CanCancelInto(c.CurrentMove.Name, c.CurrentMove.Phase, c.CancelOutcome, attack) {
			startMove(c, attack)
		}
		return
	}

	moveDir := 0.0
	if in.Left {
		moveDir -= 1
	}
	if in.Right {
		moveDir += 1
	}

	attack := selectAttack(in)
	if attack != "" {
		if _, ok := LookupMove(attack); ok {
			startMove(c, attack)
			return
		}
	}

	if moveDir != 0 {
		c.X += moveDir * walkSpeedPerFrame
		c.State = StateWalking
	} else {
		c.State = StateIdle
	}
}

func startMove(c *Character, name string) {
	def, ok := LookupMove(name)
	if !ok {
		return
	}
	c.CurrentMove = &MoveInstance{Name: name, CurrentFrame: 0, Phase: PhaseStartup}
	c.State = StateAttacking
	c.CancelOutcome = CancelNone
	if def.ArmorHits > 0 {
		c.ArmorHitsRemaining = def.ArmorHits
	}
}

// advanceMovePhase is step 9: age the active move by one frame and
// recompute its phase, clearing it once recovery elapses.
func advanceMovePhase(c *Character) {
	if c.State != StateAttacking || c.CurrentMove == nil {
		return
	}
	def, ok := LookupMove(c.CurrentMove.Name)
	if !ok {
		c.CurrentMove = nil
		c.State = StateIdle
		return
	}

	c.CurrentMove.CurrentFrame++
	total := def.StartupFrames + def.ActiveFrames + def.RecoveryFrames
	if c.CurrentMove.CurrentFrame > total {
		c.CurrentMove = nil
		c.State = StateIdle
		c.CancelOutcome = CancelNone
		return
	}

	switch {
	case c.CurrentMove.CurrentFrame <= def.StartupFrames:
		c.CurrentMove.Phase = PhaseStartup
	case c.CurrentMove.CurrentFrame <= def.StartupFrames+def.ActiveFrames:
		c.CurrentMove.Phase = PhaseActive
	default:
		c.CurrentMove.Phase = PhaseRecovery
	}
}

// fireDeferredTimers is step 3: apply any per-character timer that has
// reached its scheduled frame (spec §4.3.1 step 3).
func fireDeferredTimers(s *State, c *Character) {
	if c.GuardRegenAtFrame != 0 && s.Frame >= c.GuardRegenAtFrame {
		if c.Guard < 100 {
			c.Guard = clampInt(c.Guard+guardRegenPerTick, 0, 100)
		}
		if c.Guard < 100 {
			c.GuardRegenAtFrame = s.Frame + guardRegenDelayFrames
		} else {
			c.GuardRegenAtFrame = 0
		}
	}
	if c.JuggleResetAtFrame != 0 && s.Frame >= c.JuggleResetAtFrame {
		c.JugglePoints = 0
		c.JuggleResetAtFrame = 0
	}
	if c.ComboResetAtFrame != 0 && s.Frame >= c.ComboResetAtFrame {
		c.ComboHits = 0
		c.ComboDamage = 0
		c.ComboResetAtFrame = 0
	}
	if (c.State == StateHitstun || c.State == StateBlockstun) && c.StunRecoverAtFrame != 0 && s.Frame >= c.StunRecoverAtFrame {
		c.State = StateIdle
		c.StunRecoverAtFrame = 0
	}
}
