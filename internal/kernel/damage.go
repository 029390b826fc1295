package kernel

import "math"

// Combo scaling and deferred-timer tuning (spec §4.3.6). Combo scaling,
// guard cost, guard-crush bonus, and the guard-regen delay are
// spec-pinned exact numbers; counter-hit bonus and the combo/juggle
// reset delays are Open Question resolutions documented in DESIGN.md.
const (
	comboScalingStart = 0.8
	comboScalingStep  = 0.9
	counterHitBonus   = 1.2

	guardRegenDelayFrames  = 24 // spec §4.3.6: "Block schedules guard regen 24 frames later"
	guardRegenPerTick      = 5
	comboResetDelayFrames  = 45
	juggleResetDelayFrames = 60

	chipDamageFraction = 0.1
	guardCostFraction  = 0.5 // spec §4.3.6: "guard cost = max(1, floor(base * 0.50))"
	guardCrushBonus    = 10  // spec §4.3.6: flat "bonus chip +10", not damage-scaled
)

// resolveAttackOutcome runs the parry/invuln/block/armor/hit pipeline
// for a single attacker-move-vs-defender pair (spec §4.3.3). It's
// shared by the melee collision pass and the projectile subsystem.
func resolveAttackOutcome(s *State, attacker, defender *Character, def MoveDef, defenderBlocking, defenderParrying bool) {
	if defender.State == StateKO {
		return
	}

	// 1. Parry.
	if defenderParrying {
		defender.Meter = clampInt(defender.Meter+5, 0, 100)
		attacker.CancelOutcome = CancelNone
		s.emit(Event{Type: EventParry, Actor: defender.ID, Target: attacker.ID, Payload: ParryPayload{MoveName: def.Name}})
		s.Hitstop = maxInt(s.Hitstop, 6)
		return
	}

	// 2. Invulnerability.
	if isInvulnerable(defender) {
		return
	}

	// 3. Block.
	if defenderBlocking {
		applyBlock(s, attacker, defender, def)
		return
	}

	// 4. Armor.
	if defender.ArmorHitsRemaining > 0 {
		defender.ArmorHitsRemaining--
		s.emit(Event{Type: EventClash, Actor: attacker.ID, Target: defender.ID, Payload: ClashPayload{MoveName: def.Name, HitsRemaining: defender.ArmorHitsRemaining}})
		s.Hitstop = maxInt(s.Hitstop, 3)
		return
	}

	// 5. Hit.
	applyHit(s, attacker, defender, def)
}

func isInvulnerable(c *Character) bool {
	if c.CurrentMove == nil {
		return false
	}
	def, ok := LookupMove(c.CurrentMove.Name)
	if !ok || (def.InvulnFrom == 0 && def.InvulnTo == 0) {
		return false
	}
	cf := c.CurrentMove.CurrentFrame
	return cf >= def.InvulnFrom && cf <= def.InvulnTo
}

func applyBlock(s *State, attacker, defender *Character, def MoveDef) {
	chip := int(math.Floor(float64(def.Damage) * chipDamageFraction))
	guardCost := maxInt(1, int(math.Floor(float64(def.Damage)*guardCostFraction)))

	defender.Health = maxInt(0, defender.Health-chip)
	defender.Guard = maxInt(0, defender.Guard-guardCost)
	defender.State = StateBlockstun
	defender.StunRecoverAtFrame = s.Frame + uint64(maxInt(1, def.RecoveryFrames+def.OnBlockAdvantage))
	attacker.CancelOutcome = CancelBlock

	defender.GuardRegenAtFrame = s.Frame + guardRegenDelayFrames

	s.emit(Event{Type: EventBlock, Actor: attacker.ID, Target: defender.ID, Payload: BlockPayload{ChipDamage: chip, GuardCost: guardCost, MoveName: def.Name}})

	if defender.Guard <= 0 {
		bonus := guardCrushBonus
		defender.Health = maxInt(0, defender.Health-bonus)
		defender.Guard = 100
		defender.State = StateHitstun
		defender.StunRecoverAtFrame = s.Frame + 60
		s.emit(Event{Type: EventGuardCrush, Actor: attacker.ID, Target: defender.ID, Payload: GuardCrushPayload{BonusChip: bonus}})
	}

	s.Hitstop = maxInt(s.Hitstop, 4)

	if defender.Health == 0 {
		koCharacter(s, defender, attacker)
	}
}

func applyHit(s *State, attacker, defender *Character, def MoveDef) {
	counterHit := defender.CurrentMove != nil && defender.CurrentMove.Phase == PhaseStartup

	comboIndex := defender.ComboHits + 1
	scale := comboScaleFor(comboIndex)
	scale *= def.JuggleScale(defender.JugglePoints)
	if counterHit {
		scale *= counterHitBonus
	}

	damage := 0
	if def.Damage > 0 {
		damage = maxInt(1, int(math.Floor(float64(def.Damage)*scale)))
	}

	defender.Health = maxInt(0, defender.Health-damage)
	defender.ComboHits = comboIndex
	defender.ComboDamage += damage
	defender.JugglePoints += def.JuggleAdd
	defender.State = StateHitstun
	defender.StunRecoverAtFrame = s.Frame + uint64(maxInt(8, 10+damage/10))
	attacker.CancelOutcome = CancelHit

	defender.ComboResetAtFrame = s.Frame + comboResetDelayFrames
	defender.JuggleResetAtFrame = s.Frame + juggleResetDelayFrames
	defender.GuardRegenAtFrame = s.Frame + guardRegenDelayFrames

	pushback := 0.15
	wallBound := stageHalfWidth - pushboxHalfWidth
	if math.Abs(defender.X) >= wallBound-0.01 {
		pushback *= 2
	}
	if defender.X < attacker.X {
		defender.X -= pushback
	} else {
		defender.X += pushback
	}

	if def.Launches || defender.Airborne {
		defender.Airborne = true
		defender.VY = 0.3
		bf := def.BounceFactor
		if bf <= 0 {
			bf = defaultBounceFactor
		}
		switch def.Bounce {
		case BounceWall:
			if defender.X < attacker.X {
				defender.VX = -0.2 * bf
			} else {
				defender.VX = 0.2 * bf
			}
		case BounceGround:
			defender.VY = 0.15 * bf
		}
	}

	s.Hitstop = maxInt(s.Hitstop, minInt(14, 4+damage/12+boolToInt(counterHit)))

	s.emit(Event{Type: EventHit, Actor: attacker.ID, Target: defender.ID, Payload: HitPayload{
		Damage: damage, ComboHits: defender.ComboHits, CounterHit: counterHit, MoveName: def.Name,
	}})

	if defender.Health == 0 {
		koCharacter(s, defender, attacker)
	}
}

func koCharacter(s *State, defender, attacker *Character) {
	defender.State = StateKO
	defender.CurrentMove = nil
	s.emit(Event{Type: EventKO, Actor: attacker.ID, Target: defender.ID, Payload: KOPayload{}})
}

func comboScaleFor(hitIndex int) float64 {
	if hitIndex <= 1 {
		return 1.0
	}
	return comboScalingStart * math.Pow(comboScalingStep, float64(hitIndex-2))
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
