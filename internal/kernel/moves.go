package kernel

import "math"

// MoveTier orders normals for the fallback cancel chain (light -> medium
// -> heavy). Attack-input priority is not derived from it: selectAttack
// checks the buttons in its own fixed order.
type MoveTier int8

const (
	TierLight MoveTier = iota
	TierMedium
	TierHeavy
	TierSpecial
)

// BounceKind describes what happens to an airborne/launched defender
// when a move's pushback is applied (spec §4.3.6 "Pushback").
type BounceKind int8

const (
	BounceNone BounceKind = iota
	BounceWall
	BounceGround
)

// CancelRule is a move's declared cancel table (spec §4.3.5). Any is
// checked regardless of outcome; OnHit/OnBlock only apply for the
// matching CancelOutcome. A move with no declared CancelRule falls
// back to defaultChainOrder.
type CancelRule struct {
	OnHit   []string
	OnBlock []string
	Any     []string
}

// MoveDef is the static, data-driven definition of one move. Tables
// are adopted per the spec's Open Question ("parry, cancel, and
// juggle tables are ... data inputs; implementers MUST document the
// exact tables they adopt") — see DESIGN.md for the rationale behind
// these specific numbers, modeled on the teacher's per-weapon
// Weapon/WeaponAnimationConfig split (damage/timing kept separate).
type MoveDef struct {
	Name string
	Tier MoveTier

	StartupFrames  int
	ActiveFrames   int
	RecoveryFrames int

	Damage           int
	OnBlockAdvantage int

	HitboxType HitboxType
	Range      float64
	Width      float64 // arc radians or line half-width in stage units, per HitboxType

	// InvulnFrom/InvulnTo is the inclusive CurrentFrame window (within
	// the move, 0-indexed) during which the performer can't be hit.
	InvulnFrom, InvulnTo int

	ArmorHits int // 0 = no armor

	JuggleLimit int // jugglePoints at/above this trigger the 0.25 floor
	JuggleAdd   int // points added to defender's juggle counter on hit

	Launches     bool // hit while airborne or strong enough to pop up
	Bounce       BounceKind
	BounceFactor float64

	Cancel *CancelRule // nil => defaultChainOrder fallback
}

// defaultChainOrder is the fallback cancel chain applied when a move
// doesn't declare its own CancelRule (spec §4.3.5 "Fallback rule"): each
// normal tier maps to the next tier up, and heavy has no successor.
var defaultChainOrder = map[MoveTier]MoveTier{
	TierLight:  TierMedium,
	TierMedium: TierHeavy,
}

var moveTable = buildDefaultMoveTable()

// LookupMove resolves a move by name. The bool result is false for an
// unknown name; the kernel's callers treat that as a no-op, never a
// kernel failure. No EventWarning is emitted for it.
func LookupMove(name string) (MoveDef, bool) {
	m, ok := moveTable[name]
	return m, ok
}

// DefaultMoveTable returns the move table this kernel ships with. It's
// exposed so tests and tools can enumerate every declared move.
func DefaultMoveTable() map[string]MoveDef {
	out := make(map[string]MoveDef, len(moveTable))
	for k, v := range moveTable {
		out[k] = v
	}
	return out
}

func buildDefaultMoveTable() map[string]MoveDef {
	m := map[string]MoveDef{
		"light_punch": {
			Name: "light_punch", Tier: TierLight,
			StartupFrames: 3, ActiveFrames: 2, RecoveryFrames: 6,
			Damage: 30, OnBlockAdvantage: -1,
			HitboxType: HitboxCircle, Range: 0.9,
		},
		"medium_punch": {
			Name: "medium_punch", Tier: TierMedium,
			StartupFrames: 6, ActiveFrames: 3, RecoveryFrames: 10,
			Damage: 60, OnBlockAdvantage: -3,
			HitboxType: HitboxCircle, Range: 1.0,
			JuggleAdd: 1,
		},
		"heavy_punch": {
			Name: "heavy_punch", Tier: TierHeavy,
			StartupFrames: 10, ActiveFrames: 4, RecoveryFrames: 18,
			Damage: 100, OnBlockAdvantage: -6,
			HitboxType: HitboxCircle, Range: 1.1,
			JuggleAdd: 2, Launches: true,
		},
		"light_kick": {
			Name: "light_kick", Tier: TierLight,
			StartupFrames: 4, ActiveFrames: 2, RecoveryFrames: 7,
			Damage: 35, OnBlockAdvantage: -2,
			HitboxType: HitboxArc, Range: 1.0, Width: 1.2,
		},
		"medium_kick": {
			Name: "medium_kick", Tier: TierMedium,
			StartupFrames: 7, ActiveFrames: 3, RecoveryFrames: 11,
			Damage: 65, OnBlockAdvantage: -4,
			HitboxType: HitboxArc, Range: 1.1, Width: 1.2,
			JuggleAdd: 1,
		},
		"heavy_kick": {
			Name: "heavy_kick", Tier: TierHeavy,
			StartupFrames: 12, ActiveFrames: 4, RecoveryFrames: 20,
			Damage: 110, OnBlockAdvantage: -8,
			HitboxType: HitboxArc, Range: 1.2, Width: 1.4,
			JuggleAdd: 2, Launches: true,
			Bounce: BounceGround, BounceFactor: 0.4,
		},
		"hadoken": {
			Name: "hadoken", Tier: TierSpecial,
			StartupFrames: 13, ActiveFrames: 40, RecoveryFrames: 25,
			Damage: 70, OnBlockAdvantage: -2,
			HitboxType: HitboxProjectile, Range: 8.0,
			JuggleAdd: 1,
			Cancel:    &CancelRule{Any: nil},
		},
		"shoryuken": {
			Name: "shoryuken", Tier: TierSpecial,
			StartupFrames: 4, ActiveFrames: 10, RecoveryFrames: 28,
			Damage: 120, OnBlockAdvantage: -22,
			HitboxType: HitboxCircle, Range: 1.1,
			InvulnFrom: 0, InvulnTo: 6,
			JuggleLimit: 3, JuggleAdd: 3, Launches: true,
			Bounce: BounceWall, BounceFactor: 0.5,
		},
		"tatsumaki": {
			Name: "tatsumaki", Tier: TierSpecial,
			StartupFrames: 8, ActiveFrames: 14, RecoveryFrames: 16,
			Damage: 85, OnBlockAdvantage: -5,
			HitboxType: HitboxArc, Range: 1.3, Width: math.Pi,
			ArmorHits: 1, JuggleAdd: 2,
		},
	}
	return m
}

// JuggleScale returns the damage scalar for a hit landing when the
// defender already has the given juggle points, per the move's
// declared table (if any) or the spec's default: a 0.25 floor once
// jugglePoints >= def.JuggleLimit (spec §4.3.6 "Juggle penalty").
func (def MoveDef) JuggleScale(points int) float64 {
	if def.JuggleLimit <= 0 {
		return 1.0
	}
	if points >= def.JuggleLimit {
		return 0.25
	}
	return 1.0
}

// CanCancelInto reports whether this move (by name, with its declared
// or fallback cancel rule) admits starting `target` given the current
// CancelOutcome and phase.
func CanCancelInto(fromName string, fromPhase MovePhase, outcome CancelOutcome, target string) bool {
	if fromPhase == PhaseRecovery {
		return false
	}
	from, ok := LookupMove(fromName)
	if !ok {
		return false
	}
	if from.Cancel != nil {
		for _, t := range from.Cancel.Any {
			if t == target {
				return true
			}
		}
		switch outcome {
		case CancelHit:
			for _, t := range from.Cancel.OnHit {
				if t == target {
					return true
				}
			}
		case CancelBlock:
			for _, t := range from.Cancel.OnBlock {
				if t == target {
					return true
				}
			}
		}
		return false
	}

	// Fallback chain: light -> medium -> heavy, plus any named special.
	targetDef, ok := LookupMove(target)
	if !ok {
		return false
	}
	if targetDef.Tier == TierSpecial {
		return true
	}
	next, ok := defaultChainOrder[from.Tier]
	return ok && next == targetDef.Tier
}
