// Package kernel implements the deterministic fixed-step fighting-game
// simulation: a pure function advancing one 1/60s frame given both
// players' inputs. See Step for the frame sequence (spec §4.3.1).
package kernel

// CharState is the coarse lifecycle state of a character.
type CharState int8

const (
	StateIdle CharState = iota
	StateWalking
	StateAttacking
	StateHitstun
	StateBlockstun
	StateKO
)

func (s CharState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	case StateAttacking:
		return "attacking"
	case StateHitstun:
		return "hitstun"
	case StateBlockstun:
		return "blockstun"
	case StateKO:
		return "ko"
	default:
		return "unknown"
	}
}

// MovePhase tracks where in its lifecycle an active move currently is.
type MovePhase int8

const (
	PhaseStartup MovePhase = iota
	PhaseActive
	PhaseRecovery
)

func (p MovePhase) String() string {
	switch p {
	case PhaseStartup:
		return "startup"
	case PhaseActive:
		return "active"
	case PhaseRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// CancelOutcome records what the last active move connected with, used
// to gate the cancel table (spec §4.3.5).
type CancelOutcome int8

const (
	CancelNone CancelOutcome = iota
	CancelHit
	CancelBlock
)

// MoveInstance is the move a character is currently performing.
type MoveInstance struct {
	Name         string
	CurrentFrame int
	Phase        MovePhase

	// projectileSpawned guards a projectile-type move from spawning more
	// than one Projectile entity over its Active window.
	projectileSpawned bool
}

// FrameData is derived (not stored) timing info about the active move,
// exposed to observers/UI.
type FrameData struct {
	Startup  int
	Active   int
	Recovery int
	// Advantage is the move's on-block frame advantage, reported only
	// once CurrentFrame has reached the move's total length; zero before
	// that. On-hit advantage is not reported.
	Advantage int
}

// Character is one combatant's authoritative per-frame state.
type Character struct {
	ID     string
	Facing float64 // -1 or +1

	X, Y, Z  float64
	VX, VY   float64
	Airborne bool

	Health    int
	MaxHealth int
	Meter     int // 0..100
	Guard     int // 0..100, "guardMeter" in spec

	State CharState

	CurrentMove *MoveInstance

	// Transient combo/juggle bookkeeping, reset by deferred timers.
	ComboHits           int
	ComboDamage         int
	JugglePoints        int
	ArmorHitsRemaining  int
	CancelOutcome       CancelOutcome
	CanCancelUntilFrame int

	// Deferred timers, frame numbers at which the effect fires. Zero
	// means "not scheduled".
	GuardRegenAtFrame  uint64
	JuggleResetAtFrame uint64
	ComboResetAtFrame  uint64

	// heldTowardLastFrame supports parry-window edge detection: a parry
	// only triggers on the frame the stick is tapped toward the
	// attacker, not every frame it's held.
	heldTowardLastFrame bool

	// StunRecoverAtFrame is when a hitstun/blockstun character regains
	// control; zero means not currently stunned.
	StunRecoverAtFrame uint64
}

// FrameData recomputes the derived timing info for the active move, or
// the zero value if the character isn't attacking.
func (c *Character) FrameData() FrameData {
	if c.CurrentMove == nil {
		return FrameData{}
	}
	def, ok := LookupMove(c.CurrentMove.Name)
	if !ok {
		return FrameData{}
	}
	fd := FrameData{Startup: def.StartupFrames, Active: def.ActiveFrames, Recovery: def.RecoveryFrames}
	total := def.StartupFrames + def.ActiveFrames + def.RecoveryFrames
	if c.CurrentMove.CurrentFrame >= total {
		fd.Advantage = def.OnBlockAdvantage
	}
	return fd
}

// State is the complete authoritative simulation state for one frame.
// Stepping is a pure function of (State, inputs) -> State; State itself
// holds no channels, mutexes, or other non-deterministic handles so
// that it can be copied, snapshotted, and replayed byte-for-byte.
type State struct {
	Frame   uint64
	Hitstop int

	P0 Character
	P1 Character

	// Projectiles holds every traveling hit entity currently in flight
	// (spec §4.3.1 step 8). See projectile.go.
	Projectiles []Projectile

	// Timeline is the ordered list of events this frame produced. It is
	// drained by observers after Step and never influences future
	// frames (spec §9 "Event-emitter fan-out").
	Timeline []Event

	// rng is not part of the persisted/snapshotted state; all gameplay
	// randomness is frame-indexed and derived from Frame, never from a
	// stored generator (spec "All randomness is frame-indexed and
	// deterministic").
}

// NewMatch returns the initial state for a fresh match between two
// characters placed at the given starting X positions.
func NewMatch(p0ID, p1ID string, p0X, p1X float64, maxHealth int) State {
	facing0 := 1.0
	facing1 := -1.0
	if p0X > p1X {
		facing0, facing1 = -1.0, 1.0
	}
	return State{
		Frame: 0,
		P0: Character{
			ID: p0ID, X: p0X, Facing: facing0,
			Health: maxHealth, MaxHealth: maxHealth, Guard: 100,
			State: StateIdle,
		},
		P1: Character{
			ID: p1ID, X: p1X, Facing: facing1,
			Health: maxHealth, MaxHealth: maxHealth, Guard: 100,
			State: StateIdle,
		},
	}
}

// characters returns pointers to both characters, P0 first. Used
// internally where a function needs to visit both sides without
// plumbing an index everywhere.
func (s *State) characters() [2]*Character {
	return [2]*Character{&s.P0, &s.P1}
}
