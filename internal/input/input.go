// Package input implements the bijection between a named boolean input
// set and the 32-bit wire mask carried by the transport.
package input

// PlayerInput is the fixed set of booleans sampled once per frame.
// Field order is cosmetic; bit position (see the const block below) is
// the wire format and must never be reordered.
type PlayerInput struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool

	LightPunch  bool
	MediumPunch bool
	HeavyPunch  bool
	LightKick   bool
	MediumKick  bool
	HeavyKick   bool

	Hadoken   bool // motion-triggered special flag
	Shoryuken bool
	Tatsumaki bool
}

// Bit positions, fixed across builds that interoperate (spec §4.1).
const (
	BitUp = iota
	BitDown
	BitLeft
	BitRight
	BitLightPunch
	BitMediumPunch
	BitHeavyPunch
	BitLightKick
	BitMediumKick
	BitHeavyKick
	BitHadoken
	BitShoryuken
	BitTatsumaki

	numBits
)

// ValidMask has exactly the bits used by PlayerInput set; bits 13-31
// are reserved and must be zero on the wire.
const ValidMask uint32 = (1 << numBits) - 1

// Encode packs a PlayerInput into its 32-bit wire mask. Unused bits are
// always zero.
func Encode(in PlayerInput) uint32 {
	var b uint32
	if in.Up {
		b |= 1 << BitUp
	}
	if in.Down {
		b |= 1 << BitDown
	}
	if in.Left {
		b |= 1 << BitLeft
	}
	if in.Right {
		b |= 1 << BitRight
	}
	if in.LightPunch {
		b |= 1 << BitLightPunch
	}
	if in.MediumPunch {
		b |= 1 << BitMediumPunch
	}
	if in.HeavyPunch {
		b |= 1 << BitHeavyPunch
	}
	if in.LightKick {
		b |= 1 << BitLightKick
	}
	if in.MediumKick {
		b |= 1 << BitMediumKick
	}
	if in.HeavyKick {
		b |= 1 << BitHeavyKick
	}
	if in.Hadoken {
		b |= 1 << BitHadoken
	}
	if in.Shoryuken {
		b |= 1 << BitShoryuken
	}
	if in.Tatsumaki {
		b |= 1 << BitTatsumaki
	}
	return b
}

// Decode unpacks a 32-bit wire mask into a PlayerInput. Reserved bits
// (13-31) are ignored.
func Decode(bits uint32) PlayerInput {
	return PlayerInput{
		Up:          bits&(1<<BitUp) != 0,
		Down:        bits&(1<<BitDown) != 0,
		Left:        bits&(1<<BitLeft) != 0,
		Right:       bits&(1<<BitRight) != 0,
		LightPunch:  bits&(1<<BitLightPunch) != 0,
		MediumPunch: bits&(1<<BitMediumPunch) != 0,
		HeavyPunch:  bits&(1<<BitHeavyPunch) != 0,
		LightKick:   bits&(1<<BitLightKick) != 0,
		MediumKick:  bits&(1<<BitMediumKick) != 0,
		HeavyKick:   bits&(1<<BitHeavyKick) != 0,
		Hadoken:     bits&(1<<BitHadoken) != 0,
		Shoryuken:   bits&(1<<BitShoryuken) != 0,
		Tatsumaki:   bits&(1<<BitTatsumaki) != 0,
	}
}

// AnyAttack reports whether any attack button is held, used by the
// kernel's movement/attack-select branch (spec §4.3.2).
func (in PlayerInput) AnyAttack() bool {
	return in.LightPunch || in.MediumPunch || in.HeavyPunch ||
		in.LightKick || in.MediumKick || in.HeavyKick
}
