package kernel

import "math"

// Stage and movement tuning constants. Normalized stage units, not
// pixels; one unit is roughly a character's own width.
const (
	stageHalfWidth = 6.0

	walkSpeedPerFrame   = 0.05
	gravityPerFrame     = 0.015
	airFriction         = 0.98
	landVYThreshold     = 0.03
	defaultBounceFactor = 0.45
)

// applyAirbornePhysics integrates gravity and drift for an airborne
// character, then resolves wall/ground bounces (spec §4.3.1 step 6).
func applyAirbornePhysics(c *Character) {
	if !c.Airborne {
		return
	}

	c.VY -= gravityPerFrame
	c.VX *= airFriction
	c.X += c.VX
	c.Y += c.VY

	if c.X < -stageHalfWidth+pushboxHalfWidth {
		c.X = -stageHalfWidth + pushboxHalfWidth
		c.VX = -c.VX * defaultBounceFactor
	} else if c.X > stageHalfWidth-pushboxHalfWidth {
		c.X = stageHalfWidth - pushboxHalfWidth
		c.VX = -c.VX * defaultBounceFactor
	}

	if c.Y <= 0 {
		c.Y = 0
		if math.Abs(c.VY) < landVYThreshold {
			c.Airborne = false
			c.VX, c.VY = 0, 0
		} else {
			c.VY = -c.VY * defaultBounceFactor
		}
	}
}

// resolvePushboxes keeps the two characters' pushboxes from overlapping
// and clamps both inside the stage bounds (spec §4.3.1 step 7,
// Invariants "pushboxes of the two characters never overlap").
func resolvePushboxes(s *State) {
	clamp := func(c *Character) {
		if c.X < -stageHalfWidth+pushboxHalfWidth {
			c.X = -stageHalfWidth + pushboxHalfWidth
		} else if c.X > stageHalfWidth-pushboxHalfWidth {
			c.X = stageHalfWidth - pushboxHalfWidth
		}
	}
	clamp(&s.P0)
	clamp(&s.P1)

	overlap := 2*pushboxHalfWidth - math.Abs(s.P0.X-s.P1.X)
	if overlap <= 0 {
		return
	}

	dir := -1.0
	if s.P0.X > s.P1.X {
		dir = 1.0
	}

	p0AtWall := s.P0.X <= -stageHalfWidth+pushboxHalfWidth || s.P0.X >= stageHalfWidth-pushboxHalfWidth
	p1AtWall := s.P1.X <= -stageHalfWidth+pushboxHalfWidth || s.P1.X >= stageHalfWidth-pushboxHalfWidth

	switch {
	case p0AtWall && !p1AtWall:
		s.P1.X -= dir * overlap
	case p1AtWall && !p0AtWall:
		s.P0.X += dir * overlap
	default:
		half := overlap / 2
		s.P0.X += dir * half
		s.P1.X -= dir * half
	}
}

// recomputeFacing turns both characters to face one another (spec
// §4.3.1 step 5).
func recomputeFacing(s *State) {
	if s.P0.X <= s.P1.X {
		s.P0.Facing, s.P1.Facing = 1, -1
	} else {
		s.P0.Facing, s.P1.Facing = -1, 1
	}
}
