package kernel

import "math"

// HitboxType defines the shape of a move's active hitbox. Adapted from
// the teacher's weapon hitbox shapes (internal/game/hitbox.go),
// generalized from "melee weapon vs. arena" to "move vs. opponent
// along the fighting stage's X axis" per spec §4.3.3 ("coarse AABB ...
// otherwise").
type HitboxType int8

const (
	HitboxCircle     HitboxType = iota // all-around range check
	HitboxArc                          // directional cone, width in radians
	HitboxLine                         // narrow thrust, width is half-width in stage units
	HitboxProjectile                   // handled by the projectile subsystem
)

// checkHit reports whether a point at (targetX, targetY) is covered by
// a hitbox of the given shape centered at (originX, originY) and
// facing along +facing on the X axis. All fighting-stage distances are
// normalized stage units, not pixels, but the shapes are otherwise
// identical math to the teacher's O(1) angle/distance checks.
func checkHit(shapeType HitboxType, rng, width float64, originX, originY, facing, targetX, targetY float64) bool {
	if rng <= 0 {
		return checkCoarseAABB(originX, originY, facing, targetX, targetY)
	}

	dx := targetX - originX
	dy := targetY - originY
	distance := math.Sqrt(dx*dx + dy*dy)

	if distance > rng {
		return false
	}
	if distance < 1e-6 {
		return false
	}

	direction := 0.0
	if facing < 0 {
		direction = math.Pi
	}

	switch shapeType {
	case HitboxCircle:
		return true
	case HitboxArc:
		targetAngle := math.Atan2(dy, dx)
		diff := normalizeAngle(targetAngle - direction)
		half := width / 2
		return diff >= -half && diff <= half
	case HitboxLine:
		targetAngle := math.Atan2(dy, dx)
		diff := normalizeAngle(targetAngle - direction)
		angularWidth := math.Atan2(width, distance)
		return diff >= -angularWidth && diff <= angularWidth
	case HitboxProjectile:
		return false
	}
	return false
}

func normalizeAngle(angle float64) float64 {
	const twoPi = 2 * math.Pi
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle > math.Pi {
		angle -= twoPi
	}
	return angle
}

// coarseAABBHalfWidth and coarseAABBHalfHeight are the fallback
// hurtbox dimensions used when a move has no animation-driven hit/hurt
// data (spec §4.3.3: "otherwise a coarse AABB (half-width 0.6,
// half-height 1.0)").
const (
	coarseAABBHalfWidth  = 0.6
	coarseAABBHalfHeight = 1.0
)

// checkCoarseAABB is the spec §4.3.3 fallback path, used whenever a
// MoveDef carries no Range (no animation-driven hit/hurt data): a
// fixed box spanning coarseAABBHalfWidth*2 in front of the origin
// along facing and coarseAABBHalfHeight above/below it.
func checkCoarseAABB(originX, originY, facing, targetX, targetY float64) bool {
	dx := targetX - originX
	if facing < 0 {
		dx = -dx
	}
	dy := math.Abs(targetY - originY)
	return dx >= 0 && dx <= coarseAABBHalfWidth*2 && dy <= coarseAABBHalfHeight
}

// pushboxHalfWidth is the half-width used by apply_pushboxes (spec
// Invariants: "pushboxes of the two characters never overlap").
const pushboxHalfWidth = 0.5
