package kernel

// Projectile is a traveling hit entity spawned by a projectile move
// (e.g. "hadoken"). The spec's data model (§3) doesn't enumerate a
// top-level Projectiles field explicitly, but §4.3.1 step 8 requires
// stepping and colliding them every frame; this is the supplemented
// state that makes that step possible.
type Projectile struct {
	OwnerSide int8 // 0 => owned by P0, 1 => owned by P1
	MoveName  string
	X, Y      float64
	Dir       float64 // +1 or -1 along X
	Speed     float64
	Lifetime  int
	Damage    int
}

const projectileHitRadius = 0.5

// spawnProjectileIfDue creates the projectile entity the first frame a
// projectile move becomes Active, guarded by a per-instance flag so a
// single move only ever spawns one entity.
func spawnProjectileIfDue(s *State, side int8, c *Character) {
	if c.CurrentMove == nil || c.CurrentMove.Phase != PhaseActive || c.CurrentMove.projectileSpawned {
		return
	}
	def, ok := LookupMove(c.CurrentMove.Name)
	if !ok || def.HitboxType != HitboxProjectile {
		return
	}
	c.CurrentMove.projectileSpawned = true
	s.Projectiles = append(s.Projectiles, Projectile{
		OwnerSide: side,
		MoveName:  def.Name,
		X:         c.X,
		Y:         c.Y,
		Dir:       c.Facing,
		Speed:     0.18,
		Lifetime:  90,
		Damage:    def.Damage,
	})
}

// stepProjectiles advances every live projectile, applies hits against
// the opposing character, and drops expired/out-of-bounds ones.
// p0Blocking/p0Parrying and p1Blocking/p1Parrying are the same
// per-frame block/parry edges Step computes for the melee collision
// pass (step 10), so a projectile is blocked or parried exactly when a
// melee hit against the same defender would be (spec §4.3.1 step 8:
// "using the same collision rules as melee").
func stepProjectiles(s *State, p0Blocking, p0Parrying, p1Blocking, p1Parrying bool) {
	n := 0
	for _, p := range s.Projectiles {
		p.X += p.Dir * p.Speed
		p.Lifetime--

		var target *Character
		var defBlocking, defParrying bool
		if p.OwnerSide == 0 {
			target = &s.P1
			defBlocking, defParrying = p1Blocking, p1Parrying
		} else {
			target = &s.P0
			defBlocking, defParrying = p0Blocking, p0Parrying
		}

		hit := p.Lifetime <= 0 || p.X < -stageHalfWidth-1 || p.X > stageHalfWidth+1
		if !hit && target.State != StateKO {
			dx := target.X - p.X
			dy := target.Y - p.Y
			if dx*dx+dy*dy <= projectileHitRadius*projectileHitRadius {
				def, ok := LookupMove(p.MoveName)
				if ok {
					var attacker *Character
					if p.OwnerSide == 0 {
						attacker = &s.P0
					} else {
						attacker = &s.P1
					}
					resolveAttackOutcome(s, attacker, target, def, defBlocking, defParrying)
				}
				hit = true
			}
		}

		if !hit {
			s.Projectiles[n] = p
			n++
		}
	}
	s.Projectiles = s.Projectiles[:n]
}
