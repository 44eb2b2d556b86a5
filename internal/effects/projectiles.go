package effects

import (
	"math"

	"fxcore/internal/particles"
)

// trailDiffTime is the look-back used to estimate a projectile's heading.
const trailDiffTime = 0.001

// ProjectileTrails emits the trail of every projectile in the snapshot at
// its render-time position: smoke behind grenades, sparks behind the rest.
// Projectiles that have not been launched yet at render time are skipped.
func (e *Effects) ProjectileTrails(src particles.SnapshotSource, tuning particles.Tuning) {
	tickSpeed := float64(src.TickSpeed())
	if tickSpeed <= 0 {
		tickSpeed = particles.DefaultTickSpeed
	}
	prevTick := src.PrevGameTick()
	tickTime := src.GameTickTime()

	for i, n := 0, src.NumItems(); i < n; i++ {
		item := src.Item(i)
		if item.Type != particles.ItemProjectile {
			continue
		}
		proj, ok := item.Data.(*particles.Projectile)
		if !ok || proj == nil {
			continue
		}

		ct := float64(prevTick-proj.StartTick)/tickSpeed + tickTime
		if ct < 0 {
			continue
		}
		curvature, speed := tuning.ProjectileParams(proj.Weapon)
		start, dir := proj.StartPos(), proj.StartVel()
		pos := particles.CalcPos(start, dir, curvature, speed, ct)
		prev := particles.CalcPos(start, dir, curvature, speed, ct-trailDiffTime)

		if proj.Weapon == particles.WeaponGrenade {
			e.SmokeTrail(pos, prev.Sub(pos))
		} else {
			e.BulletTrail(pos)
		}
	}
}

// CharacterSkids emits skid dust under grounded characters that are braking:
// still moving the same way as last tick, but slower.
func (e *Effects) CharacterSkids(src particles.SnapshotSource) {
	intra := src.IntraTick()
	for _, c := range src.Characters() {
		if !c.Active || c.Prev.VelY != 0 || c.Cur.VelY != 0 {
			continue
		}
		prev, cur := c.Prev.Vel(), c.Cur.Vel()
		if prev.X*cur.X <= 0 || math.Abs(cur.X) >= math.Abs(prev.X) {
			continue
		}
		pos := particles.Mix(c.Prev.Pos(), c.Cur.Pos(), intra)
		e.SkidTrail(pos.Add(particles.V2(0, 14)), particles.V2(-cur.X*20, 0))
	}
}
