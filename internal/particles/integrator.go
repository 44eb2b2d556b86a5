package particles

import "math/rand"

// Integrator advances every live particle by one frame and expires the ones
// that outlived their life span.
type Integrator struct {
	store      *Store
	explosions *ExplosionBuffer
	world      SnapshotSource
	mover      Mover
	tuning     Tuning
	rng        *rand.Rand
	cfg        Config

	// frictionFraction carries the sub-step remainder from frame to frame.
	// It is shared by all particles so every particle gets the same number
	// of friction steps in a given frame.
	frictionFraction float64

	aborted uint64
}

// inFlight is a projectile reconstructed for the current frame.
type inFlight struct {
	pos        Vec2
	vel        Vec2
	unlaunched bool
}

// frame is the state derived once per Update and shared by every particle.
type frame struct {
	timePassed    float64
	frictionSteps int
	intraTick     float64
	characters    []Character
	explosions    []Vec2
	projectiles   []inFlight
}

func newIntegrator(store *Store, explosions *ExplosionBuffer, cfg Config, world SnapshotSource, mover Mover, tuning Tuning, rng *rand.Rand) *Integrator {
	return &Integrator{
		store:      store,
		explosions: explosions,
		world:      world,
		mover:      mover,
		tuning:     tuning,
		rng:        rng,
		cfg:        cfg,
	}
}

// Update runs one pass over every group. Negative timePassed is treated as
// zero. The explosion buffer is cleared when the pass ends, including a
// pass cut short by an unlaunched projectile.
func (it *Integrator) Update(timePassed float64) {
	defer it.explosions.Clear()

	if timePassed < 0 {
		timePassed = 0
	}
	f := it.beginFrame(timePassed)

	visit := func(_ int32, p *Particle) Visit {
		return it.step(&f, p)
	}
	for g := Group(0); g < NumGroups; g++ {
		if !it.store.sweep(g, visit) {
			it.aborted++
			return
		}
	}
}

// beginFrame advances the friction accumulator and reads the world once.
func (it *Integrator) beginFrame(timePassed float64) frame {
	it.frictionFraction += timePassed
	if it.frictionFraction > it.cfg.FrictionCeiling {
		it.frictionFraction = 0
	}
	steps := 0
	for it.frictionFraction > it.cfg.FrictionStep {
		steps++
		it.frictionFraction -= it.cfg.FrictionStep
	}

	return frame{
		timePassed:    timePassed,
		frictionSteps: steps,
		intraTick:     it.world.IntraTick(),
		characters:    it.world.Characters(),
		explosions:    it.explosions.Drain(),
		projectiles:   it.reconstructProjectiles(),
	}
}

// reconstructProjectiles rebuilds the current position and velocity of
// every projectile in the snapshot from its launch parameters. Tuning is
// read here, once per frame, because the server may change it at any time.
// The list stops at the first unlaunched projectile when aborting is on,
// since no particle can get past it.
func (it *Integrator) reconstructProjectiles() []inFlight {
	n := it.world.NumItems()
	if n == 0 {
		return nil
	}

	tickSpeed := float64(it.world.TickSpeed())
	if tickSpeed <= 0 {
		tickSpeed = DefaultTickSpeed
	}
	prevTick := it.world.PrevGameTick()
	tickTime := it.world.GameTickTime()

	out := make([]inFlight, 0, n)
	for i := 0; i < n; i++ {
		item := it.world.Item(i)
		if item.Type != ItemProjectile {
			continue
		}
		proj, ok := item.Data.(*Projectile)
		if !ok || proj == nil {
			continue
		}

		ct := float64(prevTick-proj.StartTick)/tickSpeed + tickTime
		if ct < 0 {
			if it.cfg.AbortOnUnlaunchedProjectile {
				out = append(out, inFlight{unlaunched: true})
				break
			}
			continue
		}

		curvature, speed := it.tuning.ProjectileParams(proj.Weapon)
		start, dir := proj.StartPos(), proj.StartVel()
		pos := CalcPos(start, dir, curvature, speed, ct)
		prev := CalcPos(start, dir, curvature, speed, ct-projectileDiffTime)
		out = append(out, inFlight{pos: pos, vel: pos.Sub(prev)})
	}
	return out
}

// step applies one frame to p.
func (it *Integrator) step(f *frame, p *Particle) Visit {
	tp := f.timePassed

	if p.FlowAffected != 0 {
		it.flowCharacters(f, p)
		it.flowExplosions(f, p)
		if !it.flowProjectiles(f, p) {
			return Halt
		}
	}

	p.Vel.Y += p.Gravity * tp

	for i := 0; i < f.frictionSteps; i++ {
		p.Vel = p.Vel.Scale(p.Friction)
	}

	if tp > 0 {
		disp := p.Vel.Scale(tp)
		p.Pos, disp = it.mover.MovePoint(p.Pos, disp, 0.1+0.9*it.rng.Float64())
		p.Vel = disp.Scale(1.0 / tp)
	}

	p.Life += tp
	p.Rot += tp * p.RotSpeed

	if p.Life > p.LifeSpan {
		return Expire
	}
	return Keep
}

// flowCharacters drags p along with nearby moving characters.
func (it *Integrator) flowCharacters(f *frame, p *Particle) {
	for i := range f.characters {
		c := &f.characters[i]
		if !c.Active {
			continue
		}
		pos := Mix(c.Prev.Pos(), c.Cur.Pos(), f.intraTick)
		vel := Mix(c.Prev.Vel(), c.Cur.Vel(), f.intraTick)
		speed := clampf(vel.Length(), 0, characterSpeedCap)
		if Distance(pos, p.Pos) < characterFlowRadius {
			k := ((1 - (speed/characterSpeedScale)*p.FlowAffected) + 0.05) * f.timePassed * flowTimeScale
			p.Vel = p.Vel.Add(vel.Scale(k))
		}
	}
}

// flowExplosions pushes p away from this frame's explosion epicenters.
func (it *Integrator) flowExplosions(f *frame, p *Particle) {
	for _, e := range f.explosions {
		d := Distance(p.Pos, e)
		if d < explosionRadius && d > 0 {
			dir := p.Pos.Sub(e).Normalize()
			k := explosionForce * ((explosionRadius - d) / explosionRadius) * f.timePassed * flowTimeScale
			p.Vel = p.Vel.Add(dir.Scale(k))
		}
	}
}

// flowProjectiles drags p along with projectiles passing close by. It
// returns false when it meets an unlaunched projectile and the pass must end.
func (it *Integrator) flowProjectiles(f *frame, p *Particle) bool {
	for _, proj := range f.projectiles {
		if proj.unlaunched {
			return false
		}
		if Distance(proj.pos, p.Pos) < projectileFlowRadius {
			k := projectileFlowScale * p.FlowAffected * f.timePassed * flowTimeScale
			p.Vel = p.Vel.Add(proj.vel.Scale(k))
		}
	}
	return true
}

// Aborted returns how many passes ended early on an unlaunched projectile.
func (it *Integrator) Aborted() uint64 {
	return it.aborted
}
