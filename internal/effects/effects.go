// Package effects turns gameplay events into particles. Each emitter builds
// particles from the stock template and hands them to a Sink, normally the
// particle System. Trail emitters are rate limited by gates that OnFrame
// recomputes once per rendered frame.
package effects

import (
	"math"
	"math/rand"
	"time"

	"fxcore/internal/particles"
	"fxcore/internal/world"
)

// Sink receives emitted particles and explosion epicenters.
type Sink interface {
	Insert(g particles.Group, p *particles.Particle)
	RecordExplosion(pos particles.Vec2)
}

// Gate rates
const (
	trailHz  = 50.0  // smoke trails
	bulletHz = 100.0 // bullet trails
)

// Effects holds the emitter state shared across a frame.
type Effects struct {
	sink     Sink
	clock    particles.Clock
	playback particles.Playback
	rng      *rand.Rand

	last50, last100 time.Time
	add50, add100   bool
}

// New creates an emitter set. A nil rng is seeded from the clock.
func New(sink Sink, clock particles.Clock, playback particles.Playback, rng *rand.Rand) *Effects {
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return &Effects{sink: sink, clock: clock, playback: playback, rng: rng}
}

// OnFrame recomputes the 50 Hz and 100 Hz gates. During demo playback the
// gate periods shrink or grow with the playback speed.
func (e *Effects) OnFrame() {
	now := e.clock.Now()
	speed := 1.0
	if info := e.playback.Info(); info.Demo && info.Speed > 0 {
		speed = info.Speed
	}

	e.add100 = now.Sub(e.last100).Seconds() > 1/(bulletHz*speed)
	if e.add100 {
		e.last100 = now
	}
	e.add50 = now.Sub(e.last50).Seconds() > 1/(trailHz*speed)
	if e.add50 {
		e.last50 = now
	}
}

// Gates reports the current 50 Hz and 100 Hz gate state.
func (e *Effects) Gates() (add50, add100 bool) {
	return e.add50, e.add100
}

func (e *Effects) frandom() float64 {
	return e.rng.Float64()
}

func (e *Effects) randomDir() particles.Vec2 {
	a := e.frandom() * 2 * math.Pi
	return particles.V2(math.Cos(a), math.Sin(a))
}

// AirJump puts two puffs under the feet of a double-jumping character.
func (e *Effects) AirJump(pos particles.Vec2) {
	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteAirJump
	p.Pos = pos.Add(particles.V2(-6, 16))
	p.Vel = particles.V2(0, -200)
	p.LifeSpan = 0.5
	p.StartSize = 48
	p.EndSize = 0
	p.Rot = e.frandom() * math.Pi * 2
	p.RotSpeed = math.Pi * 2
	p.Gravity = 500
	p.Friction = 0.7
	p.FlowAffected = 0
	e.sink.Insert(particles.GroupGeneral, &p)

	p.Pos = pos.Add(particles.V2(6, 16))
	e.sink.Insert(particles.GroupGeneral, &p)
}

// SmokeTrail emits one puff behind a grenade. Gated at 50 Hz.
func (e *Effects) SmokeTrail(pos, vel particles.Vec2) {
	if !e.add50 {
		return
	}
	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteSmoke
	p.Pos = pos
	p.Vel = vel.Add(e.randomDir().Scale(50))
	p.LifeSpan = 0.5 + e.frandom()*0.5
	p.StartSize = 12 + e.frandom()*8
	p.EndSize = 0
	p.Friction = 0.7
	p.Gravity = e.frandom() * -500
	e.sink.Insert(particles.GroupProjectileTrail, &p)
}

// SkidTrail emits dust under a character braking on the ground. Gated at 100 Hz.
func (e *Effects) SkidTrail(pos, vel particles.Vec2) {
	if !e.add100 {
		return
	}
	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteSmoke
	p.Pos = pos
	p.Vel = vel.Add(e.randomDir().Scale(50))
	p.LifeSpan = 0.5 + e.frandom()*0.5
	p.StartSize = 24 + e.frandom()*12
	p.EndSize = 0
	p.Friction = 0.7
	p.Gravity = e.frandom() * -500
	p.Color = particles.Color{R: 0.75, G: 0.75, B: 0.75, A: 1}
	e.sink.Insert(particles.GroupGeneral, &p)
}

// BulletTrail emits one spark behind a bullet. Gated at 100 Hz.
func (e *Effects) BulletTrail(pos particles.Vec2) {
	if !e.add100 {
		return
	}
	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteBall
	p.Pos = pos
	p.LifeSpan = 0.25 + e.frandom()*0.25
	p.StartSize = 8
	p.EndSize = 0
	p.Friction = 0.7
	e.sink.Insert(particles.GroupProjectileTrail, &p)
}

// PlayerSpawn bursts shells around a spawning character.
func (e *Effects) PlayerSpawn(pos particles.Vec2) {
	for i := 0; i < 32; i++ {
		p := particles.DefaultParticle()
		p.Sprite = particles.SpriteShell
		p.Pos = pos
		p.Vel = e.randomDir().Scale(math.Pow(e.frandom(), 3) * 600)
		p.LifeSpan = 0.3 + e.frandom()*0.3
		p.StartSize = 64 + e.frandom()*32
		p.EndSize = 0
		p.Rot = e.frandom() * math.Pi * 2
		p.RotSpeed = e.frandom()
		p.Gravity = e.frandom() * -400
		p.Friction = 0.7
		p.Color = particles.Color{R: 0xb5 / 255.0, G: 0x50 / 255.0, B: 0xcb / 255.0, A: 1}
		e.sink.Insert(particles.GroupGeneral, &p)
	}
}

// PlayerDeath splatters blood in the victim's color.
func (e *Effects) PlayerDeath(pos particles.Vec2, clientID int) {
	blood := BloodColor(clientID)
	for i := 0; i < 64; i++ {
		p := particles.DefaultParticle()
		p.Sprite = particles.SpriteSplat01 + particles.Sprite(e.rng.Intn(3))
		p.Pos = pos
		p.Vel = e.randomDir().Scale((e.frandom() + 0.1) * 900)
		p.LifeSpan = 0.3 + e.frandom()*0.3
		p.StartSize = 24 + e.frandom()*16
		p.EndSize = 0
		p.Rot = e.frandom() * math.Pi * 2
		p.RotSpeed = (e.frandom() - 0.5) * math.Pi
		p.Gravity = 800
		p.Friction = 0.8
		k := 0.75 + e.frandom()*0.25
		p.Color = particles.Color{R: blood.R * k, G: blood.G * k, B: blood.B * k, A: 0.75}
		e.sink.Insert(particles.GroupGeneral, &p)
	}
}

// Explosion records the epicenter for the flow pass, then adds the flash
// and a ring of smoke.
func (e *Effects) Explosion(pos particles.Vec2) {
	e.sink.RecordExplosion(pos)

	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteExpl01
	p.Pos = pos
	p.LifeSpan = 0.4
	p.StartSize = 150
	p.EndSize = 0
	p.Rot = e.frandom() * math.Pi * 2
	e.sink.Insert(particles.GroupExplosions, &p)

	grey := particles.Color{R: 0.75, G: 0.75, B: 0.75, A: 1}
	dark := particles.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	for i := 0; i < 24; i++ {
		p := particles.DefaultParticle()
		p.Sprite = particles.SpriteSmoke
		p.Pos = pos
		p.Vel = e.randomDir().Scale((1 + e.frandom()*0.2) * 1000)
		p.LifeSpan = 0.5 + e.frandom()*0.4
		p.StartSize = 32 + e.frandom()*8
		p.EndSize = 0
		p.Gravity = e.frandom() * -800
		p.Friction = 0.4
		p.Color = mixColor(grey, dark, e.frandom())
		e.sink.Insert(particles.GroupGeneral, &p)
	}
}

// HammerHit flashes a single hit sprite where a shot landed.
func (e *Effects) HammerHit(pos particles.Vec2) {
	p := particles.DefaultParticle()
	p.Sprite = particles.SpriteHit01
	p.Pos = pos
	p.LifeSpan = 0.3
	p.StartSize = 120
	p.EndSize = 0
	p.Rot = e.frandom() * math.Pi * 2
	e.sink.Insert(particles.GroupExplosions, &p)
}

// Handle dispatches one gameplay event to its emitter.
func (e *Effects) Handle(ev world.Event) {
	switch ev.Kind {
	case world.EventSpawn:
		e.PlayerSpawn(ev.Pos)
	case world.EventAirJump:
		e.AirJump(ev.Pos)
	case world.EventImpact:
		e.HammerHit(ev.Pos)
	case world.EventExplosion:
		e.Explosion(ev.Pos)
	case world.EventDeath:
		e.PlayerDeath(ev.Pos, ev.ClientID)
	}
}

// HandleAll dispatches every event in order.
func (e *Effects) HandleAll(events []world.Event) {
	for _, ev := range events {
		e.Handle(ev)
	}
}

// bloodPalette tints blood per client slot.
var bloodPalette = [...]particles.Color{
	{R: 0.80, G: 0.05, B: 0.05, A: 1},
	{R: 0.10, G: 0.45, B: 0.85, A: 1},
	{R: 0.15, G: 0.70, B: 0.20, A: 1},
	{R: 0.85, G: 0.65, B: 0.10, A: 1},
	{R: 0.60, G: 0.20, B: 0.75, A: 1},
	{R: 0.95, G: 0.45, B: 0.10, A: 1},
	{R: 0.20, G: 0.75, B: 0.75, A: 1},
	{R: 0.90, G: 0.30, B: 0.55, A: 1},
}

// BloodColor returns the blood tint for a client slot, white when the slot
// is unknown.
func BloodColor(clientID int) particles.Color {
	if clientID < 0 {
		return particles.White
	}
	return bloodPalette[clientID%len(bloodPalette)]
}

func mixColor(a, b particles.Color, t float64) particles.Color {
	return particles.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
