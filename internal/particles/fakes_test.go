package particles

import (
	"math"
	"math/rand"
	"time"
)

const eps = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func approxVec(a, b Vec2) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y)
}

// fakeWorld is a hand-built snapshot.
type fakeWorld struct {
	chars     []Character
	intra     float64
	prevTick  int
	tickTime  float64
	tickSpeed int
	items     []SnapItem
}

func (w *fakeWorld) Characters() []Character { return w.chars }
func (w *fakeWorld) IntraTick() float64       { return w.intra }
func (w *fakeWorld) PrevGameTick() int        { return w.prevTick }
func (w *fakeWorld) GameTickTime() float64    { return w.tickTime }
func (w *fakeWorld) NumItems() int            { return len(w.items) }
func (w *fakeWorld) Item(i int) SnapItem      { return w.items[i] }

func (w *fakeWorld) TickSpeed() int {
	if w.tickSpeed == 0 {
		return DefaultTickSpeed
	}
	return w.tickSpeed
}

// fakeTuning gives every weapon the same parameters.
type fakeTuning struct {
	curvature, speed float64
}

func (t fakeTuning) ProjectileParams(Weapon) (float64, float64) {
	return t.curvature, t.speed
}

// fakePlayback is a settable playback controller.
type fakePlayback struct {
	info PlaybackInfo
}

func (p *fakePlayback) Info() PlaybackInfo { return p.info }

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// spyMover records calls and optionally bounces the displacement.
type spyMover struct {
	calls        int
	elasticities []float64
	disps        []Vec2
	bounce       func(disp Vec2, elasticity float64) Vec2
}

func (m *spyMover) MovePoint(pos, disp Vec2, elasticity float64) (Vec2, Vec2) {
	m.calls++
	m.elasticities = append(m.elasticities, elasticity)
	m.disps = append(m.disps, disp)
	if m.bounce != nil {
		return pos, m.bounce(disp, elasticity)
	}
	return pos.Add(disp), disp
}

// recordingBackend logs every backend call.
type recordingBackend struct {
	calls []string
	quads []Quad
	rots  []float64
	cols  []Color
	sprs  []Sprite
}

func (b *recordingBackend) BlendNormal()       { b.calls = append(b.calls, "blend") }
func (b *recordingBackend) BindParticleAtlas() { b.calls = append(b.calls, "atlas") }
func (b *recordingBackend) QuadsBegin()        { b.calls = append(b.calls, "begin") }
func (b *recordingBackend) QuadsEnd()          { b.calls = append(b.calls, "end") }

func (b *recordingBackend) SelectSprite(s Sprite) {
	b.calls = append(b.calls, "sprite")
	b.sprs = append(b.sprs, s)
}

func (b *recordingBackend) SetRotation(r float64) {
	b.calls = append(b.calls, "rot")
	b.rots = append(b.rots, r)
}

func (b *recordingBackend) SetColor(c Color) {
	b.calls = append(b.calls, "color")
	b.cols = append(b.cols, c)
}

func (b *recordingBackend) DrawQuad(q Quad) {
	b.calls = append(b.calls, "quad")
	b.quads = append(b.quads, q)
}

// newTestSystem builds a System with deterministic randomness.
func newTestSystem(cfg Config, opts Options) *System {
	opts.Config = cfg
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	return New(opts)
}

// testConfig is DefaultConfig with a smaller arena.
func testConfig(capacity int) Config {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	return cfg
}

// still returns a long-lived particle that keeps its velocity.
func still(pos Vec2) Particle {
	p := DefaultParticle()
	p.Pos = pos
	p.Friction = 1
	p.LifeSpan = 100
	return p
}
