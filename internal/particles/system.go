package particles

import (
	"log"
	"math/rand"
	"sync/atomic"
	"time"
)

// Options wires a System to its collaborators. Nil collaborators fall back
// to an empty world, a live (never paused) playback, free movement, zero
// projectile tuning and the system clock.
type Options struct {
	Config   Config
	World    SnapshotSource
	Playback Playback
	Mover    Mover
	Tuning   Tuning
	Clock    Clock
	Rand     *rand.Rand
}

// Stats is an immutable per-frame summary, safe to read from any goroutine.
type Stats struct {
	Frame             uint64         `json:"frame"`
	Capacity          int            `json:"capacity"`
	Free              int            `json:"free"`
	Live              [NumGroups]int `json:"live"`
	DroppedInserts    uint64         `json:"droppedInserts"`
	DroppedExplosions uint64         `json:"droppedExplosions"`
	AbortedPasses     uint64         `json:"abortedPasses"`
	LastTimePassed    float64        `json:"lastTimePassed"`
	LastUpdate        time.Duration  `json:"lastUpdateNs"`
}

// TotalLive returns the live particle count over all groups.
func (s Stats) TotalLive() int {
	n := 0
	for _, l := range s.Live {
		n += l
	}
	return n
}

// System is the particle core as seen by the rest of the client. Insert,
// RecordExplosion, ResetAll, AdvanceFrame, Update and RenderGroup must all be
// called from the frame loop goroutine.
type System struct {
	cfg        Config
	store      *Store
	explosions *ExplosionBuffer
	integrator *Integrator
	driver     *FrameDriver
	playback   Playback

	frame          uint64
	droppedInserts uint64
	lastTimePassed float64
	lastUpdate     time.Duration

	stats atomic.Pointer[Stats]
}

// New creates a System with every slot free.
func New(opts Options) *System {
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()

	world := opts.World
	if world == nil {
		world = emptySnapshot{}
	}
	playback := opts.Playback
	if playback == nil {
		playback = livePlayback{}
	}
	mover := opts.Mover
	if mover == nil {
		mover = freeMover{}
	}
	tuning := opts.Tuning
	if tuning == nil {
		tuning = zeroTuning{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &System{
		cfg:        cfg,
		store:      NewStore(cfg.Capacity),
		explosions: NewExplosionBuffer(cfg.ExplosionCapacity),
		playback:   playback,
	}
	s.integrator = newIntegrator(s.store, s.explosions, cfg, world, mover, tuning, rng)
	s.driver = NewFrameDriver(clock, playback, cfg.MaxFrameTime, s.Update)
	s.publish()
	return s
}

// Insert copies tmpl into a new particle of group g. It does nothing while a
// demo is paused or when every slot is in use.
func (s *System) Insert(g Group, tmpl *Particle) {
	if info := s.playback.Info(); info.Demo && info.Paused {
		return
	}
	if _, ok := s.store.add(g, tmpl); !ok {
		s.droppedInserts++
	}
}

// RecordExplosion queues an epicenter for the next update pass.
func (s *System) RecordExplosion(pos Vec2) {
	s.explosions.Record(pos)
}

// ResetAll returns every particle to the free pool and forgets pending
// explosions. Used when the game state is invalidated, e.g. leaving a match.
func (s *System) ResetAll() {
	live := s.store.Live()
	s.store.reset()
	s.explosions.Clear()
	if live > 0 {
		log.Printf("🧹 Particles reset (%d live particles released)", live)
	}
	s.publish()
}

// AdvanceFrame runs the frame driver: one integrator step for the wall time
// since the previous call, subject to demo pause and speed.
func (s *System) AdvanceFrame() {
	if _, ran := s.driver.Advance(); !ran {
		s.publish()
	}
}

// Update runs the integrator directly with timePassed seconds. Fixed-step
// tools and tests use it instead of AdvanceFrame.
func (s *System) Update(timePassed float64) {
	start := time.Now()
	s.integrator.Update(timePassed)
	s.lastUpdate = time.Since(start)
	s.lastTimePassed = timePassed
	s.frame++
	s.publish()
}

// RenderGroup draws the current particles of group g.
func (s *System) RenderGroup(g Group, b Backend) {
	renderGroup(s.store, g, b)
}

// Store exposes the arena for read-only inspection.
func (s *System) Store() *Store {
	return s.store
}

// Config returns the effective configuration.
func (s *System) Config() Config {
	return s.cfg
}

// Stats returns the summary published after the latest frame.
func (s *System) Stats() Stats {
	return *s.stats.Load()
}

func (s *System) publish() {
	st := &Stats{
		Frame:             s.frame,
		Capacity:          s.store.Capacity(),
		Free:              s.store.FreeLen(),
		DroppedInserts:    s.droppedInserts,
		DroppedExplosions: s.explosions.Dropped(),
		AbortedPasses:     s.integrator.Aborted(),
		LastTimePassed:    s.lastTimePassed,
		LastUpdate:        s.lastUpdate,
	}
	for g := Group(0); g < NumGroups; g++ {
		st.Live[g] = s.store.Len(g)
	}
	s.stats.Store(st)
}
