package world

import (
	"math"
	"math/rand"

	"fxcore/internal/config"
	"fxcore/internal/particles"
)

// EventKind classifies a gameplay event the effects layer reacts to.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventSpawn
	EventFire
	EventAirJump
	EventImpact
	EventExplosion
	EventDeath
)

// String returns human-readable event kind
func (k EventKind) String() string {
	switch k {
	case EventSpawn:
		return "spawn"
	case EventFire:
		return "fire"
	case EventAirJump:
		return "air_jump"
	case EventImpact:
		return "impact"
	case EventExplosion:
		return "explosion"
	case EventDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Event is something that happened during a server tick.
type Event struct {
	Kind     EventKind
	Tick     int
	ClientID int
	Weapon   particles.Weapon
	Pos      particles.Vec2
}

// Character movement, in world units per tick
const (
	charHalfSize     = 14.0
	charGravity      = 0.5
	charWalkSpeed    = 6.0
	charWalkAccel    = 1.5
	charJumpImpulse  = 13.2
	charAirJump      = 12.0
	charMaxFallSpeed = 20.0
	charRadius       = 28.0

	grenadeKillRadius = 48.0
	shotLifeSeconds   = 2.0
	respawnSeconds    = 1.0
	shotgunPellets    = 3
	shotgunSpread     = 0.08 // radians between pellets
)

type player struct {
	id          int
	pos, vel    particles.Vec2
	prev, cur   particles.CharacterCore
	dir         float64
	grounded    bool
	airJumps    int
	alive       bool
	respawnTick int
	nextFire    int
	weapon      particles.Weapon
}

type shot struct {
	id        int
	owner     int
	weapon    particles.Weapon
	startTick int
	start     particles.Vec2
	dir       particles.Vec2
}

// Scenario is a scripted match standing in for the game server and the
// network layer. Step advances server ticks at the configured tick speed
// and publishes one Snapshot per call.
type Scenario struct {
	cfg    config.WorldConfig
	tiles  *TileMap
	tuning *Tuning
	pool   *SnapshotPool
	rng    *rand.Rand

	players    []player
	shots      []shot
	nextShotID int

	tick     int
	tickDur  float64
	accum    float64
	events   []Event
	drained  bool
	fireable []particles.Weapon
}

// NewScenario creates a match on tiles with cfg.Players scripted characters.
func NewScenario(cfg config.WorldConfig, tiles *TileMap, tuning *Tuning) *Scenario {
	if cfg.TickSpeed <= 0 {
		cfg.TickSpeed = particles.DefaultTickSpeed
	}
	players := cfg.Players
	if players > MaxClients {
		players = MaxClients
	}

	s := &Scenario{
		cfg:      cfg,
		tiles:    tiles,
		tuning:   tuning,
		pool:     NewSnapshotPool(cfg.TickSpeed),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		players:  make([]player, players),
		shots:    make([]shot, 0, MaxProjectiles),
		tickDur:  1.0 / float64(cfg.TickSpeed),
		events:   make([]Event, 0, 64),
		fireable: []particles.Weapon{particles.WeaponGun, particles.WeaponShotgun, particles.WeaponGrenade},
	}
	for i := range s.players {
		p := &s.players[i]
		p.id = i
		p.weapon = s.fireable[i%len(s.fireable)]
		s.spawn(p)
	}
	s.publish()
	return s
}

// Step advances the match by dt seconds of game time, running zero or more
// ticks, and publishes a snapshot interpolated to the leftover fraction.
// It returns the events raised since the previous call, including the
// initial spawns on the first call; the slice is reused by the next call.
func (s *Scenario) Step(dt float64) []Event {
	if s.drained {
		s.events = s.events[:0]
	}
	s.drained = true
	if dt > 0 {
		s.accum += dt
	}
	for s.accum >= s.tickDur {
		s.accum -= s.tickDur
		s.advance()
	}
	s.publish()
	return s.events
}

// Source returns the snapshot view for the particle core.
func (s *Scenario) Source() particles.SnapshotSource {
	return s.pool.Source()
}

// Snapshot returns the latest published snapshot.
func (s *Scenario) Snapshot() *Snapshot {
	return s.pool.AcquireRead()
}

// Tiles returns the collision map.
func (s *Scenario) Tiles() *TileMap {
	return s.tiles
}

// Tick returns the current server tick.
func (s *Scenario) Tick() int {
	return s.tick
}

func (s *Scenario) emit(kind EventKind, id int, w particles.Weapon, pos particles.Vec2) {
	s.events = append(s.events, Event{Kind: kind, Tick: s.tick, ClientID: id, Weapon: w, Pos: pos})
}

func (s *Scenario) spawn(p *player) {
	ts := s.tiles.TileSize()
	col := 2 + s.rng.Intn(max(1, s.tiles.Cols()-4))
	x := (float64(col) + 0.5) * ts
	y := s.tiles.FloorY(col, 2*ts) - charHalfSize

	p.pos = particles.V2(x, y)
	p.vel = particles.Vec2{}
	p.dir = 1
	if s.rng.Intn(2) == 0 {
		p.dir = -1
	}
	p.alive = true
	p.grounded = true
	p.airJumps = 1
	p.nextFire = s.tick + s.cfg.TickSpeed/2 + s.rng.Intn(s.cfg.TickSpeed)
	p.cur = core(p.pos, p.vel)
	p.prev = p.cur
	s.emit(EventSpawn, p.id, p.weapon, p.pos)
}

func core(pos, vel particles.Vec2) particles.CharacterCore {
	return particles.CharacterCore{
		X:    int(math.Round(pos.X)),
		Y:    int(math.Round(pos.Y)),
		VelX: int(math.Round(vel.X * 256)),
		VelY: int(math.Round(vel.Y * 256)),
	}
}

// advance runs one server tick.
func (s *Scenario) advance() {
	s.tick++

	for i := range s.players {
		p := &s.players[i]
		if !p.alive {
			if s.tick >= p.respawnTick {
				s.spawn(p)
			}
			continue
		}
		p.prev = p.cur
		s.think(p)
		s.move(p)
		p.cur = core(p.pos, p.vel)
	}

	s.updateShots()
}

// think is the scripted input: walk, turn and jump now and then, and fire on
// a cadence.
func (s *Scenario) think(p *player) {
	target := p.dir * charWalkSpeed
	switch {
	case p.vel.X < target:
		p.vel.X = math.Min(p.vel.X+charWalkAccel, target)
	case p.vel.X > target:
		p.vel.X = math.Max(p.vel.X-charWalkAccel, target)
	}

	if p.grounded && s.rng.Intn(120) == 0 {
		p.dir = -p.dir
	}

	if p.grounded && s.rng.Intn(40) == 0 {
		p.vel.Y = -charJumpImpulse
		p.grounded = false
	} else if !p.grounded && p.airJumps > 0 && p.vel.Y > 0 && s.rng.Intn(25) == 0 {
		p.vel.Y = -charAirJump
		p.airJumps--
		s.emit(EventAirJump, p.id, p.weapon, p.pos)
	}

	if s.tick >= p.nextFire {
		s.fire(p)
		p.weapon = s.fireable[s.rng.Intn(len(s.fireable))]
		p.nextFire = s.tick + s.cfg.TickSpeed/2 + s.rng.Intn(s.cfg.TickSpeed)
	}
}

// move integrates one character against the tile map, axis by axis.
func (s *Scenario) move(p *player) {
	p.vel.Y = math.Min(p.vel.Y+charGravity, charMaxFallSpeed)

	nx := p.pos.X + p.vel.X
	edge := nx + math.Copysign(charHalfSize, p.vel.X)
	if s.tiles.CheckPoint(edge, p.pos.Y) {
		p.vel.X = 0
		p.dir = -p.dir
	} else {
		p.pos.X = nx
	}

	ny := p.pos.Y + p.vel.Y
	p.grounded = false
	switch {
	case p.vel.Y > 0 && s.tiles.CheckPoint(p.pos.X, ny+charHalfSize):
		ts := s.tiles.TileSize()
		top := math.Floor((ny+charHalfSize)/ts) * ts
		p.pos.Y = top - charHalfSize
		p.vel.Y = 0
		p.grounded = true
		p.airJumps = 1
	case p.vel.Y < 0 && s.tiles.CheckPoint(p.pos.X, ny-charHalfSize):
		p.vel.Y = 0
	default:
		p.pos.Y = ny
	}
}

// fire launches the player's current weapon at the nearest living opponent,
// or straight ahead when there is none.
func (s *Scenario) fire(p *player) {
	aim := particles.V2(p.dir, -0.2)
	best := math.MaxFloat64
	for i := range s.players {
		o := &s.players[i]
		if o.id == p.id || !o.alive {
			continue
		}
		if d := particles.Distance(p.pos, o.pos); d < best {
			best = d
			aim = o.pos.Sub(p.pos)
		}
	}
	if p.weapon == particles.WeaponGrenade {
		aim.Y -= 0.25 * aim.Length() // lob
	}
	aim = aim.Normalize()
	if aim == (particles.Vec2{}) {
		aim = particles.V2(p.dir, 0)
	}

	start := p.pos.Add(aim.Scale(charRadius))
	if p.weapon == particles.WeaponShotgun {
		base := math.Atan2(aim.Y, aim.X)
		for k := 0; k < shotgunPellets; k++ {
			a := base + float64(k-shotgunPellets/2)*shotgunSpread
			s.launch(p, start, particles.V2(math.Cos(a), math.Sin(a)))
		}
	} else {
		s.launch(p, start, aim)
	}
	s.emit(EventFire, p.id, p.weapon, start)
}

func (s *Scenario) launch(p *player, start, dir particles.Vec2) {
	if len(s.shots) == cap(s.shots) {
		return
	}
	s.nextShotID++
	s.shots = append(s.shots, shot{
		id:        s.nextShotID,
		owner:     p.id,
		weapon:    p.weapon,
		startTick: s.tick,
		start:     start,
		dir:       dir,
	})
}

// shotPos evaluates a shot's trajectory at server tick time ct.
func (s *Scenario) shotPos(sh *shot, ct float64) particles.Vec2 {
	curvature, speed := s.tuning.ProjectileParams(sh.weapon)
	start, dir := sh.launchState()
	return particles.CalcPos(start, dir, curvature, speed, ct)
}

// launchState returns the quantized start position and direction, exactly as
// they travel in a snapshot, so server and client trajectories agree.
func (sh *shot) launchState() (particles.Vec2, particles.Vec2) {
	p := sh.item()
	return p.StartPos(), p.StartVel()
}

func (sh *shot) item() particles.Projectile {
	return particles.Projectile{
		Weapon:    sh.weapon,
		X:         int(math.Round(sh.start.X)),
		Y:         int(math.Round(sh.start.Y)),
		VelX:      int(math.Round(sh.dir.X * 100)),
		VelY:      int(math.Round(sh.dir.Y * 100)),
		StartTick: sh.startTick,
	}
}

// updateShots moves every shot to the current tick and resolves impacts.
func (s *Scenario) updateShots() {
	kept := s.shots[:0]
	for i := range s.shots {
		sh := s.shots[i]
		ct := float64(s.tick-sh.startTick) / float64(s.cfg.TickSpeed)
		pos := s.shotPos(&sh, ct)

		hit := ct > shotLifeSeconds || s.tiles.CheckPoint(pos.X, pos.Y)
		victim := -1
		if !hit && sh.startTick < s.tick {
			victim = s.hitPlayer(sh.owner, pos)
			hit = victim >= 0
		}
		if !hit {
			kept = append(kept, sh)
			continue
		}

		if sh.weapon == particles.WeaponGrenade {
			s.emit(EventExplosion, sh.owner, sh.weapon, pos)
			s.killAround(pos, grenadeKillRadius)
		} else {
			s.emit(EventImpact, sh.owner, sh.weapon, pos)
			if victim >= 0 {
				s.kill(&s.players[victim])
			}
		}
	}
	s.shots = kept
}

func (s *Scenario) hitPlayer(owner int, pos particles.Vec2) int {
	for i := range s.players {
		p := &s.players[i]
		if p.alive && p.id != owner && particles.Distance(p.pos, pos) < charRadius {
			return i
		}
	}
	return -1
}

func (s *Scenario) killAround(pos particles.Vec2, radius float64) {
	for i := range s.players {
		p := &s.players[i]
		if p.alive && particles.Distance(p.pos, pos) < radius {
			s.kill(p)
		}
	}
}

func (s *Scenario) kill(p *player) {
	p.alive = false
	p.respawnTick = s.tick + int(respawnSeconds*float64(s.cfg.TickSpeed))
	s.emit(EventDeath, p.id, p.weapon, p.pos)
}

// publish builds the snapshot the client sees right now: the previous and
// current tick states of every living character, every shot in flight and
// the interpolation fraction into the current tick.
func (s *Scenario) publish() {
	snap := s.pool.AcquireWrite()
	snap.Tick = s.tick
	snap.PrevTick = s.tick - 1
	snap.Speed = s.cfg.TickSpeed
	snap.Intra = s.accum / s.tickDur
	snap.TickTime = s.accum

	for i := range s.players {
		p := &s.players[i]
		if p.alive {
			snap.SetCharacter(p.id, p.prev, p.cur)
		}
	}
	for i := range s.shots {
		snap.AddProjectile(s.shots[i].id, s.shots[i].item())
	}
	s.pool.PublishWrite()
}
