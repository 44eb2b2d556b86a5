package world

import (
	"sync/atomic"
	"time"

	"fxcore/internal/particles"
)

// Snapshot limits
const (
	MaxClients     = 16 // character slots per snapshot
	MaxProjectiles = 64 // projectile items per snapshot
	MaxItems       = MaxProjectiles + 16
)

// Snapshot is the client's view of the game between two server ticks.
// It implements particles.SnapshotSource. Slices are preallocated and capped.
type Snapshot struct {
	Sequence  uint64    // Monotonic sequence for ordering
	Timestamp time.Time // When snapshot was built

	Tick     int     // Current (newest) game tick
	PrevTick int     // Previous game tick
	Intra    float64 // Fraction of the way from PrevTick to Tick
	TickTime float64 // Seconds since PrevTick
	Speed    int     // Ticks per second
	Chars    [MaxClients]particles.Character
	Items    []particles.SnapItem
	projBuf  []particles.Projectile
	numChars int
}

func newSnapshot(tickSpeed int) Snapshot {
	return Snapshot{
		Speed:   tickSpeed,
		Items:   make([]particles.SnapItem, 0, MaxItems),
		projBuf: make([]particles.Projectile, 0, MaxProjectiles),
	}
}

// reset clears items and characters but keeps capacity.
func (s *Snapshot) reset() {
	s.Items = s.Items[:0]
	s.projBuf = s.projBuf[:0]
	s.Chars = [MaxClients]particles.Character{}
	s.numChars = 0
}

// SetCharacter stores the two most recent states of client slot id.
func (s *Snapshot) SetCharacter(id int, prev, cur particles.CharacterCore) {
	if id < 0 || id >= MaxClients {
		return
	}
	s.Chars[id] = particles.Character{Active: true, Prev: prev, Cur: cur}
	if id >= s.numChars {
		s.numChars = id + 1
	}
}

// AddProjectile appends a projectile item. It reports false when the
// snapshot is full.
func (s *Snapshot) AddProjectile(id int, p particles.Projectile) bool {
	if len(s.projBuf) == cap(s.projBuf) || len(s.Items) == cap(s.Items) {
		return false
	}
	s.projBuf = append(s.projBuf, p)
	s.Items = append(s.Items, particles.SnapItem{
		Type: particles.ItemProjectile,
		ID:   id,
		Data: &s.projBuf[len(s.projBuf)-1],
	})
	return true
}

// AddItem appends a non-projectile item.
func (s *Snapshot) AddItem(t particles.ItemType, id int) bool {
	if len(s.Items) == cap(s.Items) {
		return false
	}
	s.Items = append(s.Items, particles.SnapItem{Type: t, ID: id})
	return true
}

// Projectiles returns the projectile items in snapshot order.
func (s *Snapshot) Projectiles() []particles.Projectile {
	return s.projBuf
}

func (s *Snapshot) Characters() []particles.Character { return s.Chars[:s.numChars] }
func (s *Snapshot) IntraTick() float64                 { return s.Intra }
func (s *Snapshot) PrevGameTick() int                  { return s.PrevTick }
func (s *Snapshot) GameTickTime() float64              { return s.TickTime }
func (s *Snapshot) NumItems() int                      { return len(s.Items) }
func (s *Snapshot) Item(i int) particles.SnapItem      { return s.Items[i] }

func (s *Snapshot) TickSpeed() int {
	if s.Speed <= 0 {
		return particles.DefaultTickSpeed
	}
	return s.Speed
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering for lock-free producer/consumer.
type SnapshotPool struct {
	snapshots [3]Snapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices.
func NewSnapshotPool(tickSpeed int) *SnapshotPool {
	pool := &SnapshotPool{}
	for i := range pool.snapshots {
		pool.snapshots[i] = newSnapshot(tickSpeed)
	}
	return pool
}

// AcquireWrite gets the next write slot (producer only).
// Returns a snapshot with reset slices but preserved capacity.
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := (atomic.LoadUint32(&p.readIdx) + 1) % 3
	atomic.StoreUint32(&p.writeIdx, idx)
	snap := &p.snapshots[idx]
	snap.reset()

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite marks the write complete and makes it the latest snapshot.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// Source returns a particles.SnapshotSource that always reads the latest
// published snapshot.
func (p *SnapshotPool) Source() particles.SnapshotSource {
	return latest{p}
}

type latest struct{ pool *SnapshotPool }

func (l latest) Characters() []particles.Character { return l.pool.AcquireRead().Characters() }
func (l latest) IntraTick() float64                 { return l.pool.AcquireRead().IntraTick() }
func (l latest) PrevGameTick() int                  { return l.pool.AcquireRead().PrevGameTick() }
func (l latest) GameTickTime() float64              { return l.pool.AcquireRead().GameTickTime() }
func (l latest) TickSpeed() int                     { return l.pool.AcquireRead().TickSpeed() }
func (l latest) NumItems() int                      { return l.pool.AcquireRead().NumItems() }
func (l latest) Item(i int) particles.SnapItem      { return l.pool.AcquireRead().Item(i) }
