package particles

// ExplosionBuffer collects explosion epicenters reported during a frame.
// The integrator reads them once and clears the buffer at the end of every
// pass, so an event lives for exactly one frame.
type ExplosionBuffer struct {
	events  []Vec2
	dropped uint64
}

// NewExplosionBuffer creates a buffer holding at most capacity events per frame.
func NewExplosionBuffer(capacity int) *ExplosionBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &ExplosionBuffer{events: make([]Vec2, 0, capacity)}
}

// Record appends pos. Events past capacity are dropped, not carried over.
func (b *ExplosionBuffer) Record(pos Vec2) bool {
	if len(b.events) == cap(b.events) {
		b.dropped++
		return false
	}
	b.events = append(b.events, pos)
	return true
}

// Drain returns this frame's events. The slice is only valid until Clear.
func (b *ExplosionBuffer) Drain() []Vec2 {
	return b.events
}

// Clear empties the buffer, keeping its storage.
func (b *ExplosionBuffer) Clear() {
	b.events = b.events[:0]
}

func (b *ExplosionBuffer) Len() int { return len(b.events) }
func (b *ExplosionBuffer) Cap() int { return cap(b.events) }

// Dropped returns the total number of events lost to overflow.
func (b *ExplosionBuffer) Dropped() uint64 {
	return b.dropped
}
