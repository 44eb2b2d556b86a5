package world

import (
	"sync"

	"fxcore/internal/particles"
)

// Playback is the live/demo controller. It is read by the frame loop and
// may be changed from the debug server, so access is locked.
type Playback struct {
	mu     sync.RWMutex
	demo   bool
	paused bool
	speed  float64
}

// NewLive creates a controller for a live game.
func NewLive() *Playback {
	return &Playback{speed: 1}
}

// NewDemo creates a controller playing a demo at speed.
func NewDemo(speed float64) *Playback {
	if speed <= 0 {
		speed = 1
	}
	return &Playback{demo: true, speed: speed}
}

// Info implements particles.Playback.
func (p *Playback) Info() particles.PlaybackInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return particles.PlaybackInfo{Demo: p.demo, Paused: p.paused, Speed: p.speed}
}

// SetPaused pauses or resumes demo playback. It has no effect on a live game.
func (p *Playback) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.demo {
		p.paused = paused
	}
}

// SetSpeed changes the demo speed multiplier. Non-positive speeds are ignored.
func (p *Playback) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.mu.Lock()
	p.speed = speed
	p.mu.Unlock()
}

// Paused reports whether demo playback is paused.
func (p *Playback) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.demo && p.paused
}
