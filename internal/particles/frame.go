package particles

import "time"

// FrameDriver turns wall-clock time between render callbacks into integrator
// steps, honouring demo pause and playback speed.
type FrameDriver struct {
	clock        Clock
	playback     Playback
	update       func(timePassed float64)
	maxFrameTime float64

	last    time.Time
	started bool
}

// NewFrameDriver creates a driver that feeds update.
func NewFrameDriver(clock Clock, playback Playback, maxFrameTime float64, update func(float64)) *FrameDriver {
	return &FrameDriver{
		clock:        clock,
		playback:     playback,
		update:       update,
		maxFrameTime: maxFrameTime,
	}
}

// Advance measures the time since the previous call and runs one step.
// A paused demo skips the step; a playing demo scales time by its speed.
// Elapsed time outside [0, maxFrameTime] is treated as zero so a stall or
// a clock jump cannot explode the simulation. The timestamp is updated
// whether or not a step ran. It returns the time passed to the integrator
// and whether a step ran.
func (d *FrameDriver) Advance() (float64, bool) {
	now := d.clock.Now()
	elapsed := 0.0
	if d.started {
		elapsed = now.Sub(d.last).Seconds()
	}
	d.last = now
	d.started = true

	info := d.playback.Info()
	if info.Demo {
		if info.Paused {
			return 0, false
		}
		elapsed *= info.Speed
	}

	if elapsed < 0 || elapsed > d.maxFrameTime {
		elapsed = 0
	}
	d.update(elapsed)
	return elapsed, true
}
