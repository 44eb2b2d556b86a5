package particles

import (
	"testing"
	"time"
)

func TestFrameDriverAdvance(t *testing.T) {
	tests := []struct {
		name    string
		info    PlaybackInfo
		elapsed time.Duration
		wantTP  float64
		wantRan bool
	}{
		{"live", PlaybackInfo{Speed: 1}, 16 * time.Millisecond, 0.016, true},
		{"live ignores speed", PlaybackInfo{Speed: 4}, 16 * time.Millisecond, 0.016, true},
		{"demo double speed", PlaybackInfo{Demo: true, Speed: 2}, 100 * time.Millisecond, 0.2, true},
		{"demo half speed", PlaybackInfo{Demo: true, Speed: 0.5}, 100 * time.Millisecond, 0.05, true},
		{"demo paused", PlaybackInfo{Demo: true, Paused: true, Speed: 1}, 100 * time.Millisecond, 0, false},
		{"stall", PlaybackInfo{Speed: 1}, 3 * time.Second, 0, true},
		{"at limit", PlaybackInfo{Speed: 1}, 2 * time.Second, 2, true},
		{"scaled past limit", PlaybackInfo{Demo: true, Speed: 4}, time.Second, 0, true},
		{"clock went back", PlaybackInfo{Speed: 1}, -time.Second, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			playback := &fakePlayback{info: PlaybackInfo{Speed: 1}}
			var calls []float64
			d := NewFrameDriver(clock, playback, 2.0, func(tp float64) {
				calls = append(calls, tp)
			})

			d.Advance() // establishes the timestamp
			calls = nil

			playback.info = tt.info
			clock.Advance(tt.elapsed)
			tp, ran := d.Advance()

			if ran != tt.wantRan {
				t.Fatalf("Expected ran=%v, got %v", tt.wantRan, ran)
			}
			if !approx(tp, tt.wantTP) {
				t.Errorf("Expected time passed %f, got %f", tt.wantTP, tp)
			}
			if tt.wantRan {
				if len(calls) != 1 || !approx(calls[0], tt.wantTP) {
					t.Errorf("Expected one update with %f, got %v", tt.wantTP, calls)
				}
			} else if len(calls) != 0 {
				t.Errorf("Expected no update, got %v", calls)
			}
		})
	}
}

// TestFrameDriverFirstCallIsZero verifies the first frame has no history
func TestFrameDriverFirstCallIsZero(t *testing.T) {
	clock := newFakeClock()
	var got []float64
	d := NewFrameDriver(clock, livePlayback{}, 2.0, func(tp float64) { got = append(got, tp) })

	tp, ran := d.Advance()
	if !ran || tp != 0 {
		t.Errorf("Expected zero step on the first call, got %f ran=%v", tp, ran)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 update, got %d", len(got))
	}
}

// TestFrameDriverPauseKeepsClock verifies the timestamp moves while paused,
// so resuming does not replay the paused interval
func TestFrameDriverPauseKeepsClock(t *testing.T) {
	clock := newFakeClock()
	playback := &fakePlayback{info: PlaybackInfo{Demo: true, Speed: 1}}
	d := NewFrameDriver(clock, playback, 2.0, func(float64) {})
	d.Advance()

	playback.info.Paused = true
	clock.Advance(time.Second)
	d.Advance()

	playback.info.Paused = false
	clock.Advance(100 * time.Millisecond)
	tp, _ := d.Advance()

	if !approx(tp, 0.1) {
		t.Errorf("Expected 0.1 after resuming, got %f", tp)
	}
}

// TestSystemAdvanceFrame verifies the driver feeds the integrator
func TestSystemAdvanceFrame(t *testing.T) {
	clock := newFakeClock()
	sys := newTestSystem(testConfig(4), Options{Clock: clock})
	p := still(V2(0, 0))
	sys.Insert(GroupGeneral, &p)

	sys.AdvanceFrame()
	clock.Advance(250 * time.Millisecond)
	sys.AdvanceFrame()

	got, _ := sys.Store().Particle(0)
	if !approx(got.Life, 0.25) {
		t.Errorf("Expected life 0.25, got %f", got.Life)
	}
	if st := sys.Stats(); st.Frame != 2 {
		t.Errorf("Expected 2 frames, got %d", st.Frame)
	}
}
