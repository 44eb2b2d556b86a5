package particles

import (
	"math/rand"
	"testing"
)

// TestInsertWhilePaused verifies a paused demo drops inserts silently
func TestInsertWhilePaused(t *testing.T) {
	playback := &fakePlayback{info: PlaybackInfo{Demo: true, Paused: true, Speed: 1}}
	sys := newTestSystem(testConfig(4), Options{Playback: playback})

	p := still(V2(0, 0))
	sys.Insert(GroupGeneral, &p)

	if sys.Store().Live() != 0 {
		t.Errorf("Expected no particles while paused, got %d", sys.Store().Live())
	}
	if sys.Stats().DroppedInserts != 0 {
		t.Errorf("Expected paused inserts not counted as drops, got %d", sys.Stats().DroppedInserts)
	}

	playback.info.Paused = false
	sys.Insert(GroupGeneral, &p)
	if sys.Store().Live() != 1 {
		t.Errorf("Expected 1 particle after resuming, got %d", sys.Store().Live())
	}
}

// TestInsertLiveIgnoresPausedFlag verifies Paused only matters for demos
func TestInsertLiveIgnoresPausedFlag(t *testing.T) {
	playback := &fakePlayback{info: PlaybackInfo{Paused: true, Speed: 1}}
	sys := newTestSystem(testConfig(4), Options{Playback: playback})

	p := still(V2(0, 0))
	sys.Insert(GroupGeneral, &p)

	if sys.Store().Live() != 1 {
		t.Errorf("Expected 1 particle, got %d", sys.Store().Live())
	}
}

func TestResetAll(t *testing.T) {
	sys := newTestSystem(testConfig(6), Options{})
	for g := Group(0); g < NumGroups; g++ {
		p := still(V2(0, 0))
		sys.Insert(g, &p)
	}
	sys.RecordExplosion(V2(1, 1))

	sys.ResetAll()
	first := sys.Store().FreeIndices()
	sys.ResetAll()

	if got := sys.Store().FreeIndices(); len(got) != 6 || got[0] != 0 || got[5] != 5 {
		t.Errorf("Expected contiguous free list, got %v", got)
	}
	if len(first) != 6 {
		t.Errorf("Expected 6 free after the first reset, got %d", len(first))
	}
	if sys.explosions.Len() != 0 {
		t.Errorf("Expected pending explosions cleared, got %d", sys.explosions.Len())
	}
	st := sys.Stats()
	if st.TotalLive() != 0 || st.Free != 6 {
		t.Errorf("Expected published stats to show an empty arena, got %+v", st)
	}
}

// TestResetThenInsert verifies the arena is usable right after a reset
func TestResetThenInsert(t *testing.T) {
	sys := newTestSystem(testConfig(3), Options{})
	p := still(V2(0, 0))
	for i := 0; i < 3; i++ {
		sys.Insert(GroupGeneral, &p)
	}
	sys.ResetAll()

	sys.Insert(GroupExplosions, &p)
	if got := sys.Store().Indices(GroupExplosions); len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected slot 0 reused first, got %v", got)
	}
}

func TestStatsPublished(t *testing.T) {
	sys := newTestSystem(testConfig(4), Options{})
	p := still(V2(0, 0))
	sys.Insert(GroupGeneral, &p)
	sys.Insert(GroupProjectileTrail, &p)

	sys.Update(0.02)
	st := sys.Stats()

	if st.Frame != 1 {
		t.Errorf("Expected frame 1, got %d", st.Frame)
	}
	if st.Capacity != 4 || st.Free != 2 {
		t.Errorf("Expected capacity 4 with 2 free, got %d/%d", st.Capacity, st.Free)
	}
	if st.Live[GroupGeneral] != 1 || st.Live[GroupProjectileTrail] != 1 || st.Live[GroupExplosions] != 0 {
		t.Errorf("Expected per-group counts [1 0 1], got %v", st.Live)
	}
	if st.TotalLive() != 2 {
		t.Errorf("Expected 2 live, got %d", st.TotalLive())
	}
	if st.LastTimePassed != 0.02 {
		t.Errorf("Expected last time passed 0.02, got %f", st.LastTimePassed)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	sys := New(Options{})
	cfg := sys.Config()
	if cfg != DefaultConfig() {
		t.Errorf("Expected default config, got %+v", cfg)
	}
	if sys.Store().Capacity() != MaxParticles {
		t.Errorf("Expected capacity %d, got %d", MaxParticles, sys.Store().Capacity())
	}

	partial := New(Options{Config: Config{Capacity: 16}})
	if got := partial.Config(); got.ExplosionCapacity != MaxExplosions || got.FrictionStep != 0.05 {
		t.Errorf("Expected zero fields filled, got %+v", got)
	}
}

// TestChurnKeepsArenaConsistent inserts and updates at random and checks the
// arena after every frame
func TestChurnKeepsArenaConsistent(t *testing.T) {
	sys := newTestSystem(testConfig(128), Options{})
	rng := rand.New(rand.NewSource(7))

	for frame := 0; frame < 300; frame++ {
		for i := rng.Intn(20); i > 0; i-- {
			p := DefaultParticle()
			p.Pos = V2(rng.Float64()*100, rng.Float64()*100)
			p.Vel = V2(rng.Float64()*50-25, rng.Float64()*50-25)
			p.Friction = 0.9
			p.LifeSpan = rng.Float64() * 0.5
			sys.Insert(Group(rng.Intn(int(NumGroups))), &p)
		}
		if rng.Intn(10) == 0 {
			sys.RecordExplosion(V2(50, 50))
		}
		sys.Update(0.016)

		if err := sys.Store().Check(); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		st := sys.Stats()
		if st.TotalLive()+st.Free != st.Capacity {
			t.Fatalf("frame %d: live %d + free %d != capacity %d", frame, st.TotalLive(), st.Free, st.Capacity)
		}
	}
}

func TestParseWeapon(t *testing.T) {
	for w := Weapon(0); w < NumWeapons; w++ {
		got, ok := ParseWeapon(w.String())
		if !ok || got != w {
			t.Errorf("Expected %v to round trip, got %v (ok=%v)", w, got, ok)
		}
	}
	if _, ok := ParseWeapon("laser"); ok {
		t.Error("Expected unknown weapon name to fail")
	}
}
