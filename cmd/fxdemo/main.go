// =============================================================================
// FXDEMO - PARTICLE CORE DEMO
// =============================================================================
// Runs a scripted match on a generated arena, feeds its events through the
// effect emitters into the particle core, renders every frame offscreen and
// writes the last one to a PNG.
//
// USAGE:
//   go run ./cmd/fxdemo                      # 500 frames at 50 FPS
//   FX_FRAMES=0 FX_DEBUG=true go run ./cmd/fxdemo   # run until Ctrl+C, debug server on :6060
//   FX_FRAMES=0 FX_TERM=true go run ./cmd/fxdemo    # live view in the terminal, q to quit
//   FX_SEQUENCE_DIR=frames go run ./cmd/fxdemo      # also write every frame as frames/frame_NNNNN.png
// =============================================================================
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"fxcore/internal/config"
	"fxcore/internal/debug"
	"fxcore/internal/effects"
	"fxcore/internal/particles"
	"fxcore/internal/render"
	"fxcore/internal/world"
)

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎆 ================================")
	log.Println("🎆  FXCORE - PARTICLE DEMO")
	log.Println("🎆 ================================")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := cfg.World
	tiles := world.NewArena(wc.MapWidth, wc.MapHeight, float64(wc.TileSize))
	tuning := world.NewTuning(cfg.Tuning)
	scenario := world.NewScenario(wc, tiles, tuning)
	log.Printf("🗺️ Arena %dx%d tiles of %d, %d players, %d TPS, seed %d",
		wc.MapWidth, wc.MapHeight, wc.TileSize, wc.Players, wc.TickSpeed, wc.Seed)

	playback := world.NewLive()
	if cfg.Demo.Demo {
		playback = world.NewDemo(cfg.Demo.PlaybackSpeed)
		playback.SetPaused(cfg.Demo.StartPaused)
		log.Printf("📼 Demo playback at %.2fx (paused=%v)", cfg.Demo.PlaybackSpeed, cfg.Demo.StartPaused)
	}

	clock := wallClock{}
	src := scenario.Source()
	sys := particles.New(particles.Options{
		Config:   cfg.Particle.Core(),
		World:    src,
		Playback: playback,
		Mover:    tiles,
		Tuning:   tuning,
		Clock:    clock,
		Rand:     rand.New(rand.NewSource(wc.Seed + 1)),
	})
	pc := sys.Config()
	log.Printf("🎆 Particle core: %d slots, %d explosions/frame, abort on unlaunched=%v",
		pc.Capacity, pc.ExplosionCapacity, pc.AbortOnUnlaunchedProjectile)

	fx := effects.New(sys, clock, playback, rand.New(rand.NewSource(wc.Seed+2)))

	backend := render.NewGGBackend(cfg.Render.Width, cfg.Render.Height, loadAtlas(cfg.Render))
	if cfg.Render.FontPath != "" {
		backend.LoadHUDFont(cfg.Render.FontPath, 14)
	}
	scene := render.NewScene(backend, tiles)
	recorder := debug.NewRecorder()

	if cfg.Debug.Enabled {
		srv := debug.NewServer(cfg.Debug, sys, playback, tuning)
		if err := srv.Start(ctx); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	} else {
		log.Println("📊 Debug server disabled (set FX_DEBUG=true to enable)")
	}

	var view *liveView
	if cfg.Render.Terminal {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		if view, err = startLiveView(screen, tiles, cancel); err != nil {
			return err
		}
		defer view.Close()
	}

	var seq *render.SequenceWriter
	if cfg.Render.SequenceDir != "" {
		var err error
		if seq, err = render.NewSequenceWriter(cfg.Render.SequenceDir, cfg.Render.Width, cfg.Render.Height); err != nil {
			return err
		}
		seq.Start()
	}
	seqEvery := max(cfg.Render.SequenceEvery, 1)

	counts := make(map[world.EventKind]int)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Demo.FPS))
	defer ticker.Stop()

	log.Printf("▶️ Running %s at %d FPS", frameGoal(cfg.Demo.Frames), cfg.Demo.FPS)
	start := time.Now()
	last := start
	frames := 0

loop:
	for cfg.Demo.Frames == 0 || frames < cfg.Demo.Frames {
		var now time.Time
		select {
		case <-ctx.Done():
			log.Println("🛑 Interrupted")
			break loop
		case now = <-ticker.C:
		}

		elapsed := now.Sub(last).Seconds()
		last = now
		if info := playback.Info(); info.Demo {
			if info.Paused {
				elapsed = 0
			} else {
				elapsed *= info.Speed
			}
		}

		events := scenario.Step(elapsed)
		for _, ev := range events {
			counts[ev.Kind]++
		}

		fx.OnFrame()
		fx.HandleAll(events)
		fx.ProjectileTrails(src, tuning)
		fx.CharacterSkids(src)

		sys.AdvanceFrame()
		stats := sys.Stats()
		recorder.RecordFrame(stats)

		renderStart := time.Now()
		scene.Draw(sys, src, tuning)
		if cfg.Render.HUD {
			backend.DrawHUD(hudLines(stats, scenario.Tick(), playback.Info()))
		}
		if view != nil {
			view.Draw(sys, src, hudLines(stats, scenario.Tick(), playback.Info()))
		}
		debug.RecordRender(time.Since(renderStart))

		if seq != nil && frames%seqEvery == 0 {
			seq.Submit(backend.Image())
		}

		frames++
	}

	if seq != nil {
		seq.Stop()
		ss := seq.Stats()
		log.Printf("🎞️ Sequence: %d frames written to %s, %d dropped, %d errors",
			ss.Written, cfg.Render.SequenceDir, ss.Dropped, ss.Errors)
	}

	if err := backend.SavePNG(cfg.Render.OutputPath); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	log.Printf("🖼️ Final frame written to %s", cfg.Render.OutputPath)

	stats := sys.Stats()
	log.Printf("📈 %d frames in %s, %d ticks", frames, time.Since(start).Round(time.Millisecond), scenario.Tick())
	log.Printf("📈 Events: %d spawns, %d shots, %d air jumps, %d impacts, %d explosions, %d deaths",
		counts[world.EventSpawn], counts[world.EventFire], counts[world.EventAirJump],
		counts[world.EventImpact], counts[world.EventExplosion], counts[world.EventDeath])
	log.Printf("📈 Particles: %d live, %d free, %d dropped inserts, %d dropped explosions, %d aborted passes",
		stats.TotalLive(), stats.Free, stats.DroppedInserts, stats.DroppedExplosions, stats.AbortedPasses)

	sys.ResetAll()
	log.Println("✅ Done")
	return nil
}

// liveView owns the terminal while the demo runs. Log output is held back
// until Close restores the terminal.
type liveView struct {
	screen  tcell.Screen
	term    *render.TermBackend
	tiles   *world.TileMap
	resized chan struct{}
	held    bytes.Buffer
	out     io.Writer
}

// startLiveView takes over the screen. Esc, Ctrl+C and q call quit.
func startLiveView(screen tcell.Screen, tiles *world.TileMap, quit func()) (*liveView, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()

	v := &liveView{
		screen:  screen,
		term:    render.NewTermBackend(screen),
		tiles:   tiles,
		resized: make(chan struct{}, 1),
		out:     log.Writer(),
	}
	v.term.Fit(tiles.Width(), tiles.Height())
	log.SetOutput(&v.held)

	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					quit()
				}
			case *tcell.EventResize:
				select {
				case v.resized <- struct{}{}:
				default:
				}
			}
		}
	}()
	return v, nil
}

// Draw refits after a resize and renders one frame.
func (v *liveView) Draw(sys *particles.System, src particles.SnapshotSource, hud []string) {
	select {
	case <-v.resized:
		v.screen.Sync()
		v.term.Fit(v.tiles.Width(), v.tiles.Height())
	default:
	}
	v.term.DrawFrame(sys, v.tiles, src, hud)
}

// Close restores the terminal and flushes the held log output.
func (v *liveView) Close() {
	v.screen.Fini()
	log.SetOutput(v.out)
	v.out.Write(v.held.Bytes())
}

// loadAtlas returns the configured atlas, the generated one when none is
// configured, or nil (vector sprites) when loading fails.
func loadAtlas(cfg config.RenderConfig) *render.Atlas {
	if cfg.AtlasPath == "" {
		return render.GenerateAtlas(64)
	}
	atlas, err := render.LoadAtlas(cfg.AtlasPath)
	if err != nil {
		log.Printf("⚠️ Atlas unavailable, drawing vector sprites: %v", err)
		return nil
	}
	log.Printf("✅ Atlas loaded from %s (%dpx cells)", cfg.AtlasPath, atlas.Cell())
	return atlas
}

func frameGoal(frames int) string {
	if frames == 0 {
		return "until interrupted"
	}
	return fmt.Sprintf("%d frames", frames)
}

func hudLines(s particles.Stats, tick int, info particles.PlaybackInfo) []string {
	mode := "live"
	if info.Demo {
		mode = fmt.Sprintf("demo %.2fx", info.Speed)
		if info.Paused {
			mode += " (paused)"
		}
	}
	return []string{
		fmt.Sprintf("frame %d  tick %d  %s", s.Frame, tick, mode),
		fmt.Sprintf("live %d/%d  trail %d  expl %d  general %d",
			s.TotalLive(), s.Capacity,
			s.Live[particles.GroupProjectileTrail], s.Live[particles.GroupExplosions], s.Live[particles.GroupGeneral]),
		fmt.Sprintf("dropped %d  lost expl %d  aborted %d",
			s.DroppedInserts, s.DroppedExplosions, s.AbortedPasses),
		fmt.Sprintf("update %s  dt %.4fs", s.LastUpdate, s.LastTimePassed),
	}
}
