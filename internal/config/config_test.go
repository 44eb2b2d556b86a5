package config

import (
	"strings"
	"testing"
	"time"

	"fxcore/internal/particles"
)

func TestDefaultsMatchParticleCore(t *testing.T) {
	if got := DefaultParticle().Core(); got != particles.DefaultConfig() {
		t.Errorf("Expected particle defaults %+v, got %+v", particles.DefaultConfig(), got)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FX_MAX_PARTICLES", "256")
	t.Setenv("FX_ABORT_ON_UNLAUNCHED", "false")
	t.Setenv("FX_WIDTH", "640")
	t.Setenv("FX_DEBUG", "1")
	t.Setenv("FX_STATS_INTERVAL_MS", "100")
	t.Setenv("FX_SPEED", "2.5")
	t.Setenv("FX_FRAMES", "0")
	t.Setenv("FX_FONT", "hud.ttf")
	t.Setenv("FX_TERM", "true")
	t.Setenv("FX_SEQUENCE_DIR", "frames")
	t.Setenv("FX_SEQUENCE_EVERY", "5")

	cfg := Load()

	if cfg.Particle.Capacity != 256 {
		t.Errorf("Expected capacity 256, got %d", cfg.Particle.Capacity)
	}
	if cfg.Particle.AbortOnUnlaunchedProjectile {
		t.Error("Expected abort flag off")
	}
	if cfg.Render.Width != 640 || cfg.Render.Height != 720 {
		t.Errorf("Expected 640x720, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if !cfg.Debug.Enabled || cfg.Debug.StatsInterval != 100*time.Millisecond {
		t.Errorf("Expected debug on at 100ms, got %+v", cfg.Debug)
	}
	if !cfg.Demo.Demo || cfg.Demo.PlaybackSpeed != 2.5 {
		t.Errorf("Expected demo playback at 2.5x, got %+v", cfg.Demo)
	}
	if cfg.Demo.Frames != 0 {
		t.Errorf("Expected unbounded run, got %d frames", cfg.Demo.Frames)
	}
	if cfg.Render.FontPath != "hud.ttf" {
		t.Errorf("Expected HUD font hud.ttf, got %q", cfg.Render.FontPath)
	}
	if !cfg.Render.Terminal {
		t.Error("Expected terminal view enabled")
	}
	if cfg.Render.SequenceDir != "frames" || cfg.Render.SequenceEvery != 5 {
		t.Errorf("Expected every 5th frame in frames/, got %q every %d", cfg.Render.SequenceDir, cfg.Render.SequenceEvery)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("FX_MAX_PARTICLES", "lots")
	t.Setenv("FX_ABORT_ON_UNLAUNCHED", "maybe")

	cfg := Load()

	if cfg.Particle.Capacity != particles.MaxParticles {
		t.Errorf("Expected default capacity, got %d", cfg.Particle.Capacity)
	}
	if !cfg.Particle.AbortOnUnlaunchedProjectile {
		t.Error("Expected default abort flag")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"zero capacity", func(c *AppConfig) { c.Particle.Capacity = 0 }, "particle capacity"},
		{"ceiling below step", func(c *AppConfig) { c.Particle.FrictionCeiling = 0.01 }, "friction ceiling"},
		{"tiny map", func(c *AppConfig) { c.World.MapWidth = 2 }, "map must be"},
		{"too many players", func(c *AppConfig) { c.World.Players = 17 }, "players"},
		{"bad atlas", func(c *AppConfig) { c.Render.AtlasPath = "atlas.bmp" }, "atlas"},
		{"zero sequence stride", func(c *AppConfig) { c.Render.SequenceEvery = 0 }, "sequence stride"},
		{"zero fps", func(c *AppConfig) { c.Demo.FPS = 0 }, "fps"},
		{"debug without addr", func(c *AppConfig) {
			c.Debug.Enabled = true
			c.Debug.ListenAddr = ""
		}, "listen address"},
		{"debug off ignores addr", func(c *AppConfig) { c.Debug.ListenAddr = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
