// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for particle, world and demo settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fxcore/internal/particles"
)

// =============================================================================
// PARTICLE CORE CONFIGURATION
// =============================================================================

// ParticleConfig holds the particle arena and integrator settings.
type ParticleConfig struct {
	Capacity          int     // Arena slots shared by all groups
	ExplosionCapacity int     // Explosion events kept per frame
	MaxFrameTime      float64 // Elapsed seconds above this count as zero
	FrictionStep      float64 // Seconds per friction sub-step
	FrictionCeiling   float64 // Friction accumulator resets above this

	// Reference behaviour: an unlaunched projectile ends the update pass.
	AbortOnUnlaunchedProjectile bool
}

// DefaultParticle returns the default particle configuration.
func DefaultParticle() ParticleConfig {
	return ParticleConfig{
		Capacity:                    particles.MaxParticles,
		ExplosionCapacity:           particles.MaxExplosions,
		MaxFrameTime:                2.0,
		FrictionStep:                0.05, // 20 friction steps per second
		FrictionCeiling:             2.0,
		AbortOnUnlaunchedProjectile: true,
	}
}

// ParticleFromEnv returns particle configuration with environment overrides.
func ParticleFromEnv() ParticleConfig {
	cfg := DefaultParticle()

	if n := getEnvInt("FX_MAX_PARTICLES", 0); n > 0 {
		cfg.Capacity = n
	}
	if n := getEnvInt("FX_MAX_EXPLOSIONS", 0); n > 0 {
		cfg.ExplosionCapacity = n
	}
	if v := getEnvFloat("FX_MAX_FRAME_TIME", 0); v > 0 {
		cfg.MaxFrameTime = v
	}
	cfg.AbortOnUnlaunchedProjectile = getEnvBool("FX_ABORT_ON_UNLAUNCHED", cfg.AbortOnUnlaunchedProjectile)

	return cfg
}

// Core converts to the particle package's Config.
func (c ParticleConfig) Core() particles.Config {
	return particles.Config{
		Capacity:                    c.Capacity,
		ExplosionCapacity:           c.ExplosionCapacity,
		MaxFrameTime:                c.MaxFrameTime,
		FrictionStep:                c.FrictionStep,
		FrictionCeiling:             c.FrictionCeiling,
		AbortOnUnlaunchedProjectile: c.AbortOnUnlaunchedProjectile,
	}
}

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig holds the simulated server and map settings.
type WorldConfig struct {
	TickSpeed  int // Server ticks per second
	MaxClients int // Character slots in a snapshot
	MapWidth   int // Map width in tiles
	MapHeight  int // Map height in tiles
	TileSize   int // World units per tile
	Players    int // Scripted characters in the demo match
	Seed       int64
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		TickSpeed:  particles.DefaultTickSpeed,
		MaxClients: 16,
		MapWidth:   40,
		MapHeight:  23, // 1280x736 at 32 units per tile
		TileSize:   32,
		Players:    4,
		Seed:       1,
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if n := getEnvInt("FX_TICK_SPEED", 0); n > 0 {
		cfg.TickSpeed = n
	}
	if n := getEnvInt("FX_PLAYERS", 0); n > 0 {
		cfg.Players = n
	}
	if n := getEnvInt("FX_SEED", 0); n != 0 {
		cfg.Seed = int64(n)
	}

	return cfg
}

// =============================================================================
// TUNING CONFIGURATION
// =============================================================================

// TuningConfig holds projectile trajectory parameters per weapon.
type TuningConfig struct {
	GunCurvature     float64
	GunSpeed         float64
	ShotgunCurvature float64
	ShotgunSpeed     float64
	GrenadeCurvature float64
	GrenadeSpeed     float64
}

// DefaultTuning returns the stock server tuning.
func DefaultTuning() TuningConfig {
	return TuningConfig{
		GunCurvature:     1.25,
		GunSpeed:         2200,
		ShotgunCurvature: 1.25,
		ShotgunSpeed:     2750,
		GrenadeCurvature: 7.0,
		GrenadeSpeed:     1000,
	}
}

// =============================================================================
// RENDER CONFIGURATION
// =============================================================================

// RenderConfig holds the offscreen renderer settings.
type RenderConfig struct {
	Width      int    // Canvas width in pixels
	Height     int    // Canvas height in pixels
	AtlasPath  string // Optional particle atlas image; generated when empty
	OutputPath string // Final frame PNG
	FontPath   string // Optional TrueType/OpenType HUD font
	HUD        bool   // Draw the stats overlay
	Terminal   bool   // Also draw every frame to the terminal

	SequenceDir   string // Write numbered PNG frames here when set
	SequenceEvery int    // Keep every Nth frame of the sequence
}

// DefaultRender returns the default render configuration.
func DefaultRender() RenderConfig {
	return RenderConfig{
		Width:      1280,
		Height:     720,
		OutputPath: "fxdemo.png",
		HUD:        true,

		SequenceEvery: 1,
	}
}

// RenderFromEnv returns render configuration with environment overrides.
func RenderFromEnv() RenderConfig {
	cfg := DefaultRender()

	if w := getEnvInt("FX_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("FX_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if p := os.Getenv("FX_ATLAS"); p != "" {
		cfg.AtlasPath = p
	}
	if p := os.Getenv("FX_OUTPUT"); p != "" {
		cfg.OutputPath = p
	}
	if p := os.Getenv("FX_FONT"); p != "" {
		cfg.FontPath = p
	}
	cfg.HUD = getEnvBool("FX_HUD", cfg.HUD)
	cfg.Terminal = getEnvBool("FX_TERM", cfg.Terminal)
	if d := os.Getenv("FX_SEQUENCE_DIR"); d != "" {
		cfg.SequenceDir = d
	}
	if n := getEnvInt("FX_SEQUENCE_EVERY", 0); n > 0 {
		cfg.SequenceEvery = n
	}

	return cfg
}

// =============================================================================
// DEBUG SERVER CONFIGURATION
// =============================================================================

// DebugConfig holds the observability server settings.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string
	StatsInterval time.Duration // Websocket stats push period
	RateLimit     float64       // Requests per second per IP
	RateBurst     int
}

// DefaultDebug returns the default debug configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:       false,
		ListenAddr:    "127.0.0.1:6060",
		StatsInterval: 250 * time.Millisecond,
		RateLimit:     20,
		RateBurst:     40,
	}
}

// DebugFromEnv returns debug configuration with environment overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	cfg.Enabled = getEnvBool("FX_DEBUG", cfg.Enabled)
	if addr := os.Getenv("FX_DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if ms := getEnvInt("FX_STATS_INTERVAL_MS", 0); ms > 0 {
		cfg.StatsInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// DEMO CONFIGURATION
// =============================================================================

// DemoConfig controls the fxdemo run loop.
type DemoConfig struct {
	FPS           int     // Render frames per second
	Frames        int     // Frames to run; 0 runs until interrupted
	PlaybackSpeed float64 // Demo speed multiplier
	Demo          bool    // Treat the run as demo playback
	StartPaused   bool
}

// DefaultDemo returns the default demo configuration.
func DefaultDemo() DemoConfig {
	return DemoConfig{
		FPS:           50,
		Frames:        500,
		PlaybackSpeed: 1.0,
	}
}

// DemoFromEnv returns demo configuration with environment overrides.
func DemoFromEnv() DemoConfig {
	cfg := DefaultDemo()

	if fps := getEnvInt("FX_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if n := getEnvInt("FX_FRAMES", -1); n >= 0 {
		cfg.Frames = n
	}
	if v := getEnvFloat("FX_SPEED", 0); v > 0 {
		cfg.PlaybackSpeed = v
		cfg.Demo = true
	}
	cfg.Demo = getEnvBool("FX_DEMO", cfg.Demo)
	cfg.StartPaused = getEnvBool("FX_START_PAUSED", cfg.StartPaused)

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Particle ParticleConfig
	World    WorldConfig
	Tuning   TuningConfig
	Render   RenderConfig
	Debug    DebugConfig
	Demo     DemoConfig
}

// Default returns the complete configuration without environment overrides.
func Default() AppConfig {
	return AppConfig{
		Particle: DefaultParticle(),
		World:    DefaultWorld(),
		Tuning:   DefaultTuning(),
		Render:   DefaultRender(),
		Debug:    DefaultDebug(),
		Demo:     DefaultDemo(),
	}
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Particle: ParticleFromEnv(),
		World:    WorldFromEnv(),
		Tuning:   DefaultTuning(),
		Render:   RenderFromEnv(),
		Debug:    DebugFromEnv(),
		Demo:     DemoFromEnv(),
	}
}

// Validate reports every setting that cannot work.
func (c AppConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Particle.Capacity > 0, "particle capacity must be positive, got %d", c.Particle.Capacity)
	check(c.Particle.ExplosionCapacity > 0, "explosion capacity must be positive, got %d", c.Particle.ExplosionCapacity)
	check(c.Particle.MaxFrameTime > 0, "max frame time must be positive, got %g", c.Particle.MaxFrameTime)
	check(c.Particle.FrictionStep > 0, "friction step must be positive, got %g", c.Particle.FrictionStep)
	check(c.Particle.FrictionCeiling >= c.Particle.FrictionStep,
		"friction ceiling %g is below the friction step %g", c.Particle.FrictionCeiling, c.Particle.FrictionStep)

	check(c.World.TickSpeed > 0, "tick speed must be positive, got %d", c.World.TickSpeed)
	check(c.World.MapWidth >= 3 && c.World.MapHeight >= 3, "map must be at least 3x3 tiles, got %dx%d", c.World.MapWidth, c.World.MapHeight)
	check(c.World.TileSize > 0, "tile size must be positive, got %d", c.World.TileSize)
	check(c.World.Players >= 0 && c.World.Players <= c.World.MaxClients,
		"players must be in [0, %d], got %d", c.World.MaxClients, c.World.Players)

	check(c.Render.Width > 0 && c.Render.Height > 0, "canvas must be non-empty, got %dx%d", c.Render.Width, c.Render.Height)
	if c.Render.AtlasPath != "" {
		ext := strings.ToLower(c.Render.AtlasPath)
		check(strings.HasSuffix(ext, ".png") || strings.HasSuffix(ext, ".webp"),
			"atlas must be a .png or .webp file, got %q", c.Render.AtlasPath)
	}
	check(c.Render.SequenceEvery > 0, "sequence stride must be positive, got %d", c.Render.SequenceEvery)

	check(c.Demo.FPS > 0, "fps must be positive, got %d", c.Demo.FPS)
	check(c.Demo.Frames >= 0, "frames must not be negative, got %d", c.Demo.Frames)
	check(c.Demo.PlaybackSpeed > 0, "playback speed must be positive, got %g", c.Demo.PlaybackSpeed)

	if c.Debug.Enabled {
		check(c.Debug.ListenAddr != "", "debug listen address is empty")
		check(c.Debug.StatsInterval > 0, "stats interval must be positive, got %s", c.Debug.StatsInterval)
		check(c.Debug.RateLimit > 0 && c.Debug.RateBurst > 0, "debug rate limit must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
