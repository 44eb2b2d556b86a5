package particles

// Core limits and force constants.
const (
	MaxParticles     = 1024 * 8 // default arena size
	MaxExplosions    = 64       // max simultaneous in-flight projectiles
	DefaultTickSpeed = 50       // server ticks per second

	characterFlowRadius  = 28.0
	characterSpeedCap    = 50.0
	characterSpeedScale  = 40.0
	explosionRadius      = 82.0
	explosionForce       = 500.0
	projectileFlowRadius = 16.0
	projectileFlowScale  = 10.0
	flowTimeScale        = 500.0
	projectileDiffTime   = 0.001 // seconds between the two reconstructed positions
)

// Config holds the tunables of one particle System.
type Config struct {
	Capacity          int     // number of arena slots
	ExplosionCapacity int     // explosion events kept per frame
	MaxFrameTime      float64 // elapsed seconds above this are treated as zero
	FrictionStep      float64 // seconds per friction sub-step
	FrictionCeiling   float64 // friction accumulator resets above this

	// AbortOnUnlaunchedProjectile keeps the reference behaviour: meeting a
	// projectile whose launch tick is still in the future ends the whole
	// update pass for every remaining particle. When false only that
	// projectile is skipped.
	AbortOnUnlaunchedProjectile bool
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:                    MaxParticles,
		ExplosionCapacity:           MaxExplosions,
		MaxFrameTime:                2.0,
		FrictionStep:                0.05,
		FrictionCeiling:             2.0,
		AbortOnUnlaunchedProjectile: true,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.ExplosionCapacity <= 0 {
		c.ExplosionCapacity = d.ExplosionCapacity
	}
	if c.MaxFrameTime <= 0 {
		c.MaxFrameTime = d.MaxFrameTime
	}
	if c.FrictionStep <= 0 {
		c.FrictionStep = d.FrictionStep
	}
	if c.FrictionCeiling <= 0 {
		c.FrictionCeiling = d.FrictionCeiling
	}
	return c
}
