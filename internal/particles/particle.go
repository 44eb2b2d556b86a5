// Package particles implements the client-side particle core: a fixed arena
// of particle slots threaded by a free list and a small number of group
// lists, the per-frame physics integrator that advances and expires them,
// and the group renderer that turns a group into draw calls.
//
// The core is single-threaded. All mutation happens from the frame loop;
// other goroutines may only read the published Stats value.
package particles

// Group identifies one of the fixed particle lists.
type Group int

const (
	GroupProjectileTrail Group = iota
	GroupExplosions
	GroupGeneral
	NumGroups
)

// groupFree marks a slot that is threaded through the free list.
const groupFree Group = -1

func (g Group) String() string {
	switch g {
	case GroupProjectileTrail:
		return "projectile_trail"
	case GroupExplosions:
		return "explosions"
	case GroupGeneral:
		return "general"
	case groupFree:
		return "free"
	default:
		return "unknown"
	}
}

// Sprite selects a cell of the particle atlas.
type Sprite int

const (
	SpriteSlice Sprite = iota
	SpriteBall
	SpriteSplat01
	SpriteSplat02
	SpriteSplat03
	SpriteSmoke
	SpriteShell
	SpriteExpl01
	SpriteAirJump
	SpriteHit01
	NumSprites
)

// Color is a straight-alpha RGBA color with channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

// White is the default particle tint.
var White = Color{1, 1, 1, 1}

// Particle is the value record copied into a slot on insertion.
type Particle struct {
	Pos Vec2
	Vel Vec2

	Gravity      float64 // added to Vel.Y per second
	Friction     float64 // velocity multiplier per 0.05s friction step
	FlowAffected float64 // 0 = immune to characters, explosions and projectiles

	Sprite    Sprite
	StartSize float64
	EndSize   float64
	Rot       float64
	RotSpeed  float64
	Color     Color

	Life     float64 // seconds alive, reset to 0 on insert
	LifeSpan float64 // seconds to live
}

// DefaultParticle returns a template with the stock defaults. Effects start
// from this and override what they need.
func DefaultParticle() Particle {
	return Particle{
		StartSize:    32,
		EndSize:      32,
		FlowAffected: 1,
		Color:        White,
	}
}

// Quad is a centred, axis-aligned quad before rotation.
type Quad struct {
	X, Y          float64 // centre
	Width, Height float64
}
