package particles

import "time"

// Weapon is the weapon id carried by networked projectiles.
type Weapon int

const (
	WeaponHammer Weapon = iota
	WeaponGun
	WeaponShotgun
	WeaponGrenade
	WeaponRifle
	WeaponNinja
	NumWeapons
)

func (w Weapon) String() string {
	switch w {
	case WeaponHammer:
		return "hammer"
	case WeaponGun:
		return "gun"
	case WeaponShotgun:
		return "shotgun"
	case WeaponGrenade:
		return "grenade"
	case WeaponRifle:
		return "rifle"
	case WeaponNinja:
		return "ninja"
	default:
		return "unknown"
	}
}

// ParseWeapon returns the weapon named name, as produced by String.
func ParseWeapon(name string) (Weapon, bool) {
	for w := Weapon(0); w < NumWeapons; w++ {
		if w.String() == name {
			return w, true
		}
	}
	return 0, false
}

// CharacterCore is one networked character state. Velocities are fixed
// point with 256 units per world unit per tick.
type CharacterCore struct {
	X, Y       int
	VelX, VelY int
}

// Pos returns the position in world units.
func (c CharacterCore) Pos() Vec2 {
	return Vec2{float64(c.X), float64(c.Y)}
}

// Vel returns the velocity in world units.
func (c CharacterCore) Vel() Vec2 {
	return Vec2{float64(c.VelX) / 256.0, float64(c.VelY) / 256.0}
}

// Character pairs the two most recent server states of one client slot.
type Character struct {
	Active bool
	Prev   CharacterCore
	Cur    CharacterCore
}

// ItemType tags a snapshot item.
type ItemType int

const (
	ItemUnknown ItemType = iota
	ItemProjectile
	ItemLaser
	ItemPickup
	ItemFlag
)

// Projectile is the networked state of a projectile at launch. Start
// velocity is fixed point with 100 units per world unit.
type Projectile struct {
	Weapon     Weapon
	X, Y       int
	VelX, VelY int
	StartTick  int
}

// StartPos returns the launch position in world units.
func (p Projectile) StartPos() Vec2 {
	return Vec2{float64(p.X), float64(p.Y)}
}

// StartVel returns the launch direction vector in world units.
func (p Projectile) StartVel() Vec2 {
	return Vec2{float64(p.VelX) / 100.0, float64(p.VelY) / 100.0}
}

// SnapItem is one typed item of the current snapshot. Data holds a
// *Projectile for ItemProjectile and is opaque otherwise.
type SnapItem struct {
	Type ItemType
	ID   int
	Data any
}

// SnapshotSource is the read side of the network snapshot layer.
type SnapshotSource interface {
	// Characters returns every client slot; inactive ones have Active false.
	Characters() []Character
	// IntraTick is the interpolation fraction between Prev and Cur.
	IntraTick() float64
	// PrevGameTick is the tick of the previous snapshot.
	PrevGameTick() int
	// GameTickTime is the time in seconds since PrevGameTick.
	GameTickTime() float64
	// TickSpeed is the server tick rate in ticks per second.
	TickSpeed() int
	NumItems() int
	Item(i int) SnapItem
}

// PlaybackInfo is the demo player state relevant to particles.
type PlaybackInfo struct {
	Demo   bool    // playing back a recorded demo rather than a live game
	Paused bool    // demo paused
	Speed  float64 // demo speed multiplier
}

// Playback reports whether the client is live or playing a demo.
type Playback interface {
	Info() PlaybackInfo
}

// Mover moves a point through world geometry. Given a position and a trial
// displacement it returns the new position and the displacement after
// bouncing, scaled by elasticity on the axes that hit something.
type Mover interface {
	MovePoint(pos, disp Vec2, elasticity float64) (Vec2, Vec2)
}

// Tuning supplies live projectile trajectory parameters.
type Tuning interface {
	ProjectileParams(w Weapon) (curvature, speed float64)
}

// Backend is the draw surface the group renderer talks to.
type Backend interface {
	BlendNormal()
	BindParticleAtlas()
	QuadsBegin()
	SelectSprite(s Sprite)
	SetRotation(rad float64)
	SetColor(c Color)
	DrawQuad(q Quad)
	QuadsEnd()
}

// Clock is the wall clock used by the frame driver.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// emptySnapshot has no characters and no items.
type emptySnapshot struct{}

func (emptySnapshot) Characters() []Character { return nil }
func (emptySnapshot) IntraTick() float64       { return 0 }
func (emptySnapshot) PrevGameTick() int        { return 0 }
func (emptySnapshot) GameTickTime() float64    { return 0 }
func (emptySnapshot) TickSpeed() int           { return DefaultTickSpeed }
func (emptySnapshot) NumItems() int            { return 0 }
func (emptySnapshot) Item(int) SnapItem        { return SnapItem{} }

// livePlayback is never paused.
type livePlayback struct{}

func (livePlayback) Info() PlaybackInfo { return PlaybackInfo{Speed: 1} }

// freeMover moves through empty space.
type freeMover struct{}

func (freeMover) MovePoint(pos, disp Vec2, _ float64) (Vec2, Vec2) {
	return pos.Add(disp), disp
}

// zeroTuning gives every projectile a zero speed, so none exert flow.
type zeroTuning struct{}

func (zeroTuning) ProjectileParams(Weapon) (float64, float64) { return 0, 0 }
