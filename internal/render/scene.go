package render

import (
	"image/color"
	"math"

	"fxcore/internal/particles"
	"fxcore/internal/world"
)

var (
	skyColor   = color.RGBA{12, 12, 28, 255}
	tileColor  = color.RGBA{58, 64, 92, 255}
	edgeColor  = color.RGBA{96, 104, 140, 255}
	shotColor  = color.RGBA{255, 220, 120, 255}
	nadeColor  = color.RGBA{120, 230, 120, 255}
	outlineCol = color.RGBA{10, 10, 10, 200}
)

// teamPalette colors character bodies per client slot.
var teamPalette = [...]color.RGBA{
	{230, 70, 70, 255},
	{70, 140, 230, 255},
	{80, 200, 100, 255},
	{235, 190, 60, 255},
	{170, 90, 220, 255},
	{245, 140, 50, 255},
	{70, 210, 210, 255},
	{235, 100, 160, 255},
}

// Scene draws a full frame: background, map, projectiles, characters and the
// three particle groups in the client's layer order. World coordinates are
// scaled to fit the canvas and centred.
type Scene struct {
	backend *GGBackend
	tiles   *world.TileMap

	scale   float64
	offsetX float64
	offsetY float64
}

// NewScene fits tiles into the backend's canvas.
func NewScene(b *GGBackend, tiles *world.TileMap) *Scene {
	s := &Scene{backend: b, tiles: tiles, scale: 1}
	w, h := float64(b.dc.Width()), float64(b.dc.Height())
	if tiles != nil && tiles.Width() > 0 && tiles.Height() > 0 {
		s.scale = math.Min(w/tiles.Width(), h/tiles.Height())
		s.offsetX = (w - tiles.Width()*s.scale) / 2
		s.offsetY = (h - tiles.Height()*s.scale) / 2
	}
	return s
}

// Scale returns the world to canvas scale factor.
func (s *Scene) Scale() float64 {
	return s.scale
}

// ToScreen converts a world position to canvas pixels.
func (s *Scene) ToScreen(p particles.Vec2) (float64, float64) {
	return s.offsetX + p.X*s.scale, s.offsetY + p.Y*s.scale
}

// Draw renders one frame. Projectiles are placed at their render-time
// position along the tuned trajectory; characters are interpolated between
// their two latest states.
func (s *Scene) Draw(sys *particles.System, src particles.SnapshotSource, tuning particles.Tuning) {
	s.backend.Clear(skyColor)

	dc := s.backend.dc
	dc.Push()
	dc.Translate(s.offsetX, s.offsetY)
	dc.Scale(s.scale, s.scale)

	s.DrawTiles()
	sys.RenderGroup(particles.GroupProjectileTrail, s.backend)
	if src != nil {
		s.DrawProjectiles(src, tuning)
		s.DrawCharacters(src)
	}
	sys.RenderGroup(particles.GroupExplosions, s.backend)
	sys.RenderGroup(particles.GroupGeneral, s.backend)

	dc.Pop()
}

// DrawTiles fills every solid tile and outlines the exposed top edges.
func (s *Scene) DrawTiles() {
	if s.tiles == nil {
		return
	}
	dc := s.backend.dc
	ts := s.tiles.TileSize()

	dc.SetColor(tileColor)
	for row := 0; row < s.tiles.Rows(); row++ {
		for col := 0; col < s.tiles.Cols(); col++ {
			if s.tiles.At(col, row) == world.TileSolid {
				dc.DrawRectangle(float64(col)*ts, float64(row)*ts, ts, ts)
			}
		}
	}
	dc.Fill()

	dc.SetColor(edgeColor)
	dc.SetLineWidth(2)
	for row := 1; row < s.tiles.Rows(); row++ {
		for col := 0; col < s.tiles.Cols(); col++ {
			if s.tiles.At(col, row) == world.TileSolid && s.tiles.At(col, row-1) == world.TileAir {
				y := float64(row) * ts
				dc.DrawLine(float64(col)*ts, y, float64(col+1)*ts, y)
			}
		}
	}
	dc.Stroke()
}

// DrawCharacters draws every active character as a tee body with eyes
// facing its movement.
func (s *Scene) DrawCharacters(src particles.SnapshotSource) {
	dc := s.backend.dc
	intra := src.IntraTick()
	for id, c := range src.Characters() {
		if !c.Active {
			continue
		}
		pos := particles.Mix(c.Prev.Pos(), c.Cur.Pos(), intra)
		body := teamPalette[id%len(teamPalette)]

		dc.SetColor(outlineCol)
		dc.DrawCircle(pos.X, pos.Y, 16)
		dc.Fill()
		dc.SetColor(body)
		dc.DrawCircle(pos.X, pos.Y, 14)
		dc.Fill()

		dir := 1.0
		if c.Cur.VelX < 0 {
			dir = -1
		}
		dc.SetColor(color.White)
		dc.DrawEllipse(pos.X+dir*4, pos.Y-4, 2.5, 4)
		dc.DrawEllipse(pos.X+dir*9, pos.Y-4, 2.5, 4)
		dc.Fill()
	}
}

// DrawProjectiles draws every projectile item that has been launched at
// render time.
func (s *Scene) DrawProjectiles(src particles.SnapshotSource, tuning particles.Tuning) {
	if tuning == nil {
		return
	}
	dc := s.backend.dc
	tickSpeed := float64(src.TickSpeed())
	if tickSpeed <= 0 {
		tickSpeed = particles.DefaultTickSpeed
	}

	for i, n := 0, src.NumItems(); i < n; i++ {
		item := src.Item(i)
		if item.Type != particles.ItemProjectile {
			continue
		}
		proj, ok := item.Data.(*particles.Projectile)
		if !ok || proj == nil {
			continue
		}
		ct := float64(src.PrevGameTick()-proj.StartTick)/tickSpeed + src.GameTickTime()
		if ct < 0 {
			continue
		}
		curvature, speed := tuning.ProjectileParams(proj.Weapon)
		pos := particles.CalcPos(proj.StartPos(), proj.StartVel(), curvature, speed, ct)

		if proj.Weapon == particles.WeaponGrenade {
			dc.SetColor(nadeColor)
			dc.DrawCircle(pos.X, pos.Y, 7)
		} else {
			dc.SetColor(shotColor)
			dc.DrawCircle(pos.X, pos.Y, 4)
		}
		dc.Fill()
	}
}
