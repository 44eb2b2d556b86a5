package render

import (
	"github.com/gdamore/tcell/v2"

	"fxcore/internal/particles"
	"fxcore/internal/world"
)

// TermBackend implements particles.Backend on a terminal screen: each quad
// becomes one glyph in the cell under its center, colored by the particle
// tint over a black background. World coordinates are stretched to fill
// the screen.
type TermBackend struct {
	screen tcell.Screen

	scaleX, scaleY float64
	cols, rows     int

	inQuads bool
	sprite  particles.Sprite
	color   particles.Color

	quads int
}

// NewTermBackend draws on an initialised screen.
func NewTermBackend(screen tcell.Screen) *TermBackend {
	return &TermBackend{screen: screen, scaleX: 1, scaleY: 1, color: particles.White}
}

// Fit maps a worldW x worldH world onto the current screen size. Call it
// again after a resize.
func (b *TermBackend) Fit(worldW, worldH float64) {
	b.cols, b.rows = b.screen.Size()
	if worldW > 0 && worldH > 0 {
		b.scaleX = float64(b.cols) / worldW
		b.scaleY = float64(b.rows) / worldH
	}
}

// Cell returns the screen cell under world position p and whether it is on
// screen.
func (b *TermBackend) Cell(p particles.Vec2) (int, int, bool) {
	x, y := int(p.X*b.scaleX), int(p.Y*b.scaleY)
	return x, y, x >= 0 && y >= 0 && x < b.cols && y < b.rows
}

// Clear blanks the screen and resets the quad counter.
func (b *TermBackend) Clear() {
	b.screen.Clear()
	b.quads = 0
}

// Show flushes the frame to the terminal.
func (b *TermBackend) Show() {
	b.screen.Show()
}

// Quads returns the number of quads drawn since the last Clear.
func (b *TermBackend) Quads() int {
	return b.quads
}

func (b *TermBackend) BlendNormal()                    {}
func (b *TermBackend) BindParticleAtlas()              {}
func (b *TermBackend) QuadsBegin()                     { b.inQuads = true }
func (b *TermBackend) QuadsEnd()                       { b.inQuads = false }
func (b *TermBackend) SelectSprite(s particles.Sprite) { b.sprite = s }
func (b *TermBackend) SetRotation(float64)             {}
func (b *TermBackend) SetColor(c particles.Color)      { b.color = c }

// DrawQuad plots the selected sprite's glyph. Quads outside a batch, off
// screen, or fully transparent are dropped.
func (b *TermBackend) DrawQuad(q particles.Quad) {
	if !b.inQuads || q.Width <= 0 || b.color.A <= 0 {
		return
	}
	x, y, ok := b.Cell(particles.V2(q.X, q.Y))
	if !ok {
		return
	}
	b.quads++
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(termColor(b.color))
	b.screen.SetContent(x, y, spriteGlyph(b.sprite, b.color.A), nil, style)
}

// DrawTiles fills solid tiles with a shaded block.
func (b *TermBackend) DrawTiles(tiles *world.TileMap) {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.NewRGBColor(96, 104, 140))
	ts := tiles.TileSize()
	for y := 0; y < b.rows; y++ {
		for x := 0; x < b.cols; x++ {
			wx := (float64(x) + 0.5) / b.scaleX
			wy := (float64(y) + 0.5) / b.scaleY
			if tiles.At(int(wx/ts), int(wy/ts)) == world.TileSolid {
				b.screen.SetContent(x, y, '▓', nil, style)
			}
		}
	}
}

// DrawCharacters marks each active character with its slot color.
func (b *TermBackend) DrawCharacters(src particles.SnapshotSource) {
	intra := src.IntraTick()
	for id, c := range src.Characters() {
		if !c.Active {
			continue
		}
		x, y, ok := b.Cell(particles.Mix(c.Prev.Pos(), c.Cur.Pos(), intra))
		if !ok {
			continue
		}
		tc := teamPalette[id%len(teamPalette)]
		style := tcell.StyleDefault.Background(tcell.ColorBlack).
			Foreground(tcell.NewRGBColor(int32(tc.R), int32(tc.G), int32(tc.B))).Bold(true)
		b.screen.SetContent(x, y, '@', nil, style)
	}
}

// DrawText writes s starting at cell (x, y), clipped to the screen.
func (b *TermBackend) DrawText(x, y int, s string) {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.NewRGBColor(0, 230, 255))
	for _, r := range s {
		if x >= b.cols {
			return
		}
		if x >= 0 && y >= 0 && y < b.rows {
			b.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

// DrawFrame renders a whole frame in the client's layer order and shows it.
func (b *TermBackend) DrawFrame(sys *particles.System, tiles *world.TileMap, src particles.SnapshotSource, hud []string) {
	b.Clear()
	if tiles != nil {
		b.DrawTiles(tiles)
	}
	sys.RenderGroup(particles.GroupProjectileTrail, b)
	if src != nil {
		b.DrawCharacters(src)
	}
	sys.RenderGroup(particles.GroupExplosions, b)
	sys.RenderGroup(particles.GroupGeneral, b)
	for i, line := range hud {
		b.DrawText(1, i, line)
	}
	b.Show()
}

// termColor premultiplies the tint by its alpha over black.
func termColor(c particles.Color) tcell.Color {
	a := clamp01(c.A)
	return tcell.NewRGBColor(
		int32(clamp01(c.R)*a*255+0.5),
		int32(clamp01(c.G)*a*255+0.5),
		int32(clamp01(c.B)*a*255+0.5),
	)
}

func spriteGlyph(s particles.Sprite, alpha float64) rune {
	switch s {
	case particles.SpriteSmoke:
		if alpha > 0.5 {
			return '▒'
		}
		return '░'
	case particles.SpriteBall:
		return '•'
	case particles.SpriteSplat01, particles.SpriteSplat02, particles.SpriteSplat03:
		return '*'
	case particles.SpriteShell:
		return 'o'
	case particles.SpriteExpl01:
		return '█'
	case particles.SpriteAirJump:
		return '^'
	case particles.SpriteSlice:
		return '-'
	case particles.SpriteHit01:
		return 'x'
	default:
		return '.'
	}
}
