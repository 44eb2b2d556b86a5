package render

import (
	"image"
	"image/color"
	"log"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"fxcore/internal/particles"
)

// GGBackend implements particles.Backend on a gg.Context. Without an atlas
// it draws each sprite as vector shapes; with one it draws the tinted atlas
// cell.
type GGBackend struct {
	dc      *gg.Context
	atlas   *Atlas
	scratch *image.NRGBA
	hud     font.Face

	atlasBound bool
	inQuads    bool
	sprite     particles.Sprite
	rot        float64
	color      particles.Color

	quads   int // quads drawn since the last Clear
	batches int // QuadsBegin/QuadsEnd pairs since the last Clear
}

// NewGGBackend creates a width x height canvas. atlas may be nil.
func NewGGBackend(width, height int, atlas *Atlas) *GGBackend {
	b := &GGBackend{
		dc:    gg.NewContext(width, height),
		atlas: atlas,
		hud:   basicfont.Face7x13,
		color: particles.White,
	}
	if atlas != nil {
		b.scratch = image.NewNRGBA(image.Rect(0, 0, atlas.Cell(), atlas.Cell()))
	}
	return b
}

// LoadHUDFont replaces the built-in HUD face with a TrueType/OpenType font.
// On failure the built-in face stays and the error is logged.
func (b *GGBackend) LoadHUDFont(path string, size float64) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Failed to read HUD font: %v", err)
		return
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		log.Printf("⚠️ Failed to parse HUD font: %v", err)
		return
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to create HUD font face: %v", err)
		return
	}
	b.hud = face
	log.Printf("✅ HUD font loaded from: %s", path)
}

// Context exposes the underlying drawing context.
func (b *GGBackend) Context() *gg.Context {
	return b.dc
}

// Clear fills the canvas with c and resets the draw counters.
func (b *GGBackend) Clear(c color.Color) {
	b.dc.SetColor(c)
	b.dc.Clear()
	b.quads = 0
	b.batches = 0
}

// BlendNormal is a no-op: gg always composites source-over.
func (b *GGBackend) BlendNormal() {}

func (b *GGBackend) BindParticleAtlas() { b.atlasBound = true }

func (b *GGBackend) QuadsBegin() {
	b.inQuads = true
	b.batches++
}

func (b *GGBackend) QuadsEnd() {
	b.inQuads = false
	b.atlasBound = false
}

func (b *GGBackend) SelectSprite(s particles.Sprite) { b.sprite = s }
func (b *GGBackend) SetRotation(rad float64)         { b.rot = rad }
func (b *GGBackend) SetColor(c particles.Color)      { b.color = c }

// DrawQuad draws the selected sprite centred on the quad, rotated and tinted
// by the current state. Quads outside a QuadsBegin/QuadsEnd pair are dropped.
func (b *GGBackend) DrawQuad(q particles.Quad) {
	if !b.inQuads || q.Width <= 0 || q.Height <= 0 {
		return
	}
	b.quads++

	dc := b.dc
	dc.Push()
	dc.Translate(q.X, q.Y)
	dc.Rotate(b.rot)

	if b.atlas != nil && b.atlasBound {
		b.atlas.tint(b.scratch, b.sprite, b.color)
		cell := float64(b.atlas.Cell())
		dc.Scale(q.Width/cell, q.Height/cell)
		dc.DrawImageAnchored(b.scratch, 0, 0, 0.5, 0.5)
	} else {
		dc.Scale(1, q.Height/q.Width)
		drawSpriteShape(dc, b.sprite, q.Width, toNRGBA(b.color))
	}
	dc.Pop()
}

// Quads returns the number of quads drawn since the last Clear.
func (b *GGBackend) Quads() int {
	return b.quads
}

// Batches returns the number of quad batches since the last Clear.
func (b *GGBackend) Batches() int {
	return b.batches
}

// DrawHUD prints lines in the top-left corner over a translucent panel.
func (b *GGBackend) DrawHUD(lines []string) {
	if len(lines) == 0 {
		return
	}
	dc := b.dc
	dc.SetFontFace(b.hud)

	lineHeight := dc.FontHeight() * 1.4
	width := 0.0
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > width {
			width = w
		}
	}

	const margin, pad = 12.0, 8.0
	dc.SetColor(color.NRGBA{0, 0, 0, 150})
	dc.DrawRoundedRectangle(margin, margin, width+2*pad, lineHeight*float64(len(lines))+2*pad, 6)
	dc.Fill()

	dc.SetColor(color.NRGBA{0, 230, 255, 255})
	for i, l := range lines {
		dc.DrawStringAnchored(l, margin+pad, margin+pad+lineHeight*(float64(i)+0.5), 0, 0.5)
	}
}

// Image returns the current canvas.
func (b *GGBackend) Image() image.Image {
	return b.dc.Image()
}

// SavePNG writes the current canvas to path.
func (b *GGBackend) SavePNG(path string) error {
	return b.dc.SavePNG(path)
}
