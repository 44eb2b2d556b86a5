// Package render draws particle groups and the demo scene into an offscreen
// gg.Context. GGBackend implements particles.Backend.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // atlas images
	"math"
	"os"

	"github.com/fogleman/gg"
	_ "golang.org/x/image/webp" // WebP atlas images

	"fxcore/internal/particles"
)

// AtlasCols is the number of sprite cells per atlas row.
const AtlasCols = 4

// Atlas is the particle sprite sheet: white sprites with alpha on a grid of
// square cells, indexed by particles.Sprite in row-major order.
type Atlas struct {
	img  *image.NRGBA
	cell int
}

// LoadAtlas reads a PNG or WebP sprite sheet. The cell size is the image
// width divided by AtlasCols; the sheet must hold every sprite.
func LoadAtlas(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open atlas: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode atlas %s: %w", path, err)
	}
	b := src.Bounds()
	cell := b.Dx() / AtlasCols
	rows := (int(particles.NumSprites) + AtlasCols - 1) / AtlasCols
	if cell < 1 || b.Dy() < rows*cell {
		return nil, fmt.Errorf("atlas %s is %dx%d, need %d rows of %d cells", path, b.Dx(), b.Dy(), rows, AtlasCols)
	}

	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Atlas{img: img, cell: cell}, nil
}

// GenerateAtlas draws the built-in sprite sheet with cells of cell pixels.
func GenerateAtlas(cell int) *Atlas {
	if cell < 8 {
		cell = 8
	}
	rows := (int(particles.NumSprites) + AtlasCols - 1) / AtlasCols
	dc := gg.NewContext(AtlasCols*cell, rows*cell)
	for s := particles.Sprite(0); s < particles.NumSprites; s++ {
		col, row := int(s)%AtlasCols, int(s)/AtlasCols
		dc.Push()
		dc.Translate(float64(col*cell)+float64(cell)/2, float64(row*cell)+float64(cell)/2)
		drawSpriteShape(dc, s, float64(cell), color.White)
		dc.Pop()
	}

	img := image.NewNRGBA(dc.Image().Bounds())
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return &Atlas{img: img, cell: cell}
}

// Rect returns the cell of sprite s.
func (a *Atlas) Rect(s particles.Sprite) image.Rectangle {
	col, row := int(s)%AtlasCols, int(s)/AtlasCols
	return image.Rect(col*a.cell, row*a.cell, (col+1)*a.cell, (row+1)*a.cell)
}

// Cell returns the cell size in pixels.
func (a *Atlas) Cell() int {
	return a.cell
}

// Image returns the whole sheet.
func (a *Atlas) Image() image.Image {
	return a.img
}

// SavePNG writes the sheet to path.
func (a *Atlas) SavePNG(path string) error {
	return gg.SavePNG(path, a.img)
}

// tint copies sprite s into dst multiplied by c. dst must be cell x cell.
func (a *Atlas) tint(dst *image.NRGBA, s particles.Sprite, c particles.Color) {
	r := a.Rect(s)
	cr, cg, cb, ca := clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)
	for y := 0; y < a.cell; y++ {
		si := a.img.PixOffset(r.Min.X, r.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < a.cell; x++ {
			sp := a.img.Pix[si : si+4 : si+4]
			dp := dst.Pix[di : di+4 : di+4]
			dp[0] = uint8(float64(sp[0]) * cr)
			dp[1] = uint8(float64(sp[1]) * cg)
			dp[2] = uint8(float64(sp[2]) * cb)
			dp[3] = uint8(float64(sp[3]) * ca)
			si += 4
			di += 4
		}
	}
}

// drawSpriteShape draws sprite s centred on the origin, size units across,
// in color c.
func drawSpriteShape(dc *gg.Context, s particles.Sprite, size float64, c color.Color) {
	half := size / 2
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	withAlpha := func(k float64) color.NRGBA {
		out := nc
		out.A = uint8(float64(nc.A) * k)
		return out
	}

	switch s {
	case particles.SpriteSmoke:
		dc.SetColor(withAlpha(0.35))
		dc.DrawCircle(0, 0, half)
		dc.Fill()
		dc.SetColor(withAlpha(0.6))
		dc.DrawCircle(0, 0, half*0.65)
		dc.Fill()
	case particles.SpriteBall:
		dc.SetColor(nc)
		dc.DrawCircle(0, 0, half*0.8)
		dc.Fill()
	case particles.SpriteSplat01, particles.SpriteSplat02, particles.SpriteSplat03:
		dc.SetColor(nc)
		dc.DrawCircle(0, 0, half*0.55)
		dc.Fill()
		k := float64(s - particles.SpriteSplat01)
		for i := 0; i < 3; i++ {
			a := k*0.9 + float64(i)*2*math.Pi/3
			dc.DrawCircle(math.Cos(a)*half*0.6, math.Sin(a)*half*0.6, half*0.22)
			dc.Fill()
		}
	case particles.SpriteShell:
		dc.SetColor(nc)
		dc.SetLineWidth(math.Max(1, size*0.1))
		dc.DrawCircle(0, 0, half*0.75)
		dc.Stroke()
	case particles.SpriteExpl01:
		dc.SetColor(withAlpha(0.5))
		dc.DrawCircle(0, 0, half)
		dc.Fill()
		dc.SetColor(nc)
		dc.DrawRegularPolygon(8, 0, 0, half*0.7, 0)
		dc.Fill()
	case particles.SpriteAirJump:
		dc.SetColor(nc)
		dc.SetLineWidth(math.Max(1, size*0.12))
		dc.DrawArc(0, 0, half*0.7, math.Pi*0.15, math.Pi*0.85)
		dc.Stroke()
	case particles.SpriteSlice:
		dc.SetColor(nc)
		dc.SetLineWidth(math.Max(1, size*0.1))
		dc.DrawLine(-half*0.8, 0, half*0.8, 0)
		dc.Stroke()
	case particles.SpriteHit01:
		dc.SetColor(nc)
		dc.DrawRegularPolygon(4, 0, 0, half, 0)
		dc.Fill()
		dc.DrawRegularPolygon(4, 0, 0, half*0.6, math.Pi/4)
		dc.Fill()
	default:
		dc.SetColor(nc)
		dc.DrawRectangle(-half*0.5, -half*0.5, half, half)
		dc.Fill()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toNRGBA converts a particle color to an 8-bit color.
func toNRGBA(c particles.Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}
