package particles

// renderGroup draws every particle of group g as one sized, rotated, tinted
// sprite quad, interpolating size from StartSize to EndSize over the
// particle's life. It leaves the backend in normal blend mode.
func renderGroup(s *Store, g Group, b Backend) {
	b.BlendNormal()
	b.BindParticleAtlas()
	b.QuadsBegin()

	s.each(g, func(_ int32, p *Particle) {
		b.SelectSprite(p.Sprite)
		a := 0.0
		if p.LifeSpan > 0 {
			a = p.Life / p.LifeSpan
		}
		size := mixf(p.StartSize, p.EndSize, a)

		b.SetRotation(p.Rot)
		b.SetColor(p.Color)
		b.DrawQuad(Quad{X: p.Pos.X, Y: p.Pos.Y, Width: size, Height: size})
	})

	b.QuadsEnd()
	b.BlendNormal()
}
