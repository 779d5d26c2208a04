package canvas

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/surface"
)

const squareSize = 50

// PaintContext issues fill operations against the Surface it was acquired with.
type PaintContext struct {
	surface *Surface
}

// Surface returns the surface this context paints.
func (pc *PaintContext) Surface() *Surface {
	return pc.surface
}

// FillRect fills r, clipped to the surface, with a solid color.
func (pc *PaintContext) FillRect(r image.Rectangle, c gg.RGBA) error {
	s := pc.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	dst, r, err := s.target(r)
	if err != nil || dst == nil {
		return err
	}
	fill(dst, r, c)
	return nil
}

// FillGradient fills r, clipped to the surface, one row at a time with the
// gradient color at that row's centre.
func (pc *PaintContext) FillGradient(r image.Rectangle, g *Gradient) error {
	s := pc.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	dst, r, err := s.target(r)
	if err != nil || dst == nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		fill(dst, image.Rect(r.Min.X, y, r.Max.X, y+1), g.ColorAtY(float64(y)+0.5))
	}
	return nil
}

// FillSquare draws a 50x50 square with its top left corner at (x, y).
func (pc *PaintContext) FillSquare(x, y float64, c gg.RGBA) error {
	s := pc.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	if s.img == nil {
		return nil
	}
	path := surface.NewPath()
	path.Rectangle(x, y, squareSize, squareSize)
	s.img.Fill(path, surface.FillStyle{
		Color: c.Color(),
		Rule:  surface.FillRuleNonZero,
	})
	return nil
}

// target returns the backing image and r clipped to it. The image is nil when
// there is nothing to paint. Callers hold s.mu.
func (s *Surface) target(r image.Rectangle) (*image.RGBA, image.Rectangle, error) {
	if s.closed {
		return nil, r, ErrSurfaceClosed
	}
	if s.img == nil {
		return nil, r, nil
	}
	dst := s.img.Image()
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return nil, r, nil
	}
	return dst, r, nil
}

func nrgba(c gg.RGBA) color.NRGBA {
	r, g, b, a := toRGBA(c)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
