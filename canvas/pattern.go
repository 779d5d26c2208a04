package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/surface"
	"golang.org/x/image/draw"
)

// ErrUnknownPattern is returned by FillPattern for a Pattern it doesn't know.
var ErrUnknownPattern = errors.New("canvas: unknown pattern")

// Colors of the handheld box palette: light boxes on a dark screen.
var (
	EarthGreen    = gg.Hex("#5c8a3a")
	BoxBackground = gg.Black
)

// Pattern is the texture FillPattern draws inside a box.
type Pattern int

const (
	PatternBlank Pattern = iota
	PatternVertical
	PatternHorizontal
	PatternFill
)

func (p Pattern) String() string {
	switch p {
	case PatternBlank:
		return "blank"
	case PatternVertical:
		return "vertical"
	case PatternHorizontal:
		return "horizontal"
	case PatternFill:
		return "fill"
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// StrokeRect draws a one pixel outline along the edge pixels of r. Parts of
// the outline outside the surface are dropped.
func (pc *PaintContext) StrokeRect(r image.Rectangle, c gg.RGBA) error {
	s := pc.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	dst, _, err := s.target(r)
	if err != nil || dst == nil {
		return err
	}
	s.strokeRect(r.Canon(), c)
	return nil
}

// FillPattern paints a box over r.
//
//   - PatternBlank fills r with bg.
//   - PatternFill fills r with fg.
//   - PatternVertical fills r with bg, draws fg lines down every second
//     column starting at the left edge and outlines r in fg.
//   - PatternHorizontal does the same with rows from the top edge.
func (pc *PaintContext) FillPattern(r image.Rectangle, p Pattern, fg, bg gg.RGBA) error {
	if p < PatternBlank || p > PatternFill {
		return fmt.Errorf("%w: %v", ErrUnknownPattern, p)
	}

	s := pc.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	dst, clip, err := s.target(r)
	if err != nil || dst == nil {
		return err
	}
	r = r.Canon()

	switch p {
	case PatternBlank:
		fill(dst, clip, bg)
		return nil
	case PatternFill:
		fill(dst, clip, fg)
		return nil
	case PatternVertical:
		fill(dst, clip, bg)
		for i := 0; i < r.Dx()/2; i++ {
			x := r.Min.X + 2*i
			fill(dst, image.Rect(x, r.Min.Y, x+1, r.Max.Y).Intersect(clip), fg)
		}
	case PatternHorizontal:
		fill(dst, clip, bg)
		for i := 0; i < r.Dy()/2; i++ {
			y := r.Min.Y + 2*i
			fill(dst, image.Rect(r.Min.X, y, r.Max.X, y+1).Intersect(clip), fg)
		}
	}
	s.strokeRect(r, fg)
	return nil
}

// strokeRect outlines r. Each edge is stroked on its own along the pixel
// centres so the one pixel line covers whole pixels. Callers hold s.mu.
func (s *Surface) strokeRect(r image.Rectangle, c gg.RGBA) {
	bounds := s.img.Image().Bounds()
	col := color.Color(nrgba(c))
	edges := []image.Rectangle{
		{Min: r.Min, Max: image.Pt(r.Max.X, r.Min.Y+1)},
		{Min: image.Pt(r.Min.X, r.Max.Y-1), Max: r.Max},
		{Min: image.Pt(r.Min.X, r.Min.Y+1), Max: image.Pt(r.Min.X+1, r.Max.Y-1)},
		{Min: image.Pt(r.Max.X-1, r.Min.Y+1), Max: image.Pt(r.Max.X, r.Max.Y-1)},
	}
	for _, e := range edges {
		if e.Empty() {
			continue
		}
		e = e.Intersect(bounds)
		if e.Empty() {
			continue
		}
		path := surface.NewPath()
		if e.Dy() == 1 {
			y := float64(e.Min.Y) + 0.5
			path.MoveTo(float64(e.Min.X), y)
			path.LineTo(float64(e.Max.X), y)
		} else {
			x := float64(e.Min.X) + 0.5
			path.MoveTo(x, float64(e.Min.Y))
			path.LineTo(x, float64(e.Max.Y))
		}
		s.img.Stroke(path, surface.StrokeStyle{Color: col, Width: 1})
	}
}

func fill(dst draw.Image, r image.Rectangle, c gg.RGBA) {
	draw.Draw(dst, r, image.NewUniform(nrgba(c)), image.Point{}, draw.Src)
}
