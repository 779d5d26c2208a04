package canvas

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/gg"
)

// ErrInvalidStop is returned for a color stop offset outside [0, 1].
var ErrInvalidStop = errors.New("canvas: color stop offset out of range")

// ColorStop is a color at a position along a gradient.
type ColorStop struct {
	Offset float64 // 0 at the start of the gradient line, 1 at the end
	Color  gg.RGBA
}

// Gradient is a vertical linear gradient from Top (offset 0) to Bottom (offset 1).
// It can't be changed after construction.
type Gradient struct {
	top    float64
	bottom float64
	stops  []ColorStop
}

// NewVerticalGradient creates a gradient running down from y=top to y=bottom.
func NewVerticalGradient(top, bottom float64, stops ...ColorStop) (*Gradient, error) {
	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)
	for _, s := range sorted {
		if math.IsNaN(s.Offset) || s.Offset < 0 || s.Offset > 1 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStop, s.Offset)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return &Gradient{top: top, bottom: bottom, stops: sorted}, nil
}

// Stops returns a copy of the sorted color stops.
func (g *Gradient) Stops() []ColorStop {
	out := make([]ColorStop, len(g.stops))
	copy(out, g.stops)
	return out
}

// ColorAt returns the color at offset t. Offsets past either end take the
// color of the nearest stop.
func (g *Gradient) ColorAt(t float64) gg.RGBA {
	switch len(g.stops) {
	case 0:
		return gg.Transparent
	case 1:
		return g.stops[0].Color
	}

	t = clamp01(t)

	// first stop with offset > t, so coincident stops resolve to the later one
	idx := sort.Search(len(g.stops), func(i int) bool {
		return g.stops[i].Offset > t
	})
	if idx == 0 {
		return g.stops[0].Color
	}
	if idx == len(g.stops) {
		return g.stops[len(g.stops)-1].Color
	}

	lo, hi := g.stops[idx-1], g.stops[idx]
	local := (t - lo.Offset) / (hi.Offset - lo.Offset)
	return lo.Color.Lerp(hi.Color, local)
}

// ColorAtY returns the color for the horizontal line at y.
func (g *Gradient) ColorAtY(y float64) gg.RGBA {
	span := g.bottom - g.top
	if span == 0 {
		if len(g.stops) == 0 {
			return gg.Transparent
		}
		return g.stops[0].Color
	}
	return g.ColorAt((y - g.top) / span)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// toRGBA converts a float color to 8-bit, rounding to nearest.
func toRGBA(c gg.RGBA) (r, g, b, a uint8) {
	return channel(c.R), channel(c.G), channel(c.B), channel(c.A)
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
