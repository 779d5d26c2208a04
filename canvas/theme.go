package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned by ParseColor for unrecognised input.
var ErrUnknownColor = errors.New("canvas: unknown color")

// Theme holds the two background colors.
type Theme struct {
	Top    gg.RGBA
	Bottom gg.RGBA
}

// DefaultTheme is darkslateblue fading to black.
func DefaultTheme() Theme {
	return Theme{
		Top:    gg.FromColor(colornames.Darkslateblue),
		Bottom: gg.FromColor(colornames.Black),
	}
}

// Gradient builds the background gradient spanning a surface of the given height.
// The gradient line runs from the centre of the first row to the centre of the
// last, so the outermost rows take the theme colors exactly.
func (t Theme) Gradient(height int) (*Gradient, error) {
	top, bottom := 0.5, float64(height)-0.5
	return NewVerticalGradient(top, bottom,
		ColorStop{Offset: 0, Color: t.Top},
		ColorStop{Offset: 1, Color: t.Bottom},
	)
}

// ParseColor accepts an SVG color name such as "darkslateblue" or a hex
// color in #rgb, #rgba, #rrggbb or #rrggbbaa form.
func ParseColor(s string) (gg.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return gg.FromColor(c), nil
	}
	if strings.HasPrefix(name, "#") && isHex(name[1:]) {
		switch len(name) - 1 {
		case 3, 4, 6, 8:
			return gg.Hex(name), nil
		}
	}
	return gg.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
