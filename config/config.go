// Package config holds the command line settings of the game window.
package config

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/erdincmutlu/gamecanvas/canvas"
)

// MaxSide is the largest accepted window width or height in pixels.
const MaxSide = 1 << 14

// Config is the command line configuration.
type Config struct {
	SurfaceID string
	Period    time.Duration
	Top       string
	Bottom    string
	Width     int
	Height    int
	Scale     float64
	Resolve   string
	Demo      bool
	Verbose   bool
}

// Parse reads flags from args. With no flags the window shows gameCanvas
// painted darkslateblue to black every 10ms.
func Parse(args []string, output io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("gamecanvas", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.SurfaceID, "surface", canvas.DefaultSurfaceID, "name of the drawing surface")
	fs.DurationVar(&cfg.Period, "period", canvas.DefaultPeriod, "repaint interval")
	fs.StringVar(&cfg.Top, "top", "darkslateblue", "gradient color at the top (name or #hex)")
	fs.StringVar(&cfg.Bottom, "bottom", "black", "gradient color at the bottom (name or #hex)")
	fs.IntVar(&cfg.Width, "width", canvas.BoardWidth, "surface width in pixels")
	fs.IntVar(&cfg.Height, "height", canvas.BoardHeight, "surface height in pixels")
	fs.Float64Var(&cfg.Scale, "scale", 1, "window scale")
	fs.StringVar(&cfg.Resolve, "resolve", canvas.ResolveEachFrame.String(), "surface lookup: frame or once")
	fs.BoolVar(&cfg.Demo, "demo", false, "draw the test squares and pattern boxes")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the window or loop can't use.
func (c Config) Validate() error {
	var errs []error
	if c.SurfaceID == "" {
		errs = append(errs, errors.New("surface name is empty"))
	}
	if c.Period <= 0 {
		errs = append(errs, fmt.Errorf("period must be positive, got %v", c.Period))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Width > MaxSide || c.Height > MaxSide {
		errs = append(errs, fmt.Errorf("window size must be at most %d per side, got %dx%d", MaxSide, c.Width, c.Height))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale must be positive, got %v", c.Scale))
	}
	if _, err := c.theme(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.resolvePolicy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) theme() (canvas.Theme, error) {
	top, err := canvas.ParseColor(c.Top)
	if err != nil {
		return canvas.Theme{}, fmt.Errorf("top: %w", err)
	}
	bottom, err := canvas.ParseColor(c.Bottom)
	if err != nil {
		return canvas.Theme{}, fmt.Errorf("bottom: %w", err)
	}
	return canvas.Theme{Top: top, Bottom: bottom}, nil
}

func (c Config) resolvePolicy() (canvas.ResolvePolicy, error) {
	switch c.Resolve {
	case canvas.ResolveEachFrame.String():
		return canvas.ResolveEachFrame, nil
	case canvas.ResolveOnce.String():
		return canvas.ResolveOnce, nil
	}
	return 0, fmt.Errorf("unknown resolve policy %q", c.Resolve)
}

// LoopOptions turns a validated config into render loop options.
func (c Config) LoopOptions(l *zap.Logger) []canvas.Option {
	theme, _ := c.theme()
	policy, _ := c.resolvePolicy()
	opts := []canvas.Option{
		canvas.WithSurfaceID(c.SurfaceID),
		canvas.WithPeriod(c.Period),
		canvas.WithTheme(theme),
		canvas.WithResolvePolicy(policy),
		canvas.WithLogger(l),
	}
	if c.Demo {
		opts = append(opts, canvas.WithOverlay(drawDemo))
	}
	return opts
}

// demoBoxes is where the pattern boxes start, right of the test squares.
var demoBoxes = image.Pt(120, 10)

// drawDemo paints a red and a blue square and four 20x20 pattern boxes for
// checking the layout.
func drawDemo(pc *canvas.PaintContext) error {
	if err := pc.FillSquare(10, 10, gg.Red); err != nil {
		return err
	}
	if err := pc.FillSquare(50, 50, gg.Blue); err != nil {
		return err
	}

	box := func(x, y int) image.Rectangle {
		return image.Rect(x, y, x+20, y+20).Add(demoBoxes)
	}
	if err := pc.StrokeRect(box(0, 0), canvas.EarthGreen); err != nil {
		return err
	}
	for _, b := range []struct {
		r image.Rectangle
		p canvas.Pattern
	}{
		{box(20, 0), canvas.PatternVertical},
		{box(0, 20), canvas.PatternHorizontal},
		{box(20, 20), canvas.PatternFill},
	} {
		if err := pc.FillPattern(b.r, b.p, canvas.EarthGreen, canvas.BoxBackground); err != nil {
			return fmt.Errorf("%v box: %w", b.p, err)
		}
	}
	return nil
}
