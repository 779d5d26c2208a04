package canvas

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSurfaceID names the surface the loop paints unless told otherwise.
	DefaultSurfaceID = "gameCanvas"
	// DefaultPeriod is the repaint interval.
	DefaultPeriod = 10 * time.Millisecond
)

// ResolvePolicy controls how often the loop looks its surface up.
type ResolvePolicy int

const (
	// ResolveEachFrame acquires the surface again for every frame.
	ResolveEachFrame ResolvePolicy = iota
	// ResolveOnce keeps the first acquired surface and only acquires again
	// after it has been closed.
	ResolveOnce
)

// String returns the flag spelling of the policy.
func (p ResolvePolicy) String() string {
	switch p {
	case ResolveOnce:
		return "once"
	default:
		return "frame"
	}
}

// Overlay paints on top of the background after every successful fill.
type Overlay func(pc *PaintContext) error

// Option configures a Loop.
type Option func(*options)

type options struct {
	period    time.Duration
	surfaceID string
	theme     Theme
	resolve   ResolvePolicy
	logger    *zap.Logger
	overlay   Overlay
	ticker    func(time.Duration) (<-chan time.Time, func())
}

func defaultOptions() options {
	return options{
		period:    DefaultPeriod,
		surfaceID: DefaultSurfaceID,
		theme:     DefaultTheme(),
		resolve:   ResolveEachFrame,
		logger:    zap.NewNop(),
		ticker:    newTicker,
	}
}

// WithPeriod sets the repaint interval. Non-positive values are ignored.
func WithPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.period = d
		}
	}
}

// WithSurfaceID sets the surface the loop paints.
func WithSurfaceID(id string) Option {
	return func(o *options) {
		o.surfaceID = id
	}
}

// WithTheme sets the background colors.
func WithTheme(t Theme) Option {
	return func(o *options) {
		o.theme = t
	}
}

// WithResolvePolicy sets how the loop acquires its surface.
func WithResolvePolicy(p ResolvePolicy) Option {
	return func(o *options) {
		o.resolve = p
	}
}

// WithLogger sets the logger for frame diagnostics. nil keeps the default,
// which discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOverlay sets a hook run after the background of each frame.
func WithOverlay(fn Overlay) Option {
	return func(o *options) {
		o.overlay = fn
	}
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
