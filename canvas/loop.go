package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by a second call to Loop.Start.
var ErrAlreadyStarted = errors.New("canvas: render loop already started")

// Loop repaints a surface with the theme background on a fixed period.
//
// Frames are painted one at a time: the first synchronously inside Start, the
// rest from a single goroutine driven by a ticker. A failed frame is logged and
// counted, and the schedule carries on.
type Loop struct {
	provider Provider
	opts     options

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	paintMu sync.Mutex
	cached  *PaintContext // ResolveOnce only, guarded by paintMu

	frames   atomic.Uint64
	failures atomic.Uint64
}

// NewLoop creates a loop painting surfaces obtained from p.
func NewLoop(p Provider, opts ...Option) *Loop {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Loop{
		provider: p,
		opts:     o,
	}
}

// Period returns the repaint interval.
func (l *Loop) Period() time.Duration {
	return l.opts.period
}

// Start paints one frame and then keeps repainting every period until ctx is
// cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	l.opts.logger.Info("render loop started",
		zap.String("surface", l.opts.surfaceID),
		zap.Duration("period", l.opts.period),
		zap.Stringer("resolve", l.opts.resolve))

	l.step()

	ticks, stopTicker := l.opts.ticker(l.opts.period)
	go l.run(ctx, ticks, stopTicker, done)
	return nil
}

// Stop cancels the repaint timer and waits for the loop to exit. It is safe
// to call more than once, and before Start.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed once the loop has exited. It is nil before Start.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Frames returns the number of frames painted without error.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Failures returns the number of frames that failed.
func (l *Loop) Failures() uint64 {
	return l.failures.Load()
}

// PaintFrame fills the whole surface with the theme gradient, then runs the
// overlay if one is set. A zero sized surface is left alone.
func (l *Loop) PaintFrame() error {
	l.paintMu.Lock()
	defer l.paintMu.Unlock()

	if err := l.paint(); err != nil {
		l.failures.Add(1)
		return err
	}
	l.frames.Add(1)
	return nil
}

func (l *Loop) run(ctx context.Context, ticks <-chan time.Time, stopTicker func(), done chan struct{}) {
	defer close(done)
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			l.opts.logger.Info("render loop stopped",
				zap.String("surface", l.opts.surfaceID),
				zap.Uint64("frames", l.Frames()),
				zap.Uint64("failures", l.Failures()))
			return
		case <-ticks:
			l.step()
		}
	}
}

func (l *Loop) step() {
	if err := l.PaintFrame(); err != nil {
		l.opts.logger.Warn("paint frame",
			zap.String("surface", l.opts.surfaceID),
			zap.Error(err))
	}
}

func (l *Loop) paint() error {
	s, pc, err := l.acquire()
	if err != nil {
		return err
	}

	w, h := s.Size()
	if w == 0 || h == 0 {
		l.opts.logger.Debug("skipping empty surface",
			zap.String("surface", l.opts.surfaceID),
			zap.Int("width", w),
			zap.Int("height", h))
		return nil
	}

	g, err := l.opts.theme.Gradient(h)
	if err != nil {
		return fmt.Errorf("build gradient: %w", err)
	}
	if err := pc.FillGradient(image.Rect(0, 0, w, h), g); err != nil {
		if errors.Is(err, ErrSurfaceClosed) {
			l.cached = nil
		}
		return fmt.Errorf("fill %q: %w", l.opts.surfaceID, err)
	}

	if l.opts.overlay != nil {
		if err := l.opts.overlay(pc); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
	}
	return nil
}

func (l *Loop) acquire() (*Surface, *PaintContext, error) {
	if l.opts.resolve == ResolveOnce && l.cached != nil && !l.cached.Surface().Closed() {
		return l.cached.Surface(), l.cached, nil
	}

	s, pc, err := l.provider.Acquire(l.opts.surfaceID)
	if err != nil {
		l.cached = nil
		return nil, nil, fmt.Errorf("acquire: %w", err)
	}
	if l.opts.resolve == ResolveOnce {
		l.cached = pc
	}
	return s, pc, nil
}
