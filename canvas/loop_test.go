package canvas

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gg"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// withTicks drives the loop from ch instead of a real ticker.
func withTicks(ch chan time.Time) Option {
	return func(o *options) {
		o.ticker = func(time.Duration) (<-chan time.Time, func()) {
			return ch, func() {}
		}
	}
}

// countingProvider counts Acquire calls.
type countingProvider struct {
	Provider
	calls atomic.Int32
}

func (p *countingProvider) Acquire(id string) (*Surface, *PaintContext, error) {
	p.calls.Add(1)
	return p.Provider.Acquire(id)
}

func TestPaintFrameGradient(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Add(DefaultSurfaceID, 200, 100)
	l := NewLoop(r, WithLogger(zaptest.NewLogger(t)))

	if err := l.PaintFrame(); err != nil {
		t.Fatalf("PaintFrame: %v", err)
	}

	img := s.Snapshot()
	top := color.RGBA{0x48, 0x3d, 0x8b, 0xff} // darkslateblue
	bottom := color.RGBA{0, 0, 0, 0xff}
	for x := 0; x < 200; x++ {
		if got := img.RGBAAt(x, 0); got != top {
			t.Fatalf("top row pixel %d = %v, want %v", x, got, top)
		}
		if got := img.RGBAAt(x, 99); got != bottom {
			t.Fatalf("bottom row pixel %d = %v, want %v", x, got, bottom)
		}
	}

	mid := img.RGBAAt(100, 50)
	want := [3]float64{float64(top.R) / 2, float64(top.G) / 2, float64(top.B) / 2}
	got := [3]float64{float64(mid.R), float64(mid.G), float64(mid.B)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1 {
			t.Errorf("row 50 = %v, want about %v", mid, want)
			break
		}
	}

	// every pixel written, and rows only darken going down
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if a := img.RGBAAt(x, y).A; a != 0xff {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, a)
			}
		}
		if y > 0 && img.RGBAAt(0, y).B > img.RGBAAt(0, y-1).B {
			t.Errorf("row %d is brighter than row %d", y, y-1)
		}
	}
	if l.Frames() != 1 || l.Failures() != 0 {
		t.Errorf("Frames/Failures = %d/%d, want 1/0", l.Frames(), l.Failures())
	}
}

func TestPaintFrameIdempotent(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Add(DefaultSurfaceID, 31, 17)
	l := NewLoop(r)

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	first := s.Snapshot().Pix
	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, s.Snapshot().Pix) {
		t.Error("second frame differs from the first")
	}
}

func TestPaintFrameOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Add(DefaultSurfaceID, 8, 8)
	s, pc, _ := r.Acquire(DefaultSurfaceID)
	l := NewLoop(r)

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	want := s.Snapshot().Pix
	if err := pc.FillRect(image.Rect(2, 2, 6, 6), gg.Red); err != nil {
		t.Fatal(err)
	}
	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, s.Snapshot().Pix) {
		t.Error("frame did not fully overwrite earlier content")
	}
}

func TestPaintFrameEmptySurface(t *testing.T) {
	for _, size := range [][2]int{{0, 100}, {200, 0}, {0, 0}} {
		r := NewRegistry()
		r.Add(DefaultSurfaceID, size[0], size[1])
		l := NewLoop(r)

		if err := l.PaintFrame(); err != nil {
			t.Errorf("%v: PaintFrame = %v, want nil", size, err)
		}
	}
}

func TestPaintFrameSingleRow(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Add(DefaultSurfaceID, 4, 1)
	l := NewLoop(r)

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	if got, want := s.Snapshot().RGBAAt(0, 0), (color.RGBA{0x48, 0x3d, 0x8b, 0xff}); got != want {
		t.Errorf("pixel = %v, want top color %v", got, want)
	}
}

func TestPaintFrameMissingSurface(t *testing.T) {
	r := NewRegistry()
	l := NewLoop(r)

	err := l.PaintFrame()
	if !errors.Is(err, ErrSurfaceNotFound) {
		t.Fatalf("err = %v, want ErrSurfaceNotFound", err)
	}
	if l.Failures() != 1 || l.Frames() != 0 {
		t.Errorf("Frames/Failures = %d/%d, want 0/1", l.Frames(), l.Failures())
	}

	// a later frame recovers once the surface exists
	r.Add(DefaultSurfaceID, 2, 2)
	if err := l.PaintFrame(); err != nil {
		t.Errorf("PaintFrame after Add: %v", err)
	}
	if l.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", l.Frames())
	}
}

func TestPaintFrameTheme(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Add("board", 2, 2)
	l := NewLoop(r,
		WithSurfaceID("board"),
		WithTheme(Theme{Top: gg.White, Bottom: gg.White}),
	)

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	for _, b := range s.Snapshot().Pix {
		if b != 0xff {
			t.Fatalf("pixel byte = %d, want white surface", b)
		}
	}
}

func TestPaintFrameOverlay(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Add(DefaultSurfaceID, 4, 4)

	var calls int
	l := NewLoop(r, WithOverlay(func(pc *PaintContext) error {
		calls++
		if pc.Surface() != s {
			t.Error("overlay got a context for another surface")
		}
		return pc.FillRect(image.Rect(0, 0, 1, 1), gg.Red)
	}))

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("overlay calls = %d, want 1", calls)
	}
	if got := s.Snapshot().RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("overlay pixel = %v, want red", got)
	}

	boom := errors.New("boom")
	failing := NewLoop(r, WithOverlay(func(*PaintContext) error { return boom }))
	if err := failing.PaintFrame(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want overlay error", err)
	}
	if failing.Failures() != 1 {
		t.Errorf("Failures = %d, want 1", failing.Failures())
	}
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		policy ResolvePolicy
		want   int32
	}{
		{ResolveEachFrame, 3},
		{ResolveOnce, 1},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			r := NewRegistry()
			r.Add(DefaultSurfaceID, 4, 4)
			p := &countingProvider{Provider: r}
			l := NewLoop(p, WithResolvePolicy(tt.policy))

			for i := 0; i < 3; i++ {
				if err := l.PaintFrame(); err != nil {
					t.Fatal(err)
				}
			}
			if got := p.calls.Load(); got != tt.want {
				t.Errorf("Acquire calls = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveOnceReacquiresReplacedSurface(t *testing.T) {
	r := NewRegistry()
	r.Add(DefaultSurfaceID, 4, 4)
	p := &countingProvider{Provider: r}
	l := NewLoop(p, WithResolvePolicy(ResolveOnce))

	if err := l.PaintFrame(); err != nil {
		t.Fatal(err)
	}
	replacement, _ := r.Add(DefaultSurfaceID, 6, 6)
	if err := l.PaintFrame(); err != nil {
		t.Fatalf("PaintFrame after replace: %v", err)
	}

	if got := p.calls.Load(); got != 2 {
		t.Errorf("Acquire calls = %d, want 2", got)
	}
	if got := replacement.Snapshot().RGBAAt(0, 0); got != (color.RGBA{0x48, 0x3d, 0x8b, 0xff}) {
		t.Errorf("replacement not painted: %v", got)
	}
}

func TestLoopStartPaintsImmediately(t *testing.T) {
	r := NewRegistry()
	r.Add(DefaultSurfaceID, 4, 4)
	ticks := make(chan time.Time)
	l := NewLoop(r, withTicks(ticks))

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	if l.Frames() != 1 {
		t.Errorf("Frames after Start = %d, want 1", l.Frames())
	}
}

func TestLoopTicks(t *testing.T) {
	r := NewRegistry()
	r.Add(DefaultSurfaceID, 4, 4)
	ticks := make(chan time.Time)
	l := NewLoop(r, withTicks(ticks))

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		ticks <- time.Now()
	}
	l.Stop()

	if l.Frames() != 11 {
		t.Errorf("Frames = %d, want 11", l.Frames())
	}
}

func TestLoopSurvivesFailedFrames(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ticks := make(chan time.Time)
	l := NewLoop(NewRegistry(), withTicks(ticks), WithLogger(zap.New(core)))

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ticks <- time.Now()
	ticks <- time.Now()
	l.Stop()

	if l.Failures() != 3 {
		t.Errorf("Failures = %d, want 3", l.Failures())
	}
	entries := logs.FilterMessage("paint frame").All()
	if len(entries) != 3 {
		t.Fatalf("logged %d failed frames, want 3", len(entries))
	}
	if got := entries[0].ContextMap()["surface"]; got != DefaultSurfaceID {
		t.Errorf("surface field = %v, want %s", got, DefaultSurfaceID)
	}
}

func TestLoopStartTwice(t *testing.T) {
	r := NewRegistry()
	r.Add(DefaultSurfaceID, 1, 1)
	l := NewLoop(r, withTicks(make(chan time.Time)))

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	if err := l.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestLoopStop(t *testing.T) {
	l := NewLoop(NewRegistry(), withTicks(make(chan time.Time)))
	l.Stop() // before Start

	if l.Done() != nil {
		t.Error("Done should be nil before Start")
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	l.Stop()
	l.Stop()

	select {
	case <-l.Done():
	default:
		t.Error("Done not closed after Stop")
	}
}

func TestLoopContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(NewRegistry(), withTicks(make(chan time.Time)))
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}

	cancel()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancel")
	}
}

func TestLoopRealTimer(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	r := NewRegistry()
	r.Add(DefaultSurfaceID, 16, 16)
	l := NewLoop(r, WithPeriod(10*time.Millisecond))

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	l.Stop()

	// About ten ticks plus the first frame. The bound is loose on purpose:
	// timer and scheduler jitter on a loaded machine moves the count by a few
	// frames either way. TestLoopTicks checks the exact count with a fake ticker.
	if n := l.Frames(); n < 5 || n > 13 {
		t.Errorf("Frames = %d, want about 11", n)
	}
}

func TestOptionsDefaults(t *testing.T) {
	l := NewLoop(NewRegistry(), WithPeriod(0), WithPeriod(-time.Second), WithLogger(nil))

	if l.Period() != DefaultPeriod {
		t.Errorf("Period = %v, want %v", l.Period(), DefaultPeriod)
	}
	if l.opts.surfaceID != "gameCanvas" {
		t.Errorf("surface = %q, want gameCanvas", l.opts.surfaceID)
	}
	if l.opts.logger == nil {
		t.Error("logger should never be nil")
	}
	if l.opts.resolve != ResolveEachFrame {
		t.Errorf("resolve = %v, want frame", l.opts.resolve)
	}
}
