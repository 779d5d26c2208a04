package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hajimehoshi/ebiten"
	"go.uber.org/zap"

	"github.com/erdincmutlu/gamecanvas/canvas"
	"github.com/erdincmutlu/gamecanvas/config"
	"github.com/erdincmutlu/gamecanvas/logger"
)

// errQuit ends ebiten.Run after a shutdown signal.
var errQuit = errors.New("quit")

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg.Verbose)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, l)

	registry := canvas.NewRegistry()
	if _, err := registry.Add(cfg.SurfaceID, cfg.Width, cfg.Height); err != nil {
		l.Fatal("add surface", zap.String("surface", cfg.SurfaceID), zap.Error(err))
	}
	loop := canvas.NewLoop(registry, cfg.LoopOptions(l)...)
	defer loop.Stop()

	h := &host{
		ctx:       ctx,
		provider:  registry,
		surfaceID: cfg.SurfaceID,
		loop:      loop,
	}
	err = ebiten.Run(h.update, cfg.Width, cfg.Height, cfg.Scale, "Game - "+cfg.SurfaceID)
	if err != nil && !errors.Is(err, errQuit) {
		l.Error("run window", zap.Error(err))
	}
}

// host shows the painted surface in the ebiten window.
type host struct {
	ctx       context.Context
	provider  canvas.Provider
	surfaceID string
	loop      *canvas.Loop

	ready sync.Once
	pix   []byte
}

// update is called by ebiten once per tick. The first call is the window's
// ready signal and starts the render loop.
func (h *host) update(screen *ebiten.Image) error {
	h.ready.Do(func() {
		if err := h.loop.Start(h.ctx); err != nil {
			logger.L(h.ctx).Error("start render loop", zap.Error(err))
		}
	})

	select {
	case <-h.ctx.Done():
		return errQuit
	default:
	}

	if ebiten.IsDrawingSkipped() {
		return nil
	}
	return h.draw(screen)
}

// draw copies the latest frame onto the screen.
func (h *host) draw(screen *ebiten.Image) error {
	s, _, err := h.provider.Acquire(h.surfaceID)
	if err != nil {
		logger.L(h.ctx).Debug("no surface to show", zap.Error(err))
		return nil
	}

	w, ht := screen.Size()
	if len(h.pix) != 4*w*ht {
		h.pix = make([]byte, 4*w*ht)
	}
	if err := s.CopyFrame(h.pix, w, ht); err != nil {
		logger.L(h.ctx).Debug("frame not shown", zap.String("surface", h.surfaceID), zap.Error(err))
		return nil
	}
	return screen.ReplacePixels(h.pix)
}
