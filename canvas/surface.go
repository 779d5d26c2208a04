package canvas

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/gogpu/gg/surface"
)

var (
	// ErrSurfaceNotFound is returned when no surface has the requested id.
	ErrSurfaceNotFound = errors.New("canvas: surface not found")
	// ErrSurfaceClosed is returned when painting to a surface that was removed.
	ErrSurfaceClosed = errors.New("canvas: surface closed")
	// ErrInvalidDimensions is returned for negative surface sizes.
	ErrInvalidDimensions = errors.New("canvas: invalid surface dimensions")
	// ErrSizeMismatch is returned when a frame doesn't match the surface size.
	ErrSizeMismatch = errors.New("canvas: frame size mismatch")
)

// Surface is a rectangle of pixels that can be painted through a PaintContext.
// A zero width or height is allowed; painting such a surface does nothing.
type Surface struct {
	id string

	mu     sync.Mutex
	width  int
	height int
	img    *surface.ImageSurface // nil while empty
	closed bool
}

func newSurface(id string, width, height int) (*Surface, error) {
	s := &Surface{id: id}
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the identifier the surface was registered under.
func (s *Surface) ID() string {
	return s.id
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Size returns width and height together.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the surface dimensions. Existing content is discarded.
func (s *Surface) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	if s.img != nil {
		s.img.Close()
		s.img = nil
	}
	s.width, s.height = width, height
	if width > 0 && height > 0 {
		s.img = surface.NewImageSurface(width, height)
	}
	return nil
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	return s.img.Snapshot()
}

// CopyFrame copies the surface into dst, a w by h frame of RGBA bytes. It
// fails with ErrSizeMismatch unless the surface is w by h and dst holds
// exactly 4*w*h bytes.
func (s *Surface) CopyFrame(dst []byte, w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	if s.width != w || s.height != h || len(dst) != 4*w*h {
		return fmt.Errorf("%w: surface %dx%d, frame %dx%d with %d bytes",
			ErrSizeMismatch, s.width, s.height, w, h, len(dst))
	}
	if s.img != nil {
		copy(dst, s.img.Image().Pix)
	}
	return nil
}

// Close releases the pixels. Painting a closed surface fails with ErrSurfaceClosed.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.img != nil {
		s.img.Close()
		s.img = nil
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Provider resolves surface identifiers to paintable surfaces.
type Provider interface {
	Acquire(id string) (*Surface, *PaintContext, error)
}

// Registry is a Provider holding surfaces by id.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		surfaces: make(map[string]*Surface),
	}
}

// Add creates a surface and registers it under id, replacing and closing any
// surface previously registered there.
func (r *Registry) Add(id string, width, height int) (*Surface, error) {
	s, err := newSurface(id, width, height)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	old := r.surfaces[id]
	r.surfaces[id] = s
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return s, nil
}

// Remove unregisters and closes the surface under id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s := r.surfaces[id]
	delete(r.surfaces, id)
	r.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.surfaces))
	for id := range r.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Acquire returns the surface registered under id and a context for painting it.
func (r *Registry) Acquire(id string) (*Surface, *PaintContext, error) {
	r.mu.RLock()
	s, ok := r.surfaces[id]
	r.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrSurfaceNotFound, id)
	}
	return s, &PaintContext{surface: s}, nil
}
