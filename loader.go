package canopy

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Loader schedules resource decoding off the frame tick and delivers
// completions back onto it. Decode work runs on worker goroutines, but a
// completion only takes effect when the viewer drains the queue at the start
// of an Update — a separate turn on the single logical thread, never
// concurrent with a tick.
type Loader struct {
	// run starts a decode. Tests may replace it with a synchronous or
	// manually pumped scheduler.
	run func(func())

	mu          sync.Mutex
	completions []func()

	wg       sync.WaitGroup
	inFlight int
}

// NewLoader creates a loader that decodes on goroutines.
func NewLoader() *Loader {
	return &Loader{run: func(f func()) { go f() }}
}

// post queues a completion for the next drain.
func (l *Loader) post(f func()) {
	l.mu.Lock()
	l.completions = append(l.completions, f)
	l.mu.Unlock()
}

// drain runs every queued completion. Called from Viewer.Update.
func (l *Loader) drain() {
	l.mu.Lock()
	pending := l.completions
	l.completions = nil
	l.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// Wait blocks until all in-flight decodes have posted their completions.
// The completions themselves still run on the next drain. Intended for
// tests and shutdown.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// InFlight returns the number of decodes started and not yet posted.
func (l *Loader) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// --- Texture slot ---

// TextureSlot is a single async-loaded texture slot owned by one component
// call site. Each Load supersedes the previous one: a superseded or
// post-teardown completion disposes the texture it produced instead of
// installing it, so out-of-order completions can neither leak nor
// double-install.
type TextureSlot struct {
	loader *Loader
	rm     *ResourceManager

	// gen is bumped by every Load and by Release. A completion only
	// installs when the generation it captured is still current.
	gen      uint64
	current  *Texture
	released bool
}

// newTextureSlot creates a slot bound to the viewer's loader and manager.
func newTextureSlot(loader *Loader, rm *ResourceManager) *TextureSlot {
	return &TextureSlot{loader: loader, rm: rm}
}

// Load starts decoding data into a texture. The previous pending load, if
// any, is superseded immediately; the previous installed texture is
// replaced when this load completes.
func (s *TextureSlot) Load(data []byte) {
	s.gen++
	s.released = false
	gen := s.gen

	s.loader.mu.Lock()
	s.loader.inFlight++
	s.loader.mu.Unlock()
	s.loader.wg.Add(1)
	s.loader.run(func() {
		defer s.loader.wg.Done()
		tex, err := decodeTexture(data)
		s.loader.mu.Lock()
		s.loader.inFlight--
		s.loader.mu.Unlock()
		s.loader.post(func() {
			if err != nil {
				debugWarn("texture decode failed: %v", err)
				return
			}
			if gen != s.gen || s.released {
				// Stale completion: wasted work, not a leak.
				s.rm.disposeNow(tex)
				return
			}
			old := s.current
			s.current = tex
			s.rm.live++
			if old != nil {
				s.rm.scheduleDispose(old)
			}
		})
	})
}

// Texture returns the currently installed texture, or nil while the first
// load is still pending.
func (s *TextureSlot) Texture() *Texture {
	return s.current
}

// Release invalidates any pending load and queues the installed texture for
// disposal. Idempotent.
func (s *TextureSlot) Release() {
	s.gen++
	s.released = true
	if s.current != nil {
		s.rm.scheduleDispose(s.current)
		s.current = nil
	}
}

// decodeTexture decodes encoded PNG or JPEG bytes into a GPU-backed texture.
func decodeTexture(data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("canopy: decode texture: %w", err)
	}
	b := img.Bounds()
	return &Texture{
		image: ebiten.NewImageFromImage(img),
		w:     b.Dx(),
		h:     b.Dy(),
	}, nil
}
