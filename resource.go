package canopy

import "github.com/hajimehoshi/ebiten/v2"

// --- Resource types ---

// Geometry is vertex data owned by exactly one node, unless shared.
// Shared geometries (UnitCube, UnitPlane) ignore Dispose entirely.
type Geometry struct {
	Name     string
	Vertices []Vec3
	Indices  []uint16

	shared   bool
	disposed bool
}

// NewGeometry creates a node-owned geometry.
func NewGeometry(name string, vertices []Vec3, indices []uint16) *Geometry {
	return &Geometry{Name: name, Vertices: vertices, Indices: indices}
}

func newSharedGeometry(name string, vertices []Vec3, indices []uint16) *Geometry {
	return &Geometry{Name: name, Vertices: vertices, Indices: indices, shared: true}
}

// Dispose releases the vertex data. No-op for shared geometries and for
// repeat calls.
func (g *Geometry) Dispose() {
	if g.shared {
		return
	}
	if g.disposed {
		debugCheckDoubleDispose("geometry", g.Name)
		return
	}
	g.disposed = true
	g.Vertices = nil
	g.Indices = nil
}

// IsDisposed returns true if this geometry has been disposed.
func (g *Geometry) IsDisposed() bool {
	return g.disposed
}

// Material is the surface description derived from a node's declared
// properties. Highlight is a per-frame animated intensity in [0, 1] and is
// not part of any derivation signature.
type Material struct {
	Color     Color
	Opacity   float64
	Wireframe bool
	Side      Side
	Highlight float64

	texture  *Texture // not owned; lifetime managed by the owning slot
	disposed bool
}

// Dispose releases the material. Repeat calls are no-ops.
func (m *Material) Dispose() {
	if m.disposed {
		debugCheckDoubleDispose("material", "")
		return
	}
	m.disposed = true
	m.texture = nil
}

// IsDisposed returns true if this material has been disposed.
func (m *Material) IsDisposed() bool {
	return m.disposed
}

// Texture returns the texture attached to this material, or nil. Image
// materials receive their texture once the async decode installs it.
func (m *Material) Texture() *Texture {
	return m.texture
}

// Texture wraps a GPU-backed image decoded from node-declared bytes.
type Texture struct {
	image    *ebiten.Image
	w, h     int
	disposed bool
}

// Image returns the underlying *ebiten.Image, or nil after disposal.
func (t *Texture) Image() *ebiten.Image {
	return t.image
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.w }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.h }

// Dispose deallocates the GPU-side image. Repeat calls are no-ops.
func (t *Texture) Dispose() {
	if t.disposed {
		debugCheckDoubleDispose("texture", "")
		return
	}
	t.disposed = true
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
}

// IsDisposed returns true if this texture has been disposed.
func (t *Texture) IsDisposed() bool {
	return t.disposed
}

// --- Resource manager ---

// ResourceManager owns the deferred-disposal queue for one viewer. Superseded
// resources are queued during reconciliation and released in one batch at the
// end of the pass, so no intermediate state ever renders a stale resource and
// no disposal outlives the next signature change for the same slot.
type ResourceManager struct {
	deferred []Disposable
	live     int // live resource count, maintained for debug stats
	disposed int // total disposals, for leak accounting
}

// NewResourceManager creates an empty manager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// scheduleDispose queues a resource for release at the next flush.
// nil resources are ignored.
func (rm *ResourceManager) scheduleDispose(r Disposable) {
	if r == nil {
		return
	}
	rm.deferred = append(rm.deferred, r)
}

// disposeNow releases a resource that never went live (a stale async
// completion) while keeping the disposal tally accurate.
func (rm *ResourceManager) disposeNow(r Disposable) {
	r.Dispose()
	rm.disposed++
}

// Flush releases every queued resource. Called at the end of each update
// application and each frame tick.
func (rm *ResourceManager) Flush() {
	for i, r := range rm.deferred {
		r.Dispose()
		rm.deferred[i] = nil
		rm.live--
		rm.disposed++
	}
	rm.deferred = rm.deferred[:0]
}

// LiveCount returns the number of resources created through slots and not
// yet disposed.
func (rm *ResourceManager) LiveCount() int {
	return rm.live
}

// DisposedCount returns the total number of resources released so far,
// stale async completions included.
func (rm *ResourceManager) DisposedCount() int {
	return rm.disposed
}

// --- Signature slots ---

// Slot is a single resource cache owned by one component call site. At most
// one current resource occupies a slot; replacing it queues the old resource
// on the manager.
type Slot struct {
	rm       *ResourceManager
	sig      any
	resource Disposable
	filled   bool
	released bool
}

// newSlot creates a slot bound to the viewer's resource manager.
func newSlot(rm *ResourceManager) *Slot {
	return &Slot{rm: rm}
}

// Derive returns the cached resource when sig matches the previous call,
// otherwise queues the old resource for disposal and caches factory().
// The factory may return nil to indicate no resource is needed for the
// current signature; a later signature change still releases cleanly.
func (s *Slot) Derive(sig any, factory func() Disposable) Disposable {
	if s.released {
		debugWarn("Derive on released slot")
		s.released = false
	}
	if s.filled && s.sig == sig {
		return s.resource
	}
	if s.filled {
		s.rm.scheduleDispose(s.resource)
	}
	s.sig = sig
	s.resource = factory()
	s.filled = true
	if s.resource != nil {
		s.rm.live++
	}
	return s.resource
}

// Resource returns the current resource without deriving, or nil.
func (s *Slot) Resource() Disposable {
	return s.resource
}

// Release queues the current resource for disposal and empties the slot.
// Idempotent: releasing an empty slot is a no-op.
func (s *Slot) Release() {
	if s.released || !s.filled {
		s.released = true
		return
	}
	s.rm.scheduleDispose(s.resource)
	s.resource = nil
	s.sig = nil
	s.filled = false
	s.released = true
}
