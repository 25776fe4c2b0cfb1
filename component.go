package canopy

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// component reconciles one node's declared properties into derived
// resources. Exactly one component exists per non-frame node; it owns every
// resource slot for that node and releases all of them on dispose.
type component interface {
	// update re-derives resources after a wholesale property replacement.
	update(props Props)
	// hit tests the pointer at world (x, y). dist orders competing hits by
	// camera distance; instance identifies the hovered sub-element for
	// instanced geometry, -1 otherwise.
	hit(x, y float64, cam CameraState) (dist float64, instance int, ok bool)
	// highlightTarget returns the material carrying the hover highlight,
	// or nil.
	highlightTarget() *Material
	// dispose releases every live resource slot, in any order.
	dispose()
}

// buildComponent creates the component for a node's kind. Frames have none.
func buildComponent(v *Viewer, n *Node) component {
	switch n.Kind {
	case KindBox:
		return &boxComponent{node: n, material: newSlot(v.resources), shadow: newSlot(v.resources)}
	case KindGrid:
		return &gridComponent{node: n, material: newSlot(v.resources), shadow: newSlot(v.resources)}
	case KindImage:
		return &imageComponent{node: n, material: newSlot(v.resources), texture: newTextureSlot(v.loader, v.resources)}
	case KindPointCloud:
		return &pointCloudComponent{node: n, geometry: newSlot(v.resources), material: newSlot(v.resources)}
	case KindMesh:
		return &meshComponent{node: n, geometry: newSlot(v.resources), material: newSlot(v.resources), shadow: newSlot(v.resources)}
	default:
		return nil
	}
}

// --- Derivation signatures ---

// Signatures are comparable structs built from exactly the property subset
// that influences one resource. Fields that do not affect the resource
// (transforms, fade distances) stay out so they never force a rebuild.

type materialSig struct {
	color     Color
	opacity   float64
	wireframe bool
	side      Side
}

type shadowSig struct {
	opacity float64
}

type gridSig struct {
	cell    Color
	section Color
	w, h    float64
}

type imageSig struct {
	opacity float64
	side    Side
}

type pointsSig struct {
	digest uint64
	size   float64
}

type pointMatSig struct {
	color Color
	size  float64
}

type meshSig struct {
	digest uint64
}

// digestVec3s hashes point/vertex content so slice-valued properties get a
// comparable signature.
func digestVec3s(h *fnvHasher, vs []Vec3) {
	for _, v := range vs {
		h.float64(v.X)
		h.float64(v.Y)
		h.float64(v.Z)
	}
}

type fnvHasher struct {
	h   hash.Hash64
	buf [8]byte
}

func newFnvHasher() *fnvHasher {
	return &fnvHasher{h: fnv.New64a()}
}

func (f *fnvHasher) float64(v float64) {
	binary.LittleEndian.PutUint64(f.buf[:], math.Float64bits(v))
	_, _ = f.h.Write(f.buf[:])
}

func (f *fnvHasher) uint16(v uint16) {
	binary.LittleEndian.PutUint16(f.buf[:2], v)
	_, _ = f.h.Write(f.buf[:2])
}

func (f *fnvHasher) sum() uint64 {
	return f.h.Sum64()
}

// --- Shadow and grid materials ---

// ShadowMaterial is the translucent material for a shadow-catcher plane
// under a mesh. Created only when the declared shadow opacity is non-zero.
type ShadowMaterial struct {
	Opacity  float64
	disposed bool
}

// Dispose releases the material. Repeat calls are no-ops.
func (m *ShadowMaterial) Dispose() {
	if m.disposed {
		debugCheckDoubleDispose("shadow material", "")
		return
	}
	m.disposed = true
}

// IsDisposed returns true if this material has been disposed.
func (m *ShadowMaterial) IsDisposed() bool {
	return m.disposed
}

// GridMaterial renders the cell and section lines of a ground grid. Fade is
// a per-frame uniform driven by camera distance, not a derivation input.
type GridMaterial struct {
	CellColor    Color
	SectionColor Color
	Width        float64
	Height       float64
	Fade         float64
	disposed     bool
}

// Dispose releases the material. Repeat calls are no-ops.
func (m *GridMaterial) Dispose() {
	if m.disposed {
		debugCheckDoubleDispose("grid material", "")
		return
	}
	m.disposed = true
}

// IsDisposed returns true if this material has been disposed.
func (m *GridMaterial) IsDisposed() bool {
	return m.disposed
}

// --- Box ---

type boxComponent struct {
	node     *Node
	props    BoxProps
	material *Slot
	shadow   *Slot
}

func (c *boxComponent) update(props Props) {
	bp := props.(BoxProps)
	c.props = bp
	c.material.Derive(materialSig{bp.Color, bp.Opacity, bp.Wireframe, bp.Side}, func() Disposable {
		return &Material{Color: bp.Color, Opacity: bp.Opacity, Wireframe: bp.Wireframe, Side: bp.Side}
	})
	c.shadow.Derive(shadowSig{bp.ReceiveShadow}, func() Disposable {
		if bp.ReceiveShadow == 0 {
			return nil
		}
		return &ShadowMaterial{Opacity: bp.ReceiveShadow}
	})
}

func (c *boxComponent) geometry() *Geometry {
	// Boxes scale the shared unit cube; no per-node geometry exists.
	return UnitCube
}

func (c *boxComponent) hit(x, y float64, cam CameraState) (float64, int, bool) {
	p := c.props
	if math.Abs(x-p.Position.X) > p.Dimensions.X/2 || math.Abs(y-p.Position.Y) > p.Dimensions.Y/2 {
		return 0, -1, false
	}
	return distance(cam.Position, p.Position), -1, true
}

func (c *boxComponent) highlightTarget() *Material {
	mat, _ := c.material.Resource().(*Material)
	return mat
}

func (c *boxComponent) dispose() {
	c.material.Release()
	c.shadow.Release()
}

// --- Grid ---

type gridComponent struct {
	node     *Node
	props    GridProps
	material *Slot
	shadow   *Slot
}

func (c *gridComponent) update(props Props) {
	gp := props.(GridProps)
	c.props = gp
	c.material.Derive(gridSig{gp.CellColor, gp.SectionColor, gp.Width, gp.Height}, func() Disposable {
		return &GridMaterial{CellColor: gp.CellColor, SectionColor: gp.SectionColor, Width: gp.Width, Height: gp.Height}
	})
	c.shadow.Derive(shadowSig{gp.ShadowOpacity}, func() Disposable {
		if gp.ShadowOpacity == 0 {
			return nil
		}
		return &ShadowMaterial{Opacity: gp.ShadowOpacity}
	})
}

func (c *gridComponent) geometry() *Geometry {
	return UnitPlane
}

// FrameTick writes the camera-relative fade uniform. A zero FadeDistance
// disables fading entirely.
func (c *gridComponent) FrameTick(cam CameraState) {
	mat, _ := c.material.Resource().(*GridMaterial)
	if mat == nil {
		return
	}
	if c.props.FadeDistance <= 0 {
		mat.Fade = 1
		return
	}
	d := distance(cam.Position, c.props.Position)
	mat.Fade = clamp01(1 - d/c.props.FadeDistance)
}

func (c *gridComponent) hit(x, y float64, cam CameraState) (float64, int, bool) {
	p := c.props
	if math.Abs(x-p.Position.X) > p.Width/2 || math.Abs(y-p.Position.Y) > p.Height/2 {
		return 0, -1, false
	}
	return distance(cam.Position, p.Position), -1, true
}

func (c *gridComponent) highlightTarget() *Material {
	return nil
}

func (c *gridComponent) dispose() {
	c.material.Release()
	c.shadow.Release()
}

// --- Image ---

type imageComponent struct {
	node       *Node
	props      ImageProps
	material   *Slot
	texture    *TextureSlot
	dataDigest uint64
	hasData    bool
}

func (c *imageComponent) update(props Props) {
	ip := props.(ImageProps)
	c.props = ip
	c.material.Derive(imageSig{ip.Opacity, ip.Side}, func() Disposable {
		return &Material{Color: ColorWhite, Opacity: ip.Opacity, Side: ip.Side}
	})

	digest := digestBytes(ip.Data)
	if !c.hasData || digest != c.dataDigest {
		c.hasData = true
		c.dataDigest = digest
		c.texture.Load(ip.Data)
	}
}

func (c *imageComponent) geometry() *Geometry {
	return UnitPlane
}

// FrameTick attaches the most recently installed texture to the material.
// Until the first async decode completes the material renders untextured.
func (c *imageComponent) FrameTick(cam CameraState) {
	mat, _ := c.material.Resource().(*Material)
	if mat != nil {
		mat.texture = c.texture.Texture()
	}
}

func (c *imageComponent) hit(x, y float64, cam CameraState) (float64, int, bool) {
	p := c.props
	if math.Abs(x-p.Position.X) > p.RenderWidth/2 || math.Abs(y-p.Position.Y) > p.RenderHeight/2 {
		return 0, -1, false
	}
	return distance(cam.Position, p.Position), -1, true
}

func (c *imageComponent) highlightTarget() *Material {
	mat, _ := c.material.Resource().(*Material)
	return mat
}

func (c *imageComponent) dispose() {
	c.material.Release()
	c.texture.Release()
}

// Texture returns the installed texture, or nil while loading.
func (c *imageComponent) Texture() *Texture {
	return c.texture.Texture()
}

func digestBytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// --- Point cloud ---

type pointCloudComponent struct {
	node     *Node
	props    PointCloudProps
	geometry *Slot
	material *Slot
}

func (c *pointCloudComponent) update(props Props) {
	pp := props.(PointCloudProps)
	c.props = pp

	h := newFnvHasher()
	digestVec3s(h, pp.Points)
	for _, col := range pp.Colors {
		h.float64(col.R)
		h.float64(col.G)
		h.float64(col.B)
		h.float64(col.A)
	}
	c.geometry.Derive(pointsSig{h.sum(), pp.PointSize}, func() Disposable {
		return NewGeometry(c.node.Path, pp.Points, nil)
	})
	c.material.Derive(pointMatSig{pp.PointColor, pp.PointSize}, func() Disposable {
		return &Material{Color: pp.PointColor, Opacity: 1}
	})
}

// hit finds the nearest point whose XY footprint contains the pointer and
// reports its index as the hovered instance.
func (c *pointCloudComponent) hit(x, y float64, cam CameraState) (float64, int, bool) {
	p := c.props
	r := p.PointSize / 2
	if r <= 0 {
		return 0, -1, false
	}
	bestDist := 0.0
	best := -1
	for i, pt := range p.Points {
		wx := p.Position.X + pt.X
		wy := p.Position.Y + pt.Y
		dx, dy := x-wx, y-wy
		if dx*dx+dy*dy > r*r {
			continue
		}
		world := Vec3{wx, wy, p.Position.Z + pt.Z}
		d := distance(cam.Position, world)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 {
		return 0, -1, false
	}
	return bestDist, best, true
}

func (c *pointCloudComponent) highlightTarget() *Material {
	mat, _ := c.material.Resource().(*Material)
	return mat
}

func (c *pointCloudComponent) dispose() {
	c.geometry.Release()
	c.material.Release()
}

// --- Mesh ---

type meshComponent struct {
	node     *Node
	props    MeshProps
	geometry *Slot
	material *Slot
	shadow   *Slot

	// local-space AABB cached per geometry revision for hit testing
	minX, minY, maxX, maxY float64
}

func (c *meshComponent) update(props Props) {
	mp := props.(MeshProps)
	c.props = mp

	h := newFnvHasher()
	digestVec3s(h, mp.Vertices)
	for _, f := range mp.Faces {
		h.uint16(f)
	}
	prev := c.geometry.sig
	sig := meshSig{h.sum()}
	c.geometry.Derive(sig, func() Disposable {
		return NewGeometry(c.node.Path, mp.Vertices, mp.Faces)
	})
	if prev != sig {
		c.recomputeBounds(mp.Vertices)
	}
	c.material.Derive(materialSig{mp.Color, mp.Opacity, mp.Wireframe, mp.Side}, func() Disposable {
		return &Material{Color: mp.Color, Opacity: mp.Opacity, Wireframe: mp.Wireframe, Side: mp.Side}
	})
	c.shadow.Derive(shadowSig{mp.ReceiveShadow}, func() Disposable {
		if mp.ReceiveShadow == 0 {
			return nil
		}
		return &ShadowMaterial{Opacity: mp.ReceiveShadow}
	})
}

func (c *meshComponent) recomputeBounds(verts []Vec3) {
	if len(verts) == 0 {
		c.minX, c.minY, c.maxX, c.maxY = 0, 0, 0, 0
		return
	}
	c.minX, c.maxX = verts[0].X, verts[0].X
	c.minY, c.maxY = verts[0].Y, verts[0].Y
	for _, v := range verts[1:] {
		c.minX = math.Min(c.minX, v.X)
		c.maxX = math.Max(c.maxX, v.X)
		c.minY = math.Min(c.minY, v.Y)
		c.maxY = math.Max(c.maxY, v.Y)
	}
}

func (c *meshComponent) hit(x, y float64, cam CameraState) (float64, int, bool) {
	p := c.props
	lx, ly := x-p.Position.X, y-p.Position.Y
	if lx < c.minX || lx > c.maxX || ly < c.minY || ly > c.maxY {
		return 0, -1, false
	}
	return distance(cam.Position, p.Position), -1, true
}

func (c *meshComponent) highlightTarget() *Material {
	mat, _ := c.material.Resource().(*Material)
	return mat
}

func (c *meshComponent) dispose() {
	c.geometry.Release()
	c.material.Release()
	c.shadow.Release()
}

// --- Helpers ---

func distance(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
