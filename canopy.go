package canopy

import "github.com/hajimehoshi/ebiten/v2"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material color (no tint).
var ColorWhite = Color{1, 1, 1, 1}

// Vec3 is a 3D vector used for positions, dimensions, and point data.
type Vec3 struct {
	X, Y, Z float64
}

// NodeKind distinguishes reconciliation behavior for a Node.
type NodeKind uint8

const (
	KindFrame      NodeKind = iota // grouping node with no derived resources
	KindBox                        // scaled shared unit cube with a standard material
	KindGrid                       // ground plane with camera-relative fade
	KindImage                      // textured plane, texture decoded asynchronously
	KindPointCloud                 // instanced points, geometry keyed by content digest
	KindMesh                       // arbitrary triangle mesh
)

// CursorMode is the pointer feedback derived from the hover count.
type CursorMode uint8

const (
	CursorDefault CursorMode = iota // no clickable node under the pointer
	CursorPointer                   // at least one clickable node is hovered
)

// Side selects which triangle faces a material renders.
type Side uint8

const (
	SideFront  Side = iota // cull back faces (default)
	SideBack               // cull front faces
	SideDouble             // no culling
)

// Disposable is any derived rendering resource the engine must release
// exactly once. The rendering backend implements the actual teardown.
type Disposable interface {
	Dispose()
}

// CameraState is the camera pose sampled once per frame tick. It drives
// nearest-hit ordering and camera-relative fade uniforms.
type CameraState struct {
	Position Vec3
}

// FrameTickObserver receives the per-frame tick after scene updates are
// applied but before interaction polling. Components implement this to
// write per-frame uniforms (e.g. grid fade distances).
type FrameTickObserver interface {
	FrameTick(cam CameraState)
}

// CursorSink receives cursor mode changes. The default sink drives
// ebiten.SetCursorShape; tests substitute a recording sink.
type CursorSink interface {
	SetCursorMode(mode CursorMode)
}

// ebitenCursorSink maps CursorMode onto the OS cursor via ebiten.
type ebitenCursorSink struct{}

func (ebitenCursorSink) SetCursorMode(mode CursorMode) {
	if mode == CursorPointer {
		ebiten.SetCursorShape(ebiten.CursorShapePointer)
	} else {
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
}

// ClickEvent carries click data to a node's OnClick callback.
type ClickEvent struct {
	Path     string
	Instance int // hovered sub-element for instanced geometry, -1 otherwise
	X, Y     float64
}

// --- Shared primitives ---

// Shared read-only primitives are created once per process and never
// released until teardown. Box nodes scale the unit cube rather than
// building per-node geometry, so these carry no derivation dependency and
// their Dispose is a no-op.

// UnitCube is the shared 1x1x1 cube geometry reused by all box nodes.
var UnitCube *Geometry

// UnitPlane is the shared 1x1 plane geometry reused by grid and image nodes.
var UnitPlane *Geometry

// WhitePixel is a 1x1 white texture used as the default material map.
var WhitePixel *ebiten.Image

func init() {
	UnitCube = newSharedGeometry("unit-cube", unitCubeVertices(), unitCubeIndices())
	UnitPlane = newSharedGeometry("unit-plane",
		[]Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[]uint16{0, 1, 2, 0, 2, 3})
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(rgba{255, 255, 255, 255})
}

func unitCubeVertices() []Vec3 {
	verts := make([]Vec3, 0, 8)
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				verts = append(verts, Vec3{float64(x) - 0.5, float64(y) - 0.5, float64(z) - 0.5})
			}
		}
	}
	return verts
}

func unitCubeIndices() []uint16 {
	return []uint16{
		0, 1, 3, 0, 3, 2, // -z
		4, 6, 7, 4, 7, 5, // +z
		0, 4, 5, 0, 5, 1, // -y
		2, 3, 7, 2, 7, 6, // +y
		0, 2, 6, 0, 6, 4, // -x
		1, 5, 7, 1, 7, 3, // +x
	}
}

// rgba implements color.Color for image fills.
type rgba struct {
	R, G, B, A uint8
}

func (c rgba) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
