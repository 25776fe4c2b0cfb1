package canopy

// Props is a node's declared property bag. Each revision arrives as a full
// replacement, never a partial patch; the replacement is what triggers
// resource re-derivation.
type Props interface {
	Kind() NodeKind
}

// FrameProps declares a grouping node. Frames own no derived resources and
// are not hit-testable.
type FrameProps struct {
	ShowAxes   bool
	AxesLength float64
}

func (FrameProps) Kind() NodeKind { return KindFrame }

// BoxProps declares a box. Geometry is the shared unit cube scaled by
// Dimensions, so only the material derives from these fields.
type BoxProps struct {
	Position   Vec3
	Dimensions Vec3
	Color      Color
	Opacity    float64
	Wireframe  bool
	Side       Side
	// ReceiveShadow is the shadow plane opacity. Zero means no shadow
	// material is created at all.
	ReceiveShadow float64
}

func (BoxProps) Kind() NodeKind { return KindBox }

// GridProps declares a ground-plane grid.
type GridProps struct {
	Position     Vec3
	Width        float64
	Height       float64
	CellColor    Color
	SectionColor Color
	// FadeDistance is the camera distance at which the grid is fully faded.
	// The fade factor is a per-frame uniform, not a derivation input.
	FadeDistance float64
	// ShadowOpacity behaves like BoxProps.ReceiveShadow.
	ShadowOpacity float64
}

func (GridProps) Kind() NodeKind { return KindGrid }

// ImageProps declares a textured plane. Data holds encoded image bytes
// (PNG or JPEG); decoding happens asynchronously off the frame tick.
type ImageProps struct {
	Position     Vec3
	Data         []byte
	RenderWidth  float64
	RenderHeight float64
	Opacity      float64
	Side         Side
}

func (ImageProps) Kind() NodeKind { return KindImage }

// PointCloudProps declares an instanced point cloud. Colors may be empty
// (all points use PointColor) or match Points in length.
type PointCloudProps struct {
	Position   Vec3
	Points     []Vec3
	Colors     []Color
	PointColor Color
	PointSize  float64
}

func (PointCloudProps) Kind() NodeKind { return KindPointCloud }

// MeshProps declares an arbitrary triangle mesh.
type MeshProps struct {
	Position      Vec3
	Vertices      []Vec3
	Faces         []uint16
	Color         Color
	Opacity       float64
	Wireframe     bool
	Side          Side
	ReceiveShadow float64
}

func (MeshProps) Kind() NodeKind { return KindMesh }

// --- Node ---

// Node is a single entry in the scene tree: a unique '/'-delimited path,
// visibility and clickability flags, the declared property bag, and the
// component that derives rendering resources from it.
type Node struct {
	Path string
	Kind NodeKind

	Parent   *Node
	children []*Node

	// Visible is this node's own flag. Effective visibility is the AND of
	// this flag and all ancestors'; use Tree.EffectiveVisibility.
	Visible   bool
	Clickable bool

	Props Props

	// OnClick fires when a click lands on this node while hovered.
	OnClick func(ClickEvent)

	component component

	// Hover state. Mutated only through HoverState.setHovered so the
	// viewer-wide counter stays in sync with the per-node flags.
	hovered       bool
	hoverInstance int

	removed bool
}

// Children returns the child list in insertion order. The returned slice
// MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// IsRemoved returns true once this node has been removed from the tree.
func (n *Node) IsRemoved() bool {
	return n.removed
}

// Hovered returns this node's hover flag.
func (n *Node) Hovered() bool {
	return n.hovered
}

// HoverInstance returns the hovered sub-element index for instanced
// geometry, or -1 when the whole node is hovered.
func (n *Node) HoverInstance() int {
	if !n.hovered {
		return -1
	}
	return n.hoverInstance
}

// removeChildByPtr removes child from n.children without touching
// child.Parent. Uses copy+nil to avoid retaining a dangling pointer in the
// backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
