package canopy

import "github.com/hajimehoshi/ebiten/v2"

// UpdateKind tags an inbound scene update message.
type UpdateKind uint8

const (
	UpdateUpsert       UpdateKind = iota // create or replace a node's property bag
	UpdateRemove                         // remove a node and its descendants
	UpdateSetVisible                     // set a node's own visibility flag
	UpdateSetClickable                   // set a node's clickability flag
)

// SceneUpdate is one inbound message from the scene-authoring side. The wire
// encoding belongs to the transport; updates for a single path arrive in the
// order they were issued, with no ordering guarantee across paths.
type SceneUpdate struct {
	Kind      UpdateKind
	Path      string
	Props     Props // UpdateUpsert only
	Visible   bool  // UpdateSetVisible only
	Clickable bool  // UpdateSetClickable only
}

// ViewerConfig configures a new Viewer. The zero value is usable.
type ViewerConfig struct {
	// Cursor receives cursor mode changes. Nil selects the ebiten cursor.
	Cursor CursorSink
	// Debug enables invariant assertions and stderr stats.
	Debug bool
}

// Viewer is one scene-synchronization session: the node tree, resource
// lifetimes, async loads, interaction state, and environment for a single
// connected view. Construct one per view; viewers share no state, so
// independent viewers in one process cannot interfere.
type Viewer struct {
	tree      *Tree
	resources *ResourceManager
	loader    *Loader
	hover     *HoverState
	env       *Environment

	camera CameraState
	fades  []*highlightFade

	injectQueue  []syntheticPointerEvent
	pointerX     float64
	pointerY     float64
	pointerValid bool

	debug    bool
	disposed bool
}

// NewViewer creates an empty viewer session.
func NewViewer(cfg ViewerConfig) *Viewer {
	v := &Viewer{
		resources: NewResourceManager(),
		loader:    NewLoader(),
		hover:     newHoverState(cfg.Cursor),
		env:       NewEnvironment(),
	}
	v.tree = NewTree(v.finalizeNode)
	v.hover.onTransition = v.startHighlight
	if cfg.Debug {
		v.SetDebugMode(true)
	}
	return v
}

// SetDebugMode enables or disables debug mode. When enabled, double dispose
// and hover underflow panic instead of being clamped, removed-node access
// panics, and per-tick stats are logged to stderr.
func (v *Viewer) SetDebugMode(enabled bool) {
	v.debug = enabled
	globalDebug = enabled
}

// Tree returns the viewer's scene node store.
func (v *Viewer) Tree() *Tree {
	return v.tree
}

// Env returns the viewer's environment store.
func (v *Viewer) Env() *Environment {
	return v.env
}

// Loader returns the viewer's async resource loader.
func (v *Viewer) Loader() *Loader {
	return v.loader
}

// Resources returns the viewer's resource manager.
func (v *Viewer) Resources() *ResourceManager {
	return v.resources
}

// HoverCount returns the number of currently hovered clickable nodes.
func (v *Viewer) HoverCount() int {
	return v.hover.Count()
}

// CursorMode returns the cursor feedback derived from the hover count.
func (v *Viewer) CursorMode() CursorMode {
	return v.hover.Mode()
}

// SetCamera updates the camera pose sampled by the next frame tick.
func (v *Viewer) SetCamera(cam CameraState) {
	v.camera = cam
}

// Camera returns the current camera pose.
func (v *Viewer) Camera() CameraState {
	return v.camera
}

// --- Message application ---

// Apply applies one inbound scene update on its own turn. Derived resources
// superseded during the pass are disposed before Apply returns, so no stale
// resource survives into the next tick.
func (v *Viewer) Apply(u SceneUpdate) {
	switch u.Kind {
	case UpdateUpsert:
		props := u.Props
		if props == nil {
			props = FrameProps{}
		}
		n, fresh := v.tree.Upsert(u.Path, props)
		if fresh {
			if n.component != nil {
				n.component.dispose()
			}
			n.component = buildComponent(v, n)
		}
		if n.component != nil {
			n.component.update(n.Props)
		}
	case UpdateRemove:
		v.tree.Remove(u.Path)
	case UpdateSetVisible:
		v.ensureNode(u.Path).Visible = u.Visible
	case UpdateSetClickable:
		v.ensureNode(u.Path).Clickable = u.Clickable
	}
	v.resources.Flush()
}

// ensureNode returns the node at path, creating a plain frame for unknown
// paths: an attribute update racing ahead of (or trailing behind) its node
// is recovered locally rather than surfaced as a failure.
func (v *Viewer) ensureNode(path string) *Node {
	if n := v.tree.Get(path); n != nil {
		return n
	}
	n, _ := v.tree.Upsert(path, FrameProps{})
	return n
}

// Upsert creates or replaces the node at path.
func (v *Viewer) Upsert(path string, props Props) {
	v.Apply(SceneUpdate{Kind: UpdateUpsert, Path: path, Props: props})
}

// Remove removes the node at path and all its descendants.
func (v *Viewer) Remove(path string) {
	v.Apply(SceneUpdate{Kind: UpdateRemove, Path: path})
}

// SetVisible sets a node's own visibility flag.
func (v *Viewer) SetVisible(path string, visible bool) {
	v.Apply(SceneUpdate{Kind: UpdateSetVisible, Path: path, Visible: visible})
}

// SetClickable sets a node's clickability flag.
func (v *Viewer) SetClickable(path string, clickable bool) {
	v.Apply(SceneUpdate{Kind: UpdateSetClickable, Path: path, Clickable: clickable})
}

// --- Frame tick ---

// Update runs one frame tick: async completions install first, then
// per-frame uniforms and highlight fades, then interaction polling. Scene
// updates applied before this call are therefore fully visible to this
// tick's hover sampling — a visibility change and its hover-clearing
// consequence land in the same tick.
func (v *Viewer) Update() {
	if v.disposed {
		return
	}
	dt := float32(1.0 / float64(ebiten.TPS()))

	v.loader.drain()
	v.resources.Flush()

	v.tree.Walk(func(n *Node) bool {
		if obs, ok := n.component.(FrameTickObserver); ok {
			obs.FrameTick(v.camera)
		}
		return true
	})

	v.updateHighlights(dt)
	v.pollInteraction()
	v.resources.Flush()

	if v.debug {
		v.debugLog(debugStats{
			nodeCount:     v.tree.Len(),
			liveResources: v.resources.LiveCount(),
			hoveredCount:  v.hover.Count(),
			pendingLoads:  v.loader.InFlight(),
		})
	}
}

// --- Teardown ---

// finalizeNode runs for every node leaving the tree: hover is cleared
// through the single accumulation path and every resource slot is released.
func (v *Viewer) finalizeNode(n *Node) {
	if n.hovered {
		v.hover.setHovered(n, false, -1)
	}
	if n.component != nil {
		n.component.dispose()
		n.component = nil
	}
}

// Dispose tears down the session: the whole tree is removed (cascading, so
// every owned resource is released), pending loads are invalidated, and the
// cursor returns to default. The viewer must not be used afterwards.
func (v *Viewer) Dispose() {
	if v.disposed {
		return
	}
	root := v.tree.Root()
	for len(root.children) > 0 {
		v.tree.Remove(root.children[0].Path)
	}
	// Every slot is released now, so any in-flight decode completion is
	// stale. Wait for them and run the queue once more so each disposes
	// the texture it produced.
	v.loader.Wait()
	v.loader.drain()
	v.resources.Flush()
	v.fades = nil
	v.injectQueue = nil
	v.disposed = true
}
