// Package canopy is the client-side engine that keeps a live scene
// synchronized with a stream of declarative updates from a remote authoring
// process, built on [Ebitengine] resources.
//
// Canopy owns the three things that are easy to get wrong in a long-lived
// viewer: the lifetime of derived rendering resources (geometries,
// materials, textures), asynchronous resource loading, and the interaction
// state that drives cursor feedback.
//
// # Sessions
//
// Everything hangs off a [Viewer], one per connected view. There is no
// shared global state; two viewers in one process are fully independent.
//
//	viewer := canopy.NewViewer(canopy.ViewerConfig{})
//	defer viewer.Dispose()
//
// Inbound updates are applied with [Viewer.Apply] (or the [Viewer.Upsert],
// [Viewer.Remove], [Viewer.SetVisible], [Viewer.SetClickable] shorthands),
// and the per-frame tick is driven by calling [Viewer.Update] from the game
// loop:
//
//	viewer.Upsert("/robot/arm", canopy.BoxProps{
//		Dimensions: canopy.Vec3{X: 1, Y: 1, Z: 1},
//		Color:      canopy.Color{R: 1, A: 1},
//		Opacity:    1,
//	})
//
//	func (g *Game) Update() error { g.viewer.Update(); return nil }
//
// # Scene tree
//
// Nodes are identified by '/'-delimited paths. Upserting "/a/b/c" creates
// the missing ancestors as plain frames; removing "/a" cascades to every
// descendant and releases all the resources they own. A node's effective
// visibility is the AND of its own flag and all its ancestors'.
//
// # Resource lifetimes
//
// Each node's component derives its resources from exactly the property
// subset that matters, caches them by signature, and disposes the old
// resource whenever the signature changes, the node is removed, or the
// viewer is torn down. Textures decode asynchronously; a load superseded
// before completion disposes the texture it produced instead of installing
// it.
//
// # Interaction
//
// Once per tick the viewer hit-tests the pointer against clickable,
// effectively-visible nodes and maintains a session-wide hover count; the
// cursor switches between default and pointer exactly when that count
// crosses zero. Hiding or un-clicking a hovered node clears its hover on
// the same tick, without a pointer event.
//
// [Ebitengine]: https://ebitengine.org
package canopy
