package canopy

// HoverState tracks how many clickable nodes are currently hovered in one
// viewer and derives the cursor feedback from that count.
//
// The counter is the only state mutated from multiple call sites (per-node
// transitions), so every mutation funnels through setHovered: the invariant
// "count == number of nodes with the hover flag set" stays auditable in one
// place. The data model keeps independent per-node flags so the invariant is
// a sum, not a boolean; single-pointer input hovers at most one node.
type HoverState struct {
	count int
	mode  CursorMode
	sink  CursorSink

	// onTransition fires after a node's hover flag flips. The viewer uses
	// it to start highlight fades.
	onTransition func(n *Node, hovered bool)
}

func newHoverState(sink CursorSink) *HoverState {
	if sink == nil {
		sink = ebitenCursorSink{}
	}
	return &HoverState{sink: sink}
}

// Count returns the number of currently hovered nodes. Never negative.
func (h *HoverState) Count() int {
	return h.count
}

// Mode returns the cursor mode derived from the hover count.
func (h *HoverState) Mode() CursorMode {
	return h.mode
}

// setHovered is the single accumulation path for the hover counter.
// Idempotent per node: flipping to the current state only refreshes the
// hovered instance index.
func (h *HoverState) setHovered(n *Node, hovered bool, instance int) {
	if n.hovered == hovered {
		if hovered {
			n.hoverInstance = instance
		}
		return
	}
	n.hovered = hovered
	if hovered {
		n.hoverInstance = instance
		h.count++
	} else {
		n.hoverInstance = -1
		if h.count == 0 {
			// Would go negative: a transition was lost somewhere. Floor at
			// zero so one bug cannot wedge the cursor forever.
			debugCheckHoverUnderflow(n.Path)
			debugWarn("hover count underflow clearing %q", n.Path)
		} else {
			h.count--
		}
	}
	h.refreshCursor()
	if h.onTransition != nil {
		h.onTransition(n, hovered)
	}
}

// refreshCursor pushes the derived cursor mode to the sink, exactly once per
// zero crossing of the count rather than once per node transition.
func (h *HoverState) refreshCursor() {
	mode := CursorDefault
	if h.count > 0 {
		mode = CursorPointer
	}
	if mode != h.mode {
		h.mode = mode
		h.sink.SetCursorMode(mode)
	}
}

// --- Synthetic pointer input ---

// syntheticPointerEvent is one injected pointer event in world coordinates.
type syntheticPointerEvent struct {
	x, y  float64
	click bool
}

// InjectPointerMove queues a pointer move to world coordinates (x, y). The
// event is consumed on the next frame tick.
func (v *Viewer) InjectPointerMove(x, y float64) {
	v.injectQueue = append(v.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectClick queues a pointer move to (x, y) followed by a click on the
// node hovered there. Consumed on the next frame tick.
func (v *Viewer) InjectClick(x, y float64) {
	v.injectQueue = append(v.injectQueue, syntheticPointerEvent{x: x, y: y, click: true})
}

// --- Per-tick polling ---

// pollInteraction runs the interaction pass for one frame tick: first the
// attribute-driven invalidation sweep, then the pointer hit test.
func (v *Viewer) pollInteraction() {
	v.sweepHovered()

	click := false
	if len(v.injectQueue) > 0 {
		evt := v.injectQueue[0]
		copy(v.injectQueue, v.injectQueue[1:])
		v.injectQueue = v.injectQueue[:len(v.injectQueue)-1]
		v.pointerX = evt.x
		v.pointerY = evt.y
		v.pointerValid = true
		click = evt.click
	}
	if !v.pointerValid {
		return
	}

	target, instance := v.hitTest(v.pointerX, v.pointerY)

	// Clear stale hovers, then set the winner. Order keeps the count
	// correct for any interleaving.
	v.tree.Walk(func(n *Node) bool {
		if n.hovered && n != target {
			v.hover.setHovered(n, false, -1)
		}
		return true
	})
	if target != nil {
		v.hover.setHovered(target, true, instance)
	}

	if click && target != nil && target.OnClick != nil {
		target.OnClick(ClickEvent{
			Path:     target.Path,
			Instance: instance,
			X:        v.pointerX,
			Y:        v.pointerY,
		})
	}
}

// sweepHovered force-transitions hovered nodes whose effective visibility or
// clickability went false since the last tick. Hidden nodes are never
// visited by the hit-test path again, so without this tick-sampled check the
// count would never decrement. Visibility and clickability are independent
// conditions; either alone clears the hover.
func (v *Viewer) sweepHovered() {
	v.tree.Walk(func(n *Node) bool {
		if n.hovered && (!n.Clickable || !effectiveVisibility(n)) {
			v.hover.setHovered(n, false, -1)
		}
		// Descend even through hidden subtrees: their hovered members are
		// exactly the ones that need clearing.
		return true
	})
}

// hitTest finds the nearest clickable, effectively-visible node under the
// pointer at world (x, y). Distance is measured from the viewer's camera;
// ties break toward earlier insertion order for deterministic results.
func (v *Viewer) hitTest(x, y float64) (*Node, int) {
	var best *Node
	bestInstance := -1
	bestDist := 0.0

	v.tree.Walk(func(n *Node) bool {
		if !n.Visible {
			return false // effective visibility: whole subtree is out
		}
		if !n.Clickable || n.component == nil {
			return true
		}
		dist, instance, ok := n.component.hit(x, y, v.camera)
		if ok && (best == nil || dist < bestDist) {
			best = n
			bestInstance = instance
			bestDist = dist
		}
		return true
	})
	return best, bestInstance
}
