package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// highlightFadeDuration is how long the hover highlight takes to fade in or
// out, in seconds.
const highlightFadeDuration float32 = 0.15

// highlightFade animates a node's material highlight intensity toward a
// target value. One fade is live per node at a time; starting a new fade
// replaces the old one from the current intensity. If the node is removed or
// its material superseded mid-fade, the fade stops on its own.
type highlightFade struct {
	node  *Node
	tween *gween.Tween
	done  bool
}

// update advances the fade by dt seconds and writes the intensity to the
// node's current highlight material.
func (f *highlightFade) update(dt float32) {
	if f.done {
		return
	}
	if f.node.removed {
		f.done = true
		return
	}
	mat := highlightMaterial(f.node)
	if mat == nil {
		f.done = true
		return
	}
	val, finished := f.tween.Update(dt)
	mat.Highlight = float64(clamp01(float64(val)))
	f.done = finished
}

// highlightMaterial returns the material that carries a node's hover
// highlight, or nil when the node has none (frames, pending image loads).
func highlightMaterial(n *Node) *Material {
	if n.component == nil {
		return nil
	}
	return n.component.highlightTarget()
}

// startHighlight begins a fade toward hovered (1) or idle (0) intensity.
func (v *Viewer) startHighlight(n *Node, hovered bool) {
	mat := highlightMaterial(n)
	if mat == nil {
		return
	}
	target := 0.0
	if hovered {
		target = 1.0
	}
	fade := &highlightFade{
		node:  n,
		tween: gween.New(float32(mat.Highlight), float32(target), highlightFadeDuration, ease.OutQuad),
	}
	for i, f := range v.fades {
		if f.node == n {
			v.fades[i] = fade
			return
		}
	}
	v.fades = append(v.fades, fade)
}

// updateHighlights advances all live fades and compacts finished ones.
func (v *Viewer) updateHighlights(dt float32) {
	out := v.fades[:0]
	for _, f := range v.fades {
		f.update(dt)
		if !f.done {
			out = append(out, f)
		}
	}
	for i := len(out); i < len(v.fades); i++ {
		v.fades[i] = nil
	}
	v.fades = out
}
