package canopy

import (
	"fmt"
	"os"
)

// globalDebug mirrors the most recently set Viewer debug flag so that node
// and resource operations (which lack a Viewer pointer) can check it cheaply.
// Only valid with a single Viewer; multiple Viewers with differing debug
// modes will reflect whichever called SetDebugMode last.
var globalDebug bool

// debugWarn prints a warning to stderr in debug mode.
func debugWarn(format string, args ...any) {
	if !globalDebug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[canopy] warning: "+format+"\n", args...)
}

// debugCheckDoubleDispose panics in debug mode when a resource is disposed
// twice. In release mode the second dispose is an idempotent no-op so a
// single bookkeeping bug cannot take down the whole viewer.
func debugCheckDoubleDispose(kind, name string) {
	if !globalDebug {
		return
	}
	if name != "" {
		panic(fmt.Sprintf("canopy debug: double dispose of %s %q", kind, name))
	}
	panic(fmt.Sprintf("canopy debug: double dispose of %s", kind))
}

// debugCheckRemoved panics in debug mode when a removed node is used in a
// tree or reconciliation operation.
func debugCheckRemoved(n *Node, op string) {
	if n.removed {
		panic(fmt.Sprintf("canopy debug: %s on removed node %q", op, n.Path))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugWarn("tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Path)
	}
}

// debugCheckHoverUnderflow panics in debug mode when the hover counter would
// go negative. Release mode clamps at zero instead.
func debugCheckHoverUnderflow(path string) {
	if !globalDebug {
		return
	}
	panic(fmt.Sprintf("canopy debug: hover count underflow clearing node %q", path))
}

// debugStats holds per-tick metrics, logged when the viewer is in debug mode.
type debugStats struct {
	nodeCount     int
	liveResources int
	hoveredCount  int
	pendingLoads  int
}

func (v *Viewer) debugLog(stats debugStats) {
	if !v.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[canopy] nodes: %d | live resources: %d | hovered: %d | pending loads: %d\n",
		stats.nodeCount, stats.liveResources, stats.hoveredCount, stats.pendingLoads)
}
