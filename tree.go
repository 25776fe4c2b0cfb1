package canopy

import "strings"

// Tree is the path-indexed store of scene nodes: the source of truth that
// resource derivation and interaction polling react to.
//
// Paths are '/'-delimited and normalized to a leading slash, so "a/b" and
// "/a/b" name the same node. Sibling order is insertion order and is
// preserved for deterministic traversal; it carries no other meaning.
type Tree struct {
	root   *Node
	byPath map[string]*Node

	// finalize runs for every node leaving the tree, children before
	// parents, so child resource releases are never starved.
	finalize func(*Node)
}

// NewTree creates an empty tree with an invisible root container.
func NewTree(finalize func(*Node)) *Tree {
	return &Tree{
		root:     &Node{Path: "", Kind: KindFrame, Visible: true},
		byPath:   map[string]*Node{},
		finalize: finalize,
	}
}

// NormalizePath returns path with a leading '/' and no trailing slash.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// parentPath returns the path of a node's parent, or "" for top-level nodes.
func parentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// Root returns the tree's root container node.
func (t *Tree) Root() *Node {
	return t.root
}

// Get returns the node at path, or nil. Accepts paths with or without a
// leading slash.
func (t *Tree) Get(path string) *Node {
	return t.byPath[NormalizePath(path)]
}

// Len returns the number of nodes in the tree, excluding the root.
func (t *Tree) Len() int {
	return len(t.byPath)
}

// Upsert creates or updates the node at path, replacing its property bag
// wholesale. Missing ancestors are auto-created as plain frames. An upsert
// that changes a node's kind keeps the record but reports the change so the
// caller can rebuild derived state.
//
// Returns the node and whether its kind is new (created or kind changed).
func (t *Tree) Upsert(path string, props Props) (n *Node, fresh bool) {
	path = NormalizePath(path)
	n = t.byPath[path]
	if n == nil {
		n = t.create(path, props.Kind())
		fresh = true
	} else if n.Kind != props.Kind() {
		n.Kind = props.Kind()
		fresh = true
	}
	if globalDebug {
		debugCheckRemoved(n, "Upsert")
	}
	n.Props = props
	return n, fresh
}

// create inserts a node at path, auto-creating intermediate frames.
func (t *Tree) create(path string, kind NodeKind) *Node {
	parent := t.root
	if pp := parentPath(path); pp != "" {
		parent = t.byPath[pp]
		if parent == nil {
			parent = t.create(pp, KindFrame)
			parent.Props = FrameProps{}
		}
	}
	n := &Node{
		Path:          path,
		Kind:          kind,
		Parent:        parent,
		Visible:       true,
		hoverInstance: -1,
	}
	parent.children = append(parent.children, n)
	t.byPath[path] = n
	if globalDebug {
		debugCheckTreeDepth(n)
	}
	return n
}

// Remove deletes the node at path and all its descendants. Finalization is
// depth-first with children finalized before their parent. Removing an
// unknown path is a no-op; a trailing update for it will simply re-create
// the node.
//
// Returns true if a node was removed.
func (t *Tree) Remove(path string) bool {
	n := t.byPath[NormalizePath(path)]
	if n == nil {
		return false
	}
	if n.Parent != nil {
		n.Parent.removeChildByPtr(n)
	}
	t.removeSubtree(n)
	return true
}

func (t *Tree) removeSubtree(n *Node) {
	for _, child := range n.children {
		t.removeSubtree(child)
	}
	n.children = nil
	delete(t.byPath, n.Path)
	if t.finalize != nil {
		t.finalize(n)
	}
	n.removed = true
	n.Parent = nil
	n.Props = nil
	n.component = nil
	n.OnClick = nil
}

// EffectiveVisibility returns the AND of the node's own flag and all its
// ancestors', short-circuiting on the first false. Unknown paths are not
// visible.
func (t *Tree) EffectiveVisibility(path string) bool {
	n := t.byPath[NormalizePath(path)]
	if n == nil {
		return false
	}
	return effectiveVisibility(n)
}

func effectiveVisibility(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Walk visits every node below the root in depth-first insertion order.
// Return false from visit to skip a node's subtree.
func (t *Tree) Walk(visit func(*Node) bool) {
	walk(t.root, visit)
}

func walk(n *Node, visit func(*Node) bool) {
	for _, child := range n.children {
		if visit(child) {
			walk(child, visit)
		}
	}
}
