// Package bvh implements a bounding volume hierarchy over atoms for fast sphere overlap queries.
//
// Nodes live in a flat arena addressed by index; the root is always node 0 and absent children
// are marked with NoChild. A tree is immutable once built and safe for concurrent queries.
package bvh

import (
	"sort"

	"go.viam.com/steric/atom"
	"go.viam.com/steric/spatialmath"
)

// NoChild marks an absent child index.
const NoChild = -1

// Node is a single node of the hierarchy.
type Node struct {
	// Volume encloses every atom reachable from this node.
	Volume spatialmath.AABB
	// Atoms holds the atoms assigned to this node's subtree when the tree stores atoms at every
	// node, or only at leaves in StoreLeavesOnly mode.
	Atoms []atom.Atom
	Left  int
	Right int
}

// IsLeaf returns whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Left == NoChild && n.Right == NoChild
}

// Tree is a bounding volume hierarchy built once from an ordered atom collection.
type Tree struct {
	nodes []Node
	size  int
	opts  Options
}

// Build recursively partitions atoms into a binary tree. Zero or one atoms produce a single leaf;
// an empty input yields a leaf with the degenerate all-zero volume and no atoms. Build is
// deterministic for a fixed input order and does not retain the caller's slice.
func Build(atoms []atom.Atom, opts ...Option) *Tree {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	owned := make([]atom.Atom, len(atoms))
	copy(owned, atoms)

	t := &Tree{
		// a count-balanced binary tree over n atoms has at most 2n-1 nodes
		nodes: make([]Node, 0, max(2*len(owned)-1, 1)),
		size:  len(owned),
		opts:  options,
	}
	t.build(owned)
	return t
}

// build appends the subtree for atoms in pre-order and returns the index of its root.
func (t *Tree) build(atoms []atom.Atom) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{Left: NoChild, Right: NoChild})

	if len(atoms) <= 1 {
		t.nodes[idx].Volume = atom.BoundsOf(atoms)
		t.nodes[idx].Atoms = atoms
		return idx
	}

	if t.opts.Split == SplitSpatialMedian {
		atoms = sortAlongLongestAxis(atoms)
	}

	mid := len(atoms) / 2
	left := t.build(atoms[:mid])
	right := t.build(atoms[mid:])

	node := &t.nodes[idx]
	node.Left = left
	node.Right = right
	node.Volume = t.nodes[left].Volume.Merge(t.nodes[right].Volume)
	if t.opts.Storage == StoreAllNodes {
		node.Atoms = atoms
	}
	return idx
}

// sortAlongLongestAxis returns a copy of atoms stably ordered by position along the longest axis
// of their bounding volume.
func sortAlongLongestAxis(atoms []atom.Atom) []atom.Atom {
	axis := atom.BoundsOf(atoms).LongestAxis()
	sorted := make([]atom.Atom, len(atoms))
	copy(sorted, atoms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return spatialmath.AxisComponent(sorted[i].Position, axis) < spatialmath.AxisComponent(sorted[j].Position, axis)
	})
	return sorted
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// Node returns the node at idx.
func (t *Tree) Node(idx int) (Node, bool) {
	if idx < 0 || idx >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[idx], true
}

// NumNodes returns the number of nodes in the arena.
func (t *Tree) NumNodes() int {
	return len(t.nodes)
}

// Len returns the number of atoms the tree was built from.
func (t *Tree) Len() int {
	return t.size
}

// Bounds returns the root volume.
func (t *Tree) Bounds() spatialmath.AABB {
	return t.nodes[0].Volume
}

// Options returns the options the tree was built with.
func (t *Tree) Options() Options {
	return t.opts
}

// Walk visits nodes in pre-order (node, left subtree, right subtree), the same order queries
// use. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(idx int, node Node, depth int) bool) {
	t.walk(0, 0, fn)
}

func (t *Tree) walk(idx, depth int, fn func(idx int, node Node, depth int) bool) {
	if idx == NoChild {
		return
	}
	node := t.nodes[idx]
	if !fn(idx, node, depth) {
		return
	}
	t.walk(node.Left, depth+1, fn)
	t.walk(node.Right, depth+1, fn)
}
