package bvh

import (
	"go.viam.com/steric/atom"
	"go.viam.com/steric/spatialmath"
)

// Query reports whether probe collides with any atom in the tree and, if so, the id of the first
// colliding atom found. The traversal is depth-first: at each node whose volume intersects the
// probe's box, the node's own atoms are tested in order before the left and then the right child
// are visited, and the first collision ends the whole query. Only one id is ever returned per
// probe, even when several atoms overlap it.
//
// evaluations is the number of exact distance tests performed by this call.
func (t *Tree) Query(probe atom.Atom) (id int, found bool, evaluations int64) {
	id, found = t.query(0, probe, probe.AABB(), &evaluations)
	return id, found, evaluations
}

func (t *Tree) query(idx int, probe atom.Atom, box spatialmath.AABB, evaluations *int64) (int, bool) {
	if idx == NoChild {
		return 0, false
	}
	node := &t.nodes[idx]
	if !box.Intersects(node.Volume) {
		return 0, false
	}
	for i := range node.Atoms {
		candidate := &node.Atoms[i]
		if !box.Intersects(candidate.AABB()) {
			continue
		}
		*evaluations++
		if probe.CollidesWith(*candidate) {
			return candidate.ID, true
		}
	}
	if id, ok := t.query(node.Left, probe, box, evaluations); ok {
		return id, true
	}
	return t.query(node.Right, probe, box, evaluations)
}

// QueryAll returns every atom id colliding with probe, each once, in traversal order. Unlike
// Query it never stops early, so it costs at least as many exact tests.
func (t *Tree) QueryAll(probe atom.Atom) (ids []int, evaluations int64) {
	box := probe.AABB()
	// atoms are repeated along a root-to-leaf path in StoreAllNodes mode; test each only once
	tested := map[int]struct{}{}
	var visit func(idx int)
	visit = func(idx int) {
		if idx == NoChild {
			return
		}
		node := &t.nodes[idx]
		if !box.Intersects(node.Volume) {
			return
		}
		for i := range node.Atoms {
			candidate := &node.Atoms[i]
			if _, ok := tested[candidate.ID]; ok {
				continue
			}
			if !box.Intersects(candidate.AABB()) {
				continue
			}
			tested[candidate.ID] = struct{}{}
			evaluations++
			if probe.CollidesWith(*candidate) {
				ids = append(ids, candidate.ID)
			}
		}
		visit(node.Left)
		visit(node.Right)
	}
	visit(0)
	return ids, evaluations
}
