package bvh

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the shape of a tree.
type Stats struct {
	Atoms         int
	Nodes         int
	Leaves        int
	EmptyLeaves   int
	MaxDepth      int
	MeanLeafDepth float64
	MeanLeafSize  float64
	// StoredAtoms counts atom entries across all nodes. With StoreAllNodes it is roughly
	// Atoms * (MaxDepth + 1).
	StoredAtoms int
}

// Stats computes shape statistics for the tree.
func (t *Tree) Stats() Stats {
	s := Stats{Atoms: t.size, Nodes: len(t.nodes)}
	var depths, sizes []float64
	t.Walk(func(_ int, node Node, depth int) bool {
		s.StoredAtoms += len(node.Atoms)
		if node.IsLeaf() {
			s.Leaves++
			if len(node.Atoms) == 0 {
				s.EmptyLeaves++
			}
			depths = append(depths, float64(depth))
			sizes = append(sizes, float64(len(node.Atoms)))
		}
		return true
	})
	s.MaxDepth = int(floats.Max(depths))
	s.MeanLeafDepth = stat.Mean(depths, nil)
	s.MeanLeafSize = stat.Mean(sizes, nil)
	return s
}

// String returns a one line summary of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("atoms=%d nodes=%d leaves=%d max_depth=%d mean_leaf_depth=%.2f mean_leaf_size=%.2f stored_atoms=%d",
		s.Atoms, s.Nodes, s.Leaves, s.MaxDepth, s.MeanLeafDepth, s.MeanLeafSize, s.StoredAtoms)
}
