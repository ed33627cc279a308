package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/steric/atom"
	"go.viam.com/steric/spatialmath"
)

func makeAtom(id int, x, y, z, radius float64) atom.Atom {
	return atom.Atom{ID: id, Position: r3.Vector{X: x, Y: y, Z: z}, Radius: radius}
}

func randomAtoms(rng *rand.Rand, n, firstID int, extent float64) []atom.Atom {
	atoms := make([]atom.Atom, 0, n)
	for i := 0; i < n; i++ {
		atoms = append(atoms, makeAtom(
			firstID+i,
			rng.Float64()*extent,
			rng.Float64()*extent,
			rng.Float64()*extent,
			0.5+rng.Float64()*2,
		))
	}
	return atoms
}

var allOptions = []Options{
	{Split: SplitMidpoint, Storage: StoreAllNodes},
	{Split: SplitMidpoint, Storage: StoreLeavesOnly},
	{Split: SplitSpatialMedian, Storage: StoreAllNodes},
	{Split: SplitSpatialMedian, Storage: StoreLeavesOnly},
}

func TestBuildBVH(t *testing.T) {
	t.Run("empty atoms creates empty leaf", func(t *testing.T) {
		tree := Build(nil)
		test.That(t, tree.NumNodes(), test.ShouldEqual, 1)
		test.That(t, tree.Len(), test.ShouldEqual, 0)
		root := tree.Root()
		test.That(t, root.IsLeaf(), test.ShouldBeTrue)
		test.That(t, root.Atoms, test.ShouldBeEmpty)
		test.That(t, root.Volume, test.ShouldResemble, spatialmath.EmptyAABB())
	})

	t.Run("single atom creates leaf node", func(t *testing.T) {
		a := makeAtom(1, 1, 2, 3, 2)
		tree := Build([]atom.Atom{a})
		test.That(t, tree.NumNodes(), test.ShouldEqual, 1)
		root := tree.Root()
		test.That(t, root.IsLeaf(), test.ShouldBeTrue)
		test.That(t, root.Atoms, test.ShouldResemble, []atom.Atom{a})
		test.That(t, root.Volume, test.ShouldResemble, a.AABB())
		test.That(t, root.Left, test.ShouldEqual, NoChild)
		test.That(t, root.Right, test.ShouldEqual, NoChild)
	})

	t.Run("two atoms split in order", func(t *testing.T) {
		a := makeAtom(1, 0, 0, 0, 2)
		d := makeAtom(2, 5, 0, 0, 2)
		tree := Build([]atom.Atom{a, d})
		test.That(t, tree.NumNodes(), test.ShouldEqual, 3)

		root := tree.Root()
		test.That(t, root.IsLeaf(), test.ShouldBeFalse)
		test.That(t, root.Atoms, test.ShouldResemble, []atom.Atom{a, d})
		test.That(t, root.Volume, test.ShouldResemble, a.AABB().Merge(d.AABB()))

		left, ok := tree.Node(root.Left)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, left.Atoms, test.ShouldResemble, []atom.Atom{a})
		right, ok := tree.Node(root.Right)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, right.Atoms, test.ShouldResemble, []atom.Atom{d})

		_, ok = tree.Node(3)
		test.That(t, ok, test.ShouldBeFalse)
		_, ok = tree.Node(NoChild)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("many atoms keep full lists at every node", func(t *testing.T) {
		atoms := make([]atom.Atom, 10)
		for i := range atoms {
			atoms[i] = makeAtom(i+1, float64(i), 0, 0, 1)
		}
		tree := Build(atoms)
		test.That(t, tree.NumNodes(), test.ShouldEqual, 19)
		test.That(t, tree.Root().Atoms, test.ShouldResemble, atoms)

		left, _ := tree.Node(tree.Root().Left)
		test.That(t, left.Atoms, test.ShouldResemble, atoms[:5])
		right, _ := tree.Node(tree.Root().Right)
		test.That(t, right.Atoms, test.ShouldResemble, atoms[5:])
	})

	t.Run("leaves only storage", func(t *testing.T) {
		atoms := randomAtoms(rand.New(rand.NewSource(1)), 33, 1, 50)
		tree := Build(atoms, WithStorage(StoreLeavesOnly))
		stored := 0
		tree.Walk(func(_ int, node Node, _ int) bool {
			if !node.IsLeaf() {
				test.That(t, node.Atoms, test.ShouldBeNil)
			}
			stored += len(node.Atoms)
			return true
		})
		test.That(t, stored, test.ShouldEqual, len(atoms))
	})

	t.Run("does not retain the input slice", func(t *testing.T) {
		atoms := []atom.Atom{makeAtom(1, 0, 0, 0, 2), makeAtom(2, 5, 0, 0, 2)}
		tree := Build(atoms)
		atoms[0] = makeAtom(99, 100, 100, 100, 2)
		test.That(t, tree.Root().Atoms[0].ID, test.ShouldEqual, 1)
	})

	t.Run("spatial median orders by the longest axis", func(t *testing.T) {
		atoms := []atom.Atom{
			makeAtom(1, 0, 30, 0, 1),
			makeAtom(2, 0, 10, 0, 1),
			makeAtom(3, 0, 20, 0, 1),
			makeAtom(4, 0, 0, 0, 1),
		}
		tree := Build(atoms, WithSplit(SplitSpatialMedian))
		root := tree.Root()
		ids := []int{}
		for _, a := range root.Atoms {
			ids = append(ids, a.ID)
		}
		test.That(t, ids, test.ShouldResemble, []int{4, 2, 3, 1})
		left, _ := tree.Node(root.Left)
		test.That(t, left.Volume.Max.Y, test.ShouldEqual, 11.)
		test.That(t, tree.Options().Split, test.ShouldEqual, SplitSpatialMedian)
	})
}

func TestTreeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 3, 7, 64, 257} {
		atoms := randomAtoms(rng, n, 1, 80)
		for _, opts := range allOptions {
			tree := Build(atoms, WithOptions(opts))
			test.That(t, tree.NumNodes(), test.ShouldEqual, max(2*n-1, 1))

			// the root contains every atom's box
			for _, a := range atoms {
				test.That(t, tree.Bounds().Contains(a.AABB()), test.ShouldBeTrue)
			}

			tree.Walk(func(_ int, node Node, depth int) bool {
				if node.IsLeaf() {
					test.That(t, len(node.Atoms), test.ShouldBeLessThanOrEqualTo, 1)
					test.That(t, node.Volume, test.ShouldResemble, atom.BoundsOf(node.Atoms))
					return true
				}
				left, ok := tree.Node(node.Left)
				test.That(t, ok, test.ShouldBeTrue)
				right, ok := tree.Node(node.Right)
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, node.Volume, test.ShouldResemble, left.Volume.Merge(right.Volume))
				return true
			})

			if n > 0 {
				test.That(t, tree.Stats().MaxDepth, test.ShouldEqual, int(math.Ceil(math.Log2(float64(n)))))
			}
		}
	}
}

func TestStats(t *testing.T) {
	atoms := make([]atom.Atom, 8)
	for i := range atoms {
		atoms[i] = makeAtom(i+1, float64(i)*3, 0, 0, 1)
	}

	stats := Build(atoms).Stats()
	test.That(t, stats.Atoms, test.ShouldEqual, 8)
	test.That(t, stats.Nodes, test.ShouldEqual, 15)
	test.That(t, stats.Leaves, test.ShouldEqual, 8)
	test.That(t, stats.EmptyLeaves, test.ShouldEqual, 0)
	test.That(t, stats.MaxDepth, test.ShouldEqual, 3)
	test.That(t, stats.MeanLeafDepth, test.ShouldEqual, 3.)
	test.That(t, stats.MeanLeafSize, test.ShouldEqual, 1.)
	test.That(t, stats.StoredAtoms, test.ShouldEqual, 32)
	test.That(t, stats.String(), test.ShouldContainSubstring, "nodes=15")

	leafOnly := Build(atoms, WithStorage(StoreLeavesOnly)).Stats()
	test.That(t, leafOnly.StoredAtoms, test.ShouldEqual, 8)

	empty := Build(nil).Stats()
	test.That(t, empty.Nodes, test.ShouldEqual, 1)
	test.That(t, empty.EmptyLeaves, test.ShouldEqual, 1)
	test.That(t, empty.MaxDepth, test.ShouldEqual, 0)
}

func TestParseOptions(t *testing.T) {
	split, err := ParseSplitStrategy("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, split, test.ShouldEqual, SplitMidpoint)
	split, err = ParseSplitStrategy(SplitSpatialMedian.String())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, split, test.ShouldEqual, SplitSpatialMedian)
	_, err = ParseSplitStrategy("sah")
	test.That(t, err, test.ShouldNotBeNil)

	storage, err := ParseStorage("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, storage, test.ShouldEqual, StoreAllNodes)
	storage, err = ParseStorage(StoreLeavesOnly.String())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, storage, test.ShouldEqual, StoreLeavesOnly)
	_, err = ParseStorage("roots")
	test.That(t, err, test.ShouldNotBeNil)
}
