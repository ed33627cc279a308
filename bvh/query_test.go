package bvh

import (
	"math/rand"
	"testing"

	"go.viam.com/test"

	"go.viam.com/steric/atom"
)

// firstCollision scans candidates in order and returns the first one colliding with probe.
func firstCollision(candidates []atom.Atom, probe atom.Atom) (int, bool) {
	for _, c := range candidates {
		if probe.CollidesWith(c) {
			return c.ID, true
		}
	}
	return 0, false
}

// visitOrder lists atoms in the order a query with no pruning would test them.
func visitOrder(tree *Tree) []atom.Atom {
	var order []atom.Atom
	tree.Walk(func(_ int, node Node, _ int) bool {
		order = append(order, node.Atoms...)
		return true
	})
	return order
}

func TestQueryScenarios(t *testing.T) {
	a := makeAtom(1, 0, 0, 0, 2)

	t.Run("overlapping probe matches", func(t *testing.T) {
		tree := Build([]atom.Atom{a})
		id, found, evals := tree.Query(makeAtom(100, 1, 0, 0, 2))
		test.That(t, found, test.ShouldBeTrue)
		test.That(t, id, test.ShouldEqual, a.ID)
		test.That(t, evals, test.ShouldEqual, int64(1))
	})

	t.Run("distant probe does not match", func(t *testing.T) {
		tree := Build([]atom.Atom{a})
		_, found, evals := tree.Query(makeAtom(101, 10, 0, 0, 2))
		test.That(t, found, test.ShouldBeFalse)
		test.That(t, evals, test.ShouldEqual, int64(0))
	})

	t.Run("probe between two atoms matches the overlapping one", func(t *testing.T) {
		d := makeAtom(4, 5, 0, 0, 2)
		probe := makeAtom(102, 4.5, 0, 0, 1)
		for _, opts := range allOptions {
			for _, atoms := range [][]atom.Atom{{a, d}, {d, a}} {
				tree := Build(atoms, WithOptions(opts))
				id, found, evals := tree.Query(probe)
				test.That(t, found, test.ShouldBeTrue)
				test.That(t, id, test.ShouldEqual, d.ID)
				test.That(t, evals, test.ShouldEqual, int64(1))
			}
		}
	})

	t.Run("boxes touching without sphere overlap", func(t *testing.T) {
		tree := Build([]atom.Atom{a})
		// boxes meet on a face at x=2 but the spheres only touch at a point
		_, found, evals := tree.Query(makeAtom(103, 4, 0, 0, 2))
		test.That(t, found, test.ShouldBeFalse)
		test.That(t, evals, test.ShouldEqual, int64(1))

		// box corners overlap while the spheres are far apart
		_, found, evals = tree.Query(makeAtom(104, 3, 3, 3, 2))
		test.That(t, found, test.ShouldBeFalse)
		test.That(t, evals, test.ShouldEqual, int64(1))
	})
}

func TestQueryFirstMatch(t *testing.T) {
	a := makeAtom(1, 0, 0, 0, 2)
	d := makeAtom(2, 5, 0, 0, 2)
	probe := makeAtom(100, 2.5, 0, 0, 2)

	t.Run("stops at the first colliding atom of the root", func(t *testing.T) {
		tree := Build([]atom.Atom{a, d})
		id, found, evals := tree.Query(probe)
		test.That(t, found, test.ShouldBeTrue)
		test.That(t, id, test.ShouldEqual, a.ID)
		test.That(t, evals, test.ShouldEqual, int64(1))

		tree = Build([]atom.Atom{d, a})
		id, _, _ = tree.Query(probe)
		test.That(t, id, test.ShouldEqual, d.ID)
	})

	t.Run("spatial median reorders candidates", func(t *testing.T) {
		tree := Build([]atom.Atom{d, a}, WithSplit(SplitSpatialMedian))
		id, found, _ := tree.Query(probe)
		test.That(t, found, test.ShouldBeTrue)
		test.That(t, id, test.ShouldEqual, a.ID)
	})

	t.Run("exhaustive query returns every overlap once", func(t *testing.T) {
		for _, opts := range allOptions {
			tree := Build([]atom.Atom{a, d}, WithOptions(opts))
			ids, evals := tree.QueryAll(probe)
			test.That(t, len(ids), test.ShouldEqual, 2)
			test.That(t, ids, test.ShouldContain, a.ID)
			test.That(t, ids, test.ShouldContain, d.ID)
			test.That(t, evals, test.ShouldEqual, int64(2))
		}
	})
}

func TestQueryEmptyTree(t *testing.T) {
	tree := Build(nil)
	rng := rand.New(rand.NewSource(3))
	probes := append(randomAtoms(rng, 50, 1, 20), makeAtom(1000, 0, 0, 0, 2), makeAtom(1001, -1, 1, 0, 5))
	for _, probe := range probes {
		_, found, evals := tree.Query(probe)
		test.That(t, found, test.ShouldBeFalse)
		test.That(t, evals, test.ShouldEqual, int64(0))

		ids, _ := tree.QueryAll(probe)
		test.That(t, ids, test.ShouldBeEmpty)
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	reference := randomAtoms(rng, 300, 1, 40)
	probes := randomAtoms(rng, 300, 10000, 40)

	for _, opts := range allOptions {
		tree := Build(reference, WithOptions(opts))
		order := visitOrder(tree)
		matched := 0
		var totalEvals int64
		for _, probe := range probes {
			id, found, evals := tree.Query(probe)
			totalEvals += evals

			expectedID, expectedFound := firstCollision(order, probe)
			test.That(t, found, test.ShouldEqual, expectedFound)
			if !found {
				continue
			}
			matched++
			test.That(t, id, test.ShouldEqual, expectedID)

			// no false positives
			var hit atom.Atom
			for _, a := range reference {
				if a.ID == id {
					hit = a
				}
			}
			test.That(t, probe.CollidesWith(hit), test.ShouldBeTrue)

			all, _ := tree.QueryAll(probe)
			test.That(t, all, test.ShouldContain, id)
			for _, other := range all {
				for _, a := range reference {
					if a.ID == other {
						test.That(t, probe.CollidesWith(a), test.ShouldBeTrue)
					}
				}
			}
		}
		test.That(t, matched, test.ShouldBeGreaterThan, 0)
		// pruning must beat testing every pair
		test.That(t, totalEvals, test.ShouldBeLessThan, int64(len(reference)*len(probes)))
	}

	// with the default options the root holds every atom in input order
	tree := Build(reference)
	for _, probe := range probes {
		id, found, _ := tree.Query(probe)
		expectedID, expectedFound := firstCollision(reference, probe)
		test.That(t, found, test.ShouldEqual, expectedFound)
		test.That(t, id, test.ShouldEqual, expectedID)
	}
}

func TestQueryAllMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	reference := randomAtoms(rng, 120, 1, 25)
	probes := randomAtoms(rng, 60, 5000, 25)
	for _, opts := range allOptions {
		tree := Build(reference, WithOptions(opts))
		for _, probe := range probes {
			ids, _ := tree.QueryAll(probe)
			expected := 0
			for _, a := range reference {
				if probe.CollidesWith(a) {
					expected++
					test.That(t, ids, test.ShouldContain, a.ID)
				}
			}
			test.That(t, len(ids), test.ShouldEqual, expected)
		}
	}
}

func TestQueryDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	reference := randomAtoms(rng, 200, 1, 30)
	probes := randomAtoms(rng, 200, 1000, 30)

	run := func() ([]int, int64) {
		tree := Build(reference)
		var ids []int
		var total int64
		for _, probe := range probes {
			id, found, evals := tree.Query(probe)
			total += evals
			if found {
				ids = append(ids, id)
			}
		}
		return ids, total
	}
	firstIDs, firstEvals := run()
	for i := 0; i < 3; i++ {
		ids, evals := run()
		test.That(t, ids, test.ShouldResemble, firstIDs)
		test.That(t, evals, test.ShouldEqual, firstEvals)
	}
}

func BenchmarkBuild(b *testing.B) {
	atoms := randomAtoms(rand.New(rand.NewSource(1)), 5000, 1, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Build(atoms)
	}
}

func BenchmarkQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	for _, opts := range allOptions {
		tree := Build(randomAtoms(rng, 5000, 1, 100), WithOptions(opts))
		probes := randomAtoms(rng, 1000, 100000, 100)
		b.Run(opts.Split.String()+"/"+opts.Storage.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree.Query(probes[i%len(probes)])
			}
		})
	}
}
