// Package collision detects steric overlap between two structures by indexing one of them in a
// bounding volume hierarchy and probing it with every atom of the other.
package collision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"go.viam.com/steric/atom"
	"go.viam.com/steric/bvh"
	"go.viam.com/steric/logging"
)

// Pair attributes a colliding query atom to the reference atom it was matched with.
type Pair struct {
	QueryID     int `json:"query_id"`
	ReferenceID int `json:"reference_id"`
}

// Result is the outcome of probing a reference structure with every atom of a query structure.
type Result struct {
	RunID          string `json:"run_id"`
	Reference      string `json:"reference"`
	Query          string `json:"query"`
	ReferenceCount int    `json:"reference_atoms"`
	QueryCount     int    `json:"query_atoms"`
	// Matches holds one reference id per colliding query atom, in query order.
	Matches []int  `json:"matches"`
	Pairs   []Pair `json:"pairs"`
	// Evaluations is the number of exact distance tests performed across all probes.
	Evaluations int64         `json:"evaluations"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Tree        *bvh.Stats    `json:"tree,omitempty"`
}

type probeResult struct {
	id    int
	found bool
}

// Detect builds one tree from reference and queries it with each atom of query, in order. Each
// query atom contributes at most one match. Query atoms are never added to the index, so this is
// not a self-collision check. Nil structures are treated as empty.
//
// With WithWorkers(n > 1) probes are split into contiguous ranges queried concurrently against
// the shared tree; matches are still reported in query order and the evaluation count equals the
// serial one.
func Detect(ctx context.Context, reference, query *atom.Structure, opts ...Option) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "collision::Detect")
	defer span.End()

	o := newDetectOptions(opts)
	logger := o.logger
	start := o.clock.Now()

	refAtoms, queryAtoms := atomsOf(reference), atomsOf(query)
	tree := buildTree(ctx, refAtoms, o.bvhOpts)
	stats := tree.Stats()
	logger.CDebugw(ctx, "built reference tree", "reference", nameOf(reference), "stats", stats.String())

	results := make([]probeResult, len(queryAtoms))
	evaluations, err := runQueries(ctx, tree, queryAtoms, results, o.workers, logger)
	if err != nil {
		return nil, errors.Wrap(err, "collision detection interrupted")
	}

	res := &Result{
		RunID:          uuid.NewString(),
		Reference:      nameOf(reference),
		Query:          nameOf(query),
		ReferenceCount: len(refAtoms),
		QueryCount:     len(queryAtoms),
		Matches:        []int{},
		Pairs:          []Pair{},
		Evaluations:    evaluations,
		Tree:           &stats,
	}
	for i, r := range results {
		if !r.found {
			continue
		}
		res.Matches = append(res.Matches, r.id)
		res.Pairs = append(res.Pairs, Pair{QueryID: queryAtoms[i].ID, ReferenceID: r.id})
	}
	res.Elapsed = o.clock.Since(start)

	span.AddAttributes(
		trace.Int64Attribute("reference_atoms", int64(res.ReferenceCount)),
		trace.Int64Attribute("query_atoms", int64(res.QueryCount)),
		trace.Int64Attribute("matches", int64(len(res.Matches))),
		trace.Int64Attribute("evaluations", res.Evaluations),
	)
	logger.Infow("collision detection done",
		"run_id", res.RunID,
		"matches", len(res.Matches),
		"evaluations", res.Evaluations,
		"workers", o.workers,
		"elapsed", res.Elapsed.String(),
	)
	return res, nil
}

func buildTree(ctx context.Context, atoms []atom.Atom, opts []bvh.Option) *bvh.Tree {
	_, span := trace.StartSpan(ctx, "collision::buildTree")
	defer span.End()
	return bvh.Build(atoms, opts...)
}

func runQueries(
	ctx context.Context,
	tree *bvh.Tree,
	probes []atom.Atom,
	results []probeResult,
	workers int,
	logger logging.Logger,
) (int64, error) {
	if workers <= 1 || len(probes) < 2 {
		return queryRange(ctx, tree, probes, results, 0, len(probes), logger)
	}

	var evaluations atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(probes) + workers - 1) / workers
	for from := 0; from < len(probes); from += chunk {
		from := from
		to := min(from+chunk, len(probes))
		g.Go(func() error {
			evals, err := queryRange(gctx, tree, probes, results, from, to, logger)
			evaluations.Add(evals)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return evaluations.Load(), nil
}

// queryRange probes the tree with probes[from:to], writing into the matching slots of results.
func queryRange(
	ctx context.Context,
	tree *bvh.Tree,
	probes []atom.Atom,
	results []probeResult,
	from, to int,
	logger logging.Logger,
) (int64, error) {
	var evaluations int64
	for i := from; i < to; i++ {
		if err := ctx.Err(); err != nil {
			return evaluations, err
		}
		id, found, evals := tree.Query(probes[i])
		evaluations += evals
		results[i] = probeResult{id: id, found: found}
		if found {
			logger.CDebugw(ctx, "overlap", "query_id", probes[i].ID, "reference_id", id)
		}
	}
	return evaluations, nil
}

// BruteForce tests every query atom against the reference atoms in structure order and stops at
// the first collision, without any index. With default tree options it reports the same matches
// as Detect, since the root then holds every reference atom in structure order.
func BruteForce(reference, query *atom.Structure) *Result {
	refAtoms, queryAtoms := atomsOf(reference), atomsOf(query)
	res := &Result{
		RunID:          uuid.NewString(),
		Reference:      nameOf(reference),
		Query:          nameOf(query),
		ReferenceCount: len(refAtoms),
		QueryCount:     len(queryAtoms),
		Matches:        []int{},
		Pairs:          []Pair{},
	}
	for _, probe := range queryAtoms {
		for _, candidate := range refAtoms {
			res.Evaluations++
			if probe.CollidesWith(candidate) {
				res.Matches = append(res.Matches, candidate.ID)
				res.Pairs = append(res.Pairs, Pair{QueryID: probe.ID, ReferenceID: candidate.ID})
				break
			}
		}
	}
	return res
}

// SameMatches reports whether two results matched the same query atoms to the same reference atoms.
func SameMatches(a, b *Result) bool {
	if len(a.Pairs) != len(b.Pairs) {
		return false
	}
	for i := range a.Pairs {
		if a.Pairs[i] != b.Pairs[i] {
			return false
		}
	}
	return true
}

func atomsOf(s *atom.Structure) []atom.Atom {
	if s == nil {
		return nil
	}
	return s.Atoms
}

func nameOf(s *atom.Structure) string {
	if s == nil {
		return ""
	}
	return s.Name
}
