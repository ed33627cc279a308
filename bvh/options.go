package bvh

import (
	"strings"

	"github.com/pkg/errors"
)

// SplitStrategy selects how a node's atoms are partitioned between its two children.
type SplitStrategy int

const (
	// SplitMidpoint splits the atoms at the midpoint index in their given order. Tree shape, and
	// therefore pruning quality, depends entirely on the input order.
	SplitMidpoint SplitStrategy = iota
	// SplitSpatialMedian orders a node's atoms along the longest axis of its bounding volume before
	// splitting at the midpoint index.
	SplitSpatialMedian
)

// String returns the name used for the strategy in configs and flags.
func (s SplitStrategy) String() string {
	switch s {
	case SplitMidpoint:
		return "midpoint"
	case SplitSpatialMedian:
		return "spatial-median"
	default:
		return "unknown"
	}
}

// ParseSplitStrategy parses a strategy name. An empty name selects SplitMidpoint.
func ParseSplitStrategy(name string) (SplitStrategy, error) {
	switch strings.ToLower(name) {
	case "", "midpoint":
		return SplitMidpoint, nil
	case "spatial-median", "spatial":
		return SplitSpatialMedian, nil
	}
	return SplitMidpoint, errors.Errorf("unknown split strategy %q", name)
}

// Storage selects which nodes keep a list of atoms.
type Storage int

const (
	// StoreAllNodes keeps every node's full, unsplit atom list, interior nodes included. Queries
	// test the atoms at a node before descending, so a match is often found high in the tree.
	StoreAllNodes Storage = iota
	// StoreLeavesOnly keeps atoms at leaves only, as a standard BVH does. First matches can differ
	// from StoreAllNodes because candidates are visited in a different order.
	StoreLeavesOnly
)

// String returns the name used for the storage mode in configs and flags.
func (s Storage) String() string {
	switch s {
	case StoreAllNodes:
		return "all-nodes"
	case StoreLeavesOnly:
		return "leaves-only"
	default:
		return "unknown"
	}
}

// ParseStorage parses a storage mode name. An empty name selects StoreAllNodes.
func ParseStorage(name string) (Storage, error) {
	switch strings.ToLower(name) {
	case "", "all-nodes", "all":
		return StoreAllNodes, nil
	case "leaves-only", "leaves":
		return StoreLeavesOnly, nil
	}
	return StoreAllNodes, errors.Errorf("unknown storage mode %q", name)
}

// Options control how a tree is built.
type Options struct {
	Split   SplitStrategy
	Storage Storage
}

// Option configures Build.
type Option func(*Options)

// WithSplit sets the split strategy.
func WithSplit(split SplitStrategy) Option {
	return func(opts *Options) {
		opts.Split = split
	}
}

// WithStorage sets the storage mode.
func WithStorage(storage Storage) Option {
	return func(opts *Options) {
		opts.Storage = storage
	}
}

// WithOptions replaces all options at once.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}
