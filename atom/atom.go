// Package atom defines the atom records and ordered structures that steric indexes and probes.
package atom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/steric/spatialmath"
)

// DefaultRadius is the radius in angstroms given to atoms that do not carry their own.
const DefaultRadius = 2.0

// Atom is a single atom of a structure. It is treated as immutable once created.
type Atom struct {
	ID       int
	Position r3.Vector
	Radius   float64

	// Descriptive fields carried over from the source record. None of them affect collision tests.
	Record     string
	Name       string
	Element    string
	Residue    string
	Chain      string
	ResidueSeq int
	Occupancy  float64
	TempFactor float64
}

// New returns an atom with the given id, position and radius, validating it.
func New(id int, position r3.Vector, radius float64) (Atom, error) {
	a := Atom{ID: id, Position: position, Radius: radius}
	if err := a.Validate(); err != nil {
		return Atom{}, err
	}
	return a, nil
}

// AABB returns the box enclosing the atom's sphere.
func (a Atom) AABB() spatialmath.AABB {
	return spatialmath.NewAABBFromSphere(a.Position, a.Radius)
}

// CollidesWith runs the exact sphere test between two atoms: the distance between centers must be
// strictly smaller than the sum of the radii.
func (a Atom) CollidesWith(other Atom) bool {
	collides, _ := spatialmath.SphereVsSphereCollision(a.Position, a.Radius, other.Position, other.Radius)
	return collides
}

// Validate checks that the radius is positive and the coordinates are finite.
func (a Atom) Validate() error {
	if !(a.Radius > 0) || math.IsInf(a.Radius, 0) {
		return newBadRadiusError(a)
	}
	for _, c := range []float64{a.Position.X, a.Position.Y, a.Position.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.Errorf("atom %d has non-finite position %v", a.ID, a.Position)
		}
	}
	return nil
}

// String returns a human readable string that represents the atom.
func (a Atom) String() string {
	return fmt.Sprintf("Atom %d %s | Position: X:%.3f, Y:%.3f, Z:%.3f | Radius: %.2f",
		a.ID, a.Name, a.Position.X, a.Position.Y, a.Position.Z, a.Radius)
}

func newBadRadiusError(a Atom) error {
	return errors.Errorf("atom %d has invalid radius %v, radius must be positive", a.ID, a.Radius)
}

// Structure is a named, ordered collection of atoms. The order is significant: the default index
// partitions atoms by their position in this slice.
type Structure struct {
	Name  string
	Atoms []Atom
}

// NewStructure returns a validated structure.
func NewStructure(name string, atoms []Atom) (*Structure, error) {
	s := &Structure{Name: name, Atoms: atoms}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of atoms in the structure.
func (s *Structure) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Atoms)
}

// IDs returns the atom ids in structure order.
func (s *Structure) IDs() []int {
	ids := make([]int, 0, s.Len())
	for _, a := range s.Atoms {
		ids = append(ids, a.ID)
	}
	return ids
}

// Bounds returns the merged box of every atom, or the empty box for an empty structure.
func (s *Structure) Bounds() spatialmath.AABB {
	return BoundsOf(s.Atoms)
}

// BoundsOf returns the merged box of the given atoms, or the empty box if there are none.
func BoundsOf(atoms []Atom) spatialmath.AABB {
	if len(atoms) == 0 {
		return spatialmath.EmptyAABB()
	}
	bounds := atoms[0].AABB()
	for _, a := range atoms[1:] {
		bounds = bounds.Merge(a.AABB())
	}
	return bounds
}

// Validate checks every atom and that ids are unique, reporting all problems found.
func (s *Structure) Validate() error {
	var err error
	seen := make(map[int]struct{}, s.Len())
	for _, a := range s.Atoms {
		if aErr := a.Validate(); aErr != nil {
			err = multierr.Append(err, aErr)
		}
		if _, ok := seen[a.ID]; ok {
			err = multierr.Append(err, errors.Errorf("duplicate atom id %d", a.ID))
		}
		seen[a.ID] = struct{}{}
	}
	if err != nil {
		return errors.Wrapf(err, "invalid structure %q", s.Name)
	}
	return nil
}
