// Package spatialmath defines the axis-aligned bounding boxes and sphere tests used to index atoms.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box described by its minimum and maximum corners.
// Every AABB produced by this package satisfies Min <= Max on every axis.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABBFromSphere returns the tightest box enclosing a sphere: center -/+ radius on every axis.
// The radius is expected to be positive; that is checked where atoms are created.
func NewAABBFromSphere(center r3.Vector, radius float64) AABB {
	offset := r3.Vector{X: radius, Y: radius, Z: radius}
	return AABB{Min: center.Sub(offset), Max: center.Add(offset)}
}

// EmptyAABB returns the degenerate box with all six bounds at zero. It is the bounding volume of
// an empty atom set.
func EmptyAABB() AABB {
	return AABB{}
}

// MergeAABBs folds Merge over the given boxes. No boxes gives EmptyAABB.
func MergeAABBs(boxes ...AABB) AABB {
	if len(boxes) == 0 {
		return EmptyAABB()
	}
	merged := boxes[0]
	for _, b := range boxes[1:] {
		merged = merged.Merge(b)
	}
	return merged
}

// Merge returns the tightest box containing both a and b.
func (a AABB) Merge(b AABB) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: r3.Vector{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

// Intersects reports whether the boxes overlap or touch on every axis.
// reference: https://developer.mozilla.org/en-US/docs/Games/Techniques/3D_collision_detection
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Contains reports whether b lies entirely within a, boundaries included.
func (a AABB) Contains(b AABB) bool {
	return a.Min.X <= b.Min.X && a.Min.Y <= b.Min.Y && a.Min.Z <= b.Min.Z &&
		a.Max.X >= b.Max.X && a.Max.Y >= b.Max.Y && a.Max.Z >= b.Max.Z
}

// Center returns the midpoint of the box.
func (a AABB) Center() r3.Vector {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (a AABB) Size() r3.Vector {
	return a.Max.Sub(a.Min)
}

// LongestAxis returns the axis with the largest extent. Ties resolve to the lower axis.
func (a AABB) LongestAxis() r3.Axis {
	size := a.Size()
	switch {
	case size.X >= size.Y && size.X >= size.Z:
		return r3.XAxis
	case size.Y >= size.Z:
		return r3.YAxis
	default:
		return r3.ZAxis
	}
}

// String returns a human readable string that represents the box.
func (a AABB) String() string {
	return fmt.Sprintf("AABB | Min: X:%.3f, Y:%.3f, Z:%.3f | Max: X:%.3f, Y:%.3f, Z:%.3f",
		a.Min.X, a.Min.Y, a.Min.Z, a.Max.X, a.Max.Y, a.Max.Z)
}

// AxisComponent returns the component of v along axis.
func AxisComponent(v r3.Vector, axis r3.Axis) float64 {
	switch axis {
	case r3.XAxis:
		return v.X
	case r3.YAxis:
		return v.Y
	default:
		return v.Z
	}
}
