package spatialmath

import "github.com/golang/geo/r3"

// SphereVsSphereCollision reports whether two spheres overlap, along with the distance between
// their centers. Spheres that exactly touch are not in collision.
func SphereVsSphereCollision(c1 r3.Vector, r1 float64, c2 r3.Vector, r2 float64) (bool, float64) {
	dist := c1.Distance(c2)
	return dist < r1+r2, dist
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() < epsilon
}
