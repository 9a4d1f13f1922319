// Package geometry provides the planar primitives, subroom descriptions and the
// building query used by the pedestrian engine.
//
// Vectors are mgl64.Vec2 values. All lengths are in metres, elevations in metres
// above the reference floor.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a 2D position or direction in metres.
type Vec = mgl64.Vec2

// Eps is the magnitude below which a velocity is treated as zero.
const Eps = 0.001

// Unset is the sentinel "no position" point (maximal double pair).
var Unset = Vec{math.MaxFloat64, math.MaxFloat64}

// IsUnset reports whether p is the Unset sentinel.
func IsUnset(p Vec) bool {
	return p[0] == math.MaxFloat64 && p[1] == math.MaxFloat64
}

// IsFinite reports whether both components of v are finite numbers.
func IsFinite(v Vec) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalized returns v scaled to unit length, or the zero vector if v is (close to) null.
func Normalized(v Vec) Vec {
	l := v.Len()
	if l < 1e-12 {
		return Vec{}
	}
	return v.Mul(1 / l)
}

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b Vec) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Limit clamps the magnitude of v to limit.
func Limit(v Vec, limit float64) Vec {
	if v.LenSqr() > limit*limit {
		return Normalized(v).Mul(limit)
	}
	return v
}
