package geom

import "math"

// Vec is a Cartesian 3-vector.
type Vec [3]float64

func (v Vec) Add(w Vec) Vec   { return Vec{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }
func (v Vec) Sub(w Vec) Vec   { return Vec{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }
func (v Vec) Scale(s float64) Vec { return Vec{v[0] * s, v[1] * s, v[2] * s} }

func (v Vec) Dot(w Vec) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Norm2 is the squared Euclidean length.
func (v Vec) Norm2() float64 { return v.Dot(v) }

func (v Vec) Norm() float64 { return math.Sqrt(v.Norm2()) }

func (v Vec) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Zero clears v in place.
func (v *Vec) Zero() { v[0], v[1], v[2] = 0, 0, 0 }

// CloneVecs returns a deep copy of xs.
func CloneVecs(xs []Vec) []Vec {
	c := make([]Vec, len(xs))
	copy(c, xs)
	return c
}
