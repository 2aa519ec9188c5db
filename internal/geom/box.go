package geom

import "math"

// Box is a rectangular simulation cell. A nil Box or one with Periodic unset
// behaves as open (non-periodic) space.
type Box struct {
	L        Vec
	Periodic bool
}

// MinImage returns the minimum-image vector from a to b.
func (b *Box) MinImage(a, bPos Vec) Vec {
	d := bPos.Sub(a)
	if b == nil || !b.Periodic {
		return d
	}
	for m := 0; m < 3; m++ {
		if b.L[m] > 0 {
			d[m] -= b.L[m] * math.Round(d[m]/b.L[m])
		}
	}
	return d
}

// Wrap maps x into the primary cell [0, L).
func (b *Box) Wrap(x Vec) Vec {
	if b == nil || !b.Periodic {
		return x
	}
	for m := 0; m < 3; m++ {
		if b.L[m] > 0 {
			x[m] -= b.L[m] * math.Floor(x[m]/b.L[m])
		}
	}
	return x
}

// WrapAll wraps xs[i:j] in place.
func (b *Box) WrapAll(xs []Vec, i, j int) {
	if b == nil || !b.Periodic {
		return
	}
	for n := i; n < j; n++ {
		xs[n] = b.Wrap(xs[n])
	}
}
