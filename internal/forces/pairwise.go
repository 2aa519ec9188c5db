package forces

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/topology"
)

// Spring is a harmonic pair term: V = 1/2 k (|r| - r0)^2.
type Spring struct {
	I, J int
	K    float64
	R0   float64
}

// ChargePair is a screened Coulomb pair term between explicitly listed
// particles, V = fourPiEps0 qi qj / sqrt(r^2 + s^2). The softening length s
// keeps shell-on-nucleus configurations finite.
type ChargePair struct {
	I, J   int
	QI, QJ float64
	Soft   float64
}

// Pairwise is the reference evaluator: listed springs and charge pairs under
// minimum-image boundary conditions. It counts evaluations, which the tests
// and the demo use to cross-check the solver's own statistics.
type Pairwise struct {
	Springs []Spring
	Charges []ChargePair
	Box     *geom.Box

	evaluations int64
}

func (p *Pairwise) Evaluations() int64 { return p.evaluations }

func (p *Pairwise) Evaluate(x []geom.Vec, f []geom.Vec, step int64, flags Flags) (Result, error) {
	if len(f) < len(x) {
		return Result{}, fmt.Errorf("forces: force buffer too small: %d < %d", len(f), len(x))
	}
	p.evaluations++

	for i := range x {
		f[i].Zero()
	}

	var res Result
	var vir *mat.Dense
	if flags&FlagVirial != 0 {
		vir = mat.NewDense(3, 3, nil)
		res.Virial = vir
	}

	accum := func(i, j int, dx geom.Vec, fij geom.Vec) {
		f[i] = f[i].Add(fij)
		f[j] = f[j].Sub(fij)
		if vir != nil {
			for m := 0; m < 3; m++ {
				for n := 0; n < 3; n++ {
					vir.Set(m, n, vir.At(m, n)+0.5*dx[m]*fij[n])
				}
			}
		}
	}

	for _, s := range p.Springs {
		dx := p.Box.MinImage(x[s.J], x[s.I]) // vector j->i
		r := dx.Norm()
		var fij geom.Vec
		if s.R0 == 0 {
			// pure restoring spring, no direction singularity
			fij = dx.Scale(-s.K)
			res.Potential += 0.5 * s.K * r * r
		} else if r > 0 {
			fij = dx.Scale(-s.K * (r - s.R0) / r)
			res.Potential += 0.5 * s.K * (r - s.R0) * (r - s.R0)
		}
		accum(s.I, s.J, dx, fij)
	}

	for _, c := range p.Charges {
		dx := p.Box.MinImage(x[c.J], x[c.I])
		r2 := dx.Norm2() + c.Soft*c.Soft
		if r2 == 0 {
			continue
		}
		qq := topology.FourPiEps0 * c.QI * c.QJ
		inv := 1 / r2
		res.Potential += qq * invSqrt(r2)
		fij := dx.Scale(qq * inv * invSqrt(r2))
		accum(c.I, c.J, dx, fij)
	}

	return res, nil
}

func invSqrt(x float64) float64 { return 1 / math.Sqrt(x) }
