package system

import "github.com/polarsim/drude/internal/geom"

// Leapfrog advances the real atoms one kick-drift step. Massless particles
// (shells, virtual sites) are skipped: their positions are owned by the
// relaxation solver, which keeps them on the adiabatic surface between
// force evaluations.
type Leapfrog struct{}

func (Leapfrog) Step(x, v, f []geom.Vec, invMass []float64, dt float64) {
	for i := range x {
		if invMass[i] == 0 {
			continue
		}
		v[i] = v[i].Add(f[i].Scale(invMass[i] * dt))
		x[i] = x[i].Add(v[i].Scale(dt))
	}
}
