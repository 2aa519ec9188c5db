package shell

import (
	"fmt"

	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/topology"
)

// fudge damps the stepwise velocity extrapolation; 1.0 keeps the initial
// shell force roughly a factor two below the unpredicted case.
const predictFudge = 1.0

// Predict seeds shell positions before the first force evaluation of a step.
// In init mode the shell is placed at the mass-weighted average of its
// nuclei's positions; afterwards it is displaced by the mass-weighted average
// of their velocities times the timestep. Prediction only affects how many
// relaxation iterations are needed, never the converged result.
func Predict(x, v []geom.Vec, dt float64, shells []Shell, masses topology.MassProvider, init bool) error {
	var src []geom.Vec
	var scale float64
	if init {
		src = x
		scale = 1
	} else {
		src = v
		scale = predictFudge * dt
	}

	for i := range shells {
		s := &shells[i]
		si := s.Index
		if init {
			x[si].Zero()
		}

		switch s.NNuclei {
		case 1:
			n1 := s.Nuclei[0]
			x[si] = x[si].Add(src[n1].Scale(scale))
		case 2:
			n1, n2 := s.Nuclei[0], s.Nuclei[1]
			m1, m2 := masses.Mass(n1), masses.Mass(n2)
			tm := scale / (m1 + m2)
			x[si] = x[si].Add(src[n1].Scale(m1 * tm)).Add(src[n2].Scale(m2 * tm))
		case 3:
			n1, n2, n3 := s.Nuclei[0], s.Nuclei[1], s.Nuclei[2]
			m1, m2, m3 := masses.Mass(n1), masses.Mass(n2), masses.Mass(n3)
			tm := scale / (m1 + m2 + m3)
			x[si] = x[si].Add(src[n1].Scale(m1 * tm)).
				Add(src[n2].Scale(m2 * tm)).
				Add(src[n3].Scale(m3 * tm))
		default:
			return fmt.Errorf("shell %d has %d nuclei: %w", i, s.NNuclei, ErrUnbonded)
		}
	}
	return nil
}
