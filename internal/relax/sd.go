package relax

import (
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
)

// Step-size adaptation constants. The step is blended toward a secant
// estimate of the local spring constant, bounded so one bad force pair
// cannot blow the step up.
const (
	stepScaleMin       = 0.8
	stepScaleIncrement = 0.2
	stepScaleMax       = 1.2
	stepScaleMultiple  = (stepScaleMax - stepScaleMin) / stepScaleIncrement

	// rejectionDamping shrinks every step size when a trial is rejected.
	rejectionDamping = 0.8
)

func positionStep(xnew *geom.Vec, xold geom.Vec, f geom.Vec, step geom.Vec) {
	xnew[0] = xold[0] + f[0]*step[0]
	xnew[1] = xold[1] + f[1]*step[1]
	xnew[2] = xold[2] + f[2]*step[2]
}

// shellPosSD proposes new shell positions by per-axis steepest descent with
// adaptive step sizes. count is the 1-based iteration number; the first
// proposal uses 1/k, the ideal Newton step for a pure harmonic restoring
// force.
func shellPosSD(xcur, xnew []geom.Vec, f []geom.Vec, shells []shell.Shell, count int) {
	for i := range shells {
		s := &shells[i]
		si := s.Index
		if count == 1 {
			s.Step = geom.Vec{s.InvK, s.InvK, s.InvK}
		} else {
			for d := 0; d < 3; d++ {
				dx := xcur[si][d] - s.XOld[d]
				df := f[si][d] - s.FOld[d]
				// -dx/df would be NaN for binary-zero df; values merely
				// close to zero are harmless under the clamp below.
				if df != 0 {
					kEst := -dx / df
					if kEst < 0 {
						kEst = 0
					}
					if max := stepScaleMultiple * s.Step[d]; kEst > max {
						kEst = max
					}
					s.Step[d] = stepScaleMin*s.Step[d] + stepScaleIncrement*kEst
				} else if dx != 0 {
					s.Step[d] *= stepScaleMax
				}
				// df == 0 and dx == 0: leave the step alone
			}
		}
		s.XOld = xcur[si]
		s.FOld = f[si]

		positionStep(&xnew[si], xcur[si], f[si], s.Step)
	}
}

// directionalSD displaces every atom in [a0,a1) along its constraint-projected
// acceleration direction with a fixed step scale.
func directionalSD(xold, xnew []geom.Vec, accDir []geom.Vec, a0, a1 int, step float64) {
	for i := a0; i < a1; i++ {
		xnew[i] = xold[i].Add(accDir[i].Scale(step))
	}
}

func decreaseStepSize(shells []shell.Shell) {
	for i := range shells {
		shells[i].Step = shells[i].Step.Scale(rejectionDamping)
	}
}
