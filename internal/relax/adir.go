package relax

import (
	"github.com/polarsim/drude/internal/constr"
	"github.com/polarsim/drude/internal/domdec"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/topology"
)

// initAccDir computes constraint-projected acceleration directions for the
// flexibly-constrained real atoms in [0,end). Two unconstrained
// extrapolations are built (backward along the old direction and forward
// along the current force), each projected onto the constraint manifold; the
// finite difference of the projections yields an acceleration estimate that
// is then projected in derivative mode onto the directions the constraints
// permit. Shells and virtual sites are pinned at their current positions:
// they are not independently integrated.
func (s *Solver) initAccDir(kinds []topology.ParticleKind, invMass []float64,
	xOld, xInit, x, f []geom.Vec, accDir []geom.Vec, end int) error {

	s.growADir(end)
	xnold := s.adirOld[:end]
	xnew := s.adirNew[:end]

	dt := s.cfg.Dt

	for n := 0; n < end; n++ {
		wdt := invMass[n] * dt
		if kinds[n] != topology.KindVSite && kinds[n] != topology.KindShell {
			for d := 0; d < 3; d++ {
				xnold[n][d] = x[n][d] - (xInit[n][d] - xOld[n][d])
				xnew[n][d] = 2*x[n][d] - xOld[n][d] + f[n][d]*wdt*dt
			}
		} else {
			xnold[n] = x[n]
			xnew[n] = x[n]
		}
	}

	if err := s.cons.Project(x, xnold, nil, constr.ModeCoordinates); err != nil {
		return err
	}
	if err := s.cons.Project(x, xnew, nil, constr.ModeCoordinates); err != nil {
		return err
	}

	// finite-difference acceleration estimate; dt is validated nonzero at
	// configuration time
	dt2 := dt * dt
	for n := 0; n < end; n++ {
		for d := 0; d < 3; d++ {
			xnew[n][d] = -(2*x[n][d]-xnold[n][d]-xnew[n][d])/dt2 - f[n][d]*invMass[n]
		}
		accDir[n].Zero()
	}

	// project the acceleration on the old bond directions
	return s.cons.Project(xOld, xnew, accDir, constr.ModeDerivative)
}

func (s *Solver) growADir(n int) {
	if n <= cap(s.adirOld) {
		s.adirOld = s.adirOld[:n]
		s.adirNew = s.adirNew[:n]
		return
	}
	grown := make([]geom.Vec, n, domdec.OverAlloc(n))
	copy(grown, s.adirOld)
	s.adirOld = grown
	grown = make([]geom.Vec, n, domdec.OverAlloc(n))
	copy(grown, s.adirNew)
	s.adirNew = grown
}
