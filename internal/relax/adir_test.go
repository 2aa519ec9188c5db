package relax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarsim/drude/internal/config"
	"github.com/polarsim/drude/internal/constr"
	"github.com/polarsim/drude/internal/forces"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
	"github.com/polarsim/drude/internal/topology"
)

// Under the identity constraint solver the extrapolation terms cancel and
// the acceleration direction reduces to (x - xInit)/dt^2, independent of the
// forces. That cancellation pins down the sign conventions of the finite
// difference.
func TestInitAccDirIdentity(t *testing.T) {
	cfg := config.Default()
	cfg.Dt = 0.002
	cfg.FlexStep = 0.001
	s, err := New(cfg, &shell.Table{Index: []int{-1, -1}}, &forces.Pairwise{},
		Options{NFlexCon: 1, Constr: constr.Identity{}})
	require.NoError(t, err)

	kinds := []topology.ParticleKind{topology.KindAtom, topology.KindAtom}
	invMass := []float64{1 / 15.999, 1 / 1.008}
	xOld := []geom.Vec{{0, 0, 0}, {0.1, 0, 0}}
	xInit := []geom.Vec{{0.001, 0, 0}, {0.1, 0.002, 0}}
	x := []geom.Vec{{0.002, 0, 0}, {0.1, 0.001, 0}}
	f := []geom.Vec{{5, -3, 1}, {-2, 4, 0}}
	accDir := make([]geom.Vec, 2)

	require.NoError(t, s.initAccDir(kinds, invMass, xOld, xInit, x, f, accDir, 2))

	dt2 := cfg.Dt * cfg.Dt
	for i := range accDir {
		for d := 0; d < 3; d++ {
			assert.InDelta(t, (x[i][d]-xInit[i][d])/dt2, accDir[i][d], 1e-9, "particle %d axis %d", i, d)
		}
	}
}

// Shells and virtual sites are pinned: their extrapolations collapse onto
// the current position and the acceleration direction picks up only the
// force term with the opposite sign.
func TestInitAccDirPinsShells(t *testing.T) {
	cfg := config.Default()
	cfg.FlexStep = 0.001
	s, err := New(cfg, &shell.Table{Index: []int{-1, -1}}, &forces.Pairwise{},
		Options{NFlexCon: 1, Constr: constr.Identity{}})
	require.NoError(t, err)

	kinds := []topology.ParticleKind{topology.KindShell, topology.KindVSite}
	invMass := []float64{0, 0}
	xOld := []geom.Vec{{0, 0, 0}, {0.1, 0, 0}}
	xInit := []geom.Vec{{0.005, 0, 0}, {0.1, 0.005, 0}}
	x := []geom.Vec{{0.002, 0, 0}, {0.1, 0.001, 0}}
	f := []geom.Vec{{5, -3, 1}, {-2, 4, 0}}
	accDir := make([]geom.Vec, 2)

	require.NoError(t, s.initAccDir(kinds, invMass, xOld, xInit, x, f, accDir, 2))

	// xnold = xnew = x, so the finite difference vanishes and the massless
	// force term is zero
	for i := range accDir {
		assert.InDelta(t, 0, accDir[i].Norm(), 1e-15, "particle %d", i)
	}
}
