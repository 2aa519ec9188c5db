package relax

import (
	"math"

	"github.com/polarsim/drude/internal/domdec"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
)

// rmsForce combines the shell residual forces and, when flexible constraints
// are present, the constraint-direction contribution sfDir into one RMS
// scalar. Under decomposition the partial sums (and sfDir/epot, for
// reporting) are reduced across all units before normalization; ndir real
// atoms contribute in addition to the global shell count.
func rmsForce(dec domdec.Decomposition, f []geom.Vec, shells []shell.Shell,
	ndir int, sfDir, epot *float64) float64 {

	var buf [4]float64
	buf[0] = *sfDir
	for i := range shells {
		buf[0] += f[shells[i].Index].Norm2()
	}
	ntot := len(shells)

	if !domdec.Single(dec) {
		buf[1] = float64(ntot)
		buf[2] = *sfDir
		buf[3] = *epot
		dec.CollectiveSum(buf[:])
		ntot = int(buf[1] + 0.5)
		*sfDir = buf[2]
		*epot = buf[3]
	}
	ntot += ndir

	if ntot == 0 {
		return 0
	}
	return math.Sqrt(buf[0] / float64(ntot))
}
