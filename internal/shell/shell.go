// Package shell builds and maintains the table of polarizable shell (Drude)
// particles: which particle is a shell, which real atoms anchor it, and the
// effective harmonic force constant accumulated from its bonded interactions.
package shell

import (
	"errors"
	"fmt"
	"io"

	"github.com/polarsim/drude/internal/geom"
)

// Domain errors. All of them are fatal configuration errors: the topology is
// malformed and no simulation step may run.
var (
	ErrTooManyNuclei     = errors.New("shell: more than three bonds to one shell")
	ErrInconsistent      = errors.New("shell: inconsistent shell assignment in bonded interaction")
	ErrUnbonded          = errors.New("shell: shell particle has no bonded nucleus")
	ErrChargeMismatch    = errors.New("shell: polarization charge differs between A and B states")
	ErrZeroForceConstant = errors.New("shell: shell accumulated no force constant")
)

// Shell is one auxiliary polarizable particle. Index and Nuclei are global
// particle indices in the global table and local indices in a local view.
type Shell struct {
	Index   int
	Nuclei  [3]int
	NNuclei int

	K    float64 // effective harmonic force constant
	InvK float64

	K11, K22, K33 float64 // anisotropic stiffness, zero when unused

	// relaxation history, owned by the solver during a step
	XOld geom.Vec
	FOld geom.Vec
	Step geom.Vec
}

// Table is the process-wide shell table, immutable after construction except
// for the per-iteration relaxation history fields of its entries.
type Table struct {
	Shells []Shell
	// Index maps a global particle index to its slot in Shells, -1 otherwise.
	Index []int
	// InterGroup is set when any shell is bonded across charge groups, which
	// disables position prediction under domain decomposition.
	InterGroup bool
}

// Fprint writes a human-readable dump of the table.
func (t *Table) Fprint(w io.Writer) {
	fmt.Fprintf(w, "%5s  %10s  %6s\n", "shell", "force k", "nuclei")
	for _, s := range t.Shells {
		fmt.Fprintf(w, "%5d  %10.3f  %v\n", s.Index, s.K, s.Nuclei[:s.NNuclei])
	}
}
