// Package constr declares the interface to the rigid-constraint solver the
// flexible-constraint projection relies on. The solver itself (LINCS, SHAKE,
// or equivalent) is an external collaborator.
package constr

import "github.com/polarsim/drude/internal/geom"

// Mode selects what the solver projects.
type Mode int

const (
	// ModeCoordinates projects prime onto the constraint manifold defined
	// relative to the reference positions.
	ModeCoordinates Mode = iota
	// ModeDerivative projects the derivative stored in prime onto the
	// directions permitted by the constraints and writes the result to out.
	ModeDerivative
)

// Solver applies holonomic constraints. In ModeCoordinates, prime is adjusted
// in place and out is ignored (may be nil). In ModeDerivative, prime is read
// and the projected derivative is accumulated into out.
type Solver interface {
	Project(ref []geom.Vec, prime []geom.Vec, out []geom.Vec, mode Mode) error
}

// Identity is the no-constraints solver: coordinates pass through untouched
// and derivatives project onto themselves.
type Identity struct{}

func (Identity) Project(ref []geom.Vec, prime []geom.Vec, out []geom.Vec, mode Mode) error {
	if mode == ModeDerivative {
		copy(out, prime)
	}
	return nil
}
