// Package forces defines the contract of the external force evaluator the
// relaxation loop drives, together with a reference pairwise implementation
// used by the CLI demo and the tests. The production evaluator (full force
// field, neighbor searching, internal threading) lives outside this module.
package forces

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polarsim/drude/internal/geom"
)

// Flags modify a single force evaluation.
type Flags uint32

const (
	// FlagNeighborSearch requests pairlist reconstruction before evaluating.
	FlagNeighborSearch Flags = 1 << iota
	// FlagEnergy requests the potential energy alongside the forces.
	FlagEnergy
	// FlagVirial requests virial accumulation.
	FlagVirial
)

// Result carries the scalar outputs of one evaluation.
type Result struct {
	Potential float64
	// Virial is the 3x3 virial contribution, nil unless FlagVirial was set.
	Virial *mat.Dense
}

// Evaluator computes forces for a trial configuration. Implementations must
// write forces for every local particle into f (overwriting, not
// accumulating) and may be internally parallel; the call is synchronous and
// deterministic given identical positions.
type Evaluator interface {
	Evaluate(x []geom.Vec, f []geom.Vec, step int64, flags Flags) (Result, error)
}
