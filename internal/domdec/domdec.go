// Package domdec abstracts the domain-decomposition layer the relaxation
// solver runs under. The solver only needs the local home-atom range, the
// local-to-global index mapping and a blocking collective sum; everything
// else about inter-rank communication stays outside this module.
package domdec

// Decomposition is the capability handle for one compute unit.
type Decomposition interface {
	// Rank is the unit index; rank 0 is the master.
	Rank() int

	// Ranks is the number of compute units.
	Ranks() int

	// HomeRange returns the half-open local index range [a0, a1) of atoms
	// owned by this unit.
	HomeRange() (int, int)

	// GlobalIndex maps a local atom index to its global index.
	GlobalIndex(local int) int

	// CollectiveSum element-wise sums vals across all units, in place.
	// Blocking: returns once every unit has contributed. Identity for a
	// single unit.
	CollectiveSum(vals []float64)
}

// SingleRank is the identity decomposition used when running on one unit.
type SingleRank struct {
	N int
}

func (s SingleRank) Rank() int                    { return 0 }
func (s SingleRank) Ranks() int                   { return 1 }
func (s SingleRank) HomeRange() (int, int)        { return 0, s.N }
func (s SingleRank) GlobalIndex(local int) int    { return local }
func (s SingleRank) CollectiveSum(vals []float64) {}

// Single reports whether dec is effectively a single compute unit. A nil
// handle routes to the single-unit path.
func Single(dec Decomposition) bool {
	return dec == nil || dec.Ranks() == 1
}

// OverAlloc returns a geometrically grown capacity for local buffers that
// are resized whenever the decomposition changes, so repartitioning does not
// reallocate every step.
func OverAlloc(n int) int {
	return n*5/4 + 32
}
