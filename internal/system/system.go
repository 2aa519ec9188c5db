// Package system builds the self-contained demo system the CLI runs: a
// periodic lattice of polarizable pairs, each a heavy core with an attached
// Drude particle, interacting through core/Drude Coulomb pairs evaluated by
// the reference pairwise evaluator.
package system

import (
	"math"
	"math/rand"

	"github.com/polarsim/drude/internal/forces"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/topology"
)

const (
	coreMass  = 15.999
	drudeMass = 0.4
	coreQ     = 0.8
	spacing   = 0.31 // nm, lattice constant
	softening = 0.05 // nm, keeps close core/drude encounters finite
)

// System is a ready-to-relax demo configuration.
type System struct {
	Top *topology.Topology
	Ev  *forces.Pairwise
	X   []geom.Vec
	V   []geom.Vec
	Box *geom.Box
}

// New places n polarizable pairs on a cubic lattice in a periodic box. Drude
// particles start displaced from their cores and every particle gets a small
// random velocity, so the first steps have something to relax. The evaluator
// carries the intramolecular Drude spring plus all intermolecular charge
// pairs.
func New(n int, alpha float64, seed int64) *System {
	side := 1
	for side*side*side < n {
		side++
	}
	box := &geom.Box{
		L:        geom.Vec{float64(side) * spacing, float64(side) * spacing, float64(side) * spacing},
		Periodic: true,
	}

	top := &topology.Topology{
		Types: []topology.MoleculeType{{
			Name: "polar pair",
			Particles: []topology.Particle{
				{Kind: topology.KindAtom, Mass: coreMass, MassB: coreMass, Charge: coreQ, ChargeB: coreQ},
				{Kind: topology.KindShell, Mass: drudeMass, MassB: drudeMass, Charge: -coreQ, ChargeB: -coreQ},
			},
			Bonds: []topology.Interaction{
				{Kind: topology.BondPolarization, Param: 0, Atoms: []int{0, 1}},
			},
		}},
		Blocks: []topology.MoleculeBlock{{Type: 0, Count: n}},
		Params: []topology.BondParams{{Alpha: alpha}},
	}

	// the spring the evaluator applies must be the one the shell table
	// derives from the polarizability
	k := coreQ * coreQ * topology.FourPiEps0 / alpha

	rng := rand.New(rand.NewSource(seed))
	x := make([]geom.Vec, 2*n)
	v := make([]geom.Vec, 2*n)
	ev := &forces.Pairwise{Box: box}

	for i := 0; i < n; i++ {
		core := 2 * i
		drude := 2*i + 1

		cx := float64(i%side) * spacing
		cy := float64((i/side)%side) * spacing
		cz := float64(i/(side*side)) * spacing
		x[core] = geom.Vec{cx, cy, cz}
		x[drude] = x[core].Add(randUnit(rng).Scale(0.005))

		v[core] = randUnit(rng).Scale(0.1)
		v[drude] = v[core]

		ev.Springs = append(ev.Springs, forces.Spring{I: core, J: drude, K: k})
	}

	// intermolecular Coulomb, intramolecular core/drude excluded
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for _, a := range []int{2 * i, 2*i + 1} {
				for _, b := range []int{2 * j, 2*j + 1} {
					ev.Charges = append(ev.Charges, forces.ChargePair{
						I: a, J: b,
						QI:   top.Particle(a).Charge,
						QJ:   top.Particle(b).Charge,
						Soft: softening,
					})
				}
			}
		}
	}

	return &System{Top: top, Ev: ev, X: x, V: v, Box: box}
}

func randUnit(rng *rand.Rand) geom.Vec {
	for {
		v := geom.Vec{2*rng.Float64() - 1, 2*rng.Float64() - 1, 2*rng.Float64() - 1}
		n2 := v.Norm2()
		if n2 > 1e-6 && n2 <= 1 {
			return v.Scale(1 / math.Sqrt(n2))
		}
	}
}
