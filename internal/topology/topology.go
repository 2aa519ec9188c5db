// Package topology holds the molecular topology data model: particle kinds,
// per-molecule-type bonded interaction lists and their force-field parameters.
// The topology is immutable once assembled.
package topology

// ParticleKind classifies a particle for the relaxation machinery.
type ParticleKind int

const (
	KindAtom ParticleKind = iota
	KindShell
	KindVSite

	numKinds
)

func (k ParticleKind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindShell:
		return "shell"
	case KindVSite:
		return "vsite"
	}
	return "unknown"
}

// BondKind enumerates the bonded interaction types that can carry a shell.
type BondKind int

const (
	BondHarmonic BondKind = iota // plain harmonic bond
	BondRestraint                // harmonic potential without exclusions
	BondCubic
	BondPolarization
	BondHyperPolarization
	BondAnharmonicPolarization
	BondAnisotropicPolarization
	BondWaterPolarization

	numBondKinds
)

// ShellBondKinds lists every bond kind inspected when building the shell
// table, in scan order.
var ShellBondKinds = []BondKind{
	BondHarmonic,
	BondRestraint,
	BondCubic,
	BondPolarization,
	BondHyperPolarization,
	BondAnharmonicPolarization,
	BondAnisotropicPolarization,
	BondWaterPolarization,
}

// NAtoms returns the number of particles in one interaction of kind k.
func (k BondKind) NAtoms() int {
	if k == BondWaterPolarization {
		return 5
	}
	return 2
}

func (k BondKind) String() string {
	switch k {
	case BondHarmonic:
		return "bond"
	case BondRestraint:
		return "harmonic"
	case BondCubic:
		return "cubic"
	case BondPolarization:
		return "polarization"
	case BondHyperPolarization:
		return "hyperpolarization"
	case BondAnharmonicPolarization:
		return "anharmonic polarization"
	case BondAnisotropicPolarization:
		return "anisotropic polarization"
	case BondWaterPolarization:
		return "water polarization"
	}
	return "unknown"
}

// BondParams holds the force-field parameters for one interaction type.
// Only the fields relevant to the kind are set.
type BondParams struct {
	K      float64 // harmonic spring constant
	R0     float64 // equilibrium length
	CubicK float64 // cubic force constant

	Alpha float64 // isotropic polarizability

	A11, A22, A33 float64 // anisotropy factors

	AlphaX, AlphaY, AlphaZ float64 // water polarizability components
}

// Interaction is one bonded interaction instance inside a molecule type.
// Atoms are molecule-local indices; Param indexes Topology.Params.
type Interaction struct {
	Kind  BondKind
	Param int
	Atoms []int
}

// Particle is one particle definition inside a molecule type. ChargeB and
// MassB are the alchemical B-state values; equal to the A state when the
// particle is not perturbed.
type Particle struct {
	Kind    ParticleKind
	Mass    float64
	MassB   float64
	Charge  float64
	ChargeB float64
	Group   int // charge group within the molecule
}

// MoleculeType describes one molecule species.
type MoleculeType struct {
	Name      string
	Particles []Particle
	Bonds     []Interaction
}

// MoleculeBlock is a run of identical molecules in the global particle order.
type MoleculeBlock struct {
	Type  int
	Count int
}

// Topology is the full system: molecule types, the block layout that maps
// them onto the global particle index space, and the shared parameter table.
type Topology struct {
	Types  []MoleculeType
	Blocks []MoleculeBlock
	Params []BondParams
}

// NumParticles returns the global particle count.
func (t *Topology) NumParticles() int {
	n := 0
	for _, b := range t.Blocks {
		n += b.Count * len(t.Types[b.Type].Particles)
	}
	return n
}

// Particle returns the particle definition for global index i.
func (t *Topology) Particle(i int) Particle {
	for _, b := range t.Blocks {
		mt := &t.Types[b.Type]
		span := b.Count * len(mt.Particles)
		if i < span {
			return mt.Particles[i%len(mt.Particles)]
		}
		i -= span
	}
	panic("topology: particle index out of range")
}

// Kinds returns the particle kind for every global index.
func (t *Topology) Kinds() []ParticleKind {
	kinds := make([]ParticleKind, 0, t.NumParticles())
	for _, b := range t.Blocks {
		mt := &t.Types[b.Type]
		for m := 0; m < b.Count; m++ {
			for _, p := range mt.Particles {
				kinds = append(kinds, p.Kind)
			}
		}
	}
	return kinds
}

// CountKinds tallies particles per kind over the whole system.
func (t *Topology) CountKinds() [numKinds]int {
	var n [numKinds]int
	for _, b := range t.Blocks {
		mt := &t.Types[b.Type]
		for _, p := range mt.Particles {
			n[p.Kind] += b.Count
		}
	}
	return n
}

// GlobalBonds flattens the per-molecule interaction lists of the given kinds
// into global particle indices. Used by the hard-wall pass, which scans the
// plain bonded list rather than the shell table.
func (t *Topology) GlobalBonds(kinds ...BondKind) []Interaction {
	want := make(map[BondKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Interaction
	offset := 0
	for _, b := range t.Blocks {
		mt := &t.Types[b.Type]
		for m := 0; m < b.Count; m++ {
			for _, bond := range mt.Bonds {
				if !want[bond.Kind] {
					continue
				}
				atoms := make([]int, len(bond.Atoms))
				for i, a := range bond.Atoms {
					atoms[i] = offset + a
				}
				out = append(out, Interaction{Kind: bond.Kind, Param: bond.Param, Atoms: atoms})
			}
			offset += len(mt.Particles)
		}
	}
	return out
}
