package topology

// MassProvider supplies per-particle masses by global index. Two
// implementations exist: a direct per-step array, and a topology-wide lookup
// used when no array is available (for example under alchemical mass
// interpolation, where the lookup is a deliberate approximation).
type MassProvider interface {
	Mass(i int) float64
}

// MassArray adapts a plain mass slice.
type MassArray []float64

func (m MassArray) Mass(i int) float64 { return m[i] }

type topologyMasses struct {
	top *Topology
}

// MassLookup returns a MassProvider backed by the topology definition.
func (t *Topology) MassLookup() MassProvider {
	return topologyMasses{top: t}
}

func (tm topologyMasses) Mass(i int) float64 {
	return tm.top.Particle(i).Mass
}

// Masses flattens the A-state masses into a slice in global particle order.
func (t *Topology) Masses() []float64 {
	out := make([]float64, 0, t.NumParticles())
	for _, b := range t.Blocks {
		mt := &t.Types[b.Type]
		for m := 0; m < b.Count; m++ {
			for _, p := range mt.Particles {
				out = append(out, p.Mass)
			}
		}
	}
	return out
}

// InverseMasses flattens 1/mass, with zero for massless particles.
func (t *Topology) InverseMasses() []float64 {
	out := t.Masses()
	for i, m := range out {
		if m > 0 {
			out[i] = 1 / m
		} else {
			out[i] = 0
		}
	}
	return out
}
