package shell

import (
	"github.com/polarsim/drude/internal/domdec"
	"github.com/polarsim/drude/internal/topology"
)

// MakeLocal derives the per-compute-unit view of the table for this step.
// On a single unit the global slice is returned as-is (identity mapping, no
// copy). Under decomposition, every locally homed shell is copied into buf
// with its nucleus indices translated into local index space; buf is reused
// across steps and grows geometrically, never shrinks.
func (t *Table) MakeLocal(dec domdec.Decomposition, kinds []topology.ParticleKind, buf []Shell) []Shell {
	if domdec.Single(dec) {
		return t.Shells
	}

	buf = buf[:0]
	a0, a1 := dec.HomeRange()
	for i := a0; i < a1; i++ {
		if kinds[i] != topology.KindShell {
			continue
		}
		if len(buf) == cap(buf) {
			grown := make([]Shell, len(buf), domdec.OverAlloc(len(buf)+1))
			copy(grown, buf)
			buf = grown
		}

		s := t.Shells[t.Index[dec.GlobalIndex(i)]]
		// nucleus offsets are defined relative to the owning shell, so the
		// local shell index anchors the translation
		for n := 0; n < s.NNuclei; n++ {
			s.Nuclei[n] = i + s.Nuclei[n] - s.Index
		}
		s.Index = i
		buf = append(buf, s)
	}
	return buf
}
