package relax

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/topology"
)

// HardWallInput is the post-step state the hard-wall correction operates on.
// Bonds lists the local bonded interactions to scan; only harmonic and
// polarization bonds can carry a Drude/heavy-atom pairing, anything else in
// the list is skipped silently.
type HardWallInput struct {
	X, V   []geom.Vec
	Kinds  []topology.ParticleKind
	Masses []float64
	Bonds  []topology.Interaction
	Box    *geom.Box
	Virial *mat.Dense
}

// ApplyHardWall caps the bond length between each Drude particle and its
// heavy atom at the configured wall radius. Positions are pulled back to the
// wall with a mass-weighted split and the along-bond velocity components are
// reflected to a Maxwell-Boltzmann magnitude at the configured Drude
// temperature, conserving the pair's along-bond momentum. Velocity deltas
// enter the virial as instantaneous force corrections. Returns the number of
// pairs corrected.
//
// A Drude found more than twice the wall radius from its heavy atom means
// the polarization model has broken down; that is fatal.
func (s *Solver) ApplyHardWall(in HardWallInput) (int, error) {
	hw := s.cfg.HardWall
	if !hw.Enabled {
		return 0, nil
	}

	kbt := topology.Boltz * hw.Temperature
	maxT := 2 * s.cfg.Dt
	rwall := hw.Radius
	rwall2 := rwall * rwall

	applied := 0
	for _, bond := range in.Bonds {
		if bond.Kind != topology.BondHarmonic && bond.Kind != topology.BondPolarization {
			continue
		}

		var ia, ib int // heavy atom, drude
		switch {
		case in.Kinds[bond.Atoms[0]] == topology.KindShell && in.Kinds[bond.Atoms[1]] == topology.KindAtom:
			ia, ib = bond.Atoms[1], bond.Atoms[0]
		case in.Kinds[bond.Atoms[0]] == topology.KindAtom && in.Kinds[bond.Atoms[1]] == topology.KindShell:
			ia, ib = bond.Atoms[0], bond.Atoms[1]
		default:
			// ordinary bond, no drude involved
			continue
		}

		u := in.Box.MinImage(in.X[ia], in.X[ib]) // heavy atom -> drude
		rab2 := u.Norm2()
		if rab2 <= rwall2 {
			continue
		}
		rab := math.Sqrt(rab2)
		if rab > 2*rwall {
			return applied, fatalf("drude %d is %g from heavy atom %d, wall radius %g: %w",
				ib, rab, ia, rwall, ErrHardWallBreakdown)
		}

		u = u.Scale(1 / rab)

		ma, mb := in.Masses[ia], in.Masses[ib]
		mtot := ma + mb

		va, vb := in.V[ia], in.V[ib]
		d1 := va.Dot(u)
		d2 := vb.Dot(u)
		perpA := va.Sub(u.Scale(d1))
		perpB := vb.Sub(u.Scale(d2))

		vbcom := (ma*d1 + mb*d2) / mtot
		d1 -= vbcom
		d2 -= vbcom

		dr := rab - rwall
		var dtWall float64
		if d1 == d2 {
			dtWall = maxT
		} else {
			dtWall = dr / math.Abs(d1-d2)
			if dtWall > maxT {
				dtWall = maxT
			}
		}

		// Maxwell-Boltzmann target magnitude for the relative bond velocity
		vbond := math.Sqrt(kbt / mb)
		t1 := reflect(d1, vbond, mb, mtot)
		t2 := reflect(d2, vbond, ma, mtot)

		// place the pair exactly at the wall, splitting by mass so the
		// center of mass stays put
		in.X[ia] = in.X[ia].Add(u.Scale(dr * mb / mtot))
		in.X[ib] = in.X[ib].Add(u.Scale(-dr * ma / mtot))

		newVa := perpA.Add(u.Scale(t1 + vbcom))
		newVb := perpB.Add(u.Scale(t2 + vbcom))

		if in.Virial != nil {
			accumWallVirial(in.Virial, in.X[ia], newVa.Sub(va), ma, dtWall)
			accumWallVirial(in.Virial, in.X[ib], newVb.Sub(vb), mb, dtWall)
		}

		in.V[ia] = newVa
		in.V[ib] = newVb
		applied++
	}

	s.wallsApplied += int64(applied)
	return applied, nil
}

// reflect reverses an along-bond velocity component and rescales it to the
// target magnitude, mass-weighted against the partner so the pair's
// along-bond momentum is unchanged. A zero component stays zero.
func reflect(d, vbond, mOther, mtot float64) float64 {
	if d == 0 {
		return 0
	}
	return -d * vbond * mOther / (math.Abs(d) * mtot)
}

func accumWallVirial(vir *mat.Dense, x, dv geom.Vec, m, dtWall float64) {
	fac := m / (0.5 * dtWall)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			vir.Set(i, j, vir.At(i, j)+x[i]*fac*dv[j])
		}
	}
}
