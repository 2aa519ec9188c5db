package shell

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/polarsim/drude/internal/topology"
)

const chargeTol = 1e-10

// BuildTable scans the bonded interaction lists of the topology and
// constructs the global shell table. Run once at setup. Returns an empty
// table when the system carries no shells.
func BuildTable(top *topology.Topology, log *zap.Logger) (*Table, error) {
	if log == nil {
		log = zap.NewNop()
	}

	census := top.CountKinds()
	log.Info("particle census",
		zap.Int("atoms", census[topology.KindAtom]),
		zap.Int("shells", census[topology.KindShell]),
		zap.Int("vsites", census[topology.KindVSite]))

	nshell := census[topology.KindShell]
	natoms := top.NumParticles()

	tab := &Table{Index: make([]int, natoms)}
	for i := range tab.Index {
		tab.Index[i] = -1
	}
	if nshell == 0 {
		return tab, nil
	}

	kinds := top.Kinds()
	n := 0
	for i, k := range kinds {
		if k == topology.KindShell {
			tab.Index[i] = n
			n++
		}
	}

	tab.Shells = make([]Shell, nshell)
	for i := range tab.Shells {
		tab.Shells[i] = Shell{Index: -1, Nuclei: [3]int{-1, -1, -1}}
	}

	assigned := 0
	offset := 0
	for bi, blk := range top.Blocks {
		mt := &top.Types[blk.Type]
		for mol := 0; mol < blk.Count; mol++ {
			for _, bk := range topology.ShellBondKinds {
				for _, bond := range mt.Bonds {
					if bond.Kind != bk {
						continue
					}
					aS, aN := findShellEndpoint(mt, bond)
					if aS < 0 {
						continue
					}

					par := &top.Params[bond.Param]
					pS := mt.Particles[aS]
					gS := offset + aS
					gN := offset + aN

					slot := tab.Index[gS]
					if slot < 0 || slot >= nshell {
						return nil, fmt.Errorf("shell: slot %d out of range for particle %d: %w",
							slot, gS, ErrInconsistent)
					}
					sh := &tab.Shells[slot]

					if sh.Index == -1 {
						sh.Index = gS
						assigned++
					} else if sh.Index != gS {
						return nil, fmt.Errorf("shell: slot %d already bound to particle %d, bond names %d: %w",
							slot, sh.Index, gS, ErrInconsistent)
					}

					switch {
					case sh.Nuclei[0] == -1:
						sh.Nuclei[0] = gN
					case sh.Nuclei[1] == -1:
						sh.Nuclei[1] = gN
					case sh.Nuclei[2] == -1:
						sh.Nuclei[2] = gN
					default:
						return nil, fmt.Errorf("shell: particle %d (block %d): %w", gS, bi, ErrTooManyNuclei)
					}

					if pS.Group != mt.Particles[aN].Group {
						tab.InterGroup = true
					}

					if err := accumulateK(sh, bk, par, pS); err != nil {
						return nil, fmt.Errorf("shell: particle %d (block %d): %w", gS, bi, err)
					}
					sh.NNuclei++
				}
			}
			offset += len(mt.Particles)
		}
	}

	if assigned != nshell {
		return nil, fmt.Errorf("shell: %d of %d shells bonded: %w", assigned, nshell, ErrUnbonded)
	}

	for i := range tab.Shells {
		if tab.Shells[i].K <= 0 {
			return nil, fmt.Errorf("shell: particle %d: %w", tab.Shells[i].Index, ErrZeroForceConstant)
		}
		tab.Shells[i].InvK = 1 / tab.Shells[i].K
	}

	if tab.InterGroup {
		log.Info("shells bonded across charge groups, position prediction disabled")
	}
	if log.Core().Enabled(zap.DebugLevel) {
		for _, s := range tab.Shells {
			log.Debug("shell",
				zap.Int("index", s.Index),
				zap.Float64("k", s.K),
				zap.Ints("nuclei", s.Nuclei[:s.NNuclei]))
		}
	}

	return tab, nil
}

// findShellEndpoint returns the shell and nucleus endpoints of a bonded
// interaction, molecule-local, or -1 when no shell takes part.
func findShellEndpoint(mt *topology.MoleculeType, bond topology.Interaction) (aS, aN int) {
	switch bond.Kind {
	case topology.BondWaterPolarization:
		// fixed slots: atoms[3] is the dummy nucleus, atoms[4] the shell
		return bond.Atoms[4], bond.Atoms[3]
	default:
		a, b := bond.Atoms[0], bond.Atoms[1]
		if mt.Particles[a].Kind == topology.KindShell {
			return a, b
		}
		if mt.Particles[b].Kind == topology.KindShell {
			return b, a
		}
		return -1, -1
	}
}

// accumulateK adds one bond's contribution to the shell force constant.
func accumulateK(sh *Shell, kind topology.BondKind, par *topology.BondParams, pS topology.Particle) error {
	switch kind {
	case topology.BondHarmonic, topology.BondRestraint:
		sh.K += par.K
	case topology.BondCubic:
		sh.K += par.CubicK
	case topology.BondHyperPolarization:
		// the anharmonic restraint part is handled by the bonded kernel;
		// only the harmonic k matters here
		sh.K += par.K
	case topology.BondPolarization, topology.BondAnharmonicPolarization:
		if err := checkCharges(pS); err != nil {
			return err
		}
		sh.K += pS.Charge * pS.Charge * topology.FourPiEps0 / par.Alpha
	case topology.BondAnisotropicPolarization:
		if err := checkCharges(pS); err != nil {
			return err
		}
		// the accumulated k is divided by the geometric anisotropy
		// factors, not the per-axis k itself
		sh.K += par.K
		sh.K11 += sh.K / par.A11
		sh.K22 += sh.K / par.A22
		sh.K33 += sh.K / par.A33
	case topology.BondWaterPolarization:
		if err := checkCharges(pS); err != nil {
			return err
		}
		alpha := (par.AlphaX + par.AlphaY + par.AlphaZ) / 3
		sh.K += pS.Charge * pS.Charge * topology.FourPiEps0 / alpha
	default:
		return fmt.Errorf("unhandled bond kind %v", kind)
	}
	return nil
}

func checkCharges(p topology.Particle) error {
	if math.Abs(p.Charge-p.ChargeB) > chargeTol {
		return fmt.Errorf("qA=%e qB=%e: %w", p.Charge, p.ChargeB, ErrChargeMismatch)
	}
	return nil
}
