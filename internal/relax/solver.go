// Package relax implements the per-timestep self-consistent relaxation of
// polarizable shell (Drude) particles: an iterative steepest-descent search
// for the positions at which the net force on every shell vanishes to within
// tolerance, driven against an external force evaluator.
package relax

import (
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/polarsim/drude/internal/config"
	"github.com/polarsim/drude/internal/constr"
	"github.com/polarsim/drude/internal/domdec"
	"github.com/polarsim/drude/internal/forces"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
	"github.com/polarsim/drude/internal/topology"
)

// Options are the optional collaborators of a Solver. Zero values route to
// the single-compute-unit, no-constraints paths.
type Options struct {
	// Dec is the domain-decomposition handle; nil means a single unit.
	Dec domdec.Decomposition
	// Constr is the rigid-constraint solver, required when NFlexCon > 0.
	Constr constr.Solver
	// NFlexCon is the number of flexible constraints on real atoms.
	NFlexCon int
	// Log receives diagnostics; nil means no logging.
	Log *zap.Logger
	// Console receives the per-iteration progress lines in verbose mode;
	// defaults to stdout.
	Console io.Writer
}

// Solver owns the relaxation state for one compute unit: the two
// position/force buffer pairs, the local shell view, scratch space for the
// flexible-constraint projection, and the cumulative run statistics. Buffers
// grow to the largest local particle count seen and are reused every step;
// only one relaxation may be in flight per Solver.
type Solver struct {
	cfg  *config.Config
	tab  *shell.Table
	ev   forces.Evaluator
	dec  domdec.Decomposition
	cons constr.Solver
	log  *zap.Logger
	out  io.Writer

	nflexcon int
	predict  bool
	started  bool

	local            []shell.Shell
	pos, frc         [2][]geom.Vec
	xOld, accDir     []geom.Vec
	adirOld, adirNew []geom.Vec

	trace []float64

	steps          int64
	forceEvals     int64
	convergedSteps int64
	wallsApplied   int64
}

// StepInput is the per-step state handed to Relax. X, V and F are local
// arrays covering every locally visible particle; X and F are updated in
// place with the relaxed positions and their forces.
type StepInput struct {
	Step    int64
	X, V, F []geom.Vec
	Kinds   []topology.ParticleKind
	Masses  topology.MassProvider
	InvMass []float64 // required when flexible constraints are active
	Box     *geom.Box
	// Virial, when non-nil, accumulates the virial of the accepted force
	// evaluation.
	Virial *mat.Dense
	// NeighborSearch marks a pairlist-rebuild step; home coordinates are
	// re-wrapped into the box before the first evaluation.
	NeighborSearch bool
	// Continuation suppresses prediction on the first step when restarting
	// from an already-converged configuration.
	Continuation bool
}

// StepResult reports one relaxation.
type StepResult struct {
	Converged  bool
	Iterations int // force evaluations spent
	Residual   float64
	Potential  float64
}

// New validates the configuration against the shell table and assembles a
// solver. A configuration that cannot support shells is a fatal setup error.
func New(cfg *config.Config, tab *shell.Table, ev forces.Evaluator, opt Options) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Fatal{Err: err}
	}
	if len(tab.Shells) > 0 && cfg.NstCalcEnergy != 1 {
		return nil, fatalf("nstcalcenergy is %d: %w", cfg.NstCalcEnergy, ErrEnergyInterval)
	}
	if opt.NFlexCon > 0 && opt.Constr == nil {
		return nil, fatalf("relax: %d flexible constraints but no constraint solver", opt.NFlexCon)
	}
	if opt.NFlexCon > 0 && cfg.FlexStep <= 0 {
		return nil, fatalf("relax: flexible constraints require a positive flex_step, got %g", cfg.FlexStep)
	}

	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := opt.Console
	if out == nil {
		out = os.Stdout
	}

	s := &Solver{
		cfg:      cfg,
		tab:      tab,
		ev:       ev,
		dec:      opt.Dec,
		cons:     opt.Constr,
		log:      log,
		out:      out,
		nflexcon: opt.NFlexCon,
		predict:  cfg.Predict && !tab.InterGroup,
	}
	if tab.InterGroup && cfg.Predict {
		log.Info("will not predict shell positions: shells bonded outside their charge group")
	}
	return s, nil
}

// Relax drives the shell positions of one timestep to self-consistency. It
// blocks until convergence or until the iteration budget is exhausted;
// non-convergence is a soft failure reported through the logger while the
// best-known positions are kept.
func (s *Solver) Relax(in StepInput) (StepResult, error) {
	if s.cfg.Mode != config.ModeSCF && s.cfg.Mode != config.ModeEnergyMin {
		return StepResult{}, fatalf("mode %q: %w", s.cfg.Mode, ErrUnknownMode)
	}

	first := !s.started
	s.started = true
	bCont := first && in.Continuation
	bInit := first || s.cfg.RequireInit

	end := len(in.X)
	if !domdec.Single(s.dec) {
		_, end = s.dec.HomeRange()
	}

	nat := len(in.X)
	s.grow(nat)
	s.local = s.tab.MakeLocal(s.dec, in.Kinds, s.local)

	flex := s.nflexcon > 0

	// the only moment coordinates are consumed before the evaluator, which
	// otherwise keeps everything wrapped itself
	if in.NeighborSearch && domdec.Single(s.dec) {
		in.Box.WrapAll(in.X, 0, end)
	}

	if flex {
		for i := 0; i < end; i++ {
			s.xOld[i] = in.X[i].Sub(in.V[i].Scale(s.cfg.Dt))
		}
	}

	if s.predict && !bCont {
		if bInit {
			s.log.Info("using prediction for initial shell placement")
		}
		if err := shell.Predict(in.X, in.V, s.cfg.Dt, s.local, in.Masses, bInit); err != nil {
			return StepResult{}, Fatal{Err: err}
		}
	}

	flags := forces.FlagEnergy | forces.FlagVirial
	firstFlags := flags
	if in.NeighborSearch {
		firstFlags |= forces.FlagNeighborSearch
	}

	posMin, posTry := s.pos[0][:nat], s.pos[1][:nat]
	frcMin, frcTry := s.frc[0][:nat], s.frc[1][:nat]

	res, err := s.ev.Evaluate(in.X, frcMin, in.Step, firstFlags)
	if err != nil {
		return StepResult{}, err
	}
	virMin := res.Virial

	sfDir := 0.0
	if flex {
		if err := s.initAccDir(in.Kinds, in.InvMass, s.xOld, in.X, in.X, frcMin, s.accDir, end); err != nil {
			return StepResult{}, err
		}
		for i := 0; i < end; i++ {
			sfDir += in.Masses.Mass(i) * s.accDir[i].Norm2()
		}
	}

	epotMin := res.Potential
	dfMin := rmsForce(s.dec, frcMin, s.local, s.nflexcon, &sfDir, &epotMin)

	copy(posMin, in.X)
	copy(posTry, in.X)

	s.trace = append(s.trace[:0], dfMin)
	if s.cfg.Verbose && s.master() {
		printEpot(s.out, in.Step, 0, epotMin, dfMin, s.nflexcon, sfDir)
	}

	// the force may be low enough without any minimization at all
	converged := dfMin < s.cfg.Tolerance

	count := 1
	for !converged && count < s.cfg.MaxIterations {
		if flex {
			if err := s.initAccDir(in.Kinds, in.InvMass, s.xOld, in.X, posMin, frcMin, s.accDir, end); err != nil {
				return StepResult{}, err
			}
			directionalSD(posMin, posTry, s.accDir, 0, end, s.cfg.FlexStep)
		}

		shellPosSD(posMin, posTry, frcMin, s.local, count)

		res, err = s.ev.Evaluate(posTry, frcTry, in.Step, flags)
		if err != nil {
			return StepResult{}, err
		}

		sfDir = 0
		if flex {
			if err := s.initAccDir(in.Kinds, in.InvMass, s.xOld, in.X, posTry, frcTry, s.accDir, end); err != nil {
				return StepResult{}, err
			}
			for i := 0; i < end; i++ {
				sfDir += in.Masses.Mass(i) * s.accDir[i].Norm2()
			}
		}

		epotTry := res.Potential
		dfTry := rmsForce(s.dec, frcTry, s.local, s.nflexcon, &sfDir, &epotTry)

		s.trace = append(s.trace, dfTry)
		if s.cfg.Verbose && s.master() {
			printEpot(s.out, in.Step, count, epotTry, dfTry, s.nflexcon, sfDir)
		}

		converged = dfTry < s.cfg.Tolerance

		if dfTry < dfMin {
			if flex {
				// the accepted displacement carries the flexible
				// constraint response into the velocities
				invdt := 1 / s.cfg.Dt
				for i := 0; i < end; i++ {
					in.V[i] = in.V[i].Add(posTry[i].Sub(posMin[i]).Scale(invdt))
				}
			}
			posMin, posTry = posTry, posMin
			frcMin, frcTry = frcTry, frcMin
			epotMin = epotTry
			dfMin = dfTry
			virMin = res.Virial
		} else {
			decreaseStepSize(s.local)
		}
		count++
	}

	s.steps++
	s.forceEvals += int64(count)
	if converged {
		s.convergedSteps++
	} else if s.master() {
		// the run proceeds with the best-known positions; energies and
		// virial are inexact for this step
		s.log.Warn("shell relaxation did not converge",
			zap.Int64("step", in.Step),
			zap.Int("iterations", s.cfg.MaxIterations),
			zap.Float64("residual", dfMin))
		fmt.Fprintf(os.Stderr, "step %d: shell relaxation did not converge in %d iterations, RMS force %.3f\n",
			in.Step, s.cfg.MaxIterations, dfMin)
	}

	copy(in.X, posMin)
	copy(in.F, frcMin)
	if in.Virial != nil && virMin != nil {
		in.Virial.Add(in.Virial, virMin)
	}

	return StepResult{
		Converged:  converged,
		Iterations: count,
		Residual:   dfMin,
		Potential:  epotMin,
	}, nil
}

// Trace returns the residual history of the most recent Relax call. The
// slice is reused on the next call.
func (s *Solver) Trace() []float64 { return s.trace }

func (s *Solver) master() bool {
	return domdec.Single(s.dec) || s.dec.Rank() == 0
}

func (s *Solver) grow(nat int) {
	if nat <= cap(s.pos[0]) {
		return
	}
	// contents are rewritten every step, only capacity matters
	c := domdec.OverAlloc(nat)
	for i := 0; i < 2; i++ {
		s.pos[i] = make([]geom.Vec, c)
		s.frc[i] = make([]geom.Vec, c)
	}
	s.xOld = make([]geom.Vec, c)
	s.accDir = make([]geom.Vec, c)
}

func sfRMS(sfDir float64, ndir int) float64 {
	return math.Sqrt(sfDir / float64(ndir))
}

func printEpot(w io.Writer, step int64, count int, epot, df float64, ndir int, sfDir float64) {
	fmt.Fprintf(w, "MDStep=%5d/%2d EPot: %12.8e, rmsF: %6.2e", step, count, epot, df)
	if ndir > 0 {
		fmt.Fprintf(w, ", dir. rmsF: %6.2e\n", sfRMS(sfDir, ndir))
	} else {
		fmt.Fprintln(w)
	}
}
