package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/polarsim/drude/internal/config"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/relax"
	"github.com/polarsim/drude/internal/shell"
	"github.com/polarsim/drude/internal/store"
	"github.com/polarsim/drude/internal/system"
	"github.com/polarsim/drude/internal/topology"
	"github.com/polarsim/drude/internal/viz"
)

var (
	dataDir    string
	configFile string
	steps      int
	dt         float64
	tolerance  float64
	maxIter    int
	molecules  int
	alpha      float64
	seed       int64
	verbose    bool
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "drude",
		Short: "polarizable shell relaxation engine",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drude", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "relax the demo lattice over N MD steps",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the residual trace of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "relax the demo lattice with a live monitor",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.Default())
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "MD steps")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (ps)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "RMS force tolerance (kJ/mol/nm)")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "relaxation iteration budget")
	cmd.Flags().IntVar(&molecules, "molecules", 27, "polarizable pairs in the demo lattice")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.001, "polarizability (nm^3)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "per-iteration output")
}

func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	// flags override the file
	if cmd.Flags().Changed("steps") || configFile == "" {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("dt") || configFile == "" {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("tolerance") || configFile == "" {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-iter") || configFile == "" {
		cfg.MaxIterations = maxIter
	}
	if cmd.Flags().Changed("verbose") || configFile == "" {
		cfg.Verbose = verbose
	}
	return cfg, cfg.Validate()
}

// run bundles everything one MD step touches.
type run struct {
	cfg    *config.Config
	sys    *system.System
	solver *relax.Solver

	kinds   []topology.ParticleKind
	masses  topology.MassArray
	invMass []float64
	bonds   []topology.Interaction
	f       []geom.Vec

	integ system.Leapfrog
	step  int64
	trace []store.StepRecord
}

func newRun(cmd *cobra.Command) (*run, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	var log *zap.Logger
	if cfg.Verbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	} else {
		log = zap.NewNop()
	}

	sys := system.New(molecules, alpha, seed)
	tab, err := shell.BuildTable(sys.Top, log)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		tab.Fprint(os.Stdout)
	}
	solver, err := relax.New(cfg, tab, sys.Ev, relax.Options{Log: log})
	if err != nil {
		return nil, err
	}

	return &run{
		cfg:     cfg,
		sys:     sys,
		solver:  solver,
		kinds:   sys.Top.Kinds(),
		masses:  topology.MassArray(sys.Top.Masses()),
		invMass: sys.Top.InverseMasses(),
		bonds:   sys.Top.GlobalBonds(topology.BondHarmonic, topology.BondPolarization),
		f:       make([]geom.Vec, sys.Top.NumParticles()),
	}, nil
}

// advance relaxes the shells, integrates the real atoms on the relaxed
// forces, and applies the hard wall to the moved pairs.
func (r *run) advance() (relax.StepResult, error) {
	res, err := r.solver.Relax(relax.StepInput{
		Step:           r.step,
		X:              r.sys.X,
		V:              r.sys.V,
		F:              r.f,
		Kinds:          r.kinds,
		Masses:         r.masses,
		Box:            r.sys.Box,
		NeighborSearch: r.step == 0,
	})
	if err != nil {
		return res, err
	}

	r.integ.Step(r.sys.X, r.sys.V, r.f, r.invMass, r.cfg.Dt)

	if _, err := r.solver.ApplyHardWall(relax.HardWallInput{
		X:      r.sys.X,
		V:      r.sys.V,
		Kinds:  r.kinds,
		Masses: r.masses,
		Bonds:  r.bonds,
		Box:    r.sys.Box,
	}); err != nil {
		return res, err
	}

	r.trace = append(r.trace, store.StepRecord{
		Step:       r.step,
		Iterations: res.Iterations,
		Residual:   res.Residual,
		Potential:  res.Potential,
		Converged:  res.Converged,
	})
	r.step++
	return res, nil
}

func (r *run) save() (string, error) {
	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(store.RunMetadata{
		System:            "lattice",
		Seed:              seed,
		Dt:                r.cfg.Dt,
		Tolerance:         r.cfg.Tolerance,
		MaxIterations:     r.cfg.MaxIterations,
		ConvergedFraction: r.solver.ConvergedFraction(),
		AvgForceEvals:     r.solver.AverageForceEvaluations(),
		WallsApplied:      r.solver.WallsApplied(),
	}, r.trace)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	r, err := newRun(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("relaxing %d polarizable pairs over %d steps...\n", molecules, r.cfg.Steps)
	start := time.Now()

	for i := 0; i < r.cfg.Steps; i++ {
		if _, err := r.advance(); err != nil {
			if relax.IsFatal(err) {
				return fmt.Errorf("step %d: %w", i, err)
			}
			return err
		}
	}

	elapsed := time.Since(start)
	r.solver.LogStatistics()

	runID, err := r.save()
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("converged fraction: %.3f\n", r.solver.ConvergedFraction())
	fmt.Printf("avg force evaluations: %.2f\n", r.solver.AverageForceEvaluations())
	fmt.Printf("hard wall corrections: %d\n", r.solver.WallsApplied())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	r, err := newRun(cmd)
	if err != nil {
		return err
	}

	m := viz.NewModel(r.solver, r.advance, r.cfg.Steps, frameRate)
	if err := viz.Run(m); err != nil {
		return err
	}

	if len(r.trace) == 0 {
		return nil
	}
	runID, err := r.save()
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tSTEPS\tDT\tTOL\tCONV\tEVALS/STEP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%.1f\t%.3f\t%.2f\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Tolerance,
			run.ConvergedFraction,
			run.AvgForceEvals,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d, converged fraction: %.3f\n\n", meta.Steps, meta.ConvergedFraction)

	residuals := make([]float64, len(trace))
	iters := make([]float64, len(trace))
	for i, rec := range trace {
		residuals[i] = rec.Residual
		iters[i] = float64(rec.Iterations)
	}

	fmt.Println(asciigraph.Plot(residuals,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("RMS shell force"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(iters,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("force evaluations per step"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return st.ExportJSON(args[0], enc)
}
