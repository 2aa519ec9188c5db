package relax

import "go.uber.org/zap"

// Steps returns the number of MD steps relaxed so far.
func (s *Solver) Steps() int64 { return s.steps }

// ForceEvaluations returns the total number of force evaluations spent
// across all relaxed steps.
func (s *Solver) ForceEvaluations() int64 { return s.forceEvals }

// WallsApplied returns the total number of hard-wall corrections applied.
func (s *Solver) WallsApplied() int64 { return s.wallsApplied }

// ConvergedFraction returns the fraction of MD steps whose relaxation
// reached the tolerance within the iteration budget.
func (s *Solver) ConvergedFraction() float64 {
	if s.steps == 0 {
		return 0
	}
	return float64(s.convergedSteps) / float64(s.steps)
}

// AverageForceEvaluations returns the mean number of force evaluations
// per MD step.
func (s *Solver) AverageForceEvaluations() float64 {
	if s.steps == 0 {
		return 0
	}
	return float64(s.forceEvals) / float64(s.steps)
}

// LogStatistics writes the end-of-run relaxation summary.
func (s *Solver) LogStatistics() {
	if !s.master() {
		return
	}
	s.log.Info("shell relaxation statistics",
		zap.Int64("steps", s.steps),
		zap.Float64("converged_fraction", s.ConvergedFraction()),
		zap.Float64("avg_force_evaluations", s.AverageForceEvaluations()),
		zap.Int64("hard_wall_corrections", s.wallsApplied),
	)
}
