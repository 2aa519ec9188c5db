package relax

import (
	"errors"
	"fmt"
)

// Domain errors for the relaxation loop.
var (
	// ErrUnknownMode indicates the configuration selects neither SCF
	// relaxation nor energy minimization for shell updates.
	ErrUnknownMode = errors.New("relax: unsupported shell update mode")

	// ErrHardWallBreakdown indicates a Drude particle strayed more than
	// twice the wall radius from its heavy atom; the physical model has
	// diverged beyond recovery.
	ErrHardWallBreakdown = errors.New("relax: drude particle beyond recoverable hard-wall range")

	// ErrEnergyInterval indicates energies are not computed every step,
	// which shell relaxation requires.
	ErrEnergyInterval = errors.New("relax: shells require energies every step (nstcalcenergy = 1)")
)

// Fatal wraps an unrecoverable error. The run driver is contractually
// required to terminate immediately when it receives one; the solver never
// continues past it.
type Fatal struct {
	Err error
}

func (f Fatal) Error() string { return f.Err.Error() }
func (f Fatal) Unwrap() error { return f.Err }

// IsFatal reports whether err carries a Fatal anywhere in its chain.
func IsFatal(err error) bool {
	var f Fatal
	return errors.As(err, &f)
}

func fatalf(format string, args ...any) error {
	return Fatal{Err: fmt.Errorf(format, args...)}
}
