package relax

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
)

func TestShellPosSDFirstStep(t *testing.T) {
	shells := []shell.Shell{{Index: 0, K: 100, InvK: 0.01}}
	xcur := []geom.Vec{{0.1, -0.2, 0.3}}
	f := []geom.Vec{{-10, 20, -30}}
	xnew := make([]geom.Vec, 1)

	shellPosSD(xcur, xnew, f, shells, 1)

	assert.Equal(t, geom.Vec{0.01, 0.01, 0.01}, shells[0].Step)
	for d := 0; d < 3; d++ {
		assert.InDelta(t, xcur[0][d]+f[0][d]*0.01, xnew[0][d], 1e-15)
	}
	assert.Equal(t, xcur[0], shells[0].XOld)
	assert.Equal(t, f[0], shells[0].FOld)
}

func TestShellPosSDStepAdaptation(t *testing.T) {
	cases := []struct {
		name     string
		dx, df   float64
		wantStep float64
	}{
		// secant estimate -dx/df lands inside the clamp
		{"secant in range", 0.001, -0.1, 0.8*0.01 + 0.2*0.01},
		// negative estimate clamps to zero, step only shrinks
		{"negative estimate", 0.001, 0.1, 0.8 * 0.01},
		// huge estimate clamps to twice the current step
		{"estimate clamped high", -1.0, 0.1, 0.8*0.01 + 0.2*0.02},
		// force unchanged but position moved: grow cautiously
		{"zero force delta", 0.001, 0, 0.01 * 1.2},
		// nothing moved, nothing changed
		{"no history change", 0, 0, 0.01},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shells := []shell.Shell{{
				Index: 0,
				InvK:  0.01,
				Step:  geom.Vec{0.01, 0.01, 0.01},
				XOld:  geom.Vec{0.5, 0, 0},
				FOld:  geom.Vec{1, 0, 0},
			}}
			xcur := []geom.Vec{{0.5 + tc.dx, 0, 0}}
			f := []geom.Vec{{1 + tc.df, 0, 0}}
			xnew := make([]geom.Vec, 1)

			shellPosSD(xcur, xnew, f, shells, 2)

			assert.InDelta(t, tc.wantStep, shells[0].Step[0], 1e-15)
			assert.GreaterOrEqual(t, shells[0].Step[0], 0.0)
			// untouched axes keep their step
			assert.InDelta(t, 0.01, shells[0].Step[1], 1e-15)
			assert.InDelta(t, xcur[0][0]+f[0][0]*shells[0].Step[0], xnew[0][0], 1e-15)
		})
	}
}

func TestDecreaseStepSize(t *testing.T) {
	shells := []shell.Shell{
		{Step: geom.Vec{0.01, 0.02, 0.03}},
		{Step: geom.Vec{1, 1, 1}},
	}
	decreaseStepSize(shells)
	assert.InDelta(t, 0.008, shells[0].Step[0], 1e-15)
	assert.InDelta(t, 0.016, shells[0].Step[1], 1e-15)
	assert.InDelta(t, 0.8, shells[1].Step[2], 1e-15)
}

func TestDirectionalSD(t *testing.T) {
	xold := []geom.Vec{{1, 0, 0}, {0, 1, 0}}
	acc := []geom.Vec{{2, 0, 0}, {0, -4, 0}}
	xnew := make([]geom.Vec, 2)

	directionalSD(xold, xnew, acc, 0, 2, 0.5)

	assert.Equal(t, geom.Vec{2, 0, 0}, xnew[0])
	assert.Equal(t, geom.Vec{0, -1, 0}, xnew[1])
}

func TestRMSForce(t *testing.T) {
	t.Run("no contributors", func(t *testing.T) {
		sfDir, epot := 0.0, 0.0
		got := rmsForce(nil, nil, nil, 0, &sfDir, &epot)
		assert.Zero(t, got)
	})

	t.Run("single shell", func(t *testing.T) {
		f := []geom.Vec{{3, 4, 0}}
		shells := []shell.Shell{{Index: 0}}
		sfDir, epot := 0.0, 0.0
		got := rmsForce(nil, f, shells, 0, &sfDir, &epot)
		assert.InDelta(t, 5.0, got, 1e-12)
	})

	t.Run("flexible constraint contribution", func(t *testing.T) {
		f := []geom.Vec{{3, 4, 0}}
		shells := []shell.Shell{{Index: 0}}
		sfDir, epot := 25.0, 0.0
		got := rmsForce(nil, f, shells, 1, &sfDir, &epot)
		assert.InDelta(t, 5.0, got, 1e-12)
	})
}
