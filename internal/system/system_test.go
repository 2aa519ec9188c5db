package system

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/polarsim/drude/internal/forces"
	"github.com/polarsim/drude/internal/geom"
	"github.com/polarsim/drude/internal/shell"
	"github.com/polarsim/drude/internal/topology"
)

func TestNewSystem(t *testing.T) {
	sys := New(8, 0.001, 1)

	if got := sys.Top.NumParticles(); got != 16 {
		t.Fatalf("expected 16 particles, got %d", got)
	}
	if len(sys.X) != 16 || len(sys.V) != 16 {
		t.Fatalf("state length mismatch: %d positions, %d velocities", len(sys.X), len(sys.V))
	}
	if len(sys.Ev.Springs) != 8 {
		t.Errorf("expected 8 drude springs, got %d", len(sys.Ev.Springs))
	}
	// 4 charge pairs per molecule pair
	if want := 8 * 7 / 2 * 4; len(sys.Ev.Charges) != want {
		t.Errorf("expected %d charge pairs, got %d", want, len(sys.Ev.Charges))
	}

	counts := sys.Top.CountKinds()
	if counts[topology.KindShell] != 8 {
		t.Errorf("expected 8 shells, got %d", counts[topology.KindShell])
	}

	// every particle starts inside the box
	for i, x := range sys.X {
		for d := 0; d < 3; d++ {
			if x[d] < -spacing || x[d] > sys.Box.L[d]+spacing {
				t.Errorf("particle %d axis %d out of box: %g", i, d, x[d])
			}
		}
	}
}

func TestSystemShellTableMatchesSprings(t *testing.T) {
	alpha := 0.001
	sys := New(4, alpha, 1)

	tab, err := shell.BuildTable(sys.Top, zap.NewNop())
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if len(tab.Shells) != 4 {
		t.Fatalf("expected 4 shells, got %d", len(tab.Shells))
	}

	want := coreQ * coreQ * topology.FourPiEps0 / alpha
	for _, s := range tab.Shells {
		if math.Abs(s.K-want) > 1e-9*want {
			t.Errorf("shell %d: table k %g, evaluator spring k %g", s.Index, s.K, want)
		}
	}
	for _, sp := range sys.Ev.Springs {
		if math.Abs(sp.K-want) > 1e-9*want {
			t.Errorf("spring %d-%d: k %g, want %g", sp.I, sp.J, sp.K, want)
		}
	}
}

func TestSystemDeterministicForSeed(t *testing.T) {
	a := New(4, 0.001, 42)
	b := New(4, 0.001, 42)

	for i := range a.X {
		if a.X[i] != b.X[i] || a.V[i] != b.V[i] {
			t.Fatalf("particle %d differs between identically seeded systems", i)
		}
	}
}

func TestLeapfrogSkipsMassless(t *testing.T) {
	x := []geom.Vec{{0, 0, 0}, {1, 0, 0}}
	v := []geom.Vec{{1, 0, 0}, {1, 0, 0}}
	f := []geom.Vec{{0, 2, 0}, {0, 2, 0}}
	invMass := []float64{0.5, 0}

	Leapfrog{}.Step(x, v, f, invMass, 0.1)

	// kick then drift for the massive particle
	if got := v[0][1]; math.Abs(got-0.1) > 1e-15 {
		t.Errorf("vy after kick: got %g, want 0.1", got)
	}
	if got := x[0][0]; math.Abs(got-0.1) > 1e-15 {
		t.Errorf("x after drift: got %g, want 0.1", got)
	}
	// massless particle untouched
	if x[1] != (geom.Vec{1, 0, 0}) || v[1] != (geom.Vec{1, 0, 0}) {
		t.Error("massless particle was integrated")
	}
}

func TestLeapfrogFreeFlight(t *testing.T) {
	x := []geom.Vec{{0, 0, 0}}
	v := []geom.Vec{{1, 2, 3}}
	f := []geom.Vec{{0, 0, 0}}
	invMass := []float64{1}

	for i := 0; i < 10; i++ {
		Leapfrog{}.Step(x, v, f, invMass, 0.01)
	}
	want := geom.Vec{0.1, 0.2, 0.3}
	if x[0].Sub(want).Norm() > 1e-12 {
		t.Errorf("free flight: got %v, want %v", x[0], want)
	}
}

func TestSystemForcesRestoring(t *testing.T) {
	sys := New(1, 0.001, 1)
	f := make([]geom.Vec, len(sys.X))
	_, err := sys.Ev.Evaluate(sys.X, f, 0, forces.FlagEnergy)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// the drude is displaced from its core, so the spring must pull it back
	toward := sys.X[0].Sub(sys.X[1])
	if f[1].Dot(toward) <= 0 {
		t.Error("drude force does not point back toward its core")
	}
}
