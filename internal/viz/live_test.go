package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/polarsim/drude/internal/relax"
)

func stepperModel(results []relax.StepResult) Model {
	i := 0
	step := func() (relax.StepResult, error) {
		r := results[i%len(results)]
		i++
		return r, nil
	}
	return NewModel(nil, step, len(results), 30)
}

func TestModelStepsOnTick(t *testing.T) {
	m := stepperModel([]relax.StepResult{
		{Converged: true, Iterations: 3, Residual: 5.0},
		{Converged: true, Iterations: 2, Residual: 1.0},
	})

	next, _ := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.stepsDone != 1 {
		t.Fatalf("expected 1 step, got %d", m.stepsDone)
	}

	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.stepsDone != 2 {
		t.Fatalf("expected 2 steps, got %d", m.stepsDone)
	}
	if !m.done {
		t.Error("expected run to finish after the configured steps")
	}
	if len(m.residuals) != 2 {
		t.Errorf("expected 2 residual samples, got %d", len(m.residuals))
	}
}

func TestModelPause(t *testing.T) {
	m := stepperModel([]relax.StepResult{{Residual: 5.0}})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	if m.running {
		t.Fatal("expected paused after space")
	}

	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.stepsDone != 0 {
		t.Errorf("paused model still stepped: %d", m.stepsDone)
	}
}

func TestModelStopsOnError(t *testing.T) {
	boom := errors.New("evaluator down")
	m := NewModel(nil, func() (relax.StepResult, error) { return relax.StepResult{}, boom }, 10, 30)

	next, cmd := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if !errors.Is(m.Err(), boom) {
		t.Fatalf("expected stored error, got %v", m.Err())
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestViewRendersWithoutSolverStats(t *testing.T) {
	m := stepperModel([]relax.StepResult{{Residual: 5.0}, {Residual: 2.0}, {Residual: 1.0}})
	for i := 0; i < 3; i++ {
		next, _ := m.Update(TickMsg(time.Now()))
		m = next.(Model)
	}
	// solver stats are skipped when no solver is attached
	view := m.View()
	if !strings.Contains(view, "residual") {
		t.Error("view missing residual line")
	}
	if !strings.Contains(view, "RMS shell force") {
		t.Error("view missing residual graph caption")
	}
}
