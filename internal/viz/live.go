// Package viz renders a live terminal view of a running relaxation: an
// asciigraph trace of the per-step residual next to the solver's running
// statistics, driven by the Bubble Tea event loop.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/polarsim/drude/internal/relax"
)

const (
	graphWidth      = 70
	graphHeight     = 10
	historyCapacity = 600
)

// StepFunc advances the simulation one MD step and reports the relaxation
// outcome.
type StepFunc func() (relax.StepResult, error)

type TickMsg time.Time

// Model is the Bubble Tea model for the live monitor.
type Model struct {
	solver *relax.Solver
	step   StepFunc

	totalSteps int
	frameRate  int

	stepsDone int
	last      relax.StepResult
	residuals []float64
	running   bool
	done      bool
	err       error
}

func NewModel(solver *relax.Solver, step StepFunc, totalSteps, frameRate int) Model {
	if frameRate <= 0 {
		frameRate = 30
	}
	return Model{
		solver:     solver,
		step:       step,
		totalSteps: totalSteps,
		frameRate:  frameRate,
		residuals:  make([]float64, 0, historyCapacity),
		running:    true,
	}
}

// Err returns the error that stopped the run, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running && !m.done {
			res, err := m.step()
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.stepsDone++
			m.last = res
			m.residuals = append(m.residuals, res.Residual)
			if len(m.residuals) > historyCapacity {
				m.residuals = m.residuals[1:]
			}
			if m.stepsDone >= m.totalSteps {
				m.done = true
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("drude relaxation monitor"))
	b.WriteString("\n")

	if len(m.residuals) > 1 {
		graph := asciigraph.Plot(m.residuals,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("RMS shell force per MD step"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	status := "running"
	switch {
	case m.done:
		status = "finished"
	case !m.running:
		status = "paused"
	}

	conv := strugglingStyle.Render("not converged")
	if m.last.Converged {
		conv = convergedStyle.Render("converged")
	}

	stats := []string{
		statLine("status", status),
		statLine("step", fmt.Sprintf("%d / %d", m.stepsDone, m.totalSteps)),
		statLine("residual", fmt.Sprintf("%.4e", m.last.Residual)),
		statLine("iterations", fmt.Sprintf("%d", m.last.Iterations)),
		statLine("potential", fmt.Sprintf("%.6e", m.last.Potential)),
		labelStyle.Render("last step") + conv,
	}
	if m.solver != nil {
		stats = append(stats,
			statLine("converged frac", fmt.Sprintf("%.3f", m.solver.ConvergedFraction())),
			statLine("avg force evals", fmt.Sprintf("%.2f", m.solver.AverageForceEvaluations())),
			statLine("hard walls", fmt.Sprintf("%d", m.solver.WallsApplied())),
		)
	}
	b.WriteString(statsStyle.Render(lipgloss.JoinVertical(lipgloss.Left, stats...)))

	b.WriteString(helpStyle.Render("space pause/resume, q quit"))
	b.WriteString("\n")
	return b.String()
}

func statLine(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// Run blocks until the monitor exits and returns the error that stopped the
// simulation, if any.
func Run(m Model) error {
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}
