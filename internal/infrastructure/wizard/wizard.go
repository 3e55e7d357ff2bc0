// Package wizard implements the interactive `dartcov init` flow.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dartcov/dartcov/internal/application"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		cfg       application.Config
		cursor    int
		confirmed bool
		aborted   bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Editable rows in stateEdit, in display order.
const (
	rowMinCoverage = iota
	rowBadge
	rowPrintOutput
	rowCount
)

// Run walks the user through the initial configuration and returns the
// result. The boolean reports whether the user confirmed.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.cfg, true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	if cfg.Port == 0 {
		cfg = application.DefaultConfig()
	}
	return &initWizardModel{
		state: stateIntro,
		cfg:   cfg,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-1)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(1)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > rowCount-1 {
		m.cursor = rowCount - 1
	}
}

func (m *initWizardModel) adjustSelection(direction int) {
	switch m.cursor {
	case rowMinCoverage:
		m.cfg.MinCoverage = clamp(m.cfg.MinCoverage+float64(direction*5), 0, 100)
	case rowBadge:
		m.cfg.Badge = !m.cfg.Badge
	case rowPrintOutput:
		m.cfg.PrintTestOutput = !m.cfg.PrintTestOutput
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ndartcov init wizard\n\n")
	fmt.Fprintf(&b, "The wizard writes a .dartcov.yaml with your coverage preferences.\n\n")
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust settings\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values.\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Minimum coverage", fmt.Sprintf("%.0f%% (0 disables the gate)", m.cfg.MinCoverage)},
		{"Generate badge", onOff(m.cfg.Badge)},
		{"Print test output", onOff(m.cfg.PrintTestOutput)},
	}
	for idx, row := range rows {
		indicator := "  "
		if m.cursor == idx {
			indicator = "> "
		}
		fmt.Fprintf(&b, "%s%s: %s\n", indicator, row.label, row.value)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Minimum coverage: %.0f%%\n", m.cfg.MinCoverage)
	fmt.Fprintf(&b, "Generate badge: %s\n", onOff(m.cfg.Badge))
	fmt.Fprintf(&b, "Print test output: %s\n", onOff(m.cfg.PrintTestOutput))
	fmt.Fprintf(&b, "VM service port: %d\n", m.cfg.Port)
	if m.cfg.Exclude != "" {
		fmt.Fprintf(&b, "Exclude pattern: %s\n", m.cfg.Exclude)
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
