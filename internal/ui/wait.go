package ui

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by Wait when the user presses ctrl+c.
var ErrInterrupted = errors.New("interrupted")

type doneMsg struct{ err error }

// waitModel shows a spinner until its task returns.
type waitModel struct {
	label   string
	task    func() error
	spinner spinner.Model
	done    bool
	err     error
}

func newWaitModel(label string, task func() error) waitModel {
	return waitModel{
		label:   label,
		task:    task,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
	}
}

// Init implements tea.Model
func (m waitModel) Init() tea.Cmd {
	task := m.task
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: task()}
	})
}

// Update implements tea.Model
func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m waitModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + SpinnerLabelStyle.Render(m.label) + "\n"
}

// Wait runs task while showing a spinner with label. Without a terminal
// task runs directly.
func Wait(label string, task func() error) error {
	if !IsTerminal() {
		return task()
	}
	return runWait(os.Stderr, label, task)
}

func runWait(out io.Writer, label string, task func() error) error {
	p := tea.NewProgram(newWaitModel(label, task), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return err
	}
	return final.(waitModel).err
}
