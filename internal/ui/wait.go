package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifiprov/internal/supervisor"
)

// ErrStreamClosed is returned by RunWait when updates end before a
// terminal state.
var ErrStreamClosed = errors.New("status stream closed")

type statusMsg supervisor.Status
type streamClosedMsg struct{}

// WaitModel shows a spinner while the station connects, with a bar that
// fills as join attempts are used up.
type WaitModel struct {
	updates <-chan supervisor.Status
	spinner spinner.Model
	bar     progress.Model

	Status supervisor.Status
	Done   bool
	Err    error
}

// NewWaitModel creates a model fed by updates.
func NewWaitModel(updates <-chan supervisor.Status) WaitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningTitleStyle

	return WaitModel{
		updates: updates,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

func (m WaitModel) next() tea.Msg {
	st, ok := <-m.updates
	if !ok {
		return streamClosedMsg{}
	}
	return statusMsg(st)
}

// Init implements tea.Model
func (m WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next)
}

// Update implements tea.Model
func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.Done = true
			m.Err = context.Canceled
			return m, tea.Quit
		}

	case statusMsg:
		m.Status = supervisor.Status(msg)
		switch m.Status.State {
		case supervisor.StateConnected, supervisor.StateFailed:
			m.Done = true
			return m, tea.Quit
		}
		return m, m.next

	case streamClosedMsg:
		m.Done = true
		m.Err = ErrStreamClosed
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Attempts returns the share of join attempts used so far.
func (m WaitModel) Attempts() float64 {
	if m.Status.MaxRetries <= 0 {
		return 0
	}
	return float64(m.Status.RetryCount) / float64(m.Status.MaxRetries)
}

// View implements tea.Model
func (m WaitModel) View() string {
	if m.Done {
		return FormatStatus(m.Status) + "\n"
	}
	if m.Status.State == "" {
		return fmt.Sprintf("  %s waiting for portal...\n", m.spinner.View())
	}
	return fmt.Sprintf("  %s %s\n  %s\n", m.spinner.View(), FormatStatus(m.Status), m.bar.ViewAs(m.Attempts()))
}

// RunWait renders progress until the station reaches connected or failed.
func RunWait(ctx context.Context, updates <-chan supervisor.Status, out io.Writer) (supervisor.Status, error) {
	p := tea.NewProgram(NewWaitModel(updates), tea.WithOutput(out), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return supervisor.Status{}, ctx.Err()
		}
		return supervisor.Status{}, err
	}
	m := final.(WaitModel)
	return m.Status, m.Err
}
