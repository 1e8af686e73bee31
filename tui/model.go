package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"statuslookup/application"
	"statuslookup/wizard"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	activeStep   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("27")).Padding(0, 1)
	pendingStep  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	foundStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	progressFull = lipgloss.NewStyle().Foreground(lipgloss.Color("27"))
)

const progressWidth = 30

// lookupDoneMsg reports the end of a Submit started by the model.
type lookupDoneMsg struct {
	err error
}

// Model is the bubbletea front end of one wizard.
type Model struct {
	ctx     context.Context
	wizard  *wizard.Wizard
	input   textinput.Model
	spinner spinner.Model
	support string
	logger  *zap.Logger
	loading bool
	fault   string
}

// New builds a Model driving wz. support is shown in the footer.
func New(ctx context.Context, wz *wizard.Wizard, support string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	inp := textinput.New()
	inp.Placeholder = "e.g. RCT-123-456-7890"
	inp.Prompt = "> "
	inp.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		wizard:  wz,
		input:   inp,
		spinner: sp,
		support: support,
		logger:  logger,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.advance()
		}
	case lookupDoneMsg:
		m.loading = false
		m.fault = ""
		if msg.err != nil {
			m.logger.Warn("lookup failed", zap.Error(msg.err))
			if errors.Is(msg.err, context.Canceled) {
				m.fault = "Lookup cancelled."
			}
		}
		if m.wizard.Snapshot().Step != wizard.EnterID {
			m.input.Blur()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.wizard.Snapshot().Step == wizard.EnterID && !m.loading {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// advance performs the primary action of the current step.
func (m Model) advance() (tea.Model, tea.Cmd) {
	snap := m.wizard.Snapshot()
	switch snap.Step {
	case wizard.Welcome:
		if err := m.wizard.Start(); err != nil {
			return m, nil
		}
		m.input.SetValue(snap.SubmissionID)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case wizard.EnterID:
		if m.loading {
			return m, nil
		}
		m.loading = true
		id := m.input.Value()
		m.wizard.SetSubmissionID(id)
		return m, tea.Batch(m.submit(id), m.spinner.Tick)
	case wizard.ViewStatus:
		if err := m.wizard.CheckAnother(); err != nil {
			return m, nil
		}
		if m.wizard.Snapshot().Step == wizard.EnterID {
			return m, m.input.Focus()
		}
	}
	return m, nil
}

func (m Model) submit(id string) tea.Cmd {
	ctx, wz := m.ctx, m.wizard
	return func() tea.Msg {
		return lookupDoneMsg{err: wz.Submit(ctx, id)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	snap := m.wizard.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Application Status Lookup"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Track the progress of your scholarship application"))
	b.WriteString("\n\n")
	b.WriteString(renderSteps(snap.Step))
	b.WriteString("\n")
	b.WriteString(renderProgress(snap.Step.Progress()))
	b.WriteString("\n\n")

	switch snap.Step {
	case wizard.Welcome:
		b.WriteString("Welcome to the Application Status Lookup\n\n")
		b.WriteString("Here's what you need to know:\n")
		b.WriteString("  • Ensure you have your Submission ID ready\n")
		b.WriteString("  • The ID format is " + application.FormatHint + "\n")
		b.WriteString("  • Your application status will be displayed instantly\n")
		b.WriteString("  • If you need help, our support team is just a click away\n\n")
		b.WriteString("[enter] Get Started →")
	case wizard.EnterID:
		b.WriteString("Submission ID\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if v := m.input.Value(); v != "" && !application.LooksLikeSubmissionID(v) {
			b.WriteString(hintStyle.Render("IDs usually look like " + application.FormatHint))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.loading || snap.Loading {
			b.WriteString(m.spinner.View() + " Checking Status")
		} else {
			b.WriteString("[enter] Check Status →")
		}
		if snap.Error != "" {
			b.WriteString("\n\n")
			b.WriteString(errorStyle.Render("Error: " + snap.Error))
		}
		if m.fault != "" {
			b.WriteString("\n\n")
			b.WriteString(errorStyle.Render(m.fault))
		}
	case wizard.ViewStatus:
		if snap.Record != nil {
			b.WriteString(foundStyle.Render("✓ Application Found"))
			b.WriteString("\n\nCurrent Status:\n")
			b.WriteString(statusStyle.Render(snap.Record.Status))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("Last Updated: " + snap.Record.LastUpdatedDate()))
			b.WriteString("\n\nWhat's Next?\n")
			b.WriteString("We'll update you via email as your application progresses.\n\n")
		}
		b.WriteString("[enter] ← Check Another Application")
	}

	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("Need assistance? " + m.support))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[esc] quit"))

	return frameStyle.Render(b.String())
}

func renderSteps(current wizard.Step) string {
	parts := make([]string, 0, len(wizard.Steps))
	for i, info := range wizard.Steps {
		label := fmt.Sprintf("%d %s", i+1, info.Title)
		if int(current) >= i {
			parts = append(parts, activeStep.Render(label))
		} else {
			parts = append(parts, pendingStep.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderProgress(pct int) string {
	filled := pct * progressWidth / 100
	return progressFull.Render(strings.Repeat("█", filled)) + hintStyle.Render(strings.Repeat("░", progressWidth-filled))
}

// Run starts the terminal wizard and blocks until the user quits.
func Run(ctx context.Context, wz *wizard.Wizard, support string, logger *zap.Logger) error {
	p := tea.NewProgram(New(ctx, wz, support, logger), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: run: %w", err)
	}
	return nil
}
