package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"statuslookup/application"
	"statuslookup/wizard"
)

func newTestModel(opts ...wizard.Option) (Model, *wizard.Wizard) {
	svc := application.NewService(application.NewStaticRepository()).WithDelay(0)
	wz := wizard.New(svc, opts...)
	return New(context.Background(), wz, "support@scholarfundtest.org", nil), wz
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// runLookup executes the commands returned by a submit and feeds the lookup
// result back into the model.
func runLookup(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command from submit")
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		batch = tea.BatchMsg{func() tea.Msg { return msg }}
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(lookupDoneMsg); ok {
			next, _ := m.Update(done)
			return next.(Model)
		}
	}
	t.Fatal("submit produced no lookup result")
	return m
}

func TestModel_FoundFlow(t *testing.T) {
	m, wz := newTestModel()

	if !strings.Contains(m.View(), "Welcome to the Application Status Lookup") {
		t.Fatalf("expected welcome view, got:\n%s", m.View())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if wz.Snapshot().Step != wizard.EnterID {
		t.Fatalf("expected enter id step, got %s", wz.Snapshot().Step)
	}

	m = typeText(t, m, "RCT-123-456-7890")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "Checking Status") {
		t.Fatalf("expected loading indicator, got:\n%s", m.View())
	}

	m = runLookup(t, m, cmd)
	view := m.View()
	if wz.Snapshot().Step != wizard.ViewStatus {
		t.Fatalf("expected view status, got %s", wz.Snapshot().Step)
	}
	if !strings.Contains(view, "Under Review") || !strings.Contains(view, "Last Updated: 2023-08-25") {
		t.Fatalf("expected record details, got:\n%s", view)
	}
	if strings.Contains(view, "Checking Status") {
		t.Fatalf("expected loading cleared, got:\n%s", view)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if wz.Snapshot().Step != wizard.Welcome {
		t.Fatalf("expected welcome after check another, got %s", wz.Snapshot().Step)
	}
	if strings.Contains(m.View(), "Under Review") {
		t.Fatalf("expected previous status cleared, got:\n%s", m.View())
	}
}

func TestModel_NotFoundShowsError(t *testing.T) {
	m, wz := newTestModel()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "unknown-id")

	if !strings.Contains(m.View(), "IDs usually look like RCT-XXX-XXX-XXXX") {
		t.Fatalf("expected format hint, got:\n%s", m.View())
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runLookup(t, m, cmd)

	if wz.Snapshot().Step != wizard.EnterID {
		t.Fatalf("expected to stay on enter id, got %s", wz.Snapshot().Step)
	}
	if !strings.Contains(m.View(), "No application found with the provided Submission ID.") {
		t.Fatalf("expected not found message, got:\n%s", m.View())
	}
}

func TestModel_EnterIgnoredWhileLoading(t *testing.T) {
	m, _ := newTestModel()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "RCT-123-456-7890")
	m, first := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if first == nil {
		t.Fatal("expected submit command")
	}

	if _, second := press(t, m, tea.KeyMsg{Type: tea.KeyEnter}); second != nil {
		t.Fatal("expected second enter to be ignored while loading")
	}
}

func TestModel_ReturnToEnterIDVariantRefocusesInput(t *testing.T) {
	m, wz := newTestModel(wizard.WithReturnStep(wizard.EnterID))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "RCT-234-567-8901")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runLookup(t, m, cmd)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if wz.Snapshot().Step != wizard.EnterID {
		t.Fatalf("expected enter id, got %s", wz.Snapshot().Step)
	}
	if !m.input.Focused() {
		t.Fatal("expected input focused after returning to enter id")
	}
}

func TestModel_EscQuits(t *testing.T) {
	m, _ := newTestModel()
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
