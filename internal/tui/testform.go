package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/fetch"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

const (
	testFormTitle   = "Create a New Test"
	testCreate      = "Create Test"
	testCreating    = "Creating..."
	testCreateError = "Failed to create the test. Please try again."
	testCreated     = "Test created."
)

// testFormScreen writes a new test and returns home once the backend
// accepts it.
type testFormScreen struct {
	deps    deps
	save    *fetch.Controller[*model.Test]
	form    form
	spinner spinner.Model
}

func newTestFormScreen(d deps) *testFormScreen {
	return &testFormScreen{
		deps: d,
		save: fetch.New("test-create",
			fetch.WithContext[*model.Test](d.ctx),
			fetch.WithLogger[*model.Test](d.logger)),
		form:    newForm("title", "Title", "Enter test title...", "Enter test description..."),
		spinner: newSpinner(),
	}
}

func (s *testFormScreen) Init() tea.Cmd { return nil }

func (s *testFormScreen) Dismiss() { s.save.Cancel() }

// Test returns what the form currently holds.
func (s *testFormScreen) Test() model.Test {
	title, desc := s.form.values()
	return model.Test{Title: title, Description: desc}
}

func (s *testFormScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if s.save.Apply(msg) {
		if s.save.Failed() {
			s.deps.logger.Error("Failed to create test", "error", s.save.Err())
			return s, nil
		}
		return s, navigate(RouteHome, model.ID{}, testCreated)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.setSize(msg.Width)
		return s, nil
	case spinner.TickMsg:
		if !s.save.Loading() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		if key.Matches(msg, backKey) {
			return s, navigate(RouteHome, model.ID{}, "")
		}
		if s.save.Loading() {
			return s, nil
		}
	}

	cmd, submit := s.form.update(msg)
	if submit {
		test := s.Test()
		sub := s.save.Submit(test.Validate, func(ctx context.Context) (*model.Test, error) {
			return s.deps.backend.CreateTest(ctx, test)
		})
		if sub == nil {
			return s, nil
		}
		return s, tea.Batch(sub, s.spinner.Tick)
	}
	return s, cmd
}

func (s *testFormScreen) View() string {
	button := testCreate
	if s.save.Loading() {
		button = testCreating
	}

	var fe model.FieldErrors
	var alert string
	if s.save.Failed() {
		// Local validation echoes per field; anything from the backend gets
		// the fixed retry text.
		var serr *api.StatusError
		if fe = api.FieldErrorsOf(s.save.Err()); fe != nil && !asStatus(s.save.Err(), &serr) {
			alert = fe[model.MessageKey]
		} else {
			fe, alert = nil, testCreateError
		}
	}

	out := s.form.view(testFormTitle, button, fe, s.save.Loading())
	if alert != "" {
		out = ui.ErrorLine(alert) + "\n\n" + out
	}
	return out
}
