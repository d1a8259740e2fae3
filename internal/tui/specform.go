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
	specFormTitle       = "Create Business Specification"
	specEditTitle       = "Edit Business Specification"
	specCreateButton    = "Create Specification"
	specUpdateButton    = "Update Specification"
	specNotFound        = "Specification not found."
	specLoadError       = "Failed to load specification."
	specSaved           = "Specification saved."
	unexpectedErrorText = "An unexpected error occurred."
)

// specFormScreen creates a specification, or edits one when opened with an
// id. Loading and saving have separate controllers so a failed load never
// reads as a failed save.
type specFormScreen struct {
	deps    deps
	id      model.ID
	load    *fetch.Controller[*model.Specification]
	save    *fetch.Controller[*model.Specification]
	form    form
	spinner spinner.Model
	initCmd tea.Cmd
}

func newSpecFormScreen(d deps, id model.ID) *specFormScreen {
	s := &specFormScreen{
		deps: d,
		id:   id,
		load: fetch.New("spec-load",
			fetch.WithContext[*model.Specification](d.ctx),
			fetch.WithLogger[*model.Specification](d.logger)),
		save: fetch.New("spec-save",
			fetch.WithContext[*model.Specification](d.ctx),
			fetch.WithLogger[*model.Specification](d.logger)),
		form:    newForm("name", "Name", "Specification name...", "Describe the specification..."),
		spinner: newSpinner(),
	}
	if !id.IsZero() {
		s.initCmd = tea.Batch(s.load.Load(func(ctx context.Context) (*model.Specification, error) {
			return d.backend.GetSpecification(ctx, id)
		}), s.spinner.Tick)
	}
	return s
}

func (s *specFormScreen) Init() tea.Cmd { return s.initCmd }

func (s *specFormScreen) Dismiss() {
	s.load.Cancel()
	s.save.Cancel()
}

func (s *specFormScreen) busy() bool { return s.load.Loading() || s.save.Loading() }

// Specification returns what the form currently holds.
func (s *specFormScreen) Specification() model.Specification {
	name, desc := s.form.values()
	return model.Specification{ID: s.id, Name: name, Description: desc}
}

func (s *specFormScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if s.load.Apply(msg) {
		switch {
		case s.load.Failed():
			s.deps.logger.Error("Failed to load specification", "id", s.id.String(), "error", s.load.Err())
		case !s.load.Empty():
			spec := s.load.Data()
			s.form.setValues(spec.Name, spec.Description)
		}
		return s, nil
	}
	if s.save.Apply(msg) {
		if s.save.Failed() {
			s.deps.logger.Error("Failed to create or update business specification", "error", s.save.Err())
		} else if spec := s.save.Data(); spec != nil {
			// Later submits update the record that now exists. An edit keeps
			// its id whatever the reply carries.
			if s.id.IsZero() && !spec.ID.IsZero() {
				s.id = spec.ID
			}
			s.form.setValues(spec.Name, spec.Description)
		}
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.setSize(msg.Width)
		return s, nil
	case spinner.TickMsg:
		if !s.busy() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		if key.Matches(msg, backKey) {
			return s, navigate(RouteHome, model.ID{}, "")
		}
		if s.busy() {
			return s, nil
		}
	}

	cmd, submit := s.form.update(msg)
	if submit {
		return s, s.submit()
	}
	return s, cmd
}

func (s *specFormScreen) submit() tea.Cmd {
	spec := s.Specification()
	id := s.id
	cmd := s.save.Submit(spec.Validate, func(ctx context.Context) (*model.Specification, error) {
		return s.deps.backend.SaveSpecification(ctx, id, spec)
	})
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, s.spinner.Tick)
}

// fieldErrors returns the field-keyed messages to echo under the inputs plus a
// form-level line.
func (s *specFormScreen) fieldErrors() (model.FieldErrors, string) {
	if !s.save.Failed() {
		return nil, ""
	}
	fe := api.FieldErrorsOf(s.save.Err())
	if fe == nil {
		return nil, unexpectedErrorText
	}
	msg := fe[model.MessageKey]
	if msg == "" && fe.Field("name") == "" && fe.Field("description") == "" {
		msg = fe.Error()
	}
	return fe, msg
}

func (s *specFormScreen) View() string {
	t := ui.Current()
	title, button := specFormTitle, specCreateButton
	if !s.id.IsZero() {
		title, button = specEditTitle, specUpdateButton
	}

	if s.load.Loading() {
		return t.Title.Render(title) + "\n\n" + ui.Loading(s.spinner.View())
	}

	fe, formMsg := s.fieldErrors()
	out := s.form.view(title, button, fe, s.busy())

	var status string
	switch {
	case s.load.Failed():
		status = ui.ErrorLine(specLoadError + " " + api.Describe(s.load.Err()))
	case s.load.Empty():
		status = ui.NoData(specNotFound)
	}
	switch {
	case s.save.Loading():
		status = ui.Loading(s.spinner.View())
	case formMsg != "":
		status = ui.ErrorLine(formMsg)
	case s.save.Succeeded():
		status = t.Success.Render(t.SymOK + " " + specSaved)
	}
	if status != "" {
		out = status + "\n\n" + out
	}
	return out
}
