package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/model"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	specs model.SpecificationList
	spec  *model.Specification
	reqs  model.RequirementList
	err   error

	saved []model.Specification
	tests []model.Test

	// bareUpdates makes update replies come back without an id.
	bareUpdates bool
	sentIDs     []model.ID
}

func newFake() *fakeBackend { return &fakeBackend{calls: map[string]int{}} }

func (f *fakeBackend) hit(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) ListSpecifications(ctx context.Context) (model.SpecificationList, error) {
	if err := f.hit(ctx, "ListSpecifications"); err != nil {
		return model.SpecificationList{}, err
	}
	return f.specs, nil
}

func (f *fakeBackend) GetSpecification(ctx context.Context, _ model.ID) (*model.Specification, error) {
	if err := f.hit(ctx, "GetSpecification"); err != nil {
		return nil, err
	}
	return f.spec, nil
}

func (f *fakeBackend) SaveSpecification(ctx context.Context, id model.ID, s model.Specification) (*model.Specification, error) {
	if err := f.hit(ctx, "SaveSpecification"); err != nil {
		return nil, err
	}
	f.sentIDs = append(f.sentIDs, id)
	if !id.IsZero() && f.bareUpdates {
		return &model.Specification{Name: s.Name, Description: s.Description}, nil
	}
	if id.IsZero() {
		id = model.NumericID(int64(len(f.saved) + 1))
	}
	s.ID = id
	f.saved = append(f.saved, s)
	return &s, nil
}

func (f *fakeBackend) ListRequirements(ctx context.Context) (model.RequirementList, error) {
	if err := f.hit(ctx, "ListRequirements"); err != nil {
		return model.RequirementList{}, err
	}
	return f.reqs, nil
}

func (f *fakeBackend) CreateTest(ctx context.Context, t model.Test) (*model.Test, error) {
	if err := f.hit(ctx, "CreateTest"); err != nil {
		return nil, err
	}
	t.ID = model.StringID("t-1")
	f.tests = append(f.tests, t)
	return &t, nil
}

func testDeps(b Backend) deps {
	return deps{
		ctx:     context.Background(),
		backend: b,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// collect runs cmd once, expanding batches, and returns the messages it
// produced. Spinner ticks are left out.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

// exec feeds the results of cmd back into s, following any commands that
// produces, and returns navigation requests instead of applying them.
func exec(s Screen, cmd tea.Cmd) (Screen, []NavigateMsg) {
	var navs []NavigateMsg
	for _, msg := range collect(cmd) {
		if nav, ok := msg.(NavigateMsg); ok {
			navs = append(navs, nav)
			continue
		}
		var next tea.Cmd
		s, next = s.Update(msg)
		var more []NavigateMsg
		s, more = exec(s, next)
		navs = append(navs, more...)
	}
	return s, navs
}

func press(s Screen, k string) (Screen, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return s.Update(msg)
}

func sampleRequirements() model.RequirementList {
	return model.RequirementList{Requirements: []model.Requirement{
		{ID: model.NumericID(1), Name: "Collect invoices", Description: "Monthly export"},
		{ID: model.NumericID(2), Name: "Audit trail", Description: "Keep history", IsCompleted: true},
	}}
}

func TestRequirementsShowsLoadingFirst(t *testing.T) {
	fb := newFake()
	fb.reqs = sampleRequirements()
	s := newRequirementsScreen(testDeps(fb))

	assert.Contains(t, s.View(), "Loading...")
	assert.Equal(t, 0, fb.total(), "no response applied yet")
}

func TestRequirementsRendersRows(t *testing.T) {
	fb := newFake()
	fb.reqs = sampleRequirements()
	var s Screen = newRequirementsScreen(testDeps(fb))
	s, _ = exec(s, s.Init())

	view := s.View()
	assert.Contains(t, view, "Collect invoices")
	assert.Contains(t, view, "Monthly export")
	assert.Contains(t, view, "Mark as completed")
	assert.Contains(t, view, "Unmark as completed")
	assert.NotContains(t, view, "Loading...")
	assert.Equal(t, 1, fb.count("ListRequirements"))
}

func TestRequirementsEmptyIsNotAnError(t *testing.T) {
	fb := newFake()
	var s Screen = newRequirementsScreen(testDeps(fb))
	s, _ = exec(s, s.Init())

	view := s.View()
	assert.Contains(t, view, "No requirements found.")
	assert.NotContains(t, view, "Failed to load requirements.")
}

func TestRequirementsErrorIsDistinct(t *testing.T) {
	fb := newFake()
	fb.err = fmt.Errorf("%w: connection refused", api.ErrTransport)
	var s Screen = newRequirementsScreen(testDeps(fb))
	s, _ = exec(s, s.Init())

	view := s.View()
	assert.Contains(t, view, "Failed to load requirements.")
	assert.NotContains(t, view, "No requirements found.")

	fb.err = nil
	fb.reqs = sampleRequirements()
	s, cmd := press(s, "r")
	require.NotNil(t, cmd)
	assert.Contains(t, s.View(), "Loading...")
	s, _ = exec(s, cmd)
	assert.Contains(t, s.View(), "Collect invoices")
	assert.Equal(t, 2, fb.count("ListRequirements"))
}

func TestRequirementsToggleIsLocal(t *testing.T) {
	fb := newFake()
	fb.reqs = sampleRequirements()
	var s Screen = newRequirementsScreen(testDeps(fb))
	s, _ = exec(s, s.Init())
	require.Equal(t, 1, fb.total())

	s, cmd := press(s, " ")
	assert.Nil(t, cmd)

	rs := s.(*requirementsScreen).Requirements()
	assert.True(t, rs[0].IsCompleted)
	assert.Equal(t, "Unmark as completed", ActionLabel(rs[0]))
	assert.True(t, rs[1].IsCompleted, "other rows untouched")

	s, _ = press(s, "enter")
	rs = s.(*requirementsScreen).Requirements()
	assert.False(t, rs[0].IsCompleted)
	assert.Equal(t, "Mark as completed", ActionLabel(rs[0]))

	assert.Equal(t, 1, fb.total(), "toggling never reaches the backend")
}

func TestSpecFormCreate(t *testing.T) {
	fb := newFake()
	var s Screen = newSpecFormScreen(testDeps(fb), model.ID{})
	assert.Nil(t, s.Init(), "create form loads nothing")

	view := s.View()
	assert.Contains(t, view, "Create Business Specification")
	assert.Contains(t, view, "Create Specification")
	assert.NotContains(t, view, "Loading...")

	sf := s.(*specFormScreen)
	sf.form.setValues("Billing", "Monthly boxes")
	s, cmd := press(s, "ctrl+s")
	require.NotNil(t, cmd)
	assert.Contains(t, s.View(), "Loading...")

	s, _ = exec(s, cmd)
	require.Len(t, fb.saved, 1)
	assert.Equal(t, "Billing", fb.saved[0].Name)

	view = s.View()
	assert.Contains(t, view, "Specification saved.")
	assert.Contains(t, view, "Update Specification", "a created specification is edited from then on")

	s, cmd = press(s, "ctrl+s")
	s, _ = exec(s, cmd)
	require.Len(t, fb.saved, 2)
	assert.Equal(t, "1", fb.saved[1].ID.String())
}

func TestSpecFormMissingFieldSendsNothing(t *testing.T) {
	fb := newFake()
	var s Screen = newSpecFormScreen(testDeps(fb), model.ID{})
	s.(*specFormScreen).form.setValues("Billing", "")

	s, cmd := press(s, "ctrl+s")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, fb.total())

	view := s.View()
	assert.Contains(t, view, "Description is required.")
	assert.Contains(t, view, "Name and description are required.")
	assert.NotContains(t, view, "Name is required.")
}

func TestSpecFormEditLoads(t *testing.T) {
	fb := newFake()
	fb.spec = &model.Specification{ID: model.NumericID(7), Name: "Onboarding", Description: "First box"}
	var s Screen = newSpecFormScreen(testDeps(fb), model.NumericID(7))

	assert.Contains(t, s.View(), "Loading...")
	s, _ = exec(s, s.Init())

	sf := s.(*specFormScreen)
	assert.Equal(t, "Onboarding", sf.Specification().Name)
	assert.Equal(t, "First box", sf.Specification().Description)
	view := s.View()
	assert.Contains(t, view, "Edit Business Specification")
	assert.Contains(t, view, "Update Specification")
}

func TestSpecFormEditKeepsIDWhenReplyHasNone(t *testing.T) {
	fb := newFake()
	fb.bareUpdates = true
	fb.spec = &model.Specification{ID: model.NumericID(7), Name: "Onboarding", Description: "First box"}
	var s Screen = newSpecFormScreen(testDeps(fb), model.NumericID(7))
	s, _ = exec(s, s.Init())

	for range 2 {
		var cmd tea.Cmd
		s, cmd = press(s, "ctrl+s")
		require.NotNil(t, cmd)
		s, _ = exec(s, cmd)
	}

	require.Len(t, fb.sentIDs, 2)
	assert.Equal(t, "7", fb.sentIDs[0].String())
	assert.Equal(t, "7", fb.sentIDs[1].String(), "second submit is still an update")
	assert.Contains(t, s.View(), "Update Specification")
	assert.Contains(t, s.View(), "Specification saved.")
}

func TestSpecFormNotFound(t *testing.T) {
	fb := newFake()
	var s Screen = newSpecFormScreen(testDeps(fb), model.NumericID(9))
	s, _ = exec(s, s.Init())

	view := s.View()
	assert.Contains(t, view, "Specification not found.")
	assert.NotContains(t, view, "Failed to load specification.")
}

func TestSpecFormErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend field message", &api.StatusError{Status: 400, Fields: model.FieldErrors{"name": "Name already taken."}}, "Name already taken."},
		{"backend message", &api.StatusError{Status: 500, Fields: model.FieldErrors{model.MessageKey: "Database down."}}, "Database down."},
		{"transport", fmt.Errorf("%w: refused", api.ErrTransport), "An unexpected error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFake()
			fb.err = tt.err
			var s Screen = newSpecFormScreen(testDeps(fb), model.ID{})
			s.(*specFormScreen).form.setValues("Billing", "Monthly boxes")
			s, cmd := press(s, "ctrl+s")
			s, _ = exec(s, cmd)

			assert.Contains(t, s.View(), tt.want)
			assert.Equal(t, 1, fb.count("SaveSpecification"))
		})
	}
}

func TestSpecFormLoadFailure(t *testing.T) {
	fb := newFake()
	fb.err = &api.StatusError{Status: 500, Fields: model.FieldErrors{model.MessageKey: "Internal Server Error"}}
	var s Screen = newSpecFormScreen(testDeps(fb), model.NumericID(3))
	s, _ = exec(s, s.Init())

	view := s.View()
	assert.Contains(t, view, "Failed to load specification.")
	assert.NotContains(t, view, "Specification not found.")
}

func TestTestForm(t *testing.T) {
	fb := newFake()
	var s Screen = newTestFormScreen(testDeps(fb))
	view := s.View()
	assert.Contains(t, view, "Create a New Test")
	assert.Contains(t, view, "Create Test")

	s, cmd := press(s, "ctrl+s")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, fb.total())
	assert.Contains(t, s.View(), "Title and description are required.")

	s.(*testFormScreen).form.setValues("Login works", "Given a user")
	s, cmd = press(s, "ctrl+s")
	require.NotNil(t, cmd)
	assert.Contains(t, s.View(), "Creating...")

	_, navs := exec(s, cmd)
	require.Len(t, navs, 1)
	assert.Equal(t, RouteHome, navs[0].To)
	assert.Equal(t, "Test created.", navs[0].Flash)
	require.Len(t, fb.tests, 1)
	assert.Equal(t, "Login works", fb.tests[0].Title)
}

func TestTestFormBackendFailure(t *testing.T) {
	fb := newFake()
	fb.err = &api.StatusError{Status: 422, Fields: model.FieldErrors{"title": "Duplicate title."}}
	var s Screen = newTestFormScreen(testDeps(fb))
	s.(*testFormScreen).form.setValues("Login works", "Given a user")
	s, cmd := press(s, "ctrl+s")
	s, navs := exec(s, cmd)

	assert.Empty(t, navs)
	view := s.View()
	assert.Contains(t, view, "Failed to create the test. Please try again.")
	assert.Contains(t, view, "Create Test")
}

func TestSpecListOpensForm(t *testing.T) {
	fb := newFake()
	fb.specs = model.SpecificationList{Specifications: []model.Specification{
		{ID: model.NumericID(4), Name: "Billing", Description: "Monthly boxes"},
	}}
	var s Screen = newSpecListScreen(testDeps(fb))
	assert.Contains(t, s.View(), "Loading...")
	s, _ = exec(s, s.Init())
	assert.Contains(t, s.View(), "Billing")

	_, cmd := press(s, "enter")
	_, navs := exec(s, cmd)
	require.Len(t, navs, 1)
	assert.Equal(t, RouteSpecForm, navs[0].To)
	assert.Equal(t, "4", navs[0].ID.String())

	_, cmd = press(s, "n")
	_, navs = exec(s, cmd)
	require.Len(t, navs, 1)
	assert.True(t, navs[0].ID.IsZero())
}

func TestSpecListEmpty(t *testing.T) {
	fb := newFake()
	var s Screen = newSpecListScreen(testDeps(fb))
	s, _ = exec(s, s.Init())
	assert.Contains(t, s.View(), "No specifications yet.")
}

func TestDismissDropsInFlightResult(t *testing.T) {
	fb := newFake()
	fb.specs = model.SpecificationList{Specifications: []model.Specification{{ID: model.NumericID(1), Name: "Billing"}}}
	var s Screen = newSpecListScreen(testDeps(fb))
	cmd := s.Init()
	s.Dismiss()

	s, _ = exec(s, cmd)
	ls := s.(*specListScreen)
	assert.False(t, ls.ctl.Succeeded())
	assert.Empty(t, ls.list.Items())
}

func TestAppNavigation(t *testing.T) {
	fb := newFake()
	fb.reqs = sampleRequirements()
	app := NewApp(context.Background(), fb, Options{Start: RouteRequirements})
	assert.Contains(t, app.View(), "Loading...")

	pending := app.Init()

	m, cmd := app.Update(NavigateMsg{To: RouteHome, Flash: "Back."})
	app = m.(App)
	assert.Nil(t, cmd)
	_, ok := app.Screen().(*homeScreen)
	require.True(t, ok)

	// The requirements result arrives after the screen was left.
	for _, msg := range collect(pending) {
		m, _ = app.Update(msg)
		app = m.(App)
	}
	view := app.View()
	assert.Contains(t, view, "SkillBoxGen")
	assert.Contains(t, view, "Back.")
	assert.NotContains(t, view, "Collect invoices")

	m, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	require.NotNil(t, cmd)
	nav, ok := cmd().(NavigateMsg)
	require.True(t, ok)
	assert.Equal(t, RouteSpecForm, nav.To)

	m, _ = app.Update(nav)
	app = m.(App)
	_, ok = app.Screen().(*specFormScreen)
	assert.True(t, ok)
}

func TestAppQuit(t *testing.T) {
	app := NewApp(context.Background(), newFake(), Options{})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestEscGoesHome(t *testing.T) {
	fb := newFake()
	for _, s := range []Screen{
		newRequirementsScreen(testDeps(fb)),
		newSpecListScreen(testDeps(fb)),
		newSpecFormScreen(testDeps(fb), model.ID{}),
		newTestFormScreen(testDeps(fb)),
	} {
		_, cmd := press(s, "esc")
		require.NotNil(t, cmd)
		nav, ok := cmd().(NavigateMsg)
		require.True(t, ok)
		assert.Equal(t, RouteHome, nav.To)
	}
}
