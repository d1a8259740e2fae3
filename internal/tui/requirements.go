package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/fetch"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

const (
	requirementsTitle     = "Gather Requirements"
	requirementsLoadError = "Failed to load requirements."
	requirementsEmpty     = "No requirements found."
	markLabel             = "Mark as completed"
	unmarkLabel           = "Unmark as completed"
)

// ActionLabel is the toggle control text for a requirement.
func ActionLabel(r model.Requirement) string {
	if r.IsCompleted {
		return unmarkLabel
	}
	return markLabel
}

// reqItem adapts a Requirement to bubbles/list.Item
type reqItem struct{ model.Requirement }

func (i reqItem) FilterValue() string { return i.Name }

// Two-line rows: checkbox, name and toggle control, then the description.
type reqDelegate struct{}

func (d reqDelegate) Height() int                             { return 2 }
func (d reqDelegate) Spacing() int                            { return 1 }
func (d reqDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d reqDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(reqItem)
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	name := it.Name
	action := t.Pending.Render("[" + ActionLabel(it.Requirement) + "]")
	if it.IsCompleted {
		box = t.Success.Render(t.BoxChecked)
		name = t.Done.Render(it.Name)
		action = t.Success.Render("[" + ActionLabel(it.Requirement) + "]")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	desc := ui.Truncate(it.Description, max(m.Width()-6, 10))
	fmt.Fprintf(w, "%s%s %s  %s\n    %s", prefix, box, name, action, t.Muted.Render(desc))
}

type requirementsScreen struct {
	deps    deps
	ctl     *fetch.Controller[model.RequirementList]
	list    list.Model
	spinner spinner.Model
	load    tea.Cmd
}

func newRequirementsScreen(d deps) *requirementsScreen {
	l := list.New(nil, reqDelegate{}, 80, 20)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("requirement", "requirements")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{toggleKey, backKey} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{toggleKey, retryKey, backKey} }

	s := &requirementsScreen{
		deps: d,
		ctl: fetch.New("requirements",
			fetch.WithContext[model.RequirementList](d.ctx),
			fetch.WithLogger[model.RequirementList](d.logger)),
		list:    l,
		spinner: newSpinner(),
	}
	s.load = s.fetch()
	return s
}

func (s *requirementsScreen) fetch() tea.Cmd {
	return s.ctl.Load(func(ctx context.Context) (model.RequirementList, error) {
		return s.deps.backend.ListRequirements(ctx)
	})
}

func (s *requirementsScreen) Init() tea.Cmd { return tea.Batch(s.load, s.spinner.Tick) }

func (s *requirementsScreen) Dismiss() { s.ctl.Cancel() }

// Requirements exposes the held list, including local toggles.
func (s *requirementsScreen) Requirements() []model.Requirement {
	return s.ctl.Data().Requirements
}

func (s *requirementsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if s.ctl.Apply(msg) {
		if s.ctl.Failed() {
			s.deps.logger.Warn("Failed to load requirements", "error", s.ctl.Err())
		}
		s.sync()
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.list.SetSize(msg.Width, max(msg.Height-1, 6))
		return s, nil
	case spinner.TickMsg:
		if !s.ctl.Loading() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		if s.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, backKey):
			if s.list.FilterState() == list.FilterApplied {
				break
			}
			return s, navigate(RouteHome, model.ID{}, "")
		case s.ctl.Loading():
			return s, nil
		case key.Matches(msg, retryKey) && s.ctl.Failed():
			return s, tea.Batch(s.fetch(), s.spinner.Tick)
		case key.Matches(msg, toggleKey), msg.String() == "enter":
			if it, ok := s.list.SelectedItem().(reqItem); ok {
				s.toggle(it.ID)
			}
			return s, nil
		}
	}

	if !s.ctl.Succeeded() {
		return s, nil
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

// toggle flips one requirement locally; nothing is sent to the backend.
func (s *requirementsScreen) toggle(id model.ID) {
	s.ctl.Update(func(l *model.RequirementList) { l.Toggle(id) })
	for i, li := range s.list.Items() {
		it, ok := li.(reqItem)
		if !ok || !it.ID.Equal(id) {
			continue
		}
		for _, r := range s.ctl.Data().Requirements {
			if r.ID.Equal(id) {
				s.list.SetItem(i, reqItem{r})
			}
		}
	}
	s.refreshTitle()
}

func (s *requirementsScreen) sync() {
	reqs := s.ctl.Data().Requirements
	items := make([]list.Item, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, reqItem{r})
	}
	s.list.SetItems(items)
	s.refreshTitle()
}

// Header title with live counts
func (s *requirementsScreen) refreshTitle() {
	t := ui.Current()
	done, pending := s.ctl.Data().Stats()
	s.list.Title = fmt.Sprintf("%s   %s %d  %s %d   %s",
		requirementsTitle,
		t.Success.Render(t.SymOK), done,
		t.Pending.Render("•"), pending,
		t.Muted.Render(ui.ProgressBar(done, done+pending, 16)),
	)
}

func (s *requirementsScreen) View() string {
	t := ui.Current()
	switch {
	case s.ctl.Loading():
		return t.Title.Render(requirementsTitle) + "\n\n" + ui.Loading(s.spinner.View())
	case s.ctl.Failed():
		return t.Title.Render(requirementsTitle) + "\n\n" + ui.ErrorLine(requirementsLoadError) +
			"\n\n" + t.Help.Render("r retry • esc back")
	case s.ctl.Empty():
		return t.Title.Render(requirementsTitle) + "\n\n" + ui.NoData(requirementsEmpty) +
			"\n\n" + t.Help.Render("esc back")
	case s.ctl.Succeeded():
		return s.list.View()
	}
	return ""
}
