package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/fetch"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

const (
	specListTitle     = "Business Specifications"
	specListLoadError = "Failed to load specifications."
	specListEmpty     = "No specifications yet."
)

type specItem struct{ model.Specification }

func (i specItem) FilterValue() string { return i.Name }

type specDelegate struct{}

func (d specDelegate) Height() int                             { return 2 }
func (d specDelegate) Spacing() int                            { return 1 }
func (d specDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d specDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(specItem)
	t := ui.Current()
	prefix := "  "
	name := it.Name
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
		name = t.Accent.Render(name)
	}
	desc := ui.Truncate(it.Description, max(m.Width()-6, 10))
	fmt.Fprintf(w, "%s%s %s\n    %s", prefix, t.Muted.Render("#"+it.ID.String()), name, t.Muted.Render(desc))
}

// specListScreen browses the specifications; enter opens one in the form.
type specListScreen struct {
	deps    deps
	ctl     *fetch.Controller[model.SpecificationList]
	list    list.Model
	spinner spinner.Model
	load    tea.Cmd
}

func newSpecListScreen(d deps) *specListScreen {
	l := list.New(nil, specDelegate{}, 80, 20)
	l.Title = specListTitle
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Help
	l.SetStatusBarItemName("specification", "specifications")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{openKey, newKey, backKey} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{openKey, newKey, retryKey, backKey} }

	s := &specListScreen{
		deps: d,
		ctl: fetch.New("specifications",
			fetch.WithContext[model.SpecificationList](d.ctx),
			fetch.WithLogger[model.SpecificationList](d.logger)),
		list:    l,
		spinner: newSpinner(),
	}
	s.load = s.fetch()
	return s
}

func (s *specListScreen) fetch() tea.Cmd {
	return s.ctl.Load(func(ctx context.Context) (model.SpecificationList, error) {
		return s.deps.backend.ListSpecifications(ctx)
	})
}

func (s *specListScreen) Init() tea.Cmd { return tea.Batch(s.load, s.spinner.Tick) }

func (s *specListScreen) Dismiss() { s.ctl.Cancel() }

func (s *specListScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if s.ctl.Apply(msg) {
		if s.ctl.Failed() {
			s.deps.logger.Warn("Failed to load specifications", "error", s.ctl.Err())
		}
		specs := s.ctl.Data().Specifications
		items := make([]list.Item, 0, len(specs))
		for _, sp := range specs {
			items = append(items, specItem{sp})
		}
		s.list.SetItems(items)
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
		case key.Matches(msg, newKey):
			return s, navigate(RouteSpecForm, model.ID{}, "")
		case key.Matches(msg, openKey):
			if it, ok := s.list.SelectedItem().(specItem); ok {
				return s, navigate(RouteSpecForm, it.ID, "")
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

func (s *specListScreen) View() string {
	t := ui.Current()
	switch {
	case s.ctl.Loading():
		return t.Title.Render(specListTitle) + "\n\n" + ui.Loading(s.spinner.View())
	case s.ctl.Failed():
		return t.Title.Render(specListTitle) + "\n\n" +
			ui.ErrorLine(specListLoadError+" "+api.Describe(s.ctl.Err())) +
			"\n\n" + t.Help.Render("r retry • esc back")
	case s.ctl.Empty():
		return t.Title.Render(specListTitle) + "\n\n" + ui.NoData(specListEmpty) +
			"\n\n" + t.Help.Render("n new • esc back")
	case s.ctl.Succeeded():
		return s.list.View()
	}
	return ""
}
