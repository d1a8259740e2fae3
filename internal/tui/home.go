package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

const (
	appTitle   = "SkillBoxGen"
	appTagline = "SkillBoxGen offers personalized monthly subscription boxes tailored to the specific needs of small business owners and startups, filled with tools, services, and resources curated by industry experts."
)

// menuItem adapts a destination to bubbles/list.Item
type menuItem struct {
	label string
	hint  string
	route Route
}

func (i menuItem) FilterValue() string { return i.label }

// Custom delegate to control how entries render (single line)
type menuDelegate struct{}

func (d menuDelegate) Height() int                             { return 1 }
func (d menuDelegate) Spacing() int                            { return 0 }
func (d menuDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d menuDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(menuItem)
	t := ui.Current()
	prefix := "  "
	label := it.label
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
		label = t.Accent.Render(label)
	}
	fmt.Fprintf(w, "%s%s  %s", prefix, label, t.Muted.Render(it.hint))
}

type homeScreen struct {
	list  list.Model
	flash string
}

func newHomeScreen(flash string) *homeScreen {
	items := []list.Item{
		menuItem{label: "Create Business Specification", hint: "new specification form", route: RouteSpecForm},
		menuItem{label: "Business Specifications", hint: "browse and edit", route: RouteSpecList},
		menuItem{label: "Gather Requirements", hint: "review and mark completed", route: RouteRequirements},
		menuItem{label: "Write Tests", hint: "create a new test", route: RouteTestForm},
	}
	l := list.New(items, menuDelegate{}, 80, 10)
	l.Title = appTitle
	l.Styles.Title = ui.Current().Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.Styles.HelpStyle = ui.Current().Help
	return &homeScreen{list: l, flash: flash}
}

func (s *homeScreen) Init() tea.Cmd { return nil }

func (s *homeScreen) Dismiss() {}

func (s *homeScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.list.SetSize(msg.Width, max(msg.Height-4, 6))
		return s, nil
	case tea.KeyMsg:
		switch {
		case msg.String() == "q":
			return s, tea.Quit
		case key.Matches(msg, openKey):
			if it, ok := s.list.SelectedItem().(menuItem); ok {
				return s, navigate(it.route, model.ID{}, "")
			}
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *homeScreen) View() string {
	t := ui.Current()
	out := t.Muted.Render(appTagline) + "\n\n" + s.list.View()
	if s.flash != "" {
		out = t.Success.Render(t.SymOK+" "+s.flash) + "\n" + out
	}
	return out
}
