package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// form is the two-field layout shared by the specification and test
// screens: a one-line input, a multi-line description and a submit button.
type form struct {
	first       textinput.Model
	firstName   string
	firstLabel  string
	description textarea.Model
	focus       int // 0 first, 1 description, 2 button
	help        help.Model
}

const (
	focusFirst = iota
	focusDescription
	focusButton
)

type formKeys struct{}

func (formKeys) ShortHelp() []key.Binding {
	return []key.Binding{nextKey, submitKey, backKey}
}

func (formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{nextKey, prevKey, submitKey, backKey, quitKey}}
}

func newForm(firstName, firstLabel, placeholder, descPlaceholder string) form {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = descPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(5)
	ta.Blur()

	h := help.New()
	h.Styles.ShortKey = ui.Current().Help
	h.Styles.ShortDesc = ui.Current().Help

	return form{
		first:       ti,
		firstName:   firstName,
		firstLabel:  firstLabel,
		description: ta,
		help:        h,
	}
}

func (f *form) setSize(width int) {
	f.first.Width = max(width-4, 10)
	f.description.SetWidth(max(width-2, 10))
}

func (f *form) setValues(first, description string) {
	f.first.SetValue(first)
	f.first.CursorEnd()
	f.description.SetValue(description)
}

func (f *form) values() (string, string) {
	return strings.TrimSpace(f.first.Value()), strings.TrimSpace(f.description.Value())
}

func (f *form) setFocus(i int) {
	f.focus = (i + 3) % 3
	f.first.Blur()
	f.description.Blur()
	switch f.focus {
	case focusFirst:
		f.first.Focus()
	case focusDescription:
		f.description.Focus()
	}
}

// update handles navigation and editing keys. submit reports that the user
// asked to send the form.
func (f *form) update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, submitKey):
			return nil, true
		case key.Matches(km, nextKey):
			f.setFocus(f.focus + 1)
			return nil, false
		case key.Matches(km, prevKey):
			f.setFocus(f.focus - 1)
			return nil, false
		case km.String() == "enter" && f.focus == focusFirst:
			f.setFocus(focusDescription)
			return nil, false
		case km.String() == "enter" && f.focus == focusButton:
			return nil, true
		}
	}
	switch f.focus {
	case focusFirst:
		f.first, cmd = f.first.Update(msg)
	case focusDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return cmd, false
}

// view renders the fields with per-field messages under them. disabled dims
// the whole form while a request is in flight.
func (f *form) view(title, button string, errs model.FieldErrors, disabled bool) string {
	t := ui.Current()
	var b strings.Builder

	heading := t.Title
	if disabled {
		heading = heading.Faint(true)
	}
	b.WriteString(heading.Render(title) + "\n\n")

	b.WriteString(t.Label.Render(f.firstLabel+":") + "\n")
	b.WriteString(f.first.View() + "\n")
	if msg := errs.Field(f.firstName); msg != "" {
		b.WriteString(t.Error.Render(msg) + "\n")
	}
	b.WriteString("\n" + t.Label.Render("Description:") + "\n")
	b.WriteString(f.description.View() + "\n")
	if msg := errs.Field("description"); msg != "" {
		b.WriteString(t.Error.Render(msg) + "\n")
	}

	btn := "[ " + button + " ]"
	switch {
	case disabled:
		btn = t.Muted.Render(btn)
	case f.focus == focusButton:
		btn = t.Selected.Render(btn)
	default:
		btn = t.Accent.Render(btn)
	}
	b.WriteString("\n" + btn + "\n\n")
	b.WriteString(f.help.View(formKeys{}))
	return b.String()
}
