// Package tui is the interactive front-end: one Bubble Tea screen per
// resource view, switched by App.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// Backend is what the screens need from the REST client.
type Backend interface {
	ListSpecifications(ctx context.Context) (model.SpecificationList, error)
	GetSpecification(ctx context.Context, id model.ID) (*model.Specification, error)
	SaveSpecification(ctx context.Context, id model.ID, s model.Specification) (*model.Specification, error)
	ListRequirements(ctx context.Context) (model.RequirementList, error)
	CreateTest(ctx context.Context, t model.Test) (*model.Test, error)
}

// Screen is the unit of composition; each screen owns its own state and
// fetch controllers.
type Screen interface {
	Init() tea.Cmd
	Update(tea.Msg) (Screen, tea.Cmd)
	View() string
	// Dismiss is called when the screen is left; in-flight requests are
	// cancelled and their results dropped.
	Dismiss()
}

// Route names a screen.
type Route int

const (
	RouteHome Route = iota
	RouteSpecList
	RouteSpecForm
	RouteRequirements
	RouteTestForm
)

// NavigateMsg asks App to switch screens.
type NavigateMsg struct {
	To    Route
	ID    model.ID
	Flash string
}

func navigate(to Route, id model.ID, flash string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: to, ID: id, Flash: flash} }
}

// deps are shared by every screen.
type deps struct {
	ctx     context.Context
	backend Backend
	logger  *slog.Logger
}

var (
	backKey   = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	retryKey  = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry"))
	quitKey   = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	submitKey = key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit"))
	nextKey   = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field"))
	prevKey   = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field"))
	toggleKey = key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle completed"))
	openKey   = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
	newKey    = key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new"))
)

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.Current().Accent
	return s
}

func asStatus(err error, target **api.StatusError) bool { return errors.As(err, target) }
