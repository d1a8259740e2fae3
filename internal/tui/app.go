package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// App hosts the active screen and handles navigation between screens.
type App struct {
	deps   deps
	screen Screen
	width  int
	height int
}

// Options tune how the program is started.
type Options struct {
	Start     Route
	ID        model.ID
	AltScreen bool
	Logger    *slog.Logger
	// Input and Output override the terminal, mostly for tests.
	Input  io.Reader
	Output io.Writer
}

// NewApp builds the root model with the start screen already opened, so the
// first frame already shows that screen's loading state.
func NewApp(ctx context.Context, backend Backend, opt Options) App {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := App{deps: deps{ctx: ctx, backend: backend, logger: logger}, width: 80, height: 24}
	a.screen = a.open(NavigateMsg{To: opt.Start, ID: opt.ID})
	return a
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, backend Backend, opt Options) error {
	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opt.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opt.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opt.Input))
	}
	if opt.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opt.Output))
	}
	p := tea.NewProgram(NewApp(ctx, backend, opt), progOpts...)
	final, err := p.Run()
	if fm, ok := final.(App); ok && fm.screen != nil {
		fm.screen.Dismiss()
	}
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Screen returns the active screen.
func (a App) Screen() Screen { return a.screen }

func (a App) Init() tea.Cmd { return a.screen.Init() }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.screen.Dismiss()
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		var cmd tea.Cmd
		a.screen, cmd = a.screen.Update(a.innerSize())
		return a, cmd
	case NavigateMsg:
		a.screen.Dismiss()
		a.deps.logger.Debug("Navigate", "route", msg.To, "id", msg.ID.String())
		a.screen = a.open(msg)
		return a, a.screen.Init()
	}
	var cmd tea.Cmd
	a.screen, cmd = a.screen.Update(msg)
	return a, cmd
}

func (a App) View() string {
	t := ui.Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Width(max(a.width-2, 20)).
		Render(a.screen.View())
}

func (a App) open(msg NavigateMsg) Screen {
	var s Screen
	switch msg.To {
	case RouteSpecList:
		s = newSpecListScreen(a.deps)
	case RouteSpecForm:
		s = newSpecFormScreen(a.deps, msg.ID)
	case RouteRequirements:
		s = newRequirementsScreen(a.deps)
	case RouteTestForm:
		s = newTestFormScreen(a.deps)
	default:
		s = newHomeScreen(msg.Flash)
	}
	s, _ = s.Update(a.innerSize())
	return s
}

// innerSize leaves room for App's frame.
func (a App) innerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: max(a.width-4, 16), Height: max(a.height-2, 6)}
}
