package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/api"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/ui/views"
)

// App is the root model. It owns the active view and swaps between the
// login form and the board as the session comes and goes.
type App struct {
	gw   *api.Client
	st   *store.Store
	sess *session.Session

	current tea.Model
	width   int
	height  int
}

// NewApp creates the application, starting on the board when a persisted
// session is still valid.
func NewApp(gw *api.Client, st *store.Store, sess *session.Session) *App {
	app := &App{gw: gw, st: st, sess: sess}
	if sess.Active() {
		app.current = views.NewBoardView(gw, st, sess)
	} else {
		app.current = views.NewLoginView(gw)
	}
	return app
}

func (a *App) Init() tea.Cmd {
	return a.current.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case views.LoggedIn:
		if err := a.sess.Begin(msg.Token, msg.User); err != nil {
			var cmd tea.Cmd
			a.current, cmd = a.current.Update(views.SessionFailed{Err: err})
			return a, cmd
		}
		return a.swap(views.NewBoardView(a.gw, a.st, a.sess))

	case views.LoggedOut:
		return a.swap(views.NewLoginView(a.gw))
	}

	var cmd tea.Cmd
	a.current, cmd = a.current.Update(msg)
	return a, cmd
}

// swap replaces the active view and replays the terminal size so the new
// view can lay itself out immediately.
func (a *App) swap(next tea.Model) (tea.Model, tea.Cmd) {
	a.current = next
	initCmd := a.current.Init()
	var sizeCmd tea.Cmd
	a.current, sizeCmd = a.current.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return a, tea.Batch(initCmd, sizeCmd)
}

func (a *App) View() string {
	return a.current.View()
}
