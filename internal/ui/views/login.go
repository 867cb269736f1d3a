package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/models"
	"taskdeck/internal/ui/keys"
	"taskdeck/internal/ui/styles"
)

// LoggedIn signals a successful login or registration.
type LoggedIn struct {
	Token string
	User  models.User
}

// SessionFailed reports that freshly issued credentials could not be
// persisted, so the session never began.
type SessionFailed struct {
	Err error
}

type authResultMsg struct {
	token string
	user  models.User
	err   error
}

// LoginView collects credentials and exchanges them for a session.
type LoginView struct {
	gw     *api.Client
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	registering bool
	focusIdx    int // 0=username, 1=email, 2=full name, 3=password, 4=submit
	username    textinput.Model
	email       textinput.Model
	fullName    textinput.Model
	password    textinput.Model

	submitting bool
	errMsg     string
}

// NewLoginView creates the login form
func NewLoginView(gw *api.Client) *LoginView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 100
	username.Focus()

	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 200

	fullName := textinput.New()
	fullName.Placeholder = "Full name (optional)"
	fullName.CharLimit = 200

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 200
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginView{
		gw:       gw,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		email:    email,
		fullName: fullName,
		password: password,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// fieldCount returns the number of focusable slots including the submit button
func (v *LoginView) fieldCount() int {
	if v.registering {
		return 5
	}
	return 3 // username, password, submit
}

// inputAt maps a focus slot to its input, nil for the submit button
func (v *LoginView) inputAt(idx int) *textinput.Model {
	if v.registering {
		switch idx {
		case 0:
			return &v.username
		case 1:
			return &v.email
		case 2:
			return &v.fullName
		case 3:
			return &v.password
		}
		return nil
	}
	switch idx {
	case 0:
		return &v.username
	case 1:
		return &v.password
	}
	return nil
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case SessionFailed:
		v.submitting = false
		v.errMsg = "could not save session: " + msg.Err.Error()
		return v, nil

	case authResultMsg:
		v.submitting = false
		if msg.err != nil {
			v.errMsg = msg.err.Error()
			return v, nil
		}
		return v, func() tea.Msg {
			return LoggedIn{Token: msg.token, User: msg.user}
		}

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}

		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case msg.String() == "ctrl+r":
			v.registering = !v.registering
			v.focusIdx = 0
			v.errMsg = ""
			v.updateFocus()
			return v, textinput.Blink

		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % v.fieldCount()
			v.updateFocus()
			return v, textinput.Blink

		case msg.String() == "shift+tab":
			n := v.fieldCount()
			v.focusIdx = (v.focusIdx + n - 1) % n
			v.updateFocus()
			return v, textinput.Blink

		case key.Matches(msg, v.keys.Enter):
			// Enter submits from the last input or the button, otherwise
			// advances like tab.
			if v.focusIdx >= v.fieldCount()-2 {
				return v, v.submit()
			}
			v.focusIdx++
			v.updateFocus()
			return v, textinput.Blink
		}

		if input := v.inputAt(v.focusIdx); input != nil {
			var cmd tea.Cmd
			*input, cmd = input.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	return v, nil
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.email.Blur()
	v.fullName.Blur()
	v.password.Blur()
	if input := v.inputAt(v.focusIdx); input != nil {
		input.Focus()
	}
}

func (v *LoginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.username.Value())
	password := v.password.Value()
	if username == "" || password == "" {
		v.errMsg = "username and password are required"
		return nil
	}

	email := strings.TrimSpace(v.email.Value())
	if v.registering && email == "" {
		v.errMsg = "email is required"
		return nil
	}

	v.submitting = true
	v.errMsg = ""

	registering := v.registering
	fullName := strings.TrimSpace(v.fullName.Value())
	gw := v.gw

	return func() tea.Msg {
		ctx := context.Background()

		var token string
		var err error
		if registering {
			token, err = gw.Register(ctx, api.Registration{
				Username: username,
				Email:    email,
				FullName: fullName,
				Password: password,
			})
		} else {
			token, err = gw.Login(ctx, api.Credentials{Username: username, Password: password})
		}
		if err != nil {
			return authResultMsg{err: err}
		}

		user, err := gw.Me(ctx, token)
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{token: token, user: user}
	}
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := 40
	if contentWidth > 0 && contentWidth-10 < inputWidth {
		inputWidth = max(contentWidth-10, 20)
	}

	formTitle := "Sign In"
	toggleHint := "ctrl+r register"
	if v.registering {
		formTitle = "Create Account"
		toggleHint = "ctrl+r sign in"
	}

	style := func(idx int) lipgloss.Style {
		if v.focusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}

	rows := []string{
		s.Title.Render("taskdeck"),
		s.TitleMuted.Render(formTitle),
		"",
		"Username:",
		style(0).Width(inputWidth).Render(v.username.View()),
	}

	if v.registering {
		rows = append(rows,
			"",
			"Email:",
			style(1).Width(inputWidth).Render(v.email.View()),
			"",
			"Full name:",
			style(2).Width(inputWidth).Render(v.fullName.View()),
			"",
			"Password:",
			style(3).Width(inputWidth).Render(v.password.View()),
		)
	} else {
		rows = append(rows,
			"",
			"Password:",
			style(1).Width(inputWidth).Render(v.password.View()),
		)
	}

	btnStyle := s.Button
	if v.focusIdx == v.fieldCount()-1 {
		btnStyle = s.ButtonPrimary
	}
	btnLabel := " Sign In "
	if v.registering {
		btnLabel = " Register "
	}
	if v.submitting {
		btnLabel = " ... "
	}
	rows = append(rows, "", btnStyle.Render(btnLabel))

	if v.errMsg != "" {
		rows = append(rows, "", s.ToastError.Render(v.errMsg))
	}

	rows = append(rows, "",
		s.Help.Render("tab next • ↵ submit • "+toggleHint+" • ctrl+c quit"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
}
