package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/taskr/internal/account"
	"github.com/sadopc/taskr/internal/store"
)

type authMode int

const (
	authLogin authMode = iota
	authSignup
)

// authModel is the only screen reachable while the session is anonymous.
type authModel struct {
	users   *account.Directory
	session *account.Session
	width   int
	height  int

	mode authMode
	form *huh.Form
	err  string

	// Form field pointers (survive value copies)
	name     *string
	email    *string
	password *string
	phone    *string
}

func newAuthModel(users *account.Directory, session *account.Session) authModel {
	name, email, password, phone := "", "", "", ""
	a := authModel{
		users:    users,
		session:  session,
		name:     &name,
		email:    &email,
		password: &password,
		phone:    &phone,
	}
	a.form = a.buildForm()
	return a
}

func (a *authModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a authModel) init() tea.Cmd {
	return a.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func (a authModel) buildForm() *huh.Form {
	*a.password = ""

	emailInput := huh.NewInput().Title("Email").Value(a.email).Validate(required("email"))
	passwordInput := huh.NewInput().Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(a.password).
		Validate(required("password"))

	var group *huh.Group
	if a.mode == authSignup {
		group = huh.NewGroup(
			huh.NewInput().Title("Name").Value(a.name).Validate(required("name")),
			emailInput,
			passwordInput,
			huh.NewInput().Title("Phone").Value(a.phone),
		)
	} else {
		group = huh.NewGroup(emailInput, passwordInput)
	}

	return huh.NewForm(group).WithShowHelp(true).WithShowErrors(true)
}

func (a authModel) switchMode() (authModel, tea.Cmd) {
	if a.mode == authLogin {
		a.mode = authSignup
	} else {
		a.mode = authLogin
	}
	a.err = ""
	a.form = a.buildForm()
	return a, a.form.Init()
}

func (a authModel) update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authFailedMsg:
		a.err = msg.text
		a.form = a.buildForm()
		return a, a.form.Init()

	case signedUpMsg:
		// Straight to login with the new address filled in.
		a.mode = authLogin
		a.err = ""
		*a.email = msg.user.Email
		*a.name, *a.phone = "", ""
		a.form = a.buildForm()
		return a, a.form.Init()

	case loggedOutMsg:
		a.mode = authLogin
		a.err = ""
		a.form = a.buildForm()
		return a, a.form.Init()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.SwitchAuth):
			return a.switchMode()
		case key.Matches(msg, keys.Back):
			a.err = ""
			a.form = a.buildForm()
			return a, a.form.Init()
		}
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		if a.mode == authSignup {
			return a, a.signup()
		}
		return a, a.login()
	case huh.StateAborted:
		a.form = a.buildForm()
		return a, a.form.Init()
	}

	return a, cmd
}

func (a authModel) login() tea.Cmd {
	email, password := strings.TrimSpace(*a.email), *a.password
	session := a.session
	return func() tea.Msg {
		u, err := session.Authenticate(email, password)
		if err != nil {
			return authFailedMsg{text: errStatus("Login", err).text}
		}
		if u == nil {
			return authFailedMsg{text: "Invalid email or password"}
		}
		return authDoneMsg{user: u}
	}
}

func (a authModel) signup() tea.Cmd {
	candidate := store.User{
		Name:     strings.TrimSpace(*a.name),
		Email:    strings.TrimSpace(*a.email),
		Password: *a.password,
		PhoneNo:  strings.TrimSpace(*a.phone),
	}
	users := a.users
	return func() tea.Msg {
		u, err := users.AddUser(candidate)
		if err != nil {
			return authFailedMsg{text: errStatus("Sign up", err).text}
		}
		return signedUpMsg{user: u}
	}
}

func (a authModel) view() string {
	w := min(a.width-4, 64)

	title := "Log in"
	hint := "ctrl+n: create an account  esc: clear  ctrl+c: quit"
	if a.mode == authSignup {
		title = "Sign up"
		hint = "ctrl+n: back to login  esc: clear  ctrl+c: quit"
	}

	rows := []string{titleStyle.Render(title), ""}
	if a.err != "" {
		rows = append(rows, errorStyle.Render(a.err), "")
	}
	rows = append(rows, a.form.View(), "", mutedStyle.Render(hint))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
