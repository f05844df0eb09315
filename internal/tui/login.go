package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

type loginMode int

const (
	loginModeSignIn loginMode = iota
	loginModeSignUp
)

type loginField int

const (
	fieldName loginField = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	numLoginFields
)

// loginDoneMsg carries the result of an authentication attempt. The app
// intercepts the success case to swap to the home page.
type loginDoneMsg struct {
	user *domain.User
	err  error
}

type signupDoneMsg struct {
	err error
}

type loginModel struct {
	client     *client.Client
	store      *session.Store
	mode       loginMode
	fields     [numLoginFields]string
	focus      loginField
	statusMsg  string
	submitting bool
	width      int
	height     int
}

func newLoginModel(c *client.Client, store *session.Store) loginModel {
	return loginModel{client: c, store: store, focus: fieldEmail}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

// visibleFields returns the fields shown for the current mode, in focus order.
func (m loginModel) visibleFields() []loginField {
	if m.mode == loginModeSignUp {
		return []loginField{fieldName, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []loginField{fieldEmail, fieldPassword}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
		}
		return m, nil

	case signupDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
		} else {
			// Back to sign-in, as the signup page did after registering.
			m.mode = loginModeSignIn
			m.fields = [numLoginFields]string{fieldEmail: m.fields[fieldEmail]}
			m.focus = fieldEmail
			m.statusMsg = "account created, sign in"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.statusMsg = ""

	fields := m.visibleFields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
			break
		}
	}

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "ctrl+n":
		// Toggle sign-in / sign-up
		if m.mode == loginModeSignIn {
			m.mode = loginModeSignUp
			m.focus = fieldName
		} else {
			m.mode = loginModeSignIn
			m.focus = fieldEmail
		}
		return m, nil
	case "tab", "down":
		m.focus = fields[(pos+1)%len(fields)]
	case "shift+tab", "up":
		m.focus = fields[(pos-1+len(fields))%len(fields)]
	case "enter":
		if pos == len(fields)-1 {
			return m.submit()
		}
		m.focus = fields[pos+1]
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.mode == loginModeSignUp {
		return m.submitSignup()
	}
	return m.submitLogin()
}

func (m loginModel) submitLogin() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[fieldEmail])
	password := m.fields[fieldPassword]

	// Validation happens before any network call.
	if email == "" || password == "" {
		m.statusMsg = "fill in all fields"
		return m, nil
	}

	m.submitting = true
	c := m.client
	store := m.store
	return m, func() tea.Msg {
		user, err := c.Login(context.Background(), email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if err := store.SetCurrentUser(*user); err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{user: user}
	}
}

func (m loginModel) submitSignup() (loginModel, tea.Cmd) {
	name := strings.TrimSpace(m.fields[fieldName])
	email := strings.TrimSpace(m.fields[fieldEmail])
	password := m.fields[fieldPassword]
	confirm := m.fields[fieldConfirm]

	if name == "" || email == "" || password == "" || confirm == "" {
		m.statusMsg = "fill in all fields"
		return m, nil
	}
	if password != confirm {
		m.statusMsg = "passwords do not match"
		return m, nil
	}

	m.submitting = true
	c := m.client
	return m, func() tea.Msg {
		_, err := c.Signup(context.Background(), client.SignupRequest{
			Name:     name,
			Email:    email,
			Password: password,
		})
		return signupDoneMsg{err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	if m.mode == loginModeSignUp {
		b.WriteString(" " + sectionHeaderStyle.Render("CREATE ACCOUNT") + "\n\n")
	} else {
		b.WriteString(" " + sectionHeaderStyle.Render("SIGN IN") + "\n\n")
	}

	labels := [numLoginFields]string{"name", "email", "password", "confirm"}
	for _, f := range m.visibleFields() {
		label := labels[f]
		value := m.fields[f]
		if f == fieldPassword || f == fieldConfirm {
			value = strings.Repeat("*", len([]rune(value)))
		}
		cursor := " "
		style := metaStyle
		if f == m.focus {
			cursor = ">"
			style = selectedStyle
			value += "█"
		}
		b.WriteString(" " + cursor + " " + style.Render(label) + ": " + value + "\n")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("signing in..."))
	} else if m.statusMsg != "" {
		b.WriteString(" " + alertStyle.Render(m.statusMsg))
	}

	return b.String()
}
