package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

type profileLoadedMsg struct {
	user *domain.User
	err  error
}

type passwordChangedMsg struct {
	err error
}

// loggedOutMsg is intercepted at the app level to switch back to the
// login view.
type loggedOutMsg struct{}

type pwField int

const (
	pwFieldCurrent pwField = iota
	pwFieldNew
	pwFieldConfirm
	pwFieldCount
)

type profileModel struct {
	client  *client.Client
	store   *session.Store
	log     *logrus.Logger
	user    *domain.User
	loading bool

	changingPw bool
	pwField    pwField
	pwValues   [pwFieldCount]string

	confirmingLogout bool
	statusMsg        string
	width            int
	height           int
}

func newProfileModel(c *client.Client, store *session.Store, log *logrus.Logger) profileModel {
	return profileModel{client: c, store: store, log: log, user: store.CurrentUser(), loading: true}
}

func (m profileModel) Init() tea.Cmd {
	return m.load()
}

func (m profileModel) load() tea.Cmd {
	c := m.client
	user := m.store.CurrentUser()
	if user == nil {
		return nil
	}
	id := user.ID
	return func() tea.Msg {
		fresh, err := c.GetUser(context.Background(), id)
		return profileLoadedMsg{user: fresh, err: err}
	}
}

func (m profileModel) typing() bool {
	return m.changingPw
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		m.loading = false
		if msg.err != nil {
			// Stale cached profile is better than an empty page.
			m.log.WithError(msg.err).Warn("profile refresh failed")
			return m, nil
		}
		m.user = msg.user
		if err := m.store.SetCurrentUser(*msg.user); err != nil {
			m.log.WithError(err).Warn("session save failed")
		}
		return m, nil

	case passwordChangedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("password change failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "password changed"
		m.changingPw = false
		m.pwValues = [pwFieldCount]string{}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.changingPw {
			return m.updatePassword(msg)
		}
		if m.confirmingLogout {
			return m.updateLogoutConfirm(msg)
		}
		switch msg.String() {
		case "p":
			m.changingPw = true
			m.pwField = pwFieldCurrent
		case "q":
			m.confirmingLogout = true
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m profileModel) updateLogoutConfirm(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.confirmingLogout = false
		if err := m.store.Clear(); err != nil {
			m.log.WithError(err).Warn("session clear failed")
		}
		return m, func() tea.Msg { return loggedOutMsg{} }
	case "n", "esc":
		m.confirmingLogout = false
	}
	return m, nil
}

func (m profileModel) updatePassword(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.changingPw = false
		m.pwValues = [pwFieldCount]string{}
		return m, nil
	case "tab", "down":
		m.pwField = (m.pwField + 1) % pwFieldCount
		return m, nil
	case "shift+tab", "up":
		m.pwField = (m.pwField + pwFieldCount - 1) % pwFieldCount
		return m, nil
	case "enter":
		if m.pwField < pwFieldConfirm {
			m.pwField++
			return m, nil
		}
		return m.submitPassword()
	case "ctrl+s":
		return m.submitPassword()
	}
	m.pwValues[m.pwField] = editRune(m.pwValues[m.pwField], msg.String())
	return m, nil
}

func (m profileModel) submitPassword() (profileModel, tea.Cmd) {
	for _, v := range m.pwValues {
		if v == "" {
			m.statusMsg = "fill in all fields"
			return m, nil
		}
	}
	if m.pwValues[pwFieldNew] != m.pwValues[pwFieldConfirm] {
		m.statusMsg = "passwords do not match"
		return m, nil
	}
	user := m.store.CurrentUser()
	if user == nil {
		return m, nil
	}
	req := client.ChangePasswordRequest{
		CurrentPassword: m.pwValues[pwFieldCurrent],
		NewPassword:     m.pwValues[pwFieldNew],
		ConfirmPassword: m.pwValues[pwFieldConfirm],
	}
	c := m.client
	id := user.ID
	return m, func() tea.Msg {
		return passwordChangedMsg{err: c.ChangePassword(context.Background(), id, req)}
	}
}

var pwFieldLabels = [pwFieldCount]string{"current password", "new password", "confirm password"}

func (m profileModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("PROFILE") + "\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		style := statusStyle
		if strings.Contains(m.statusMsg, "failed") || strings.Contains(m.statusMsg, "not match") || m.statusMsg == "fill in all fields" {
			style = alertStyle
		}
		b.WriteString(" " + style.Render(m.statusMsg) + "\n")
	}

	if m.changingPw {
		b.WriteString(m.viewPasswordForm())
		return truncateToHeight(b.String(), m.height)
	}

	if m.user == nil {
		b.WriteString(" " + dimStyle.Render("not signed in."))
		return b.String()
	}

	b.WriteString(" " + normalStyle.Bold(true).Render(m.user.Name) + "\n")
	b.WriteString(" " + metaStyle.Render(m.user.Email) + "\n")
	b.WriteString(" " + metaStyle.Render(fmt.Sprintf("member #%d", m.user.ID)) + "\n")
	if m.loading {
		b.WriteString(" " + dimStyle.Render("refreshing...") + "\n")
	}

	b.WriteString("\n")
	if m.confirmingLogout {
		b.WriteString(" " + alertStyle.Render("sign out? (y/n)") + "\n")
	} else {
		b.WriteString(" " + helpEntry("p", "change password") + "  " + helpEntry("q", "sign out") + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}

func (m profileModel) viewPasswordForm() string {
	var b strings.Builder
	b.WriteString(" " + accentStyle.Render("CHANGE PASSWORD") + "\n\n")

	for f := pwFieldCurrent; f < pwFieldCount; f++ {
		label := dimStyle.Render(pwFieldLabels[f] + ": ")
		if f == m.pwField {
			label = accentStyle.Render(pwFieldLabels[f] + ": ")
		}
		value := strings.Repeat("*", len([]rune(m.pwValues[f])))
		if f == m.pwField {
			value += accentStyle.Render("▏")
		}
		b.WriteString(" " + label + value + "\n")
	}

	b.WriteString("\n " + dimStyle.Render("ctrl+s submit • esc cancel"))
	return b.String()
}
