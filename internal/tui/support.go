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

type ticketsLoadedMsg struct {
	tickets []domain.SupportTicket
	err     error
}

type ticketCreatedMsg struct {
	err error
}

type ticketResolvedMsg struct {
	err error
}

type ticketField int

const (
	ticketFieldSubject ticketField = iota
	ticketFieldMessage
)

type supportModel struct {
	client    *client.Client
	store     *session.Store
	log       *logrus.Logger
	tickets   []domain.SupportTicket
	cursor    int
	composing bool
	field     ticketField
	subject   string
	message   string
	loading   bool
	err       error
	statusMsg string
	width     int
	height    int
}

func newSupportModel(c *client.Client, store *session.Store, log *logrus.Logger) supportModel {
	return supportModel{client: c, store: store, log: log, loading: true}
}

func (m supportModel) Init() tea.Cmd {
	return m.load()
}

func (m supportModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		tickets, err := c.ListSupport(context.Background())
		return ticketsLoadedMsg{tickets: tickets, err: err}
	}
}

func (m supportModel) typing() bool {
	return m.composing
}

func (m supportModel) Update(msg tea.Msg) (supportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ticketsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.tickets = msg.tickets
			if m.cursor >= len(m.tickets) {
				m.cursor = 0
			}
		}
		return m, nil

	case ticketCreatedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("submit failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "ticket submitted"
		m.composing = false
		m.subject = ""
		m.message = ""
		m.loading = true
		return m, m.load()

	case ticketResolvedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("resolve failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "ticket resolved"
		m.loading = true
		return m, m.load()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.composing {
			return m.updateCompose(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m supportModel) updateList(msg tea.KeyMsg) (supportModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.tickets)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		m.composing = true
		m.field = ticketFieldSubject
	case "enter":
		if m.cursor < len(m.tickets) && m.tickets[m.cursor].Open() {
			id := m.tickets[m.cursor].ID
			c := m.client
			return m, func() tea.Msg {
				return ticketResolvedMsg{err: c.ResolveSupport(context.Background(), id)}
			}
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m supportModel) updateCompose(msg tea.KeyMsg) (supportModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composing = false
		return m, nil
	case "tab", "down":
		m.field = (m.field + 1) % 2
		return m, nil
	case "shift+tab", "up":
		m.field = (m.field + 1) % 2
		return m, nil
	case "enter":
		if m.field == ticketFieldSubject {
			m.field = ticketFieldMessage
			return m, nil
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	}

	switch m.field {
	case ticketFieldSubject:
		m.subject = editRune(m.subject, msg.String())
	case ticketFieldMessage:
		m.message = editRune(m.message, msg.String())
	}
	return m, nil
}

func (m supportModel) submit() (supportModel, tea.Cmd) {
	if strings.TrimSpace(m.subject) == "" || strings.TrimSpace(m.message) == "" {
		m.statusMsg = "fill in all fields"
		return m, nil
	}
	user := m.store.CurrentUser()
	if user == nil {
		return m, nil
	}
	// Requester identity is filled from the signed-in profile.
	req := client.CreateTicketRequest{
		Name:    user.Name,
		Email:   user.Email,
		Subject: strings.TrimSpace(m.subject),
		Message: strings.TrimSpace(m.message),
	}
	c := m.client
	return m, func() tea.Msg {
		_, err := c.CreateSupport(context.Background(), req)
		return ticketCreatedMsg{err: err}
	}
}

func (m supportModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("SUPPORT") + "\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		style := statusStyle
		if strings.Contains(m.statusMsg, "failed") || m.statusMsg == "fill in all fields" {
			style = alertStyle
		}
		b.WriteString(" " + style.Render(m.statusMsg) + "\n")
	}

	if m.composing {
		b.WriteString(m.viewCompose())
		return truncateToHeight(b.String(), m.height)
	}

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("error loading tickets: %v", m.err)))
		return b.String()
	}
	if len(m.tickets) == 0 {
		b.WriteString(" " + dimStyle.Render("no support tickets."))
		return b.String()
	}

	for i, t := range m.tickets {
		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		status := statusStyle.Render(t.Status)
		if t.Open() {
			status = alertStyle.Render(t.Status)
		}

		b.WriteString(cursor + titleStyle.Render(truncStr(t.Subject, 40)) + "  " + status + "\n")
		b.WriteString("    " + metaStyle.Render(t.Name+" • "+formatTime(t.CreatedAt)) + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}

func (m supportModel) viewCompose() string {
	var b strings.Builder
	b.WriteString(" " + accentStyle.Render("NEW TICKET") + "\n\n")

	if user := m.store.CurrentUser(); user != nil {
		b.WriteString(" " + metaStyle.Render("from "+user.Name+" <"+user.Email+">") + "\n\n")
	}

	fields := []struct {
		label string
		value string
		field ticketField
	}{
		{"subject", m.subject, ticketFieldSubject},
		{"message", m.message, ticketFieldMessage},
	}
	for _, f := range fields {
		label := dimStyle.Render(f.label + ": ")
		if f.field == m.field {
			label = accentStyle.Render(f.label + ": ")
		}
		value := f.value
		if f.field == m.field {
			value += accentStyle.Render("▏")
		} else if value == "" {
			value = inputPlaceholderStyle.Render("...")
		}
		b.WriteString(" " + label + value + "\n")
	}

	b.WriteString("\n " + dimStyle.Render("ctrl+s submit • esc cancel"))
	return b.String()
}
