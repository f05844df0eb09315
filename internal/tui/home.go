package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

// recCount is how many catalog books the home page surfaces as recommendations.
const recCount = 3

type recsLoadedMsg struct {
	books []domain.Book
	err   error
}

type homeModel struct {
	client  *client.Client
	store   *session.Store
	log     *logrus.Logger
	books   []domain.Book
	loading bool
	width   int
	height  int
}

func newHomeModel(c *client.Client, store *session.Store, log *logrus.Logger) homeModel {
	return homeModel{client: c, store: store, log: log}
}

func (m homeModel) Init() tea.Cmd {
	return m.load()
}

// load fetches the catalog head as recommendations. Informational only:
// failures are logged and the section simply stays empty.
func (m homeModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		books, err := c.ListBooks(context.Background(), "")
		if err != nil {
			return recsLoadedMsg{err: err}
		}
		if len(books) > recCount {
			books = books[:recCount]
		}
		return recsLoadedMsg{books: books}
	}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("recommendations fetch failed")
			return m, nil
		}
		m.books = msg.books
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	var b strings.Builder

	if user := m.store.CurrentUser(); user != nil {
		b.WriteString(" " + normalStyle.Render("Welcome back, ") + selectedStyle.Render(user.Name) + normalStyle.Render(".") + "\n\n")
	}

	b.WriteString(" " + sectionHeaderStyle.Render("RECOMMENDED FOR YOU") + "\n")
	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	switch {
	case m.loading && len(m.books) == 0:
		b.WriteString(" " + dimStyle.Render("loading..."))
	case len(m.books) == 0:
		b.WriteString(" " + dimStyle.Render("no recommendations right now"))
	default:
		descWidth := m.width - 6
		if descWidth < 30 {
			descWidth = 30
		}
		for _, book := range m.books {
			b.WriteString(" " + favStyle.Render("●") + " " + selectedStyle.Render(book.Title))
			if book.Author != "" {
				b.WriteString("  " + metaStyle.Render(book.Author))
			}
			b.WriteString("\n")
			if book.Description != "" {
				desc := truncStr(strings.ReplaceAll(book.Description, "\n", " "), descWidth)
				b.WriteString("   " + dimStyle.Render(lipgloss.NewStyle().Width(descWidth).Render(desc)) + "\n")
			}
			b.WriteString("\n")
		}
		b.WriteString(" " + metaStyle.Render("browse the full catalog on tab 2"))
	}

	return truncateToHeight(b.String(), m.height)
}
