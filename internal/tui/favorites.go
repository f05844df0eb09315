package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

type favsLoadedMsg struct {
	favs []domain.Favorite
	err  error
}

type favoritesModel struct {
	client  *client.Client
	store   *session.Store
	log     *logrus.Logger
	favs    []domain.Favorite
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func newFavoritesModel(c *client.Client, store *session.Store, log *logrus.Logger) favoritesModel {
	return favoritesModel{client: c, store: store, log: log, loading: true}
}

func (m favoritesModel) Init() tea.Cmd {
	return m.load()
}

func (m favoritesModel) load() tea.Cmd {
	c := m.client
	user := m.store.CurrentUser()
	if user == nil {
		return nil
	}
	userID := user.ID
	return func() tea.Msg {
		favs, err := c.ListFavorites(context.Background(), userID)
		return favsLoadedMsg{favs: favs, err: err}
	}
}

func (m favoritesModel) Update(msg tea.Msg) (favoritesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case favsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.favs = msg.favs
			if m.cursor >= len(m.favs) {
				m.cursor = 0
			}
		}
		return m, nil

	case favToggledMsg:
		// Reload after a toggle from this page or from the catalog detail view.
		m.loading = true
		return m, m.load()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.favs)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "f", "enter":
			if m.cursor < len(m.favs) {
				user := m.store.CurrentUser()
				if user == nil {
					return m, nil
				}
				return m, toggleFavoriteCmd(m.client, user.ID, m.favs[m.cursor].BookID)
			}
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m favoritesModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("FAVORITES") + "\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("error loading favorites: %v", m.err)))
		return b.String()
	}
	if len(m.favs) == 0 {
		b.WriteString(" " + dimStyle.Render("you haven't favorited any books yet."))
		return b.String()
	}

	for i, fav := range m.favs {
		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		title := fmt.Sprintf("book #%d", fav.BookID)
		author := ""
		if fav.Book != nil {
			title = fav.Book.Title
			author = fav.Book.Author
		}

		line := cursor + favStyle.Render("★") + " " + titleStyle.Render(truncStr(title, 40))
		if author != "" {
			line += "  " + metaStyle.Render(author)
		}
		if i == m.cursor {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}
