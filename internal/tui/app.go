package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/client"
)

type view int

const (
	viewLogin view = iota
	viewHome
	viewCatalog
	viewLoans
	viewFavorites
	viewSupport
	viewProfile
)

// App is the root Bubbletea model. It owns the tab chrome and routes
// messages to the active page.
type App struct {
	client  *client.Client
	store   *session.Store
	log     *logrus.Logger
	version string

	view      view
	login     loginModel
	home      homeModel
	catalog   catalogModel
	loans     loansModel
	favorites favoritesModel
	support   supportModel
	profile   profileModel

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI application. A saved session skips the login
// view.
func NewApp(c *client.Client, store *session.Store, log *logrus.Logger, version string) App {
	a := App{
		client:    c,
		store:     store,
		log:       log,
		version:   version,
		view:      viewLogin,
		login:     newLoginModel(c, store),
		home:      newHomeModel(c, store, log),
		catalog:   newCatalogModel(c, store, log),
		loans:     newLoansModel(c, store, log),
		favorites: newFavoritesModel(c, store, log),
		support:   newSupportModel(c, store, log),
		profile:   newProfileModel(c, store, log),
	}
	if store.CurrentUser() != nil {
		a.view = viewHome
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd()}
	if a.view == viewHome {
		cmds = append(cmds, a.home.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login, _ = a.login.Update(bodyMsg)
		a.home, _ = a.home.Update(bodyMsg)
		a.catalog, _ = a.catalog.Update(bodyMsg)
		a.loans, _ = a.loans.Update(bodyMsg)
		a.favorites, _ = a.favorites.Update(bodyMsg)
		a.support, _ = a.support.Update(bodyMsg)
		a.profile, _ = a.profile.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case loginDoneMsg:
		if msg.err != nil {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}
		// Fresh sign-in: rebuild the pages so nothing from a previous
		// account's session leaks through.
		a.home = newHomeModel(a.client, a.store, a.log)
		a.catalog = newCatalogModel(a.client, a.store, a.log)
		a.loans = newLoansModel(a.client, a.store, a.log)
		a.favorites = newFavoritesModel(a.client, a.store, a.log)
		a.support = newSupportModel(a.client, a.store, a.log)
		a.profile = newProfileModel(a.client, a.store, a.log)
		a.view = viewHome
		return a, a.home.Init()

	case gotoLoansMsg:
		a.view = viewLoans
		return a, a.loans.Init()

	case loggedOutMsg:
		a.login = newLoginModel(a.client, a.store)
		a.view = viewLogin
		return a, nil

	case favToggledMsg:
		// Both the catalog and the favorites page react to a toggle.
		var catCmd, favCmd tea.Cmd
		a.catalog, catCmd = a.catalog.Update(msg)
		a.favorites, favCmd = a.favorites.Update(msg)
		return a, tea.Batch(catCmd, favCmd)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.view != viewLogin && !a.isEditing() {
			switch msg.String() {
			case "q":
				if a.view != viewProfile {
					return a, tea.Quit
				}
			case "1":
				return a.switchTo(viewHome)
			case "2":
				return a.switchTo(viewCatalog)
			case "3":
				return a.switchTo(viewLoans)
			case "4":
				return a.switchTo(viewFavorites)
			case "5":
				return a.switchTo(viewSupport)
			case "6":
				return a.switchTo(viewProfile)
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewHome:
		a.home, cmd = a.home.Update(msg)
	case viewCatalog:
		a.catalog, cmd = a.catalog.Update(msg)
	case viewLoans:
		a.loans, cmd = a.loans.Update(msg)
	case viewFavorites:
		a.favorites, cmd = a.favorites.Update(msg)
	case viewSupport:
		a.support, cmd = a.support.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

func (a App) switchTo(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewHome:
		return a, a.home.Init()
	case viewCatalog:
		return a, a.catalog.Init()
	case viewLoans:
		return a, a.loans.Init()
	case viewFavorites:
		return a, a.favorites.Init()
	case viewSupport:
		return a, a.support.Init()
	case viewProfile:
		return a, a.profile.Init()
	}
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewCatalog:
		return a.catalog.typing()
	case viewSupport:
		return a.support.typing()
	case viewProfile:
		return a.profile.typing()
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := (a.width - lipgloss.Width(logo)) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	metaLine := ""
	if user := a.store.CurrentUser(); user != nil {
		metaLine = metaStyle.Render(user.Name + " . v" + a.version)
	} else {
		metaLine = metaStyle.Render("v" + a.version)
	}
	metaPad := (a.width - lipgloss.Width(metaLine)) / 2
	if metaPad < 0 {
		metaPad = 0
	}
	header += "\n" + strings.Repeat(" ", metaPad) + metaLine

	if a.view == viewLogin {
		body := strings.TrimRight(truncateToHeight(a.login.View(), a.height-4), "\n")
		help := " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("ctrl+n", "sign in/up") + "  " + helpEntry("ctrl+c", "quit")
		return fmt.Sprintf("%s\n\n%s\n%s", header, body, help)
	}

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Home", viewHome},
		{"2", "Catalog", viewCatalog},
		{"3", "Loans", viewLoans},
		{"4", "Favorites", viewFavorites},
		{"5", "Support", viewSupport},
		{"6", "Profile", viewProfile},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	tabsHelp := helpEntry("1-6", "tabs")
	switch a.view {
	case viewHome:
		body = a.home.View()
		help = " " + tabsHelp + "  " + helpEntry("r", "refresh") + "  " + helpEntry("q", "quit")
	case viewCatalog:
		body = a.catalog.View()
		help = " " + tabsHelp + "  " + a.catalog.helpKeys()
	case viewLoans:
		body = a.loans.View()
		if a.loans.mode == loansModeOverdue {
			help = " " + tabsHelp + "  " + helpEntry("v", "view") + "  " + helpEntry("e", "export csv") + "  " + helpEntry("q", "quit")
		} else {
			help = " " + tabsHelp + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("v", "view") + "  " + helpEntry("enter", "return") + "  " + helpEntry("q", "quit")
		}
	case viewFavorites:
		body = a.favorites.View()
		help = " " + tabsHelp + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("f", "unfavorite") + "  " + helpEntry("q", "quit")
	case viewSupport:
		body = a.support.View()
		if a.support.typing() {
			help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "cancel")
		} else {
			help = " " + tabsHelp + "  " + helpEntry("n", "new ticket") + "  " + helpEntry("enter", "resolve") + "  " + helpEntry("q", "quit")
		}
	case viewProfile:
		body = a.profile.View()
		if a.profile.typing() {
			help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "cancel")
		} else {
			help = " " + tabsHelp + "  " + helpEntry("p", "password") + "  " + helpEntry("q", "sign out")
		}
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar.String(), body, help)
}
