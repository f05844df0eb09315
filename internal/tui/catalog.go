package tui

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readhub/internal/browser"
	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

type catalogMode int

const (
	catalogModeBrowse catalogMode = iota
	catalogModeManage
)

type addField int

const (
	addFieldTitle addField = iota
	addFieldAuthor
	addFieldDescription
	addFieldImagePath
	numAddFields
)

type booksLoadedMsg struct {
	books []domain.Book
	err   error
}

// favIDsLoadedMsg carries the set of favorited book ids for toggle glyphs.
type favIDsLoadedMsg struct {
	ids map[int]bool
	err error
}

type favToggledMsg struct {
	bookID int
	added  bool
	err    error
}

type loanCreatedMsg struct {
	loan *domain.Loan
	err  error
}

// gotoLoansMsg asks the app to switch to the loans tab after a reservation.
type gotoLoansMsg struct{}

type bookCreatedMsg struct {
	book *domain.Book
	err  error
}

type bookDeletedMsg struct {
	err error
}

type catalogModel struct {
	client *client.Client
	store  *session.Store
	log    *logrus.Logger
	mode   catalogMode
	books  []domain.Book
	favIDs map[int]bool
	cursor int
	search string

	editing   bool // typing in search
	detail    bool
	reserving bool
	resFields [2]string // loan date, expected return date (ISO)
	resFocus  int
	adding    bool
	addFields [numAddFields]string
	addFocus  addField
	deleting  bool // delete confirmation in manage mode

	err       error
	loading   bool
	statusMsg string
	width     int
	height    int
}

func newCatalogModel(c *client.Client, store *session.Store, log *logrus.Logger) catalogModel {
	return catalogModel{client: c, store: store, log: log, loading: true}
}

func (m catalogModel) Init() tea.Cmd {
	return tea.Batch(m.loadBooks(), m.loadFavorites())
}

// typing reports whether keystrokes belong to a text input rather than
// global navigation.
func (m catalogModel) typing() bool {
	return m.editing || m.reserving || m.adding
}

// helpKeys picks the help line for the current catalog state.
func (m catalogModel) helpKeys() string {
	switch {
	case m.reserving, m.adding:
		return helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "cancel")
	case m.editing:
		return helpEntry("enter", "search") + "  " + helpEntry("esc", "cancel")
	case m.deleting:
		return helpEntry("y/n", "confirm delete")
	case m.detail:
		return helpEntry("f", "favorite") + "  " + helpEntry("R", "reserve") + "  " + helpEntry("o", "open cover") + "  " + helpEntry("esc", "back")
	case m.mode == catalogModeManage:
		return helpEntry("j/k", "nav") + "  " + helpEntry("n", "add") + "  " + helpEntry("d", "delete") + "  " + helpEntry("m", "browse") + "  " + helpEntry("q", "quit")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("/", "search") + "  " + helpEntry("f", "favorite") + "  " + helpEntry("enter", "details") + "  " + helpEntry("m", "my books") + "  " + helpEntry("q", "quit")
}

func (m catalogModel) loadBooks() tea.Cmd {
	c := m.client
	search := m.search
	return func() tea.Msg {
		books, err := c.ListBooks(context.Background(), search)
		return booksLoadedMsg{books: books, err: err}
	}
}

func (m catalogModel) loadFavorites() tea.Cmd {
	user := m.store.CurrentUser()
	if user == nil {
		return nil
	}
	c := m.client
	userID := user.ID
	return func() tea.Msg {
		favs, err := c.ListFavorites(context.Background(), userID)
		if err != nil {
			return favIDsLoadedMsg{err: err}
		}
		ids := make(map[int]bool, len(favs))
		for _, f := range favs {
			ids[f.BookID] = true
		}
		return favIDsLoadedMsg{ids: ids}
	}
}

// toggleFavoriteCmd re-fetches the favorites list to decide between add and
// remove. There is no local membership cache and no locking; two in-flight
// toggles may interleave.
func toggleFavoriteCmd(c *client.Client, userID, bookID int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		favs, err := c.ListFavorites(ctx, userID)
		if err != nil {
			return favToggledMsg{bookID: bookID, err: err}
		}
		for _, f := range favs {
			if f.BookID == bookID {
				if err := c.RemoveFavorite(ctx, bookID, userID); err != nil {
					return favToggledMsg{bookID: bookID, err: err}
				}
				return favToggledMsg{bookID: bookID}
			}
		}
		if err := c.AddFavorite(ctx, userID, bookID); err != nil {
			return favToggledMsg{bookID: bookID, err: err}
		}
		return favToggledMsg{bookID: bookID, added: true}
	}
}

func (m catalogModel) Update(msg tea.Msg) (catalogModel, tea.Cmd) {
	switch msg := msg.(type) {
	case booksLoadedMsg:
		m.loading = false
		m.books = msg.books
		m.err = msg.err
		if m.cursor >= len(m.books) {
			m.cursor = 0
		}
		return m, nil

	case favIDsLoadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("favorites fetch failed")
			return m, nil
		}
		m.favIDs = msg.ids
		return m, nil

	case favToggledMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("favorite update failed: %v", msg.err)
			return m, nil
		}
		if msg.added {
			m.statusMsg = "added to favorites"
		} else {
			m.statusMsg = "removed from favorites"
		}
		return m, m.loadFavorites()

	case loanCreatedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("reservation failed: %v", msg.err)
			return m, nil
		}
		m.reserving = false
		m.detail = false
		m.statusMsg = "reservation confirmed"
		return m, func() tea.Msg { return gotoLoansMsg{} }

	case bookCreatedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("add failed: %v", msg.err)
			return m, nil
		}
		m.adding = false
		m.addFields = [numAddFields]string{}
		m.addFocus = addFieldTitle
		m.statusMsg = "book added"
		m.loading = true
		return m, m.loadBooks()

	case bookDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("remove failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "book removed"
		m.loading = true
		return m, m.loadBooks()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch {
		case m.editing:
			return m.updateSearch(msg)
		case m.reserving:
			return m.updateReserve(msg)
		case m.adding:
			return m.updateAdd(msg)
		case m.deleting:
			return m.updateDelete(msg)
		case m.detail:
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m catalogModel) updateSearch(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.loading = true
		return m, m.loadBooks()
	case "esc":
		m.editing = false
		m.search = ""
		m.loading = true
		return m, m.loadBooks()
	default:
		m.search = editRune(m.search, msg.String())
	}
	return m, nil
}

func (m catalogModel) updateList(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.books)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.books) {
			m.detail = true
			// Persist the selection the way the details page expects it.
			if err := m.store.SetSelectedBookID(m.books[m.cursor].ID); err != nil {
				m.log.WithError(err).Warn("persist book selection failed")
			}
		}
	case "/":
		m.editing = true
		m.search = ""
	case "m":
		if m.mode == catalogModeBrowse {
			m.mode = catalogModeManage
		} else {
			m.mode = catalogModeBrowse
		}
		m.detail = false
		m.deleting = false
	case "f":
		if m.mode == catalogModeBrowse && m.cursor < len(m.books) {
			return m.toggleSelected()
		}
	case "n":
		if m.mode == catalogModeManage {
			m.adding = true
			m.addFields = [numAddFields]string{}
			m.addFocus = addFieldTitle
		}
	case "d":
		if m.mode == catalogModeManage && m.cursor < len(m.books) {
			m.deleting = true
		}
	case "r":
		m.loading = true
		return m, tea.Batch(m.loadBooks(), m.loadFavorites())
	}
	return m, nil
}

func (m catalogModel) toggleSelected() (catalogModel, tea.Cmd) {
	user := m.store.CurrentUser()
	if user == nil {
		m.statusMsg = "sign in to favorite"
		return m, nil
	}
	return m, toggleFavoriteCmd(m.client, user.ID, m.books[m.cursor].ID)
}

func (m catalogModel) updateDetail(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.detail = false
	case "f":
		if m.cursor < len(m.books) {
			return m.toggleSelected()
		}
	case "o":
		if m.cursor < len(m.books) {
			u := m.books[m.cursor].ImageURL
			if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
				browser.Open(u) //nolint:errcheck // best-effort browser open
			}
		}
	case "R":
		user := m.store.CurrentUser()
		if user == nil {
			m.statusMsg = "sign in to reserve"
			return m, nil
		}
		m.reserving = true
		m.resFields[0] = todayISO()
		m.resFields[1] = defaultReturnDate()
		m.resFocus = 0
	}
	return m, nil
}

func (m catalogModel) updateReserve(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.reserving = false
	case "tab", "down", "enter":
		m.resFocus = (m.resFocus + 1) % len(m.resFields)
	case "shift+tab", "up":
		m.resFocus = (m.resFocus - 1 + len(m.resFields)) % len(m.resFields)
	case "ctrl+s":
		return m.submitReserve()
	default:
		f := &m.resFields[m.resFocus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

func (m catalogModel) submitReserve() (catalogModel, tea.Cmd) {
	loanDate := strings.TrimSpace(m.resFields[0])
	returnDate := strings.TrimSpace(m.resFields[1])
	if loanDate == "" || returnDate == "" {
		m.statusMsg = "both dates are required"
		return m, nil
	}
	user := m.store.CurrentUser()
	if user == nil || m.cursor >= len(m.books) {
		return m, nil
	}

	req := client.CreateLoanRequest{
		UserID:             user.ID,
		BookID:             m.books[m.cursor].ID,
		LoanDate:           loanDate,
		ExpectedReturnDate: returnDate,
	}
	c := m.client
	return m, func() tea.Msg {
		loan, err := c.CreateLoan(context.Background(), req)
		return loanCreatedMsg{loan: loan, err: err}
	}
}

func (m catalogModel) updateAdd(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
	case "tab", "down", "enter":
		m.addFocus = (m.addFocus + 1) % numAddFields
	case "shift+tab", "up":
		m.addFocus = (m.addFocus - 1 + numAddFields) % numAddFields
	case "ctrl+s":
		return m.submitAdd()
	default:
		f := &m.addFields[m.addFocus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

func (m catalogModel) submitAdd() (catalogModel, tea.Cmd) {
	title := strings.TrimSpace(m.addFields[addFieldTitle])
	if title == "" {
		m.statusMsg = "title is required"
		return m, nil
	}
	author := strings.TrimSpace(m.addFields[addFieldAuthor])
	description := strings.TrimSpace(m.addFields[addFieldDescription])
	imagePath := strings.TrimSpace(m.addFields[addFieldImagePath])

	c := m.client
	return m, func() tea.Msg {
		imageURL := ""
		if imagePath != "" {
			data, err := encodeCoverDataURL(imagePath)
			if err != nil {
				return bookCreatedMsg{err: err}
			}
			imageURL = data
		}
		book, err := c.CreateBook(context.Background(), client.CreateBookRequest{
			Title:       title,
			Author:      author,
			Description: description,
			ImageURL:    imageURL,
		})
		return bookCreatedMsg{book: book, err: err}
	}
}

func (m catalogModel) updateDelete(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.deleting = false
		if m.cursor >= len(m.books) {
			return m, nil
		}
		id := m.books[m.cursor].ID
		c := m.client
		return m, func() tea.Msg {
			return bookDeletedMsg{err: c.DeleteBook(context.Background(), id)}
		}
	case "n", "esc":
		m.deleting = false
	}
	return m, nil
}

// encodeCoverDataURL reads a local image file and embeds it as a base64
// data URL for the createBook payload. There is no separate upload endpoint.
func encodeCoverDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// defaultReturnDate is a week out, the form's starting value for the
// expected return date.
func defaultReturnDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func (m catalogModel) View() string {
	switch {
	case m.reserving:
		return m.viewReserve()
	case m.adding:
		return m.viewAdd()
	case m.detail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m catalogModel) viewList() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render("CATALOG") + "  ")

	// Search box
	if m.editing {
		b.WriteString(searchStyle.Render("/ " + m.search + "█"))
	} else if m.search != "" {
		b.WriteString(searchStyle.Render("/ " + m.search))
	} else {
		b.WriteString(dimStyle.Render("/ search..."))
	}

	// Mode toggle: [browse] [my books]
	b.WriteString("   ")
	if m.mode == catalogModeBrowse {
		b.WriteString(searchStyle.Render("[browse]") + " " + dimStyle.Render("[my books]"))
	} else {
		b.WriteString(dimStyle.Render("[browse]") + " " + searchStyle.Render("[my books]"))
	}
	b.WriteString("  " + helpKeyStyle.Render("m"))
	b.WriteString("\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	}
	if m.deleting && m.cursor < len(m.books) {
		b.WriteString(" " + alertStyle.Render(fmt.Sprintf("remove %q from the system? (y/n)", m.books[m.cursor].Title)) + "\n")
	}

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("error loading books: %v", m.err)))
		return b.String()
	}

	// Empty result renders an explicit message, never a blank region.
	if len(m.books) == 0 {
		if m.search != "" {
			b.WriteString(" " + dimStyle.Render("no books found."))
		} else {
			b.WriteString(" " + dimStyle.Render("no books in the catalog."))
		}
		return b.String()
	}

	maxVisible := m.height - 6
	if maxVisible < 3 {
		maxVisible = 3
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}

	for i := start; i < len(m.books) && i < start+maxVisible; i++ {
		book := m.books[i]

		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		star := "  "
		if m.mode == catalogModeBrowse && m.favIDs != nil {
			if m.favIDs[book.ID] {
				star = favStyle.Render("★") + " "
			} else {
				star = dimStyle.Render("☆") + " "
			}
		}

		authorWidth := 20
		titleWidth := m.width - 6 - authorWidth
		if titleWidth < 10 {
			titleWidth = 10
		}
		title := fmt.Sprintf("%-*s", titleWidth, truncStr(book.Title, titleWidth))
		author := metaStyle.Render(truncStr(book.Author, authorWidth))

		line := cursor + star + titleStyle.Render(title) + " " + author
		if i == m.cursor {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}

func (m catalogModel) viewDetail() string {
	if m.cursor >= len(m.books) {
		return ""
	}
	book := m.books[m.cursor]

	var b strings.Builder
	b.WriteString(" " + dimStyle.Render("<- back (esc)") + "\n")
	b.WriteString(" " + selectedStyle.Render(book.Title) + "\n")

	meta := " " + metaStyle.Render(book.Author)
	if m.favIDs != nil && m.favIDs[book.ID] {
		meta += "  " + favStyle.Render("★ favorited")
	}
	b.WriteString(meta + "\n\n")

	desc := book.Description
	if desc == "" {
		desc = "no description."
	}
	detailWidth := m.width - 4
	if detailWidth < 40 {
		detailWidth = 40
	}
	wrapped := lipgloss.NewStyle().Width(detailWidth).Render(desc)
	for _, line := range strings.Split(wrapped, "\n") {
		b.WriteString(" " + normalStyle.Render(line) + "\n")
	}

	if book.ImageURL != "" {
		b.WriteString("\n")
		if strings.HasPrefix(book.ImageURL, "data:") {
			b.WriteString(" " + metaStyle.Render("[embedded cover image]") + "\n")
		} else {
			b.WriteString(" " + metaStyle.Render(truncStr(book.ImageURL, detailWidth)) + "  " + helpEntry("o", "open") + "\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n " + statusStyle.Render(m.statusMsg) + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}

func (m catalogModel) viewReserve() string {
	if m.cursor >= len(m.books) {
		return ""
	}
	book := m.books[m.cursor]

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("RESERVE") + "  " + selectedStyle.Render(book.Title) + "\n\n")

	labels := [2]string{"loan date (YYYY-MM-DD)", "return by (YYYY-MM-DD)"}
	for i, label := range labels {
		cursor := " "
		style := metaStyle
		value := m.resFields[i]
		if i == m.resFocus {
			cursor = ">"
			style = selectedStyle
			value += "█"
		}
		b.WriteString(" " + cursor + " " + style.Render(label) + ": " + value + "\n")
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		b.WriteString(" " + alertStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m catalogModel) viewAdd() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("ADD BOOK") + "\n\n")

	labels := [numAddFields]string{"title", "author", "description", "cover image path"}
	for i := addField(0); i < numAddFields; i++ {
		cursor := " "
		style := metaStyle
		value := m.addFields[i]
		if i == m.addFocus {
			cursor = ">"
			style = selectedStyle
			value += "█"
		}
		b.WriteString(" " + cursor + " " + style.Render(labels[i]) + ": " + value + "\n")
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		b.WriteString(" " + alertStyle.Render(m.statusMsg))
	}
	return b.String()
}
