package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/client"
	"readhub/pkg/domain"
)

type loansMode int

const (
	loansModeShelf loansMode = iota
	loansModeHistory
	loansModeOverdue
)

type loansLoadedMsg struct {
	mode  loansMode
	loans []domain.Loan
	err   error
}

type loanReturnedMsg struct {
	err error
}

type exportResultMsg struct {
	err error
}

type loansModel struct {
	client *client.Client
	store  *session.Store
	log    *logrus.Logger
	mode   loansMode
	loans  []domain.Loan // current user's loans (shelf + history modes)
	// overdue is the subset computed from the unfiltered all-loans fetch,
	// kept on the model for the export action.
	overdue    []domain.Loan
	cursor     int
	confirming bool // return confirmation on the selected shelf loan
	loading    bool
	err        error
	statusMsg  string
	width      int
	height     int
}

func newLoansModel(c *client.Client, store *session.Store, log *logrus.Logger) loansModel {
	return loansModel{client: c, store: store, log: log, loading: true}
}

func (m loansModel) Init() tea.Cmd {
	return m.load()
}

func (m loansModel) load() tea.Cmd {
	c := m.client
	mode := m.mode
	userID := 0
	if mode != loansModeOverdue {
		user := m.store.CurrentUser()
		if user == nil {
			return nil
		}
		userID = user.ID
	}
	// The overdue report fetches every loan, unfiltered by user.
	return func() tea.Msg {
		loans, err := c.ListLoans(context.Background(), userID)
		return loansLoadedMsg{mode: mode, loans: loans, err: err}
	}
}

// activeLoans are the shelf: every loan not yet returned.
func (m loansModel) activeLoans() []domain.Loan {
	var out []domain.Loan
	for _, l := range m.loans {
		if !l.Returned() {
			out = append(out, l)
		}
	}
	return out
}

// overdueLoans filters the unfiltered loan set down to loans past due today.
func overdueLoans(loans []domain.Loan, today string) []domain.Loan {
	var out []domain.Loan
	for _, l := range loans {
		if l.Overdue(today) {
			out = append(out, l)
		}
	}
	return out
}

// overdueCSV renders the overdue subset for the clipboard export.
func overdueCSV(loans []domain.Loan) string {
	var b strings.Builder
	b.WriteString("book,user_id,loan_date,expected_return_date\n")
	for _, l := range loans {
		title := strconv.Itoa(l.BookID)
		if l.Book != nil {
			title = strings.ReplaceAll(l.Book.Title, ",", " ")
		}
		fmt.Fprintf(&b, "%s,%d,%s,%s\n", title, l.UserID, l.LoanDate, l.ExpectedReturnDate)
	}
	return b.String()
}

func (m loansModel) listLen() int {
	switch m.mode {
	case loansModeShelf:
		return len(m.activeLoans())
	case loansModeOverdue:
		return len(m.overdue)
	}
	return len(m.loans)
}

func (m loansModel) Update(msg tea.Msg) (loansModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loansLoadedMsg:
		if msg.mode != m.mode {
			return m, nil // stale response from a mode we already left
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		if m.mode == loansModeOverdue {
			m.overdue = overdueLoans(msg.loans, todayISO())
		} else {
			m.loans = msg.loans
		}
		if m.cursor >= m.listLen() {
			m.cursor = 0
		}
		return m, nil

	case loanReturnedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("return failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "book returned"
		m.loading = true
		return m, m.load()

	case exportResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.statusMsg = "report copied to clipboard"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m loansModel) updateList(msg tea.KeyMsg) (loansModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "v":
		m.mode = (m.mode + 1) % 3
		m.cursor = 0
		m.loading = true
		return m, m.load()
	case "enter":
		// Return requires an explicit confirmation step.
		if m.mode == loansModeShelf && m.cursor < len(m.activeLoans()) {
			m.confirming = true
		}
	case "e":
		if m.mode == loansModeOverdue {
			csv := overdueCSV(m.overdue)
			return m, func() tea.Msg {
				return exportResultMsg{err: clipboard.WriteAll(csv)}
			}
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m loansModel) updateConfirm(msg tea.KeyMsg) (loansModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.confirming = false
		active := m.activeLoans()
		if m.cursor >= len(active) {
			return m, nil
		}
		loanID := active[m.cursor].ID
		today := todayISO()
		c := m.client
		return m, func() tea.Msg {
			return loanReturnedMsg{err: c.ReturnLoan(context.Background(), loanID, today)}
		}
	case "n", "esc":
		m.confirming = false
	}
	return m, nil
}

var loansModeNames = [3]string{"shelf", "history", "overdue"}

func (m loansModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render("LOANS") + "  ")
	for i, name := range loansModeNames {
		if i > 0 {
			b.WriteString(" ")
		}
		if loansMode(i) == m.mode {
			b.WriteString(searchStyle.Render("[" + name + "]"))
		} else {
			b.WriteString(dimStyle.Render("[" + name + "]"))
		}
	}
	b.WriteString("  " + helpKeyStyle.Render("v") + "\n")

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	}
	if m.confirming {
		b.WriteString(" " + alertStyle.Render("confirm return? (y/n)") + "\n")
	}

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("error loading loans: %v", m.err)))
		return b.String()
	}

	switch m.mode {
	case loansModeShelf:
		b.WriteString(m.viewShelf())
	case loansModeHistory:
		b.WriteString(m.viewHistory())
	case loansModeOverdue:
		b.WriteString(m.viewOverdue())
	}

	return truncateToHeight(b.String(), m.height)
}

func (m loansModel) viewShelf() string {
	active := m.activeLoans()
	if len(active) == 0 {
		return " " + dimStyle.Render("nothing on your shelf.")
	}

	var b strings.Builder
	for i, loan := range active {
		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		title := "book #" + strconv.Itoa(loan.BookID)
		if loan.Book != nil {
			title = loan.Book.Title
		}
		dates := metaStyle.Render(fmt.Sprintf("out %s  due %s", formatDate(loan.LoanDate), formatDate(loan.ExpectedReturnDate)))
		late := ""
		if loan.Overdue(todayISO()) {
			late = "  " + overdueStyle.Render("OVERDUE")
		}

		line := cursor + titleStyle.Render(truncStr(title, 40)) + "  " + dates + late
		if i == m.cursor {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (m loansModel) viewHistory() string {
	if len(m.loans) == 0 {
		return " " + dimStyle.Render("no loan history found.")
	}

	var b strings.Builder
	for i, loan := range m.loans {
		cursor := "  "
		titleStyle := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = normalStyle.Bold(true)
		}

		title := "book unavailable"
		if loan.Book != nil {
			title = loan.Book.Title
		}

		status := dimStyle.Render(loan.Status)
		if loan.Returned() {
			status = statusStyle.Render(loan.Status)
		}

		b.WriteString(cursor + titleStyle.Render(truncStr(title, 40)) + "  " + status + "\n")
		dates := fmt.Sprintf("out %s • due %s", formatDate(loan.LoanDate), formatDate(loan.ExpectedReturnDate))
		if loan.RealReturnDate != "" {
			dates += " • returned " + formatDate(loan.RealReturnDate)
		}
		b.WriteString("    " + metaStyle.Render(dates) + "\n")
	}
	return b.String()
}

func (m loansModel) viewOverdue() string {
	if len(m.overdue) == 0 {
		return " " + dimStyle.Render("no overdue loans.")
	}

	var b strings.Builder
	header := fmt.Sprintf(" %-30s %-10s %-12s %-12s", "BOOK", "USER", "OUT", "DUE")
	b.WriteString(metaStyle.Render(header) + "\n")

	for i, loan := range m.overdue {
		title := strconv.Itoa(loan.BookID)
		if loan.Book != nil {
			title = loan.Book.Title
		}
		row := fmt.Sprintf(" %-30s %-10s %-12s %-12s",
			truncStr(title, 30),
			"user "+strconv.Itoa(loan.UserID),
			formatDate(loan.LoanDate),
			formatDate(loan.ExpectedReturnDate))
		style := normalStyle
		if i == m.cursor {
			style = selectedStyle
		}
		b.WriteString(style.Render(row) + "  " + overdueStyle.Render("OVERDUE") + "\n")
	}
	return b.String()
}
