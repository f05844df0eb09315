package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"readhub/internal/session"
	"readhub/pkg/domain"
)

// newTestStore returns a throwaway session store with Ana signed in.
func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if err := s.SetCurrentUser(domain.User{ID: 7, Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}
	return s
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestLoansModel(t *testing.T) loansModel {
	t.Helper()
	m := newLoansModel(nil, newTestStore(t), newTestLogger())
	m.width = 80
	m.height = 24
	return m
}

func TestOverdueLoans(t *testing.T) {
	loans := []domain.Loan{
		{ID: 1, Status: "Ativo", ExpectedReturnDate: "2026-08-01"},
		{ID: 2, Status: domain.StatusReturned, ExpectedReturnDate: "2026-08-01"},
		{ID: 3, Status: "Ativo", ExpectedReturnDate: "2026-09-10"},
		{ID: 4, Status: "Ativo", ExpectedReturnDate: "2026-09-01"},
	}

	got := overdueLoans(loans, "2026-09-01")
	if len(got) != 1 {
		t.Fatalf("overdueLoans returned %d loans, want 1", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("overdue loan ID = %d, want 1", got[0].ID)
	}
}

func TestOverdueCSV(t *testing.T) {
	loans := []domain.Loan{
		{UserID: 7, BookID: 3, LoanDate: "2026-08-01", ExpectedReturnDate: "2026-08-15",
			Book: &domain.Book{ID: 3, Title: "Dune"}},
		{UserID: 9, BookID: 4, LoanDate: "2026-08-02", ExpectedReturnDate: "2026-08-16"},
	}

	csv := overdueCSV(loans)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 rows:\n%s", len(lines), csv)
	}
	if lines[0] != "book,user_id,loan_date,expected_return_date" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Dune,7,2026-08-01,2026-08-15" {
		t.Errorf("row = %q", lines[1])
	}
	// Missing embedded book falls back to the book id.
	if lines[2] != "4,9,2026-08-02,2026-08-16" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestOverdueCSVStripsCommasFromTitles(t *testing.T) {
	loans := []domain.Loan{
		{UserID: 7, BookID: 3, LoanDate: "2026-08-01", ExpectedReturnDate: "2026-08-15",
			Book: &domain.Book{Title: "Dune, Part Two"}},
	}
	csv := overdueCSV(loans)
	if strings.Contains(csv, "Dune,") {
		t.Errorf("title comma leaked into csv:\n%s", csv)
	}
}

func TestLoansShelfHidesReturned(t *testing.T) {
	m := newTestLoansModel(t)
	m, _ = m.Update(loansLoadedMsg{mode: loansModeShelf, loans: []domain.Loan{
		{ID: 1, Status: "Ativo", ExpectedReturnDate: "2099-01-01", Book: &domain.Book{Title: "Dune"}},
		{ID: 2, Status: domain.StatusReturned, Book: &domain.Book{Title: "Solaris"}},
	}})

	view := m.View()
	if !strings.Contains(view, "Dune") {
		t.Errorf("expected active loan on the shelf, got:\n%s", view)
	}
	if strings.Contains(view, "Solaris") {
		t.Errorf("returned loan must not appear on the shelf, got:\n%s", view)
	}
}

func TestLoansShelfEmptyState(t *testing.T) {
	m := newTestLoansModel(t)
	m, _ = m.Update(loansLoadedMsg{mode: loansModeShelf, loans: nil})

	if view := m.View(); !strings.Contains(view, "nothing on your shelf") {
		t.Errorf("expected empty shelf message, got:\n%s", view)
	}
}

func TestLoansLoadError(t *testing.T) {
	m := newTestLoansModel(t)
	m, _ = m.Update(loansLoadedMsg{mode: loansModeShelf, err: errors.New("connection refused")})

	if view := m.View(); !strings.Contains(view, "connection refused") {
		t.Errorf("expected load error in view, got:\n%s", view)
	}
}

func TestLoansStaleModeResponseDropped(t *testing.T) {
	m := newTestLoansModel(t)
	m.mode = loansModeHistory
	m, _ = m.Update(loansLoadedMsg{mode: loansModeShelf, loans: []domain.Loan{{ID: 1}}})

	if len(m.loans) != 0 {
		t.Error("response for a different mode must be discarded")
	}
	if !m.loading {
		t.Error("stale response must not clear the loading flag")
	}
}

func TestLoansOverdueModeComputesSubset(t *testing.T) {
	m := newTestLoansModel(t)
	m.mode = loansModeOverdue
	m, _ = m.Update(loansLoadedMsg{mode: loansModeOverdue, loans: []domain.Loan{
		{ID: 1, UserID: 9, Status: "Ativo", ExpectedReturnDate: "2000-01-01",
			Book: &domain.Book{Title: "Dune"}},
		{ID: 2, UserID: 7, Status: "Ativo", ExpectedReturnDate: "2099-01-01",
			Book: &domain.Book{Title: "Solaris"}},
	}})

	if len(m.overdue) != 1 {
		t.Fatalf("overdue subset has %d loans, want 1", len(m.overdue))
	}
	view := m.View()
	if !strings.Contains(view, "Dune") || !strings.Contains(view, "OVERDUE") {
		t.Errorf("expected overdue row for Dune, got:\n%s", view)
	}
	if strings.Contains(view, "Solaris") {
		t.Errorf("future loan must not appear in the report, got:\n%s", view)
	}
}

func TestLoansOverdueEmptyState(t *testing.T) {
	m := newTestLoansModel(t)
	m.mode = loansModeOverdue
	m, _ = m.Update(loansLoadedMsg{mode: loansModeOverdue, loans: nil})

	if view := m.View(); !strings.Contains(view, "no overdue loans") {
		t.Errorf("expected empty report message, got:\n%s", view)
	}
}

func TestLoansReturnConfirmation(t *testing.T) {
	m := newTestLoansModel(t)
	m, _ = m.Update(loansLoadedMsg{mode: loansModeShelf, loans: []domain.Loan{
		{ID: 1, Status: "Ativo", ExpectedReturnDate: "2099-01-01", Book: &domain.Book{Title: "Dune"}},
	}})

	m, _ = m.Update(keyMsg("enter"))
	if !m.confirming {
		t.Fatal("enter on a shelf loan must ask for confirmation")
	}
	if view := m.View(); !strings.Contains(view, "confirm return") {
		t.Errorf("expected confirmation prompt, got:\n%s", view)
	}

	m, _ = m.Update(keyMsg("n"))
	if m.confirming {
		t.Error("n must cancel the confirmation")
	}
}
