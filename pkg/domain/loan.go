package domain

// StatusReturned is the sentinel status the API sets on a returned loan.
// Every other status value counts as active.
const StatusReturned = "Devolvido"

// Loan links a user to a borrowed book. Calendar dates travel as ISO
// YYYY-MM-DD strings; RealReturnDate stays empty until the loan is
// returned. The API embeds the full book on list responses.
type Loan struct {
	ID                 int    `json:"id"`
	UserID             int    `json:"user_id"`
	BookID             int    `json:"book_id"`
	LoanDate           string `json:"loan_date"`
	ExpectedReturnDate string `json:"expected_return_date"`
	RealReturnDate     string `json:"real_return_date,omitempty"`
	Status             string `json:"status"`
	Book               *Book  `json:"book,omitempty"`
}

// Returned reports whether the loan has been given back.
func (l Loan) Returned() bool {
	return l.Status == StatusReturned
}

// Overdue reports whether the loan is past due on the given day. today is
// an ISO YYYY-MM-DD date. ISO dates order lexicographically, so plain
// string comparison is calendar-correct without any parsing.
func (l Loan) Overdue(today string) bool {
	return !l.Returned() && l.ExpectedReturnDate < today
}
