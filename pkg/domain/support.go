package domain

import "time"

// Support ticket statuses as the API stores them.
const (
	TicketOpen     = "Aberto"
	TicketResolved = "Resolvido"
)

// SupportTicket is a help request submitted by a user and resolved by staff.
type SupportTicket struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the ticket still awaits a staff resolution.
func (t SupportTicket) Open() bool {
	return t.Status == TicketOpen
}
