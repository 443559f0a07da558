package models

import "time"

// TicketStatus is a support ticket's state.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket is a borrower support request handled by the back office.
type Ticket struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	Subject    string       `json:"subject"`
	Body       string       `json:"body"`
	Status     TicketStatus `json:"status"`
	AssignedTo *int64       `json:"assignedTo,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
