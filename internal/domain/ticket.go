package domain

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketClosed
}

type Ticket struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Status TicketStatus `json:"status"`
}

// TicketFilter narrows ListTickets. A zero Status matches every ticket.
type TicketFilter struct {
	Status TicketStatus
}

func (f TicketFilter) Matches(t Ticket) bool {
	return f.Status == "" || t.Status == f.Status
}
