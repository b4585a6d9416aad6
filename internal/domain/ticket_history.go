package domain

import "time"

// TicketHistory is one immutable entry of the ticket's audit trail. Entries
// are strictly insertion-ordered (Seq is assigned by storage) and are never
// edited or removed; they exist only as part of their parent ticket.
type TicketHistory struct {
	ID        string
	TicketID  string
	Seq       int
	Status    TicketStatus
	Comment   string
	ActorID   string
	CreatedAt time.Time
}
