package booking

import (
	"context"
	"time"

	"railbook/internal/domain"
	"railbook/internal/modules/inventory"
)

// PendingStore holds unpaid bookings until payment or expiry.
type PendingStore interface {
	Save(ctx context.Context, p *domain.PendingBooking) error
	Get(ctx context.Context, token string) (*domain.PendingBooking, error)
	Take(ctx context.Context, token string) (*domain.PendingBooking, error)
	ListExpired(ctx context.Context, now time.Time) ([]*domain.PendingBooking, error)
	List(ctx context.Context) ([]*domain.PendingBooking, error)
}

type TrainCatalog interface {
	Class(trainNo, classCode string) (domain.Train, domain.ClassInfo, error)
}

type StationIndex interface {
	Lookup(nameOrCode string) (domain.Station, error)
}

type BerthInventory interface {
	Allocate(trainNo, classCode string, passengers []domain.Passenger) (*inventory.Allocation, error)
	Release(trainNo, classCode string, slots []domain.BerthSlot) error
	Claim(trainNo, classCode string, slots []domain.BerthSlot) error
	Availability(trainNo, classCode string) (inventory.Availability, error)
}

type FareCalculator interface {
	Reserved(trainNo, classCode string, passengers int) float64
	UnreservedQuote(source, destination, category string, adults, children int) (float64, int, error)
	Season(source, destination string) (float64, int, error)
}

type TicketLedger interface {
	IssueReserved(t *domain.ReservedTicket) error
	Issue(t domain.Ticket) error
	Cancel(pnr string) (*domain.ReservedTicket, error)
	Find(id string) (domain.Ticket, error)
	ListByUser(userID int64, kind domain.TicketKind) []domain.Ticket
}

// TicketRenderer produces a printable document for a ticket.
type TicketRenderer interface {
	Render(t domain.Ticket, qrText string) ([]byte, error)
}
