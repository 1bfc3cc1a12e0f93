package ledger

import (
	"fmt"
	"sync"
	"time"

	"railbook/internal/domain"
	"railbook/internal/pkg/randutil"
)

const (
	pnrLength      = 10
	idSuffixLength = 6
	idStampLayout  = "20060102150405"

	// maxAttempts bounds the retry loops; with 36^10 PNRs it is never hit
	// in practice.
	maxAttempts = 1000
)

var idPrefixes = map[domain.TicketKind]string{
	domain.KindUnreserved: "UNRS",
	domain.KindPlatform:   "PLAT",
	domain.KindSeason:     "MST",
}

// Ledger keeps every issued ticket in memory, keyed by PNR for reserved
// tickets and by ticket id for the others. Ids share one namespace.
type Ledger struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	order   []string
	now     func() time.Time
}

func New() *Ledger {
	return &Ledger{
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tickets)
}

// GeneratePNR returns a 10 character [A-Z0-9] value not yet in the ledger.
// Nothing is reserved: use IssueReserved to generate and record atomically.
func (l *Ledger) GeneratePNR() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pnrLocked()
}

func (l *Ledger) pnrLocked() (string, error) {
	for i := 0; i < maxAttempts; i++ {
		pnr := randutil.String(pnrLength, randutil.UpperAlnum)
		if _, taken := l.tickets[pnr]; !taken {
			return pnr, nil
		}
	}
	return "", ErrIDExhausted
}

// GenerateTicketID builds PREFIX-yyyymmddHHMMSS-XXXXXX for non-reserved
// kinds, checked against the ledger.
func (l *Ledger) GenerateTicketID(kind domain.TicketKind) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ticketIDLocked(kind, l.now())
}

func (l *Ledger) ticketIDLocked(kind domain.TicketKind, at time.Time) (string, error) {
	prefix, ok := idPrefixes[kind]
	if !ok {
		return "", fmt.Errorf("no ticket id scheme for kind %q", kind)
	}
	stamp := at.Format(idStampLayout)
	for i := 0; i < maxAttempts; i++ {
		id := prefix + "-" + stamp + "-" + randutil.String(idSuffixLength, randutil.UpperAlnum)
		if _, taken := l.tickets[id]; !taken {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// Record stores a copy of the ticket under the id it already carries.
func (l *Ledger) Record(t domain.Ticket) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recordLocked(t)
}

func (l *Ledger) recordLocked(t domain.Ticket) error {
	id := t.Base().ID
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrDuplicateID)
	}
	if _, taken := l.tickets[id]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	l.tickets[id] = clone(t)
	l.order = append(l.order, id)
	return nil
}

func (l *Ledger) stamp(t domain.Ticket, id string) {
	b := t.Base()
	b.ID = id
	if b.CreatedAt.IsZero() {
		b.CreatedAt = l.now()
	}
}

// IssueReserved assigns a fresh PNR and records the ticket.
func (l *Ledger) IssueReserved(t *domain.ReservedTicket) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pnr, err := l.pnrLocked()
	if err != nil {
		return err
	}
	l.stamp(t, pnr)
	if t.Status == "" {
		t.Status = domain.TicketConfirmed
	}
	return l.recordLocked(t)
}

// Issue assigns a fresh id to a non-reserved ticket and records it. The id
// carries the ticket's creation time.
func (l *Ledger) Issue(t domain.Ticket) error {
	if t.Kind() == domain.KindReserved {
		rt, ok := t.(*domain.ReservedTicket)
		if !ok {
			return fmt.Errorf("unexpected reserved ticket type %T", t)
		}
		return l.IssueReserved(rt)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Base().CreatedAt.IsZero() {
		t.Base().CreatedAt = l.now()
	}
	id, err := l.ticketIDLocked(t.Kind(), t.Base().CreatedAt)
	if err != nil {
		return err
	}
	l.stamp(t, id)
	if t.Base().Status == "" {
		t.Base().Status = defaultStatus(t.Kind())
	}
	return l.recordLocked(t)
}

func defaultStatus(kind domain.TicketKind) domain.TicketStatus {
	if kind == domain.KindPlatform {
		return domain.TicketConfirmed
	}
	return domain.TicketBooked
}

// Cancel flips a reserved ticket to CANCELLED. The transition is one way.
func (l *Ledger) Cancel(pnr string) (*domain.ReservedTicket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[pnr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, pnr)
	}
	rt, ok := t.(*domain.ReservedTicket)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s ticket", ErrNotCancellable, pnr, t.Kind())
	}
	if rt.Status == domain.TicketCancelled {
		return nil, ErrAlreadyCancelled
	}
	rt.Status = domain.TicketCancelled
	cp := *rt
	return &cp, nil
}

// Find returns a copy of any ticket by PNR or ticket id.
func (l *Ledger) Find(id string) (domain.Ticket, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return clone(t), nil
}

func (l *Ledger) Reserved(pnr string) (*domain.ReservedTicket, error) {
	return get[*domain.ReservedTicket](l, pnr)
}

func (l *Ledger) Unreserved(id string) (*domain.UnreservedTicket, error) {
	return get[*domain.UnreservedTicket](l, id)
}

func (l *Ledger) Platform(id string) (*domain.PlatformTicket, error) {
	return get[*domain.PlatformTicket](l, id)
}

func (l *Ledger) Season(id string) (*domain.SeasonTicket, error) {
	return get[*domain.SeasonTicket](l, id)
}

func get[T domain.Ticket](l *Ledger, id string) (T, error) {
	var zero T
	t, err := l.Find(id)
	if err != nil {
		return zero, err
	}
	typed, ok := t.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %s ticket", ErrTicketNotFound, id, t.Kind())
	}
	return typed, nil
}

// ListByUser returns the user's tickets oldest first. An empty kind
// matches every kind.
func (l *Ledger) ListByUser(userID int64, kind domain.TicketKind) []domain.Ticket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Ticket
	for _, id := range l.order {
		t := l.tickets[id]
		if t.Base().UserID != userID {
			continue
		}
		if kind != "" && t.Kind() != kind {
			continue
		}
		out = append(out, clone(t))
	}
	return out
}

func clone(t domain.Ticket) domain.Ticket {
	switch v := t.(type) {
	case *domain.ReservedTicket:
		cp := *v
		cp.Passengers = append([]domain.Passenger(nil), v.Passengers...)
		cp.Berths = append([]domain.BerthSlot(nil), v.Berths...)
		return &cp
	case *domain.UnreservedTicket:
		cp := *v
		return &cp
	case *domain.PlatformTicket:
		cp := *v
		return &cp
	case *domain.SeasonTicket:
		cp := *v
		return &cp
	}
	return t
}
