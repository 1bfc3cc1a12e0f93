package domain

import "time"

type TicketKind string

const (
	KindReserved   TicketKind = "reserved"
	KindUnreserved TicketKind = "unreserved"
	KindPlatform   TicketKind = "platform"
	KindSeason     TicketKind = "mst"
)

func ParseTicketKind(s string) (TicketKind, bool) {
	switch TicketKind(s) {
	case KindReserved, KindUnreserved, KindPlatform, KindSeason:
		return TicketKind(s), true
	}
	return "", false
}

type TicketStatus string

const (
	TicketBooked    TicketStatus = "BOOKED"
	TicketConfirmed TicketStatus = "CONFIRMED"
	TicketCancelled TicketStatus = "CANCELLED"
)

// TicketBase holds the fields every ticket kind shares.
type TicketBase struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	Status    TicketStatus `json:"status"`
	Fare      float64      `json:"fare"`
	CreatedAt time.Time    `json:"created_at"`
}

// Ticket is implemented by ReservedTicket, UnreservedTicket, PlatformTicket
// and SeasonTicket only.
type Ticket interface {
	Kind() TicketKind
	Base() *TicketBase
}

type ReservedTicket struct {
	TicketBase
	Train       Train       `json:"train"`
	ClassCode   string      `json:"class_code"`
	ClassName   string      `json:"class_name"`
	Passengers  []Passenger `json:"passengers"`
	Berths      []BerthSlot `json:"-"`
	JourneyDate string      `json:"journey_date,omitempty"`
	Quota       string      `json:"quota,omitempty"`
}

func (t *ReservedTicket) Kind() TicketKind  { return KindReserved }
func (t *ReservedTicket) Base() *TicketBase { return &t.TicketBase }

// PNR is the reserved ticket identifier.
func (t *ReservedTicket) PNR() string { return t.ID }

type UnreservedTicket struct {
	TicketBase
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	DistanceKm    int    `json:"distance_km"`
	TrainCategory string `json:"train_category"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
}

func (t *UnreservedTicket) Kind() TicketKind  { return KindUnreserved }
func (t *UnreservedTicket) Base() *TicketBase { return &t.TicketBase }

type PlatformTicket struct {
	TicketBase
	Station string `json:"station"`
	Persons int    `json:"persons"`
}

func (t *PlatformTicket) Kind() TicketKind  { return KindPlatform }
func (t *PlatformTicket) Base() *TicketBase { return &t.TicketBase }

type SeasonTicket struct {
	TicketBase
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	PhoneNumber   string `json:"phone_number"`
	ValidFrom     string `json:"valid_from"`
	ValidUntil    string `json:"valid_until"`
}

func (t *SeasonTicket) Kind() TicketKind  { return KindSeason }
func (t *SeasonTicket) Base() *TicketBase { return &t.TicketBase }
