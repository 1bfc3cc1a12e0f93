package domain

import "time"

// ReservedDraft is the unpaid part of a reserved booking. Held is filled
// when berths were allocated up front and still have to be committed.
type ReservedDraft struct {
	TrainNumber string      `json:"train_number"`
	ClassCode   string      `json:"class_code"`
	Passengers  []Passenger `json:"passengers"`
	JourneyDate string      `json:"journey_date,omitempty"`
	Quota       string      `json:"quota,omitempty"`
	Held        []BerthSlot `json:"held,omitempty"`
}

type PendingBooking struct {
	Token     string     `json:"token"`
	UserID    int64      `json:"user_id"`
	Kind      TicketKind `json:"kind"`
	Amount    float64    `json:"amount"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`

	Reserved   *ReservedDraft    `json:"reserved,omitempty"`
	Unreserved *UnreservedTicket `json:"unreserved,omitempty"`
	Platform   *PlatformTicket   `json:"platform,omitempty"`
	Season     *SeasonTicket     `json:"season,omitempty"`
}

func (p *PendingBooking) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}
