package ticketpdf

import (
	"bytes"
	"testing"
	"time"

	"railbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_AllKinds(t *testing.T) {
	base := domain.TicketBase{ID: "X1", UserID: 1, Status: domain.TicketConfirmed, Fare: 480, CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	tickets := []domain.Ticket{
		&domain.ReservedTicket{
			TicketBase: base,
			Train:      domain.Train{Number: "11007", Name: "Deccan Express", Source: "Pune Junction", Destination: "Mumbai CST"},
			ClassCode:  "SL",
			ClassName:  "Sleeper",
			Passengers: []domain.Passenger{{Name: "Asha", Age: 67, Gender: "F", Coach: "SL1", Berth: "1LB"}},
			Quota:      "GENERAL",
		},
		&domain.UnreservedTicket{TicketBase: base, Source: "Pune", Destination: "Thane", DistanceKm: 120, TrainCategory: "MAIL", Adults: 2},
		&domain.PlatformTicket{TicketBase: base, Station: "Thane", Persons: 3},
		&domain.SeasonTicket{TicketBase: base, PassengerName: "Meera", ValidFrom: "2024-06-01", ValidUntil: "2024-07-01"},
	}

	r := New("")
	for _, tk := range tickets {
		out, err := r.Render(tk, "Type: Test\nID: X1")
		require.NoError(t, err, tk.Kind())
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), tk.Kind())
	}
}

func TestDescribe_Reserved(t *testing.T) {
	title, lines := describe(&domain.ReservedTicket{
		TicketBase: domain.TicketBase{ID: "ABCDEFGHIJ", Fare: 12.5},
		Train:      domain.Train{Number: "11007", Name: "Deccan Express"},
		ClassCode:  "SL",
	})
	assert.Equal(t, "Reserved Ticket", title)
	assert.Equal(t, line{"PNR", "ABCDEFGHIJ"}, lines[0])
	assert.Contains(t, lines, line{"Fare", "Rs. 12.50"})
}
