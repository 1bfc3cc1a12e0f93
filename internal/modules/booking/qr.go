package booking

import (
	"fmt"
	"strings"

	"railbook/internal/domain"
)

// QRText is the text encoded in a ticket's QR code.
func QRText(t domain.Ticket) string {
	switch v := t.(type) {
	case *domain.ReservedTicket:
		names := make([]string, 0, len(v.Passengers))
		for _, p := range v.Passengers {
			names = append(names, p.Name)
		}
		return fmt.Sprintf("Type: Reserved\nPNR: %s\nStatus: %s\nTrain: %s - %s\nFrom: %s To: %s\nPassengers: %s",
			v.PNR(), v.Status, v.Train.Number, v.Train.Name, v.Train.Source, v.Train.Destination, strings.Join(names, ", "))
	case *domain.UnreservedTicket:
		return fmt.Sprintf("Type: Unreserved\nID: %s\nFrom: %s To: %s\nFare: Rs. %.2f",
			v.ID, v.Source, v.Destination, v.Fare)
	case *domain.PlatformTicket:
		return fmt.Sprintf("Type: Platform\nID: %s\nStation: %s\nPersons: %d", v.ID, v.Station, v.Persons)
	case *domain.SeasonTicket:
		return fmt.Sprintf("Type: MST\nID: %s\nPassenger: %s, Age: %d\nPhone: %s\nFrom: %s To: %s\nValid Until: %s",
			v.ID, v.PassengerName, v.PassengerAge, v.PhoneNumber, v.Source, v.Destination, v.ValidUntil)
	}
	return "No ticket data available."
}
