package ticketpdf

import (
	"bytes"
	"fmt"
	"strings"

	"railbook/internal/domain"

	"github.com/phpdave11/gofpdf"
)

// Renderer prints tickets as single page A4 PDFs.
type Renderer struct {
	Issuer string
}

func New(issuer string) *Renderer {
	if issuer == "" {
		issuer = "Railbook"
	}
	return &Renderer{Issuer: issuer}
}

type line struct {
	label string
	value string
}

func (r *Renderer) Render(t domain.Ticket, qrText string) ([]byte, error) {
	title, lines := describe(t)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor(r.Issuer, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, strings.ToUpper(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		pdf.Cell(45, 7, l.label)
		pdf.Cell(0, 7, l.value)
		pdf.Ln(7)
	}

	if rt, ok := t.(*domain.ReservedTicket); ok && len(rt.Passengers) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		for _, h := range []struct {
			w    float64
			text string
		}{{60, "Passenger"}, {20, "Age"}, {25, "Gender"}, {25, "Coach"}, {25, "Berth"}} {
			pdf.CellFormat(h.w, 8, h.text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, p := range rt.Passengers {
			pdf.CellFormat(60, 7, p.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 7, fmt.Sprint(p.Age), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, p.Gender, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, p.Coach, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, p.Berth, "1", 0, "L", false, 0, "")
			pdf.Ln(7)
		}
	}

	if qrText != "" {
		pdf.Ln(8)
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 5, qrText, "1", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Issued by "+r.Issuer+". Please carry a valid photo ID while travelling.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket %s: %w", t.Base().ID, err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("Rs. %.2f", v)
}

func describe(t domain.Ticket) (string, []line) {
	b := t.Base()
	common := []line{
		{"Status", string(b.Status)},
		{"Fare", money(b.Fare)},
		{"Booked on", b.CreatedAt.Format("2006-01-02 15:04")},
	}

	switch v := t.(type) {
	case *domain.ReservedTicket:
		lines := []line{
			{"PNR", v.PNR()},
			{"Train", v.Train.Number + " - " + v.Train.Name},
			{"From", v.Train.Source},
			{"To", v.Train.Destination},
			{"Class", strings.TrimSpace(v.ClassCode + " " + v.ClassName)},
		}
		if v.JourneyDate != "" {
			lines = append(lines, line{"Journey date", v.JourneyDate})
		}
		if v.Quota != "" {
			lines = append(lines, line{"Quota", v.Quota})
		}
		return "Reserved Ticket", append(lines, common...)
	case *domain.UnreservedTicket:
		return "Unreserved Ticket", append([]line{
			{"Ticket ID", v.ID},
			{"From", v.Source},
			{"To", v.Destination},
			{"Distance", fmt.Sprintf("%d km", v.DistanceKm)},
			{"Train type", v.TrainCategory},
			{"Adults", fmt.Sprint(v.Adults)},
			{"Children", fmt.Sprint(v.Children)},
		}, common...)
	case *domain.PlatformTicket:
		return "Platform Ticket", append([]line{
			{"Ticket ID", v.ID},
			{"Station", v.Station},
			{"Persons", fmt.Sprint(v.Persons)},
		}, common...)
	case *domain.SeasonTicket:
		return "Monthly Season Ticket", append([]line{
			{"Ticket ID", v.ID},
			{"Passenger", v.PassengerName},
			{"Age", fmt.Sprint(v.PassengerAge)},
			{"Phone", v.PhoneNumber},
			{"From", v.Source},
			{"To", v.Destination},
			{"Valid from", v.ValidFrom},
			{"Valid until", v.ValidUntil},
		}, common...)
	}
	return "Ticket", append([]line{{"Ticket ID", b.ID}}, common...)
}
