package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
	"storefront/internal/utils"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// SummaryDocService renders the booking summary of a draft as a PDF.
type SummaryDocService struct {
	Rules     pricing.Rules
	Logger    *zap.Logger
	RequestID string
	Now       func() time.Time
}

func (s SummaryDocService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GenerateSummary returns the PDF bytes and a download filename. Without a
// remote price the advisory preview is printed and marked as an estimate.
func (s SummaryDocService) GenerateSummary(d models.BookingDraft) ([]byte, string, error) {
	if d.Route == nil {
		return nil, "", domain.ValidationError{Field: "route", Msg: "select a route before downloading the summary"}
	}
	breakdown, estimate := d.Pricing, false
	if breakdown == nil {
		if p, err := s.Rules.Preview(d); err == nil {
			breakdown, estimate = &p, true
		}
	}
	utils.LogEvent(s.Logger, s.RequestID, "docs", "generate_summary", "summary pdf rendered",
		zap.String("route_id", d.Route.ID),
		zap.Bool("estimate", estimate),
	)
	return buildSummaryPDF(d, breakdown, estimate, s.now())
}

func buildSummaryPDF(d models.BookingDraft, b *models.PricingBreakdown, estimate bool, now time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Summary", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING SUMMARY")
	pdf.Ln(12)

	cfg := d.Configuration
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Product        : %s", safe(string(d.Product), "-")),
		fmt.Sprintf("Route          : %s", safe(d.Route.Name, d.Route.ID)),
	}
	if d.Route.Origin != "" || d.Route.Destination != "" {
		lines = append(lines, fmt.Sprintf("From / To      : %s -> %s", safe(d.Route.Origin, "-"), safe(d.Route.Destination, "-")))
	}
	lines = append(lines,
		fmt.Sprintf("Vehicle        : %s", vehicleLabel(d)),
		fmt.Sprintf("Trip           : %s", strings.ReplaceAll(string(cfg.TripType), "_", " ")),
		fmt.Sprintf("Outbound       : %s %s", safe(cfg.OutboundDate, "-"), safe(cfg.OutboundTime, "")),
	)
	if d.IsRoundTrip() {
		lines = append(lines, fmt.Sprintf("Return         : %s %s", safe(cfg.ReturnDate, "-"), safe(cfg.ReturnTime, "")))
	}
	lines = append(lines,
		fmt.Sprintf("Passengers     : %d", cfg.PassengerCount),
		fmt.Sprintf("Luggage        : %d", cfg.LuggageCount),
		fmt.Sprintf("Contact        : %s", safe(d.Contact.ContactName, "-")),
		fmt.Sprintf("Phone          : %s", safe(d.Contact.ContactPhone, "-")),
	)
	if d.Contact.PickupAddress != "" {
		lines = append(lines, fmt.Sprintf("Pickup         : %s", d.Contact.PickupAddress))
	}
	if d.Contact.DropoffAddress != "" {
		lines = append(lines, fmt.Sprintf("Dropoff        : %s", d.Contact.DropoffAddress))
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	if len(d.SelectedOptions) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Extras:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for i, o := range d.SelectedOptions {
			pdf.Cell(0, 6, fmt.Sprintf("%d) %s x%d  %s", i+1, safe(o.Name, o.OptionID), o.Quantity,
				utils.FormatPrice(o.UnitPrice*float64(o.Quantity), d.Route.Currency)))
			pdf.Ln(6)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Price:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	if b == nil {
		pdf.Cell(0, 6, "Not priced yet")
		pdf.Ln(8)
	} else {
		cur := b.Currency
		if cur == "" {
			cur = d.Route.Currency
		}
		pdf.Cell(0, 6, "Base           : "+utils.FormatPrice(b.BasePrice, cur))
		pdf.Ln(6)
		if b.TimeSurcharge > 0 {
			pdf.Cell(0, 6, "Time surcharge : "+utils.FormatPrice(b.TimeSurcharge, cur))
			pdf.Ln(6)
		}
		if b.RoundTripDiscount > 0 {
			pdf.Cell(0, 6, "Return discount: -"+utils.FormatPrice(b.RoundTripDiscount, cur))
			pdf.Ln(6)
		}
		if b.OptionsTotal > 0 {
			pdf.Cell(0, 6, "Extras         : "+utils.FormatPrice(b.OptionsTotal, cur))
			pdf.Ln(6)
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Total: "+utils.FormatPrice(b.FinalPrice, cur))
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "I", 10)
	note := "Generated " + now.Format("2006-01-02 15:04") + "."
	if estimate {
		note += " The total is an estimate until confirmed by the pricing service."
	}
	pdf.MultiCell(0, 6, note, "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("SUMMARY_%s_%s.pdf", utils.SafeFilenamePart(d.Route.ID), now.Format("20060102"))
	return buf.Bytes(), filename, nil
}

func vehicleLabel(d models.BookingDraft) string {
	id := d.Configuration.VehicleType
	if d.Route != nil {
		if v, ok := d.Route.Vehicle(id); ok && v.Name != "" {
			return v.Name
		}
	}
	return safe(id, "-")
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
