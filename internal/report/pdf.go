// Package report renders analytics reports for download.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"venuebook/internal/service"
)

const (
	pageWidth  = 190.0 // A4 minus 10mm margins
	lineHeight = 7.0
)

// WritePDF renders r as a PDF document to w.
func WritePDF(w io.Writer, r *service.AnalyticsReport, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Venue analytics report", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Venue Analytics Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s (%d days), venue: %s",
		r.Period.StartDate, r.Period.EndDate, r.Period.Days, r.Period.Venue), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+generatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	m := r.Metrics
	section(pdf, "Key metrics")
	table(pdf, []string{"Metric", "Value"}, []float64{95, 95}, [][]string{
		{"Total bookings", strconv.FormatInt(m.TotalBookings, 10)},
		{"Bookings trend", percent(m.BookingsTrend)},
		{"Utilization rate", percent(m.UtilizationRate)},
		{"Utilization trend", percent(m.UtilizationTrend)},
		{"Most used venue", fmt.Sprintf("%s (%d)", m.MostUsedVenue, m.MostUsedVenueBookings)},
		{"Peak booking time", fmt.Sprintf("%s (%s of bookings)", m.PeakBookingTime, percent(m.PeakTimePercentage))},
	})

	section(pdf, "Capacity analysis")
	capRows := make([][]string, 0, len(r.CapacityAnalysis))
	for _, c := range r.CapacityAnalysis {
		capRows = append(capRows, []string{
			c.Venue,
			strconv.Itoa(c.Capacity),
			strconv.FormatFloat(c.AvgAttendees, 'f', 1, 64),
			percent(c.Efficiency),
			c.Recommendation,
		})
	}
	table(pdf, []string{"Venue", "Capacity", "Avg attendees", "Efficiency", "Recommendation"},
		[]float64{45, 20, 28, 22, 75}, capRows)

	section(pdf, "Department analysis")
	depRows := make([][]string, 0, len(r.DepartmentAnalysis))
	for _, d := range r.DepartmentAnalysis {
		depRows = append(depRows, []string{
			d.Department,
			strconv.FormatInt(d.TotalBookings, 10),
			d.MostUsedVenue,
			strconv.FormatFloat(d.AvgDuration, 'f', 1, 64) + " min",
			d.PeakTime,
		})
	}
	table(pdf, []string{"Department", "Bookings", "Most used venue", "Avg duration", "Peak time"},
		[]float64{45, 22, 53, 35, 35}, depRows)

	section(pdf, "Booking history")
	histRows := make([][]string, 0, len(r.BookingHistory))
	for _, h := range r.BookingHistory {
		histRows = append(histRows, []string{
			h.Date + " " + h.Time,
			h.Title,
			h.Venue,
			h.Department,
			equipment(h.ProjectorRequired, h.SpeakerRequired),
		})
	}
	table(pdf, []string{"When", "Title", "Venue", "Department", "Equipment"},
		[]float64{32, 58, 40, 35, 25}, histRows)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 8, title, "", 1, "L", false, 0, "")
}

func table(pdf *gofpdf.Fpdf, header []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 236, 245)
	for i, h := range header {
		pdf.CellFormat(widths[i], lineHeight, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(pageWidth, lineHeight, "No data for this period", "1", 1, "C", false, 0, "")
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], lineHeight, fit(pdf, cell, widths[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit truncates s so it stays inside a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func equipment(projector, speaker bool) string {
	switch {
	case projector && speaker:
		return "Projector, Speaker"
	case projector:
		return "Projector"
	case speaker:
		return "Speaker"
	default:
		return "None"
	}
}
