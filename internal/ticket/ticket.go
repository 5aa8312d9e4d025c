// Package ticket renders booked seats as a printable PDF ticket: A6
// landscape, 10 mm margins, the movie, the seats, the total and a QR code
// carrying the booking reference.
package ticket

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/language"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

const (
	// MarginMM is the page margin on every side.
	MarginMM = 10
	qrSizeMM = 40
	qrPixels = 256
)

// Ticket is what gets printed.
type Ticket struct {
	MovieTitle string
	Seats      []string
	UnitPrice  int64
	Total      int64
	Reference  string
	BookedAt   time.Time
	Locale     language.Tag
}

// FileName is the download name of a ticket: "Tiket-<title>.pdf" with the
// title reduced to a file-system safe slug.
func FileName(title string) string {
	s := slug.Make(title)
	if s == "" {
		s = "tiket"
	}
	return "Tiket-" + s + ".pdf"
}

// FromHistory builds the ticket for the bookings a request created, as
// named by the booking response.  Entries are matched on booking id only,
// so a seat someone else holds never ends up on the ticket.  It reports
// false when none of the ids is in the history.
func FromHistory(items []model.HistoryEntry, bookingIDs []string) (Ticket, bool) {
	byID := make(map[string]model.HistoryEntry, len(items))
	for _, it := range items {
		byID[it.BookingID] = it
	}
	var t Ticket
	var refs []string
	for _, id := range bookingIDs {
		it, ok := byID[id]
		if !ok || it.Status != model.BookingBooked {
			continue
		}
		if t.MovieTitle == "" {
			t.MovieTitle = it.MovieTitle
		}
		t.UnitPrice = it.Price
		t.Total += it.Price
		t.Seats = append(t.Seats, it.Seat)
		refs = append(refs, shortRef(it.BookingID))
		if it.BookedAt.After(t.BookedAt) {
			t.BookedAt = it.BookedAt
		}
	}
	if len(t.Seats) == 0 {
		return Ticket{}, false
	}
	t.Reference = strings.Join(refs, "-")
	return t, true
}

func shortRef(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// Render writes the PDF to w.
func Render(w io.Writer, t Ticket) error {
	if len(t.Seats) == 0 {
		return fmt.Errorf("ticket has no seats")
	}
	if t.Locale == language.Und {
		t.Locale = language.Indonesian
	}
	qr, err := qrcode.Encode(qrPayload(t), qrcode.Medium, qrPixels)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A6", "")
	pdf.SetMargins(MarginMM, MarginMM, MarginMM)
	pdf.SetAutoPageBreak(false, MarginMM)
	pdf.SetTitle(FileName(t.MovieTitle), true)
	pdf.SetCreator("CINEMA X1X", true)
	if !t.BookedAt.IsZero() {
		pdf.SetCreationDate(t.BookedAt)
		pdf.SetModificationDate(t.BookedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	textW := pageW - 2*MarginMM - qrSizeMM - 4

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(229, 9, 20)
	pdf.CellFormat(textW, 5, "CINEMA X1X", "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.MultiCell(textW, 7, tr(t.MovieTitle), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(22, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(textW-22, 6, tr(value), "", 1, "L", false, 0, "")
	}
	line("Kursi", strings.Join(t.Seats, ", "))
	line("Jumlah", fmt.Sprintf("%d tiket", len(t.Seats)))
	line("Total", "Rp "+booking.FormatAmount(t.Locale, t.Total))
	if !t.BookedAt.IsZero() {
		line("Dipesan", t.BookedAt.Format("02 Jan 2006 15:04"))
	}
	if t.Reference != "" {
		line("Kode", t.Reference)
	}

	pdf.RegisterImageOptionsReader("qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", pageW-MarginMM-qrSizeMM, MarginMM+5, qrSizeMM, qrSizeMM, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func qrPayload(t Ticket) string {
	return fmt.Sprintf("CINEMAX1X|%s|%s|%s", t.Reference, t.MovieTitle, strings.Join(t.Seats, ","))
}

// Export renders the ticket into dir under FileName and returns the path.
func Export(dir string, t Ticket) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Render(&buf, t); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(t.MovieTitle))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write ticket: %w", err)
	}
	return path, nil
}
