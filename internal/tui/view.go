package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Seat tokens.  Every token is two cells wide.
const (
	tokenAvailable = "[]"
	tokenOccupied  = "XX"
	tokenSelected  = "**"
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true)
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleOccupied  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Bold(true)
	cursorStyle        = lipgloss.NewStyle().Reverse(true)
	screenStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))
	alertStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	panelStyle         = lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("63"))
)

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func (m *Model) View() string {
	var b strings.Builder
	title := m.title
	if title == "" {
		title = "Film " + m.flow.Config().MovieID.String()
	}
	b.WriteString(titleStyle.Render("CINEMA X1X · " + title))
	b.WriteString("\n\n")

	switch {
	case m.flow.Phase() == booking.PhaseNavigating:
		b.WriteString(m.doneView())
	case m.showPayment:
		b.WriteString(m.paymentView())
	default:
		b.WriteString(m.renderSeatMap())
		b.WriteString("\n")
		b.WriteString(m.panelView())
	}

	if m.host.alert != "" {
		b.WriteString("\n\n")
		b.WriteString(alertStyle.Render(m.host.alert))
		b.WriteString("\n")
		b.WriteString(hint("tekan tombol apa saja untuk menutup"))
	}
	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(hint(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSeatMap() string {
	g := m.flow.Grid()
	rows := g.Rows()
	rowWidth := 1
	for _, r := range rows {
		rowWidth = max(rowWidth, len(r))
	}

	var b strings.Builder
	// column numbers
	b.WriteString(strings.Repeat(" ", rowWidth+1))
	for c := 1; c <= g.Columns(); c++ {
		b.WriteString(fmt.Sprintf("%-2d", c))
		if c < g.Columns() {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	for r, row := range rows {
		b.WriteString(fmt.Sprintf("%*s ", rowWidth, row))
		for c := 0; c < g.Columns(); c++ {
			seat, _ := m.flow.Seat(model.SeatLabel(row, c+1))
			var rendered string
			switch seat.Status() {
			case model.SeatOccupied:
				rendered = seatStyleOccupied.Render(tokenOccupied)
			case model.SeatSelected:
				rendered = seatStyleSelected.Render(tokenSelected)
			default:
				rendered = seatStyleAvailable.Render(tokenAvailable)
			}
			if r == m.row && c == m.col {
				rendered = cursorStyle.Render(rendered)
			}
			b.WriteString(rendered)
			if c < g.Columns()-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %*s\n", rowWidth, row))
	}

	gridWidth := g.Columns()*3 - 1
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", rowWidth+1))
	b.WriteString(screenStyle.Render(centre("LAYAR", gridWidth)))
	b.WriteString("\n")
	b.WriteString(hint(fmt.Sprintf("%s tersedia • %s terisi • %s dipilih", tokenAvailable, tokenOccupied, tokenSelected)))
	b.WriteString("\n")
	return b.String()
}

func centre(text string, width int) string {
	if len(text) >= width {
		return text
	}
	left := (width - len(text)) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-len(text)-left)
}

func (m *Model) panelView() string {
	sum := m.panel.last
	seats := "-"
	if sum.Count > 0 {
		seats = strings.Join(sum.Selected, ", ")
	}
	lines := []string{
		fmt.Sprintf("Kursi: %s", seats),
		fmt.Sprintf("Total: Rp %s", sum.FormattedTotal),
		"",
	}
	keys := "←↑↓→ pindah • space pilih • q keluar"
	if sum.SubmitEnabled {
		keys = "←↑↓→ pindah • space pilih • p bayar • q keluar"
	}
	lines = append(lines, hint(keys))
	return strings.Join(lines, "\n")
}

func (m *Model) paymentView() string {
	sum := m.modal.last
	price := booking.FormatAmount(m.flow.Locale(), sum.UnitPrice)
	lines := []string{
		titleStyle.Render("Ringkasan Pembayaran"),
		"",
		fmt.Sprintf("Kursi      : %s", strings.Join(sum.Selected, ", ")),
		fmt.Sprintf("Harga      : Rp %s x %d", price, sum.Count),
		fmt.Sprintf("Total Bayar: Rp %s", sum.FormattedTotal),
		"",
	}
	if m.flow.Loading() {
		lines = append(lines, m.spinner.View()+" Memproses pembayaran...")
	} else {
		lines = append(lines, hint("y/enter bayar • esc batal"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) doneView() string {
	lines := []string{
		successStyle.Render("Pembayaran berhasil!"),
		fmt.Sprintf("Kursi %s sudah dipesan.", strings.Join(m.flow.Selection(), ", ")),
		hint("Riwayat: " + m.host.navigated),
	}
	switch {
	case m.exporting:
		lines = append(lines, m.spinner.View()+" Menyimpan tiket...")
	case m.ticketErr != nil:
		lines = append(lines, alertStyle.Render("Tiket gagal disimpan: "+m.ticketErr.Error()))
	case m.ticketPath != "":
		lines = append(lines, "Tiket disimpan di "+m.ticketPath)
	}
	lines = append(lines, "", hint("q keluar"))
	return strings.Join(lines, "\n")
}
