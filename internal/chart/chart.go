// Package chart draws the admin sales chart in the terminal: one bar per
// movie, coloured from the site palette, sized by share of tickets sold.
// There is no legend; every bar carries its own label.
package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Palette is the colour sequence of the bars, reused cyclically.
var Palette = []lipgloss.Color{"#e50914", "#00d2d3", "#2ecc71", "#3498db", "#9b59b6"}

// EmptyMessage is shown when nothing has been sold yet.
const EmptyMessage = "Belum ada penjualan."

const (
	defaultWidth = 60
	minBarWidth  = 10
)

// Render draws s into a block at most width cells wide (60 when width
// is not positive).
func Render(s model.SalesSummary, width int) (string, error) {
	if len(s.Labels) != len(s.Values) {
		return "", fmt.Errorf("chart: %d labels for %d values", len(s.Labels), len(s.Values))
	}
	total := 0
	for i, v := range s.Values {
		if v < 0 {
			return "", fmt.Errorf("chart: negative value %d for %q", v, s.Labels[i])
		}
		total += v
	}
	if width <= 0 {
		width = defaultWidth
	}

	labelWidth := 0
	for _, l := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	countWidth := len(fmt.Sprint(total))
	// label, space, bar, space, "count (100%)"
	barWidth := max(minBarWidth, width-labelWidth-countWidth-9)

	title := lipgloss.NewStyle().Bold(true).Render("Penjualan tiket per film")
	if total == 0 {
		return title + "\n" + lipgloss.NewStyle().Faint(true).Render(EmptyMessage) + "\n", nil
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, label := range s.Labels {
		v := s.Values[i]
		n := barLength(v, total, barWidth)
		bar := lipgloss.NewStyle().Foreground(Palette[i%len(Palette)]).Render(strings.Repeat("█", n))
		pct := float64(v) / float64(total) * 100
		fmt.Fprintf(&b, "%s %s%s %*d (%.0f%%)\n",
			padRight(label, labelWidth), bar, strings.Repeat(" ", barWidth-n), countWidth, v, pct)
	}
	b.WriteString(lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("Total: %d tiket", total)))
	b.WriteString("\n")
	return b.String(), nil
}

// barLength scales v against total.  A non-zero value always gets at least
// one cell.
func barLength(v, total, width int) int {
	if v == 0 || total == 0 {
		return 0
	}
	n := v * width / total
	if n == 0 {
		n = 1
	}
	return n
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
