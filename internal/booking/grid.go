package booking

import (
	"fmt"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Grid is the fixed seat layout of a studio: ordered row letters times a
// column count.  It is immutable once built.
type Grid struct {
	rows    []string
	columns int
	labels  []string
	index   map[string]int
}

// NewGrid builds a grid for rows x columns.  Labels are produced in
// row-major order as row + 1-based column.
func NewGrid(rows []string, columns int) (*Grid, error) {
	if len(rows) == 0 || columns < 1 {
		return nil, fmt.Errorf("grid needs at least one row and one column, got %d x %d", len(rows), columns)
	}
	g := &Grid{
		rows:    append([]string(nil), rows...),
		columns: columns,
		labels:  make([]string, 0, len(rows)*columns),
		index:   make(map[string]int, len(rows)*columns),
	}
	for _, row := range rows {
		if _, _, err := model.ParseSeatLabel(model.SeatLabel(row, 1)); err != nil {
			return nil, fmt.Errorf("invalid row %q", row)
		}
		for col := 1; col <= columns; col++ {
			label := model.SeatLabel(row, col)
			if _, dup := g.index[label]; dup {
				return nil, fmt.Errorf("duplicate row %q", row)
			}
			g.index[label] = len(g.labels)
			g.labels = append(g.labels, label)
		}
	}
	return g, nil
}

// DefaultGrid is the 5 x 6 studio used by the booking page.
func DefaultGrid() *Grid {
	g, _ := NewGrid(model.DefaultRows, model.DefaultColumns)
	return g
}

func (g *Grid) Rows() []string { return append([]string(nil), g.rows...) }

func (g *Grid) Columns() int { return g.columns }

// Size is rows x columns.
func (g *Grid) Size() int { return len(g.labels) }

// Labels returns every seat label in row-major order.
func (g *Grid) Labels() []string { return append([]string(nil), g.labels...) }

// Contains reports whether label names a seat of this grid.
func (g *Grid) Contains(label string) bool {
	_, ok := g.index[label]
	return ok
}
