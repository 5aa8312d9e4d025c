package booking

import "github.com/iliyamo/cinema-seat-booking/internal/model"

// Seat is one cell of the booking grid.  Available seats own an
// activation handler registered when the grid is built; occupied seats
// have none, which is what makes them non-interactive.
type Seat struct {
	label    string
	row      string
	column   int
	status   model.SeatStatus
	activate func()
}

func (s *Seat) Label() string { return s.label }

func (s *Seat) Row() string { return s.row }

func (s *Seat) Column() int { return s.column }

func (s *Seat) Status() model.SeatStatus { return s.status }

// Interactive reports whether the seat reacts to activation.
func (s *Seat) Interactive() bool { return s.activate != nil }
