// Package queue carries booking events between the sandbox backend and
// RabbitMQ.  The backend publishes one BookingConfirmedEvent per accepted
// booking request; the consumer appends them to a booking log.
package queue

import (
	"fmt"
	"strings"
)

// BookingConfirmedQueue is the durable queue booking events are routed to.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a booking request booked at
// least one seat.  It carries enough for downstream consumers to log or
// notify without querying the seat store.
type BookingConfirmedEvent struct {
	BookingIDs  []string `json:"booking_ids"`
	MovieID     uint64   `json:"movie_id"`
	MovieTitle  string   `json:"movie_title"`
	Seats       []string `json:"seats"`
	Skipped     []string `json:"skipped,omitempty"` // requested seats that were already taken
	UnitPrice   int64    `json:"unit_price"`
	Total       int64    `json:"total"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// LogLine renders ev as a single line for the booking log.
func (ev BookingConfirmedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Booking confirmed | movie_id=%d | movie=%q | total=%d | seats=[%s] | skipped=[%s]\n",
		ev.ConfirmedAt, ev.MovieID, ev.MovieTitle, ev.Total,
		strings.Join(ev.Seats, ","), strings.Join(ev.Skipped, ","))
}
