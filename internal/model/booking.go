package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
)

// BookingConfig is the configuration the hosting page hands to the seat
// booking flow: unit price, seats already taken and the movie being
// booked.  It mirrors the page's bookingConfig object field for field.
type BookingConfig struct {
	Price       int64    `json:"price" validate:"gte=0"`
	BookedSeats []string `json:"bookedSeats" validate:"dive,required"`
	MovieID     MovieID  `json:"movieId" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// MovieID is validated through its textual form so "required" means
	// "an identifier was supplied".
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if id, ok := field.Interface().(MovieID); ok {
			return id.raw
		}
		return nil
	}, MovieID{})
	return v
}

// Validate checks the configuration invariants: a non-negative price, a
// movie identifier and no blank seat labels.
func (c *BookingConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("booking config: field %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("booking config: %w", err)
	}
	return nil
}

// DecodeBookingConfig reads a bookingConfig JSON document.  It does not
// validate the result; callers hand it to the booking flow which does.
func DecodeBookingConfig(r io.Reader) (*BookingConfig, error) {
	var cfg BookingConfig
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode booking config: %w", err)
	}
	return &cfg, nil
}

// BookingRequest is the body of POST /book_ticket.  It is derived from
// the current selection at submission time and never stored.
type BookingRequest struct {
	MovieID MovieID  `json:"movie_id"`
	Seats   []string `json:"seats"`
}

// BookingResponse is the JSON document returned by POST /book_ticket.
// Any status other than StatusSuccess is a rejection and Msg is shown to
// the user verbatim.  On success BookingIDs names the bookings the request
// created and Skipped the requested seats that were already taken.
type BookingResponse struct {
	Status     string   `json:"status"`
	Msg        string   `json:"msg,omitempty"`
	BookingIDs []string `json:"booking_ids,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Succeeded reports whether the backend accepted the booking.
func (r BookingResponse) Succeeded() bool { return r.Status == StatusSuccess }

// Booking is one booked seat as recorded by the sandbox backend.
//
// Fields:
//
//	ID       – random booking reference (UUID).
//	MovieID  – movie the seat belongs to.
//	Seat     – seat label, e.g. "B3".
//	Status   – BookingBooked while the seat is held, BookingReleased after a reset.
//	BookedAt – creation timestamp (UTC).
type Booking struct {
	ID       string    `json:"id"`
	MovieID  uint64    `json:"movie_id"`
	Seat     string    `json:"seat"`
	Status   string    `json:"status"`
	BookedAt time.Time `json:"booked_at"`
}

const (
	BookingBooked = "booked"
	// BookingReleased marks a booking whose seat was freed by an admin
	// reset.  It still counts as a sold ticket.
	BookingReleased = "history"
)

// HistoryEntry is a booking joined with its movie, as listed on the
// booking history page.
type HistoryEntry struct {
	BookingID  string    `json:"booking_id"`
	MovieID    uint64    `json:"movie_id"`
	MovieTitle string    `json:"movie_title"`
	Seat       string    `json:"seat"`
	Price      int64     `json:"price"`
	Status     string    `json:"status"`
	BookedAt   time.Time `json:"booked_at"`
}

// SalesSummary feeds the admin chart: one label and one ticket count per
// movie, in catalogue order.
type SalesSummary struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}
