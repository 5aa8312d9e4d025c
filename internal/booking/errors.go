package booking

import (
	"errors"
	"fmt"
)

// ErrConfigMissing is returned by New when no booking configuration was
// provided.  It is an integration error: the flow never becomes
// interactive.
var ErrConfigMissing = errors.New("booking config missing")

// ErrConfigInvalid wraps validation failures of a supplied configuration.
var ErrConfigInvalid = errors.New("booking config invalid")

// ErrUnknownSeat is returned when a label does not name a seat in the grid.
var ErrUnknownSeat = errors.New("unknown seat")

// ErrSeatNotInteractive is returned when an occupied seat is activated.
// Occupied seats carry no activation handler, so nothing happens.
var ErrSeatNotInteractive = errors.New("seat is not interactive")

// ErrFlowLocked is returned while the loading indicator is shown.
var ErrFlowLocked = errors.New("booking in progress")

// ErrEmptySelection is returned when submission is triggered with no
// seats selected; the submit control is disabled in that state.
var ErrEmptySelection = errors.New("no seats selected")

// ConnectionErrorMessage is the generic text shown on transport failures.
const ConnectionErrorMessage = "Terjadi kesalahan koneksi."

// RejectedFallbackMessage is shown when the server rejects a booking
// without saying why.
const RejectedFallbackMessage = "Pemesanan gagal."

// RejectedError reports a booking the server explicitly refused.  Msg is
// the server's message, verbatim.
type RejectedError struct {
	Msg string
}

func (e *RejectedError) Error() string {
	if e.Msg == "" {
		return "booking rejected"
	}
	return fmt.Sprintf("booking rejected: %s", e.Msg)
}

// TransportError reports a booking request that could not complete: the
// endpoint was unreachable or answered with something that is not a
// booking response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("booking transport: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }
