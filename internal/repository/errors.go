// Package repository stores the sandbox backend's movie catalogue and
// booked seats.  Two implementations share the BookingRepo contract: an
// in-process store for tests and local runs, and a Redis store so several
// sandbox instances can share one seat map during load tests.
package repository

import "errors"

// ErrMovieNotFound is returned when a movie id is not in the catalogue.
// Handlers translate it into an HTTP 404 response.
var ErrMovieNotFound = errors.New("movie not found")

// ErrConflict is returned when a request cannot proceed because of the
// movie's state, such as booking a title that is not showing yet.
// Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
