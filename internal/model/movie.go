package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MovieID is the opaque movie identifier injected by the hosting page.
// The backend may send it as a JSON number or a JSON string; MovieID
// remembers which and encodes it back exactly as it was received, so the
// booking request carries the identifier untouched.
type MovieID struct {
	raw     string
	numeric bool
}

// MovieIDFromInt returns a numeric movie identifier.
func MovieIDFromInt(id uint64) MovieID {
	return MovieID{raw: strconv.FormatUint(id, 10), numeric: true}
}

// ParseMovieID interprets s as a numeric identifier when it is a valid
// JSON number and as a string identifier otherwise.
func ParseMovieID(s string) MovieID {
	if s == "" {
		return MovieID{}
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && json.Valid([]byte(s)) {
		return MovieID{raw: s, numeric: true}
	}
	return MovieID{raw: s}
}

// String returns the identifier text without JSON quoting.
func (id MovieID) String() string { return id.raw }

// IsZero reports whether no identifier was supplied.
func (id MovieID) IsZero() bool { return id.raw == "" }

// Uint64 returns the identifier as an unsigned integer when it is one.
func (id MovieID) Uint64() (uint64, bool) {
	n, err := strconv.ParseUint(id.raw, 10, 64)
	return n, err == nil
}

func (id MovieID) MarshalJSON() ([]byte, error) {
	if id.raw == "" {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

func (id *MovieID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = MovieID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MovieID{raw: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("movie id must be a number or a string: %w", err)
	}
	*id = MovieID{raw: n.String(), numeric: true}
	return nil
}

// Movie is a title served by the sandbox backend.
//
// Fields:
//
//	ID       – numeric identifier used in booking requests.
//	Title    – display title, also used for ticket file names.
//	Price    – ticket price in whole currency units.
//	Showtime – free-form showtime text ("12:00", "Coming Soon").
//	Status   – MovieNowShowing or MovieComingSoon; only now-showing
//	           titles can be booked.
type Movie struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Showtime string `json:"showtime"`
	Status   string `json:"status"`
}

const (
	MovieNowShowing = "now"
	MovieComingSoon = "soon"
)
