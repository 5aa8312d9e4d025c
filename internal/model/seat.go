package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatStatus is the tri-state status of a seat in the booking grid.
//
// Values:
//
//	SeatOccupied  – booked before the flow started; never changes.
//	SeatAvailable – free and selectable.
//	SeatSelected  – chosen by the user; toggles back to available.
type SeatStatus string

const (
	SeatOccupied  SeatStatus = "occupied"
	SeatAvailable SeatStatus = "available"
	SeatSelected  SeatStatus = "selected"
)

// DefaultRows and DefaultColumns describe the studio layout used by the
// booking page: rows A..E with six seats each.
var DefaultRows = []string{"A", "B", "C", "D", "E"}

const DefaultColumns = 6

// SeatLabel builds the label of a seat from its row letter and 1-based
// column number, e.g. ("B", 3) -> "B3".
func SeatLabel(row string, column int) string {
	return row + strconv.Itoa(column)
}

// ParseSeatLabel splits a label such as "C12" into its row and column.
// The row is the leading run of upper-case letters and the column the
// trailing positive integer.
func ParseSeatLabel(label string) (row string, column int, err error) {
	i := 0
	for i < len(label) && label[i] >= 'A' && label[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(label) {
		return "", 0, fmt.Errorf("invalid seat label %q", label)
	}
	column, err = strconv.Atoi(label[i:])
	if err != nil || column < 1 || strings.HasPrefix(label[i:], "0") {
		return "", 0, fmt.Errorf("invalid seat label %q", label)
	}
	return label[:i], column, nil
}
