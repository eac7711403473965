package dates

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// Range is an inclusive interval of ISO dates.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Parse reads a YYYY-MM-DD date as midnight UTC.
func Parse(iso string) (time.Time, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(iso))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidRange, iso)
	}
	return t, nil
}

// ISODate formats the calendar date of t in t's own location.
func ISODate(t time.Time) string {
	return t.Format(isoLayout)
}

// NightsBetween returns the number of whole days between checkIn and checkOut.
func NightsBetween(checkIn, checkOut string) (int, error) {
	in, err := Parse(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := Parse(checkOut)
	if err != nil {
		return 0, err
	}
	if !out.After(in) {
		return 0, fmt.Errorf("%w: check-out %s is not after check-in %s", ErrInvalidRange, checkOut, checkIn)
	}
	return int(math.Round(out.Sub(in).Hours() / 24)), nil
}

// RangeContains reports whether iso lies within r, both ends included.
// Zero-padded ISO dates order lexically the same as chronologically.
func RangeContains(r Range, iso string) bool {
	return r.From <= iso && iso <= r.To
}

// SplitLegacyRange parses the "YYYY-MM-DD to YYYY-MM-DD" form produced by the
// calendar widget. A single date yields an empty second value.
func SplitLegacyRange(s string) (string, string) {
	parts := strings.Split(strings.TrimSpace(s), " to ")
	switch len(parts) {
	case 1:
		return strings.TrimSpace(parts[0]), ""
	case 2:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	default:
		return "", ""
	}
}
