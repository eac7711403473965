package availability

import (
	"errors"
	"time"

	"github.com/diagnosis/provence-bookings/internal/dates"
)

var ErrDatesUnavailable = errors.New("selected dates are no longer available")

const StatusConfirmed = "confirmed"

type ConfirmedBooking struct {
	CheckIn  string
	CheckOut string
	Status   string
}

// BlockedRanges turns confirmed bookings into blocked ranges, one per
// booking, copied verbatim. Overlapping ranges are not merged.
func BlockedRanges(bookings []ConfirmedBooking) []dates.Range {
	blocked := make([]dates.Range, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != StatusConfirmed {
			continue
		}
		blocked = append(blocked, dates.Range{From: b.CheckIn, To: b.CheckOut})
	}
	return blocked
}

// IsDateBlocked reports whether iso falls inside any blocked range. The
// check-out day of a blocked range counts as blocked.
func IsDateBlocked(iso string, blocked []dates.Range) bool {
	for _, r := range blocked {
		if dates.RangeContains(r, iso) {
			return true
		}
	}
	return false
}

// IsBlocked is IsDateBlocked for a calendar day.
func IsBlocked(day time.Time, blocked []dates.Range) bool {
	return IsDateBlocked(dates.ISODate(day), blocked)
}

// Overlaps reports whether any day of stay is blocked.
func Overlaps(stay dates.Range, blocked []dates.Range) bool {
	for _, r := range blocked {
		if stay.From <= r.To && r.From <= stay.To {
			return true
		}
	}
	return false
}
