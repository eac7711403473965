package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/dates"
)

const (
	// SlotNights is the fixed length of an offered block: 3 nights, 4 days.
	SlotNights    = 3
	HorizonMonths = 12
)

type Slot struct {
	ExperienceID string    `json:"experience_id"`
	Start        time.Time `json:"-"`
	End          time.Time `json:"-"`
	CheckIn      string    `json:"check_in"`
	CheckOut     string    `json:"check_out"`
	Label        string    `json:"label"`
}

// Generate allocates weeks to every experience for the months between now and
// now+HorizonMonths. Weeks are the first four Monday-anchored weeks of a month.
// The fill_remaining_weeks experience takes every week of a month that no other
// rule claimed, so the whole catalog is evaluated month by month.
func Generate(experiences []catalog.Experience, now time.Time) map[string][]Slot {
	loc := now.Location()
	horizon := now.AddDate(0, HorizonMonths, 0)
	out := make(map[string][]Slot, len(experiences))

	add := func(id string, start time.Time) {
		if !start.After(now) || !start.Before(horizon) {
			return
		}
		out[id] = append(out[id], newSlot(id, start))
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	for month := first; month.Before(horizon); month = month.AddDate(0, 1, 0) {
		var claimed [catalog.WeeksPerMonth + 1]bool
		var fill *catalog.Experience

		for i := range experiences {
			e := &experiences[i]
			rule := e.Schedule
			switch rule.Kind {
			case catalog.FixedWeekOfMonth:
				// Unvalidated rules may name a week outside 1..4; they offer nothing.
				if rule.Week < 1 || rule.Week > catalog.WeeksPerMonth {
					continue
				}
				if offeredIn(rule, month.Month()) {
					claimed[rule.Week] = true
					add(e.ID, WeekStart(month.Year(), month.Month(), rule.Week, loc))
				}
			case catalog.AllWeeksInMonths:
				if offeredIn(rule, month.Month()) {
					for w := 1; w <= catalog.WeeksPerMonth; w++ {
						claimed[w] = true
						add(e.ID, WeekStart(month.Year(), month.Month(), w, loc))
					}
				}
			case catalog.FillRemainingWeeks:
				if fill == nil {
					fill = e
				}
			}
		}

		if fill == nil || (len(fill.Schedule.Months) > 0 && !offeredIn(fill.Schedule, month.Month())) {
			continue
		}
		for w := 1; w <= catalog.WeeksPerMonth; w++ {
			if !claimed[w] {
				add(fill.ID, WeekStart(month.Year(), month.Month(), w, loc))
			}
		}
	}

	for id := range out {
		slots := out[id]
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	}
	return out
}

// ForExperience returns the slots of a single experience.
func ForExperience(experiences []catalog.Experience, id string, now time.Time) []Slot {
	slots := Generate(experiences, now)[id]
	if slots == nil {
		return []Slot{}
	}
	return slots
}

// All flattens Generate into one list ordered by start date, then catalog order.
func All(experiences []catalog.Experience, now time.Time) []Slot {
	byID := Generate(experiences, now)
	var all []Slot
	for _, e := range experiences {
		all = append(all, byID[e.ID]...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all
}

// WeekStart returns the Monday that opens week n of the month.
func WeekStart(year int, month time.Month, n int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(time.Monday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func newSlot(id string, start time.Time) Slot {
	end := start.AddDate(0, 0, SlotNights)
	return Slot{
		ExperienceID: id,
		Start:        start,
		End:          end,
		CheckIn:      dates.ISODate(start),
		CheckOut:     dates.ISODate(end),
		Label:        label(start, end),
	}
}

func label(start, end time.Time) string {
	if start.Year() != end.Year() {
		return fmt.Sprintf("%s – %s", start.Format("Mon Jan 2, 2006"), end.Format("Mon Jan 2, 2006"))
	}
	return fmt.Sprintf("%s – %s", start.Format("Mon Jan 2"), end.Format("Mon Jan 2, 2006"))
}

func offeredIn(rule catalog.ScheduleRule, m time.Month) bool {
	for _, month := range rule.Months {
		if time.Month(month) == m {
			return true
		}
	}
	return false
}
