package repository

import (
	"time"

	"github.com/diagnosis/provence-bookings/internal/dates"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

// extraArgs maps an optional extra-days block to nullable date columns.
func extraArgs(e *domain.ExtraDays) (from, to *time.Time, nights int) {
	if e == nil {
		return nil, nil, 0
	}
	nights, _ = e.NightCount()
	if t, err := dates.Parse(e.CheckIn); err == nil {
		from = &t
	}
	if t, err := dates.Parse(e.CheckOut); err == nil {
		to = &t
	}
	return from, to, nights
}

func extraDays(from, to *string, nights int) *domain.ExtraDays {
	if from == nil && nights == 0 {
		return nil
	}
	e := &domain.ExtraDays{Nights: nights}
	if from != nil {
		e.CheckIn = *from
	}
	if to != nil {
		e.CheckOut = *to
	}
	return e
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
