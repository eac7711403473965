package pricing

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrInvalidNights     = errors.New("invalid number of nights")
	ErrInvalidGuestCount = errors.New("total guests must be at least 1")
)

// AddOnPricer looks up add-on prices in cents. Unknown add-ons are unpriced.
type AddOnPricer interface {
	AddOnPrice(id string) (int64, bool)
}

type Request struct {
	Occupancy         Occupancy
	TotalGuests       int
	Nights            int
	ExtraNightsBefore int
	ExtraNightsAfter  int
	AddOns            []string
	DepositPaid       bool
}

type Breakdown struct {
	NightlyRate      int64 `json:"nightly_rate"`
	Nights           int   `json:"nights"`
	ExtraNights      int   `json:"extra_nights"`
	TripTotal        int64 `json:"trip_total"`
	ExtraDaysTotal   int64 `json:"extra_days_total"`
	AddOnsTotal      int64 `json:"add_ons_total"`
	TotalAmount      int64 `json:"total_amount"`
	DepositAmount    int64 `json:"deposit_amount"`
	DepositPaid      bool  `json:"deposit_paid"`
	RemainingBalance int64 `json:"remaining_balance"`
}

type Engine struct {
	policy Policy
	addOns AddOnPricer
}

func NewEngine(policy Policy, addOns AddOnPricer) *Engine {
	return &Engine{policy: policy, addOns: addOns}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Quote computes the price breakdown for req. Extra days are charged at the
// same per-guest nightly rate as the core trip.
func (e *Engine) Quote(req Request) (Breakdown, error) {
	if req.TotalGuests < 1 {
		return Breakdown{}, ErrInvalidGuestCount
	}
	if !e.policy.Stay.Allows(req.Nights) {
		return Breakdown{}, fmt.Errorf("%w: stay must be %s, got %d", ErrInvalidNights, e.policy.Stay, req.Nights)
	}
	if req.ExtraNightsBefore < 0 || req.ExtraNightsAfter < 0 {
		return Breakdown{}, fmt.Errorf("%w: extra nights cannot be negative", ErrInvalidNights)
	}

	rate := e.policy.Rates.Rate(req.Occupancy)
	guests := int64(req.TotalGuests)
	extraNights := req.ExtraNightsBefore + req.ExtraNightsAfter

	b := Breakdown{
		NightlyRate:    rate,
		Nights:         req.Nights,
		ExtraNights:    extraNights,
		TripTotal:      rate * guests * int64(req.Nights),
		ExtraDaysTotal: rate * guests * int64(extraNights),
		AddOnsTotal:    e.addOnsTotal(req.AddOns),
		DepositAmount:  e.policy.DepositCents,
		DepositPaid:    req.DepositPaid,
	}
	b.TotalAmount = b.TripTotal + b.ExtraDaysTotal + b.AddOnsTotal

	b.RemainingBalance = b.TotalAmount
	if b.DepositPaid {
		b.RemainingBalance -= b.DepositAmount
	}
	if b.RemainingBalance < 0 {
		b.RemainingBalance = 0
	}
	return b, nil
}

func (e *Engine) addOnsTotal(ids []string) int64 {
	if e.addOns == nil {
		return 0
	}
	seen := make(map[string]bool, len(ids))
	var total int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if price, ok := e.addOns.AddOnPrice(id); ok {
			total += price
		}
	}
	return total
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders cents as a dollar amount, e.g. $5,600.00.
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + usd.Sprintf("$%d.%02d", cents/100, cents%100)
}
