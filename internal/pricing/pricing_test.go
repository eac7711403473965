package pricing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addOnTable map[string]int64

func (t addOnTable) AddOnPrice(id string) (int64, bool) {
	p, ok := t[id]
	return p, ok
}

func newTestEngine() *Engine {
	return NewEngine(DefaultPolicy(), addOnTable{
		"wine-tasting":    15000,
		"airport-shuttle": 8000,
	})
}

func TestQuote_DoubleOccupancyScenario(t *testing.T) {
	e := newTestEngine()

	b, err := e.Quote(Request{
		Occupancy:         OccupancyDouble,
		TotalGuests:       2,
		Nights:            4,
		ExtraNightsBefore: 1,
		DepositPaid:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(70000), b.NightlyRate)
	assert.Equal(t, int64(560000), b.TripTotal)
	assert.Equal(t, int64(140000), b.ExtraDaysTotal)
	assert.Equal(t, int64(700000), b.TotalAmount)
	assert.Equal(t, int64(29900), b.DepositAmount)
	assert.Equal(t, int64(670100), b.RemainingBalance)
	assert.Equal(t, 1, b.ExtraNights)
}

func TestQuote_UnknownOccupancyFallsBackToDouble(t *testing.T) {
	e := newTestEngine()

	b, err := e.Quote(Request{Occupancy: "penthouse", TotalGuests: 1, Nights: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(70000), b.NightlyRate)
	assert.Equal(t, int64(210000), b.TotalAmount)
}

func TestQuote_SingleOccupancy(t *testing.T) {
	e := newTestEngine()

	b, err := e.Quote(Request{Occupancy: OccupancySingle, TotalGuests: 1, Nights: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(360000), b.TripTotal)
	assert.False(t, b.DepositPaid)
	assert.Equal(t, b.TotalAmount, b.RemainingBalance)
}

func TestQuote_AddOns(t *testing.T) {
	e := newTestEngine()

	b, err := e.Quote(Request{
		Occupancy:   OccupancyDouble,
		TotalGuests: 1,
		Nights:      3,
		AddOns:      []string{"wine-tasting", "unpriced-extra", "wine-tasting", "airport-shuttle"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(23000), b.AddOnsTotal, "duplicates count once, unknown add-ons are free")
	assert.Equal(t, int64(210000+23000), b.TotalAmount)
}

func TestQuote_NilAddOnPricer(t *testing.T) {
	e := NewEngine(DefaultPolicy(), nil)

	b, err := e.Quote(Request{Occupancy: OccupancyDouble, TotalGuests: 1, Nights: 3, AddOns: []string{"wine-tasting"}})
	require.NoError(t, err)
	assert.Zero(t, b.AddOnsTotal)
}

func TestQuote_Failures(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no guests", Request{TotalGuests: 0, Nights: 3}, ErrInvalidGuestCount},
		{"negative guests", Request{TotalGuests: -2, Nights: 3}, ErrInvalidGuestCount},
		{"too short", Request{TotalGuests: 2, Nights: 2}, ErrInvalidNights},
		{"too long", Request{TotalGuests: 2, Nights: 5}, ErrInvalidNights},
		{"zero nights", Request{TotalGuests: 2, Nights: 0}, ErrInvalidNights},
		{"negative extra", Request{TotalGuests: 2, Nights: 3, ExtraNightsAfter: -1}, ErrInvalidNights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Quote(tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestQuote_OpenEndedStayPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Stay = StayPolicy{MinNights: 4}
	e := NewEngine(p, nil)

	_, err := e.Quote(Request{TotalGuests: 1, Nights: 3})
	assert.ErrorIs(t, err, ErrInvalidNights)

	b, err := e.Quote(Request{TotalGuests: 1, Nights: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(70000*12), b.TotalAmount)
}

func TestQuote_RemainingBalanceNeverNegative(t *testing.T) {
	p := DefaultPolicy()
	p.Rates = RateTable{OccupancyDouble: 5000}
	p.DepositCents = 100000
	p.Stay = StayPolicy{MinNights: 1}
	e := NewEngine(p, nil)

	b, err := e.Quote(Request{Occupancy: OccupancyDouble, TotalGuests: 1, Nights: 1, DepositPaid: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), b.TotalAmount)
	assert.Equal(t, int64(0), b.RemainingBalance)
}

func TestQuote_MonotonicTotals(t *testing.T) {
	p := DefaultPolicy()
	p.Stay = StayPolicy{MinNights: 1}
	e := NewEngine(p, nil)

	base := Request{Occupancy: OccupancyDouble, TotalGuests: 1, Nights: 1}
	prev := int64(-1)
	for guests := 1; guests <= 8; guests++ {
		r := base
		r.TotalGuests = guests
		b, err := e.Quote(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.TotalAmount, prev)
		prev = b.TotalAmount
	}

	prev = -1
	for nights := 1; nights <= 14; nights++ {
		r := base
		r.Nights = nights
		b, err := e.Quote(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.TotalAmount, prev)
		prev = b.TotalAmount
	}

	prev = -1
	for extra := 0; extra <= 10; extra++ {
		r := base
		r.ExtraNightsBefore = extra / 2
		r.ExtraNightsAfter = extra - extra/2
		b, err := e.Quote(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.TotalAmount, prev)
		prev = b.TotalAmount
	}
}

func TestStayPolicy_String(t *testing.T) {
	assert.Equal(t, "3 to 4 nights", StayPolicy{MinNights: 3, MaxNights: 4}.String())
	assert.Equal(t, "at least 4 nights", StayPolicy{MinNights: 4}.String())
	assert.Equal(t, "exactly 3 nights", StayPolicy{MinNights: 3, MaxNights: 3}.String())
}

func TestFormatUSD(t *testing.T) {
	got := FormatUSD(560000)
	if !strings.HasPrefix(got, "$") || !strings.Contains(got, "5,600") {
		t.Fatalf("unexpected format %q", got)
	}
	if !strings.HasSuffix(FormatUSD(670150), ".50") {
		t.Fatalf("expected cents in %q", FormatUSD(670150))
	}
}
