package pricing

import "fmt"

type Occupancy string

const (
	OccupancySingle Occupancy = "single"
	OccupancyDouble Occupancy = "double"
)

// RateTable holds the nightly rate per guest, in cents, for each occupancy.
type RateTable map[Occupancy]int64

// Rate returns the rate for occ, falling back to the double rate for
// anything unrecognized.
func (t RateTable) Rate(occ Occupancy) int64 {
	if rate, ok := t[occ]; ok {
		return rate
	}
	return t[OccupancyDouble]
}

// StayPolicy bounds the core trip length. MaxNights of 0 means no upper bound.
type StayPolicy struct {
	MinNights int
	MaxNights int
}

func (p StayPolicy) Allows(nights int) bool {
	if nights < 1 || nights < p.MinNights {
		return false
	}
	return p.MaxNights <= 0 || nights <= p.MaxNights
}

func (p StayPolicy) String() string {
	switch {
	case p.MaxNights <= 0:
		return fmt.Sprintf("at least %d nights", p.MinNights)
	case p.MinNights == p.MaxNights:
		return fmt.Sprintf("exactly %d nights", p.MinNights)
	default:
		return fmt.Sprintf("%d to %d nights", p.MinNights, p.MaxNights)
	}
}

type Policy struct {
	Rates        RateTable
	DepositCents int64
	Stay         StayPolicy
}

// DefaultPolicy mirrors the published prices: $1,200 single, $700 double,
// $299 deposit, 3 or 4 night stays.
func DefaultPolicy() Policy {
	return Policy{
		Rates: RateTable{
			OccupancySingle: 120000,
			OccupancyDouble: 70000,
		},
		DepositCents: 29900,
		Stay:         StayPolicy{MinNights: 3, MaxNights: 4},
	}
}
