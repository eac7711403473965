package repository

import (
	"testing"

	"github.com/diagnosis/provence-bookings/services/bookings/internal/domain"
)

func TestExtraArgs(t *testing.T) {
	from, to, n := extraArgs(nil)
	if from != nil || to != nil || n != 0 {
		t.Fatalf("nil block should map to NULLs, got %v %v %d", from, to, n)
	}

	from, to, n = extraArgs(&domain.ExtraDays{CheckIn: "2025-09-13", CheckOut: "2025-09-15"})
	if from == nil || to == nil || n != 2 {
		t.Fatalf("got %v %v %d", from, to, n)
	}
	if from.Format("2006-01-02") != "2025-09-13" {
		t.Errorf("from = %v", from)
	}

	from, to, n = extraArgs(&domain.ExtraDays{CheckIn: "2025-09-13"})
	if from == nil || to != nil || n != 1 {
		t.Errorf("single date block: %v %v %d", from, to, n)
	}
}

func TestExtraDays(t *testing.T) {
	if extraDays(nil, nil, 0) != nil {
		t.Error("empty columns should map to nil")
	}

	from, to := "2025-09-13", "2025-09-15"
	e := extraDays(&from, &to, 2)
	if e == nil || e.CheckIn != from || e.CheckOut != to || e.Nights != 2 {
		t.Errorf("got %+v", e)
	}

	e = extraDays(nil, nil, 3)
	if e == nil || e.Nights != 3 || e.CheckIn != "" {
		t.Errorf("nights-only block: %+v", e)
	}
}

func TestHashKey(t *testing.T) {
	a, b := hashKey("abc"), hashKey("abc")
	if a != b || len(a) != 64 {
		t.Errorf("hashKey not stable: %q %q", a, b)
	}
	if hashKey("abd") == a {
		t.Error("different keys must hash differently")
	}
}
