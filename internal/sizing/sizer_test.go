package sizing

import (
	"errors"
	"testing"
)

func TestSharesExact(t *testing.T) {
	qty, err := Shares(10, 1000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 10 {
		t.Fatalf("qty = %d, want 10", qty)
	}
}

func TestSharesAllocationBelowOneShare(t *testing.T) {
	qty, err := Shares(1000, 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 0 {
		t.Fatalf("qty = %d, want 0", qty)
	}
}

func TestSharesFloors(t *testing.T) {
	// 10% of 1055 at price 10 funds 10.55 shares; floor to 10.
	qty, err := Shares(10, 1055, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 10 {
		t.Fatalf("qty = %d, want 10", qty)
	}
}

func TestSharesAtLeastOne(t *testing.T) {
	qty, err := Shares(10, 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 1 {
		t.Fatalf("qty = %d, want 1", qty)
	}
}

func TestSharesMissingPortfolioValue(t *testing.T) {
	for _, pv := range []float64{0, -5} {
		if _, err := Shares(10, pv, 10); !errors.Is(err, ErrMissingPortfolioValue) {
			t.Fatalf("pv=%v: err = %v, want ErrMissingPortfolioValue", pv, err)
		}
	}
}

func TestSharesInvalidAllocation(t *testing.T) {
	for _, pct := range []float64{0, -1, 101} {
		if _, err := Shares(10, 1000, pct); !errors.Is(err, ErrInvalidAllocation) {
			t.Fatalf("pct=%v: err = %v, want ErrInvalidAllocation", pct, err)
		}
	}
}

func TestSharesInvalidPrice(t *testing.T) {
	if _, err := Shares(0, 1000, 10); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}
