package indicator

import (
	"math"
	"testing"
)

func TestSMAWarmupAndValues(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	got := SMA(x, 3)
	if len(got) != len(x) {
		t.Fatalf("length mismatch: %d", len(got))
	}
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN warmup, got %v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(got[i+2]-w) > 1e-12 {
			t.Fatalf("sma[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestSMAShorterThanWindow(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at %d, got %v", i, v)
		}
	}
}

func TestStdConstantSeries(t *testing.T) {
	got := Std([]float64{4, 4, 4, 4}, 2)
	for i := 1; i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("std of constant series should be 0, got %v", got[i])
		}
	}
}

func TestStdKnownWindow(t *testing.T) {
	// Population std of {2,4} is 1.
	got := Std([]float64{2, 4}, 2)
	if math.Abs(got[1]-1) > 1e-12 {
		t.Fatalf("std = %v, want 1", got[1])
	}
}

func TestRollingMax(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2}
	got := RollingMax(x, 3)
	want := []float64{4, 4, 5, 9, 9}
	for i, w := range want {
		if got[i+2] != w {
			t.Fatalf("rollingmax[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestRSIBounds(t *testing.T) {
	x := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
		45.9, 46.0, 45.6, 46.2, 46.2, 46.0, 46.0, 46.4, 46.2, 45.6}
	got := RSI(x, 14)
	for i := 14; i < len(got); i++ {
		if got[i] < 0 || got[i] > 100 {
			t.Fatalf("rsi[%d] = %v out of [0,100]", i, got[i])
		}
	}
}

func TestRSIAllGainsIs100(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(i + 1) // strictly rising, no losses
	}
	got := RSI(x, 14)
	for i := 14; i < len(got); i++ {
		if got[i] != 100 {
			t.Fatalf("rsi[%d] = %v, want 100", i, got[i])
		}
	}
}

func TestRSIWarmup(t *testing.T) {
	got := RSI([]float64{1, 2, 3}, 14)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at %d, got %v", i, v)
		}
	}
}
