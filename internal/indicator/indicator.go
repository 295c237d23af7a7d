// Package indicator provides stateless rolling-window computations over
// time-ordered numeric series. Every function returns a slice aligned to the
// input length, with NaN for positions where the window is not yet full.
package indicator

import "math"

// SMA is the arithmetic mean over the trailing `window` points.
func SMA(x []float64, window int) []float64 {
	if window <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= window {
			sum -= x[i-window]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Std is the population standard deviation over the trailing `window` points.
func Std(x []float64, window int) []float64 {
	if window <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum, sum2 float64
	for i := range x {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= window {
			sum -= x[i-window]
			sum2 -= x[i-window] * x[i-window]
		}
		m := sum / float64(window)
		v := sum2/float64(window) - m*m
		if v < 0 {
			v = 0 // guard float cancellation
		}
		out[i] = math.Sqrt(v)
	}
	return out
}

// RollingMax is the trailing maximum over `window` points.
func RollingMax(x []float64, window int) []float64 {
	if window <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	for i := range x {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		max := x[i]
		for j := i - window + 1; j < i; j++ {
			if x[j] > max {
				max = x[j]
			}
		}
		out[i] = max
	}
	return out
}

// RSI is the relative strength index over per-step deltas: gain is the mean
// of positive deltas across the trailing `period` deltas, loss the mean of
// absolute negative deltas. RSI is 100 when the loss sum is zero.
func RSI(x []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	n := len(x)
	out := make([]float64, n)
	for i := 0; i < n && i < period; i++ {
		out[i] = math.NaN()
	}
	if n <= period {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i < period {
			continue
		}
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Defined reports whether a value at index i is usable (window was full).
func Defined(series []float64, i int) bool {
	return i >= 0 && i < len(series) && !math.IsNaN(series[i])
}
