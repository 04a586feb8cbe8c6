package calculator

import (
	"errors"
	"math"
)

// CalculateSMA computes the simple moving average of the trailing `period`
// prices. Used for single-point lookups; series callers use SMASeries.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the n-period simple moving average aligned to prices.
// Indices before a full window are NaN.
func SMASeries(prices []float64, n int) []float64 {
	out := make([]float64, len(prices))
	if n <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range prices {
		sum += prices[i]
		if i >= n {
			sum -= prices[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
