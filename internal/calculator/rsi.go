package calculator

import "math"

// RSISeries returns the Wilder-smoothed RSI aligned to prices. Indices
// before the first full window are NaN. The final smoothed average gain and
// loss are returned so new bars can be appended without a full recompute.
//
// The smoothing seed is the simple average of gains/losses over the first
// `period` changes; afterwards avg = (avg*(period-1) + change) / period.
// When the average loss is zero the RSI saturates at 100.
func RSISeries(prices []float64, period int) (out []float64, avgGain, avgLoss float64) {
	out = make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period+1 {
		return out, 0, 0
	}

	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		avgGain, avgLoss = wilderStep(avgGain, avgLoss, change, period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, avgGain, avgLoss
}

// wilderStep advances the smoothed averages by one price change.
func wilderStep(avgGain, avgLoss, change float64, period int) (float64, float64) {
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	avgGain = (avgGain*float64(period-1) + gain) / float64(period)
	avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	return avgGain, avgLoss
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
