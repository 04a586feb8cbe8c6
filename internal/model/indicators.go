package model

import "time"

// IndicatorSeries holds a bar series together with its derived indicator
// columns. All columns are aligned to Bars; entries before a full lookback
// window are NaN.
type IndicatorSeries struct {
	Symbol   string
	Bars     []OHLCV
	SMAShort []float64
	SMAMid   []float64
	SMALong  []float64
	RSI      []float64

	ShortWindow int
	MidWindow   int
	LongWindow  int
	RSIPeriod   int
}

// IndicatorSnapshot is the indicator state attached to the latest bar.
type IndicatorSnapshot struct {
	Time     time.Time
	Close    float64
	SMAShort float64
	SMAMid   float64
	SMALong  float64
	RSI      float64
}
