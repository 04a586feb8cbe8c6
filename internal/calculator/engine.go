package calculator

import (
	"errors"
	"math"

	"OptionPilot/internal/model"
)

// ErrInsufficientData is returned when a series is too short to evaluate.
// Callers treat it as "cannot evaluate", not as a failure to propagate.
var ErrInsufficientData = errors.New("insufficient history for indicators")

// Default indicator windows, matching the daily-bar setup the signal
// classifier expects.
const (
	DefaultShortWindow = 20
	DefaultMidWindow   = 50
	DefaultLongWindow  = 200
	DefaultRSIPeriod   = 14
)

// Engine computes indicator columns over bar series.
type Engine struct {
	ShortWindow int
	MidWindow   int
	LongWindow  int
	RSIPeriod   int
}

// NewEngine creates an Engine with the given windows; zero values fall back
// to the defaults.
func NewEngine(short, mid, long, rsiPeriod int) *Engine {
	if short <= 0 {
		short = DefaultShortWindow
	}
	if mid <= 0 {
		mid = DefaultMidWindow
	}
	if long <= 0 {
		long = DefaultLongWindow
	}
	if rsiPeriod <= 0 {
		rsiPeriod = DefaultRSIPeriod
	}
	return &Engine{ShortWindow: short, MidWindow: mid, LongWindow: long, RSIPeriod: rsiPeriod}
}

// Enrich computes all indicator columns for the given bars.
func (e *Engine) Enrich(symbol string, bars []model.OHLCV) *model.IndicatorSeries {
	return e.Track(symbol, bars).Series()
}

// Track builds a Tracker over the given bars, computing all columns and
// retaining the smoothing state needed to append further bars cheaply.
func (e *Engine) Track(symbol string, bars []model.OHLCV) *Tracker {
	closes := model.Closes(bars)
	rsi, avgGain, avgLoss := RSISeries(closes, e.RSIPeriod)
	s := &model.IndicatorSeries{
		Symbol:      symbol,
		Bars:        bars,
		SMAShort:    SMASeries(closes, e.ShortWindow),
		SMAMid:      SMASeries(closes, e.MidWindow),
		SMALong:     SMASeries(closes, e.LongWindow),
		RSI:         rsi,
		ShortWindow: e.ShortWindow,
		MidWindow:   e.MidWindow,
		LongWindow:  e.LongWindow,
		RSIPeriod:   e.RSIPeriod,
	}
	return &Tracker{eng: e, series: s, avgGain: avgGain, avgLoss: avgLoss}
}

// Snapshot returns the indicator state of the latest bar, or
// ErrInsufficientData when the series is too short to carry an RSI.
func Snapshot(s *model.IndicatorSeries) (model.IndicatorSnapshot, error) {
	n := len(s.Bars)
	if n < s.RSIPeriod+1 {
		return model.IndicatorSnapshot{}, ErrInsufficientData
	}
	last := s.Bars[n-1]
	return model.IndicatorSnapshot{
		Time:     last.Time,
		Close:    last.Close,
		SMAShort: s.SMAShort[n-1],
		SMAMid:   s.SMAMid[n-1],
		SMALong:  s.SMALong[n-1],
		RSI:      s.RSI[n-1],
	}, nil
}

// Tracker maintains incremental indicator state for a growing bar series.
// Appending a bar yields exactly the columns a full recompute would.
type Tracker struct {
	eng     *Engine
	series  *model.IndicatorSeries
	avgGain float64
	avgLoss float64
}

// Series returns the tracked series.
func (t *Tracker) Series() *model.IndicatorSeries { return t.series }

// Append adds one bar and extends every indicator column.
func (t *Tracker) Append(bar model.OHLCV) {
	s := t.series
	s.Bars = append(s.Bars, bar)
	n := len(s.Bars)

	s.SMAShort = append(s.SMAShort, trailingMean(s.Bars, t.eng.ShortWindow))
	s.SMAMid = append(s.SMAMid, trailingMean(s.Bars, t.eng.MidWindow))
	s.SMALong = append(s.SMALong, trailingMean(s.Bars, t.eng.LongWindow))

	period := t.eng.RSIPeriod
	switch {
	case n < period+1:
		s.RSI = append(s.RSI, math.NaN())
	case n == period+1:
		// First full window: reseed from scratch.
		rsi, g, l := RSISeries(model.Closes(s.Bars), period)
		s.RSI = rsi
		t.avgGain, t.avgLoss = g, l
	default:
		change := bar.Close - s.Bars[n-2].Close
		t.avgGain, t.avgLoss = wilderStep(t.avgGain, t.avgLoss, change, period)
		s.RSI = append(s.RSI, rsiValue(t.avgGain, t.avgLoss))
	}
}

func trailingMean(bars []model.OHLCV, window int) float64 {
	if len(bars) < window {
		return math.NaN()
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(window)
}
