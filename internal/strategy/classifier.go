package strategy

import (
	"fmt"

	"OptionPilot/internal/model"
)

// Thresholds are the RSI gates applied on top of the trend reading.
type Thresholds struct {
	RSIUpper float64 // overbought at or above
	RSILower float64 // oversold at or below
}

// DefaultThresholds matches the classic 70/30 RSI bands.
var DefaultThresholds = Thresholds{RSIUpper: 70, RSILower: 30}

// DefaultCashSymbols are short-duration treasury ETFs that always classify
// as cash equivalents, whatever the indicators say.
var DefaultCashSymbols = []string{"SGOV", "SHV", "BIL", "USFR"}

// Classifier maps an indicator snapshot to a discrete trade signal. It holds
// only configuration, never market state: identical inputs always yield the
// identical signal.
type Classifier struct {
	Thresholds Thresholds
	cash       map[string]bool
}

// NewClassifier builds a Classifier. Nil cashSymbols falls back to the
// default cash-equivalent list.
func NewClassifier(th Thresholds, cashSymbols []string) *Classifier {
	if th.RSIUpper == 0 {
		th.RSIUpper = DefaultThresholds.RSIUpper
	}
	if th.RSILower == 0 {
		th.RSILower = DefaultThresholds.RSILower
	}
	if cashSymbols == nil {
		cashSymbols = DefaultCashSymbols
	}
	cash := make(map[string]bool, len(cashSymbols))
	for _, s := range cashSymbols {
		cash[s] = true
	}
	return &Classifier{Thresholds: th, cash: cash}
}

// ClassifyOption evaluates the option-strategy flavor:
// {Call, Put, Wait, Overheated, Oversold} plus the cash override.
// Trend comes from SMA20 vs SMA200; RSI gates momentum. The cash-equivalent
// check runs first and overrides the table entirely.
func (c *Classifier) ClassifyOption(snap model.IndicatorSnapshot, symbol string) model.Signal {
	if c.cash[symbol] {
		return model.Signal{Symbol: symbol, Kind: model.SignalCash, Reason: "cash-equivalent instrument"}
	}

	switch {
	case snap.SMAShort > snap.SMALong:
		if snap.RSI < c.Thresholds.RSIUpper {
			return model.Signal{Symbol: symbol, Kind: model.SignalCall, Reason: "bullish alignment, RSI not overheated"}
		}
		return model.Signal{Symbol: symbol, Kind: model.SignalOverheated,
			Reason: fmt.Sprintf("bullish but overbought (RSI %.1f >= %.0f)", snap.RSI, c.Thresholds.RSIUpper)}
	case snap.SMAShort < snap.SMALong:
		if snap.RSI > c.Thresholds.RSILower {
			return model.Signal{Symbol: symbol, Kind: model.SignalPut, Reason: "bearish alignment, RSI not oversold"}
		}
		return model.Signal{Symbol: symbol, Kind: model.SignalOversold,
			Reason: fmt.Sprintf("bearish but oversold (RSI %.1f <= %.0f)", snap.RSI, c.Thresholds.RSILower)}
	default:
		// Equal SMAs, or NaN indicators on a short series.
		return model.Signal{Symbol: symbol, Kind: model.SignalWait, Reason: "no clear trend"}
	}
}

// Classify evaluates the stock flavor {Buy, Sell, Wait, Cash}. The option
// momentum gates collapse to Wait here.
func (c *Classifier) Classify(snap model.IndicatorSnapshot, symbol string) model.Signal {
	sig := c.ClassifyOption(snap, symbol)
	switch sig.Kind {
	case model.SignalCall:
		sig.Kind = model.SignalBuy
	case model.SignalPut:
		sig.Kind = model.SignalSell
	case model.SignalOverheated, model.SignalOversold:
		sig.Kind = model.SignalWait
	}
	return sig
}

// Direction returns the option direction implied by a signal, if any.
func Direction(sig model.Signal) (model.Direction, bool) {
	switch sig.Kind {
	case model.SignalCall, model.SignalBuy:
		return model.DirectionCall, true
	case model.SignalPut, model.SignalSell:
		return model.DirectionPut, true
	}
	return "", false
}
