package strategy

import (
	"math"
	"testing"

	"OptionPilot/internal/model"
)

func snap(sma20, sma200, rsi float64) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{Close: sma20, SMAShort: sma20, SMAMid: (sma20 + sma200) / 2, SMALong: sma200, RSI: rsi}
}

func TestClassifyOption_DecisionTable(t *testing.T) {
	c := NewClassifier(DefaultThresholds, nil)
	tests := []struct {
		name   string
		sma20  float64
		sma200 float64
		rsi    float64
		want   model.SignalKind
	}{
		{"bullish healthy", 110, 100, 55, model.SignalCall},
		{"bullish overbought", 110, 100, 70, model.SignalOverheated},
		{"bullish overbought high", 110, 100, 95, model.SignalOverheated},
		{"bearish healthy", 90, 100, 45, model.SignalPut},
		{"bearish oversold", 90, 100, 30, model.SignalOversold},
		{"bearish oversold low", 90, 100, 5, model.SignalOversold},
		{"flat trend", 100, 100, 50, model.SignalWait},
	}
	for _, tt := range tests {
		got := c.ClassifyOption(snap(tt.sma20, tt.sma200, tt.rsi), "NVDA")
		if got.Kind != tt.want {
			t.Errorf("%s: expected %s, got %s (%s)", tt.name, tt.want, got.Kind, got.Reason)
		}
		if got.Reason == "" {
			t.Errorf("%s: expected a reason string", tt.name)
		}
	}
}

func TestClassify_StockFlavor(t *testing.T) {
	c := NewClassifier(DefaultThresholds, nil)
	tests := []struct {
		sma20  float64
		sma200 float64
		rsi    float64
		want   model.SignalKind
	}{
		{110, 100, 55, model.SignalBuy},
		{110, 100, 80, model.SignalWait},
		{90, 100, 45, model.SignalSell},
		{90, 100, 20, model.SignalWait},
		{100, 100, 50, model.SignalWait},
	}
	for _, tt := range tests {
		got := c.Classify(snap(tt.sma20, tt.sma200, tt.rsi), "TSLA")
		if got.Kind != tt.want {
			t.Errorf("sma20=%.0f sma200=%.0f rsi=%.0f: expected %s, got %s", tt.sma20, tt.sma200, tt.rsi, tt.want, got.Kind)
		}
	}
}

func TestClassify_CashOverride(t *testing.T) {
	c := NewClassifier(DefaultThresholds, nil)
	// Strongly bullish and overbought indicators must not matter.
	got := c.Classify(snap(100, 90, 95), "SGOV")
	if got.Kind != model.SignalCash {
		t.Errorf("cash-list symbol: expected CASH, got %s", got.Kind)
	}
	got = c.ClassifyOption(snap(100, 90, 95), "SGOV")
	if got.Kind != model.SignalCash {
		t.Errorf("cash-list symbol (option flavor): expected CASH, got %s", got.Kind)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(Thresholds{RSIUpper: 75, RSILower: 25}, []string{"BIL"})
	s := snap(105, 100, 60)
	first := c.ClassifyOption(s, "AMD")
	for i := 0; i < 5; i++ {
		again := c.ClassifyOption(s, "AMD")
		if again != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestClassify_NaNIndicatorsWait(t *testing.T) {
	c := NewClassifier(DefaultThresholds, nil)
	got := c.Classify(model.IndicatorSnapshot{Close: 100, SMAShort: math.NaN(), SMALong: math.NaN(), RSI: math.NaN()}, "PLTR")
	if got.Kind != model.SignalWait {
		t.Errorf("undefined indicators: expected WAIT, got %s", got.Kind)
	}
}

func TestDirection(t *testing.T) {
	if d, ok := Direction(model.Signal{Kind: model.SignalCall}); !ok || d != model.DirectionCall {
		t.Error("CALL signal should map to call direction")
	}
	if d, ok := Direction(model.Signal{Kind: model.SignalSell}); !ok || d != model.DirectionPut {
		t.Error("SELL signal should map to put direction")
	}
	if _, ok := Direction(model.Signal{Kind: model.SignalWait}); ok {
		t.Error("WAIT signal should have no direction")
	}
}
