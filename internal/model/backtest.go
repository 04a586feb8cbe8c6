package model

import "time"

// BacktestParams configures a simulation run.
type BacktestParams struct {
	InitialCapital float64
	ShortWindow    int
	LongWindow     int
	RSICeiling     float64
	StopLossPct    float64 // 0.10 means exit 10% below entry
}

// BacktestTrade is one entry or exit in the simulated trade log.
type BacktestTrade struct {
	Time      time.Time
	Action    string // "BUY" or "SELL"
	Price     float64
	Qty       int
	Profit    float64 // zero for entries
	ProfitPct float64
	Reason    string
}

// EquityPoint is one sample of the simulated equity curve.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// BacktestReport is the final output of a simulation. A run with zero
// executed trades still produces a populated report with NoTrades set.
type BacktestReport struct {
	Symbol           string
	FinalEquity      float64
	TotalReturnPct   float64
	TradeCount       int // completed sells
	WinRate          float64
	BuyHoldReturnPct float64
	NoTrades         bool
	Trades           []BacktestTrade
	EquityCurve      []EquityPoint
}
