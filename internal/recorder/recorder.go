package recorder

import "OptionPilot/internal/model"

// SignalEvaluation holds one classifier verdict for a symbol.
type SignalEvaluation struct {
	Symbol   string
	Price    float64
	SMAShort float64
	SMAMid   float64
	SMALong  float64
	RSI      float64
	Signal   string
	Reason   string
}

// WorkflowRun records one terminal order-workflow outcome.
type WorkflowRun struct {
	Symbol     string
	State      string
	Outcome    string
	EntryQty   int
	EntryPrice float64
	ExitQty    int
	ExitPrice  float64
}

// AutoPilotRun records one scheduled run from arming to terminal outcome.
type AutoPilotRun struct {
	Symbol      string
	TriggerTime string
	Budget      float64
	Outcome     string
	Detail      string
}

// BacktestRun summarizes one simulation.
type BacktestRun struct {
	Symbol           string
	InitialCapital   float64
	FinalEquity      float64
	TotalReturnPct   float64
	TradeCount       int
	WinRate          float64
	BuyHoldReturnPct float64
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvaluation) error
	RecordWorkflow(evt *WorkflowRun) error
	RecordAutoPilot(evt *AutoPilotRun) error
	RecordBacktest(evt *BacktestRun) error
	Close() error
}

// SignalFromSnapshot builds an evaluation row from a classifier result.
func SignalFromSnapshot(symbol string, snap model.IndicatorSnapshot, sig model.Signal) *SignalEvaluation {
	return &SignalEvaluation{
		Symbol:   symbol,
		Price:    snap.Close,
		SMAShort: snap.SMAShort,
		SMAMid:   snap.SMAMid,
		SMALong:  snap.SMALong,
		RSI:      snap.RSI,
		Signal:   string(sig.Kind),
		Reason:   sig.Reason,
	}
}
