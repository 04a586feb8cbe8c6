package model

// SignalKind enumerates the classifier outcomes.
type SignalKind string

const (
	// Stock flavor.
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalWait SignalKind = "WAIT"
	SignalCash SignalKind = "CASH"

	// Option-strategy flavor.
	SignalCall       SignalKind = "CALL"
	SignalPut        SignalKind = "PUT"
	SignalOverheated SignalKind = "OVERHEATED"
	SignalOversold   SignalKind = "OVERSOLD"
)

// Signal is the classifier output for a single evaluation. It carries no
// identity across calls; a fresh value is produced every time.
type Signal struct {
	Symbol string
	Kind   SignalKind
	Reason string
}

// Actionable reports whether the signal recommends opening a position.
func (s Signal) Actionable() bool {
	switch s.Kind {
	case SignalBuy, SignalSell, SignalCall, SignalPut:
		return true
	}
	return false
}
