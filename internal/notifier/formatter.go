package notifier

import (
	"fmt"
	"strings"
	"time"

	"OptionPilot/internal/model"
	"OptionPilot/internal/workflow"
)

var signalEmoji = map[model.SignalKind]string{
	model.SignalBuy:        "🟢",
	model.SignalCall:       "🟢",
	model.SignalSell:       "🔴",
	model.SignalPut:        "🔴",
	model.SignalWait:       "⚪",
	model.SignalCash:       "🏦",
	model.SignalOverheated: "🟡",
	model.SignalOversold:   "🟡",
}

// FormatScanReport formats one watchlist scan into a Telegram message.
func FormatScanReport(results []ScanResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Watchlist scan</b> | %s\n\n", time.Now().Format("2006-01-02")))

	for _, r := range results {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("⚠️ %s: %v\n", r.Symbol, r.Err))
			continue
		}
		emoji := signalEmoji[r.Signal.Kind]
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f → %s\n", emoji, r.Symbol, r.Snapshot.Close, r.Signal.Kind))
		b.WriteString(fmt.Sprintf("   SMA20 %.2f | SMA200 %.2f | RSI %.1f\n", r.Snapshot.SMAShort, r.Snapshot.SMALong, r.Snapshot.RSI))
		b.WriteString(fmt.Sprintf("   %s\n", r.Signal.Reason))
	}
	return b.String()
}

// ScanResult pairs one symbol's snapshot with its classification.
type ScanResult struct {
	Symbol   string
	Snapshot model.IndicatorSnapshot
	Signal   model.Signal
	Err      error
}

// FormatStrikes formats the three recommended contracts for a direction.
func FormatStrikes(symbol string, sel model.StrikeSelection, bucket model.RiskBucket) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>%s %s</b> | expiry %s (%s)\n\n",
		symbol, sel.Direction, sel.ITM.Expiry.Format("2006-01-02"), bucket))
	for _, row := range []struct {
		label string
		c     model.OptionContract
	}{
		{"ITM (conservative)", sel.ITM},
		{"ATM (balanced)", sel.ATM},
		{"OTM (aggressive)", sel.OTM},
	} {
		b.WriteString(fmt.Sprintf("%s: strike %.2f, bid %.2f / ask %.2f\n",
			row.label, row.c.Strike, row.c.Bid, row.c.Ask))
	}
	return b.String()
}

// FormatWorkflowResult formats a terminal workflow outcome. Every terminal
// state produces an operator-visible message.
func FormatWorkflowResult(res workflow.Result) string {
	var b strings.Builder
	switch res.State {
	case workflow.StateDone:
		b.WriteString("✅ <b>Order workflow complete</b>\n")
	case workflow.StateEntryTimeout:
		b.WriteString("⏱ <b>Entry not filled in time</b>\n")
	case workflow.StateEntryRejected:
		b.WriteString("🚫 <b>Entry rejected</b>\n")
	case workflow.StateError:
		b.WriteString("❌ <b>Order workflow error</b>\n")
	default:
		b.WriteString(fmt.Sprintf("ℹ️ <b>Order workflow: %s</b>\n", res.State))
	}
	b.WriteString(res.Outcome + "\n")
	if res.EntryOrder.ID != "" {
		b.WriteString(fmt.Sprintf("entry %s: %s %d %s, status %s\n",
			res.EntryOrder.ID, res.EntryOrder.Side, res.EntryOrder.Qty, res.EntryOrder.Symbol, res.EntryOrder.Status))
	}
	if res.ExitOrder != nil {
		b.WriteString(fmt.Sprintf("exit %s: sell %d @ %.2f GTC\n",
			res.ExitOrder.ID, res.ExitOrder.Qty, res.ExitOrder.LimitPrice))
	}
	if res.Err != nil {
		b.WriteString(fmt.Sprintf("error: %v\n", res.Err))
	}
	return b.String()
}

// FormatAutoPilotStatus formats the armed run, if any.
func FormatAutoPilotStatus(st *model.AutoPilotState) string {
	if st == nil {
		return "🛩 AutoPilot: nothing armed"
	}
	var b strings.Builder
	b.WriteString("🛩 <b>AutoPilot armed</b>\n\n")
	b.WriteString(fmt.Sprintf("symbol: %s\n", st.Symbol))
	b.WriteString(fmt.Sprintf("trigger: %s\n", st.TriggerTime))
	b.WriteString(fmt.Sprintf("budget: %.2f, ask range [%.2f, %.2f]\n", st.Budget, st.AskMin, st.AskMax))
	b.WriteString(fmt.Sprintf("trend filter: %v\n", st.TrendFilter))
	b.WriteString(fmt.Sprintf("armed at: %s\n", st.CreatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatBacktestReport formats a simulation summary.
func FormatBacktestReport(r model.BacktestReport) string {
	if r.NoTrades {
		return fmt.Sprintf("🧪 <b>Backtest %s</b>: no qualifying trades (buy & hold %+.2f%%)", r.Symbol, r.BuyHoldReturnPct)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest %s</b>\n\n", r.Symbol))
	b.WriteString(fmt.Sprintf("final equity: %.2f (%+.2f%%)\n", r.FinalEquity, r.TotalReturnPct))
	b.WriteString(fmt.Sprintf("trades: %d, win rate %.1f%%\n", r.TradeCount, r.WinRate))
	b.WriteString(fmt.Sprintf("buy &amp; hold: %+.2f%%\n", r.BuyHoldReturnPct))
	return b.String()
}
