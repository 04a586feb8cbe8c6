package notifier

import (
	"strings"
	"testing"

	"OptionPilot/internal/model"
	"OptionPilot/internal/workflow"
)

func TestFormatWorkflowResultDone(t *testing.T) {
	exit := model.Order{ID: "ex-1", Qty: 2, LimitPrice: 4.00}
	msg := FormatWorkflowResult(workflow.Result{
		State:      workflow.StateDone,
		Outcome:    "entry filled 4 @ 2.00; exit 2 @ 4.00 resting GTC",
		EntryOrder: model.Order{ID: "en-1", Symbol: "NVDA", Side: model.SideBuy, Qty: 4, Status: model.StatusFilled},
		ExitOrder:  &exit,
	})
	for _, want := range []string{"complete", "en-1", "ex-1", "4.00", "GTC"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatWorkflowResultTimeout(t *testing.T) {
	msg := FormatWorkflowResult(workflow.Result{
		State:   workflow.StateEntryTimeout,
		Outcome: "entry not filled within the poll budget",
	})
	if !strings.Contains(msg, "not filled") {
		t.Errorf("timeout message should name the outcome:\n%s", msg)
	}
}

func TestFormatAutoPilotStatus(t *testing.T) {
	if msg := FormatAutoPilotStatus(nil); !strings.Contains(msg, "nothing armed") {
		t.Errorf("nil state message = %q", msg)
	}
	st := &model.AutoPilotState{Symbol: "NVDA", TriggerTime: "09:35", Budget: 750, AskMin: 0.5, AskMax: 2}
	msg := FormatAutoPilotStatus(st)
	for _, want := range []string{"NVDA", "09:35", "750"} {
		if !strings.Contains(msg, want) {
			t.Errorf("status missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatBacktestReportNoTrades(t *testing.T) {
	msg := FormatBacktestReport(model.BacktestReport{Symbol: "VOO", NoTrades: true, BuyHoldReturnPct: 12.3})
	if !strings.Contains(msg, "no qualifying trades") {
		t.Errorf("no-trade report should say so:\n%s", msg)
	}
}
