package recorder

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer r.Close()

	if err := r.RecordSignal(&SignalEvaluation{Symbol: "NVDA", Price: 120, RSI: 55, Signal: "CALL", Reason: "uptrend"}); err != nil {
		t.Errorf("RecordSignal: %v", err)
	}
	if err := r.RecordWorkflow(&WorkflowRun{Symbol: "NVDA", State: "DONE", EntryQty: 4, EntryPrice: 2.00, ExitQty: 2, ExitPrice: 4.00}); err != nil {
		t.Errorf("RecordWorkflow: %v", err)
	}
	if err := r.RecordAutoPilot(&AutoPilotRun{Symbol: "NVDA", TriggerTime: "09:35", Budget: 750, Outcome: "done"}); err != nil {
		t.Errorf("RecordAutoPilot: %v", err)
	}
	if err := r.RecordBacktest(&BacktestRun{Symbol: "VOO", InitialCapital: 10000, FinalEquity: 11000, TotalReturnPct: 10}); err != nil {
		t.Errorf("RecordBacktest: %v", err)
	}

	for _, table := range []string{"signal_evaluations", "workflow_runs", "autopilot_runs", "backtest_runs"} {
		var n int
		if err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("%s has %d rows, want 1", table, n)
		}
	}
}

func TestNewSQLiteRecorderIdempotentMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		r, err := NewSQLiteRecorder(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		r.Close()
	}
}
