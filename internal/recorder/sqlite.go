package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the assistant writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_evaluations (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			price     REAL,
			sma_short REAL,
			sma_mid   REAL,
			sma_long  REAL,
			rsi       REAL,
			signal    TEXT,
			reason    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_evaluations(timestamp)`,

		`CREATE TABLE IF NOT EXISTS workflow_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT,
			state       TEXT,
			outcome     TEXT,
			entry_qty   INTEGER,
			entry_price REAL,
			exit_qty    INTEGER,
			exit_price  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_ts ON workflow_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS autopilot_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT,
			trigger_time TEXT,
			budget       REAL,
			outcome      TEXT,
			detail       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_autopilot_ts ON autopilot_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT,
			initial_capital REAL,
			final_equity    REAL,
			total_return    REAL,
			trade_count     INTEGER,
			win_rate        REAL,
			buy_hold_return REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_ts ON backtest_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_evaluations
		(timestamp, symbol, price, sma_short, sma_mid, sma_long, rsi, signal, reason)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Price,
		evt.SMAShort, evt.SMAMid, evt.SMALong, evt.RSI,
		evt.Signal, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordWorkflow(evt *WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO workflow_runs
		(timestamp, symbol, state, outcome, entry_qty, entry_price, exit_qty, exit_price)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.State, evt.Outcome,
		evt.EntryQty, evt.EntryPrice, evt.ExitQty, evt.ExitPrice,
	)
	return err
}

func (r *SQLiteRecorder) RecordAutoPilot(evt *AutoPilotRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO autopilot_runs
		(timestamp, symbol, trigger_time, budget, outcome, detail)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.TriggerTime, evt.Budget,
		evt.Outcome, evt.Detail,
	)
	return err
}

func (r *SQLiteRecorder) RecordBacktest(evt *BacktestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO backtest_runs
		(timestamp, symbol, initial_capital, final_equity, total_return, trade_count, win_rate, buy_hold_return)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.InitialCapital, evt.FinalEquity,
		evt.TotalReturnPct, evt.TradeCount, evt.WinRate, evt.BuyHoldReturnPct,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
