package workflow

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"OptionPilot/internal/broker"
	"OptionPilot/internal/metrics"
	"OptionPilot/internal/model"
)

// State is the engine's position in the conditional execution sequence.
//
//	Idle → EntrySubmitted → EntryFilled → ExitSubmitted → Done
//
// EntryTimeout, EntryRejected and Error are terminal side-exits.
type State string

const (
	StateIdle           State = "IDLE"
	StateEntrySubmitted State = "ENTRY_SUBMITTED"
	StateEntryFilled    State = "ENTRY_FILLED"
	StateExitSubmitted  State = "EXIT_SUBMITTED"
	StateDone           State = "DONE"
	StateEntryTimeout   State = "ENTRY_TIMEOUT"
	StateEntryRejected  State = "ENTRY_REJECTED"
	StateError          State = "ERROR"
)

// ExitPriceMultiple is the doubling-tactic sell target relative to the
// realized entry fill price.
const ExitPriceMultiple = 2.0

// Request describes one buy-then-hedge run.
type Request struct {
	Symbol          string
	Qty             int
	LimitPrice      float64 // 0 submits a market order
	Tactic          bool    // place the half-position doubling sell after the fill
	CancelOnTimeout bool    // cancel the stale entry when the poll budget runs out
}

// Config bounds the fill-poll loop.
type Config struct {
	PollInterval time.Duration
	MaxPolls     int
}

// DefaultConfig polls every second for up to ten attempts, matching a short
// "wait for the fill, then move on" interaction.
var DefaultConfig = Config{PollInterval: time.Second, MaxPolls: 10}

// Result reports the terminal state of a run. Entry timeout and
// already-pending are outcomes, not errors; Err is set only for State ==
// Error (and for cooperative cancellation).
type Result struct {
	State      State
	Outcome    string
	EntryOrder model.Order
	ExitOrder  *model.Order
	Err        error
}

// Engine executes the two-stage order workflow against a Broker. The broker
// stays the sole authority on order state; the engine re-queries it at every
// step instead of trusting cached status.
type Engine struct {
	Broker   broker.Broker
	Cfg      Config
	Progress func(msg string)
}

// NewEngine creates an engine with default polling bounds and log-backed
// progress reporting.
func NewEngine(b broker.Broker) *Engine {
	return &Engine{Broker: b, Cfg: DefaultConfig}
}

func (e *Engine) report(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.Progress != nil {
		e.Progress(msg)
	} else {
		log.Printf("[INFO] workflow: %s", msg)
	}
}

// Execute runs the workflow to a terminal state. Every transition is
// reported through Progress; there are no silent retries beyond the bounded
// poll loop.
func (e *Engine) Execute(ctx context.Context, req Request) Result {
	res := e.execute(ctx, req)
	metrics.IncWorkflowRun(string(res.State))
	return res
}

func (e *Engine) execute(ctx context.Context, req Request) Result {
	cfg := e.Cfg
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig.PollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultConfig.MaxPolls
	}

	// Precondition: no open order may exist for the symbol. An existing one
	// aborts the run as a normal outcome, before anything is submitted.
	open, err := e.Broker.ListOpenOrders(ctx, req.Symbol)
	if err != nil {
		return Result{State: StateError, Outcome: "checking open orders failed", Err: err}
	}
	if len(open) > 0 {
		e.report("%s already has a pending order, skipping", req.Symbol)
		return Result{State: StateIdle, Outcome: fmt.Sprintf("%s already has a pending order", req.Symbol)}
	}

	// Submit the entry.
	orderReq := broker.OrderRequest{
		Symbol:      req.Symbol,
		Side:        model.SideBuy,
		Qty:         req.Qty,
		Type:        model.TypeLimit,
		LimitPrice:  req.LimitPrice,
		TimeInForce: model.TIFDay,
	}
	if req.LimitPrice <= 0 {
		orderReq.Type = model.TypeMarket
	}
	e.report("submitting entry: buy %d %s @ %.2f", req.Qty, req.Symbol, req.LimitPrice)
	entry, err := e.Broker.SubmitOrder(ctx, orderReq)
	if err != nil {
		return Result{State: StateError, Outcome: "entry submission failed", Err: err}
	}
	metrics.IncOrder(string(orderReq.Side), e.Broker.Name())
	if entry.Status == model.StatusRejected {
		e.report("entry rejected by broker (order %s)", entry.ID)
		return Result{State: StateEntryRejected, Outcome: "entry order rejected", EntryOrder: entry}
	}
	e.report("entry submitted (order %s, status %s)", entry.ID, entry.Status)

	if !req.Tactic {
		// Plain mode: the engine's job ends at submission; report whatever
		// status the broker returned.
		if entry.Status == model.StatusFilled {
			return Result{State: StateEntryFilled, Outcome: "entry filled", EntryOrder: entry}
		}
		return Result{State: StateEntrySubmitted, Outcome: "entry submitted, not yet filled", EntryOrder: entry}
	}

	// Tactic mode: wait for the fill within the poll budget.
	filled := entry.Status == model.StatusFilled
	for i := 0; i < cfg.MaxPolls && !filled; i++ {
		if err := sleepCtx(ctx, cfg.PollInterval); err != nil {
			e.report("canceled while waiting for fill (order %s)", entry.ID)
			return Result{State: StateEntrySubmitted, Outcome: "canceled while waiting for entry fill", EntryOrder: entry, Err: err}
		}
		e.report("waiting for fill %d/%d (order %s)", i+1, cfg.MaxPolls, entry.ID)

		entry, err = e.Broker.GetOrder(ctx, entry.ID)
		if err != nil {
			return Result{State: StateError, Outcome: "entry status poll failed; the entry order may still be live", EntryOrder: entry, Err: err}
		}
		switch entry.Status {
		case model.StatusFilled:
			filled = true
		case model.StatusRejected, model.StatusCanceled:
			e.report("entry ended %s without a fill (order %s)", entry.Status, entry.ID)
			return Result{State: StateEntryRejected, Outcome: fmt.Sprintf("entry order %s", entry.Status), EntryOrder: entry}
		}
	}

	if !filled {
		outcome := "entry not filled within the poll budget"
		if entry.FilledQty > 0 {
			outcome = fmt.Sprintf("entry only partially filled (%d/%d) within the poll budget", entry.FilledQty, entry.Qty)
		}
		if req.CancelOnTimeout {
			if ok, cancelErr := e.Broker.CancelOrder(ctx, entry.ID); cancelErr != nil {
				e.report("timeout; canceling stale entry failed: %v", cancelErr)
			} else if ok {
				e.report("timeout; stale entry %s canceled", entry.ID)
				outcome += "; stale order canceled"
			}
		}
		e.report("entry timeout (order %s): %s", entry.ID, outcome)
		return Result{State: StateEntryTimeout, Outcome: outcome, EntryOrder: entry}
	}

	fillPrice := entry.FilledAvgPrice
	e.report("entry filled: %d %s @ %.2f", entry.FilledQty, req.Symbol, fillPrice)

	// Derive the dependent exit: sell half the fill at twice the realized
	// price, good till canceled.
	exitQty := entry.FilledQty / 2
	if exitQty < 1 {
		return Result{
			State:      StateEntryFilled,
			Outcome:    "entry filled but position too small to split for the exit order",
			EntryOrder: entry,
		}
	}
	exitPrice := math.Round(fillPrice*ExitPriceMultiple*100) / 100

	e.report("submitting exit: sell %d %s @ %.2f (GTC)", exitQty, req.Symbol, exitPrice)
	exit, err := e.Broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:      req.Symbol,
		Side:        model.SideSell,
		Qty:         exitQty,
		Type:        model.TypeLimit,
		LimitPrice:  exitPrice,
		TimeInForce: model.TIFGTC,
	})
	if err != nil {
		// The caller must know a live, un-hedged position now exists.
		return Result{
			State:      StateError,
			Outcome:    fmt.Sprintf("entry filled (%d @ %.2f) but exit submission failed; position is un-hedged", entry.FilledQty, fillPrice),
			EntryOrder: entry,
			Err:        err,
		}
	}

	metrics.IncOrder(string(model.SideSell), e.Broker.Name())

	// The engine's responsibility ends once the broker accepts the exit; the
	// GTC order lives on without further monitoring here.
	e.report("exit accepted (order %s); workflow done", exit.ID)
	return Result{
		State:      StateDone,
		Outcome:    fmt.Sprintf("entry filled %d @ %.2f; exit %d @ %.2f resting GTC", entry.FilledQty, fillPrice, exitQty, exitPrice),
		EntryOrder: entry,
		ExitOrder:  &exit,
	}
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
