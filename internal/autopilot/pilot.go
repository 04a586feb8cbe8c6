package autopilot

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"OptionPilot/internal/market"
	"OptionPilot/internal/model"
	"OptionPilot/internal/options"
	"OptionPilot/internal/state"
	"OptionPilot/internal/workflow"
)

// Terminal outcomes of a scheduled run. All of them clear the persisted
// state; the scheduler never auto-repeats.
const (
	OutcomeDone               = "done"
	OutcomeCanceled           = "canceled"
	OutcomeTrendRejected      = "trend rejected"
	OutcomeNoCandidate        = "no candidate"
	OutcomeInsufficientBudget = "insufficient budget"
	OutcomeError              = "error"
)

// LimitBump is added to the candidate's ask when submitting the entry, to
// improve fill odds.
const LimitBump = 0.05

// Pilot waits for a persisted wall-clock trigger and then fires a single
// tactic-mode buy through the workflow engine. The persisted state file is
// both the restart-survival record and the mutual-exclusion flag: at most
// one run can be armed at a time.
type Pilot struct {
	Market    market.Source
	Workflow  *workflow.Engine
	StatePath string

	// Tick is the sleep increment of the wait loop; the loop re-checks
	// cancellation and the state file at every tick.
	Tick time.Duration
	// Grace is how long a resumed run waits before re-arming, giving the
	// operator a chance to stop it after an unexpected restart.
	Grace time.Duration
	// ExpiryScan caps how many of the nearest expiries are searched for a
	// candidate contract.
	ExpiryScan int
	// WatchEvery is how often Watch re-reads the state file for a record
	// armed by another process.
	WatchEvery time.Duration

	Now    func() time.Time
	Notify func(msg string)

	// busy keeps Watch from launching a second run while one is in flight.
	busy atomic.Bool
}

// NewPilot wires a pilot with production timing: one-second ticks, a
// ten-second resume grace window, three expiries scanned.
func NewPilot(src market.Source, wf *workflow.Engine, statePath string) *Pilot {
	return &Pilot{
		Market:     src,
		Workflow:   wf,
		StatePath:  statePath,
		Tick:       time.Second,
		Grace:      10 * time.Second,
		ExpiryScan: 3,
		WatchEvery: 15 * time.Second,
	}
}

// RunResult is the terminal report of one scheduled run.
type RunResult struct {
	Outcome  string
	Detail   string
	Workflow *workflow.Result
}

func (p *Pilot) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pilot) notify(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.Notify != nil {
		p.Notify(msg)
	} else {
		log.Printf("[INFO] autopilot: %s", msg)
	}
}

// Arm persists a new run. It fails if another run is already armed.
func (p *Pilot) Arm(st *model.AutoPilotState) error {
	if _, err := st.TriggerToday(p.now()); err != nil {
		return fmt.Errorf("invalid trigger time %q: %w", st.TriggerTime, err)
	}
	if existing := state.LoadAutoPilot(p.StatePath); existing != nil {
		return fmt.Errorf("a run for %s at %s is already armed", existing.Symbol, existing.TriggerTime)
	}
	st.Enabled = true
	st.CreatedAt = p.now()
	if err := state.SaveAutoPilot(p.StatePath, st); err != nil {
		return err
	}
	p.notify("armed: %s at %s, budget %.2f, ask range [%.2f, %.2f]",
		st.Symbol, st.TriggerTime, st.Budget, st.AskMin, st.AskMax)
	return nil
}

// Stop clears the persisted run. A running wait loop notices the cleared
// state at its next tick and exits without side effects.
func (p *Pilot) Stop() error {
	return state.ClearAutoPilot(p.StatePath)
}

// Status returns the armed run, or nil when none is pending.
func (p *Pilot) Status() *model.AutoPilotState {
	return state.LoadAutoPilot(p.StatePath)
}

// Resume picks up a run that survived a restart. Rather than silently
// re-arming, it announces itself and waits out a grace window first; a Stop
// during the window aborts before any market or broker call. Returns nil
// when no run is pending.
func (p *Pilot) Resume(ctx context.Context) *RunResult {
	st := state.LoadAutoPilot(p.StatePath)
	if st == nil {
		return nil
	}
	if !p.busy.CompareAndSwap(false, true) {
		return nil
	}
	defer p.busy.Store(false)
	p.notify("found armed run for %s at %s, resuming in %s (stop now to abort)",
		st.Symbol, st.TriggerTime, p.Grace)

	deadline := p.now().Add(p.Grace)
	for p.now().Before(deadline) {
		if err := sleepCtx(ctx, p.Tick); err != nil {
			return p.finish(st, RunResult{Outcome: OutcomeCanceled, Detail: "canceled during resume grace window"})
		}
		if state.LoadAutoPilot(p.StatePath) == nil {
			p.notify("run was stopped during the grace window")
			return &RunResult{Outcome: OutcomeCanceled, Detail: "stopped during resume grace window"}
		}
	}
	return p.run(ctx, st)
}

// Watch periodically re-reads the state file and launches any run armed by
// another process (the arm subcommand writes the record from its own
// process). Blocks until ctx is cancelled; each terminal result is passed to
// onResult.
func (p *Pilot) Watch(ctx context.Context, onResult func(*RunResult)) {
	every := p.WatchEvery
	if every <= 0 {
		every = 15 * time.Second
	}
	for {
		if err := sleepCtx(ctx, every); err != nil {
			return
		}
		if p.busy.Load() {
			continue
		}
		st := state.LoadAutoPilot(p.StatePath)
		if st == nil {
			continue
		}
		p.notify("picked up armed run for %s at %s", st.Symbol, st.TriggerTime)
		res := p.Run(ctx, st)
		if res != nil && onResult != nil {
			onResult(res)
		}
	}
}

// Run waits for the trigger time and executes the buy. The wait loop sleeps
// in Tick increments, re-checking cancellation and the persisted state every
// iteration; an already-passed trigger fires immediately. Every terminal
// outcome clears the persisted state. Returns nil when another run is
// already in flight.
func (p *Pilot) Run(ctx context.Context, st *model.AutoPilotState) *RunResult {
	if !p.busy.CompareAndSwap(false, true) {
		return nil
	}
	defer p.busy.Store(false)
	return p.run(ctx, st)
}

func (p *Pilot) run(ctx context.Context, st *model.AutoPilotState) *RunResult {
	target, err := st.TriggerToday(p.now())
	if err != nil {
		return p.finish(st, RunResult{Outcome: OutcomeError, Detail: "invalid trigger time: " + err.Error()})
	}

	lastReport := time.Time{}
	for {
		now := p.now()
		if !now.Before(target) {
			break
		}
		if now.Sub(lastReport) >= time.Minute {
			p.notify("waiting for %s trigger at %s (%s remaining)", st.Symbol, st.TriggerTime, target.Sub(now).Round(time.Second))
			lastReport = now
		}
		if err := sleepCtx(ctx, p.Tick); err != nil {
			return p.finish(st, RunResult{Outcome: OutcomeCanceled, Detail: "canceled while waiting for trigger"})
		}
		if state.LoadAutoPilot(p.StatePath) == nil {
			p.notify("run was stopped while waiting")
			return &RunResult{Outcome: OutcomeCanceled, Detail: "stopped while waiting for trigger"}
		}
	}

	return p.fire(ctx, st)
}

// fire runs the trigger-time sequence: trend check, candidate scan, sizing,
// workflow.
func (p *Pilot) fire(ctx context.Context, st *model.AutoPilotState) *RunResult {
	if st.TrendFilter {
		bar, err := p.Market.GetLatestBar(ctx, st.Symbol)
		if err != nil {
			return p.finish(st, RunResult{Outcome: OutcomeError, Detail: "fetching latest bar: " + err.Error()})
		}
		if bar.Close < bar.Open {
			return p.finish(st, RunResult{
				Outcome: OutcomeTrendRejected,
				Detail:  fmt.Sprintf("%s closed %.2f below open %.2f", st.Symbol, bar.Close, bar.Open),
			})
		}
	}

	contract, found, err := p.findCandidate(ctx, st)
	if err != nil {
		return p.finish(st, RunResult{Outcome: OutcomeError, Detail: "scanning chain: " + err.Error()})
	}
	if !found {
		return p.finish(st, RunResult{
			Outcome: OutcomeNoCandidate,
			Detail:  fmt.Sprintf("no %s contract with ask in [%.2f, %.2f]", st.Symbol, st.AskMin, st.AskMax),
		})
	}

	// Contracts are 100-share lots; size down to an even count so the
	// doubling tactic can sell exactly half.
	qty := int(st.Budget / (contract.Ask * 100))
	qty -= qty % 2
	if qty < 2 {
		return p.finish(st, RunResult{
			Outcome: OutcomeInsufficientBudget,
			Detail:  fmt.Sprintf("budget %.2f buys fewer than 2 contracts at ask %.2f", st.Budget, contract.Ask),
		})
	}

	limit := math.Round((contract.Ask+LimitBump)*100) / 100
	p.notify("firing: buy %d %s @ %.2f (ask %.2f)", qty, contract.ContractSymbol, limit, contract.Ask)

	res := p.Workflow.Execute(ctx, workflow.Request{
		Symbol:          contract.ContractSymbol,
		Qty:             qty,
		LimitPrice:      limit,
		Tactic:          true,
		CancelOnTimeout: true,
	})

	outcome := OutcomeDone
	if res.State == workflow.StateError {
		outcome = OutcomeError
	}
	return p.finish(st, RunResult{Outcome: outcome, Detail: res.Outcome, Workflow: &res})
}

// findCandidate scans the nearest expiries for the first call whose ask
// falls inside the configured range.
func (p *Pilot) findCandidate(ctx context.Context, st *model.AutoPilotState) (model.OptionContract, bool, error) {
	expiries, err := p.Market.GetExpiries(ctx, st.Symbol)
	if err != nil {
		return model.OptionContract{}, false, err
	}
	limit := p.ExpiryScan
	if limit <= 0 || limit > len(expiries) {
		limit = len(expiries)
	}
	for _, expiry := range expiries[:limit] {
		chain, err := p.Market.GetOptionChain(ctx, st.Symbol, expiry, model.DirectionCall)
		if err != nil {
			return model.OptionContract{}, false, err
		}
		if c, ok := options.FindByAskRange(chain, st.AskMin, st.AskMax); ok {
			return c, true, nil
		}
	}
	return model.OptionContract{}, false, nil
}

// finish clears the persisted state and reports the terminal outcome.
func (p *Pilot) finish(st *model.AutoPilotState, res RunResult) *RunResult {
	if err := state.ClearAutoPilot(p.StatePath); err != nil {
		log.Printf("[ERROR] autopilot: clearing state: %v", err)
	}
	p.notify("run for %s finished: %s (%s)", st.Symbol, res.Outcome, res.Detail)
	return &res
}

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
