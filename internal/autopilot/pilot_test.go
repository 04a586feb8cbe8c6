package autopilot

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"OptionPilot/internal/broker"
	"OptionPilot/internal/market"
	"OptionPilot/internal/model"
	"OptionPilot/internal/workflow"
)

func chainWithAsks(asks ...float64) []model.OptionContract {
	out := make([]model.OptionContract, len(asks))
	for i, ask := range asks {
		out[i] = model.OptionContract{
			ContractSymbol: "NVDA260116C00100000",
			Strike:         100 + float64(i)*5,
			Ask:            ask,
			Bid:            ask - 0.05,
		}
	}
	return out
}

func newTestPilot(t *testing.T, src market.Source) (*Pilot, *broker.PaperBroker) {
	t.Helper()
	pb := broker.NewPaperBroker()
	wf := &workflow.Engine{
		Broker:   pb,
		Cfg:      workflow.Config{PollInterval: time.Millisecond, MaxPolls: 5},
		Progress: func(string) {},
	}
	p := NewPilot(src, wf, filepath.Join(t.TempDir(), "autopilot.json"))
	p.Tick = time.Millisecond
	p.Grace = 5 * time.Millisecond
	p.Notify = func(string) {}
	// Fake clock past the 09:35 trigger, advancing a little on every read so
	// bounded wait loops make progress. Atomic because Watch reads it from
	// its own goroutine.
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC).UnixNano()
	var ticks atomic.Int64
	p.Now = func() time.Time {
		return time.Unix(0, base+ticks.Add(int64(time.Millisecond)))
	}
	return p, pb
}

func armedState() *model.AutoPilotState {
	return &model.AutoPilotState{
		Enabled:     true,
		Symbol:      "NVDA",
		TriggerTime: "09:35",
		Budget:      750,
		AskMin:      0.50,
		AskMax:      2.00,
		TrendFilter: true,
	}
}

func bullishSource() *market.MockSource {
	return &market.MockSource{
		LatestBar: &model.OHLCV{Open: 100, Close: 101},
		Expiries:  []time.Time{time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC)},
		Chain:     chainWithAsks(1.00),
	}
}

func TestRunHappyPath(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())

	st := armedState()
	if err := p.Arm(st); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	res := p.Run(context.Background(), st)

	if res.Outcome != OutcomeDone {
		t.Fatalf("outcome = %s (%s), want %s", res.Outcome, res.Detail, OutcomeDone)
	}
	if len(pb.Submitted) != 2 {
		t.Fatalf("submitted %d orders, want entry + exit", len(pb.Submitted))
	}
	entry := pb.Submitted[0]
	// Budget 750 at ask 1.00 affords 7 contracts, floored to the even 6.
	if entry.Qty != 6 {
		t.Errorf("entry qty = %d, want 6", entry.Qty)
	}
	if entry.LimitPrice != 1.05 {
		t.Errorf("entry limit = %.2f, want ask + 0.05 = 1.05", entry.LimitPrice)
	}
	exit := pb.Submitted[1]
	if exit.Qty != 3 || exit.LimitPrice != 2.10 {
		t.Errorf("exit = %d @ %.2f, want 3 @ 2.10", exit.Qty, exit.LimitPrice)
	}
	if p.Status() != nil {
		t.Error("state not cleared after a successful run")
	}
}

func TestRunTrendRejected(t *testing.T) {
	src := bullishSource()
	src.LatestBar = &model.OHLCV{Open: 101, Close: 100} // red day
	p, pb := newTestPilot(t, src)

	st := armedState()
	if err := p.Arm(st); err != nil {
		t.Fatal(err)
	}
	res := p.Run(context.Background(), st)

	if res.Outcome != OutcomeTrendRejected {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeTrendRejected)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0 after trend rejection", len(pb.Submitted))
	}
	if p.Status() != nil {
		t.Error("state not cleared after trend rejection")
	}
}

func TestRunNoCandidate(t *testing.T) {
	src := bullishSource()
	src.Chain = chainWithAsks(0.10, 5.00) // all outside [0.50, 2.00]
	p, pb := newTestPilot(t, src)

	st := armedState()
	if err := p.Arm(st); err != nil {
		t.Fatal(err)
	}
	res := p.Run(context.Background(), st)

	if res.Outcome != OutcomeNoCandidate {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeNoCandidate)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0", len(pb.Submitted))
	}
	if p.Status() != nil {
		t.Error("state not cleared")
	}
}

func TestRunInsufficientBudget(t *testing.T) {
	src := bullishSource()
	src.Chain = chainWithAsks(2.00) // 100-lot costs 200; budget 300 affords 1
	p, pb := newTestPilot(t, src)

	st := armedState()
	st.Budget = 300
	if err := p.Arm(st); err != nil {
		t.Fatal(err)
	}
	res := p.Run(context.Background(), st)

	if res.Outcome != OutcomeInsufficientBudget {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeInsufficientBudget)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0", len(pb.Submitted))
	}
}

func TestArmMutualExclusion(t *testing.T) {
	p, _ := newTestPilot(t, bullishSource())

	if err := p.Arm(armedState()); err != nil {
		t.Fatalf("first Arm: %v", err)
	}
	if err := p.Arm(armedState()); err == nil {
		t.Error("second Arm succeeded, want mutual-exclusion error")
	}
}

func TestRunCanceledWhileWaiting(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())
	clock := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) // before the trigger
	p.Now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	st := armedState()
	if err := p.Arm(st); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Run(ctx, st)

	if res.Outcome != OutcomeCanceled {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeCanceled)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0: cancellation must have no side effects", len(pb.Submitted))
	}
	if p.Status() != nil {
		t.Error("state not cleared after cancellation")
	}
}

func TestRunStoppedExternally(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())
	clock := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	p.Now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	st := armedState()
	if err := p.Arm(st); err != nil {
		t.Fatal(err)
	}
	// Clear the state out from under the wait loop, as the stop command does.
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	res := p.Run(context.Background(), st)

	if res.Outcome != OutcomeCanceled {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeCanceled)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0", len(pb.Submitted))
	}
}

func TestResumeGraceWindowStop(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())

	if err := p.Arm(armedState()); err != nil {
		t.Fatal(err)
	}
	// Stop as soon as the resume announcement lands, inside the grace window.
	p.Notify = func(string) {
		p.Stop()
		p.Notify = func(string) {}
	}

	res := p.Resume(context.Background())

	if res == nil {
		t.Fatal("Resume returned nil with an armed run present")
	}
	if res.Outcome != OutcomeCanceled {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeCanceled)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0: a grace-window stop must precede any broker call", len(pb.Submitted))
	}
}

func TestResumeNothingPending(t *testing.T) {
	p, _ := newTestPilot(t, bullishSource())
	if res := p.Resume(context.Background()); res != nil {
		t.Errorf("Resume = %+v, want nil with no persisted run", res)
	}
}

func TestWatchPicksUpNewlyArmedRun(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())
	p.WatchEvery = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan *RunResult, 1)
	go p.Watch(ctx, func(res *RunResult) { results <- res })

	// Arm while the watcher is already looping, as the arm subcommand's
	// separate process would.
	if err := p.Arm(armedState()); err != nil {
		t.Fatal(err)
	}

	select {
	case res := <-results:
		if res.Outcome != OutcomeDone {
			t.Fatalf("outcome = %s (%s), want %s", res.Outcome, res.Detail, OutcomeDone)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never picked up the armed run")
	}
	if len(pb.Submitted) != 2 {
		t.Errorf("submitted %d orders, want entry + exit", len(pb.Submitted))
	}
	if p.Status() != nil {
		t.Error("state not cleared after the watched run")
	}
}

func TestRunRefusesConcurrentLaunch(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())
	p.busy.Store(true)

	if res := p.Run(context.Background(), armedState()); res != nil {
		t.Errorf("Run = %+v, want nil while another run is in flight", res)
	}
	if len(pb.Submitted) != 0 {
		t.Errorf("submitted %d orders, want 0", len(pb.Submitted))
	}
}

func TestResumeRunsThrough(t *testing.T) {
	p, pb := newTestPilot(t, bullishSource())
	if err := p.Arm(armedState()); err != nil {
		t.Fatal(err)
	}

	res := p.Resume(context.Background())

	if res == nil || res.Outcome != OutcomeDone {
		t.Fatalf("res = %+v, want %s", res, OutcomeDone)
	}
	if len(pb.Submitted) != 2 {
		t.Errorf("submitted %d orders, want 2", len(pb.Submitted))
	}
}
