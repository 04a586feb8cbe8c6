package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"OptionPilot/internal/autopilot"
	"OptionPilot/internal/broker"
	"OptionPilot/internal/calculator"
	"OptionPilot/internal/market"
	"OptionPilot/internal/metrics"
	"OptionPilot/internal/notifier"
	"OptionPilot/internal/recorder"
	"OptionPilot/internal/state"
	"OptionPilot/internal/strategy"
)

// scanLookbackDays covers the 200-day SMA with margin for holidays.
const scanLookbackDays = 320

// Scheduler runs the daily watchlist scan on a cron schedule and answers
// operator commands.
type Scheduler struct {
	Cron          *cron.Cron
	Market        market.Source
	Engine        *calculator.Engine
	Classifier    *strategy.Classifier
	Pilot         *autopilot.Pilot
	Broker        broker.Broker // optional; refreshes the equity gauge
	Notifier      notifier.Notifier
	Recorder      recorder.Recorder
	WatchlistFile string
	Ctx           context.Context
}

// NewScheduler creates a scheduler with second-resolution cron expressions.
func NewScheduler(ctx context.Context, src market.Source, eng *calculator.Engine, cls *strategy.Classifier,
	pilot *autopilot.Pilot, n notifier.Notifier, rec recorder.Recorder, watchlistFile string) *Scheduler {
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Market:        src,
		Engine:        eng,
		Classifier:    cls,
		Pilot:         pilot,
		Notifier:      n,
		Recorder:      rec,
		WatchlistFile: watchlistFile,
		Ctx:           ctx,
	}
}

// RegisterAll registers the daily scan task.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan task immediately (manual trigger).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// ScanOnce classifies every watchlist symbol and returns the per-symbol
// results. Symbols whose data fetch fails carry the error instead of
// aborting the whole scan.
func (s *Scheduler) ScanOnce(ctx context.Context) []notifier.ScanResult {
	symbols := state.LoadWatchlist(s.WatchlistFile)
	results := make([]notifier.ScanResult, 0, len(symbols))

	for _, symbol := range symbols {
		res := notifier.ScanResult{Symbol: symbol}
		bars, err := s.Market.GetBars(ctx, symbol, scanLookbackDays)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		series := s.Engine.Enrich(symbol, bars)
		snap, err := calculator.Snapshot(series)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Snapshot = snap
		res.Signal = s.Classifier.ClassifyOption(snap, symbol)
		results = append(results, res)

		metrics.IncSignal(string(res.Signal.Kind))
		if err := s.Recorder.RecordSignal(recorder.SignalFromSnapshot(symbol, snap, res.Signal)); err != nil {
			log.Printf("[ERROR] record signal %s: %v", symbol, err)
		}
	}
	return results
}

func (s *Scheduler) scanTask() {
	log.Println("[INFO] running watchlist scan")
	results := s.ScanOnce(s.Ctx)
	s.trySend(notifier.FormatScanReport(results))

	if s.Broker != nil {
		if acct, err := s.Broker.GetAccount(s.Ctx); err != nil {
			log.Printf("[WARN] refresh account equity: %v", err)
		} else {
			metrics.SetEquity(acct.Equity)
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/scan":
		s.scanTask()
		return ""
	case "/autopilot":
		if len(fields) > 1 && fields[1] == "stop" {
			if s.Pilot.Status() == nil {
				return "🛩 AutoPilot: nothing armed"
			}
			if err := s.Pilot.Stop(); err != nil {
				return fmt.Sprintf("⚠️ stop failed: %v", err)
			}
			return "🛩 AutoPilot stopped"
		}
		return notifier.FormatAutoPilotStatus(s.Pilot.Status())
	default:
		return "Commands:\n• /scan\n• /autopilot\n• /autopilot stop"
	}
}

func (s *Scheduler) trySend(text string) {
	if tg, ok := s.Notifier.(*notifier.TelegramNotifier); ok {
		if err := tg.SendWithRetry(s.Ctx, text, notifier.DefaultRetries); err != nil {
			log.Printf("[ERROR] send notification: %v", err)
		}
		return
	}
	if err := s.Notifier.Send(text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
